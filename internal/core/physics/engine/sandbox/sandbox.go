// Package sandbox is an in-memory physics backend. It integrates dynamic
// bodies under gravity and applied forces with no collision response, which
// is enough to drive the scene layer in tools and tests.
package sandbox

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

// Operation names understood by Options.Fault.
const (
	OpFoundation   = "foundation"
	OpPhysics      = "physics"
	OpExtensions   = "extensions"
	OpMaterial     = "material"
	OpCooking      = "cooking"
	OpDispatcher   = "dispatcher"
	OpSimulation   = "simulation"
	OpStatic       = "static"
	OpDynamic      = "dynamic"
	OpKinematic    = "kinematic"
	OpRigidStatic  = "rigid-static"
	OpAttachShape  = "attach-shape"
	OpCookMesh     = "cook-mesh"
	OpTriangleMesh = "triangle-mesh"
	OpHeightField  = "heightfield"
	OpAddActor     = "add-actor"
	OpSimulate     = "simulate"
)

type Options struct {
	// Fault, when set, is consulted before every operation. A non-nil return
	// fails that operation.
	Fault func(op string) error
}

// FailOn returns a Fault hook failing the named operations.
func FailOn(ops ...string) func(op string) error {
	set := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		set[op] = struct{}{}
	}
	return func(op string) error {
		if _, ok := set[op]; ok {
			return fmt.Errorf("%w: %s", engine.ErrFault, op)
		}
		return nil
	}
}

var _ engine.Engine = (*Engine)(nil)

type Engine struct {
	opts Options
	ids  atomic.Uint64

	mu      sync.Mutex
	journal []string
	live    int
	steps   []float32
}

func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

func (e *Engine) Name() string { return "sandbox" }

func (e *Engine) CreateFoundation() (engine.Foundation, error) {
	if err := e.fault(OpFoundation); err != nil {
		return nil, err
	}
	f := &foundation{}
	f.init(e, OpFoundation)
	return f, nil
}

// Journal returns "create:<op>" and "release:<op>" entries in the order they happened.
func (e *Engine) Journal() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.journal))
	copy(out, e.journal)
	return out
}

// Live is the number of created resources not yet released.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// Steps lists every dt passed to Simulate, across all simulations.
func (e *Engine) Steps() []float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]float32, len(e.steps))
	copy(out, e.steps)
	return out
}

func (e *Engine) fault(op string) error {
	if e.opts.Fault == nil {
		return nil
	}
	return e.opts.Fault(op)
}

func (e *Engine) record(entry string, delta int) {
	e.mu.Lock()
	e.journal = append(e.journal, entry)
	e.live += delta
	e.mu.Unlock()
}

func (e *Engine) recordStep(dt float32) {
	e.mu.Lock()
	e.steps = append(e.steps, dt)
	e.mu.Unlock()
}

// resource is embedded by every sandbox object to track create/release.
type resource struct {
	eng      *Engine
	kind     string
	released atomic.Bool
}

func (r *resource) init(e *Engine, kind string) {
	r.eng = e
	r.kind = kind
	e.record("create:"+kind, 1)
}

func (r *resource) Release() {
	if r.released.CompareAndSwap(false, true) {
		r.eng.record("release:"+r.kind, -1)
	}
}

func (r *resource) isReleased() bool { return r.released.Load() }
