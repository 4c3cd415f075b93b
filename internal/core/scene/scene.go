// Package scene orchestrates one physics simulation: engine bootstrap and
// teardown, actor creation and tracking, fixed-step time advancement and
// instantiation of cached scene descriptions.
package scene

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/clock"
	"github.com/zeusync/rigidscene/internal/core/physics/debug"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
	"github.com/zeusync/rigidscene/internal/core/scenedesc"
)

type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateRunning
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const (
	DefaultDensity           float32 = 1.0
	DefaultAngularDamping    float32 = 0.5
	DefaultDispatcherThreads         = 2
)

var DefaultGravity = physics.Vec3(0, -9.81, 0)

type Options struct {
	Engine engine.Engine
	Clock  clock.Clock
	Logger log.Log
	// Cache backs CreateScene and GetStaticObjectCount. Without one both
	// report nothing loaded.
	Cache *scenedesc.Cache
	// Dialer opens the debug link for InitWithDebug. Defaults to debug.Dial.
	Dialer debug.Dialer

	// Gravity defaults to DefaultGravity when nil.
	Gravity           *physics.Vector3
	Tolerances        engine.Tolerances
	Material          engine.MaterialParams
	WeldTolerance     float32
	DispatcherThreads int
	DefaultDensity    float32
	AngularDamping    float32
}

func (o *Options) defaults() {
	if o.Clock == nil {
		o.Clock = clock.System()
	}
	if o.Logger == nil {
		o.Logger = log.Provide()
	}
	if o.Dialer == nil {
		o.Dialer = debug.Dial
	}
	if o.Gravity == nil {
		g := DefaultGravity
		o.Gravity = &g
	}
	if o.Tolerances == (engine.Tolerances{}) {
		o.Tolerances = engine.DefaultTolerances()
	}
	if o.Material == (engine.MaterialParams{}) {
		o.Material = engine.DefaultMaterial()
	}
	if o.WeldTolerance <= 0 {
		o.WeldTolerance = engine.DefaultCooking(o.Tolerances).WeldTolerance
	}
	if o.DispatcherThreads <= 0 {
		o.DispatcherThreads = DefaultDispatcherThreads
	}
	if o.DefaultDensity <= 0 {
		o.DefaultDensity = DefaultDensity
	}
	if o.AngularDamping <= 0 {
		o.AngularDamping = DefaultAngularDamping
	}
}

// Stats is a point-in-time summary of a scene.
type Stats struct {
	State         State
	Actors        int
	Steps         uint64
	Updates       uint64
	SimulatedTime time.Duration
	Failures      uint64
}

// Scene owns one engine bootstrap and every actor created through it.
//
// Creation, Update and Release hold the scene lock exclusively; actor
// queries and mutations share it.
type Scene struct {
	opts   Options
	serial uint32
	logger log.Log

	state  atomic.Int32
	initMu sync.Mutex
	mu     sync.RWMutex

	timestep float32
	step     time.Duration
	last     time.Time
	simTime  time.Duration
	seq      uint64

	foundation engine.Foundation
	link       debug.Link
	extensions bool
	physics    engine.Physics
	material   engine.Material
	cooking    engine.Cooking
	dispatcher engine.Dispatcher
	sim        engine.Simulation

	registry registry

	steps    atomic.Uint64
	updates  atomic.Uint64
	failures atomic.Uint64
}

func New(opts Options) (*Scene, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("%w: engine is required", ErrInvalidArgument)
	}
	opts.defaults()
	serial := nextSerial()
	s := &Scene{
		opts:   opts,
		serial: serial,
		logger: opts.Logger.With(log.Uint32("scene", serial), log.String("engine", opts.Engine.Name())),
	}
	s.registry.serial = serial
	return s, nil
}

func (s *Scene) ID() uint32 { return s.serial }

func (s *Scene) State() State { return State(s.state.Load()) }

// Timestep is the fixed step size in seconds, zero before Init.
func (s *Scene) Timestep() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timestep
}

// DebugEnabled reports whether a debug link is attached.
func (s *Scene) DebugEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.link != nil
}

func (s *Scene) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		State:         s.State(),
		Actors:        s.registry.len(),
		Steps:         s.steps.Load(),
		Updates:       s.updates.Load(),
		SimulatedTime: s.simTime,
		Failures:      s.failures.Load(),
	}
}

// Init bootstraps the engine with a fixed timestep in seconds. Calls against a
// running scene succeed without doing anything.
func (s *Scene) Init(timestep float32) error {
	return s.initialize(timestep, nil)
}

// InitWithDebug is Init with a debug link. A link that cannot be opened is
// logged and the scene runs without one.
func (s *Scene) InitWithDebug(timestep float32, cfg debug.Config) error {
	return s.initialize(timestep, &cfg)
}

func (s *Scene) initialize(timestep float32, dbg *debug.Config) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	switch s.State() {
	case StateRunning:
		return nil
	case StateReleased:
		return ErrSceneReleased
	}
	if timestep <= 0 || math.IsNaN(float64(timestep)) || math.IsInf(float64(timestep), 0) {
		return fmt.Errorf("%w: %w: timestep %v", ErrInitialization, ErrInvalidArgument, timestep)
	}
	if !s.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		return fmt.Errorf("%w: unexpected state %s", ErrInitialization, s.State())
	}

	s.mu.Lock()
	err := s.bootstrap(dbg)
	if err != nil {
		s.teardown()
		s.mu.Unlock()
		s.state.Store(int32(StateUninitialized))
		s.logger.Error("scene initialization failed", log.Error(err))
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	s.timestep = timestep
	s.step = time.Duration(math.Round(float64(timestep) * float64(time.Second)))
	s.last = s.opts.Clock.Now()
	s.mu.Unlock()

	s.state.Store(int32(StateRunning))
	s.logger.Info("scene initialized",
		log.Float32("timestep", timestep),
		log.Bool("debug", dbg != nil && s.link != nil),
	)
	return nil
}

// bootstrap creates engine resources in dependency order. Whatever it
// created before failing is left in place for teardown.
func (s *Scene) bootstrap(dbg *debug.Config) error {
	var err error
	if s.foundation, err = s.opts.Engine.CreateFoundation(); err != nil {
		return fmt.Errorf("create foundation: %w", err)
	}

	if dbg != nil {
		s.link = s.dial(*dbg)
	}

	if s.physics, err = s.foundation.CreatePhysics(s.opts.Tolerances, s.debugLink()); err != nil {
		return fmt.Errorf("create physics: %w", err)
	}

	if s.link != nil {
		if err = s.foundation.InitExtensions(s.physics, s.link); err != nil {
			return fmt.Errorf("init extensions: %w", err)
		}
		s.extensions = true
	}

	if s.material, err = s.physics.CreateMaterial(s.opts.Material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}

	cooking := engine.DefaultCooking(s.opts.Tolerances)
	cooking.WeldTolerance = s.opts.WeldTolerance
	if s.cooking, err = s.foundation.CreateCooking(cooking); err != nil {
		return fmt.Errorf("create cooking: %w", err)
	}

	if s.dispatcher, err = s.foundation.CreateDispatcher(s.opts.DispatcherThreads); err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}

	s.sim, err = s.physics.CreateSimulation(engine.SimulationDesc{
		Gravity:    *s.opts.Gravity,
		Dispatcher: s.dispatcher,
		Flags:      engine.DefaultSceneFlags,
	})
	if err != nil {
		return fmt.Errorf("create simulation: %w", err)
	}
	if s.link != nil {
		s.sim.EnableVisualization(s.link)
	}
	return nil
}

func (s *Scene) dial(cfg debug.Config) debug.Link {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = debug.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	link, err := s.opts.Dialer(ctx, cfg, s.logger)
	if err != nil {
		s.logger.Warn("debug link unavailable, continuing without it",
			log.String("addr", cfg.Addr()),
			log.Error(err),
		)
		return nil
	}
	return link
}

// debugLink keeps a nil link a nil interface.
func (s *Scene) debugLink() engine.DebugLink {
	if s.link == nil {
		return nil
	}
	return s.link
}

// Release frees every actor and engine resource. Only the first call on a
// running scene does any work.
func (s *Scene) Release() {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateReleased)) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	actors := s.registry.releaseAll()
	s.teardown()
	s.logger.Info("scene released",
		log.Int("actors", actors),
		log.Uint64("steps", s.steps.Load()),
	)
}

// teardown releases engine resources in reverse bootstrap order, closing the
// debug link before the physics it reports on. Nil fields are skipped.
func (s *Scene) teardown() {
	if s.sim != nil {
		s.sim.Release()
		s.sim = nil
	}
	if s.dispatcher != nil {
		s.dispatcher.Release()
		s.dispatcher = nil
	}
	if s.cooking != nil {
		s.cooking.Release()
		s.cooking = nil
	}
	if s.material != nil {
		s.material.Release()
		s.material = nil
	}
	if s.extensions {
		s.foundation.CloseExtensions()
		s.extensions = false
	}
	if s.link != nil {
		if err := s.link.Close(); err != nil {
			s.logger.Warn("debug link close failed", log.Error(err))
		}
		s.link = nil
	}
	if s.physics != nil {
		s.physics.Release()
		s.physics = nil
	}
	if s.foundation != nil {
		s.foundation.Release()
		s.foundation = nil
	}
}

// checkRunning must be called with the scene lock held.
func (s *Scene) checkRunning() error {
	switch s.State() {
	case StateRunning:
		return nil
	case StateReleased:
		return ErrSceneReleased
	default:
		return ErrSceneNotRunning
	}
}

// Actor exposes the engine actor behind h, for callers that need backend
// specific access.
func (s *Scene) Actor(h Handle) (engine.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.registry.lookup(h)
	if err != nil {
		return nil, err
	}
	return e.actor, nil
}

func isCreationError(err error) bool {
	return errors.Is(err, ErrCreation)
}
