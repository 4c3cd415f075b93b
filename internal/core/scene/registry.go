package scene

import (
	"fmt"
	"sync/atomic"

	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

// Handle identifies an actor within the scene that created it. The high 32
// bits carry the scene serial and the low 32 bits the slot index plus one, so
// the zero value is never issued.
type Handle uint64

// InvalidHandle is returned alongside every creation error.
const InvalidHandle Handle = 0

func makeHandle(serial uint32, index int) Handle {
	return Handle(uint64(serial)<<32 | uint64(uint32(index+1)))
}

func (h Handle) serial() uint32 { return uint32(h >> 32) }

func (h Handle) slot() (int, bool) {
	low := uint32(h)
	if low == 0 {
		return 0, false
	}
	return int(low - 1), true
}

func (h Handle) String() string {
	if h == InvalidHandle {
		return "invalid"
	}
	idx, _ := h.slot()
	return fmt.Sprintf("%d:%d", h.serial(), idx)
}

var sceneSerials atomic.Uint32

func nextSerial() uint32 {
	for {
		if s := sceneSerials.Add(1); s != 0 {
			return s
		}
	}
}

type entry struct {
	actor    engine.Actor
	body     engine.Body // nil for static actors
	shape    physics.ShapeKind
	mobility physics.Mobility
	// owned is released after the actor: cooked meshes and heightfields.
	owned []engine.Resource
}

// registry is an append-only arena. Callers hold the scene lock.
type registry struct {
	serial   uint32
	entries  []entry
	released bool
}

func (r *registry) register(e entry) Handle {
	r.entries = append(r.entries, e)
	return makeHandle(r.serial, len(r.entries)-1)
}

func (r *registry) lookup(h Handle) (*entry, error) {
	if r.released || h.serial() != r.serial {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	idx, ok := h.slot()
	if !ok || idx >= len(r.entries) {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return &r.entries[idx], nil
}

func (r *registry) len() int {
	if r.released {
		return 0
	}
	return len(r.entries)
}

func (r *registry) each(fn func(h Handle, e *entry)) {
	if r.released {
		return
	}
	for i := range r.entries {
		fn(makeHandle(r.serial, i), &r.entries[i])
	}
}

// releaseAll releases every actor then the resources it owned, and
// invalidates all handles. It returns the number of actors released.
func (r *registry) releaseAll() int {
	n := len(r.entries)
	for i := range r.entries {
		e := &r.entries[i]
		e.actor.Release()
		for _, res := range e.owned {
			res.Release()
		}
	}
	r.entries = nil
	r.released = true
	return n
}
