package sandbox

import (
	"fmt"
	"sync"

	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

type simulation struct {
	resource
	gravity physics.Vector3
	flags   engine.SceneFlags

	mu        sync.Mutex
	actors    map[uint64]engine.Actor
	order     []uint64
	pending   bool
	elapsed   float64
	visualize engine.DebugLink
}

func (s *simulation) AddActor(a engine.Actor) error {
	if err := s.eng.fault(OpAddActor); err != nil {
		return err
	}
	base := baseOf(a)
	if base == nil || base.isReleased() {
		return fmt.Errorf("%w: foreign or released actor", engine.ErrUnsupported)
	}
	base.mu.Lock()
	if base.sim != nil {
		base.mu.Unlock()
		return fmt.Errorf("%w: actor %d already in a simulation", engine.ErrUnsupported, base.id)
	}
	base.sim = s
	base.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actors == nil {
		s.actors = make(map[uint64]engine.Actor)
	}
	s.actors[base.id] = a
	s.order = append(s.order, base.id)
	return nil
}

func (s *simulation) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actors, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *simulation) Simulate(dt float32) error {
	if err := s.eng.fault(OpSimulate); err != nil {
		return err
	}
	if s.isReleased() {
		return engine.ErrReleased
	}
	if dt <= 0 {
		return fmt.Errorf("%w: step %v", engine.ErrUnsupported, dt)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return fmt.Errorf("%w: simulate called twice without fetch", engine.ErrUnsupported)
	}
	for _, id := range s.order {
		if b, ok := s.actors[id].(*body); ok {
			b.integrate(s.gravity, dt)
		}
	}
	s.pending = true
	s.elapsed += float64(dt)
	s.eng.recordStep(dt)
	return nil
}

func (s *simulation) FetchResults(_ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return fmt.Errorf("%w: fetch without simulate", engine.ErrUnsupported)
	}
	s.pending = false
	return nil
}

func (s *simulation) EnableVisualization(link engine.DebugLink) {
	s.mu.Lock()
	s.visualize = link
	s.mu.Unlock()
}

func (s *simulation) ActorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actors)
}

// Elapsed is the total simulated time in seconds.
func (s *simulation) Elapsed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

func baseOf(a engine.Actor) *actor {
	switch v := a.(type) {
	case *actor:
		return v
	case *body:
		return v.actor
	default:
		return nil
	}
}
