package scene

import (
	"fmt"
	"time"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
	"github.com/zeusync/rigidscene/internal/core/physics/debug"
)

// Update advances the simulation by the wall-clock time elapsed since the
// previous call (or since Init). The elapsed time is consumed in steps no
// longer than the configured timestep, so a long gap runs many steps and
// blocks accordingly. The step count is ceil(elapsed / timestep).
func (s *Scene) Update() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateRunning {
		return ErrSceneNotRunning
	}

	now := s.opts.Clock.Now()
	s.updates.Add(1)
	remaining := now.Sub(s.last)
	s.last = now

	for remaining > 0 {
		step := min(remaining, s.step)
		dt := float32(step.Seconds())
		if err := s.sim.Simulate(dt); err != nil {
			s.logger.Error("simulate failed", log.Float32("dt", dt), log.Duration("dropped", remaining), log.Error(err))
			return fmt.Errorf("simulate: %w", err)
		}
		if err := s.sim.FetchResults(true); err != nil {
			s.logger.Error("fetch results failed", log.Duration("dropped", remaining), log.Error(err))
			return fmt.Errorf("fetch results: %w", err)
		}
		remaining -= step
		s.simTime += step
		s.steps.Add(1)
		if s.link != nil {
			s.publish(dt)
		}
	}
	return nil
}

func (s *Scene) publish(dt float32) {
	s.seq++
	frame := debug.Frame{
		Session: s.link.SessionID(),
		Seq:     s.seq,
		Time:    s.simTime.Seconds(),
		Step:    dt,
	}
	if s.link.Full() {
		frame.Actors = make([]debug.ActorState, 0, s.registry.len())
		s.registry.each(func(h Handle, e *entry) {
			pose := e.actor.GlobalPose()
			frame.Actors = append(frame.Actors, debug.ActorState{
				Handle:   uint64(h),
				Shape:    e.shape.String(),
				Mobility: e.mobility.String(),
				Position: pose.Position,
				Rotation: pose.Rotation,
			})
		})
	}
	if err := s.link.Publish(frame); err != nil {
		s.logger.Warn("debug frame dropped", log.Uint64("seq", s.seq), log.Error(err))
	}
}

// SimulatedTime is the total simulated time.
func (s *Scene) SimulatedTime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.simTime
}
