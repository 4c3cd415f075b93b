package scene

import (
	"github.com/zeusync/rigidscene/internal/core/physics"
)

// Actor operations take the scene lock shared. They do not serialize
// concurrent writes to the same actor; callers that race on one actor must
// coordinate themselves.

func (s *Scene) lookup(h Handle) (*entry, func(), error) {
	s.mu.RLock()
	e, err := s.registry.lookup(h)
	if err != nil {
		s.mu.RUnlock()
		return nil, nil, err
	}
	return e, s.mu.RUnlock, nil
}

// SetLinearVelocity sets the velocity of a dynamic or kinematic body. It is
// ignored for static actors.
func (s *Scene) SetLinearVelocity(h Handle, v physics.Vector3) error {
	e, done, err := s.lookup(h)
	if err != nil {
		return err
	}
	defer done()
	if e.body != nil {
		e.body.SetLinearVelocity(v)
	}
	return nil
}

// AddForce accumulates a force applied on the next step. Ignored for static actors.
func (s *Scene) AddForce(h Handle, f physics.Vector3) error {
	e, done, err := s.lookup(h)
	if err != nil {
		return err
	}
	defer done()
	if e.body != nil {
		e.body.AddForce(f)
	}
	return nil
}

func (s *Scene) ClearForce(h Handle) error {
	e, done, err := s.lookup(h)
	if err != nil {
		return err
	}
	defer done()
	if e.body != nil {
		e.body.ClearForce()
	}
	return nil
}

func (s *Scene) GetGlobalPosition(h Handle) (physics.Vector3, error) {
	e, done, err := s.lookup(h)
	if err != nil {
		return physics.Vector3{}, err
	}
	defer done()
	return e.actor.GlobalPose().Position, nil
}

func (s *Scene) GetGlobalRotation(h Handle) (physics.Quat, error) {
	e, done, err := s.lookup(h)
	if err != nil {
		return physics.Quat{}, err
	}
	defer done()
	return e.actor.GlobalPose().Rotation, nil
}

// SetGlobalPosition moves the actor, keeping its rotation.
func (s *Scene) SetGlobalPosition(h Handle, pos physics.Vector3) error {
	e, done, err := s.lookup(h)
	if err != nil {
		return err
	}
	defer done()
	pose := e.actor.GlobalPose()
	pose.Position = pos
	e.actor.SetGlobalPose(pose)
	return nil
}

// SetGlobalRotation rotates the actor in place, keeping its position.
func (s *Scene) SetGlobalRotation(h Handle, rot physics.Quat) error {
	e, done, err := s.lookup(h)
	if err != nil {
		return err
	}
	defer done()
	pose := e.actor.GlobalPose()
	pose.Rotation = rot
	e.actor.SetGlobalPose(pose)
	return nil
}

func (s *Scene) Mobility(h Handle) (physics.Mobility, error) {
	e, done, err := s.lookup(h)
	if err != nil {
		return 0, err
	}
	defer done()
	return e.mobility, nil
}

func (s *Scene) Shape(h Handle) (physics.ShapeKind, error) {
	e, done, err := s.lookup(h)
	if err != nil {
		return 0, err
	}
	defer done()
	return e.shape, nil
}

// ActorCount is the number of registered actors.
func (s *Scene) ActorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.len()
}
