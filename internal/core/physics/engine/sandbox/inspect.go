package sandbox

import (
	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

// Snapshot is a read-only view of a sandbox actor.
type Snapshot struct {
	ID             uint64
	Type           engine.ActorType
	Pose           physics.Pose
	Shapes         []engine.Geometry
	Material       engine.Material
	InSimulation   bool
	Released       bool
	Mass           float32
	Velocity       physics.Vector3
	AngularDamping float32
	Kinematic      bool
	Visualized     bool
}

// Inspect returns a snapshot of an actor created by a sandbox engine.
func Inspect(a engine.Actor) (Snapshot, bool) {
	base := baseOf(a)
	if base == nil {
		return Snapshot{}, false
	}
	base.mu.RLock()
	snap := Snapshot{
		ID:           base.id,
		Type:         base.typ,
		Pose:         base.pose,
		Shapes:       append([]engine.Geometry(nil), base.shapes...),
		Material:     base.material,
		InSimulation: base.sim != nil,
		Released:     base.isReleased(),
	}
	base.mu.RUnlock()

	if b, ok := a.(*body); ok {
		b.mu.RLock()
		snap.Mass = b.mass
		snap.Velocity = b.velocity
		snap.AngularDamping = b.angularDamping
		snap.Kinematic = b.kinematic
		snap.Visualized = b.visualize
		b.mu.RUnlock()
	}
	return snap, true
}

// HeightAt reads a sample from a sandbox heightfield.
func HeightAt(h engine.HeightField, col, row uint32) (int16, bool) {
	hf, ok := h.(*heightField)
	if !ok || col >= hf.columns || row >= hf.rows {
		return 0, false
	}
	return hf.Height(col, row), true
}
