package sandbox

import (
	"sync"

	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

var (
	_ engine.Actor = (*actor)(nil)
	_ engine.Body  = (*body)(nil)
)

type actor struct {
	resource
	id  uint64
	typ engine.ActorType

	mu       sync.RWMutex
	pose     physics.Pose
	shapes   []engine.Geometry
	material engine.Material
	sim      *simulation
}

func (a *actor) ID() uint64            { return a.id }
func (a *actor) Type() engine.ActorType { return a.typ }

func (a *actor) GlobalPose() physics.Pose {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pose
}

func (a *actor) SetGlobalPose(p physics.Pose) {
	a.mu.Lock()
	a.pose = p
	a.mu.Unlock()
}

// Shapes returns the geometry attached to the actor.
func (a *actor) Shapes() []engine.Geometry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]engine.Geometry, len(a.shapes))
	copy(out, a.shapes)
	return out
}

func (a *actor) Release() {
	a.mu.Lock()
	sim := a.sim
	a.sim = nil
	a.mu.Unlock()
	if sim != nil {
		sim.remove(a.id)
	}
	a.resource.Release()
}

type body struct {
	*actor
	velocity       physics.Vector3
	force          physics.Vector3
	mass           float32
	angularDamping float32
	kinematic      bool
	visualize      bool
}

func (b *body) SetLinearVelocity(v physics.Vector3) {
	b.mu.Lock()
	b.velocity = v
	b.mu.Unlock()
}

func (b *body) LinearVelocity() physics.Vector3 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.velocity
}

func (b *body) AddForce(f physics.Vector3) {
	b.mu.Lock()
	b.force = b.force.Add(f)
	b.mu.Unlock()
}

func (b *body) ClearForce() {
	b.mu.Lock()
	b.force = physics.Vector3{}
	b.mu.Unlock()
}

func (b *body) SetAngularDamping(d float32) {
	b.mu.Lock()
	b.angularDamping = d
	b.mu.Unlock()
}

func (b *body) AngularDamping() float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.angularDamping
}

func (b *body) SetKinematic(on bool) {
	b.mu.Lock()
	b.kinematic = on
	b.mu.Unlock()
}

func (b *body) IsKinematic() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.kinematic
}

func (b *body) SetVisualization(on bool) {
	b.mu.Lock()
	b.visualize = on
	b.mu.Unlock()
}

func (b *body) Visualized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visualize
}

func (b *body) Mass() float32 { return b.mass }

// integrate advances the body by dt with semi-implicit Euler. Forces are
// consumed by the step.
func (b *body) integrate(gravity physics.Vector3, dt float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.kinematic {
		b.force = physics.Vector3{}
		return
	}
	accel := gravity.Mgl().Add(b.force.Mgl().Mul(1 / b.mass))
	v := b.velocity.Mgl().Add(accel.Mul(dt))
	b.velocity = physics.FromMgl(v)
	b.pose.Position = physics.FromMgl(b.pose.Position.Mgl().Add(v.Mul(dt)))
	b.force = physics.Vector3{}
}
