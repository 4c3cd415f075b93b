package sandbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

type world struct {
	eng  *Engine
	f    engine.Foundation
	p    engine.Physics
	c    engine.Cooking
	mat  engine.Material
	sim  engine.Simulation
	disp engine.Dispatcher
}

func newWorld(t *testing.T, opts Options) *world {
	t.Helper()
	w := &world{eng: New(opts)}
	var err error
	w.f, err = w.eng.CreateFoundation()
	require.NoError(t, err)
	w.p, err = w.f.CreatePhysics(engine.DefaultTolerances(), nil)
	require.NoError(t, err)
	w.mat, err = w.p.CreateMaterial(engine.DefaultMaterial())
	require.NoError(t, err)
	w.c, err = w.f.CreateCooking(engine.DefaultCooking(w.p.Tolerances()))
	require.NoError(t, err)
	w.disp, err = w.f.CreateDispatcher(0)
	require.NoError(t, err)
	w.sim, err = w.p.CreateSimulation(engine.SimulationDesc{
		Gravity:    physics.Vec3(0, -9.81, 0),
		Dispatcher: w.disp,
		Flags:      engine.DefaultSceneFlags,
	})
	require.NoError(t, err)
	return w
}

func TestSandbox_DynamicBodyFallsUnderGravity(t *testing.T) {
	w := newWorld(t, Options{})
	b, err := w.p.CreateDynamic(physics.PoseAt(physics.Vec3(0, 10, 0)), engine.SphereGeometry{Radius: 1}, w.mat, 1)
	require.NoError(t, err)
	require.NoError(t, w.sim.AddActor(b))

	for i := 0; i < 10; i++ {
		require.NoError(t, w.sim.Simulate(0.1))
		require.NoError(t, w.sim.FetchResults(true))
	}

	pos := b.GlobalPose().Position
	require.Less(t, pos.Y, float32(10))
	require.Less(t, b.LinearVelocity().Y, float32(0))
	require.Len(t, w.eng.Steps(), 10)
}

func TestSandbox_KinematicIgnoresForces(t *testing.T) {
	w := newWorld(t, Options{})
	b, err := w.p.CreateKinematic(physics.PoseAt(physics.Vec3(1, 2, 3)), engine.BoxGeometry{HalfExtents: physics.Vec3(1, 1, 1)}, w.mat, 1)
	require.NoError(t, err)
	require.NoError(t, w.sim.AddActor(b))
	b.AddForce(physics.Vec3(100, 0, 0))

	require.NoError(t, w.sim.Simulate(0.5))
	require.NoError(t, w.sim.FetchResults(true))
	require.Equal(t, physics.Vec3(1, 2, 3), b.GlobalPose().Position)
}

func TestSandbox_ForceIsConsumedByStep(t *testing.T) {
	w := newWorld(t, Options{})
	sim, err := w.p.CreateSimulation(engine.SimulationDesc{Dispatcher: w.disp})
	require.NoError(t, err)
	b, err := w.p.CreateDynamic(physics.IdentityPose(), engine.BoxGeometry{HalfExtents: physics.Vec3(0.5, 0.5, 0.5)}, w.mat, 1)
	require.NoError(t, err)
	require.NoError(t, sim.AddActor(b))

	b.AddForce(physics.Vec3(10, 0, 0))
	require.NoError(t, sim.Simulate(1))
	require.NoError(t, sim.FetchResults(true))
	v1 := b.LinearVelocity()
	require.InDelta(t, 10, v1.X, 1e-4)

	require.NoError(t, sim.Simulate(1))
	require.NoError(t, sim.FetchResults(true))
	require.Equal(t, v1, b.LinearVelocity())
}

func TestSandbox_CookingRejectsDegenerateMeshes(t *testing.T) {
	w := newWorld(t, Options{})
	tests := []struct {
		name string
		desc engine.TriangleMeshDesc
	}{
		{"two vertices", engine.TriangleMeshDesc{Vertices: []float32{0, 0, 0, 1, 0, 0}, Indices: []uint16{0, 1, 0}}},
		{"ragged vertices", engine.TriangleMeshDesc{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1}, Indices: []uint16{0, 1, 2}}},
		{"no triangles", engine.TriangleMeshDesc{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}}},
		{"index out of range", engine.TriangleMeshDesc{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint16{0, 1, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.c.CookTriangleMesh(tt.desc)
			require.ErrorIs(t, err, engine.ErrDegenerateMesh)
		})
	}
}

func TestSandbox_CookingAcceptsFullIndexRange(t *testing.T) {
	w := newWorld(t, Options{})
	for _, vertices := range []int{1 << 16, 1<<16 + 7} {
		desc := engine.TriangleMeshDesc{
			Vertices: make([]float32, 3*vertices),
			Indices:  []uint16{0, 1, 2, 65535, 0, 1},
		}
		cooked, err := w.c.CookTriangleMesh(desc)
		require.NoError(t, err, "%d vertices", vertices)

		mesh, err := w.p.CreateTriangleMesh(cooked)
		require.NoError(t, err)
		require.Equal(t, vertices, mesh.VertexCount())
		require.Equal(t, 2, mesh.TriangleCount())
	}
}

func TestSandbox_CookedMeshRoundTrip(t *testing.T) {
	w := newWorld(t, Options{})
	cooked, err := w.c.CookTriangleMesh(engine.TriangleMeshDesc{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0},
		Indices:  []uint16{0, 1, 2, 1, 3, 2},
		Flags:    engine.Indices16 | engine.FlipNormals,
	})
	require.NoError(t, err)

	mesh, err := w.p.CreateTriangleMesh(cooked)
	require.NoError(t, err)
	require.Equal(t, 4, mesh.VertexCount())
	require.Equal(t, 2, mesh.TriangleCount())

	_, err = w.p.CreateTriangleMesh(cooked[:len(cooked)-1])
	require.ErrorIs(t, err, engine.ErrDegenerateMesh)
}

func TestSandbox_HeightFieldValidation(t *testing.T) {
	w := newWorld(t, Options{})
	_, err := w.c.CreateHeightField(engine.HeightFieldDesc{Columns: 1, Rows: 4, Samples: make([]engine.HeightFieldSample, 4)})
	require.ErrorIs(t, err, engine.ErrInvalidHeightField)

	_, err = w.c.CreateHeightField(engine.HeightFieldDesc{Columns: 2, Rows: 2, Samples: make([]engine.HeightFieldSample, 3)})
	require.ErrorIs(t, err, engine.ErrInvalidHeightField)

	samples := []engine.HeightFieldSample{{Height: 1}, {Height: 2}, {Height: 3}, {Height: 4}}
	hf, err := w.c.CreateHeightField(engine.HeightFieldDesc{Columns: 2, Rows: 2, Samples: samples})
	require.NoError(t, err)
	h, ok := HeightAt(hf, 1, 1)
	require.True(t, ok)
	require.Equal(t, int16(4), h)
}

func TestSandbox_FaultInjectionAndJournal(t *testing.T) {
	eng := New(Options{Fault: FailOn(OpCooking)})
	f, err := eng.CreateFoundation()
	require.NoError(t, err)
	_, err = f.CreateCooking(engine.CookingParams{})
	require.True(t, errors.Is(err, engine.ErrFault))

	f.Release()
	f.Release()
	require.Equal(t, []string{"create:foundation", "release:foundation"}, eng.Journal())
	require.Zero(t, eng.Live())
}

func TestSandbox_PlaneMustBeStatic(t *testing.T) {
	w := newWorld(t, Options{})
	_, err := w.p.CreateDynamic(physics.IdentityPose(), engine.PlaneGeometry{Normal: physics.Vec3(0, 1, 0)}, w.mat, 1)
	require.ErrorIs(t, err, engine.ErrUnsupported)

	a, err := w.p.CreateStatic(physics.IdentityPose(), engine.PlaneGeometry{Normal: physics.Vec3(0, 1, 0)}, w.mat)
	require.NoError(t, err)
	snap, ok := Inspect(a)
	require.True(t, ok)
	require.Equal(t, engine.RigidStatic, snap.Type)
}

func TestSandbox_ReleasedActorLeavesSimulation(t *testing.T) {
	w := newWorld(t, Options{})
	a, err := w.p.CreateStatic(physics.IdentityPose(), engine.SphereGeometry{Radius: 1}, w.mat)
	require.NoError(t, err)
	require.NoError(t, w.sim.AddActor(a))
	require.Equal(t, 1, w.sim.ActorCount())

	a.Release()
	require.Equal(t, 0, w.sim.ActorCount())
	require.Error(t, w.sim.AddActor(a))
}
