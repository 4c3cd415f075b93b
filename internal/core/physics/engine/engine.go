// Package engine declares the capabilities the scene layer consumes from a
// rigid-body physics backend. Integration, collision, solving and cooking
// numerics all live behind these interfaces.
package engine

import "github.com/zeusync/rigidscene/internal/core/physics"

// Resource is anything the engine allocates and the caller must release.
type Resource interface {
	Release()
}

// Engine is the entry point of a backend.
type Engine interface {
	Name() string
	CreateFoundation() (Foundation, error)
}

// Foundation owns process-level backend state. Everything else is created from it.
type Foundation interface {
	Resource
	CreatePhysics(tol Tolerances, link DebugLink) (Physics, error)
	CreateCooking(params CookingParams) (Cooking, error)
	CreateDispatcher(threads int) (Dispatcher, error)

	// InitExtensions is only required when a debug link is attached.
	InitExtensions(p Physics, link DebugLink) error
	CloseExtensions()
}

// Physics creates materials, simulations and actors.
type Physics interface {
	Resource
	Tolerances() Tolerances
	CreateMaterial(params MaterialParams) (Material, error)
	CreateSimulation(desc SimulationDesc) (Simulation, error)

	CreateStatic(pose physics.Pose, geom Geometry, mat Material) (Actor, error)
	CreateDynamic(pose physics.Pose, geom Geometry, mat Material, density float32) (Body, error)
	CreateKinematic(pose physics.Pose, geom Geometry, mat Material, density float32) (Body, error)

	// CreateRigidStatic creates a static actor with no shapes attached.
	CreateRigidStatic(pose physics.Pose) (Actor, error)
	AttachShape(actor Actor, geom Geometry, mat Material) error

	CreateTriangleMesh(cooked CookedMesh) (TriangleMesh, error)
}

// Cooking turns raw buffers into engine collision data.
type Cooking interface {
	Resource
	CookTriangleMesh(desc TriangleMeshDesc) (CookedMesh, error)
	CreateHeightField(desc HeightFieldDesc) (HeightField, error)
}

// Dispatcher runs simulation tasks.
type Dispatcher interface {
	Resource
	Threads() int
}

// Material is a surface description shared by shapes.
type Material interface {
	Resource
	Params() MaterialParams
}

// Simulation is the engine-side scene that actors are added to and stepped.
type Simulation interface {
	Resource
	AddActor(a Actor) error
	Simulate(dt float32) error
	FetchResults(block bool) error
	EnableVisualization(link DebugLink)
	ActorCount() int
}

// ActorType distinguishes static actors from rigid bodies.
type ActorType uint8

const (
	RigidStatic ActorType = iota
	RigidDynamic
)

// Actor is one engine body.
type Actor interface {
	Resource
	ID() uint64
	Type() ActorType
	GlobalPose() physics.Pose
	SetGlobalPose(p physics.Pose)
}

// Body is a dynamic or kinematic actor.
type Body interface {
	Actor
	SetLinearVelocity(v physics.Vector3)
	LinearVelocity() physics.Vector3
	AddForce(f physics.Vector3)
	ClearForce()
	SetAngularDamping(d float32)
	SetKinematic(on bool)
	IsKinematic() bool
	SetVisualization(on bool)
}

// TriangleMesh is a cooked mesh ready to be referenced by geometry.
type TriangleMesh interface {
	Resource
	VertexCount() int
	TriangleCount() int
}

// HeightField is an engine-side sample grid.
type HeightField interface {
	Resource
	Columns() uint32
	Rows() uint32
}

// CookedMesh is the opaque serialized output of the cooking step.
type CookedMesh []byte

// DebugLink is a live telemetry connection the engine may report to.
type DebugLink interface {
	SessionID() string
	Full() bool
	Close() error
}
