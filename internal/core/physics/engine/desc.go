package engine

import "github.com/zeusync/rigidscene/internal/core/physics"

// Tolerances are the characteristic scales of the simulated world.
type Tolerances struct {
	Length float32
	Speed  float32
}

func DefaultTolerances() Tolerances {
	return Tolerances{Length: 1, Speed: 10}
}

type MaterialParams struct {
	StaticFriction  float32
	DynamicFriction float32
	Restitution     float32
}

func DefaultMaterial() MaterialParams {
	return MaterialParams{StaticFriction: 0.5, DynamicFriction: 0.5, Restitution: 0.1}
}

// MeshPreprocess flags applied while cooking triangle meshes.
type MeshPreprocess uint8

const (
	WeldVertices MeshPreprocess = 1 << iota
)

type CookingParams struct {
	Tolerances    Tolerances
	WeldTolerance float32
	Preprocess    MeshPreprocess
}

func DefaultCooking(tol Tolerances) CookingParams {
	return CookingParams{Tolerances: tol, WeldTolerance: 0.001, Preprocess: WeldVertices}
}

// SceneFlags toggle simulation features.
type SceneFlags uint16

const (
	EnablePCM SceneFlags = 1 << iota
	EnableStabilization
	EnableActiveTransforms
	SuppressEagerSceneQueryRefit
)

const DefaultSceneFlags = EnablePCM | EnableStabilization | EnableActiveTransforms | SuppressEagerSceneQueryRefit

type SimulationDesc struct {
	Gravity    physics.Vector3
	Dispatcher Dispatcher
	Flags      SceneFlags
}

// MeshFlags describe triangle buffer layout.
type MeshFlags uint8

const (
	Indices16 MeshFlags = 1 << iota
	FlipNormals
)

// TriangleMeshDesc points at raw buffers: 3 floats per vertex, 3 indices per triangle.
type TriangleMeshDesc struct {
	Vertices []float32
	Indices  []uint16
	Flags    MeshFlags
}

func (d TriangleMeshDesc) VertexCount() int   { return len(d.Vertices) / 3 }
func (d TriangleMeshDesc) TriangleCount() int { return len(d.Indices) / 3 }

// HeightFieldSample is one grid cell height.
type HeightFieldSample struct {
	Height         int16
	MaterialIndex0 uint8
	MaterialIndex1 uint8
}

// HeightFieldDesc is a row-major grid: Samples[col + row*Columns].
type HeightFieldDesc struct {
	Columns uint32
	Rows    uint32
	Samples []HeightFieldSample
}
