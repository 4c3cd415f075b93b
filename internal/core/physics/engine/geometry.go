package engine

import "github.com/zeusync/rigidscene/internal/core/physics"

// Geometry is one of the shape descriptors below.
type Geometry interface {
	Kind() physics.ShapeKind
}

// PlaneGeometry is the infinite plane Normal·p + Distance = 0. Planes are static only.
type PlaneGeometry struct {
	Normal   physics.Vector3
	Distance float32
}

type BoxGeometry struct {
	HalfExtents physics.Vector3
}

type SphereGeometry struct {
	Radius float32
}

type CapsuleGeometry struct {
	Radius     float32
	HalfHeight float32
}

type HeightFieldGeometry struct {
	Field       HeightField
	HeightScale float32
	RowScale    float32
	ColumnScale float32
}

type TriangleMeshGeometry struct {
	Mesh  TriangleMesh
	Scale physics.Vector3
}

func (PlaneGeometry) Kind() physics.ShapeKind        { return physics.ShapePlane }
func (BoxGeometry) Kind() physics.ShapeKind          { return physics.ShapeBox }
func (SphereGeometry) Kind() physics.ShapeKind       { return physics.ShapeSphere }
func (CapsuleGeometry) Kind() physics.ShapeKind      { return physics.ShapeCapsule }
func (HeightFieldGeometry) Kind() physics.ShapeKind  { return physics.ShapeHeightField }
func (TriangleMeshGeometry) Kind() physics.ShapeKind { return physics.ShapeMesh }
