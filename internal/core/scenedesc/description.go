// Package scenedesc holds declarative scene descriptions, the loaders that
// parse them and the cache that shares them between scenes.
package scenedesc

import (
	"fmt"

	"github.com/zeusync/rigidscene/internal/core/physics"
)

// Description is a loaded scene. It must not be mutated once cached.
type Description struct {
	Source   string    `json:"-" yaml:"-" toml:"-"`
	Terrains []Terrain `json:"terrains" yaml:"terrains" toml:"terrains"`
	Boxes    []Box     `json:"boxes" yaml:"boxes" toml:"boxes"`
	Capsules []Capsule `json:"capsules" yaml:"capsules" toml:"capsules"`
	Meshes   []Mesh    `json:"meshes" yaml:"meshes" toml:"meshes"`
	Spheres  []Sphere  `json:"spheres" yaml:"spheres" toml:"spheres"`
}

// Terrain is a square height grid of Dim x Dim samples spanning Size.
type Terrain struct {
	Heights  []int16         `json:"heights" yaml:"heights" toml:"heights"`
	Dim      uint32          `json:"d" yaml:"d" toml:"d"`
	Size     physics.Vector3 `json:"size" yaml:"size" toml:"size"`
	Position physics.Vector3 `json:"position" yaml:"position" toml:"position"`
	Rotation physics.Quat    `json:"rotation" yaml:"rotation" toml:"rotation"`
}

// Scale is the per-sample spacing: Size spread over Dim-1 cells horizontally,
// Size.Y as the height multiplier.
func (t Terrain) Scale() physics.Vector3 {
	cells := float32(t.Dim - 1)
	return physics.Vec3(t.Size.X/cells, t.Size.Y, t.Size.Z/cells)
}

type Box struct {
	Position    physics.Vector3 `json:"position" yaml:"position" toml:"position"`
	HalfExtents physics.Vector3 `json:"half" yaml:"half" toml:"half"`
	Rotation    physics.Quat    `json:"rotation" yaml:"rotation" toml:"rotation"`
}

type Capsule struct {
	Position   physics.Vector3 `json:"position" yaml:"position" toml:"position"`
	Radius     float32         `json:"radius" yaml:"radius" toml:"radius"`
	HalfHeight float32         `json:"half_height" yaml:"half_height" toml:"half_height"`
	Rotation   physics.Quat    `json:"rotation" yaml:"rotation" toml:"rotation"`
}

type Mesh struct {
	Position physics.Vector3 `json:"position" yaml:"position" toml:"position"`
	Scale    physics.Vector3 `json:"scale" yaml:"scale" toml:"scale"`
	Vertices []float32       `json:"vertices" yaml:"vertices" toml:"vertices"`
	Indices  []uint16        `json:"indices" yaml:"indices" toml:"indices"`
	Rotation physics.Quat    `json:"rotation" yaml:"rotation" toml:"rotation"`
}

type Sphere struct {
	Position physics.Vector3 `json:"position" yaml:"position" toml:"position"`
	Radius   float32         `json:"radius" yaml:"radius" toml:"radius"`
	Rotation physics.Quat    `json:"rotation" yaml:"rotation" toml:"rotation"`
}

// Count is the number of elements across all lists.
func (d *Description) Count() int {
	if d == nil {
		return 0
	}
	return len(d.Terrains) + len(d.Boxes) + len(d.Capsules) + len(d.Meshes) + len(d.Spheres)
}

// normalize fills values a source may leave out: identity rotations and unit mesh scale.
func (d *Description) normalize() {
	fix := func(q *physics.Quat) {
		if *q == (physics.Quat{}) {
			*q = physics.IdentityQuat()
		}
	}
	for i := range d.Terrains {
		fix(&d.Terrains[i].Rotation)
	}
	for i := range d.Boxes {
		fix(&d.Boxes[i].Rotation)
	}
	for i := range d.Capsules {
		fix(&d.Capsules[i].Rotation)
	}
	for i := range d.Meshes {
		fix(&d.Meshes[i].Rotation)
		if d.Meshes[i].Scale.IsZero() {
			d.Meshes[i].Scale = physics.Vec3(1, 1, 1)
		}
	}
	for i := range d.Spheres {
		fix(&d.Spheres[i].Rotation)
	}
}

// Validate checks the structure of d: every terrain carries exactly Dim x Dim
// samples. Element geometry (extents, radii, mesh buffers, terrain size) is
// left to the engine, which rejects bad elements one at a time when the
// description is instantiated.
func (d *Description) Validate() error {
	for i, t := range d.Terrains {
		if want := int(t.Dim) * int(t.Dim); len(t.Heights) != want {
			return fmt.Errorf("%w: terrain %d: %d heights for d=%d, want %d", ErrInvalidDescription, i, len(t.Heights), t.Dim, want)
		}
	}
	return nil
}
