package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vector3 is a position, extent, scale or direction in world space.
type Vector3 struct {
	X float32 `json:"x" yaml:"x" toml:"x"`
	Y float32 `json:"y" yaml:"y" toml:"y"`
	Z float32 `json:"z" yaml:"z" toml:"z"`
}

// Quat is a rotation stored as (X, Y, Z, W).
type Quat struct {
	X float32 `json:"x" yaml:"x" toml:"x"`
	Y float32 `json:"y" yaml:"y" toml:"y"`
	Z float32 `json:"z" yaml:"z" toml:"z"`
	W float32 `json:"w" yaml:"w" toml:"w"`
}

// Pose is a rigid transform.
type Pose struct {
	Position Vector3
	Rotation Quat
}

func Vec3(x, y, z float32) Vector3 { return Vector3{X: x, Y: y, Z: z} }

func IdentityQuat() Quat { return Quat{W: 1} }

func IdentityPose() Pose { return Pose{Rotation: IdentityQuat()} }

// PoseAt is an unrotated pose at p.
func PoseAt(p Vector3) Pose { return Pose{Position: p, Rotation: IdentityQuat()} }

func FromMgl(v mgl32.Vec3) Vector3 { return Vector3{X: v[0], Y: v[1], Z: v[2]} }

func (v Vector3) Mgl() mgl32.Vec3 { return mgl32.Vec3{v.X, v.Y, v.Z} }

func (v Vector3) Add(o Vector3) Vector3 { return FromMgl(v.Mgl().Add(o.Mgl())) }

func (v Vector3) Sub(o Vector3) Vector3 { return FromMgl(v.Mgl().Sub(o.Mgl())) }

func (v Vector3) Scale(s float32) Vector3 { return FromMgl(v.Mgl().Mul(s)) }

func (v Vector3) Len() float32 { return v.Mgl().Len() }

func (v Vector3) IsZero() bool { return v == Vector3{} }

// ApproxEqual compares component-wise within eps.
func (v Vector3) ApproxEqual(o Vector3, eps float32) bool {
	return absf(v.X-o.X) <= eps && absf(v.Y-o.Y) <= eps && absf(v.Z-o.Z) <= eps
}

func QuatFromMgl(q mgl32.Quat) Quat { return Quat{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W} }

func (q Quat) Mgl() mgl32.Quat { return mgl32.Quat{W: q.W, V: mgl32.Vec3{q.X, q.Y, q.Z}} }

// Normalized returns q scaled to unit length. The zero quaternion maps to identity.
func (q Quat) Normalized() Quat {
	if q == (Quat{}) {
		return IdentityQuat()
	}
	return QuatFromMgl(q.Mgl().Normalize())
}

// AxisAngle builds a rotation of angle radians around axis.
func AxisAngle(angle float32, axis Vector3) Quat {
	return QuatFromMgl(mgl32.QuatRotate(angle, axis.Mgl().Normalize()))
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vector3) Vector3 { return FromMgl(q.Mgl().Rotate(v.Mgl())) }

func absf(f float32) float32 { return float32(math.Abs(float64(f))) }
