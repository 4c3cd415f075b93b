package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVector3_Arithmetic(t *testing.T) {
	a, b := Vec3(1, 2, 3), Vec3(4, 5, 6)
	require.Equal(t, Vec3(5, 7, 9), a.Add(b))
	require.Equal(t, Vec3(3, 3, 3), b.Sub(a))
	require.Equal(t, Vec3(2, 4, 6), a.Scale(2))
	require.InDelta(t, 5, Vec3(3, 4, 0).Len(), 1e-6)
	require.True(t, Vector3{}.IsZero())
	require.True(t, a.ApproxEqual(Vec3(1.0001, 2, 3), 1e-3))
	require.False(t, a.ApproxEqual(b, 1e-3))
}

func TestQuat_Rotation(t *testing.T) {
	require.Equal(t, Quat{W: 1}, IdentityQuat())
	require.Equal(t, IdentityQuat(), Quat{}.Normalized())

	q := AxisAngle(math.Pi/2, Vec3(0, 1, 0))
	got := q.Rotate(Vec3(1, 0, 0))
	require.True(t, got.ApproxEqual(Vec3(0, 0, -1), 1e-5), "got %+v", got)

	n := Quat{W: 2}.Normalized()
	require.InDelta(t, 1, n.W, 1e-6)
}

func TestPose(t *testing.T) {
	p := PoseAt(Vec3(1, 2, 3))
	require.Equal(t, Vec3(1, 2, 3), p.Position)
	require.Equal(t, IdentityQuat(), p.Rotation)
	require.Equal(t, Pose{Rotation: IdentityQuat()}, IdentityPose())
}

func TestKinds(t *testing.T) {
	require.Equal(t, "heightfield", ShapeHeightField.String())
	require.Equal(t, "unknown", ShapeKind(99).String())
	require.True(t, Dynamic.Movable())
	require.True(t, Kinematic.Movable())
	require.False(t, Static.Movable())
	require.Equal(t, "static", Static.String())
}
