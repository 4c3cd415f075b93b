package scenedesc

import (
	"context"
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/zeusync/rigidscene/internal/core/physics"
)

// decodeLua runs a scene script. The script declares elements by calling
// terrain{...}, box{...}, capsule{...}, mesh{...} and sphere{...}. Vectors are
// written as {x=, y=, z=} or {1, 2, 3}.
func decodeLua(ctx context.Context, raw []byte) (*Description, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.MathLibName, lua.OpenMath},
		{lua.StringLibName, lua.OpenString},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			return nil, fmt.Errorf("open lua %s: %w", lib.name, err)
		}
	}

	d := &Description{}
	L.SetGlobal("terrain", L.NewFunction(func(L *lua.LState) int {
		t := L.CheckTable(1)
		heights := luaNumbers(t, "heights")
		terrain := Terrain{
			Heights:  make([]int16, len(heights)),
			Dim:      uint32(lua.LVAsNumber(t.RawGetString("d"))),
			Size:     luaVec3(t, "size"),
			Position: luaVec3(t, "position"),
			Rotation: luaQuat(t, "rotation"),
		}
		for i, h := range heights {
			if h < math.MinInt16 || h > math.MaxInt16 {
				L.ArgError(1, fmt.Sprintf("height %v out of range", h))
			}
			terrain.Heights[i] = int16(h)
		}
		d.Terrains = append(d.Terrains, terrain)
		return 0
	}))
	L.SetGlobal("box", L.NewFunction(func(L *lua.LState) int {
		t := L.CheckTable(1)
		d.Boxes = append(d.Boxes, Box{
			Position:    luaVec3(t, "position"),
			HalfExtents: luaVec3(t, "half"),
			Rotation:    luaQuat(t, "rotation"),
		})
		return 0
	}))
	L.SetGlobal("capsule", L.NewFunction(func(L *lua.LState) int {
		t := L.CheckTable(1)
		d.Capsules = append(d.Capsules, Capsule{
			Position:   luaVec3(t, "position"),
			Radius:     float32(lua.LVAsNumber(t.RawGetString("radius"))),
			HalfHeight: float32(lua.LVAsNumber(t.RawGetString("half_height"))),
			Rotation:   luaQuat(t, "rotation"),
		})
		return 0
	}))
	L.SetGlobal("mesh", L.NewFunction(func(L *lua.LState) int {
		t := L.CheckTable(1)
		m := Mesh{
			Position: luaVec3(t, "position"),
			Scale:    luaVec3(t, "scale"),
			Rotation: luaQuat(t, "rotation"),
		}
		for _, v := range luaNumbers(t, "vertices") {
			m.Vertices = append(m.Vertices, float32(v))
		}
		for _, i := range luaNumbers(t, "indices") {
			if i < 0 || i > math.MaxUint16 {
				L.ArgError(1, fmt.Sprintf("index %v out of range", i))
			}
			m.Indices = append(m.Indices, uint16(i))
		}
		d.Meshes = append(d.Meshes, m)
		return 0
	}))
	L.SetGlobal("sphere", L.NewFunction(func(L *lua.LState) int {
		t := L.CheckTable(1)
		d.Spheres = append(d.Spheres, Sphere{
			Position: luaVec3(t, "position"),
			Radius:   float32(lua.LVAsNumber(t.RawGetString("radius"))),
			Rotation: luaQuat(t, "rotation"),
		})
		return 0
	}))

	if err := L.DoString(string(raw)); err != nil {
		return nil, fmt.Errorf("%w: lua: %w", ErrInvalidDescription, err)
	}
	return d, nil
}

func luaNumbers(t *lua.LTable, field string) []float64 {
	list, ok := t.RawGetString(field).(*lua.LTable)
	if !ok {
		return nil
	}
	n := list.Len()
	out := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, float64(lua.LVAsNumber(list.RawGetInt(i))))
	}
	return out
}

func luaComponent(t *lua.LTable, name string, idx int) float32 {
	if n, ok := t.RawGetString(name).(lua.LNumber); ok {
		return float32(n)
	}
	return float32(lua.LVAsNumber(t.RawGetInt(idx)))
}

func luaVec3(t *lua.LTable, field string) physics.Vector3 {
	v, ok := t.RawGetString(field).(*lua.LTable)
	if !ok {
		return physics.Vector3{}
	}
	return physics.Vec3(luaComponent(v, "x", 1), luaComponent(v, "y", 2), luaComponent(v, "z", 3))
}

// luaQuat returns the zero quaternion when absent; normalize turns that into identity.
func luaQuat(t *lua.LTable, field string) physics.Quat {
	v, ok := t.RawGetString(field).(*lua.LTable)
	if !ok {
		return physics.Quat{}
	}
	return physics.Quat{
		X: luaComponent(v, "x", 1),
		Y: luaComponent(v, "y", 2),
		Z: luaComponent(v, "z", 3),
		W: luaComponent(v, "w", 4),
	}
}
