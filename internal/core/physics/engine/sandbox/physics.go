package sandbox

import (
	"fmt"

	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

type physicsImpl struct {
	resource
	tol  engine.Tolerances
	link engine.DebugLink
}

func (p *physicsImpl) Tolerances() engine.Tolerances { return p.tol }

func (p *physicsImpl) CreateMaterial(params engine.MaterialParams) (engine.Material, error) {
	if err := p.eng.fault(OpMaterial); err != nil {
		return nil, err
	}
	m := &material{params: params}
	m.init(p.eng, OpMaterial)
	return m, nil
}

func (p *physicsImpl) CreateSimulation(desc engine.SimulationDesc) (engine.Simulation, error) {
	if err := p.eng.fault(OpSimulation); err != nil {
		return nil, err
	}
	if desc.Dispatcher == nil {
		return nil, fmt.Errorf("%w: simulation without dispatcher", engine.ErrUnsupported)
	}
	s := &simulation{gravity: desc.Gravity, flags: desc.Flags}
	s.init(p.eng, OpSimulation)
	return s, nil
}

func (p *physicsImpl) CreateStatic(pose physics.Pose, geom engine.Geometry, mat engine.Material) (engine.Actor, error) {
	if err := p.eng.fault(OpStatic); err != nil {
		return nil, err
	}
	if err := validateGeometry(geom, physics.Static); err != nil {
		return nil, err
	}
	a := p.newActor(OpStatic, engine.RigidStatic, pose)
	a.shapes = append(a.shapes, geom)
	a.material = mat
	return a, nil
}

func (p *physicsImpl) CreateDynamic(pose physics.Pose, geom engine.Geometry, mat engine.Material, density float32) (engine.Body, error) {
	return p.createBody(OpDynamic, physics.Dynamic, pose, geom, mat, density)
}

func (p *physicsImpl) CreateKinematic(pose physics.Pose, geom engine.Geometry, mat engine.Material, density float32) (engine.Body, error) {
	return p.createBody(OpKinematic, physics.Kinematic, pose, geom, mat, density)
}

func (p *physicsImpl) createBody(op string, mob physics.Mobility, pose physics.Pose, geom engine.Geometry, mat engine.Material, density float32) (engine.Body, error) {
	if err := p.eng.fault(op); err != nil {
		return nil, err
	}
	if err := validateGeometry(geom, mob); err != nil {
		return nil, err
	}
	if density <= 0 {
		return nil, fmt.Errorf("%w: density %v", engine.ErrInvalidGeometry, density)
	}
	b := &body{actor: p.newActor(op, engine.RigidDynamic, pose)}
	b.shapes = append(b.shapes, geom)
	b.material = mat
	b.mass = density * volume(geom)
	if b.mass <= 0 {
		b.mass = density
	}
	b.kinematic = mob == physics.Kinematic
	return b, nil
}

func (p *physicsImpl) CreateRigidStatic(pose physics.Pose) (engine.Actor, error) {
	if err := p.eng.fault(OpRigidStatic); err != nil {
		return nil, err
	}
	return p.newActor(OpRigidStatic, engine.RigidStatic, pose), nil
}

func (p *physicsImpl) AttachShape(a engine.Actor, geom engine.Geometry, mat engine.Material) error {
	if err := p.eng.fault(OpAttachShape); err != nil {
		return err
	}
	sa, ok := a.(*actor)
	if !ok || sa.isReleased() {
		return fmt.Errorf("%w: attach to foreign or released actor", engine.ErrUnsupported)
	}
	if err := validateGeometry(geom, physics.Static); err != nil {
		return err
	}
	sa.mu.Lock()
	sa.shapes = append(sa.shapes, geom)
	sa.material = mat
	sa.mu.Unlock()
	return nil
}

func (p *physicsImpl) CreateTriangleMesh(cooked engine.CookedMesh) (engine.TriangleMesh, error) {
	if err := p.eng.fault(OpTriangleMesh); err != nil {
		return nil, err
	}
	vertices, indices, err := decodeMesh(cooked)
	if err != nil {
		return nil, err
	}
	m := &triangleMesh{vertices: vertices, indices: indices}
	m.init(p.eng, OpTriangleMesh)
	return m, nil
}

func (p *physicsImpl) newActor(kind string, typ engine.ActorType, pose physics.Pose) *actor {
	a := &actor{id: p.eng.ids.Add(1), typ: typ, pose: pose}
	a.init(p.eng, kind)
	return a
}

func validateGeometry(geom engine.Geometry, mob physics.Mobility) error {
	switch g := geom.(type) {
	case engine.PlaneGeometry:
		if mob != physics.Static {
			return fmt.Errorf("%w: plane must be static", engine.ErrUnsupported)
		}
		if g.Normal.IsZero() {
			return fmt.Errorf("%w: zero plane normal", engine.ErrInvalidGeometry)
		}
	case engine.BoxGeometry:
		if g.HalfExtents.X <= 0 || g.HalfExtents.Y <= 0 || g.HalfExtents.Z <= 0 {
			return fmt.Errorf("%w: box half extents %+v", engine.ErrInvalidGeometry, g.HalfExtents)
		}
	case engine.SphereGeometry:
		if g.Radius <= 0 {
			return fmt.Errorf("%w: sphere radius %v", engine.ErrInvalidGeometry, g.Radius)
		}
	case engine.CapsuleGeometry:
		if g.Radius <= 0 || g.HalfHeight <= 0 {
			return fmt.Errorf("%w: capsule %v/%v", engine.ErrInvalidGeometry, g.Radius, g.HalfHeight)
		}
	case engine.HeightFieldGeometry:
		if mob != physics.Static {
			return fmt.Errorf("%w: heightfield must be static", engine.ErrUnsupported)
		}
		if g.Field == nil || g.HeightScale <= 0 || g.RowScale <= 0 || g.ColumnScale <= 0 {
			return fmt.Errorf("%w: heightfield geometry", engine.ErrInvalidGeometry)
		}
	case engine.TriangleMeshGeometry:
		if mob == physics.Dynamic {
			return fmt.Errorf("%w: triangle mesh on a simulated body", engine.ErrUnsupported)
		}
		if g.Mesh == nil {
			return fmt.Errorf("%w: nil triangle mesh", engine.ErrInvalidGeometry)
		}
	default:
		return fmt.Errorf("%w: geometry %T", engine.ErrUnsupported, geom)
	}
	return nil
}

func volume(geom engine.Geometry) float32 {
	const pi = 3.14159265
	switch g := geom.(type) {
	case engine.BoxGeometry:
		return 8 * g.HalfExtents.X * g.HalfExtents.Y * g.HalfExtents.Z
	case engine.SphereGeometry:
		return 4.0 / 3.0 * pi * g.Radius * g.Radius * g.Radius
	case engine.CapsuleGeometry:
		r := g.Radius
		return pi*r*r*(2*g.HalfHeight) + 4.0/3.0*pi*r*r*r
	default:
		return 0
	}
}
