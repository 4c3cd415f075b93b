package scene

import (
	"fmt"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
	"github.com/zeusync/rigidscene/pkg/generic"
)

// Heightfield sample grids are staged in pooled buffers before cooking.
var samplePool = generic.NewSlicePool[engine.HeightFieldSample](64*64, 1024*1024, 1)

// buildFunc creates an engine actor plus any resources it references.
type buildFunc func() (engine.Actor, []engine.Resource, error)

// create runs one creation under the scene lock: build, apply body defaults,
// add to the simulation, register. On failure nothing stays attached to the
// scene and InvalidHandle is returned with an error wrapping ErrCreation.
func (s *Scene) create(shape physics.ShapeKind, mob physics.Mobility, build buildFunc) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRunning(); err != nil {
		return InvalidHandle, err
	}

	actor, owned, err := build()
	if err != nil {
		return s.creationFailed(shape, mob, err)
	}
	var body engine.Body
	if mob.Movable() {
		b, ok := actor.(engine.Body)
		if !ok {
			release(actor, owned)
			return s.creationFailed(shape, mob, fmt.Errorf("engine returned %T for a %s body", actor, mob))
		}
		body = b
		s.applyBodyDefaults(body, mob)
	}
	if err = s.sim.AddActor(actor); err != nil {
		release(actor, owned)
		return s.creationFailed(shape, mob, fmt.Errorf("add actor: %w", err))
	}

	h := s.registry.register(entry{actor: actor, body: body, shape: shape, mobility: mob, owned: owned})
	s.logger.Debug("actor created",
		log.Stringer("handle", h),
		log.Stringer("shape", shape),
		log.Stringer("mobility", mob),
	)
	return h, nil
}

// applyBodyDefaults is the one place shared body settings are applied.
func (s *Scene) applyBodyDefaults(b engine.Body, mob physics.Mobility) {
	b.SetAngularDamping(s.opts.AngularDamping)
	b.SetKinematic(mob == physics.Kinematic)
	if s.link != nil {
		b.SetVisualization(true)
	}
}

func (s *Scene) creationFailed(shape physics.ShapeKind, mob physics.Mobility, err error) (Handle, error) {
	if !isCreationError(err) {
		err = fmt.Errorf("%w: %w", ErrCreation, err)
	}
	s.failures.Add(1)
	s.logger.Error("actor creation failed",
		log.Stringer("shape", shape),
		log.Stringer("mobility", mob),
		log.Error(err),
	)
	return InvalidHandle, err
}

func release(actor engine.Actor, owned []engine.Resource) {
	if actor != nil {
		actor.Release()
	}
	for _, r := range owned {
		r.Release()
	}
}

// CreatePlane creates a static ground plane with an upward normal.
// yAxis is the plane distance term: the plane holds points where y + yAxis = 0.
func (s *Scene) CreatePlane(yAxis float32) (Handle, error) {
	return s.CreatePlaneNormal(physics.Vec3(0, 1, 0), yAxis)
}

// CreatePlaneNormal creates a static plane normal·p + distance = 0. The
// normal is used exactly as given.
func (s *Scene) CreatePlaneNormal(normal physics.Vector3, distance float32) (Handle, error) {
	return s.create(physics.ShapePlane, physics.Static, func() (engine.Actor, []engine.Resource, error) {
		geom := engine.PlaneGeometry{Normal: normal, Distance: distance}
		a, err := s.physics.CreateStatic(physics.IdentityPose(), geom, s.material)
		return a, nil, err
	})
}

// CreateHeightField creates a static terrain from a columns x rows grid of
// samples in row-major order. The actor is offset so the grid is centred on
// the origin: (-columns/2*scale.X, 0, -rows/2*scale.Z). scale.Y multiplies
// sample heights.
func (s *Scene) CreateHeightField(heights []int16, columns, rows uint32, scale physics.Vector3) (Handle, error) {
	return s.create(physics.ShapeHeightField, physics.Static, func() (engine.Actor, []engine.Resource, error) {
		n := int(columns) * int(rows)
		if columns == 0 || rows == 0 || len(heights) < n {
			return nil, nil, fmt.Errorf("%w: %d heights for a %dx%d grid", ErrInvalidArgument, len(heights), columns, rows)
		}

		buf := samplePool.Get(n)
		defer samplePool.Put(buf)
		samples := *buf
		for i := range samples {
			samples[i].Height = heights[i]
		}

		field, err := s.cooking.CreateHeightField(engine.HeightFieldDesc{Columns: columns, Rows: rows, Samples: samples})
		if err != nil {
			return nil, nil, fmt.Errorf("create heightfield: %w", err)
		}

		offset := physics.Vec3(-(float32(columns)/2)*scale.X, 0, -(float32(rows)/2)*scale.Z)
		actor, err := s.physics.CreateRigidStatic(physics.PoseAt(offset))
		if err != nil {
			field.Release()
			return nil, nil, fmt.Errorf("create heightfield actor: %w", err)
		}

		geom := engine.HeightFieldGeometry{
			Field:       field,
			HeightScale: scale.Y,
			RowScale:    scale.Z,
			ColumnScale: scale.X,
		}
		if err = s.physics.AttachShape(actor, geom, s.material); err != nil {
			release(actor, []engine.Resource{field})
			return nil, nil, fmt.Errorf("attach heightfield shape: %w", err)
		}
		return actor, []engine.Resource{field}, nil
	})
}

func (s *Scene) createPrimitive(shape physics.ShapeKind, mob physics.Mobility, pos physics.Vector3, geom engine.Geometry, density float32) (Handle, error) {
	return s.create(shape, mob, func() (engine.Actor, []engine.Resource, error) {
		pose := physics.PoseAt(pos)
		switch mob {
		case physics.Dynamic:
			b, err := s.physics.CreateDynamic(pose, geom, s.material, density)
			return asActor(b), nil, err
		case physics.Kinematic:
			b, err := s.physics.CreateKinematic(pose, geom, s.material, density)
			return asActor(b), nil, err
		default:
			a, err := s.physics.CreateStatic(pose, geom, s.material)
			return a, nil, err
		}
	})
}

// asActor keeps a nil Body a nil Actor.
func asActor(b engine.Body) engine.Actor {
	if b == nil {
		return nil
	}
	return b
}

func (s *Scene) CreateBoxDynamic(pos, halfExtents physics.Vector3) (Handle, error) {
	return s.CreateBoxDynamicWithDensity(pos, halfExtents, s.opts.DefaultDensity)
}

func (s *Scene) CreateBoxDynamicWithDensity(pos, halfExtents physics.Vector3, density float32) (Handle, error) {
	return s.createPrimitive(physics.ShapeBox, physics.Dynamic, pos, engine.BoxGeometry{HalfExtents: halfExtents}, density)
}

func (s *Scene) CreateBoxKinematic(pos, halfExtents physics.Vector3) (Handle, error) {
	return s.CreateBoxKinematicWithDensity(pos, halfExtents, s.opts.DefaultDensity)
}

func (s *Scene) CreateBoxKinematicWithDensity(pos, halfExtents physics.Vector3, density float32) (Handle, error) {
	return s.createPrimitive(physics.ShapeBox, physics.Kinematic, pos, engine.BoxGeometry{HalfExtents: halfExtents}, density)
}

func (s *Scene) CreateBoxStatic(pos, halfExtents physics.Vector3) (Handle, error) {
	return s.createPrimitive(physics.ShapeBox, physics.Static, pos, engine.BoxGeometry{HalfExtents: halfExtents}, 0)
}

func (s *Scene) CreateSphereDynamic(pos physics.Vector3, radius float32) (Handle, error) {
	return s.CreateSphereDynamicWithDensity(pos, radius, s.opts.DefaultDensity)
}

func (s *Scene) CreateSphereDynamicWithDensity(pos physics.Vector3, radius, density float32) (Handle, error) {
	return s.createPrimitive(physics.ShapeSphere, physics.Dynamic, pos, engine.SphereGeometry{Radius: radius}, density)
}

func (s *Scene) CreateSphereKinematic(pos physics.Vector3, radius float32) (Handle, error) {
	return s.CreateSphereKinematicWithDensity(pos, radius, s.opts.DefaultDensity)
}

func (s *Scene) CreateSphereKinematicWithDensity(pos physics.Vector3, radius, density float32) (Handle, error) {
	return s.createPrimitive(physics.ShapeSphere, physics.Kinematic, pos, engine.SphereGeometry{Radius: radius}, density)
}

func (s *Scene) CreateSphereStatic(pos physics.Vector3, radius float32) (Handle, error) {
	return s.createPrimitive(physics.ShapeSphere, physics.Static, pos, engine.SphereGeometry{Radius: radius}, 0)
}

func (s *Scene) CreateCapsuleDynamic(pos physics.Vector3, radius, halfHeight float32) (Handle, error) {
	return s.CreateCapsuleDynamicWithDensity(pos, radius, halfHeight, s.opts.DefaultDensity)
}

func (s *Scene) CreateCapsuleDynamicWithDensity(pos physics.Vector3, radius, halfHeight, density float32) (Handle, error) {
	return s.createPrimitive(physics.ShapeCapsule, physics.Dynamic, pos, engine.CapsuleGeometry{Radius: radius, HalfHeight: halfHeight}, density)
}

func (s *Scene) CreateCapsuleKinematic(pos physics.Vector3, radius, halfHeight float32) (Handle, error) {
	return s.CreateCapsuleKinematicWithDensity(pos, radius, halfHeight, s.opts.DefaultDensity)
}

func (s *Scene) CreateCapsuleKinematicWithDensity(pos physics.Vector3, radius, halfHeight, density float32) (Handle, error) {
	return s.createPrimitive(physics.ShapeCapsule, physics.Kinematic, pos, engine.CapsuleGeometry{Radius: radius, HalfHeight: halfHeight}, density)
}

func (s *Scene) CreateCapsuleStatic(pos physics.Vector3, radius, halfHeight float32) (Handle, error) {
	return s.createPrimitive(physics.ShapeCapsule, physics.Static, pos, engine.CapsuleGeometry{Radius: radius, HalfHeight: halfHeight}, 0)
}

// CreateMeshKinematic cooks a triangle mesh and creates a kinematic body from
// it. vertices holds xyz triples, indices holds triangles.
func (s *Scene) CreateMeshKinematic(pos, scale physics.Vector3, vertices []float32, indices []uint16) (Handle, error) {
	return s.CreateMeshKinematicWithDensity(pos, scale, vertices, indices, s.opts.DefaultDensity)
}

func (s *Scene) CreateMeshKinematicWithDensity(pos, scale physics.Vector3, vertices []float32, indices []uint16, density float32) (Handle, error) {
	return s.createMesh(physics.Kinematic, pos, scale, vertices, indices, density)
}

// CreateMeshStatic cooks a triangle mesh and creates a static actor from it.
func (s *Scene) CreateMeshStatic(pos, scale physics.Vector3, vertices []float32, indices []uint16) (Handle, error) {
	return s.createMesh(physics.Static, pos, scale, vertices, indices, 0)
}

// createMesh cooks first and only then creates engine objects, so a cooking
// failure leaves nothing behind.
func (s *Scene) createMesh(mob physics.Mobility, pos, scale physics.Vector3, vertices []float32, indices []uint16, density float32) (Handle, error) {
	return s.create(physics.ShapeMesh, mob, func() (engine.Actor, []engine.Resource, error) {
		cooked, err := s.cooking.CookTriangleMesh(engine.TriangleMeshDesc{
			Vertices: vertices,
			Indices:  indices,
			Flags:    engine.Indices16 | engine.FlipNormals,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrCooking, err)
		}
		mesh, err := s.physics.CreateTriangleMesh(cooked)
		if err != nil {
			return nil, nil, fmt.Errorf("create triangle mesh: %w", err)
		}

		geom := engine.TriangleMeshGeometry{Mesh: mesh, Scale: scale}
		pose := physics.PoseAt(pos)
		var actor engine.Actor
		if mob == physics.Kinematic {
			var b engine.Body
			b, err = s.physics.CreateKinematic(pose, geom, s.material, density)
			actor = asActor(b)
		} else {
			actor, err = s.physics.CreateStatic(pose, geom, s.material)
		}
		if err != nil {
			mesh.Release()
			return nil, nil, fmt.Errorf("create mesh actor: %w", err)
		}
		return actor, []engine.Resource{mesh}, nil
	})
}
