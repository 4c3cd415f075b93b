package scene

import (
	"context"
	"fmt"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/scenedesc"
)

// ElementResult reports what happened to one description element.
type ElementResult struct {
	Shape  physics.ShapeKind
	Index  int // position within its list in the description
	Handle Handle
	Err    error
}

// Failed returns the results that carry an error.
func Failed(results []ElementResult) []ElementResult {
	var out []ElementResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Instantiate creates every element of d as a static actor, terrains first,
// then boxes, capsules, meshes and spheres. A failing element is logged and
// reported; the rest are still created.
func (s *Scene) Instantiate(d *scenedesc.Description) []ElementResult {
	if d == nil {
		return nil
	}
	results := make([]ElementResult, 0, d.Count())
	add := func(shape physics.ShapeKind, i int, h Handle, err error) {
		if err != nil {
			s.logger.Warn("scene element skipped",
				log.String("source", d.Source),
				log.Stringer("shape", shape),
				log.Int("index", i),
				log.Error(err),
			)
		}
		results = append(results, ElementResult{Shape: shape, Index: i, Handle: h, Err: err})
	}

	for i, t := range d.Terrains {
		if t.Dim < 2 {
			add(physics.ShapeHeightField, i, InvalidHandle, fmt.Errorf("%w: terrain d=%d", ErrInvalidArgument, t.Dim))
			continue
		}
		h, err := s.CreateHeightField(t.Heights, t.Dim, t.Dim, t.Scale())
		if err == nil {
			err = s.SetGlobalPosition(h, t.Position)
		}
		add(physics.ShapeHeightField, i, h, s.rotate(h, t.Rotation, err))
	}
	for i, b := range d.Boxes {
		h, err := s.CreateBoxStatic(b.Position, b.HalfExtents)
		add(physics.ShapeBox, i, h, s.rotate(h, b.Rotation, err))
	}
	for i, c := range d.Capsules {
		h, err := s.CreateCapsuleStatic(c.Position, c.Radius, c.HalfHeight)
		add(physics.ShapeCapsule, i, h, s.rotate(h, c.Rotation, err))
	}
	for i, m := range d.Meshes {
		h, err := s.CreateMeshStatic(m.Position, m.Scale, m.Vertices, m.Indices)
		add(physics.ShapeMesh, i, h, s.rotate(h, m.Rotation, err))
	}
	for i, sp := range d.Spheres {
		h, err := s.CreateSphereStatic(sp.Position, sp.Radius)
		add(physics.ShapeSphere, i, h, s.rotate(h, sp.Rotation, err))
	}
	return results
}

// rotate applies the declared rotation unless creation already failed.
func (s *Scene) rotate(h Handle, rot physics.Quat, err error) error {
	if err != nil {
		return err
	}
	return s.SetGlobalRotation(h, rot)
}

// CreateScene populates the scene from the description cached under key,
// loading it on first use. A load failure creates nothing and is not cached.
func (s *Scene) CreateScene(ctx context.Context, key string) ([]ElementResult, error) {
	if err := s.runningState(); err != nil {
		return nil, err
	}
	if s.opts.Cache == nil {
		return nil, fmt.Errorf("%w: %s: no description cache", ErrLoad, key)
	}
	d, err := s.opts.Cache.GetOrLoad(ctx, key)
	if err != nil {
		s.logger.Error("scene load failed", log.String("key", key), log.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, key, err)
	}
	results := s.Instantiate(d)
	s.logger.Info("scene instantiated",
		log.String("key", key),
		log.Int("elements", len(results)),
		log.Int("failed", len(Failed(results))),
	)
	return results, nil
}

// GetStaticObjectCount is the element count of the description cached under
// key, or 0 if it was never loaded. It never loads.
func (s *Scene) GetStaticObjectCount(key string) int {
	if s.opts.Cache == nil {
		return 0
	}
	return s.opts.Cache.StaticObjectCount(key)
}

func (s *Scene) runningState() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkRunning()
}
