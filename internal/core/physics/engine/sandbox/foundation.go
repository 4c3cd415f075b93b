package sandbox

import (
	"fmt"

	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

type foundation struct {
	resource
	extensions bool
}

func (f *foundation) CreatePhysics(tol engine.Tolerances, link engine.DebugLink) (engine.Physics, error) {
	if err := f.eng.fault(OpPhysics); err != nil {
		return nil, err
	}
	if tol.Length <= 0 || tol.Speed <= 0 {
		return nil, fmt.Errorf("%w: tolerances %+v", engine.ErrUnsupported, tol)
	}
	p := &physicsImpl{tol: tol, link: link}
	p.init(f.eng, OpPhysics)
	return p, nil
}

func (f *foundation) CreateCooking(params engine.CookingParams) (engine.Cooking, error) {
	if err := f.eng.fault(OpCooking); err != nil {
		return nil, err
	}
	c := &cooking{params: params}
	c.init(f.eng, OpCooking)
	return c, nil
}

func (f *foundation) CreateDispatcher(threads int) (engine.Dispatcher, error) {
	if err := f.eng.fault(OpDispatcher); err != nil {
		return nil, err
	}
	d := &dispatcher{threads: threads}
	d.init(f.eng, OpDispatcher)
	return d, nil
}

func (f *foundation) InitExtensions(_ engine.Physics, _ engine.DebugLink) error {
	if err := f.eng.fault(OpExtensions); err != nil {
		return err
	}
	f.extensions = true
	f.eng.record("create:"+OpExtensions, 1)
	return nil
}

func (f *foundation) CloseExtensions() {
	if f.extensions {
		f.extensions = false
		f.eng.record("release:"+OpExtensions, -1)
	}
}

type dispatcher struct {
	resource
	threads int
}

func (d *dispatcher) Threads() int { return d.threads }

type material struct {
	resource
	params engine.MaterialParams
}

func (m *material) Params() engine.MaterialParams { return m.params }
