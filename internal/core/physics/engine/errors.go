package engine

import "errors"

var (
	ErrUnsupported        = errors.New("engine: operation not supported")
	ErrReleased           = errors.New("engine: resource already released")
	ErrDegenerateMesh     = errors.New("engine: degenerate triangle mesh")
	ErrInvalidHeightField = errors.New("engine: invalid heightfield")
	ErrInvalidGeometry    = errors.New("engine: invalid geometry")
	ErrFault              = errors.New("engine: injected fault")
)
