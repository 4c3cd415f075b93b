package scenedesc

import "errors"

var (
	ErrNotFound           = errors.New("scene description not found")
	ErrUnsupportedFormat  = errors.New("unsupported scene description format")
	ErrInvalidDescription = errors.New("invalid scene description")
)
