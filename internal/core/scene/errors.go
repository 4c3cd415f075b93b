package scene

import (
	"errors"
	"fmt"
)

var (
	ErrInitialization  = errors.New("scene initialization failed")
	ErrCreation        = errors.New("actor creation failed")
	ErrLoad            = errors.New("scene description load failed")
	ErrSceneNotRunning = errors.New("scene is not running")
	ErrSceneReleased   = errors.New("scene is released")
	ErrStaleHandle     = errors.New("stale or foreign actor handle")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrCooking is a creation failure raised while cooking mesh data, so
// errors.Is(err, ErrCreation) holds for it too.
var ErrCooking = fmt.Errorf("%w: mesh cooking", ErrCreation)
