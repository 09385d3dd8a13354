package mosaic

import "github.com/pkg/errors"

var (
	// ErrInvalidConfig is returned (wrapped) when settings fail validation.
	ErrInvalidConfig = errors.New("mosaic: invalid config")

	// ErrInvalidImage is returned (wrapped) when a pixel buffer is rejected at
	// the boundary: zero area, or fewer bytes than width*height*4.
	ErrInvalidImage = errors.New("mosaic: invalid image")

	// ErrNotStarted is returned by operations that need a started run.
	ErrNotStarted = errors.New("mosaic: not started")
)
