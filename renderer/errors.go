package renderer

import "errors"

var (
	ErrNoTracers          = errors.New("renderer: no tracers attached")
	ErrNoSamples          = errors.New("renderer: no samples defined")
	ErrNoCamera           = errors.New("renderer: no camera defined")
	ErrInvalidScissor     = errors.New("renderer: scissor window does not overlap the frame")
	ErrUnsupportedFormat  = errors.New("renderer: unsupported image format")
	ErrInvalidToneMapping = errors.New("renderer: exposure and gamma must be positive")
)
