package board

import "errors"

// Failure classes for the render pipeline. All of them are fatal to the
// current render call; callers are expected to redirect them into
// RenderError rather than retry. A section missing from the stop data
// is deliberately not an error (see drawSection).
var (
	ErrAllocation = errors.New("failed to allocate canvas")
	ErrTypeface   = errors.New("failed to construct typeface")
	ErrDraw       = errors.New("failed to construct text blob")
	ErrEncoding   = errors.New("failed to encode image")
)
