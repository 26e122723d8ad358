// Package vterr defines the sentinel errors vtrender's public operations
// return. Each error kind in the design is a stable comparable value rather
// than a closed enum type, matching how the reference renderer wraps plain
// stdlib errors with fmt.Errorf instead of modeling a sum type.
package vterr

import "errors"

var (
	// ErrResourceUnavailable covers missing WebGL2, a canvas that can't be
	// found, or OffscreenCanvas being unsupported when building a dynamic
	// atlas.
	ErrResourceUnavailable = errors.New("vtrender: required resource unavailable")

	// ErrShaderCompilation is returned when a vertex or fragment shader
	// fails to compile or link; the triggering call wraps this with the
	// driver's info log.
	ErrShaderCompilation = errors.New("vtrender: shader compilation failed")

	// ErrAtlasDecode covers every binary-atlas-format failure: bad magic,
	// unsupported version, truncated section, decompression failure, or a
	// texture-size mismatch against the declared dimensions.
	ErrAtlasDecode = errors.New("vtrender: atlas decode failed")

	// ErrAtlasCapacityExceeded is reachable only in static-atlas mode, when
	// a resolved grapheme has no atlas entry and no fallback glyph exists.
	ErrAtlasCapacityExceeded = errors.New("vtrender: atlas capacity exceeded")

	// ErrContextLost means the WebGL context was lost; the current frame is
	// aborted and render_frame will succeed again once restored.
	ErrContextLost = errors.New("vtrender: webgl context lost")

	// ErrInvalidCoordinate means update_cell targeted a cell outside the
	// current (cols, rows); the cell write is a no-op, not a fatal error.
	ErrInvalidCoordinate = errors.New("vtrender: cell coordinate out of range")

	// ErrBusy is returned by Resize when an atlas swap is in flight, per the
	// Open Question decision in SPEC_FULL.md §9: resize and atlas swap never
	// interleave, and callers retry on the next frame rather than block.
	ErrBusy = errors.New("vtrender: operation in progress, retry next frame")

	// ErrAtlasSwapInProgress is the symmetric case: ReplaceAtlasStatic or
	// ReplaceAtlasDynamic called while a resize is in flight.
	ErrAtlasSwapInProgress = errors.New("vtrender: resize in progress, retry next frame")
)
