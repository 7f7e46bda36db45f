package gfx

import "errors"

// Error taxonomy for the render core. Transient frame-level failures
// (ErrSurfaceUnavailable) are recovered by skipping to the next tick;
// resource and parameter errors surface synchronously at the call that
// triggered them.
var (
	// ErrSurfaceUnavailable means the presentable surface could not be
	// acquired this tick (minimized window, resize race). Skip the frame
	// and retry; never fatal.
	ErrSurfaceUnavailable = errors.New("gfx: surface unavailable")

	// ErrBufferAllocationFailed means a GPU buffer could not be grown to
	// the required size. The current frame's remaining draws are aborted.
	ErrBufferAllocationFailed = errors.New("gfx: buffer allocation failed")

	// ErrInvalidPrimitiveParameter flags a caller programming error such
	// as a circle with fewer than 3 segments.
	ErrInvalidPrimitiveParameter = errors.New("gfx: invalid primitive parameter")

	// ErrUnsupportedBackendFeature marks a capability the selected backend
	// lacks. Callers that can fall back (the frame driver's per-instance
	// path) never see it; it only escapes when no fallback exists.
	ErrUnsupportedBackendFeature = errors.New("gfx: unsupported backend feature")

	// ErrTextureNotFound means a draw referenced a texture id that was
	// never registered or has been released. The draw is skipped and the
	// frame continues.
	ErrTextureNotFound = errors.New("gfx: texture not found")
)
