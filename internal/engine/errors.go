package engine

import "errors"

// Engine errors.
var (
	// ErrShaderMissing is returned when a shader binary is absent or is not
	// valid SPIR-V.
	ErrShaderMissing = errors.New("engine: shader binary missing or invalid")

	// ErrNoMemoryType is returned when no memory type satisfies a request.
	ErrNoMemoryType = errors.New("engine: no suitable memory type")

	// ErrMemoryBudgetExceeded is returned when an allocation would exceed
	// the configured budget.
	ErrMemoryBudgetExceeded = errors.New("engine: memory budget exceeded")

	// ErrNoSurfaceExtent is returned when the surface reports a zero or
	// undefined extent and no fallback extent is configured.
	ErrNoSurfaceExtent = errors.New("engine: surface has no usable extent")

	// ErrFrameSkipped wraps every per-frame failure. Nothing is presented
	// and the parameters are left untouched.
	ErrFrameSkipped = errors.New("engine: frame skipped")

	// ErrSyncLost is returned once the frame fence can no longer be
	// guaranteed to signal. Only Release is meaningful afterwards.
	ErrSyncLost = errors.New("engine: frame synchronization lost")
)
