package depthflow

import (
	"errors"

	"github.com/gogpu/depthflow/backend"
	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/depthflow/internal/engine"
)

// Errors reported by Engine.Err after a failed Initialize, matched with
// errors.Is.
var (
	// ErrShaderMissing means a shader binary was absent or not SPIR-V.
	ErrShaderMissing = engine.ErrShaderMissing

	// ErrNoAdapter means no physical device was found.
	ErrNoAdapter = gpucore.ErrNoAdapter

	// ErrUnsupportedWindow means the backend cannot present to the window.
	ErrUnsupportedWindow = gpucore.ErrUnsupportedWindow

	// ErrBackendNotAvailable means the requested backend is not registered.
	ErrBackendNotAvailable = backend.ErrBackendNotAvailable

	// ErrMemoryBudgetExceeded means the configured memory budget was too
	// small for the textures and buffers.
	ErrMemoryBudgetExceeded = engine.ErrMemoryBudgetExceeded

	// ErrNoMemoryType means the device has no memory type with the
	// properties a buffer or image needs.
	ErrNoMemoryType = engine.ErrNoMemoryType
)

// ErrNotReady is returned by Err when Initialize was never called.
var ErrNotReady = errors.New("depthflow: engine not initialized")
