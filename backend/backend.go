package backend

import (
	"errors"

	"github.com/gogpu/depthflow/gpucore"
)

// Backend names.
const (
	BackendVulkan = "vulkan"
	BackendNoop   = "noop"
)

// EnvBackend names the environment variable that overrides backend
// selection in Default.
const EnvBackend = "DEPTHFLOW_BACKEND"

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Factory creates a new backend instance.
type Factory func() gpucore.Backend
