package gpucore

import (
	"errors"
	"fmt"
)

// Common device errors.
var (
	// ErrNoAdapter is returned when no physical device is enumerated.
	ErrNoAdapter = errors.New("gpucore: no physical adapter available")

	// ErrNoGraphicsQueue is returned when the adapter has no graphics queue family.
	ErrNoGraphicsQueue = errors.New("gpucore: no graphics queue family")

	// ErrUnsupportedWindow is returned when a backend cannot create a
	// surface for the supplied window type.
	ErrUnsupportedWindow = errors.New("gpucore: unsupported window type")

	// ErrOutOfDate is returned by AcquireNextImage and Present when the
	// surface no longer matches the swapchain.
	ErrOutOfDate = errors.New("gpucore: swapchain out of date")

	// ErrSuboptimal is returned when the swapchain still works but no longer
	// matches the surface exactly.
	ErrSuboptimal = errors.New("gpucore: swapchain suboptimal")

	// ErrDeviceLost is returned when the device stopped responding.
	ErrDeviceLost = errors.New("gpucore: device lost")
)

// ResultError reports a failed native call and its raw result code.
type ResultError struct {
	Op   string
	Code int32
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("gpucore: %s failed: result %d", e.Op, e.Code)
}

// IsSwapchainStale reports whether err means the swapchain must be rebuilt.
func IsSwapchainStale(err error) bool {
	return errors.Is(err, ErrOutOfDate) || errors.Is(err, ErrSuboptimal)
}
