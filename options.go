package depthflow

import (
	"log/slog"
	"time"

	"github.com/gogpu/depthflow/asset"
	"github.com/gogpu/depthflow/gpucore"
)

// Option configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Default backend, wall clock
//	e := depthflow.New()
//
//	// Headless recording backend with a fixed scene
//	e := depthflow.New(
//	    depthflow.WithBackend("noop"),
//	    depthflow.WithScene(asset.Scene{Zoom: asset.Float(1.2)}),
//	)
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	backendName  string
	backend      gpucore.Backend
	clock        func() time.Time
	scene        *asset.Scene
	logger       *slog.Logger
	memoryBudget uint64
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		clock: time.Now,
	}
}

// WithBackend selects a registered backend by name. An empty name picks
// the registry default.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithBackendInstance uses b directly instead of the registry. It takes
// precedence over WithBackend.
func WithBackendInstance(b gpucore.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithClock sets the time source used for the per-frame time value.
// A nil clock keeps time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithScene sets the starting scene. Without it, Initialize reads
// config.json from the asset provider.
func WithScene(s asset.Scene) Option {
	return func(o *options) {
		o.scene = &s
	}
}

// WithLogger sets the logger for this engine's lifecycle messages.
// Sub-packages keep logging through the package logger (see SetLogger).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMemoryBudget caps the device memory the engine may allocate, in
// bytes. Zero means no cap.
func WithMemoryBudget(bytes uint64) Option {
	return func(o *options) {
		o.memoryBudget = bytes
	}
}
