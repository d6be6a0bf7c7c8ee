package depthflow

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/depthflow/backend/vulkan"
	"github.com/gogpu/depthflow/internal/engine"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for depthflow and its sub-packages.
// By default, depthflow produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by depthflow:
//   - [slog.LevelDebug]: per-resource creation (textures, swapchain images)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, engine ready, teardown)
//   - [slog.LevelWarn]: placeholder textures, dropped frames, ignored config
//   - [slog.LevelError]: failed initialization
//
// Example:
//
//	// Enable info-level logging to stderr:
//	depthflow.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	depthflow.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	engine.SetLogger(l)
	vulkan.SetLogger(l)
}

// Logger returns the current logger used by depthflow.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
