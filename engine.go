package depthflow

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/depthflow/asset"
	"github.com/gogpu/depthflow/backend"
	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/depthflow/internal/engine"
	"github.com/gogpu/depthflow/uniform"
)

// Engine is one depth-flow renderer bound to one window.
//
// All methods are safe for concurrent use; they are serialized and each
// runs to completion before returning.
type Engine struct {
	mu    sync.Mutex
	opts  options
	state State
	err   error

	dev    gpucore.Device
	ctx    *engine.Context
	params uniform.Params
}

// New creates an uninitialized engine.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{opts: o, params: uniform.Defaults()}
}

// log returns the engine logger.
func (e *Engine) log() *slog.Logger {
	if e.opts.logger != nil {
		return e.opts.logger
	}
	return Logger()
}

// Initialize opens a device for window and creates every GPU object,
// loading textures and shaders from assets.
//
// It returns true at once when the engine is already Ready. On failure
// everything created so far is released, the state becomes StateFailed
// and Err reports the cause; calling Initialize again retries from
// scratch. Besides missing shaders and backend errors, Initialize fails
// with ErrNoMemoryType on a device that has no host-visible or
// device-local memory type for a buffer or image, and with
// ErrMemoryBudgetExceeded when WithMemoryBudget is too small.
func (e *Engine) Initialize(assets asset.Provider, window gpucore.Window) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateReady {
		return true
	}
	if err := e.initialize(assets, window); err != nil {
		e.state = StateFailed
		e.err = err
		e.log().Error("depthflow: initialize failed", "err", err)
		return false
	}
	e.state = StateReady
	e.err = nil
	return true
}

func (e *Engine) initialize(assets asset.Provider, window gpucore.Window) error {
	scene, err := e.scene(assets)
	if err != nil {
		e.log().Warn("depthflow: ignoring scene config", "err", err)
	}

	dev, err := e.open(window)
	if err != nil {
		return err
	}

	cfg := engine.Config{
		Assets:       assets,
		Clock:        e.opts.clock,
		MemoryBudget: e.opts.memoryBudget,
	}
	if r := scene.Resolution; r != nil && r[0] > 0 && r[1] > 0 {
		cfg.Extent = gpucore.Extent2D{Width: uint32(r[0]), Height: uint32(r[1])}
	}
	ctx, err := engine.New(dev, cfg)
	if err != nil {
		dev.Destroy()
		return err
	}

	e.dev = dev
	e.ctx = ctx
	e.params = uniform.Defaults()
	scene.Apply(&e.params)

	info := dev.Info()
	e.log().Info("depthflow: ready",
		"adapter", info.Name,
		"width", ctx.Extent().Width, "height", ctx.Extent().Height)
	return nil
}

// scene returns the configured scene, or the one stored with the assets.
func (e *Engine) scene(assets asset.Provider) (asset.Scene, error) {
	if e.opts.scene != nil {
		return *e.opts.scene, nil
	}
	return asset.LoadScene(assets)
}

// open opens a device on the configured backend.
func (e *Engine) open(window gpucore.Window) (gpucore.Device, error) {
	if b := e.opts.backend; b != nil {
		dev, err := b.Open(window)
		if err != nil {
			return nil, fmt.Errorf("depthflow: open %s: %w", b.Name(), err)
		}
		return dev, nil
	}
	return backend.Open(e.opts.backendName, window)
}

// SetParameters sets the camera for the next frame. Values are stored as
// given. It does nothing unless the engine is Ready.
func (e *Engine) SetParameters(panX, panY, zoom, height float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady {
		return
	}
	e.params.SetMotion(panX, panY, zoom, height)
}

// DrawFrame renders and presents one frame. It does nothing unless the
// engine is Ready. A frame that cannot be drawn is dropped and logged;
// the next call tries again.
func (e *Engine) DrawFrame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady {
		return
	}
	if err := e.ctx.DrawFrame(&e.params); err != nil {
		if errors.Is(err, engine.ErrSyncLost) || errors.Is(err, gpucore.ErrDeviceLost) {
			e.log().Error("depthflow: frame dropped", "err", err)
			return
		}
		e.log().Warn("depthflow: frame dropped", "err", err)
	}
}

// Resize makes the next DrawFrame recreate the swapchain for the current
// window size. It does nothing unless the engine is Ready.
func (e *Engine) Resize() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady {
		return
	}
	e.ctx.MarkStale()
}

// Teardown waits for the device to go idle, releases every GPU object in
// reverse creation order and closes the device. The engine returns to
// StateUninitialized and may be initialized again.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx != nil {
		e.ctx.Release()
		e.ctx = nil
	}
	if e.dev != nil {
		e.dev.Destroy()
		e.dev = nil
		e.log().Info("depthflow: torn down")
	}
	e.state = StateUninitialized
	e.err = nil
	e.params = uniform.Defaults()
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns why the engine is not Ready: the Initialize error in
// StateFailed, ErrNotReady in StateUninitialized, nil in StateReady.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateReady:
		return nil
	case StateFailed:
		return e.err
	default:
		return ErrNotReady
	}
}

// Params returns the parameters of the last presented frame, with any
// camera changes made since.
func (e *Engine) Params() uniform.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx == nil {
		return Stats{}
	}
	fs := e.ctx.Stats()
	ms := e.ctx.MemoryStats()
	ext := e.ctx.Extent()
	s := Stats{
		Adapter:    e.dev.Info().Name,
		Width:      ext.Width,
		Height:     ext.Height,
		Frames:     fs.Frames,
		Skipped:    fs.Skipped,
		Rebuilds:   fs.Rebuilds,
		Time:       fs.Time,
		MemoryUsed: ms.UsedBytes,
		MemoryPeak: ms.PeakBytes,
	}
	for _, tex := range e.ctx.Textures() {
		if tex == nil || tex.Fallback == engine.FallbackNone {
			continue
		}
		if s.Placeholders == nil {
			s.Placeholders = make(map[string]string)
		}
		s.Placeholders[tex.Slot.String()] = tex.Fallback.String()
	}
	return s
}
