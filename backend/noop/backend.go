package noop

import (
	"sync"

	"github.com/gogpu/depthflow/backend"
	"github.com/gogpu/depthflow/gpucore"
)

// init registers the noop backend with the backend registry.
func init() {
	backend.Register(backend.BackendNoop, func() gpucore.Backend { return New(Config{}) })
}

// Config controls the simulated adapter and surface.
type Config struct {
	// Extent is the initial surface size. Zero means 640x480, unless the
	// window is a gpucore.HeadlessWindow with a non-zero size.
	Extent gpucore.Extent2D

	// MinImageCount and MaxImageCount are reported as surface capabilities.
	// Zero MinImageCount means 2. Zero MaxImageCount means no limit.
	MinImageCount uint32
	MaxImageCount uint32

	// MemoryTypes overrides the default memory types: device local,
	// host visible|coherent, and device local|host visible|coherent.
	MemoryTypes []gpucore.MemoryType

	// OpenErr, when set, makes Open fail.
	OpenErr error
}

// Backend opens noop devices.
type Backend struct {
	cfg Config

	mu      sync.Mutex
	devices []*Device
}

// New returns a backend producing devices configured by cfg.
func New(cfg Config) *Backend {
	if cfg.MinImageCount == 0 {
		cfg.MinImageCount = 2
	}
	if cfg.Extent == (gpucore.Extent2D{}) {
		cfg.Extent = gpucore.Extent2D{Width: 640, Height: 480}
	}
	if cfg.MemoryTypes == nil {
		cfg.MemoryTypes = []gpucore.MemoryType{
			{Properties: gpucore.MemoryPropertyDeviceLocal},
			{Properties: gpucore.MemoryPropertyHostVisible | gpucore.MemoryPropertyHostCoherent},
			{Properties: gpucore.MemoryPropertyDeviceLocal | gpucore.MemoryPropertyHostVisible | gpucore.MemoryPropertyHostCoherent},
		}
	}
	return &Backend{cfg: cfg}
}

// Name implements gpucore.Backend.
func (b *Backend) Name() string { return backend.BackendNoop }

// Open implements gpucore.Backend. Any window type is accepted.
func (b *Backend) Open(window gpucore.Window) (gpucore.Device, error) {
	if b.cfg.OpenErr != nil {
		return nil, b.cfg.OpenErr
	}

	cfg := b.cfg
	if hw, ok := window.(gpucore.HeadlessWindow); ok && hw.Width != 0 && hw.Height != 0 {
		cfg.Extent = gpucore.Extent2D{Width: hw.Width, Height: hw.Height}
	}
	d := newDevice(cfg)

	b.mu.Lock()
	b.devices = append(b.devices, d)
	b.mu.Unlock()
	return d, nil
}

// Devices returns every device opened so far, oldest first.
func (b *Backend) Devices() []*Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Device(nil), b.devices...)
}

// Last returns the most recently opened device, or nil.
func (b *Backend) Last() *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.devices) == 0 {
		return nil
	}
	return b.devices[len(b.devices)-1]
}
