package backend

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/gogpu/depthflow/gpucore"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// The recording backend is never preferred over real hardware.
	backendPriority = []string{BackendVulkan}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string) gpucore.Backend {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available backend.
//
// A registered name in $DEPTHFLOW_BACKEND wins. Otherwise the priority
// list is consulted, then any registered backend in name order.
// Returns nil if no backends are registered.
func Default() gpucore.Backend {
	if name := os.Getenv(EnvBackend); name != "" {
		if b := Get(name); b != nil {
			return b
		}
	}

	for _, name := range backendPriority {
		if b := Get(name); b != nil {
			return b
		}
	}

	// Fallback: return first available
	for _, name := range Available() {
		if b := Get(name); b != nil {
			return b
		}
	}

	return nil
}

// MustDefault returns the default backend or panics.
func MustDefault() gpucore.Backend {
	b := Default()
	if b == nil {
		panic("backend: no backend available")
	}
	return b
}

// Open selects a backend by name, or the default one when name is empty,
// and opens a device for window.
func Open(name string, window gpucore.Window) (gpucore.Device, error) {
	var b gpucore.Backend
	if name == "" {
		b = Default()
	} else {
		b = Get(name)
	}
	if b == nil {
		if name == "" {
			return nil, ErrBackendNotAvailable
		}
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}

	dev, err := b.Open(window)
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", b.Name(), err)
	}
	return dev, nil
}
