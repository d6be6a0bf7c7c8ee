package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/depthflow/gpucore"
)

// fakeBackend opens nothing; it only reports its name.
type fakeBackend struct {
	name string
	err  error
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Open(gpucore.Window) (gpucore.Device, error) {
	return nil, b.err
}

func register(t *testing.T, name string) {
	t.Helper()
	Register(name, func() gpucore.Backend { return &fakeBackend{name: name} })
	t.Cleanup(func() { Unregister(name) })
}

func TestRegistryRegisterAndGet(t *testing.T) {
	register(t, "test-a")

	if !IsRegistered("test-a") {
		t.Fatal("test-a should be registered")
	}
	b := Get("test-a")
	if b == nil {
		t.Fatal("Get(test-a) returned nil")
	}
	if b.Name() != "test-a" {
		t.Errorf("Get(test-a).Name() = %q, want %q", b.Name(), "test-a")
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	if b := Get("nonexistent"); b != nil {
		t.Error("Get(nonexistent) should return nil")
	}
}

func TestRegistryAvailableSorted(t *testing.T) {
	register(t, "test-c")
	register(t, "test-b")

	available := Available()
	var got []string
	for _, name := range available {
		if name == "test-b" || name == "test-c" {
			got = append(got, name)
		}
	}
	if len(got) != 2 || got[0] != "test-b" || got[1] != "test-c" {
		t.Errorf("Available() = %v, want test-b before test-c", available)
	}
}

func TestRegistryUnregister(t *testing.T) {
	Register("test-backend", func() gpucore.Backend { return &fakeBackend{name: "test-backend"} })
	if !IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}

	Unregister("test-backend")

	if IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestRegistryDefaultPriority(t *testing.T) {
	t.Setenv(EnvBackend, "")
	register(t, "test-zzz")

	if !IsRegistered(BackendVulkan) {
		register(t, BackendVulkan)
	}
	b := Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	if b.Name() != BackendVulkan {
		t.Errorf("Default() = %q, want %q", b.Name(), BackendVulkan)
	}
}

func TestRegistryDefaultEnvOverride(t *testing.T) {
	register(t, "test-env")

	t.Setenv(EnvBackend, "test-env")
	if b := Default(); b == nil || b.Name() != "test-env" {
		t.Errorf("Default() with override = %v, want test-env", b)
	}

	// Unknown names fall through to normal selection.
	t.Setenv(EnvBackend, "does-not-exist")
	if b := Default(); b == nil {
		t.Error("Default() returned nil with an unknown override")
	}
}

func TestRegistryMustDefault(t *testing.T) {
	register(t, "test-must")

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustDefault() panicked: %v", r)
		}
	}()
	if b := MustDefault(); b == nil {
		t.Error("MustDefault() returned nil")
	}
}

func TestOpen(t *testing.T) {
	openErr := errors.New("no display")
	Register("test-fail", func() gpucore.Backend { return &fakeBackend{name: "test-fail", err: openErr} })
	t.Cleanup(func() { Unregister("test-fail") })

	_, err := Open("test-fail", gpucore.HeadlessWindow{Width: 1, Height: 1})
	if !errors.Is(err, openErr) {
		t.Errorf("Open(test-fail) error = %v, want wrapped %v", err, openErr)
	}

	_, err = Open("nonexistent", gpucore.HeadlessWindow{})
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(nonexistent) error = %v, want ErrBackendNotAvailable", err)
	}
}
