// Package backend selects the device implementation used by the engine.
//
// Backends register themselves from init() functions and are picked at
// runtime. The Vulkan backend registers on import:
//
//	import _ "github.com/gogpu/depthflow/backend/vulkan"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	// Get the default (best available) backend
//	b := backend.Default()
//
//	// Or request a specific backend
//	b := backend.Get("noop")
//
// Setting DEPTHFLOW_BACKEND overrides the default choice, which lets a
// CI job run the whole engine against the headless recorder.
//
// # Opening a Device
//
// Open combines selection with device creation:
//
//	dev, err := backend.Open("", gpucore.XlibWindow{Display: dpy, Window: win})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//
// # Available Backends
//
//   - vulkan: the Vulkan loader through github.com/gogpu/wgpu/hal/vulkan/vk
//   - noop: headless recorder backed by Go memory, for tests
package backend
