// Package vulkan implements gpucore.Backend on the pure Go Vulkan binding
// shipped with github.com/gogpu/wgpu (hal/vulkan/vk).
//
// The Vulkan loader is opened at run time, so the package builds without
// cgo and without Vulkan headers. Importing the package registers the
// "vulkan" backend:
//
//	import _ "github.com/gogpu/depthflow/backend/vulkan"
//
// Open creates a Vulkan 1.0 instance with VK_KHR_surface and the surface
// extension of the supplied window, takes the first physical device,
// and opens a logical device with one graphics queue and VK_KHR_swapchain.
// Supported windows are gpucore.AndroidWindow, XlibWindow, WaylandWindow
// and Win32Window.
//
// Object IDs handed out by Device are the native Vulkan handles.
package vulkan
