// Package gpucore provides the device abstraction shared by the depthflow
// engine and its backends.
//
// This package defines the [Device] interface, a thin explicit-API surface
// (buffers, images, memory, command buffers, fences, semaphores, swapchain)
// that lets the same engine code run against:
//   - backend/vulkan (Vulkan through the pure Go gogpu/wgpu vk bindings)
//   - backend/noop (headless recording device for tests and CI)
//
// # Architecture
//
// The engine owns every resource it creates and drives synchronization
// itself: it waits on fences, resets them, submits with semaphores and
// presents. The device never synchronizes implicitly, except where a call
// is documented as blocking ([Device.WaitForFence], [Device.QueueWaitIdle],
// [Device.WaitIdle]).
//
// Resources are referred to by opaque IDs. Each backend maps IDs to its
// native handles; [InvalidID] is never a valid resource.
//
// # Vocabulary
//
// Where WebGPU and Vulkan agree, descriptors use github.com/gogpu/gputypes
// (texture formats, usages, load/store ops, primitive state, filters).
// Concepts with no WebGPU equivalent (image layouts, pipeline stages,
// access masks, memory properties) are defined here.
//
// # Memory types
//
// [FindMemoryType] implements the memory type selection rule used for every
// allocation: first type allowed by the filter whose property flags are a
// superset of the requested ones, index 0 when none qualifies.
package gpucore
