// Package noop provides a headless recording device.
//
// The noop backend implements gpucore.Device without a GPU. It is useful for:
//   - Testing the engine without GPU hardware
//   - CI environments without a Vulkan loader
//   - Checking call order, image layouts and object lifetimes
//
// Every operation completes synchronously. Memory is backed by Go slices,
// so uniform uploads and texture copies can be read back. Submissions are
// executed at Submit time: layout transitions, copies and draws are
// replayed in order and any protocol breach (wrong layout, unsignalled
// semaphore, recording outside Begin/End, double destroy) is recorded in
// Violations instead of failing the call.
//
// The backend registers itself as "noop" on import.
package noop
