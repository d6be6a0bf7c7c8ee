// Package engine owns every GPU object of the depth-flow renderer and runs
// the per-frame loop on top of a gpucore.Device.
//
// A Context is built in one go by New and torn down by Release. Objects
// are released in reverse creation order through a single release stack.
// Everything that depends on the surface size sits above a mark on that
// stack so Rebuild can drop and recreate it without touching textures,
// buffers or descriptors.
//
// A Context is not safe for concurrent use.
package engine

import (
	"fmt"
	"time"

	"github.com/gogpu/depthflow/asset"
	"github.com/gogpu/depthflow/gpucore"
)

// Config configures a Context.
type Config struct {
	// Assets supplies textures and shader binaries. A nil provider yields
	// magenta placeholder textures and fails on the missing shaders.
	Assets asset.Provider

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Extent is used when the surface leaves the size to the swapchain.
	Extent gpucore.Extent2D

	// MemoryBudget limits device allocations in bytes. Zero means no limit.
	MemoryBudget uint64
}

// Context is an initialized engine bound to one device.
type Context struct {
	dev gpucore.Device
	cfg Config
	rel releaseStack
	mem *memoryLedger

	// swapchainMark is the release stack depth below the swapchain set.
	swapchainMark int

	cmdPool   gpucore.CommandPoolID
	cmd       gpucore.CommandBufferID
	fence     gpucore.FenceID
	semImage  gpucore.SemaphoreID
	semRender gpucore.SemaphoreID

	vertSPV []byte
	fragSPV []byte

	ubo       uniformBuffer
	textures  [TextureSlotCount]*Texture
	imageSize gpucore.Extent2D

	setLayout      gpucore.DescriptorSetLayoutID
	descSet        gpucore.DescriptorSetID
	pipelineLayout gpucore.PipelineLayoutID

	sc       *swapchainSet
	pipeline gpucore.PipelineID
	stale    bool
	syncLost bool

	start    time.Time
	started  bool
	lastTime float32
	stats    FrameStats
}

// New creates every engine object on dev. On failure everything created
// so far is released and the error is returned; dev itself is left open.
//
// Allocations never fall back to an arbitrary memory type: when the device
// offers no type with the required properties New fails with
// ErrNoMemoryType.
func New(dev gpucore.Device, cfg Config) (*Context, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	c := &Context{
		dev: dev,
		cfg: cfg,
		mem: newMemoryLedger(cfg.MemoryBudget),
	}
	if err := c.init(); err != nil {
		c.rel.unwind(0)
		return nil, err
	}
	slogger().Info("engine: ready",
		"image_width", c.imageSize.Width, "image_height", c.imageSize.Height,
		"memory", c.mem.stats().UsedBytes)
	return c, nil
}

func (c *Context) init() error {
	pool, err := c.dev.CreateCommandPool(true)
	if err != nil {
		return fmt.Errorf("engine: create command pool: %w", err)
	}
	c.rel.push("command pool", func() { c.dev.DestroyCommandPool(pool) })
	c.cmdPool = pool

	c.cmd, err = c.dev.AllocateCommandBuffer(pool)
	if err != nil {
		return fmt.Errorf("engine: allocate command buffer: %w", err)
	}
	cmd := c.cmd
	c.rel.push("command buffer", func() { c.dev.FreeCommandBuffer(pool, cmd) })

	if err := c.createSync(); err != nil {
		return err
	}
	if err := c.loadShaders(); err != nil {
		return err
	}
	if err := c.createUniformBuffer(); err != nil {
		return err
	}
	if err := c.loadTextures(); err != nil {
		return err
	}
	if err := c.createDescriptors(); err != nil {
		return err
	}

	c.swapchainMark = c.rel.depth()
	return c.createSwapchainSet()
}

// createSync creates the frame fence, signalled so the first frame does
// not wait, and the two frame semaphores.
func (c *Context) createSync() error {
	fence, err := c.dev.CreateFence(true)
	if err != nil {
		return fmt.Errorf("engine: create fence: %w", err)
	}
	c.rel.push("fence", func() { c.dev.DestroyFence(fence) })
	c.fence = fence

	for _, sem := range []*gpucore.SemaphoreID{&c.semImage, &c.semRender} {
		s, err := c.dev.CreateSemaphore()
		if err != nil {
			return fmt.Errorf("engine: create semaphore: %w", err)
		}
		c.rel.push("semaphore", func() { c.dev.DestroySemaphore(s) })
		*sem = s
	}
	return nil
}

// Rebuild waits for the device to go idle and recreates the swapchain,
// its views and framebuffers, the render pass and the pipeline for the
// current surface size. On failure the context stays stale and the next
// DrawFrame retries.
func (c *Context) Rebuild() error {
	if err := c.dev.WaitIdle(); err != nil {
		return fmt.Errorf("engine: wait idle before rebuild: %w", err)
	}
	c.rel.unwind(c.swapchainMark)
	c.sc = nil
	c.pipeline = gpucore.InvalidID
	c.stale = true

	if err := c.createSwapchainSet(); err != nil {
		c.rel.unwind(c.swapchainMark)
		c.sc = nil
		c.pipeline = gpucore.InvalidID
		return err
	}
	c.stale = false
	c.stats.Rebuilds++
	return nil
}

// MarkStale makes the next DrawFrame rebuild the swapchain first.
func (c *Context) MarkStale() {
	c.markStale(fmt.Errorf("requested"))
}

// Release waits for the device to go idle and destroys every object in
// reverse creation order. The device is not destroyed.
func (c *Context) Release() {
	if err := c.dev.WaitIdle(); err != nil {
		slogger().Warn("engine: wait idle before release", "err", err)
	}
	c.rel.unwind(0)
	c.sc = nil
	c.textures = [TextureSlotCount]*Texture{}
	slogger().Info("engine: released")
}

// Stats returns frame counters.
func (c *Context) Stats() FrameStats { return c.stats }

// MemoryStats returns device memory usage.
func (c *Context) MemoryStats() MemoryStats { return c.mem.stats() }

// Textures returns the loaded textures indexed by slot.
func (c *Context) Textures() [TextureSlotCount]*Texture { return c.textures }

// ImageSize returns the color image size, or 100x100 when the color
// texture is a placeholder.
func (c *Context) ImageSize() gpucore.Extent2D { return c.imageSize }

// Extent returns the current swapchain extent, zero while none exists.
func (c *Context) Extent() gpucore.Extent2D {
	if c.sc == nil {
		return gpucore.Extent2D{}
	}
	return c.sc.extent
}

// Stale reports whether the next DrawFrame rebuilds the swapchain.
func (c *Context) Stale() bool { return c.stale || c.sc == nil }
