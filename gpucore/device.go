package gpucore

import "github.com/gogpu/gpucontext"

// Backend opens devices bound to native windows.
//
// Backends are registered with package backend and selected by name.
type Backend interface {
	// Name returns the backend identifier (e.g., "vulkan", "noop").
	Name() string

	// Open creates the instance, picks the first physical adapter, opens a
	// logical device with one graphics queue and creates a presentable
	// surface for window. A single attempt is made; on failure everything
	// created so far is released.
	Open(window Window) (Device, error)
}

// Device is an opened logical device with its graphics queue and surface.
//
// All methods are synchronous. Only WaitForFence, QueueWaitIdle and WaitIdle
// block on GPU progress. Destroy* methods accept InvalidID and do nothing.
//
// A Device is not safe for concurrent use.
type Device interface {
	// Info describes the physical adapter.
	Info() gpucontext.AdapterInfo

	// MemoryTypes returns the memory types of the physical device, indexed
	// the same way as MemoryRequirements.TypeBits.
	MemoryTypes() []MemoryType

	// Surface and swapchain.

	SurfaceCapabilities() (SurfaceCapabilities, error)
	CreateSwapchain(desc *SwapchainDescriptor) (SwapchainID, error)
	SwapchainImages(swapchain SwapchainID) ([]ImageID, error)
	DestroySwapchain(swapchain SwapchainID)

	// AcquireNextImage returns the index of the next presentable image and
	// arranges for signal to be signalled when it is ready. Returns
	// ErrOutOfDate when no image was acquired because the surface changed.
	// ErrSuboptimal comes with a valid index and a pending signal.
	AcquireNextImage(swapchain SwapchainID, signal SemaphoreID) (uint32, error)

	// Present queues image index for presentation after wait is signalled.
	Present(swapchain SwapchainID, index uint32, wait SemaphoreID) error

	// Memory, buffers and images.

	CreateBuffer(desc *BufferDescriptor) (BufferID, error)
	DestroyBuffer(buffer BufferID)
	BufferMemoryRequirements(buffer BufferID) MemoryRequirements

	CreateImage(desc *ImageDescriptor) (ImageID, error)
	DestroyImage(image ImageID)
	ImageMemoryRequirements(image ImageID) MemoryRequirements

	AllocateMemory(size uint64, typeIndex uint32) (MemoryID, error)
	FreeMemory(memory MemoryID)
	BindBufferMemory(buffer BufferID, memory MemoryID) error
	BindImageMemory(image ImageID, memory MemoryID) error

	// MapMemory maps size bytes of a host-visible allocation. The returned
	// slice is valid until UnmapMemory.
	MapMemory(memory MemoryID, offset, size uint64) ([]byte, error)
	UnmapMemory(memory MemoryID)

	CreateImageView(desc *ImageViewDescriptor) (ImageViewID, error)
	DestroyImageView(view ImageViewID)

	CreateSampler(desc *SamplerDescriptor) (SamplerID, error)
	DestroySampler(sampler SamplerID)

	// Render passes and pipelines.

	CreateRenderPass(desc *RenderPassDescriptor) (RenderPassID, error)
	DestroyRenderPass(pass RenderPassID)

	CreateFramebuffer(desc *FramebufferDescriptor) (FramebufferID, error)
	DestroyFramebuffer(fb FramebufferID)

	// CreateShaderModule creates a module from SPIR-V words in little-endian
	// byte order.
	CreateShaderModule(code []byte) (ShaderModuleID, error)
	DestroyShaderModule(module ShaderModuleID)

	CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayoutID, error)
	DestroyDescriptorSetLayout(layout DescriptorSetLayoutID)

	CreateDescriptorPool(desc *DescriptorPoolDescriptor) (DescriptorPoolID, error)
	DestroyDescriptorPool(pool DescriptorPoolID)
	AllocateDescriptorSet(pool DescriptorPoolID, layout DescriptorSetLayoutID) (DescriptorSetID, error)
	UpdateDescriptorSets(writes []DescriptorWrite)

	CreatePipelineLayout(layouts []DescriptorSetLayoutID) (PipelineLayoutID, error)
	DestroyPipelineLayout(layout PipelineLayoutID)

	CreateGraphicsPipeline(desc *GraphicsPipelineDescriptor) (PipelineID, error)
	DestroyPipeline(pipeline PipelineID)

	// Commands.

	// CreateCommandPool creates a pool on the graphics queue family. When
	// resettable is true, buffers can be reset individually.
	CreateCommandPool(resettable bool) (CommandPoolID, error)
	DestroyCommandPool(pool CommandPoolID)
	AllocateCommandBuffer(pool CommandPoolID) (CommandBufferID, error)
	FreeCommandBuffer(pool CommandPoolID, cmd CommandBufferID)

	BeginCommandBuffer(cmd CommandBufferID, oneTimeSubmit bool) error
	EndCommandBuffer(cmd CommandBufferID) error
	ResetCommandBuffer(cmd CommandBufferID) error

	CmdPipelineBarrier(cmd CommandBufferID, barrier *ImageBarrier)
	CmdCopyBufferToImage(cmd CommandBufferID, region *BufferImageCopy)
	CmdBeginRenderPass(cmd CommandBufferID, begin *RenderPassBegin)
	CmdBindPipeline(cmd CommandBufferID, pipeline PipelineID)
	CmdBindDescriptorSet(cmd CommandBufferID, layout PipelineLayoutID, set DescriptorSetID)
	CmdDraw(cmd CommandBufferID, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdEndRenderPass(cmd CommandBufferID)

	// Synchronization and submission.

	CreateFence(signaled bool) (FenceID, error)
	DestroyFence(fence FenceID)
	// WaitForFence blocks without timeout until fence is signalled.
	WaitForFence(fence FenceID) error
	ResetFence(fence FenceID) error

	CreateSemaphore() (SemaphoreID, error)
	DestroySemaphore(semaphore SemaphoreID)

	Submit(info *SubmitInfo) error
	QueueWaitIdle() error
	WaitIdle() error

	// Destroy releases the logical device, the surface and the instance.
	// Every other resource must be destroyed first.
	Destroy()
}
