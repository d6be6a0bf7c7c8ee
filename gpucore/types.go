package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each backend implementation
// maintains a mapping between IDs and actual native handles.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// MemoryID is an opaque handle to a device memory allocation.
type MemoryID uint64

// ImageID is an opaque handle to a GPU image.
type ImageID uint64

// ImageViewID is an opaque handle to an image view.
type ImageViewID uint64

// SamplerID is an opaque handle to a sampler.
type SamplerID uint64

// ShaderModuleID is an opaque handle to a shader module.
type ShaderModuleID uint64

// RenderPassID is an opaque handle to a render pass.
type RenderPassID uint64

// FramebufferID is an opaque handle to a framebuffer.
type FramebufferID uint64

// DescriptorSetLayoutID is an opaque handle to a descriptor set layout.
type DescriptorSetLayoutID uint64

// DescriptorPoolID is an opaque handle to a descriptor pool.
type DescriptorPoolID uint64

// DescriptorSetID is an opaque handle to a descriptor set.
type DescriptorSetID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// PipelineID is an opaque handle to a graphics pipeline.
type PipelineID uint64

// CommandPoolID is an opaque handle to a command pool.
type CommandPoolID uint64

// CommandBufferID is an opaque handle to a primary command buffer.
type CommandBufferID uint64

// FenceID is an opaque handle to a fence.
type FenceID uint64

// SemaphoreID is an opaque handle to a binary semaphore.
type SemaphoreID uint64

// SwapchainID is an opaque handle to a swapchain.
type SwapchainID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// ImageLayout is the usage layout of an image.
type ImageLayout uint32

// Image layouts.
const (
	ImageLayoutUndefined ImageLayout = iota
	ImageLayoutTransferDst
	ImageLayoutShaderReadOnly
	ImageLayoutColorAttachment
	ImageLayoutPresentSrc
)

// String returns the layout name.
func (l ImageLayout) String() string {
	switch l {
	case ImageLayoutUndefined:
		return "Undefined"
	case ImageLayoutTransferDst:
		return "TransferDst"
	case ImageLayoutShaderReadOnly:
		return "ShaderReadOnly"
	case ImageLayoutColorAttachment:
		return "ColorAttachment"
	case ImageLayoutPresentSrc:
		return "PresentSrc"
	default:
		return fmt.Sprintf("ImageLayout(%d)", uint32(l))
	}
}

// MemoryProperty is a bitmask of device memory properties.
// Bit values match Vulkan's VkMemoryPropertyFlagBits.
type MemoryProperty uint32

// Memory properties.
const (
	MemoryPropertyDeviceLocal  MemoryProperty = 1 << 0
	MemoryPropertyHostVisible  MemoryProperty = 1 << 1
	MemoryPropertyHostCoherent MemoryProperty = 1 << 2
	MemoryPropertyHostCached   MemoryProperty = 1 << 3
)

// PipelineStage is a bitmask of pipeline stages used in barriers and waits.
type PipelineStage uint32

// Pipeline stages.
const (
	PipelineStageTopOfPipe             PipelineStage = 1 << 0
	PipelineStageTransfer              PipelineStage = 1 << 1
	PipelineStageFragmentShader        PipelineStage = 1 << 2
	PipelineStageColorAttachmentOutput PipelineStage = 1 << 3
)

// Access is a bitmask of memory access types used in barriers.
type Access uint32

// Access types.
const (
	AccessTransferWrite        Access = 1 << 0
	AccessShaderRead           Access = 1 << 1
	AccessColorAttachmentWrite Access = 1 << 2
)

// DescriptorType is the type of a descriptor binding.
type DescriptorType uint32

// Descriptor types.
const (
	DescriptorTypeCombinedImageSampler DescriptorType = iota + 1
	DescriptorTypeUniformBuffer
)

// String returns the descriptor type name.
func (t DescriptorType) String() string {
	switch t {
	case DescriptorTypeCombinedImageSampler:
		return "CombinedImageSampler"
	case DescriptorTypeUniformBuffer:
		return "UniformBuffer"
	default:
		return fmt.Sprintf("DescriptorType(%d)", uint32(t))
	}
}

// CompositeAlpha selects how the presentation engine treats alpha.
type CompositeAlpha uint32

// Composite alpha modes.
const (
	CompositeAlphaOpaque CompositeAlpha = iota
	CompositeAlphaInherit
)

// SurfaceTransform is a backend-native surface transform bit, passed
// through unchanged from capabilities to swapchain creation.
type SurfaceTransform uint32

// Extent2D is a width/height pair in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// MemoryType describes one memory type of the physical device.
type MemoryType struct {
	Properties MemoryProperty
	HeapIndex  uint32
}

// MemoryRequirements is what a buffer or image needs from its allocation.
type MemoryRequirements struct {
	Size      uint64
	Alignment uint64
	// TypeBits has bit i set when memory type i may back the resource.
	TypeBits uint32
}

// SurfaceCapabilities is the subset of surface capabilities the engine uses.
type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount is 0 when there is no limit.
	MaxImageCount    uint32
	CurrentExtent    Extent2D
	CurrentTransform SurfaceTransform
}
