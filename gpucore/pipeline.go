package gpucore

import "github.com/gogpu/gputypes"

// SwapchainDescriptor describes a presentable image chain.
type SwapchainDescriptor struct {
	MinImageCount  uint32
	Format         gputypes.TextureFormat
	Extent         Extent2D
	Usage          gputypes.TextureUsage
	PreTransform   SurfaceTransform
	CompositeAlpha CompositeAlpha
	PresentMode    gputypes.PresentMode
	Clipped        bool
}

// BufferDescriptor describes a buffer with exclusive queue ownership.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// ImageDescriptor describes a single-mip, single-layer, single-sample 2D
// image with optimal tiling.
type ImageDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// ImageViewDescriptor describes a 2D color view over a whole image.
type ImageViewDescriptor struct {
	Image  ImageID
	Format gputypes.TextureFormat
}

// SamplerDescriptor describes a sampler. Anisotropy and comparison are
// always disabled.
type SamplerDescriptor struct {
	MagFilter   gputypes.FilterMode
	MinFilter   gputypes.FilterMode
	AddressMode gputypes.AddressMode
}

// RenderPassDescriptor describes a render pass with one color attachment
// and a single graphics subpass.
type RenderPassDescriptor struct {
	Format        gputypes.TextureFormat
	LoadOp        gputypes.LoadOp
	StoreOp       gputypes.StoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

// FramebufferDescriptor describes a framebuffer with a single attachment.
type FramebufferDescriptor struct {
	RenderPass RenderPassID
	Attachment ImageViewID
	Extent     Extent2D
}

// DescriptorBinding is one binding of a descriptor set layout.
type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Stages  gputypes.ShaderStage
}

// DescriptorPoolSize is the number of descriptors of one type in a pool.
type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

// DescriptorPoolDescriptor describes a descriptor pool.
type DescriptorPoolDescriptor struct {
	MaxSets uint32
	Sizes   []DescriptorPoolSize
}

// DescriptorWrite updates one binding of a descriptor set.
//
// For DescriptorTypeCombinedImageSampler, Sampler, View and Layout are used.
// For DescriptorTypeUniformBuffer, Buffer, Offset and Range are used.
type DescriptorWrite struct {
	Set     DescriptorSetID
	Binding uint32
	Type    DescriptorType

	Sampler SamplerID
	View    ImageViewID
	Layout  ImageLayout

	Buffer BufferID
	Offset uint64
	Range  uint64
}

// GraphicsPipelineDescriptor describes a graphics pipeline without vertex
// input, depth or stencil state. Viewport and scissor are static and cover
// Viewport from the origin.
type GraphicsPipelineDescriptor struct {
	Layout         PipelineLayoutID
	RenderPass     RenderPassID
	VertexShader   ShaderModuleID
	FragmentShader ShaderModuleID
	EntryPoint     string

	Topology  gputypes.PrimitiveTopology
	Viewport  Extent2D
	CullMode  gputypes.CullMode
	FrontFace gputypes.FrontFace
	Samples   uint32

	BlendEnabled bool
	WriteMask    gputypes.ColorWriteMask
}

// ImageBarrier is a layout transition of a whole color image.
type ImageBarrier struct {
	Image     ImageID
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcAccess Access
	DstAccess Access
	SrcStage  PipelineStage
	DstStage  PipelineStage
}

// BufferImageCopy copies tightly packed buffer contents into a whole image.
type BufferImageCopy struct {
	Buffer BufferID
	Image  ImageID
	Layout ImageLayout
	Width  uint32
	Height uint32
}

// RenderPassBegin begins a render pass over the whole framebuffer with
// inline subpass contents.
type RenderPassBegin struct {
	RenderPass  RenderPassID
	Framebuffer FramebufferID
	Extent      Extent2D
	ClearColor  gputypes.Color
}

// SubmitInfo is a single queue submission.
//
// CommandBuffer may be InvalidID to submit an empty batch that only waits
// and signals. WaitSemaphore, SignalSemaphore and Fence are optional.
type SubmitInfo struct {
	CommandBuffer   CommandBufferID
	WaitSemaphore   SemaphoreID
	WaitStage       PipelineStage
	SignalSemaphore SemaphoreID
	Fence           FenceID
}
