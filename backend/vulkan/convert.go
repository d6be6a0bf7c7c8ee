package vulkan

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/vulkan/vk"
)

// check maps a Vulkan result to an error. Results that mean the swapchain
// must be rebuilt wrap gpucore.ErrOutOfDate or gpucore.ErrSuboptimal.
func check(op string, r vk.Result) error {
	switch r {
	case vk.Success:
		return nil
	case vk.SuboptimalKhr:
		return fmt.Errorf("vulkan: %s: %w", op, gpucore.ErrSuboptimal)
	case vk.ErrorOutOfDateKhr, vk.ErrorSurfaceLostKhr:
		return fmt.Errorf("vulkan: %s: %w", op, gpucore.ErrOutOfDate)
	case vk.ErrorDeviceLost:
		return fmt.Errorf("vulkan: %s: %w", op, gpucore.ErrDeviceLost)
	default:
		return &gpucore.ResultError{Op: op, Code: int32(r)}
	}
}

// ptrFromUintptr converts an address returned by the driver to *byte
// without tripping go vet.
func ptrFromUintptr(ptr uintptr) *byte {
	return *(**byte)(unsafe.Pointer(&ptr))
}

func formatToVk(format gputypes.TextureFormat) vk.Format {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return vk.FormatR8g8b8a8Srgb
	case gputypes.TextureFormatBGRA8Unorm:
		return vk.FormatB8g8r8a8Unorm
	default:
		return vk.FormatUndefined
	}
}

func textureUsageToVk(usage gputypes.TextureUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlags
	if usage&gputypes.TextureUsageCopySrc != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}
	if usage&gputypes.TextureUsageCopyDst != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	if usage&gputypes.TextureUsageTextureBinding != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if usage&gputypes.TextureUsageRenderAttachment != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	return flags
}

func bufferUsageToVk(usage gputypes.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlags
	if usage&gputypes.BufferUsageCopySrc != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	if usage&gputypes.BufferUsageCopyDst != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	if usage&gputypes.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	return flags
}

func layoutToVk(layout gpucore.ImageLayout) vk.ImageLayout {
	switch layout {
	case gpucore.ImageLayoutTransferDst:
		return vk.ImageLayoutTransferDstOptimal
	case gpucore.ImageLayoutShaderReadOnly:
		return vk.ImageLayoutShaderReadOnlyOptimal
	case gpucore.ImageLayoutColorAttachment:
		return vk.ImageLayoutColorAttachmentOptimal
	case gpucore.ImageLayoutPresentSrc:
		return vk.ImageLayoutPresentSrcKhr
	default:
		return vk.ImageLayoutUndefined
	}
}

func stageToVk(stage gpucore.PipelineStage) vk.PipelineStageFlags {
	var flags vk.PipelineStageFlags
	if stage&gpucore.PipelineStageTopOfPipe != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}
	if stage&gpucore.PipelineStageTransfer != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	}
	if stage&gpucore.PipelineStageFragmentShader != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	}
	if stage&gpucore.PipelineStageColorAttachmentOutput != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}
	return flags
}

func accessToVk(access gpucore.Access) vk.AccessFlags {
	var flags vk.AccessFlags
	if access&gpucore.AccessTransferWrite != 0 {
		flags |= vk.AccessFlags(vk.AccessTransferWriteBit)
	}
	if access&gpucore.AccessShaderRead != 0 {
		flags |= vk.AccessFlags(vk.AccessShaderReadBit)
	}
	if access&gpucore.AccessColorAttachmentWrite != 0 {
		flags |= vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	}
	return flags
}

func descriptorTypeToVk(t gpucore.DescriptorType) (vk.DescriptorType, error) {
	switch t {
	case gpucore.DescriptorTypeCombinedImageSampler:
		return vk.DescriptorTypeCombinedImageSampler, nil
	case gpucore.DescriptorTypeUniformBuffer:
		return vk.DescriptorTypeUniformBuffer, nil
	default:
		return 0, fmt.Errorf("vulkan: unsupported descriptor type %s", t)
	}
}

func shaderStagesToVk(stages gputypes.ShaderStage) vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	if stages&gputypes.ShaderStageVertex != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	if stages&gputypes.ShaderStageFragment != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
	return flags
}

func filterToVk(mode gputypes.FilterMode) vk.Filter {
	if mode == gputypes.FilterModeLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

func addressModeToVk(mode gputypes.AddressMode) vk.SamplerAddressMode {
	switch mode {
	case gputypes.AddressModeRepeat:
		return vk.SamplerAddressModeRepeat
	case gputypes.AddressModeMirrorRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	default:
		return vk.SamplerAddressModeClampToEdge
	}
}

func loadOpToVk(op gputypes.LoadOp) vk.AttachmentLoadOp {
	switch op {
	case gputypes.LoadOpClear:
		return vk.AttachmentLoadOpClear
	case gputypes.LoadOpLoad:
		return vk.AttachmentLoadOpLoad
	default:
		return vk.AttachmentLoadOpDontCare
	}
}

func storeOpToVk(op gputypes.StoreOp) vk.AttachmentStoreOp {
	if op == gputypes.StoreOpStore {
		return vk.AttachmentStoreOpStore
	}
	return vk.AttachmentStoreOpDontCare
}

func topologyToVk(t gputypes.PrimitiveTopology) vk.PrimitiveTopology {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return vk.PrimitiveTopologyPointList
	case gputypes.PrimitiveTopologyLineList:
		return vk.PrimitiveTopologyLineList
	case gputypes.PrimitiveTopologyLineStrip:
		return vk.PrimitiveTopologyLineStrip
	case gputypes.PrimitiveTopologyTriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	default:
		return vk.PrimitiveTopologyTriangleList
	}
}

func cullModeToVk(mode gputypes.CullMode) vk.CullModeFlags {
	switch mode {
	case gputypes.CullModeFront:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	case gputypes.CullModeBack:
		return vk.CullModeFlags(vk.CullModeBackBit)
	default:
		return vk.CullModeFlags(vk.CullModeNone)
	}
}

func frontFaceToVk(face gputypes.FrontFace) vk.FrontFace {
	if face == gputypes.FrontFaceCW {
		return vk.FrontFaceClockwise
	}
	return vk.FrontFaceCounterClockwise
}

func colorWriteMaskToVk(mask gputypes.ColorWriteMask) vk.ColorComponentFlags {
	var flags vk.ColorComponentFlags
	if mask&gputypes.ColorWriteMaskRed != 0 {
		flags |= vk.ColorComponentFlags(vk.ColorComponentRBit)
	}
	if mask&gputypes.ColorWriteMaskGreen != 0 {
		flags |= vk.ColorComponentFlags(vk.ColorComponentGBit)
	}
	if mask&gputypes.ColorWriteMaskBlue != 0 {
		flags |= vk.ColorComponentFlags(vk.ColorComponentBBit)
	}
	if mask&gputypes.ColorWriteMaskAlpha != 0 {
		flags |= vk.ColorComponentFlags(vk.ColorComponentABit)
	}
	return flags
}

func presentModeToVk(mode gputypes.PresentMode) vk.PresentModeKHR {
	switch mode {
	case gputypes.PresentModeImmediate:
		return vk.PresentModeImmediateKhr
	case gputypes.PresentModeMailbox:
		return vk.PresentModeMailboxKhr
	case gputypes.PresentModeFifoRelaxed:
		return vk.PresentModeFifoRelaxedKhr
	default:
		return vk.PresentModeFifoKhr
	}
}

func compositeAlphaToVk(a gpucore.CompositeAlpha) vk.CompositeAlphaFlagBitsKHR {
	if a == gpucore.CompositeAlphaInherit {
		return vk.CompositeAlphaInheritBitKhr
	}
	return vk.CompositeAlphaOpaqueBitKhr
}

func bool32(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
