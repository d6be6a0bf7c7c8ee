package vulkan

import (
	"errors"
	"testing"

	"github.com/gogpu/depthflow/backend"
	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/vulkan/vk"
)

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendVulkan) {
		t.Fatal("vulkan backend not registered on import")
	}
	b := backend.Get(backend.BackendVulkan)
	if b == nil || b.Name() != backend.BackendVulkan {
		t.Fatalf("Get(%q) = %v", backend.BackendVulkan, b)
	}
}

func TestOpenUnsupportedWindow(t *testing.T) {
	tests := []struct {
		name   string
		window gpucore.Window
	}{
		{"nil", nil},
		{"headless", gpucore.HeadlessWindow{Width: 64, Height: 64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := Backend{}.Open(tt.window)
			if dev != nil {
				t.Errorf("Open returned a device")
			}
			if !errors.Is(err, gpucore.ErrUnsupportedWindow) {
				t.Errorf("Open error = %v, want ErrUnsupportedWindow", err)
			}
		})
	}
}

func TestSurfaceExtension(t *testing.T) {
	tests := []struct {
		window gpucore.Window
		want   string
	}{
		{gpucore.AndroidWindow{}, "VK_KHR_android_surface\x00"},
		{gpucore.XlibWindow{}, "VK_KHR_xlib_surface\x00"},
		{gpucore.WaylandWindow{}, "VK_KHR_wayland_surface\x00"},
		{gpucore.Win32Window{}, "VK_KHR_win32_surface\x00"},
	}
	for _, tt := range tests {
		got, err := surfaceExtension(tt.window)
		if err != nil {
			t.Errorf("surfaceExtension(%s) error: %v", tt.window.Platform(), err)
			continue
		}
		if got != tt.want {
			t.Errorf("surfaceExtension(%s) = %q, want %q", tt.window.Platform(), got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		result vk.Result
		want   error
	}{
		{"suboptimal", vk.SuboptimalKhr, gpucore.ErrSuboptimal},
		{"out of date", vk.ErrorOutOfDateKhr, gpucore.ErrOutOfDate},
		{"surface lost", vk.ErrorSurfaceLostKhr, gpucore.ErrOutOfDate},
		{"device lost", vk.ErrorDeviceLost, gpucore.ErrDeviceLost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := check("op", tt.result)
			if !errors.Is(err, tt.want) {
				t.Errorf("check(%d) = %v, want %v", tt.result, err, tt.want)
			}
		})
	}

	if err := check("op", vk.Success); err != nil {
		t.Errorf("check(Success) = %v", err)
	}

	err := check("vkCreateBuffer", vk.ErrorOutOfDeviceMemory)
	var re *gpucore.ResultError
	if !errors.As(err, &re) {
		t.Fatalf("check(OutOfDeviceMemory) = %T, want *gpucore.ResultError", err)
	}
	if re.Op != "vkCreateBuffer" || re.Code != int32(vk.ErrorOutOfDeviceMemory) {
		t.Errorf("ResultError = %+v", re)
	}
	if gpucore.IsSwapchainStale(err) {
		t.Error("out of memory reported as stale swapchain")
	}
}

func TestFormatToVk(t *testing.T) {
	tests := []struct {
		in   gputypes.TextureFormat
		want vk.Format
	}{
		{gputypes.TextureFormatRGBA8Unorm, vk.FormatR8g8b8a8Unorm},
		{gputypes.TextureFormatRGBA8UnormSrgb, vk.FormatR8g8b8a8Srgb},
		{gputypes.TextureFormatBGRA8Unorm, vk.FormatB8g8r8a8Unorm},
		{gputypes.TextureFormatUndefined, vk.FormatUndefined},
	}
	for _, tt := range tests {
		if got := formatToVk(tt.in); got != tt.want {
			t.Errorf("formatToVk(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUsageToVk(t *testing.T) {
	img := textureUsageToVk(gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding)
	want := vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) | vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	if img != want {
		t.Errorf("textureUsageToVk = %#x, want %#x", img, want)
	}
	if got := textureUsageToVk(gputypes.TextureUsageRenderAttachment); got != vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) {
		t.Errorf("textureUsageToVk(RenderAttachment) = %#x", got)
	}

	buf := bufferUsageToVk(gputypes.BufferUsageUniform | gputypes.BufferUsageCopySrc)
	wantBuf := vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit) | vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	if buf != wantBuf {
		t.Errorf("bufferUsageToVk = %#x, want %#x", buf, wantBuf)
	}
}

func TestLayoutToVk(t *testing.T) {
	tests := []struct {
		in   gpucore.ImageLayout
		want vk.ImageLayout
	}{
		{gpucore.ImageLayoutUndefined, vk.ImageLayoutUndefined},
		{gpucore.ImageLayoutTransferDst, vk.ImageLayoutTransferDstOptimal},
		{gpucore.ImageLayoutShaderReadOnly, vk.ImageLayoutShaderReadOnlyOptimal},
		{gpucore.ImageLayoutColorAttachment, vk.ImageLayoutColorAttachmentOptimal},
		{gpucore.ImageLayoutPresentSrc, vk.ImageLayoutPresentSrcKhr},
	}
	for _, tt := range tests {
		if got := layoutToVk(tt.in); got != tt.want {
			t.Errorf("layoutToVk(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBarrierMasks(t *testing.T) {
	stages := stageToVk(gpucore.PipelineStageTransfer | gpucore.PipelineStageFragmentShader)
	want := vk.PipelineStageFlags(vk.PipelineStageTransferBit) | vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	if stages != want {
		t.Errorf("stageToVk = %#x, want %#x", stages, want)
	}
	if got := stageToVk(gpucore.PipelineStageTopOfPipe); got != vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit) {
		t.Errorf("stageToVk(TopOfPipe) = %#x", got)
	}
	if got := accessToVk(0); got != 0 {
		t.Errorf("accessToVk(0) = %#x", got)
	}
	if got := accessToVk(gpucore.AccessShaderRead); got != vk.AccessFlags(vk.AccessShaderReadBit) {
		t.Errorf("accessToVk(ShaderRead) = %#x", got)
	}
}

func TestDescriptorTypeToVk(t *testing.T) {
	got, err := descriptorTypeToVk(gpucore.DescriptorTypeCombinedImageSampler)
	if err != nil || got != vk.DescriptorTypeCombinedImageSampler {
		t.Errorf("CombinedImageSampler = %d, %v", got, err)
	}
	got, err = descriptorTypeToVk(gpucore.DescriptorTypeUniformBuffer)
	if err != nil || got != vk.DescriptorTypeUniformBuffer {
		t.Errorf("UniformBuffer = %d, %v", got, err)
	}
	if _, err := descriptorTypeToVk(gpucore.DescriptorType(99)); err == nil {
		t.Error("unknown descriptor type accepted")
	}
}

func TestPipelineStateToVk(t *testing.T) {
	if got := topologyToVk(gputypes.PrimitiveTopologyTriangleList); got != vk.PrimitiveTopologyTriangleList {
		t.Errorf("topologyToVk(TriangleList) = %d", got)
	}
	if got := cullModeToVk(gputypes.CullModeBack); got != vk.CullModeFlags(vk.CullModeBackBit) {
		t.Errorf("cullModeToVk(Back) = %d", got)
	}
	if got := cullModeToVk(gputypes.CullModeNone); got != 0 {
		t.Errorf("cullModeToVk(None) = %d", got)
	}
	if got := frontFaceToVk(gputypes.FrontFaceCW); got != vk.FrontFaceClockwise {
		t.Errorf("frontFaceToVk(CW) = %d", got)
	}
	if got := frontFaceToVk(gputypes.FrontFaceCCW); got != vk.FrontFaceCounterClockwise {
		t.Errorf("frontFaceToVk(CCW) = %d", got)
	}
	all := colorWriteMaskToVk(gputypes.ColorWriteMaskAll)
	wantAll := vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit)
	if all != wantAll {
		t.Errorf("colorWriteMaskToVk(All) = %#x, want %#x", all, wantAll)
	}
	if got := loadOpToVk(gputypes.LoadOpClear); got != vk.AttachmentLoadOpClear {
		t.Errorf("loadOpToVk(Clear) = %d", got)
	}
	if got := storeOpToVk(gputypes.StoreOpStore); got != vk.AttachmentStoreOpStore {
		t.Errorf("storeOpToVk(Store) = %d", got)
	}
}

func TestSamplerToVk(t *testing.T) {
	if got := filterToVk(gputypes.FilterModeLinear); got != vk.FilterLinear {
		t.Errorf("filterToVk(Linear) = %d", got)
	}
	if got := filterToVk(gputypes.FilterModeNearest); got != vk.FilterNearest {
		t.Errorf("filterToVk(Nearest) = %d", got)
	}
	if got := addressModeToVk(gputypes.AddressModeRepeat); got != vk.SamplerAddressModeRepeat {
		t.Errorf("addressModeToVk(Repeat) = %d", got)
	}
	if got := addressModeToVk(gputypes.AddressModeClampToEdge); got != vk.SamplerAddressModeClampToEdge {
		t.Errorf("addressModeToVk(ClampToEdge) = %d", got)
	}
}

func TestSwapchainToVk(t *testing.T) {
	if got := presentModeToVk(gputypes.PresentModeFifo); got != vk.PresentModeFifoKhr {
		t.Errorf("presentModeToVk(Fifo) = %d", got)
	}
	if got := presentModeToVk(gputypes.PresentModeMailbox); got != vk.PresentModeMailboxKhr {
		t.Errorf("presentModeToVk(Mailbox) = %d", got)
	}
	if got := compositeAlphaToVk(gpucore.CompositeAlphaInherit); got != vk.CompositeAlphaInheritBitKhr {
		t.Errorf("compositeAlphaToVk(Inherit) = %d", got)
	}
	if got := compositeAlphaToVk(gpucore.CompositeAlphaOpaque); got != vk.CompositeAlphaOpaqueBitKhr {
		t.Errorf("compositeAlphaToVk(Opaque) = %d", got)
	}
}

func TestSampleCount(t *testing.T) {
	tests := []struct {
		in   uint32
		want vk.SampleCountFlagBits
	}{
		{0, vk.SampleCount1Bit},
		{1, vk.SampleCount1Bit},
		{3, vk.SampleCount1Bit},
		{4, vk.SampleCountFlagBits(4)},
	}
	for _, tt := range tests {
		if got := sampleCount(tt.in); got != tt.want {
			t.Errorf("sampleCount(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHelpers(t *testing.T) {
	if got := makeVersion(1, 2, 3); got != 1<<22|2<<12|3 {
		t.Errorf("makeVersion(1, 2, 3) = %#x", got)
	}
	if got := cString([]byte{'g', 'p', 'u', 0, 'x'}); got != "gpu" {
		t.Errorf("cString = %q, want %q", got, "gpu")
	}
	if got := cString([]byte("full")); got != "full" {
		t.Errorf("cString without NUL = %q", got)
	}
	if bool32(true) != vk.True || bool32(false) != vk.False {
		t.Error("bool32 mismatch")
	}
	if got := adapterType(vk.PhysicalDeviceTypeDiscreteGpu); got != gpucontext.AdapterTypeDiscrete {
		t.Errorf("adapterType(Discrete) = %v", got)
	}
	if got := adapterType(vk.PhysicalDeviceTypeCpu); got != gpucontext.AdapterTypeSoftware {
		t.Errorf("adapterType(Cpu) = %v", got)
	}
}

func TestMemoryTypes(t *testing.T) {
	var props vk.PhysicalDeviceMemoryProperties
	props.MemoryTypeCount = 2
	props.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	props.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	props.MemoryTypes[1].HeapIndex = 1

	types := memoryTypes(&props)
	if len(types) != 2 {
		t.Fatalf("len = %d, want 2", len(types))
	}
	idx, ok := gpucore.FindMemoryType(types, 0b11, gpucore.MemoryPropertyHostVisible|gpucore.MemoryPropertyHostCoherent)
	if !ok || idx != 1 {
		t.Errorf("FindMemoryType = %d, %v, want 1, true", idx, ok)
	}
	if types[1].HeapIndex != 1 {
		t.Errorf("HeapIndex = %d", types[1].HeapIndex)
	}
}
