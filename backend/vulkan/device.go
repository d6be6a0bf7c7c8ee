package vulkan

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal/vulkan/vk"
)

// noTimeout makes fence and acquire waits block indefinitely.
const noTimeout = ^uint64(0)

// Device implements gpucore.Device on a Vulkan logical device. Resource
// IDs are the native handles.
type Device struct {
	// cmds holds global and instance commands, dcmds device commands.
	cmds  *vk.Commands
	dcmds vk.Commands

	instance vk.Instance
	surface  vk.SurfaceKHR
	physical vk.PhysicalDevice
	info     gpucontext.AdapterInfo
	memTypes []gpucore.MemoryType
	family   uint32

	handle vk.Device
	queue  vk.Queue
}

var _ gpucore.Device = (*Device)(nil)

// Info implements gpucore.Device.
func (d *Device) Info() gpucontext.AdapterInfo { return d.info }

// MemoryTypes implements gpucore.Device.
func (d *Device) MemoryTypes() []gpucore.MemoryType { return d.memTypes }

// SurfaceCapabilities implements gpucore.Device.
func (d *Device) SurfaceCapabilities() (gpucore.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilitiesKHR
	if err := check("vkGetPhysicalDeviceSurfaceCapabilitiesKHR",
		d.cmds.GetPhysicalDeviceSurfaceCapabilitiesKHR(d.physical, d.surface, &caps)); err != nil {
		return gpucore.SurfaceCapabilities{}, err
	}
	return gpucore.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    gpucore.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		CurrentTransform: gpucore.SurfaceTransform(caps.CurrentTransform),
	}, nil
}

// CreateSwapchain implements gpucore.Device.
func (d *Device) CreateSwapchain(desc *gpucore.SwapchainDescriptor) (gpucore.SwapchainID, error) {
	ci := vk.SwapchainCreateInfoKHR{
		SType:            vk.StructureTypeSwapchainCreateInfoKhr,
		Surface:          d.surface,
		MinImageCount:    desc.MinImageCount,
		ImageFormat:      formatToVk(desc.Format),
		ImageColorSpace:  vk.ColorSpaceSrgbNonlinearKhr,
		ImageExtent:      vk.Extent2D{Width: desc.Extent.Width, Height: desc.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       textureUsageToVk(desc.Usage),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBitsKHR(desc.PreTransform),
		CompositeAlpha:   compositeAlphaToVk(desc.CompositeAlpha),
		PresentMode:      presentModeToVk(desc.PresentMode),
		Clipped:          bool32(desc.Clipped),
	}
	var sc vk.SwapchainKHR
	if err := check("vkCreateSwapchainKHR", d.dcmds.CreateSwapchainKHR(d.handle, &ci, nil, &sc)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.SwapchainID(sc), nil
}

// SwapchainImages implements gpucore.Device.
func (d *Device) SwapchainImages(swapchain gpucore.SwapchainID) ([]gpucore.ImageID, error) {
	sc := vk.SwapchainKHR(swapchain)
	var count uint32
	if err := check("vkGetSwapchainImagesKHR", d.dcmds.GetSwapchainImagesKHR(d.handle, sc, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.New("vulkan: swapchain has no images")
	}
	images := make([]vk.Image, count)
	result := d.dcmds.GetSwapchainImagesKHR(d.handle, sc, &count, &images[0])
	if result != vk.Success && result != vk.Incomplete {
		return nil, check("vkGetSwapchainImagesKHR", result)
	}
	ids := make([]gpucore.ImageID, count)
	for i := range ids {
		ids[i] = gpucore.ImageID(images[i])
	}
	return ids, nil
}

// DestroySwapchain implements gpucore.Device.
func (d *Device) DestroySwapchain(swapchain gpucore.SwapchainID) {
	if swapchain == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroySwapchainKHR(d.handle, vk.SwapchainKHR(swapchain), nil)
}

// AcquireNextImage implements gpucore.Device.
func (d *Device) AcquireNextImage(swapchain gpucore.SwapchainID, signal gpucore.SemaphoreID) (uint32, error) {
	var index uint32
	result := d.dcmds.AcquireNextImageKHR(d.handle, vk.SwapchainKHR(swapchain), noTimeout,
		vk.Semaphore(signal), 0, &index)
	return index, check("vkAcquireNextImageKHR", result)
}

// Present implements gpucore.Device.
func (d *Device) Present(swapchain gpucore.SwapchainID, index uint32, wait gpucore.SemaphoreID) error {
	sc := vk.SwapchainKHR(swapchain)
	sem := vk.Semaphore(wait)
	pi := vk.PresentInfoKHR{
		SType:          vk.StructureTypePresentInfoKhr,
		SwapchainCount: 1,
		PSwapchains:    &sc,
		PImageIndices:  &index,
	}
	if wait != gpucore.InvalidID {
		pi.WaitSemaphoreCount = 1
		pi.PWaitSemaphores = &sem
	}
	return check("vkQueuePresentKHR", d.dcmds.QueuePresentKHR(d.queue, &pi))
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDescriptor) (gpucore.BufferID, error) {
	ci := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.Size),
		Usage:       bufferUsageToVk(desc.Usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if err := check("vkCreateBuffer", d.dcmds.CreateBuffer(d.handle, &ci, nil, &buf)); err != nil {
		return gpucore.InvalidID, fmt.Errorf("%s: %w", desc.Label, err)
	}
	return gpucore.BufferID(buf), nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(buffer gpucore.BufferID) {
	if buffer == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyBuffer(d.handle, vk.Buffer(buffer), nil)
}

// BufferMemoryRequirements implements gpucore.Device.
func (d *Device) BufferMemoryRequirements(buffer gpucore.BufferID) gpucore.MemoryRequirements {
	var req vk.MemoryRequirements
	d.dcmds.GetBufferMemoryRequirements(d.handle, vk.Buffer(buffer), &req)
	return memoryRequirements(&req)
}

// CreateImage implements gpucore.Device.
func (d *Device) CreateImage(desc *gpucore.ImageDescriptor) (gpucore.ImageID, error) {
	ci := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        formatToVk(desc.Format),
		Extent:        vk.Extent3D{Width: desc.Width, Height: desc.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         textureUsageToVk(desc.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var img vk.Image
	if err := check("vkCreateImage", d.dcmds.CreateImage(d.handle, &ci, nil, &img)); err != nil {
		return gpucore.InvalidID, fmt.Errorf("%s: %w", desc.Label, err)
	}
	return gpucore.ImageID(img), nil
}

// DestroyImage implements gpucore.Device.
func (d *Device) DestroyImage(image gpucore.ImageID) {
	if image == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyImage(d.handle, vk.Image(image), nil)
}

// ImageMemoryRequirements implements gpucore.Device.
func (d *Device) ImageMemoryRequirements(image gpucore.ImageID) gpucore.MemoryRequirements {
	var req vk.MemoryRequirements
	d.dcmds.GetImageMemoryRequirements(d.handle, vk.Image(image), &req)
	return memoryRequirements(&req)
}

func memoryRequirements(req *vk.MemoryRequirements) gpucore.MemoryRequirements {
	return gpucore.MemoryRequirements{
		Size:      uint64(req.Size),
		Alignment: uint64(req.Alignment),
		TypeBits:  req.MemoryTypeBits,
	}
}

// AllocateMemory implements gpucore.Device.
func (d *Device) AllocateMemory(size uint64, typeIndex uint32) (gpucore.MemoryID, error) {
	ai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}
	var mem vk.DeviceMemory
	if err := check("vkAllocateMemory", d.dcmds.AllocateMemory(d.handle, &ai, nil, &mem)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.MemoryID(mem), nil
}

// FreeMemory implements gpucore.Device.
func (d *Device) FreeMemory(memory gpucore.MemoryID) {
	if memory == gpucore.InvalidID {
		return
	}
	d.dcmds.FreeMemory(d.handle, vk.DeviceMemory(memory), nil)
}

// BindBufferMemory implements gpucore.Device.
func (d *Device) BindBufferMemory(buffer gpucore.BufferID, memory gpucore.MemoryID) error {
	return check("vkBindBufferMemory",
		d.dcmds.BindBufferMemory(d.handle, vk.Buffer(buffer), vk.DeviceMemory(memory), 0))
}

// BindImageMemory implements gpucore.Device.
func (d *Device) BindImageMemory(image gpucore.ImageID, memory gpucore.MemoryID) error {
	return check("vkBindImageMemory",
		d.dcmds.BindImageMemory(d.handle, vk.Image(image), vk.DeviceMemory(memory), 0))
}

// MapMemory implements gpucore.Device.
func (d *Device) MapMemory(memory gpucore.MemoryID, offset, size uint64) ([]byte, error) {
	var mapped uintptr
	result := d.dcmds.MapMemory(d.handle, vk.DeviceMemory(memory), vk.DeviceSize(offset),
		vk.DeviceSize(size), 0, uintptr(unsafe.Pointer(&mapped)))
	if err := check("vkMapMemory", result); err != nil {
		return nil, err
	}
	if mapped == 0 {
		return nil, errors.New("vulkan: vkMapMemory returned a null pointer")
	}
	return unsafe.Slice(ptrFromUintptr(mapped), size), nil
}

// UnmapMemory implements gpucore.Device.
func (d *Device) UnmapMemory(memory gpucore.MemoryID) {
	d.dcmds.UnmapMemory(d.handle, vk.DeviceMemory(memory))
}

// colorRange covers the single mip and layer of a color image.
var colorRange = vk.ImageSubresourceRange{
	AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	LevelCount: 1,
	LayerCount: 1,
}

// CreateImageView implements gpucore.Device.
func (d *Device) CreateImageView(desc *gpucore.ImageViewDescriptor) (gpucore.ImageViewID, error) {
	ci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vk.Image(desc.Image),
		ViewType: vk.ImageViewType2d,
		Format:   formatToVk(desc.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorRange,
	}
	var view vk.ImageView
	if err := check("vkCreateImageView", d.dcmds.CreateImageView(d.handle, &ci, nil, &view)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.ImageViewID(view), nil
}

// DestroyImageView implements gpucore.Device.
func (d *Device) DestroyImageView(view gpucore.ImageViewID) {
	if view == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyImageView(d.handle, vk.ImageView(view), nil)
}

// CreateSampler implements gpucore.Device.
func (d *Device) CreateSampler(desc *gpucore.SamplerDescriptor) (gpucore.SamplerID, error) {
	mode := addressModeToVk(desc.AddressMode)
	ci := vk.SamplerCreateInfo{
		SType:         vk.StructureTypeSamplerCreateInfo,
		MagFilter:     filterToVk(desc.MagFilter),
		MinFilter:     filterToVk(desc.MinFilter),
		MipmapMode:    vk.SamplerMipmapModeNearest,
		AddressModeU:  mode,
		AddressModeV:  mode,
		AddressModeW:  mode,
		MaxAnisotropy: 1,
		CompareOp:     vk.CompareOpAlways,
		BorderColor:   vk.BorderColorIntOpaqueBlack,
	}
	var s vk.Sampler
	if err := check("vkCreateSampler", d.dcmds.CreateSampler(d.handle, &ci, nil, &s)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.SamplerID(s), nil
}

// DestroySampler implements gpucore.Device.
func (d *Device) DestroySampler(sampler gpucore.SamplerID) {
	if sampler == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroySampler(d.handle, vk.Sampler(sampler), nil)
}

// CreateRenderPass implements gpucore.Device. The single subpass waits
// for the acquired image at the color output stage.
func (d *Device) CreateRenderPass(desc *gpucore.RenderPassDescriptor) (gpucore.RenderPassID, error) {
	attachment := vk.AttachmentDescription{
		Format:         formatToVk(desc.Format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         loadOpToVk(desc.LoadOp),
		StoreOp:        storeOpToVk(desc.StoreOp),
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  layoutToVk(desc.InitialLayout),
		FinalLayout:    layoutToVk(desc.FinalLayout),
	}
	colorRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    &colorRef,
	}
	output := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  output,
		DstStageMask:  output,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}
	ci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    &attachment,
		SubpassCount:    1,
		PSubpasses:      &subpass,
		DependencyCount: 1,
		PDependencies:   &dependency,
	}
	var pass vk.RenderPass
	if err := check("vkCreateRenderPass", d.dcmds.CreateRenderPass(d.handle, &ci, nil, &pass)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.RenderPassID(pass), nil
}

// DestroyRenderPass implements gpucore.Device.
func (d *Device) DestroyRenderPass(pass gpucore.RenderPassID) {
	if pass == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyRenderPass(d.handle, vk.RenderPass(pass), nil)
}

// CreateFramebuffer implements gpucore.Device.
func (d *Device) CreateFramebuffer(desc *gpucore.FramebufferDescriptor) (gpucore.FramebufferID, error) {
	view := vk.ImageView(desc.Attachment)
	ci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      vk.RenderPass(desc.RenderPass),
		AttachmentCount: 1,
		PAttachments:    &view,
		Width:           desc.Extent.Width,
		Height:          desc.Extent.Height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if err := check("vkCreateFramebuffer", d.dcmds.CreateFramebuffer(d.handle, &ci, nil, &fb)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.FramebufferID(fb), nil
}

// DestroyFramebuffer implements gpucore.Device.
func (d *Device) DestroyFramebuffer(fb gpucore.FramebufferID) {
	if fb == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyFramebuffer(d.handle, vk.Framebuffer(fb), nil)
}

// CreateShaderModule implements gpucore.Device.
func (d *Device) CreateShaderModule(code []byte) (gpucore.ShaderModuleID, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return gpucore.InvalidID, fmt.Errorf("vulkan: SPIR-V size %d is not a positive multiple of 4", len(code))
	}
	// Copy into a word slice so the driver sees 4-byte aligned code.
	words := make([]uint32, len(code)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(code)), code)

	ci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uintptr(len(code)),
		PCode:    &words[0],
	}
	var module vk.ShaderModule
	result := d.dcmds.CreateShaderModule(d.handle, &ci, nil, &module)
	runtime.KeepAlive(words)
	if err := check("vkCreateShaderModule", result); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.ShaderModuleID(module), nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(module gpucore.ShaderModuleID) {
	if module == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyShaderModule(d.handle, vk.ShaderModule(module), nil)
}

// CreateDescriptorSetLayout implements gpucore.Device.
func (d *Device) CreateDescriptorSetLayout(bindings []gpucore.DescriptorBinding) (gpucore.DescriptorSetLayoutID, error) {
	if len(bindings) == 0 {
		return gpucore.InvalidID, errors.New("vulkan: descriptor set layout without bindings")
	}
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		t, err := descriptorTypeToVk(b.Type)
		if err != nil {
			return gpucore.InvalidID, err
		}
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  t,
			DescriptorCount: 1,
			StageFlags:      shaderStagesToVk(b.Stages),
		}
	}
	ci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    &vkBindings[0],
	}
	var layout vk.DescriptorSetLayout
	result := d.dcmds.CreateDescriptorSetLayout(d.handle, &ci, nil, &layout)
	runtime.KeepAlive(vkBindings)
	if err := check("vkCreateDescriptorSetLayout", result); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.DescriptorSetLayoutID(layout), nil
}

// DestroyDescriptorSetLayout implements gpucore.Device.
func (d *Device) DestroyDescriptorSetLayout(layout gpucore.DescriptorSetLayoutID) {
	if layout == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyDescriptorSetLayout(d.handle, vk.DescriptorSetLayout(layout), nil)
}

// CreateDescriptorPool implements gpucore.Device.
func (d *Device) CreateDescriptorPool(desc *gpucore.DescriptorPoolDescriptor) (gpucore.DescriptorPoolID, error) {
	if len(desc.Sizes) == 0 {
		return gpucore.InvalidID, errors.New("vulkan: descriptor pool without sizes")
	}
	sizes := make([]vk.DescriptorPoolSize, len(desc.Sizes))
	for i, s := range desc.Sizes {
		t, err := descriptorTypeToVk(s.Type)
		if err != nil {
			return gpucore.InvalidID, err
		}
		sizes[i] = vk.DescriptorPoolSize{Type: t, DescriptorCount: s.Count}
	}
	ci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       desc.MaxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    &sizes[0],
	}
	var pool vk.DescriptorPool
	result := d.dcmds.CreateDescriptorPool(d.handle, &ci, nil, &pool)
	runtime.KeepAlive(sizes)
	if err := check("vkCreateDescriptorPool", result); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.DescriptorPoolID(pool), nil
}

// DestroyDescriptorPool implements gpucore.Device. Sets allocated from
// the pool are freed with it.
func (d *Device) DestroyDescriptorPool(pool gpucore.DescriptorPoolID) {
	if pool == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyDescriptorPool(d.handle, vk.DescriptorPool(pool), nil)
}

// AllocateDescriptorSet implements gpucore.Device.
func (d *Device) AllocateDescriptorSet(pool gpucore.DescriptorPoolID, layout gpucore.DescriptorSetLayoutID) (gpucore.DescriptorSetID, error) {
	vkLayout := vk.DescriptorSetLayout(layout)
	ai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     vk.DescriptorPool(pool),
		DescriptorSetCount: 1,
		PSetLayouts:        &vkLayout,
	}
	var set vk.DescriptorSet
	if err := check("vkAllocateDescriptorSets", d.dcmds.AllocateDescriptorSets(d.handle, &ai, &set)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.DescriptorSetID(set), nil
}

// UpdateDescriptorSets implements gpucore.Device. Writes with an unknown
// descriptor type are skipped.
func (d *Device) UpdateDescriptorSets(writes []gpucore.DescriptorWrite) {
	if len(writes) == 0 {
		return
	}
	// Info slices are sized up front so element pointers stay valid.
	images := make([]vk.DescriptorImageInfo, 0, len(writes))
	buffers := make([]vk.DescriptorBufferInfo, 0, len(writes))
	vkWrites := make([]vk.WriteDescriptorSet, 0, len(writes))

	for _, w := range writes {
		t, err := descriptorTypeToVk(w.Type)
		if err != nil {
			slogger().Warn("vulkan: skipping descriptor write", "binding", w.Binding, "err", err)
			continue
		}
		vw := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          vk.DescriptorSet(w.Set),
			DstBinding:      w.Binding,
			DescriptorCount: 1,
			DescriptorType:  t,
		}
		switch w.Type {
		case gpucore.DescriptorTypeCombinedImageSampler:
			images = append(images, vk.DescriptorImageInfo{
				Sampler:     vk.Sampler(w.Sampler),
				ImageView:   vk.ImageView(w.View),
				ImageLayout: layoutToVk(w.Layout),
			})
			vw.PImageInfo = &images[len(images)-1]
		case gpucore.DescriptorTypeUniformBuffer:
			buffers = append(buffers, vk.DescriptorBufferInfo{
				Buffer: vk.Buffer(w.Buffer),
				Offset: vk.DeviceSize(w.Offset),
				Range:  vk.DeviceSize(w.Range),
			})
			vw.PBufferInfo = &buffers[len(buffers)-1]
		}
		vkWrites = append(vkWrites, vw)
	}
	if len(vkWrites) == 0 {
		return
	}
	d.dcmds.UpdateDescriptorSets(d.handle, uint32(len(vkWrites)), &vkWrites[0], 0, nil)
	runtime.KeepAlive(images)
	runtime.KeepAlive(buffers)
}

// CreatePipelineLayout implements gpucore.Device.
func (d *Device) CreatePipelineLayout(layouts []gpucore.DescriptorSetLayoutID) (gpucore.PipelineLayoutID, error) {
	ci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	vkLayouts := make([]vk.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		vkLayouts[i] = vk.DescriptorSetLayout(l)
	}
	if len(vkLayouts) > 0 {
		ci.SetLayoutCount = uint32(len(vkLayouts))
		ci.PSetLayouts = &vkLayouts[0]
	}
	var layout vk.PipelineLayout
	result := d.dcmds.CreatePipelineLayout(d.handle, &ci, nil, &layout)
	runtime.KeepAlive(vkLayouts)
	if err := check("vkCreatePipelineLayout", result); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.PipelineLayoutID(layout), nil
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(layout gpucore.PipelineLayoutID) {
	if layout == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyPipelineLayout(d.handle, vk.PipelineLayout(layout), nil)
}

// CreateGraphicsPipeline implements gpucore.Device.
func (d *Device) CreateGraphicsPipeline(desc *gpucore.GraphicsPipelineDescriptor) (gpucore.PipelineID, error) {
	entry := desc.EntryPoint
	if entry == "" {
		entry = "main"
	}
	entryName := entry + "\x00"
	pName := uintptr(unsafe.Pointer(unsafe.StringData(entryName)))

	stages := [2]vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vk.ShaderModule(desc.VertexShader),
			PName:  pName,
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: vk.ShaderModule(desc.FragmentShader),
			PName:  pName,
		},
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: topologyToVk(desc.Topology),
	}
	viewport := vk.Viewport{
		Width:    float32(desc.Viewport.Width),
		Height:   float32(desc.Viewport.Height),
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Extent: vk.Extent2D{Width: desc.Viewport.Width, Height: desc.Viewport.Height},
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    &viewport,
		ScissorCount:  1,
		PScissors:     &scissor,
	}
	rasterization := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    cullModeToVk(desc.CullMode),
		FrontFace:   frontFaceToVk(desc.FrontFace),
		LineWidth:   1,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: sampleCount(desc.Samples),
		MinSampleShading:     1,
	}
	blendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         bool32(desc.BlendEnabled),
		SrcColorBlendFactor: vk.BlendFactorOne,
		DstColorBlendFactor: vk.BlendFactorZero,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask:      colorWriteMaskToVk(desc.WriteMask),
	}
	if desc.BlendEnabled {
		blendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    &blendAttachment,
	}

	ci := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             &stages[0],
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterization,
		PMultisampleState:   &multisample,
		PColorBlendState:    &colorBlend,
		Layout:              vk.PipelineLayout(desc.Layout),
		RenderPass:          vk.RenderPass(desc.RenderPass),
		BasePipelineIndex:   -1,
	}
	var pipeline vk.Pipeline
	result := d.dcmds.CreateGraphicsPipelines(d.handle, 0, 1, &ci, nil, &pipeline)
	runtime.KeepAlive(entryName)
	runtime.KeepAlive(stages)
	if err := check("vkCreateGraphicsPipelines", result); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.PipelineID(pipeline), nil
}

// sampleCount maps a sample count to its flag bit, defaulting to one.
func sampleCount(n uint32) vk.SampleCountFlagBits {
	switch n {
	case 2, 4, 8, 16, 32, 64:
		return vk.SampleCountFlagBits(n)
	default:
		return vk.SampleCount1Bit
	}
}

// DestroyPipeline implements gpucore.Device.
func (d *Device) DestroyPipeline(pipeline gpucore.PipelineID) {
	if pipeline == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyPipeline(d.handle, vk.Pipeline(pipeline), nil)
}

// CreateCommandPool implements gpucore.Device.
func (d *Device) CreateCommandPool(resettable bool) (gpucore.CommandPoolID, error) {
	ci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.family,
	}
	if resettable {
		ci.Flags = vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit)
	}
	var pool vk.CommandPool
	if err := check("vkCreateCommandPool", d.dcmds.CreateCommandPool(d.handle, &ci, nil, &pool)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.CommandPoolID(pool), nil
}

// DestroyCommandPool implements gpucore.Device.
func (d *Device) DestroyCommandPool(pool gpucore.CommandPoolID) {
	if pool == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyCommandPool(d.handle, vk.CommandPool(pool), nil)
}

// AllocateCommandBuffer implements gpucore.Device.
func (d *Device) AllocateCommandBuffer(pool gpucore.CommandPoolID) (gpucore.CommandBufferID, error) {
	ai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        vk.CommandPool(pool),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	var cmd vk.CommandBuffer
	if err := check("vkAllocateCommandBuffers", d.dcmds.AllocateCommandBuffers(d.handle, &ai, &cmd)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.CommandBufferID(cmd), nil
}

// FreeCommandBuffer implements gpucore.Device.
func (d *Device) FreeCommandBuffer(pool gpucore.CommandPoolID, cmd gpucore.CommandBufferID) {
	if cmd == gpucore.InvalidID {
		return
	}
	buf := vk.CommandBuffer(cmd)
	d.dcmds.FreeCommandBuffers(d.handle, vk.CommandPool(pool), 1, &buf)
}

// BeginCommandBuffer implements gpucore.Device.
func (d *Device) BeginCommandBuffer(cmd gpucore.CommandBufferID, oneTimeSubmit bool) error {
	bi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		bi.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return check("vkBeginCommandBuffer", d.dcmds.BeginCommandBuffer(vk.CommandBuffer(cmd), &bi))
}

// EndCommandBuffer implements gpucore.Device.
func (d *Device) EndCommandBuffer(cmd gpucore.CommandBufferID) error {
	return check("vkEndCommandBuffer", d.dcmds.EndCommandBuffer(vk.CommandBuffer(cmd)))
}

// ResetCommandBuffer implements gpucore.Device.
func (d *Device) ResetCommandBuffer(cmd gpucore.CommandBufferID) error {
	return check("vkResetCommandBuffer", d.dcmds.ResetCommandBuffer(vk.CommandBuffer(cmd), 0))
}

// CmdPipelineBarrier implements gpucore.Device.
func (d *Device) CmdPipelineBarrier(cmd gpucore.CommandBufferID, barrier *gpucore.ImageBarrier) {
	b := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       accessToVk(barrier.SrcAccess),
		DstAccessMask:       accessToVk(barrier.DstAccess),
		OldLayout:           layoutToVk(barrier.OldLayout),
		NewLayout:           layoutToVk(barrier.NewLayout),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vk.Image(barrier.Image),
		SubresourceRange:    colorRange,
	}
	d.dcmds.CmdPipelineBarrier(vk.CommandBuffer(cmd),
		stageToVk(barrier.SrcStage), stageToVk(barrier.DstStage), 0,
		0, nil, 0, nil, 1, &b)
}

// CmdCopyBufferToImage implements gpucore.Device.
func (d *Device) CmdCopyBufferToImage(cmd gpucore.CommandBufferID, region *gpucore.BufferImageCopy) {
	r := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: region.Width, Height: region.Height, Depth: 1},
	}
	d.dcmds.CmdCopyBufferToImage(vk.CommandBuffer(cmd), vk.Buffer(region.Buffer),
		vk.Image(region.Image), layoutToVk(region.Layout), 1, &r)
}

// CmdBeginRenderPass implements gpucore.Device.
func (d *Device) CmdBeginRenderPass(cmd gpucore.CommandBufferID, begin *gpucore.RenderPassBegin) {
	c := begin.ClearColor
	clearValue := vk.ClearValueColor(float32(c.R), float32(c.G), float32(c.B), float32(c.A))
	bi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vk.RenderPass(begin.RenderPass),
		Framebuffer: vk.Framebuffer(begin.Framebuffer),
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: begin.Extent.Width, Height: begin.Extent.Height},
		},
		ClearValueCount: 1,
		PClearValues:    &clearValue,
	}
	d.dcmds.CmdBeginRenderPass(vk.CommandBuffer(cmd), &bi, vk.SubpassContentsInline)
}

// CmdBindPipeline implements gpucore.Device.
func (d *Device) CmdBindPipeline(cmd gpucore.CommandBufferID, pipeline gpucore.PipelineID) {
	d.dcmds.CmdBindPipeline(vk.CommandBuffer(cmd), vk.PipelineBindPointGraphics, vk.Pipeline(pipeline))
}

// CmdBindDescriptorSet implements gpucore.Device.
func (d *Device) CmdBindDescriptorSet(cmd gpucore.CommandBufferID, layout gpucore.PipelineLayoutID, set gpucore.DescriptorSetID) {
	s := vk.DescriptorSet(set)
	d.dcmds.CmdBindDescriptorSets(vk.CommandBuffer(cmd), vk.PipelineBindPointGraphics,
		vk.PipelineLayout(layout), 0, 1, &s, 0, nil)
}

// CmdDraw implements gpucore.Device.
func (d *Device) CmdDraw(cmd gpucore.CommandBufferID, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.dcmds.CmdDraw(vk.CommandBuffer(cmd), vertexCount, instanceCount, firstVertex, firstInstance)
}

// CmdEndRenderPass implements gpucore.Device.
func (d *Device) CmdEndRenderPass(cmd gpucore.CommandBufferID) {
	d.dcmds.CmdEndRenderPass(vk.CommandBuffer(cmd))
}

// CreateFence implements gpucore.Device.
func (d *Device) CreateFence(signaled bool) (gpucore.FenceID, error) {
	ci := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		ci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := check("vkCreateFence", d.dcmds.CreateFence(d.handle, &ci, nil, &fence)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.FenceID(fence), nil
}

// DestroyFence implements gpucore.Device.
func (d *Device) DestroyFence(fence gpucore.FenceID) {
	if fence == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroyFence(d.handle, vk.Fence(fence), nil)
}

// WaitForFence implements gpucore.Device.
func (d *Device) WaitForFence(fence gpucore.FenceID) error {
	f := vk.Fence(fence)
	return check("vkWaitForFences", d.dcmds.WaitForFences(d.handle, 1, &f, vk.True, noTimeout))
}

// ResetFence implements gpucore.Device.
func (d *Device) ResetFence(fence gpucore.FenceID) error {
	f := vk.Fence(fence)
	return check("vkResetFences", d.dcmds.ResetFences(d.handle, 1, &f))
}

// CreateSemaphore implements gpucore.Device.
func (d *Device) CreateSemaphore() (gpucore.SemaphoreID, error) {
	ci := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var sem vk.Semaphore
	if err := check("vkCreateSemaphore", d.dcmds.CreateSemaphore(d.handle, &ci, nil, &sem)); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.SemaphoreID(sem), nil
}

// DestroySemaphore implements gpucore.Device.
func (d *Device) DestroySemaphore(semaphore gpucore.SemaphoreID) {
	if semaphore == gpucore.InvalidID {
		return
	}
	d.dcmds.DestroySemaphore(d.handle, vk.Semaphore(semaphore), nil)
}

// Submit implements gpucore.Device.
func (d *Device) Submit(info *gpucore.SubmitInfo) error {
	cmd := vk.CommandBuffer(info.CommandBuffer)
	wait := vk.Semaphore(info.WaitSemaphore)
	waitStage := stageToVk(info.WaitStage)
	signal := vk.Semaphore(info.SignalSemaphore)

	si := vk.SubmitInfo{SType: vk.StructureTypeSubmitInfo}
	if info.CommandBuffer != gpucore.InvalidID {
		si.CommandBufferCount = 1
		si.PCommandBuffers = &cmd
	}
	if info.WaitSemaphore != gpucore.InvalidID {
		si.WaitSemaphoreCount = 1
		si.PWaitSemaphores = &wait
		si.PWaitDstStageMask = &waitStage
	}
	if info.SignalSemaphore != gpucore.InvalidID {
		si.SignalSemaphoreCount = 1
		si.PSignalSemaphores = &signal
	}
	return check("vkQueueSubmit", d.dcmds.QueueSubmit(d.queue, 1, &si, vk.Fence(info.Fence)))
}

// QueueWaitIdle implements gpucore.Device.
func (d *Device) QueueWaitIdle() error {
	return check("vkQueueWaitIdle", d.dcmds.QueueWaitIdle(d.queue))
}

// WaitIdle implements gpucore.Device.
func (d *Device) WaitIdle() error {
	if d.handle == 0 {
		return nil
	}
	return check("vkDeviceWaitIdle", d.dcmds.DeviceWaitIdle(d.handle))
}

// Destroy implements gpucore.Device. It is safe on a partially opened
// device and on repeated calls.
func (d *Device) Destroy() {
	if d.handle != 0 {
		if err := d.WaitIdle(); err != nil {
			slogger().Warn("vulkan: wait idle before destroy", "err", err)
		}
		d.dcmds.DestroyDevice(d.handle, nil)
		d.handle = 0
		d.queue = 0
	}
	if d.surface != 0 {
		d.cmds.DestroySurfaceKHR(d.instance, d.surface, nil)
		d.surface = 0
	}
	if d.instance != 0 {
		d.cmds.DestroyInstance(d.instance, nil)
		d.instance = 0
	}
}
