package noop

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/gpucontext"
)

// ErrDeadlock is returned by WaitForFence when the fence is unsignalled and
// no submitted work could ever signal it.
var ErrDeadlock = errors.New("noop: wait on unsignalled fence with no pending work")

// ErrInvalidHandle is returned when a call names an object that does not exist.
var ErrInvalidHandle = errors.New("noop: invalid handle")

// Stats counts the synchronization and submission calls made on a device.
type Stats struct {
	FenceWaits      int
	FenceResets     int
	Acquires        int
	Submits         int
	Presents        int
	QueueWaitIdles  int
	DeviceWaitIdles int
	Draws           int
	Allocations     int
	AllocatedBytes  uint64
}

// BoundTexture is the state of an image bound through a descriptor set.
type BoundTexture struct {
	Label   string
	Width   uint32
	Height  uint32
	Layout  gpucore.ImageLayout
	Pixels  []byte
	Sampler gpucore.SamplerDescriptor
}

type allocation struct {
	data      []byte
	typeIndex uint32
	mapped    bool
}

type buffer struct {
	desc gpucore.BufferDescriptor
	mem  gpucore.MemoryID
}

type image struct {
	desc      gpucore.ImageDescriptor
	mem       gpucore.MemoryID
	layout    gpucore.ImageLayout
	pixels    []byte
	swapchain bool
}

type swapchain struct {
	desc   gpucore.SwapchainDescriptor
	images []gpucore.ImageID
	next   uint32
}

type descriptorSet struct {
	pool   gpucore.DescriptorPoolID
	writes map[uint32]gpucore.DescriptorWrite
}

type cmdState int

const (
	cmdInitial cmdState = iota
	cmdRecording
	cmdExecutable
	cmdInvalid
)

type opKind int

const (
	opBarrier opKind = iota
	opCopy
	opBeginPass
	opBindPipeline
	opBindSet
	opDraw
	opEndPass
)

type op struct {
	kind     opKind
	barrier  gpucore.ImageBarrier
	copy     gpucore.BufferImageCopy
	begin    gpucore.RenderPassBegin
	pipeline gpucore.PipelineID
	set      gpucore.DescriptorSetID
}

type commandBuffer struct {
	pool    gpucore.CommandPoolID
	state   cmdState
	oneTime bool
	inPass  bool
	ops     []op
}

// Device is a recording gpucore.Device. It is safe for concurrent use so
// tests may inspect it while a render loop runs.
type Device struct {
	mu sync.Mutex

	cfg       Config
	extent    gpucore.Extent2D
	nextID    uint64
	live      map[uint64]string
	destroyed bool

	memory       map[gpucore.MemoryID]*allocation
	buffers      map[gpucore.BufferID]*buffer
	images       map[gpucore.ImageID]*image
	views        map[gpucore.ImageViewID]gpucore.ImageID
	samplers     map[gpucore.SamplerID]gpucore.SamplerDescriptor
	renderPasses map[gpucore.RenderPassID]gpucore.RenderPassDescriptor
	framebuffers map[gpucore.FramebufferID]gpucore.FramebufferDescriptor
	swapchains   map[gpucore.SwapchainID]*swapchain
	sets         map[gpucore.DescriptorSetID]*descriptorSet
	cmdPools     map[gpucore.CommandPoolID]bool
	cmds         map[gpucore.CommandBufferID]*commandBuffer
	fences       map[gpucore.FenceID]bool
	semaphores   map[gpucore.SemaphoreID]bool
	pipelines    map[gpucore.PipelineID]gpucore.GraphicsPipelineDescriptor

	lastSet       gpucore.DescriptorSetID
	lastSwapchain gpucore.SwapchainDescriptor
	lastPipeline  gpucore.GraphicsPipelineDescriptor
	lastPass      gpucore.RenderPassDescriptor
	lastBindings  []gpucore.DescriptorBinding
	lastPool      gpucore.DescriptorPoolDescriptor

	failures   map[string][]error
	stats      Stats
	trace      []string
	violations []string
}

func newDevice(cfg Config) *Device {
	return &Device{
		cfg:          cfg,
		extent:       cfg.Extent,
		live:         make(map[uint64]string),
		memory:       make(map[gpucore.MemoryID]*allocation),
		buffers:      make(map[gpucore.BufferID]*buffer),
		images:       make(map[gpucore.ImageID]*image),
		views:        make(map[gpucore.ImageViewID]gpucore.ImageID),
		samplers:     make(map[gpucore.SamplerID]gpucore.SamplerDescriptor),
		renderPasses: make(map[gpucore.RenderPassID]gpucore.RenderPassDescriptor),
		framebuffers: make(map[gpucore.FramebufferID]gpucore.FramebufferDescriptor),
		swapchains:   make(map[gpucore.SwapchainID]*swapchain),
		sets:         make(map[gpucore.DescriptorSetID]*descriptorSet),
		cmdPools:     make(map[gpucore.CommandPoolID]bool),
		cmds:         make(map[gpucore.CommandBufferID]*commandBuffer),
		fences:       make(map[gpucore.FenceID]bool),
		semaphores:   make(map[gpucore.SemaphoreID]bool),
		pipelines:    make(map[gpucore.PipelineID]gpucore.GraphicsPipelineDescriptor),
		failures:     make(map[string][]error),
	}
}

// Test hooks.

// FailNext makes the next call of the named method return err. Calls
// queue up: failing the same method twice fails its next two calls.
func (d *Device) FailNext(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[method] = append(d.failures[method], err)
}

// SetExtent changes the surface size. The current swapchain becomes out
// of date.
func (d *Device) SetExtent(extent gpucore.Extent2D) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.extent = extent
}

// Stats returns a snapshot of the call counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Trace returns the method names called since the last ResetTrace.
func (d *Device) Trace() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.trace...)
}

// ResetTrace clears the call trace.
func (d *Device) ResetTrace() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = d.trace[:0]
}

// Violations returns every protocol breach observed so far.
func (d *Device) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// Live returns the number of objects created and not yet destroyed.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// LiveKinds returns the kinds of the live objects, sorted.
func (d *Device) LiveKinds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]string, 0, len(d.live))
	for _, k := range d.live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Destroyed reports whether Destroy has been called.
func (d *Device) Destroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

// SwapchainDescriptor returns the descriptor of the last created swapchain.
func (d *Device) SwapchainDescriptor() gpucore.SwapchainDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSwapchain
}

// PipelineDescriptor returns the descriptor of the last created pipeline.
func (d *Device) PipelineDescriptor() gpucore.GraphicsPipelineDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastPipeline
}

// RenderPassDescriptor returns the descriptor of the last created render pass.
func (d *Device) RenderPassDescriptor() gpucore.RenderPassDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastPass
}

// SetLayoutBindings returns the bindings of the last created set layout.
func (d *Device) SetLayoutBindings() []gpucore.DescriptorBinding {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]gpucore.DescriptorBinding(nil), d.lastBindings...)
}

// DescriptorPoolDescriptor returns the descriptor of the last created pool.
func (d *Device) DescriptorPoolDescriptor() gpucore.DescriptorPoolDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastPool
}

// BoundUniform returns a copy of the uniform buffer range bound in the last
// updated descriptor set.
func (d *Device) BoundUniform() ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.sets[d.lastSet]
	if !ok {
		return nil, false
	}
	for _, w := range set.writes {
		if w.Type != gpucore.DescriptorTypeUniformBuffer {
			continue
		}
		buf, ok := d.buffers[w.Buffer]
		if !ok {
			return nil, false
		}
		mem, ok := d.memory[buf.mem]
		if !ok || w.Offset+w.Range > uint64(len(mem.data)) {
			return nil, false
		}
		return append([]byte(nil), mem.data[w.Offset:w.Offset+w.Range]...), true
	}
	return nil, false
}

// BoundTexture returns the image and sampler written to binding of the last
// updated descriptor set.
func (d *Device) BoundTexture(binding uint32) (BoundTexture, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.sets[d.lastSet]
	if !ok {
		return BoundTexture{}, false
	}
	w, ok := set.writes[binding]
	if !ok || w.Type != gpucore.DescriptorTypeCombinedImageSampler {
		return BoundTexture{}, false
	}
	img, ok := d.images[d.views[w.View]]
	if !ok {
		return BoundTexture{}, false
	}
	return BoundTexture{
		Label:   img.desc.Label,
		Width:   img.desc.Width,
		Height:  img.desc.Height,
		Layout:  img.layout,
		Pixels:  append([]byte(nil), img.pixels...),
		Sampler: d.samplers[w.Sampler],
	}, true
}

// Internal helpers. All expect d.mu to be held.

func (d *Device) call(method string) error {
	d.trace = append(d.trace, method)
	if d.destroyed {
		d.violatef("%s after Destroy", method)
	}
	if errs := d.failures[method]; len(errs) > 0 {
		d.failures[method] = errs[1:]
		return errs[0]
	}
	return nil
}

func (d *Device) violatef(format string, args ...any) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

func (d *Device) create(kind string) uint64 {
	d.nextID++
	d.live[d.nextID] = kind
	return d.nextID
}

// release forgets a live object. It reports false for InvalidID and for
// handles that were never created or were already destroyed.
func (d *Device) release(kind string, id uint64) bool {
	if id == gpucore.InvalidID {
		return false
	}
	if d.live[id] != kind {
		d.violatef("destroy of unknown %s %d", kind, id)
		return false
	}
	delete(d.live, id)
	return true
}

// gpucore.Device implementation.

// Info implements gpucore.Device.
func (d *Device) Info() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "noop", Type: gpucontext.AdapterTypeSoftware}
}

// MemoryTypes implements gpucore.Device.
func (d *Device) MemoryTypes() []gpucore.MemoryType {
	return append([]gpucore.MemoryType(nil), d.cfg.MemoryTypes...)
}

// SurfaceCapabilities implements gpucore.Device.
func (d *Device) SurfaceCapabilities() (gpucore.SurfaceCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("SurfaceCapabilities"); err != nil {
		return gpucore.SurfaceCapabilities{}, err
	}
	return gpucore.SurfaceCapabilities{
		MinImageCount:    d.cfg.MinImageCount,
		MaxImageCount:    d.cfg.MaxImageCount,
		CurrentExtent:    d.extent,
		CurrentTransform: 1,
	}, nil
}

// CreateSwapchain implements gpucore.Device.
func (d *Device) CreateSwapchain(desc *gpucore.SwapchainDescriptor) (gpucore.SwapchainID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateSwapchain"); err != nil {
		return 0, err
	}
	if desc.MinImageCount < d.cfg.MinImageCount ||
		(d.cfg.MaxImageCount != 0 && desc.MinImageCount > d.cfg.MaxImageCount) {
		d.violatef("swapchain image count %d outside [%d, %d]", desc.MinImageCount, d.cfg.MinImageCount, d.cfg.MaxImageCount)
	}

	sc := &swapchain{desc: *desc}
	for i := uint32(0); i < desc.MinImageCount; i++ {
		id := gpucore.ImageID(d.nextID + 1)
		d.nextID++
		d.images[id] = &image{
			desc: gpucore.ImageDescriptor{
				Label:  fmt.Sprintf("swapchain[%d]", i),
				Width:  desc.Extent.Width,
				Height: desc.Extent.Height,
				Format: desc.Format,
				Usage:  desc.Usage,
			},
			swapchain: true,
		}
		sc.images = append(sc.images, id)
	}
	id := gpucore.SwapchainID(d.create("swapchain"))
	d.swapchains[id] = sc
	d.lastSwapchain = *desc
	return id, nil
}

// SwapchainImages implements gpucore.Device.
func (d *Device) SwapchainImages(id gpucore.SwapchainID) ([]gpucore.ImageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("SwapchainImages"); err != nil {
		return nil, err
	}
	sc, ok := d.swapchains[id]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return append([]gpucore.ImageID(nil), sc.images...), nil
}

// DestroySwapchain implements gpucore.Device.
func (d *Device) DestroySwapchain(id gpucore.SwapchainID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroySwapchain")
	if !d.release("swapchain", uint64(id)) {
		return
	}
	for _, img := range d.swapchains[id].images {
		delete(d.images, img)
	}
	delete(d.swapchains, id)
}

// AcquireNextImage implements gpucore.Device. It returns ErrOutOfDate once
// the surface extent no longer matches the swapchain. An injected
// ErrSuboptimal still acquires an image.
func (d *Device) AcquireNextImage(id gpucore.SwapchainID, signal gpucore.SemaphoreID) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Acquires++
	injected := d.call("AcquireNextImage")
	if injected != nil && !errors.Is(injected, gpucore.ErrSuboptimal) {
		return 0, injected
	}
	sc, ok := d.swapchains[id]
	if !ok {
		return 0, ErrInvalidHandle
	}
	if sc.desc.Extent != d.extent {
		return 0, gpucore.ErrOutOfDate
	}
	if signaled, ok := d.semaphores[signal]; !ok {
		return 0, ErrInvalidHandle
	} else if signaled {
		d.violatef("acquire signals semaphore %d which is already signalled", signal)
	}
	d.semaphores[signal] = true

	index := sc.next
	sc.next = (sc.next + 1) % uint32(len(sc.images))
	return index, injected
}

// Present implements gpucore.Device.
func (d *Device) Present(id gpucore.SwapchainID, index uint32, wait gpucore.SemaphoreID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Presents++
	if err := d.call("Present"); err != nil {
		return err
	}
	sc, ok := d.swapchains[id]
	if !ok || int(index) >= len(sc.images) {
		return ErrInvalidHandle
	}
	d.consume(wait, "present")
	if l := d.images[sc.images[index]].layout; l != gpucore.ImageLayoutPresentSrc {
		d.violatef("present of image %d in layout %s", index, l)
	}
	if sc.desc.Extent != d.extent {
		return gpucore.ErrOutOfDate
	}
	return nil
}

func (d *Device) consume(sem gpucore.SemaphoreID, who string) {
	if sem == gpucore.InvalidID {
		return
	}
	if !d.semaphores[sem] {
		d.violatef("%s waits on unsignalled semaphore %d", who, sem)
	}
	d.semaphores[sem] = false
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDescriptor) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateBuffer"); err != nil {
		return 0, err
	}
	id := gpucore.BufferID(d.create("buffer"))
	d.buffers[id] = &buffer{desc: *desc}
	return id, nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyBuffer")
	if d.release("buffer", uint64(id)) {
		delete(d.buffers, id)
	}
}

// BufferMemoryRequirements implements gpucore.Device. Any memory type may
// back a buffer.
func (d *Device) BufferMemoryRequirements(id gpucore.BufferID) gpucore.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	var size uint64
	if b, ok := d.buffers[id]; ok {
		size = b.desc.Size
	}
	return gpucore.MemoryRequirements{
		Size:      size,
		Alignment: 256,
		TypeBits:  1<<len(d.cfg.MemoryTypes) - 1,
	}
}

// CreateImage implements gpucore.Device.
func (d *Device) CreateImage(desc *gpucore.ImageDescriptor) (gpucore.ImageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateImage"); err != nil {
		return 0, err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return 0, fmt.Errorf("noop: image %q has zero extent", desc.Label)
	}
	id := gpucore.ImageID(d.create("image"))
	d.images[id] = &image{desc: *desc}
	return id, nil
}

// DestroyImage implements gpucore.Device.
func (d *Device) DestroyImage(id gpucore.ImageID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyImage")
	if d.release("image", uint64(id)) {
		delete(d.images, id)
	}
}

// ImageMemoryRequirements implements gpucore.Device. Images may use every
// memory type that is device local.
func (d *Device) ImageMemoryRequirements(id gpucore.ImageID) gpucore.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	var size uint64
	if img, ok := d.images[id]; ok {
		size = uint64(img.desc.Width) * uint64(img.desc.Height) * 4
	}
	var bits uint32
	for i, t := range d.cfg.MemoryTypes {
		if t.Properties&gpucore.MemoryPropertyDeviceLocal != 0 {
			bits |= 1 << i
		}
	}
	return gpucore.MemoryRequirements{Size: size, Alignment: 1024, TypeBits: bits}
}

// AllocateMemory implements gpucore.Device.
func (d *Device) AllocateMemory(size uint64, typeIndex uint32) (gpucore.MemoryID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("AllocateMemory"); err != nil {
		return 0, err
	}
	if int(typeIndex) >= len(d.cfg.MemoryTypes) {
		return 0, fmt.Errorf("noop: memory type %d out of range", typeIndex)
	}
	id := gpucore.MemoryID(d.create("memory"))
	d.memory[id] = &allocation{data: make([]byte, size), typeIndex: typeIndex}
	d.stats.Allocations++
	d.stats.AllocatedBytes += size
	return id, nil
}

// FreeMemory implements gpucore.Device.
func (d *Device) FreeMemory(id gpucore.MemoryID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "FreeMemory")
	if !d.release("memory", uint64(id)) {
		return
	}
	if d.memory[id].mapped {
		d.violatef("memory %d freed while mapped", id)
	}
	d.stats.AllocatedBytes -= uint64(len(d.memory[id].data))
	delete(d.memory, id)
}

// BindBufferMemory implements gpucore.Device.
func (d *Device) BindBufferMemory(id gpucore.BufferID, mem gpucore.MemoryID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("BindBufferMemory"); err != nil {
		return err
	}
	b, ok := d.buffers[id]
	m, okm := d.memory[mem]
	if !ok || !okm {
		return ErrInvalidHandle
	}
	if uint64(len(m.data)) < b.desc.Size {
		d.violatef("buffer %q bound to %d bytes, needs %d", b.desc.Label, len(m.data), b.desc.Size)
	}
	b.mem = mem
	return nil
}

// BindImageMemory implements gpucore.Device.
func (d *Device) BindImageMemory(id gpucore.ImageID, mem gpucore.MemoryID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("BindImageMemory"); err != nil {
		return err
	}
	img, ok := d.images[id]
	m, okm := d.memory[mem]
	if !ok || !okm {
		return ErrInvalidHandle
	}
	need := uint64(img.desc.Width) * uint64(img.desc.Height) * 4
	if uint64(len(m.data)) < need {
		d.violatef("image %q bound to %d bytes, needs %d", img.desc.Label, len(m.data), need)
	}
	img.mem = mem
	return nil
}

// MapMemory implements gpucore.Device.
func (d *Device) MapMemory(id gpucore.MemoryID, offset, size uint64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("MapMemory"); err != nil {
		return nil, err
	}
	m, ok := d.memory[id]
	if !ok {
		return nil, ErrInvalidHandle
	}
	if d.cfg.MemoryTypes[m.typeIndex].Properties&gpucore.MemoryPropertyHostVisible == 0 {
		d.violatef("map of memory %d which is not host visible", id)
	}
	if m.mapped {
		d.violatef("memory %d mapped twice", id)
	}
	if offset+size > uint64(len(m.data)) {
		return nil, fmt.Errorf("noop: map range [%d, %d) exceeds %d bytes", offset, offset+size, len(m.data))
	}
	m.mapped = true
	return m.data[offset : offset+size : offset+size], nil
}

// UnmapMemory implements gpucore.Device.
func (d *Device) UnmapMemory(id gpucore.MemoryID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "UnmapMemory")
	m, ok := d.memory[id]
	if !ok || !m.mapped {
		d.violatef("unmap of memory %d which is not mapped", id)
		return
	}
	m.mapped = false
}

// CreateImageView implements gpucore.Device.
func (d *Device) CreateImageView(desc *gpucore.ImageViewDescriptor) (gpucore.ImageViewID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateImageView"); err != nil {
		return 0, err
	}
	img, ok := d.images[desc.Image]
	if !ok {
		return 0, ErrInvalidHandle
	}
	if !img.swapchain && img.mem == gpucore.InvalidID {
		d.violatef("view of image %q without bound memory", img.desc.Label)
	}
	id := gpucore.ImageViewID(d.create("image view"))
	d.views[id] = desc.Image
	return id, nil
}

// DestroyImageView implements gpucore.Device.
func (d *Device) DestroyImageView(id gpucore.ImageViewID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyImageView")
	if d.release("image view", uint64(id)) {
		delete(d.views, id)
	}
}

// CreateSampler implements gpucore.Device.
func (d *Device) CreateSampler(desc *gpucore.SamplerDescriptor) (gpucore.SamplerID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateSampler"); err != nil {
		return 0, err
	}
	id := gpucore.SamplerID(d.create("sampler"))
	d.samplers[id] = *desc
	return id, nil
}

// DestroySampler implements gpucore.Device.
func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroySampler")
	if d.release("sampler", uint64(id)) {
		delete(d.samplers, id)
	}
}

// CreateRenderPass implements gpucore.Device.
func (d *Device) CreateRenderPass(desc *gpucore.RenderPassDescriptor) (gpucore.RenderPassID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateRenderPass"); err != nil {
		return 0, err
	}
	id := gpucore.RenderPassID(d.create("render pass"))
	d.renderPasses[id] = *desc
	d.lastPass = *desc
	return id, nil
}

// DestroyRenderPass implements gpucore.Device.
func (d *Device) DestroyRenderPass(id gpucore.RenderPassID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyRenderPass")
	if d.release("render pass", uint64(id)) {
		delete(d.renderPasses, id)
	}
}

// CreateFramebuffer implements gpucore.Device.
func (d *Device) CreateFramebuffer(desc *gpucore.FramebufferDescriptor) (gpucore.FramebufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateFramebuffer"); err != nil {
		return 0, err
	}
	if _, ok := d.renderPasses[desc.RenderPass]; !ok {
		return 0, ErrInvalidHandle
	}
	if _, ok := d.views[desc.Attachment]; !ok {
		return 0, ErrInvalidHandle
	}
	id := gpucore.FramebufferID(d.create("framebuffer"))
	d.framebuffers[id] = *desc
	return id, nil
}

// DestroyFramebuffer implements gpucore.Device.
func (d *Device) DestroyFramebuffer(id gpucore.FramebufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyFramebuffer")
	if d.release("framebuffer", uint64(id)) {
		delete(d.framebuffers, id)
	}
}

// CreateShaderModule implements gpucore.Device.
func (d *Device) CreateShaderModule(code []byte) (gpucore.ShaderModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateShaderModule"); err != nil {
		return 0, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, fmt.Errorf("noop: shader code size %d is not a positive multiple of 4", len(code))
	}
	return gpucore.ShaderModuleID(d.create("shader module")), nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyShaderModule")
	d.release("shader module", uint64(id))
}

// CreateDescriptorSetLayout implements gpucore.Device.
func (d *Device) CreateDescriptorSetLayout(bindings []gpucore.DescriptorBinding) (gpucore.DescriptorSetLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateDescriptorSetLayout"); err != nil {
		return 0, err
	}
	d.lastBindings = append([]gpucore.DescriptorBinding(nil), bindings...)
	return gpucore.DescriptorSetLayoutID(d.create("descriptor set layout")), nil
}

// DestroyDescriptorSetLayout implements gpucore.Device.
func (d *Device) DestroyDescriptorSetLayout(id gpucore.DescriptorSetLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyDescriptorSetLayout")
	d.release("descriptor set layout", uint64(id))
}

// CreateDescriptorPool implements gpucore.Device.
func (d *Device) CreateDescriptorPool(desc *gpucore.DescriptorPoolDescriptor) (gpucore.DescriptorPoolID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateDescriptorPool"); err != nil {
		return 0, err
	}
	d.lastPool = gpucore.DescriptorPoolDescriptor{
		MaxSets: desc.MaxSets,
		Sizes:   append([]gpucore.DescriptorPoolSize(nil), desc.Sizes...),
	}
	return gpucore.DescriptorPoolID(d.create("descriptor pool")), nil
}

// DestroyDescriptorPool implements gpucore.Device. Sets allocated from the
// pool are freed with it.
func (d *Device) DestroyDescriptorPool(id gpucore.DescriptorPoolID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyDescriptorPool")
	if !d.release("descriptor pool", uint64(id)) {
		return
	}
	for sid, set := range d.sets {
		if set.pool == id {
			delete(d.live, uint64(sid))
			delete(d.sets, sid)
		}
	}
}

// AllocateDescriptorSet implements gpucore.Device.
func (d *Device) AllocateDescriptorSet(pool gpucore.DescriptorPoolID, layout gpucore.DescriptorSetLayoutID) (gpucore.DescriptorSetID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("AllocateDescriptorSet"); err != nil {
		return 0, err
	}
	if d.live[uint64(pool)] != "descriptor pool" || d.live[uint64(layout)] != "descriptor set layout" {
		return 0, ErrInvalidHandle
	}
	id := gpucore.DescriptorSetID(d.create("descriptor set"))
	d.sets[id] = &descriptorSet{pool: pool, writes: make(map[uint32]gpucore.DescriptorWrite)}
	return id, nil
}

// UpdateDescriptorSets implements gpucore.Device.
func (d *Device) UpdateDescriptorSets(writes []gpucore.DescriptorWrite) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "UpdateDescriptorSets")
	for _, w := range writes {
		set, ok := d.sets[w.Set]
		if !ok {
			d.violatef("write to unknown descriptor set %d", w.Set)
			continue
		}
		switch w.Type {
		case gpucore.DescriptorTypeCombinedImageSampler:
			if _, ok := d.views[w.View]; !ok {
				d.violatef("binding %d: unknown image view %d", w.Binding, w.View)
			}
			if _, ok := d.samplers[w.Sampler]; !ok {
				d.violatef("binding %d: unknown sampler %d", w.Binding, w.Sampler)
			}
		case gpucore.DescriptorTypeUniformBuffer:
			if _, ok := d.buffers[w.Buffer]; !ok {
				d.violatef("binding %d: unknown buffer %d", w.Binding, w.Buffer)
			}
		}
		set.writes[w.Binding] = w
		d.lastSet = w.Set
	}
}

// CreatePipelineLayout implements gpucore.Device.
func (d *Device) CreatePipelineLayout(layouts []gpucore.DescriptorSetLayoutID) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreatePipelineLayout"); err != nil {
		return 0, err
	}
	for _, l := range layouts {
		if d.live[uint64(l)] != "descriptor set layout" {
			return 0, ErrInvalidHandle
		}
	}
	return gpucore.PipelineLayoutID(d.create("pipeline layout")), nil
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyPipelineLayout")
	d.release("pipeline layout", uint64(id))
}

// CreateGraphicsPipeline implements gpucore.Device.
func (d *Device) CreateGraphicsPipeline(desc *gpucore.GraphicsPipelineDescriptor) (gpucore.PipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateGraphicsPipeline"); err != nil {
		return 0, err
	}
	if d.live[uint64(desc.VertexShader)] != "shader module" || d.live[uint64(desc.FragmentShader)] != "shader module" {
		return 0, fmt.Errorf("noop: pipeline shader modules: %w", ErrInvalidHandle)
	}
	if d.live[uint64(desc.Layout)] != "pipeline layout" {
		return 0, fmt.Errorf("noop: pipeline layout: %w", ErrInvalidHandle)
	}
	if _, ok := d.renderPasses[desc.RenderPass]; !ok {
		return 0, fmt.Errorf("noop: pipeline render pass: %w", ErrInvalidHandle)
	}
	id := gpucore.PipelineID(d.create("pipeline"))
	d.pipelines[id] = *desc
	d.lastPipeline = *desc
	return id, nil
}

// DestroyPipeline implements gpucore.Device.
func (d *Device) DestroyPipeline(id gpucore.PipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyPipeline")
	if d.release("pipeline", uint64(id)) {
		delete(d.pipelines, id)
	}
}

// CreateCommandPool implements gpucore.Device.
func (d *Device) CreateCommandPool(resettable bool) (gpucore.CommandPoolID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateCommandPool"); err != nil {
		return 0, err
	}
	id := gpucore.CommandPoolID(d.create("command pool"))
	d.cmdPools[id] = resettable
	return id, nil
}

// DestroyCommandPool implements gpucore.Device. Buffers allocated from the
// pool are freed with it.
func (d *Device) DestroyCommandPool(id gpucore.CommandPoolID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyCommandPool")
	if !d.release("command pool", uint64(id)) {
		return
	}
	for cid, cb := range d.cmds {
		if cb.pool == id {
			delete(d.live, uint64(cid))
			delete(d.cmds, cid)
		}
	}
	delete(d.cmdPools, id)
}

// AllocateCommandBuffer implements gpucore.Device.
func (d *Device) AllocateCommandBuffer(pool gpucore.CommandPoolID) (gpucore.CommandBufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("AllocateCommandBuffer"); err != nil {
		return 0, err
	}
	if _, ok := d.cmdPools[pool]; !ok {
		return 0, ErrInvalidHandle
	}
	id := gpucore.CommandBufferID(d.create("command buffer"))
	d.cmds[id] = &commandBuffer{pool: pool}
	return id, nil
}

// FreeCommandBuffer implements gpucore.Device.
func (d *Device) FreeCommandBuffer(pool gpucore.CommandPoolID, id gpucore.CommandBufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "FreeCommandBuffer")
	if cb, ok := d.cmds[id]; ok && cb.pool != pool {
		d.violatef("command buffer %d freed to the wrong pool", id)
	}
	if d.release("command buffer", uint64(id)) {
		delete(d.cmds, id)
	}
}

// BeginCommandBuffer implements gpucore.Device.
func (d *Device) BeginCommandBuffer(id gpucore.CommandBufferID, oneTimeSubmit bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("BeginCommandBuffer"); err != nil {
		return err
	}
	cb, ok := d.cmds[id]
	if !ok {
		return ErrInvalidHandle
	}
	switch cb.state {
	case cmdRecording:
		d.violatef("begin of command buffer %d while recording", id)
	case cmdExecutable, cmdInvalid:
		if !d.cmdPools[cb.pool] {
			d.violatef("implicit reset of command buffer %d from a non-resettable pool", id)
		}
	}
	cb.state = cmdRecording
	cb.oneTime = oneTimeSubmit
	cb.inPass = false
	cb.ops = cb.ops[:0]
	return nil
}

// EndCommandBuffer implements gpucore.Device.
func (d *Device) EndCommandBuffer(id gpucore.CommandBufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("EndCommandBuffer"); err != nil {
		return err
	}
	cb, ok := d.cmds[id]
	if !ok {
		return ErrInvalidHandle
	}
	if cb.state != cmdRecording {
		d.violatef("end of command buffer %d that is not recording", id)
	}
	if cb.inPass {
		d.violatef("end of command buffer %d inside a render pass", id)
	}
	cb.state = cmdExecutable
	return nil
}

// ResetCommandBuffer implements gpucore.Device.
func (d *Device) ResetCommandBuffer(id gpucore.CommandBufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("ResetCommandBuffer"); err != nil {
		return err
	}
	cb, ok := d.cmds[id]
	if !ok {
		return ErrInvalidHandle
	}
	if !d.cmdPools[cb.pool] {
		d.violatef("reset of command buffer %d from a non-resettable pool", id)
	}
	cb.state = cmdInitial
	cb.inPass = false
	cb.ops = cb.ops[:0]
	return nil
}

func (d *Device) recordOp(id gpucore.CommandBufferID, method string, o op) {
	d.trace = append(d.trace, method)
	cb, ok := d.cmds[id]
	if !ok {
		d.violatef("%s on unknown command buffer %d", method, id)
		return
	}
	if cb.state != cmdRecording {
		d.violatef("%s on command buffer %d that is not recording", method, id)
		return
	}
	switch o.kind {
	case opBeginPass:
		if cb.inPass {
			d.violatef("nested render pass in command buffer %d", id)
		}
		cb.inPass = true
	case opEndPass:
		if !cb.inPass {
			d.violatef("end of render pass outside a pass in command buffer %d", id)
		}
		cb.inPass = false
	case opDraw:
		if !cb.inPass {
			d.violatef("draw outside a render pass in command buffer %d", id)
		}
	case opBarrier, opCopy:
		if cb.inPass {
			d.violatef("%s inside a render pass in command buffer %d", method, id)
		}
	}
	cb.ops = append(cb.ops, o)
}

// CmdPipelineBarrier implements gpucore.Device.
func (d *Device) CmdPipelineBarrier(cmd gpucore.CommandBufferID, barrier *gpucore.ImageBarrier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordOp(cmd, "CmdPipelineBarrier", op{kind: opBarrier, barrier: *barrier})
}

// CmdCopyBufferToImage implements gpucore.Device.
func (d *Device) CmdCopyBufferToImage(cmd gpucore.CommandBufferID, region *gpucore.BufferImageCopy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordOp(cmd, "CmdCopyBufferToImage", op{kind: opCopy, copy: *region})
}

// CmdBeginRenderPass implements gpucore.Device.
func (d *Device) CmdBeginRenderPass(cmd gpucore.CommandBufferID, begin *gpucore.RenderPassBegin) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordOp(cmd, "CmdBeginRenderPass", op{kind: opBeginPass, begin: *begin})
}

// CmdBindPipeline implements gpucore.Device.
func (d *Device) CmdBindPipeline(cmd gpucore.CommandBufferID, pipeline gpucore.PipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordOp(cmd, "CmdBindPipeline", op{kind: opBindPipeline, pipeline: pipeline})
}

// CmdBindDescriptorSet implements gpucore.Device.
func (d *Device) CmdBindDescriptorSet(cmd gpucore.CommandBufferID, _ gpucore.PipelineLayoutID, set gpucore.DescriptorSetID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordOp(cmd, "CmdBindDescriptorSet", op{kind: opBindSet, set: set})
}

// CmdDraw implements gpucore.Device.
func (d *Device) CmdDraw(cmd gpucore.CommandBufferID, vertexCount, instanceCount, _, _ uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if vertexCount == 0 || instanceCount == 0 {
		d.violatef("empty draw (%d vertices, %d instances)", vertexCount, instanceCount)
	}
	d.recordOp(cmd, "CmdDraw", op{kind: opDraw})
}

// CmdEndRenderPass implements gpucore.Device.
func (d *Device) CmdEndRenderPass(cmd gpucore.CommandBufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordOp(cmd, "CmdEndRenderPass", op{kind: opEndPass})
}

// CreateFence implements gpucore.Device.
func (d *Device) CreateFence(signaled bool) (gpucore.FenceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateFence"); err != nil {
		return 0, err
	}
	id := gpucore.FenceID(d.create("fence"))
	d.fences[id] = signaled
	return id, nil
}

// DestroyFence implements gpucore.Device.
func (d *Device) DestroyFence(id gpucore.FenceID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroyFence")
	if d.release("fence", uint64(id)) {
		delete(d.fences, id)
	}
}

// WaitForFence implements gpucore.Device. Work completes at Submit, so an
// unsignalled fence can never become signalled and ErrDeadlock is returned.
func (d *Device) WaitForFence(id gpucore.FenceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.FenceWaits++
	if err := d.call("WaitForFence"); err != nil {
		return err
	}
	signaled, ok := d.fences[id]
	if !ok {
		return ErrInvalidHandle
	}
	if !signaled {
		d.violatef("wait on fence %d would block forever", id)
		return ErrDeadlock
	}
	return nil
}

// ResetFence implements gpucore.Device.
func (d *Device) ResetFence(id gpucore.FenceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.FenceResets++
	if err := d.call("ResetFence"); err != nil {
		return err
	}
	if _, ok := d.fences[id]; !ok {
		return ErrInvalidHandle
	}
	d.fences[id] = false
	return nil
}

// CreateSemaphore implements gpucore.Device.
func (d *Device) CreateSemaphore() (gpucore.SemaphoreID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.call("CreateSemaphore"); err != nil {
		return 0, err
	}
	id := gpucore.SemaphoreID(d.create("semaphore"))
	d.semaphores[id] = false
	return id, nil
}

// DestroySemaphore implements gpucore.Device.
func (d *Device) DestroySemaphore(id gpucore.SemaphoreID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, "DestroySemaphore")
	if d.release("semaphore", uint64(id)) {
		delete(d.semaphores, id)
	}
}

// Submit implements gpucore.Device. The batch executes immediately.
func (d *Device) Submit(info *gpucore.SubmitInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Submits++
	if err := d.call("Submit"); err != nil {
		return err
	}

	if info.Fence != gpucore.InvalidID {
		signaled, ok := d.fences[info.Fence]
		if !ok {
			return ErrInvalidHandle
		}
		if signaled {
			d.violatef("submit signals fence %d which is already signalled", info.Fence)
		}
	}
	d.consume(info.WaitSemaphore, "submit")

	if info.CommandBuffer != gpucore.InvalidID {
		cb, ok := d.cmds[info.CommandBuffer]
		if !ok {
			return ErrInvalidHandle
		}
		if cb.state != cmdExecutable {
			d.violatef("submit of command buffer %d that is not executable", info.CommandBuffer)
		}
		d.execute(cb.ops)
		if cb.oneTime {
			cb.state = cmdInvalid
		}
	}

	if info.SignalSemaphore != gpucore.InvalidID {
		d.semaphores[info.SignalSemaphore] = true
	}
	if info.Fence != gpucore.InvalidID {
		d.fences[info.Fence] = true
	}
	return nil
}

// execute replays recorded commands against the tracked image state.
func (d *Device) execute(ops []op) {
	var (
		pipeline gpucore.PipelineID
		set      gpucore.DescriptorSetID
		target   *image
		pass     gpucore.RenderPassDescriptor
	)
	for _, o := range ops {
		switch o.kind {
		case opBarrier:
			img, ok := d.images[o.barrier.Image]
			if !ok {
				d.violatef("barrier on unknown image %d", o.barrier.Image)
				continue
			}
			if o.barrier.OldLayout != gpucore.ImageLayoutUndefined && o.barrier.OldLayout != img.layout {
				d.violatef("image %q: barrier from %s but image is in %s",
					img.desc.Label, o.barrier.OldLayout, img.layout)
			}
			img.layout = o.barrier.NewLayout

		case opCopy:
			img, ok := d.images[o.copy.Image]
			buf, okb := d.buffers[o.copy.Buffer]
			if !ok || !okb {
				d.violatef("copy between unknown objects %d -> %d", o.copy.Buffer, o.copy.Image)
				continue
			}
			if img.layout != gpucore.ImageLayoutTransferDst || o.copy.Layout != gpucore.ImageLayoutTransferDst {
				d.violatef("image %q: copy in layout %s", img.desc.Label, img.layout)
			}
			n := uint64(o.copy.Width) * uint64(o.copy.Height) * 4
			mem, ok := d.memory[buf.mem]
			if !ok || uint64(len(mem.data)) < n {
				d.violatef("copy source %q holds fewer than %d bytes", buf.desc.Label, n)
				continue
			}
			img.pixels = append(img.pixels[:0], mem.data[:n]...)

		case opBeginPass:
			fb, ok := d.framebuffers[o.begin.Framebuffer]
			if !ok {
				d.violatef("render pass on unknown framebuffer %d", o.begin.Framebuffer)
				continue
			}
			pass = d.renderPasses[o.begin.RenderPass]
			target = d.images[d.views[fb.Attachment]]
			if target != nil {
				target.layout = gpucore.ImageLayoutColorAttachment
			}

		case opBindPipeline:
			pipeline = o.pipeline

		case opBindSet:
			set = o.set

		case opDraw:
			d.stats.Draws++
			if _, ok := d.pipelines[pipeline]; !ok {
				d.violatef("draw without a bound pipeline")
			}
			ds, ok := d.sets[set]
			if !ok {
				d.violatef("draw without a bound descriptor set")
				continue
			}
			for binding, w := range ds.writes {
				if w.Type != gpucore.DescriptorTypeCombinedImageSampler {
					continue
				}
				img := d.images[d.views[w.View]]
				if img == nil || img.layout != gpucore.ImageLayoutShaderReadOnly {
					d.violatef("draw samples binding %d outside shader-read layout", binding)
				}
			}

		case opEndPass:
			if target != nil {
				target.layout = pass.FinalLayout
			}
			target = nil
		}
	}
}

// QueueWaitIdle implements gpucore.Device.
func (d *Device) QueueWaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.QueueWaitIdles++
	return d.call("QueueWaitIdle")
}

// WaitIdle implements gpucore.Device.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.DeviceWaitIdles++
	return d.call("WaitIdle")
}

// Destroy implements gpucore.Device. Objects still alive are reported as
// violations.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		d.violatef("device destroyed twice")
		return
	}
	d.trace = append(d.trace, "Destroy")
	d.destroyed = true
	if len(d.live) > 0 {
		kinds := make([]string, 0, len(d.live))
		for _, k := range d.live {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		d.violatef("device destroyed with %d live objects: %v", len(d.live), kinds)
	}
}
