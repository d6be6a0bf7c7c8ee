package vulkan

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/gogpu/depthflow/backend"
	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal/vulkan/vk"
)

// init registers the vulkan backend on package import.
func init() {
	backend.Register(backend.BackendVulkan, func() gpucore.Backend { return Backend{} })
}

// applicationName is reported to the driver.
const applicationName = "depthflow\x00"

// Backend opens Vulkan devices.
type Backend struct{}

// Name implements gpucore.Backend.
func (Backend) Name() string { return backend.BackendVulkan }

// Open implements gpucore.Backend. A single attempt is made; on failure
// everything created so far is destroyed.
func (Backend) Open(window gpucore.Window) (dev gpucore.Device, err error) {
	ext, err := surfaceExtension(window)
	if err != nil {
		return nil, err
	}

	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vulkan: load loader: %w", err)
	}
	cmds := vk.NewCommands()
	if err := cmds.LoadGlobal(); err != nil {
		return nil, fmt.Errorf("vulkan: load global commands: %w", err)
	}

	d := &Device{cmds: cmds}
	defer func() {
		if err != nil {
			d.Destroy()
		}
	}()

	if err := d.createInstance(ext); err != nil {
		return nil, err
	}
	if err := d.createSurface(window); err != nil {
		return nil, err
	}
	if err := d.pickAdapter(); err != nil {
		return nil, err
	}
	if err := d.createDevice(); err != nil {
		return nil, err
	}

	slogger().Info("vulkan: device opened",
		"adapter", d.info.Name, "type", d.info.Type.String(), "family", d.family, "window", window.Platform())
	return d, nil
}

// surfaceExtension returns the instance extension that creates surfaces
// for window.
func surfaceExtension(window gpucore.Window) (string, error) {
	switch window.(type) {
	case gpucore.AndroidWindow:
		return "VK_KHR_android_surface\x00", nil
	case gpucore.XlibWindow:
		return "VK_KHR_xlib_surface\x00", nil
	case gpucore.WaylandWindow:
		return "VK_KHR_wayland_surface\x00", nil
	case gpucore.Win32Window:
		return "VK_KHR_win32_surface\x00", nil
	case nil:
		return "", fmt.Errorf("%w: nil window", gpucore.ErrUnsupportedWindow)
	default:
		return "", fmt.Errorf("%w: %s", gpucore.ErrUnsupportedWindow, window.Platform())
	}
}

func cStrings(names []string) []uintptr {
	ptrs := make([]uintptr, len(names))
	for i, n := range names {
		ptrs[i] = uintptr(unsafe.Pointer(unsafe.StringData(n)))
	}
	return ptrs
}

func (d *Device) createInstance(surfaceExt string) error {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   uintptr(unsafe.Pointer(unsafe.StringData(applicationName))),
		ApplicationVersion: makeVersion(1, 0, 0),
		PEngineName:        uintptr(unsafe.Pointer(unsafe.StringData(applicationName))),
		EngineVersion:      makeVersion(1, 0, 0),
		ApiVersion:         makeVersion(1, 0, 0),
	}
	extensions := []string{"VK_KHR_surface\x00", surfaceExt}
	extPtrs := cStrings(extensions)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extPtrs)),
		PpEnabledExtensionNames: uintptr(unsafe.Pointer(&extPtrs[0])),
	}
	result := d.cmds.CreateInstance(&createInfo, nil, &d.instance)
	runtime.KeepAlive(extensions)
	runtime.KeepAlive(extPtrs)
	if err := check("vkCreateInstance", result); err != nil {
		return err
	}

	if err := d.cmds.LoadInstance(d.instance); err != nil {
		return fmt.Errorf("vulkan: load instance commands: %w", err)
	}
	vk.SetDeviceProcAddr(d.instance)
	slogger().Debug("vulkan: instance created", "extension", surfaceExt[:len(surfaceExt)-1])
	return nil
}

// createSurface creates the presentation surface for window. Native
// handles are written straight into the pointer-typed fields.
func (d *Device) createSurface(window gpucore.Window) error {
	var result vk.Result
	switch w := window.(type) {
	case gpucore.AndroidWindow:
		ci := vk.AndroidSurfaceCreateInfoKHR{SType: vk.StructureTypeAndroidSurfaceCreateInfoKhr}
		*(*uintptr)(unsafe.Pointer(&ci.Window)) = w.Window
		result = createAndroidSurface(d.instance, &ci, &d.surface)
	case gpucore.XlibWindow:
		ci := vk.XlibSurfaceCreateInfoKHR{
			SType:  vk.StructureTypeXlibSurfaceCreateInfoKhr,
			Window: vk.XlibWindow(w.Window),
		}
		*(*uintptr)(unsafe.Pointer(&ci.Dpy)) = w.Display
		result = d.cmds.CreateXlibSurfaceKHR(d.instance, &ci, nil, &d.surface)
	case gpucore.WaylandWindow:
		ci := vk.WaylandSurfaceCreateInfoKHR{SType: vk.StructureTypeWaylandSurfaceCreateInfoKhr}
		*(*uintptr)(unsafe.Pointer(&ci.Display)) = w.Display
		*(*uintptr)(unsafe.Pointer(&ci.Surface)) = w.Surface
		result = d.cmds.CreateWaylandSurfaceKHR(d.instance, &ci, nil, &d.surface)
	case gpucore.Win32Window:
		ci := vk.Win32SurfaceCreateInfoKHR{
			SType:     vk.StructureTypeWin32SurfaceCreateInfoKhr,
			Hinstance: w.Instance,
			Hwnd:      w.Window,
		}
		result = d.cmds.CreateWin32SurfaceKHR(d.instance, &ci, nil, &d.surface)
	default:
		return fmt.Errorf("%w: %s", gpucore.ErrUnsupportedWindow, window.Platform())
	}
	if err := check("vkCreateSurfaceKHR", result); err != nil {
		return err
	}
	if d.surface == 0 {
		return errors.New("vulkan: surface creation returned a null handle")
	}
	return nil
}

// pickAdapter takes the first physical device and its first graphics
// queue family, preferring a family that can also present to the surface.
func (d *Device) pickAdapter() error {
	var count uint32
	if err := check("vkEnumeratePhysicalDevices", d.cmds.EnumeratePhysicalDevices(d.instance, &count, nil)); err != nil {
		return err
	}
	if count == 0 {
		return gpucore.ErrNoAdapter
	}
	devices := make([]vk.PhysicalDevice, count)
	result := d.cmds.EnumeratePhysicalDevices(d.instance, &count, &devices[0])
	if result != vk.Success && result != vk.Incomplete {
		return check("vkEnumeratePhysicalDevices", result)
	}
	d.physical = devices[0]

	var props vk.PhysicalDeviceProperties
	d.cmds.GetPhysicalDeviceProperties(d.physical, &props)
	d.info = gpucontext.AdapterInfo{
		Name: cString(props.DeviceName[:]),
		Type: adapterType(props.DeviceType),
	}

	var memProps vk.PhysicalDeviceMemoryProperties
	d.cmds.GetPhysicalDeviceMemoryProperties(d.physical, &memProps)
	d.memTypes = memoryTypes(&memProps)

	var famCount uint32
	d.cmds.GetPhysicalDeviceQueueFamilyProperties(d.physical, &famCount, nil)
	if famCount == 0 {
		return gpucore.ErrNoGraphicsQueue
	}
	families := make([]vk.QueueFamilyProperties, famCount)
	d.cmds.GetPhysicalDeviceQueueFamilyProperties(d.physical, &famCount, &families[0])

	graphics := -1
	for i, f := range families {
		if f.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 || f.QueueCount == 0 {
			continue
		}
		if graphics < 0 {
			graphics = i
		}
		var supported vk.Bool32
		d.cmds.GetPhysicalDeviceSurfaceSupportKHR(d.physical, uint32(i), d.surface, &supported)
		if supported == vk.True {
			graphics = i
			break
		}
	}
	if graphics < 0 {
		return gpucore.ErrNoGraphicsQueue
	}
	d.family = uint32(graphics)
	return nil
}

func (d *Device) createDevice() error {
	priority := float32(1)
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.family,
		QueueCount:       1,
		PQueuePriorities: &priority,
	}
	extensions := []string{"VK_KHR_swapchain\x00"}
	extPtrs := cStrings(extensions)

	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       &queueInfo,
		EnabledExtensionCount:   uint32(len(extPtrs)),
		PpEnabledExtensionNames: uintptr(unsafe.Pointer(&extPtrs[0])),
	}
	result := d.cmds.CreateDevice(d.physical, &createInfo, nil, &d.handle)
	runtime.KeepAlive(extensions)
	runtime.KeepAlive(extPtrs)
	if err := check("vkCreateDevice", result); err != nil {
		return err
	}

	if err := d.dcmds.LoadDevice(d.handle); err != nil {
		return fmt.Errorf("vulkan: load device commands: %w", err)
	}
	d.dcmds.GetDeviceQueue(d.handle, d.family, 0, &d.queue)
	return nil
}

// createAndroidSurface resolves vkCreateAndroidSurfaceKHR itself because
// instance command loading skips it.
func createAndroidSurface(instance vk.Instance, ci *vk.AndroidSurfaceCreateInfoKHR, surface *vk.SurfaceKHR) vk.Result {
	proc := vk.GetInstanceProcAddr(instance, "vkCreateAndroidSurfaceKHR")
	if proc == nil {
		return vk.ErrorExtensionNotPresent
	}
	var allocator *vk.AllocationCallbacks
	var result int32
	args := [4]unsafe.Pointer{
		unsafe.Pointer(&instance),
		unsafe.Pointer(&ci),
		unsafe.Pointer(&allocator),
		unsafe.Pointer(&surface),
	}
	if err := ffi.CallFunction(&vk.SigResultHandlePtrPtrPtr, proc, unsafe.Pointer(&result), args[:]); err != nil {
		return vk.ErrorInitializationFailed
	}
	return vk.Result(result)
}

func makeVersion(major, minor, patch uint32) uint32 {
	return major<<22 | minor<<12 | patch
}

// cString returns the NUL-terminated prefix of b.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func adapterType(t vk.PhysicalDeviceType) gpucontext.AdapterType {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return gpucontext.AdapterTypeDiscrete
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return gpucontext.AdapterTypeIntegrated
	case vk.PhysicalDeviceTypeCpu:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

func memoryTypes(props *vk.PhysicalDeviceMemoryProperties) []gpucore.MemoryType {
	n := min(props.MemoryTypeCount, uint32(len(props.MemoryTypes)))
	types := make([]gpucore.MemoryType, n)
	for i := range types {
		t := props.MemoryTypes[i]
		types[i] = gpucore.MemoryType{
			Properties: gpucore.MemoryProperty(t.PropertyFlags),
			HeapIndex:  t.HeapIndex,
		}
	}
	return types
}
