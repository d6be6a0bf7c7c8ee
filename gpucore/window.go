package gpucore

// Window is a native window handle supplied by the host application.
//
// Handles are raw platform pointers owned by the host; the backend never
// releases them.
type Window interface {
	// Platform names the windowing system ("android", "xlib", ...).
	Platform() string
}

// AndroidWindow is an ANativeWindow*.
type AndroidWindow struct {
	Window uintptr
}

// Platform implements Window.
func (AndroidWindow) Platform() string { return "android" }

// XlibWindow is an X11 Display* and Window ID.
type XlibWindow struct {
	Display uintptr
	Window  uintptr
}

// Platform implements Window.
func (XlibWindow) Platform() string { return "xlib" }

// WaylandWindow is a wl_display* and wl_surface*.
type WaylandWindow struct {
	Display uintptr
	Surface uintptr
}

// Platform implements Window.
func (WaylandWindow) Platform() string { return "wayland" }

// Win32Window is an HINSTANCE and HWND.
type Win32Window struct {
	Instance uintptr
	Window   uintptr
}

// Platform implements Window.
func (Win32Window) Platform() string { return "win32" }

// HeadlessWindow is an offscreen target of a fixed size, accepted only by
// backends without a presentation engine.
type HeadlessWindow struct {
	Width  uint32
	Height uint32
}

// Platform implements Window.
func (HeadlessWindow) Platform() string { return "headless" }
