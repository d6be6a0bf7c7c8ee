package motion

import (
	"math"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
)

// Tuning constants.
const (
	// MinZoom is the starting zoom and the smallest zoom a pinch can reach.
	MinZoom float32 = 1.2

	// MaxZoom is the largest zoom a pinch can reach.
	MaxZoom float32 = 5.0

	// DefaultHeight is the depth displacement strength.
	DefaultHeight float32 = 0.05

	// TouchSensitivity converts dragged pixels to pan units.
	TouchSensitivity float32 = 0.003

	// TiltSensitivity converts radians of tilt to pan units.
	TiltSensitivity float32 = 3.0

	// BreathSpeed is the angular speed of the idle sway on X, in rad/s.
	// Y runs at 0.8 of it.
	BreathSpeed = 1.5

	// BreathAmplitude is the idle sway amplitude in pan units.
	BreathAmplitude = 0.3

	// PanLimit bounds each pan axis. It is derived from MinZoom rather than
	// the current zoom, so the reachable area does not grow when zooming in.
	PanLimit = (MinZoom-1)*1.5 + 1.0
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source for the breathing sway. A nil clock
// keeps time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHeight sets the depth displacement strength reported by Step.
func WithHeight(h float32) Option {
	return func(c *Controller) {
		c.height = h
	}
}

// Controller accumulates user input into pan, zoom and height.
//
// Input handlers and Step may be called from different goroutines.
type Controller struct {
	mu    sync.Mutex
	now   func() time.Time
	start time.Time

	// touch offset and the last position of each active pointer
	touchX, touchY float32
	pointers       map[int]gpucontext.Point

	// tilt offset and the reference orientation
	tiltX, tiltY      float32
	refPitch, refRoll float32
	haveReference     bool

	zoom   float32
	height float32
}

// NewController returns a controller at rest: no pan, MinZoom and
// DefaultHeight. The breathing clock starts now.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		now:      time.Now,
		pointers: make(map[int]gpucontext.Point),
		zoom:     MinZoom,
		height:   DefaultHeight,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.start = c.now()
	return c
}

// HandlePointer applies a pointer event. A drag with exactly one active
// pointer pans against the drag direction. With two or more pointers down
// moves only update the tracked positions, so lifting a finger after a
// pinch resumes panning from where the remaining finger is.
func (c *Controller) HandlePointer(ev gpucontext.PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := gpucontext.Point{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case gpucontext.PointerDown:
		c.pointers[ev.PointerID] = pos
	case gpucontext.PointerMove:
		last, ok := c.pointers[ev.PointerID]
		if !ok {
			return
		}
		if len(c.pointers) == 1 {
			c.touchX -= float32(pos.X-last.X) * TouchSensitivity
			c.touchY -= float32(pos.Y-last.Y) * TouchSensitivity
		}
		c.pointers[ev.PointerID] = pos
	case gpucontext.PointerUp, gpucontext.PointerCancel:
		delete(c.pointers, ev.PointerID)
	}
}

// HandleGesture applies a multi-pointer gesture. The zoom is multiplied by
// the gesture's zoom delta and kept within [MinZoom, MaxZoom].
func (c *Controller) HandleGesture(ev gpucontext.GestureEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.NumPointers < 2 {
		return
	}
	if ev.ZoomDelta <= 0 || math.IsNaN(ev.ZoomDelta) || math.IsInf(ev.ZoomDelta, 0) {
		return
	}
	c.zoom = clamp(c.zoom*float32(ev.ZoomDelta), MinZoom, MaxZoom)
}

// HandleOrientation applies a device orientation sample, in radians. The
// first sample becomes the reference; later samples tilt the view by
// their difference from it.
func (c *Controller) HandleOrientation(pitch, roll float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.haveReference {
		c.refPitch, c.refRoll = pitch, roll
		c.haveReference = true
	}
	c.tiltX = (roll - c.refRoll) * TiltSensitivity
	c.tiltY = -(pitch - c.refPitch) * TiltSensitivity
}

// Recenter makes the next orientation sample the new reference.
func (c *Controller) Recenter() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.haveReference = false
	c.tiltX, c.tiltY = 0, 0
}

// Touching reports whether any pointer is down.
func (c *Controller) Touching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pointers) > 0
}

// Zoom returns the current zoom.
func (c *Controller) Zoom() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// Step returns the camera for the next frame.
//
// The pan is the sum of the touch offset, the tilt offset and, while no
// pointer is down, the breathing sway, clamped to ±PanLimit per axis.
// When an axis is clamped the touch offset is pulled back so that
// dragging the other way responds at once.
func (c *Controller) Step() (panX, panY, zoom, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var breathX, breathY float32
	if len(c.pointers) == 0 {
		t := c.now().Sub(c.start).Seconds()
		breathX = float32(math.Sin(t*BreathSpeed) * BreathAmplitude)
		breathY = float32(math.Cos(t*BreathSpeed*0.8) * BreathAmplitude)
	}

	rawX := c.touchX + c.tiltX + breathX
	rawY := c.touchY + c.tiltY + breathY
	panX = clamp(rawX, -PanLimit, PanLimit)
	panY = clamp(rawY, -PanLimit, PanLimit)

	if panX != rawX {
		c.touchX = panX - c.tiltX - breathX
	}
	if panY != rawY {
		c.touchY = panY - c.tiltY - breathY
	}
	return panX, panY, c.zoom, c.height
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
