package depthflow

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/depthflow/asset"
	"github.com/gogpu/depthflow/backend/noop"
	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/depthflow/uniform"
)

// testSPIRV is a bare SPIR-V 1.0 header.
var testSPIRV = []byte{
	0x03, 0x02, 0x23, 0x07,
	0x00, 0x00, 0x01, 0x00,
	0, 0, 0, 0,
	0, 0, 0, 0,
	0, 0, 0, 0,
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func testAssets(t *testing.T) asset.Map {
	t.Helper()
	return asset.Map{
		asset.NameImage:           testPNG(t, 6, 3),
		asset.NameDepth:           testPNG(t, 6, 3),
		asset.NameBackgroundImage: testPNG(t, 6, 3),
		asset.NameBackgroundDepth: testPNG(t, 6, 3),
		asset.NameSubjectMask:     testPNG(t, 6, 3),
		asset.NameVertexShader:    testSPIRV,
		asset.NameFragmentShader:  testSPIRV,
	}
}

// stepClock advances by 16ms on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(16 * time.Millisecond)
	return c.now
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *noop.Backend) {
	t.Helper()
	b := noop.New(noop.Config{})
	clock := &stepClock{now: time.Unix(0, 0)}
	opts = append([]Option{WithBackendInstance(b), WithClock(clock.Now)}, opts...)
	e := New(opts...)
	t.Cleanup(func() {
		e.Teardown()
		for _, dev := range b.Devices() {
			if !dev.Destroyed() {
				t.Errorf("device not destroyed after Teardown")
			}
			if v := dev.Violations(); len(v) != 0 {
				t.Errorf("violations: %v", v)
			}
		}
	})
	return e, b
}

func initialize(t *testing.T, e *Engine, assets asset.Provider) {
	t.Helper()
	if !e.Initialize(assets, gpucore.HeadlessWindow{Width: 320, Height: 240}) {
		t.Fatalf("Initialize failed: %v", e.Err())
	}
}

func uploaded(t *testing.T, b *noop.Backend) uniform.Params {
	t.Helper()
	raw, ok := b.Last().BoundUniform()
	if !ok {
		t.Fatal("no uniform buffer bound")
	}
	p, err := uniform.Decode(raw)
	if err != nil {
		t.Fatalf("uniform.Decode: %v", err)
	}
	return p
}

func TestInitializeAllAssets(t *testing.T) {
	e, _ := newTestEngine(t)
	initialize(t, e, testAssets(t))

	if e.State() != StateReady {
		t.Errorf("State() = %s, want Ready", e.State())
	}
	if err := e.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
	p := e.Params()
	if p.Height != 0.05 {
		t.Errorf("Height = %v, want 0.05", p.Height)
	}
	if p != uniform.Defaults() {
		t.Errorf("Params() = %+v, want defaults", p)
	}
	s := e.Stats()
	if s.Adapter != "noop" {
		t.Errorf("Adapter = %q, want noop", s.Adapter)
	}
	if s.Width != 320 || s.Height != 240 {
		t.Errorf("extent = %dx%d, want 320x240", s.Width, s.Height)
	}
	if len(s.Placeholders) != 0 {
		t.Errorf("Placeholders = %v, want none", s.Placeholders)
	}
}

func TestInitializeMissingDepth(t *testing.T) {
	e, b := newTestEngine(t)
	assets := testAssets(t)
	delete(assets, asset.NameDepth)
	initialize(t, e, assets)

	if got := e.Stats().Placeholders; got["depth"] != "missing" || len(got) != 1 {
		t.Errorf("Placeholders = %v, want depth=missing", got)
	}
	tex, ok := b.Last().BoundTexture(1)
	if !ok {
		t.Fatal("depth texture not bound")
	}
	if tex.Width != 1 || tex.Height != 1 {
		t.Errorf("depth texture = %dx%d, want 1x1", tex.Width, tex.Height)
	}

	for i := 0; i < 3; i++ {
		e.DrawFrame()
	}
	if s := e.Stats(); s.Frames != 3 || s.Skipped != 0 {
		t.Errorf("Frames = %d, Skipped = %d, want 3, 0", s.Frames, s.Skipped)
	}
}

func TestSetParametersThenDraw(t *testing.T) {
	e, b := newTestEngine(t)
	initialize(t, e, testAssets(t))

	e.SetParameters(0.1, -0.2, 1.5, 0.08)
	e.DrawFrame()

	p := uploaded(t, b)
	if p.Offset.X != 0.1 || p.Offset.Y != -0.2 {
		t.Errorf("offset = %v, want (0.1, -0.2)", p.Offset)
	}
	if p.Zoom != 1.5 || p.Height != 0.08 {
		t.Errorf("zoom, height = %v, %v, want 1.5, 0.08", p.Zoom, p.Height)
	}
	if p.ScreenSize != (uniform.Vec2{X: 320, Y: 240}) {
		t.Errorf("ScreenSize = %v, want 320x240", p.ScreenSize)
	}
	if p.ImageSize != (uniform.Vec2{X: 6, Y: 3}) {
		t.Errorf("ImageSize = %v, want 6x3", p.ImageSize)
	}
}

func TestDrawFrameTimeIncreases(t *testing.T) {
	e, b := newTestEngine(t)
	initialize(t, e, testAssets(t))

	e.DrawFrame()
	first := uploaded(t, b).Time
	e.DrawFrame()
	second := uploaded(t, b).Time
	if !(second > first) {
		t.Errorf("second time %v not greater than first %v", second, first)
	}
	if got := e.Params().Time; got != second {
		t.Errorf("Params().Time = %v, want %v", got, second)
	}
}

func TestOneFrameInFlight(t *testing.T) {
	e, b := newTestEngine(t)
	initialize(t, e, testAssets(t))

	before := b.Last().Stats()
	const frames = 5
	for i := 0; i < frames; i++ {
		e.DrawFrame()
	}
	after := b.Last().Stats()

	if got := after.FenceWaits - before.FenceWaits; got != frames {
		t.Errorf("fence waits = %d, want %d", got, frames)
	}
	if got := after.QueueWaitIdles - before.QueueWaitIdles; got != frames {
		t.Errorf("queue idle waits = %d, want %d", got, frames)
	}
	if got := after.Presents - before.Presents; got != frames {
		t.Errorf("presents = %d, want %d", got, frames)
	}
	if got := after.Submits - before.Submits; got != frames {
		t.Errorf("submits = %d, want %d", got, frames)
	}
}

func TestNotReadyIsNoop(t *testing.T) {
	e, b := newTestEngine(t)

	e.SetParameters(1, 1, 2, 0.1)
	e.DrawFrame()
	e.Resize()

	if e.State() != StateUninitialized {
		t.Errorf("State() = %s, want Uninitialized", e.State())
	}
	if !errors.Is(e.Err(), ErrNotReady) {
		t.Errorf("Err() = %v, want ErrNotReady", e.Err())
	}
	if len(b.Devices()) != 0 {
		t.Error("device opened without Initialize")
	}
	if e.Params() != uniform.Defaults() {
		t.Error("SetParameters changed parameters before Initialize")
	}
	if s := e.Stats(); s.Frames != 0 || s.Adapter != "" {
		t.Errorf("Stats() = %+v, want zero", s)
	}
}

func TestInitializeIdempotent(t *testing.T) {
	e, b := newTestEngine(t)
	initialize(t, e, testAssets(t))
	e.SetParameters(0.3, 0.3, 2, 0.1)

	if !e.Initialize(nil, gpucore.HeadlessWindow{}) {
		t.Fatal("second Initialize returned false")
	}
	if n := len(b.Devices()); n != 1 {
		t.Errorf("devices opened = %d, want 1", n)
	}
	if e.Params().Zoom != 2 {
		t.Error("second Initialize reset parameters")
	}
}

func TestInitializeShaderMissing(t *testing.T) {
	e, b := newTestEngine(t)
	assets := testAssets(t)
	delete(assets, asset.NameFragmentShader)

	if e.Initialize(assets, gpucore.HeadlessWindow{}) {
		t.Fatal("Initialize succeeded without fragment shader")
	}
	if e.State() != StateFailed {
		t.Errorf("State() = %s, want Failed", e.State())
	}
	if !errors.Is(e.Err(), ErrShaderMissing) {
		t.Errorf("Err() = %v, want ErrShaderMissing", e.Err())
	}
	dev := b.Last()
	if dev == nil || !dev.Destroyed() {
		t.Fatal("device not destroyed after failed Initialize")
	}
	if n := dev.Live(); n != 0 {
		t.Errorf("live objects = %d: %v", n, dev.LiveKinds())
	}

	// Failed engines stay inert until initialized again.
	e.DrawFrame()
	if got := dev.Stats().Submits; got != 0 {
		t.Errorf("submits after failed Initialize = %d", got)
	}

	initialize(t, e, testAssets(t))
	if e.State() != StateReady {
		t.Errorf("State() after retry = %s, want Ready", e.State())
	}
	if n := len(b.Devices()); n != 2 {
		t.Errorf("devices opened = %d, want 2", n)
	}
}

func TestInitializeOpenFailure(t *testing.T) {
	openErr := errors.New("no driver")
	e := New(WithBackendInstance(noop.New(noop.Config{OpenErr: openErr})))
	if e.Initialize(testAssets(t), gpucore.HeadlessWindow{}) {
		t.Fatal("Initialize succeeded")
	}
	if !errors.Is(e.Err(), openErr) {
		t.Errorf("Err() = %v, want %v", e.Err(), openErr)
	}
	e.Teardown()
	if e.State() != StateUninitialized {
		t.Errorf("State() after Teardown = %s", e.State())
	}
}

func TestInitializeNoMemoryType(t *testing.T) {
	b := noop.New(noop.Config{
		MemoryTypes: []gpucore.MemoryType{{Properties: gpucore.MemoryPropertyDeviceLocal}},
	})
	e := New(WithBackendInstance(b))
	if e.Initialize(testAssets(t), gpucore.HeadlessWindow{Width: 320, Height: 240}) {
		t.Fatal("Initialize succeeded without a host-visible memory type")
	}
	if !errors.Is(e.Err(), ErrNoMemoryType) {
		t.Errorf("Err() = %v, want ErrNoMemoryType", e.Err())
	}
	if e.State() != StateFailed {
		t.Errorf("State() = %s, want Failed", e.State())
	}
	for _, dev := range b.Devices() {
		if !dev.Destroyed() {
			t.Error("device left open after failed Initialize")
		}
	}
}

func TestInitializeUnknownBackend(t *testing.T) {
	e := New(WithBackend("no-such-backend"))
	if e.Initialize(testAssets(t), gpucore.HeadlessWindow{}) {
		t.Fatal("Initialize succeeded")
	}
	if !errors.Is(e.Err(), ErrBackendNotAvailable) {
		t.Errorf("Err() = %v, want ErrBackendNotAvailable", e.Err())
	}
}

func TestTeardownReleasesEverything(t *testing.T) {
	e, b := newTestEngine(t)
	initialize(t, e, testAssets(t))
	e.DrawFrame()

	dev := b.Last()
	e.Teardown()

	if e.State() != StateUninitialized {
		t.Errorf("State() = %s, want Uninitialized", e.State())
	}
	if n := dev.Live(); n != 0 {
		t.Errorf("live objects = %d: %v", n, dev.LiveKinds())
	}
	if !dev.Destroyed() {
		t.Error("device not destroyed")
	}
	if dev.Stats().DeviceWaitIdles == 0 {
		t.Error("Teardown did not wait for the device")
	}

	// Teardown twice is harmless.
	e.Teardown()
}

func TestReinitializeAfterTeardown(t *testing.T) {
	e, b := newTestEngine(t)
	initialize(t, e, testAssets(t))
	e.SetParameters(0.5, 0.5, 3, 0.2)
	e.Teardown()

	initialize(t, e, testAssets(t))
	if e.Params() != uniform.Defaults() {
		t.Errorf("Params() after reinitialize = %+v, want defaults", e.Params())
	}
	if n := len(b.Devices()); n != 2 {
		t.Errorf("devices opened = %d, want 2", n)
	}
}

func TestSceneFromAssets(t *testing.T) {
	e, _ := newTestEngine(t)
	assets := testAssets(t)
	assets[asset.NameScene] = []byte(`{"zoom": 1.25, "isometric": 0.4, "offset_x": 0.1}`)
	initialize(t, e, assets)

	p := e.Params()
	if p.Zoom != 1.25 || p.Isometric != 0.4 || p.Offset.X != 0.1 {
		t.Errorf("scene not applied: zoom=%v isometric=%v offset=%v", p.Zoom, p.Isometric, p.Offset)
	}
	if p.Height != 0.05 {
		t.Errorf("Height = %v, want default 0.05", p.Height)
	}
}

func TestSceneOption(t *testing.T) {
	e, _ := newTestEngine(t, WithScene(asset.Scene{Height: asset.Float(0.12)}))
	assets := testAssets(t)
	assets[asset.NameScene] = []byte(`{"height": 0.3}`)
	initialize(t, e, assets)

	if got := e.Params().Height; got != 0.12 {
		t.Errorf("Height = %v, want 0.12 from WithScene", got)
	}
}

func TestSceneInvalidIgnored(t *testing.T) {
	e, _ := newTestEngine(t)
	assets := testAssets(t)
	assets[asset.NameScene] = []byte(`{not json`)
	initialize(t, e, assets)

	if e.Params() != uniform.Defaults() {
		t.Errorf("Params() = %+v, want defaults", e.Params())
	}
}

func TestResizeRebuilds(t *testing.T) {
	e, b := newTestEngine(t)
	initialize(t, e, testAssets(t))
	e.DrawFrame()

	b.Last().SetExtent(gpucore.Extent2D{Width: 800, Height: 600})
	e.Resize()
	e.DrawFrame()

	s := e.Stats()
	if s.Width != 800 || s.Height != 600 {
		t.Errorf("extent = %dx%d, want 800x600", s.Width, s.Height)
	}
	if s.Rebuilds != 1 {
		t.Errorf("Rebuilds = %d, want 1", s.Rebuilds)
	}
	if p := uploaded(t, b); p.ScreenSize != (uniform.Vec2{X: 800, Y: 600}) {
		t.Errorf("ScreenSize = %v, want 800x600", p.ScreenSize)
	}
}

func TestDrawFrameDropsOnAcquireFailure(t *testing.T) {
	e, b := newTestEngine(t)
	initialize(t, e, testAssets(t))

	b.Last().FailNext("AcquireNextImage", gpucore.ErrOutOfDate)
	e.DrawFrame()
	e.DrawFrame()

	s := e.Stats()
	if s.Skipped != 1 || s.Frames != 1 {
		t.Errorf("Frames = %d, Skipped = %d, want 1, 1", s.Frames, s.Skipped)
	}
	if e.State() != StateReady {
		t.Errorf("State() = %s, want Ready", e.State())
	}
}

func TestMemoryBudgetOption(t *testing.T) {
	e, _ := newTestEngine(t, WithMemoryBudget(16))
	if e.Initialize(testAssets(t), gpucore.HeadlessWindow{}) {
		t.Fatal("Initialize succeeded within a 16 byte budget")
	}
	if !errors.Is(e.Err(), ErrMemoryBudgetExceeded) {
		t.Errorf("Err() = %v, want ErrMemoryBudgetExceeded", e.Err())
	}
}

func TestConcurrentCalls(t *testing.T) {
	e, _ := newTestEngine(t)
	initialize(t, e, testAssets(t))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				e.SetParameters(float32(i), float32(j), 1, 0.05)
				e.DrawFrame()
				_ = e.Stats()
			}
		}(i)
	}
	wg.Wait()

	if got := e.Stats().Frames; got != 40 {
		t.Errorf("Frames = %d, want 40", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateUninitialized, "Uninitialized"},
		{StateReady, "Ready"},
		{StateFailed, "Failed"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int32(tt.s), got, tt.want)
		}
	}
}
