package uniform

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestDefaults(t *testing.T) {
	p := Defaults()
	if p.Height != 0.05 || p.Steady != 0.5 || p.Zoom != 1.0 || p.Quality != 0.5 || p.Inpaint != 0.01 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	b := p.Bytes()
	for _, off := range []int{OffsetFocus, OffsetIsometric, OffsetDolly, OffsetTime, OffsetAspect, OffsetGrayscale} {
		if v := binary.LittleEndian.Uint32(b[off:]); v != 0 {
			t.Errorf("field at offset %d = %#x, want 0", off, v)
		}
	}
}

func TestFieldOffsets(t *testing.T) {
	tests := []struct {
		name   string
		set    func(p *Params, v float32)
		offset int
	}{
		{"height", func(p *Params, v float32) { p.Height = v }, OffsetHeight},
		{"steady", func(p *Params, v float32) { p.Steady = v }, OffsetSteady},
		{"focus", func(p *Params, v float32) { p.Focus = v }, OffsetFocus},
		{"zoom", func(p *Params, v float32) { p.Zoom = v }, OffsetZoom},
		{"isometric", func(p *Params, v float32) { p.Isometric = v }, OffsetIsometric},
		{"dolly", func(p *Params, v float32) { p.Dolly = v }, OffsetDolly},
		{"invert", func(p *Params, v float32) { p.Invert = v }, OffsetInvert},
		{"mirror", func(p *Params, v float32) { p.Mirror = v }, OffsetMirror},
		{"offset.x", func(p *Params, v float32) { p.Offset.X = v }, OffsetOffset},
		{"offset.y", func(p *Params, v float32) { p.Offset.Y = v }, OffsetOffset + 4},
		{"center.x", func(p *Params, v float32) { p.Center.X = v }, OffsetCenter},
		{"center.y", func(p *Params, v float32) { p.Center.Y = v }, OffsetCenter + 4},
		{"origin.x", func(p *Params, v float32) { p.Origin.X = v }, OffsetOrigin},
		{"origin.y", func(p *Params, v float32) { p.Origin.Y = v }, OffsetOrigin + 4},
		{"time", func(p *Params, v float32) { p.Time = v }, OffsetTime},
		{"aspect", func(p *Params, v float32) { p.Aspect = v }, OffsetAspect},
		{"screen.x", func(p *Params, v float32) { p.ScreenSize.X = v }, OffsetScreenSize},
		{"screen.y", func(p *Params, v float32) { p.ScreenSize.Y = v }, OffsetScreenSize + 4},
		{"image.x", func(p *Params, v float32) { p.ImageSize.X = v }, OffsetImageSize},
		{"image.y", func(p *Params, v float32) { p.ImageSize.Y = v }, OffsetImageSize + 4},
		{"inpaint", func(p *Params, v float32) { p.Inpaint = v }, OffsetInpaint},
		{"quality", func(p *Params, v float32) { p.Quality = v }, OffsetQuality},
		{"vignette", func(p *Params, v float32) { p.Vignette = v }, OffsetVignette},
		{"saturation", func(p *Params, v float32) { p.Saturation = v }, OffsetSaturation},
		{"contrast", func(p *Params, v float32) { p.Contrast = v }, OffsetContrast},
		{"brightness", func(p *Params, v float32) { p.Brightness = v }, OffsetBrightness},
		{"gamma", func(p *Params, v float32) { p.Gamma = v }, OffsetGamma},
		{"sepia", func(p *Params, v float32) { p.Sepia = v }, OffsetSepia},
		{"grayscale", func(p *Params, v float32) { p.Grayscale = v }, OffsetGrayscale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Params
			tt.set(&p, 1234.5)
			b := p.Bytes()
			for off := 0; off < Size; off += 4 {
				got := binary.LittleEndian.Uint32(b[off:])
				want := uint32(0)
				if off == tt.offset {
					want = math.Float32bits(1234.5)
				}
				if got != want {
					t.Errorf("offset %d = %#x, want %#x", off, got, want)
				}
			}
		})
	}
}

func TestVec2Alignment(t *testing.T) {
	for _, off := range []int{OffsetOffset, OffsetCenter, OffsetOrigin, OffsetScreenSize, OffsetImageSize} {
		if off%8 != 0 {
			t.Errorf("vec2 at offset %d is not 8-byte aligned", off)
		}
	}
	if Size%16 != 0 {
		t.Errorf("Size %d is not a multiple of 16", Size)
	}
}

func TestEncodePreservesBits(t *testing.T) {
	negZero := float32(math.Copysign(0, -1))
	nanPayload := math.Float32frombits(0x7fc00123)
	values := []float32{
		0, negZero,
		math.MaxFloat32, -math.MaxFloat32,
		math.SmallestNonzeroFloat32,
		float32(math.Inf(1)), float32(math.Inf(-1)),
		float32(math.NaN()), nanPayload,
		1e30, -1e-30,
	}
	for _, v := range values {
		var p Params
		p.SetMotion(v, v, v, v)
		p.Time = v
		p.Gamma = v

		b := p.Bytes()
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		for name, pair := range map[string][2]float32{
			"offset.x": {got.Offset.X, v},
			"offset.y": {got.Offset.Y, v},
			"zoom":     {got.Zoom, v},
			"height":   {got.Height, v},
			"time":     {got.Time, v},
			"gamma":    {got.Gamma, v},
		} {
			if math.Float32bits(pair[0]) != math.Float32bits(pair[1]) {
				t.Errorf("%s: bits %#x, want %#x", name, math.Float32bits(pair[0]), math.Float32bits(pair[1]))
			}
		}
		if !bytes.Equal(got.Bytes(), b) {
			t.Errorf("value %v: re-encoded bytes differ", v)
		}
	}
}

func TestEncodeStable(t *testing.T) {
	p := Defaults()
	p.SetMotion(0.1, -0.2, 1.5, 0.08)
	p.ScreenSize = Vec2{1080, 2400}
	p.ImageSize = Vec2{512, 512}
	if !bytes.Equal(p.Bytes(), p.Bytes()) {
		t.Fatal("encoding is not deterministic")
	}
	dst := make([]byte, Size+8)
	p.Encode(dst)
	if !bytes.Equal(dst[:Size], p.Bytes()) {
		t.Error("Encode into larger buffer differs from Bytes")
	}
	if !bytes.Equal(dst[Size:], make([]byte, 8)) {
		t.Error("Encode wrote past Size")
	}
}

func TestSetMotion(t *testing.T) {
	p := Defaults()
	p.SetMotion(0.1, -0.2, 1.5, 0.08)
	if p.Offset.X != 0.1 || p.Offset.Y != -0.2 || p.Zoom != 1.5 || p.Height != 0.08 {
		t.Errorf("SetMotion not applied: %+v", p)
	}
	if p.Steady != 0.5 || p.Quality != 0.5 {
		t.Error("SetMotion touched unrelated fields")
	}

	// No clamping.
	p.SetMotion(-100, 100, -3, 42)
	if p.Offset.X != -100 || p.Zoom != -3 || p.Height != 42 {
		t.Errorf("values were clamped: %+v", p)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, Size-1))
	if !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Decode(short) error = %v, want ErrShortBuffer", err)
	}
}
