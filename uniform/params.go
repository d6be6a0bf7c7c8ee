// Package uniform defines the depth-flow parameter block and its std140
// byte layout.
//
// The layout is consumed verbatim by the fragment shader: 32 float32
// values, every vec2 starting on an 8-byte boundary, 128 bytes in total.
// Any change to field order here silently corrupts rendering.
package uniform

import (
	"encoding/binary"
	"errors"
	"math"
)

// Size is the encoded size of Params in bytes.
const Size = 128

// Byte offsets of the fields written by the engine and the host.
const (
	OffsetHeight     = 0
	OffsetSteady     = 4
	OffsetFocus      = 8
	OffsetZoom       = 12
	OffsetIsometric  = 16
	OffsetDolly      = 20
	OffsetInvert     = 24
	OffsetMirror     = 28
	OffsetOffset     = 32
	OffsetCenter     = 40
	OffsetOrigin     = 48
	OffsetTime       = 56
	OffsetAspect     = 60
	OffsetScreenSize = 64
	OffsetImageSize  = 72
	OffsetInpaint    = 80
	OffsetQuality    = 84
	OffsetVignette   = 88
	OffsetSaturation = 92
	OffsetContrast   = 96
	OffsetBrightness = 100
	OffsetGamma      = 104
	OffsetSepia      = 108
	OffsetGrayscale  = 112
)

// ErrShortBuffer is returned by Decode when fewer than Size bytes are given.
var ErrShortBuffer = errors.New("uniform: buffer shorter than parameter block")

// Vec2 is a std140 vec2.
type Vec2 struct {
	X, Y float32
}

// Params is the parameter block read by the depth-flow fragment shader.
type Params struct {
	Height    float32
	Steady    float32
	Focus     float32
	Zoom      float32
	Isometric float32
	Dolly     float32
	Invert    float32
	Mirror    float32

	Offset Vec2
	Center Vec2
	Origin Vec2
	Time   float32
	Aspect float32

	ScreenSize Vec2
	ImageSize  Vec2

	Inpaint    float32
	Quality    float32
	Vignette   float32
	Saturation float32
	Contrast   float32
	Brightness float32
	Gamma      float32
	Sepia      float32
	Grayscale  float32

	pad [3]float32
}

// Defaults returns the parameters a freshly initialized engine starts with.
// Fields not listed are zero.
func Defaults() Params {
	return Params{
		Height:  0.05,
		Steady:  0.5,
		Zoom:    1.0,
		Quality: 0.5,
		Inpaint: 0.01,
	}
}

// SetMotion overwrites the host-driven camera fields. Values are stored
// as given; range enforcement belongs to the caller.
func (p *Params) SetMotion(panX, panY, zoom, height float32) {
	p.Offset.X = panX
	p.Offset.Y = panY
	p.Zoom = zoom
	p.Height = height
}

// fields lists every float in layout order.
func (p *Params) fields() [Size / 4]*float32 {
	return [Size / 4]*float32{
		&p.Height, &p.Steady, &p.Focus, &p.Zoom,
		&p.Isometric, &p.Dolly, &p.Invert, &p.Mirror,
		&p.Offset.X, &p.Offset.Y, &p.Center.X, &p.Center.Y,
		&p.Origin.X, &p.Origin.Y, &p.Time, &p.Aspect,
		&p.ScreenSize.X, &p.ScreenSize.Y, &p.ImageSize.X, &p.ImageSize.Y,
		&p.Inpaint, &p.Quality, &p.Vignette, &p.Saturation,
		&p.Contrast, &p.Brightness, &p.Gamma, &p.Sepia,
		&p.Grayscale, &p.pad[0], &p.pad[1], &p.pad[2],
	}
}

// Encode writes the std140 representation of p into dst, which must hold
// at least Size bytes. Float bits are copied unchanged, so signed zeros and
// NaN payloads survive.
func (p *Params) Encode(dst []byte) {
	_ = dst[Size-1]
	for i, f := range p.fields() {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(*f))
	}
}

// Bytes returns the std140 representation of p.
func (p *Params) Bytes() []byte {
	b := make([]byte, Size)
	p.Encode(b)
	return b
}

// Decode parses a std140 parameter block.
func Decode(b []byte) (Params, error) {
	var p Params
	if len(b) < Size {
		return p, ErrShortBuffer
	}
	for i, f := range p.fields() {
		*f = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return p, nil
}
