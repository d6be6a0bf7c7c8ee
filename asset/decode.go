package asset

import (
	"bytes"
	"image"

	// Registered image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
)

// MaxDimension bounds decoded image width and height.
const MaxDimension = 16384

// Pixels is a tightly packed, non-premultiplied RGBA8 image.
type Pixels struct {
	Width  int
	Height int
	Pix    []byte
}

// Decode converts an encoded image into RGBA8 pixels.
//
// It returns nil when the data cannot be decoded or the image is empty or
// larger than MaxDimension on either axis.
func Decode(data []byte) *Pixels {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return FromImage(img)
}

// FromImage converts any image to RGBA8 pixels.
func FromImage(img image.Image) *Pixels {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok && src.Stride == 4*b.Dx() {
		copy(dst.Pix, src.Pix[src.PixOffset(b.Min.X, b.Min.Y):])
	} else {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	}

	return &Pixels{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// Solid returns a w×h image filled with one opaque color.
func Solid(w, h int, r, g, b uint8) *Pixels {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, 255
	}
	return &Pixels{Width: w, Height: h, Pix: pix}
}
