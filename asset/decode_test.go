package asset

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 128})

	px := Decode(encodePNG(t, src))
	if px == nil {
		t.Fatal("Decode returned nil")
	}
	if px.Width != 3 || px.Height != 2 || len(px.Pix) != 3*2*4 {
		t.Fatalf("got %dx%d with %d bytes", px.Width, px.Height, len(px.Pix))
	}
	if got := px.Pix[0:4]; !bytes.Equal(got, []byte{255, 0, 0, 255}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
	// Non-premultiplied alpha is preserved.
	off := (1*3 + 2) * 4
	if got := px.Pix[off : off+4]; !bytes.Equal(got, []byte{10, 20, 30, 128}) {
		t.Errorf("pixel (2,1) = %v", got)
	}
}

func TestDecodeGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(1, 1, color.Gray{Y: 200})

	px := Decode(encodePNG(t, src))
	if px == nil {
		t.Fatal("Decode returned nil")
	}
	off := (1*2 + 1) * 4
	if got := px.Pix[off : off+4]; !bytes.Equal(got, []byte{200, 200, 200, 255}) {
		t.Errorf("pixel (1,1) = %v", got)
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
		{"truncated png", []byte("\x89PNG\r\n\x1a\n\x00\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if px := Decode(tt.data); px != nil {
				t.Errorf("Decode = %dx%d, want nil", px.Width, px.Height)
			}
		})
	}
}

func TestFromImageSubImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(2, 2, color.NRGBA{G: 255, A: 255})
	sub := src.SubImage(image.Rect(2, 2, 4, 4))

	px := FromImage(sub)
	if px.Width != 2 || px.Height != 2 {
		t.Fatalf("got %dx%d, want 2x2", px.Width, px.Height)
	}
	if got := px.Pix[0:4]; !bytes.Equal(got, []byte{0, 255, 0, 255}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
}

func TestSolid(t *testing.T) {
	px := Solid(2, 3, 255, 255, 0)
	if px.Width != 2 || px.Height != 3 || len(px.Pix) != 24 {
		t.Fatalf("got %dx%d with %d bytes", px.Width, px.Height, len(px.Pix))
	}
	for i := 0; i < len(px.Pix); i += 4 {
		if !bytes.Equal(px.Pix[i:i+4], []byte{255, 255, 0, 255}) {
			t.Fatalf("pixel %d = %v", i/4, px.Pix[i:i+4])
		}
	}
}
