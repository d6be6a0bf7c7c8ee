// Command dfassets writes a synthetic depth-flow asset set: a color image,
// a radial depth map, their background counterparts, a subject mask and
// config.json.
//
// The set exercises every texture slot and shows the parallax effect
// without any external tooling:
//
//	dfassets -out assets -size 512
//	dfshaders -out assets
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/gogpu/depthflow/asset"
	"github.com/gogpu/gg"
)

func main() {
	var (
		out  = flag.String("out", "assets", "output directory")
		size = flag.Int("size", 512, "image width and height")
	)
	flag.Parse()

	if err := generate(*out, *size); err != nil {
		log.Fatalf("dfassets: %v", err)
	}
	log.Printf("Assets written to %s (%dx%d)\n", *out, *size, *size)
}

// generate writes the five images and config.json to dir.
func generate(dir string, size int) error {
	if size < 8 {
		return fmt.Errorf("size %d is too small", size)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	images := []struct {
		name string
		draw func(dc *gg.Context, size int)
	}{
		{asset.NameImage, drawRings},
		{asset.NameDepth, drawRadialDepth},
		{asset.NameBackgroundImage, drawGradient},
		{asset.NameBackgroundDepth, drawRadialDepth},
		{asset.NameSubjectMask, drawMask},
	}
	for _, img := range images {
		dc := gg.NewContext(size, size)
		img.draw(dc, size)
		path := filepath.Join(dir, img.name)
		err := dc.SavePNG(path)
		_ = dc.Close()
		if err != nil {
			return fmt.Errorf("save %s: %w", img.name, err)
		}
		log.Printf("Created %s", path)
	}

	return asset.WriteScene(dir, asset.Scene{
		Height:     asset.Float(0.05),
		Zoom:       asset.Float(1.2),
		Resolution: &[2]int{size, size},
	})
}

// drawRings draws ten concentric rings shading from red to green on a
// blue-gray field.
func drawRings(dc *gg.Context, size int) {
	dc.ClearWithColor(gg.RGB(50.0/255, 100.0/255, 150.0/255))

	c := float64(size) / 2
	scale := float64(size) / 512
	dc.SetLineWidth(3 * scale)
	for i := range 10 {
		r := float64(20+i*20) * scale
		dc.SetRGB(float64(255-i*25)/255, float64(i*25)/255, 128.0/255)
		dc.DrawCircle(c, c, r)
		_ = dc.Stroke()
	}
}

// drawRadialDepth draws a depth map that is nearest (white) at the center
// and falls off linearly to far (black) at half the image size.
func drawRadialDepth(dc *gg.Context, size int) {
	c := float64(size) / 2
	g := gg.NewRadialGradientBrush(c, c, 0, c).
		AddColorStop(0, gg.White).
		AddColorStop(1, gg.Black)
	dc.SetFillBrush(g)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	_ = dc.Fill()
}

// drawGradient draws red increasing left to right and green increasing
// top to bottom over a constant half-intensity blue.
func drawGradient(dc *gg.Context, size int) {
	s := float64(size)
	for y := range size {
		for x := range size {
			dc.SetPixel(x, y, gg.RGB(float64(x)/s, float64(y)/s, 128.0/255))
		}
	}
}

// drawMask draws the subject as a white disc of radius size/3 on black.
func drawMask(dc *gg.Context, size int) {
	dc.ClearWithColor(gg.Black)
	c := float64(size) / 2
	dc.SetColor(gg.White)
	dc.DrawCircle(c, c, math.Floor(float64(size)/3))
	_ = dc.Fill()
}
