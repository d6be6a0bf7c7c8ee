package engine

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/gogpu/depthflow/asset"
	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/gputypes"
	"golang.org/x/sync/errgroup"
)

// TextureSlot names one of the five textures sampled by the fragment
// shader. The slot value is also its descriptor binding.
type TextureSlot int

// Texture slots.
const (
	TextureColor TextureSlot = iota
	TextureDepth
	TextureBackgroundColor
	TextureBackgroundDepth
	TextureSubjectMask

	TextureSlotCount
)

// AssetName returns the asset the slot is loaded from.
func (s TextureSlot) AssetName() string {
	switch s {
	case TextureColor:
		return asset.NameImage
	case TextureDepth:
		return asset.NameDepth
	case TextureBackgroundColor:
		return asset.NameBackgroundImage
	case TextureBackgroundDepth:
		return asset.NameBackgroundDepth
	case TextureSubjectMask:
		return asset.NameSubjectMask
	default:
		return ""
	}
}

// String returns the slot name.
func (s TextureSlot) String() string {
	switch s {
	case TextureColor:
		return "color"
	case TextureDepth:
		return "depth"
	case TextureBackgroundColor:
		return "background-color"
	case TextureBackgroundDepth:
		return "background-depth"
	case TextureSubjectMask:
		return "subject-mask"
	default:
		return fmt.Sprintf("TextureSlot(%d)", int(s))
	}
}

// FallbackKind tells why a texture holds a placeholder color.
type FallbackKind int

// Fallback kinds.
const (
	FallbackNone       FallbackKind = iota // decoded from the asset
	FallbackNoProvider                     // magenta
	FallbackMissing                        // red
	FallbackCorrupt                        // yellow
)

// String returns the fallback name.
func (k FallbackKind) String() string {
	switch k {
	case FallbackNone:
		return "none"
	case FallbackNoProvider:
		return "no-provider"
	case FallbackMissing:
		return "missing"
	case FallbackCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("FallbackKind(%d)", int(k))
	}
}

// pixels returns the 1x1 placeholder image for k.
func (k FallbackKind) pixels() *asset.Pixels {
	switch k {
	case FallbackNoProvider:
		return asset.Solid(1, 1, 255, 0, 255)
	case FallbackMissing:
		return asset.Solid(1, 1, 255, 0, 0)
	default:
		return asset.Solid(1, 1, 255, 255, 0)
	}
}

// Texture is a sampled image in shader-read-only layout.
type Texture struct {
	Slot     TextureSlot
	Width    uint32
	Height   uint32
	Fallback FallbackKind

	image   gpucore.ImageID
	memory  gpucore.MemoryID
	view    gpucore.ImageViewID
	sampler gpucore.SamplerID
}

// readPixels fetches and decodes the asset for slot. It never fails: any
// problem produces a placeholder and the matching FallbackKind.
func (c *Context) readPixels(slot TextureSlot) (*asset.Pixels, FallbackKind) {
	name := slot.AssetName()
	if c.cfg.Assets == nil {
		return FallbackNoProvider.pixels(), FallbackNoProvider
	}

	data, err := c.cfg.Assets.Open(name)
	if err != nil {
		if !errors.Is(err, asset.ErrNotExist) {
			slogger().Warn("engine: asset unreadable", "asset", name, "err", err)
		}
		return FallbackMissing.pixels(), FallbackMissing
	}

	px := asset.Decode(data)
	if px == nil {
		return FallbackCorrupt.pixels(), FallbackCorrupt
	}
	return px, FallbackNone
}

// loadTexture reads, uploads and samples the texture for slot. On success
// every object is owned by the context release stack; on failure nothing
// created here survives.
func (c *Context) loadTexture(slot TextureSlot, px *asset.Pixels, fallback FallbackKind) (tex *Texture, err error) {
	if fallback != FallbackNone {
		slogger().Warn("engine: using fallback texture", "slot", slot, "asset", slot.AssetName(), "reason", fallback)
	}

	var rel releaseStack
	defer func() {
		if err != nil {
			rel.unwind(0)
		}
	}()

	tex = &Texture{
		Slot:     slot,
		Width:    uint32(px.Width),
		Height:   uint32(px.Height),
		Fallback: fallback,
	}
	label := slot.AssetName()

	if err := c.uploadImage(&rel, tex, label, px.Pix); err != nil {
		return nil, err
	}

	tex.view, err = c.dev.CreateImageView(&gpucore.ImageViewDescriptor{
		Image:  tex.image,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %s view: %w", label, err)
	}
	view := tex.view
	rel.push(label+" view", func() { c.dev.DestroyImageView(view) })

	filter := gputypes.FilterModeLinear
	if fallback != FallbackNone {
		filter = gputypes.FilterModeNearest
	}
	tex.sampler, err = c.dev.CreateSampler(&gpucore.SamplerDescriptor{
		MagFilter:   filter,
		MinFilter:   filter,
		AddressMode: gputypes.AddressModeRepeat,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %s sampler: %w", label, err)
	}
	sampler := tex.sampler
	rel.push(label+" sampler", func() { c.dev.DestroySampler(sampler) })

	c.rel.adopt(&rel)
	slogger().Debug("engine: texture loaded", "slot", slot, "width", tex.Width, "height", tex.Height, "fallback", fallback)
	return tex, nil
}

// uploadImage creates the device-local image for tex and fills it with pix
// through a staging buffer. Image and memory releases are pushed on rel;
// the staging buffer is gone when uploadImage returns.
func (c *Context) uploadImage(rel *releaseStack, tex *Texture, label string, pix []byte) error {
	var staging releaseStack
	defer staging.unwind(0)

	buf, err := c.dev.CreateBuffer(&gpucore.BufferDescriptor{
		Label: label + " staging",
		Size:  uint64(len(pix)),
		Usage: gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("engine: %s staging buffer: %w", label, err)
	}
	staging.push(label+" staging buffer", func() { c.dev.DestroyBuffer(buf) })

	smem, err := c.allocate("staging", c.dev.BufferMemoryRequirements(buf),
		gpucore.MemoryPropertyHostVisible|gpucore.MemoryPropertyHostCoherent)
	if err != nil {
		return err
	}
	staging.push(label+" staging memory", func() { c.free(smem) })

	if err := c.dev.BindBufferMemory(buf, smem); err != nil {
		return fmt.Errorf("engine: %s bind staging memory: %w", label, err)
	}
	dst, err := c.dev.MapMemory(smem, 0, uint64(len(pix)))
	if err != nil {
		return fmt.Errorf("engine: %s map staging memory: %w", label, err)
	}
	copy(dst, pix)
	c.dev.UnmapMemory(smem)

	img, err := c.dev.CreateImage(&gpucore.ImageDescriptor{
		Label:  label,
		Width:  tex.Width,
		Height: tex.Height,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("engine: %s image: %w", label, err)
	}
	rel.push(label+" image", func() { c.dev.DestroyImage(img) })

	imem, err := c.allocate("texture", c.dev.ImageMemoryRequirements(img), gpucore.MemoryPropertyDeviceLocal)
	if err != nil {
		return err
	}
	rel.push(label+" memory", func() { c.free(imem) })

	if err := c.dev.BindImageMemory(img, imem); err != nil {
		return fmt.Errorf("engine: %s bind image memory: %w", label, err)
	}
	tex.image, tex.memory = img, imem

	steps := []func(cmd gpucore.CommandBufferID){
		func(cmd gpucore.CommandBufferID) {
			c.dev.CmdPipelineBarrier(cmd, transitionBarrier(img, gpucore.ImageLayoutUndefined, gpucore.ImageLayoutTransferDst))
		},
		func(cmd gpucore.CommandBufferID) {
			c.dev.CmdCopyBufferToImage(cmd, &gpucore.BufferImageCopy{
				Buffer: buf,
				Image:  img,
				Layout: gpucore.ImageLayoutTransferDst,
				Width:  tex.Width,
				Height: tex.Height,
			})
		},
		func(cmd gpucore.CommandBufferID) {
			c.dev.CmdPipelineBarrier(cmd, transitionBarrier(img, gpucore.ImageLayoutTransferDst, gpucore.ImageLayoutShaderReadOnly))
		},
	}
	for _, step := range steps {
		if err := c.submitOnce(step); err != nil {
			return fmt.Errorf("engine: %s upload: %w", label, err)
		}
	}
	return nil
}

// decodeAll reads and decodes every slot concurrently.
func (c *Context) decodeAll() ([TextureSlotCount]*asset.Pixels, [TextureSlotCount]FallbackKind) {
	var (
		pixels    [TextureSlotCount]*asset.Pixels
		fallbacks [TextureSlotCount]FallbackKind
		g         errgroup.Group
	)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for slot := TextureColor; slot < TextureSlotCount; slot++ {
		g.Go(func() error {
			pixels[slot], fallbacks[slot] = c.readPixels(slot)
			return nil
		})
	}
	_ = g.Wait()
	return pixels, fallbacks
}

// loadTextures decodes every slot, uploads them in slot order and caches
// the color image size.
func (c *Context) loadTextures() error {
	pixels, fallbacks := c.decodeAll()
	for slot := TextureColor; slot < TextureSlotCount; slot++ {
		tex, err := c.loadTexture(slot, pixels[slot], fallbacks[slot])
		if err != nil {
			return err
		}
		c.textures[slot] = tex
	}

	c.imageSize = gpucore.Extent2D{Width: defaultImageSize, Height: defaultImageSize}
	if color := c.textures[TextureColor]; color.Fallback == FallbackNone {
		c.imageSize = gpucore.Extent2D{Width: color.Width, Height: color.Height}
	}
	return nil
}

// defaultImageSize is reported as the image size when the color texture
// is a placeholder.
const defaultImageSize = 100
