package engine

import (
	"fmt"

	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/gputypes"
)

// undefinedExtent is reported by surfaces whose size follows the swapchain.
const undefinedExtent = ^uint32(0)

// swapchainFormat is used for the swapchain and every texture.
const swapchainFormat = gputypes.TextureFormatRGBA8Unorm

// swapchainSet is everything that depends on the surface size.
type swapchainSet struct {
	id           gpucore.SwapchainID
	extent       gpucore.Extent2D
	images       []gpucore.ImageID
	views        []gpucore.ImageViewID
	renderPass   gpucore.RenderPassID
	framebuffers []gpucore.FramebufferID
}

// imageCount returns one image more than the surface minimum, bounded by
// the surface maximum when there is one.
func imageCount(caps gpucore.SurfaceCapabilities) uint32 {
	n := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

// surfaceExtent picks the swapchain extent from the capabilities.
func (c *Context) surfaceExtent(caps gpucore.SurfaceCapabilities) (gpucore.Extent2D, error) {
	e := caps.CurrentExtent
	if e.Width == undefinedExtent && e.Height == undefinedExtent {
		e = c.cfg.Extent
	}
	if e.Width == 0 || e.Height == 0 {
		return e, fmt.Errorf("%w: %dx%d", ErrNoSurfaceExtent, e.Width, e.Height)
	}
	return e, nil
}

// createSwapchainSet creates the swapchain, one view and framebuffer per
// image, the render pass and the pipeline. Releases are pushed on the
// context stack above the swapchain mark.
func (c *Context) createSwapchainSet() error {
	caps, err := c.dev.SurfaceCapabilities()
	if err != nil {
		return fmt.Errorf("engine: surface capabilities: %w", err)
	}
	extent, err := c.surfaceExtent(caps)
	if err != nil {
		return err
	}

	sc := &swapchainSet{extent: extent}
	sc.id, err = c.dev.CreateSwapchain(&gpucore.SwapchainDescriptor{
		MinImageCount:  imageCount(caps),
		Format:         swapchainFormat,
		Extent:         extent,
		Usage:          gputypes.TextureUsageRenderAttachment,
		PreTransform:   caps.CurrentTransform,
		CompositeAlpha: gpucore.CompositeAlphaInherit,
		PresentMode:    gputypes.PresentModeFifo,
		Clipped:        true,
	})
	if err != nil {
		return fmt.Errorf("engine: create swapchain: %w", err)
	}
	id := sc.id
	c.rel.push("swapchain", func() { c.dev.DestroySwapchain(id) })

	sc.images, err = c.dev.SwapchainImages(sc.id)
	if err != nil {
		return fmt.Errorf("engine: swapchain images: %w", err)
	}

	for i, img := range sc.images {
		view, err := c.dev.CreateImageView(&gpucore.ImageViewDescriptor{Image: img, Format: swapchainFormat})
		if err != nil {
			return fmt.Errorf("engine: swapchain view %d: %w", i, err)
		}
		c.rel.push("swapchain view", func() { c.dev.DestroyImageView(view) })
		sc.views = append(sc.views, view)
	}

	sc.renderPass, err = c.dev.CreateRenderPass(&gpucore.RenderPassDescriptor{
		Format:        swapchainFormat,
		LoadOp:        gputypes.LoadOpClear,
		StoreOp:       gputypes.StoreOpStore,
		InitialLayout: gpucore.ImageLayoutUndefined,
		FinalLayout:   gpucore.ImageLayoutPresentSrc,
	})
	if err != nil {
		return fmt.Errorf("engine: create render pass: %w", err)
	}
	pass := sc.renderPass
	c.rel.push("render pass", func() { c.dev.DestroyRenderPass(pass) })

	for i, view := range sc.views {
		fb, err := c.dev.CreateFramebuffer(&gpucore.FramebufferDescriptor{
			RenderPass: sc.renderPass,
			Attachment: view,
			Extent:     extent,
		})
		if err != nil {
			return fmt.Errorf("engine: framebuffer %d: %w", i, err)
		}
		c.rel.push("framebuffer", func() { c.dev.DestroyFramebuffer(fb) })
		sc.framebuffers = append(sc.framebuffers, fb)
	}

	c.sc = sc
	if err := c.createPipeline(); err != nil {
		return err
	}

	slogger().Info("engine: swapchain ready",
		"width", extent.Width, "height", extent.Height, "images", len(sc.images))
	return nil
}
