package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/depthflow/uniform"
	"github.com/gogpu/gputypes"
)

// FrameStats counts frame outcomes.
type FrameStats struct {
	// Frames is the number of frames submitted and presented.
	Frames uint64

	// Skipped is the number of DrawFrame calls that presented nothing.
	Skipped uint64

	// Rebuilds is the number of swapchain rebuilds after initialization.
	Rebuilds uint64

	// Time is the time value uploaded with the last frame.
	Time float32
}

// clearColor is opaque black.
var clearColor = gputypes.Color{R: 0, G: 0, B: 0, A: 1}

// DrawFrame renders and presents one frame with the parameters p.
//
// The engine overwrites Time, ScreenSize and ImageSize. Once the frame
// is submitted p holds exactly what was uploaded. A failure before the
// submit leaves p untouched. A frame that was submitted but not presented
// still updates p and drains the queue. Either way nothing is shown, the
// frame counts as skipped and the returned error wraps ErrFrameSkipped.
func (c *Context) DrawFrame(p *uniform.Params) error {
	if err := c.drawFrame(p); err != nil {
		c.stats.Skipped++
		return fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}
	c.stats.Frames++
	return nil
}

func (c *Context) drawFrame(p *uniform.Params) error {
	if c.syncLost {
		return ErrSyncLost
	}
	if c.stale || c.sc == nil {
		if err := c.Rebuild(); err != nil {
			return err
		}
	}

	if err := c.dev.WaitForFence(c.fence); err != nil {
		return fmt.Errorf("engine: wait for frame fence: %w", err)
	}

	index, err := c.dev.AcquireNextImage(c.sc.id, c.semImage)
	switch {
	case errors.Is(err, gpucore.ErrSuboptimal):
		c.markStale(err)
	case err != nil:
		if gpucore.IsSwapchainStale(err) {
			c.markStale(err)
		}
		return fmt.Errorf("engine: acquire: %w", err)
	}

	// semImage is now pending; every exit must consume it.
	frame := *p
	start := c.fillFrame(&frame)
	if err := c.submitFrame(index, &frame); err != nil {
		c.abandonFrame()
		return err
	}
	c.start, c.started = start, true
	c.lastTime = frame.Time
	c.stats.Time = frame.Time
	*p = frame

	presentErr := c.dev.Present(c.sc.id, index, c.semRender)
	if presentErr != nil && gpucore.IsSwapchainStale(presentErr) {
		c.markStale(presentErr)
		presentErr = nil
	}
	if presentErr != nil {
		presentErr = fmt.Errorf("engine: present: %w", presentErr)
	}

	// The submitted work drains even when the present failed.
	if err := c.dev.QueueWaitIdle(); err != nil {
		return errors.Join(presentErr, fmt.Errorf("engine: wait for queue: %w", err))
	}
	return presentErr
}

// fillFrame writes the engine-owned fields of a frame's parameters and
// returns the time origin they were computed against. Time counts seconds
// from the first submitted frame and strictly increases between frames.
func (c *Context) fillFrame(p *uniform.Params) time.Time {
	now := c.cfg.Clock()
	start := c.start
	if !c.started {
		start = now
	}
	t := float32(now.Sub(start).Seconds())
	if c.started && !(t > c.lastTime) {
		t = math.Nextafter32(c.lastTime, float32(math.Inf(1)))
	}

	p.Time = t
	p.ScreenSize = uniform.Vec2{X: float32(c.sc.extent.Width), Y: float32(c.sc.extent.Height)}
	p.ImageSize = uniform.Vec2{X: float32(c.imageSize.Width), Y: float32(c.imageSize.Height)}
	return start
}

// submitFrame uploads p, records the draw for image index and submits it.
// The frame fence is reset only immediately before the submit.
func (c *Context) submitFrame(index uint32, p *uniform.Params) error {
	if err := c.upload(p); err != nil {
		return err
	}

	cmd := c.cmd
	if err := c.dev.ResetCommandBuffer(cmd); err != nil {
		return fmt.Errorf("engine: reset command buffer: %w", err)
	}
	if err := c.dev.BeginCommandBuffer(cmd, false); err != nil {
		return fmt.Errorf("engine: begin command buffer: %w", err)
	}
	c.dev.CmdBeginRenderPass(cmd, &gpucore.RenderPassBegin{
		RenderPass:  c.sc.renderPass,
		Framebuffer: c.sc.framebuffers[index],
		Extent:      c.sc.extent,
		ClearColor:  clearColor,
	})
	c.dev.CmdBindPipeline(cmd, c.pipeline)
	c.dev.CmdBindDescriptorSet(cmd, c.pipelineLayout, c.descSet)
	c.dev.CmdDraw(cmd, 3, 1, 0, 0)
	c.dev.CmdEndRenderPass(cmd)
	if err := c.dev.EndCommandBuffer(cmd); err != nil {
		return fmt.Errorf("engine: end command buffer: %w", err)
	}

	if err := c.dev.ResetFence(c.fence); err != nil {
		return fmt.Errorf("engine: reset frame fence: %w", err)
	}
	if err := c.dev.Submit(&gpucore.SubmitInfo{
		CommandBuffer:   cmd,
		WaitSemaphore:   c.semImage,
		WaitStage:       gpucore.PipelineStageColorAttachmentOutput,
		SignalSemaphore: c.semRender,
		Fence:           c.fence,
	}); err != nil {
		return fmt.Errorf("engine: submit: %w", err)
	}
	return nil
}

// abandonFrame consumes the pending image semaphore and leaves the fence
// signalled after a failure between acquire and submit, so the next frame
// neither waits forever nor reuses a signalled semaphore.
func (c *Context) abandonFrame() {
	err := c.dev.ResetFence(c.fence)
	if err == nil {
		err = c.dev.Submit(&gpucore.SubmitInfo{
			WaitSemaphore: c.semImage,
			WaitStage:     gpucore.PipelineStageColorAttachmentOutput,
			Fence:         c.fence,
		})
	}
	if err != nil {
		c.syncLost = true
		slogger().Error("engine: cannot recover frame synchronization", "err", err)
	}
}

// markStale schedules a swapchain rebuild before the next frame.
func (c *Context) markStale(reason error) {
	if !c.stale {
		slogger().Info("engine: swapchain stale", "reason", reason)
	}
	c.stale = true
}
