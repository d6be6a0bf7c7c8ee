package engine

import (
	"fmt"

	"github.com/gogpu/depthflow/gpucore"
)

// submitOnce records a one-shot command buffer with record, submits it and
// waits for the queue to drain. The command buffer is freed before
// returning, whatever the outcome.
func (c *Context) submitOnce(record func(cmd gpucore.CommandBufferID)) error {
	cmd, err := c.dev.AllocateCommandBuffer(c.cmdPool)
	if err != nil {
		return fmt.Errorf("engine: allocate one-shot command buffer: %w", err)
	}
	defer c.dev.FreeCommandBuffer(c.cmdPool, cmd)

	if err := c.dev.BeginCommandBuffer(cmd, true); err != nil {
		return fmt.Errorf("engine: begin one-shot command buffer: %w", err)
	}
	record(cmd)
	if err := c.dev.EndCommandBuffer(cmd); err != nil {
		return fmt.Errorf("engine: end one-shot command buffer: %w", err)
	}
	if err := c.dev.Submit(&gpucore.SubmitInfo{CommandBuffer: cmd}); err != nil {
		return fmt.Errorf("engine: submit one-shot command buffer: %w", err)
	}
	if err := c.dev.QueueWaitIdle(); err != nil {
		return fmt.Errorf("engine: wait for one-shot command buffer: %w", err)
	}
	return nil
}

// transitionBarrier returns the barrier moving a whole color image from
// one layout to another for the texture upload path.
func transitionBarrier(image gpucore.ImageID, from, to gpucore.ImageLayout) *gpucore.ImageBarrier {
	b := &gpucore.ImageBarrier{
		Image:     image,
		OldLayout: from,
		NewLayout: to,
		SrcStage:  gpucore.PipelineStageTopOfPipe | gpucore.PipelineStageTransfer,
		DstStage:  gpucore.PipelineStageTransfer | gpucore.PipelineStageFragmentShader,
	}
	if from == gpucore.ImageLayoutTransferDst {
		b.SrcAccess = gpucore.AccessTransferWrite
	}
	if to == gpucore.ImageLayoutTransferDst {
		b.DstAccess = gpucore.AccessTransferWrite
	} else {
		b.DstAccess = gpucore.AccessShaderRead
	}
	return b
}
