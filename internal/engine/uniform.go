package engine

import (
	"fmt"

	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/depthflow/uniform"
	"github.com/gogpu/gputypes"
)

// uniformBuffer is the host-visible buffer holding the parameter block.
type uniformBuffer struct {
	buffer gpucore.BufferID
	memory gpucore.MemoryID
}

// createUniformBuffer creates the parameter buffer and records its release.
func (c *Context) createUniformBuffer() error {
	buf, err := c.dev.CreateBuffer(&gpucore.BufferDescriptor{
		Label: "uniform",
		Size:  uniform.Size,
		Usage: gputypes.BufferUsageUniform,
	})
	if err != nil {
		return fmt.Errorf("engine: create uniform buffer: %w", err)
	}
	c.rel.push("uniform buffer", func() { c.dev.DestroyBuffer(buf) })

	mem, err := c.allocate("uniform", c.dev.BufferMemoryRequirements(buf),
		gpucore.MemoryPropertyHostVisible|gpucore.MemoryPropertyHostCoherent)
	if err != nil {
		return err
	}
	c.rel.push("uniform memory", func() { c.free(mem) })

	if err := c.dev.BindBufferMemory(buf, mem); err != nil {
		return fmt.Errorf("engine: bind uniform memory: %w", err)
	}
	c.ubo = uniformBuffer{buffer: buf, memory: mem}
	return nil
}

// upload copies p into the parameter buffer.
func (c *Context) upload(p *uniform.Params) error {
	dst, err := c.dev.MapMemory(c.ubo.memory, 0, uniform.Size)
	if err != nil {
		return fmt.Errorf("engine: map uniform memory: %w", err)
	}
	p.Encode(dst)
	c.dev.UnmapMemory(c.ubo.memory)
	return nil
}
