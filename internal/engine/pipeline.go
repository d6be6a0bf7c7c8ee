package engine

import (
	"errors"
	"fmt"

	"github.com/gogpu/depthflow/asset"
	"github.com/gogpu/depthflow/gpucore"
	"github.com/gogpu/depthflow/shader"
	"github.com/gogpu/depthflow/uniform"
	"github.com/gogpu/gputypes"
)

// UniformBinding is the descriptor binding of the parameter block. Texture
// slots occupy the bindings before it.
const UniformBinding = uint32(TextureSlotCount)

// entryPoint is the entry point of both shader stages.
const entryPoint = "main"

// loadShaders reads and validates both SPIR-V stages.
func (c *Context) loadShaders() error {
	if c.cfg.Assets == nil {
		return fmt.Errorf("%w: no asset provider", ErrShaderMissing)
	}
	read := func(name string) ([]byte, error) {
		spv, err := c.cfg.Assets.Open(name)
		if err != nil {
			if !errors.Is(err, asset.ErrNotExist) {
				slogger().Warn("engine: shader unreadable", "asset", name, "err", err)
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrShaderMissing, name, err)
		}
		if err := shader.Validate(spv); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrShaderMissing, name, err)
		}
		return spv, nil
	}

	var err error
	if c.vertSPV, err = read(asset.NameVertexShader); err != nil {
		return err
	}
	if c.fragSPV, err = read(asset.NameFragmentShader); err != nil {
		return err
	}
	return nil
}

// createDescriptors builds the set layout, the pool, the single descriptor
// set and the pipeline layout, and writes every binding once.
func (c *Context) createDescriptors() error {
	bindings := make([]gpucore.DescriptorBinding, 0, TextureSlotCount+1)
	for slot := TextureColor; slot < TextureSlotCount; slot++ {
		bindings = append(bindings, gpucore.DescriptorBinding{
			Binding: uint32(slot),
			Type:    gpucore.DescriptorTypeCombinedImageSampler,
			Stages:  gputypes.ShaderStageFragment,
		})
	}
	bindings = append(bindings, gpucore.DescriptorBinding{
		Binding: UniformBinding,
		Type:    gpucore.DescriptorTypeUniformBuffer,
		Stages:  gputypes.ShaderStageFragment,
	})

	layout, err := c.dev.CreateDescriptorSetLayout(bindings)
	if err != nil {
		return fmt.Errorf("engine: create descriptor set layout: %w", err)
	}
	c.rel.push("descriptor set layout", func() { c.dev.DestroyDescriptorSetLayout(layout) })
	c.setLayout = layout

	pool, err := c.dev.CreateDescriptorPool(&gpucore.DescriptorPoolDescriptor{
		MaxSets: 1,
		Sizes: []gpucore.DescriptorPoolSize{
			{Type: gpucore.DescriptorTypeCombinedImageSampler, Count: uint32(TextureSlotCount)},
			{Type: gpucore.DescriptorTypeUniformBuffer, Count: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("engine: create descriptor pool: %w", err)
	}
	c.rel.push("descriptor pool", func() { c.dev.DestroyDescriptorPool(pool) })

	set, err := c.dev.AllocateDescriptorSet(pool, layout)
	if err != nil {
		return fmt.Errorf("engine: allocate descriptor set: %w", err)
	}
	c.descSet = set

	writes := make([]gpucore.DescriptorWrite, 0, len(bindings))
	for _, tex := range c.textures {
		writes = append(writes, gpucore.DescriptorWrite{
			Set:     set,
			Binding: uint32(tex.Slot),
			Type:    gpucore.DescriptorTypeCombinedImageSampler,
			Sampler: tex.sampler,
			View:    tex.view,
			Layout:  gpucore.ImageLayoutShaderReadOnly,
		})
	}
	writes = append(writes, gpucore.DescriptorWrite{
		Set:     set,
		Binding: UniformBinding,
		Type:    gpucore.DescriptorTypeUniformBuffer,
		Buffer:  c.ubo.buffer,
		Range:   uniform.Size,
	})
	c.dev.UpdateDescriptorSets(writes)

	pl, err := c.dev.CreatePipelineLayout([]gpucore.DescriptorSetLayoutID{layout})
	if err != nil {
		return fmt.Errorf("engine: create pipeline layout: %w", err)
	}
	c.rel.push("pipeline layout", func() { c.dev.DestroyPipelineLayout(pl) })
	c.pipelineLayout = pl
	return nil
}

// createPipeline builds the graphics pipeline for the current render pass
// and extent. Shader modules live only for the duration of the call.
func (c *Context) createPipeline() error {
	vert, err := c.dev.CreateShaderModule(c.vertSPV)
	if err != nil {
		return fmt.Errorf("engine: create vertex shader module: %w", err)
	}
	defer c.dev.DestroyShaderModule(vert)

	frag, err := c.dev.CreateShaderModule(c.fragSPV)
	if err != nil {
		return fmt.Errorf("engine: create fragment shader module: %w", err)
	}
	defer c.dev.DestroyShaderModule(frag)

	pipeline, err := c.dev.CreateGraphicsPipeline(&gpucore.GraphicsPipelineDescriptor{
		Layout:         c.pipelineLayout,
		RenderPass:     c.sc.renderPass,
		VertexShader:   vert,
		FragmentShader: frag,
		EntryPoint:     entryPoint,
		Topology:       gputypes.PrimitiveTopologyTriangleList,
		Viewport:       c.sc.extent,
		CullMode:       gputypes.CullModeNone,
		FrontFace:      gputypes.FrontFaceCW,
		Samples:        1,
		BlendEnabled:   false,
		WriteMask:      gputypes.ColorWriteMaskAll,
	})
	if err != nil {
		return fmt.Errorf("engine: create graphics pipeline: %w", err)
	}
	c.rel.push("pipeline", func() { c.dev.DestroyPipeline(pipeline) })
	c.pipeline = pipeline
	slogger().Debug("engine: pipeline created", "width", c.sc.extent.Width, "height", c.sc.extent.Height)
	return nil
}
