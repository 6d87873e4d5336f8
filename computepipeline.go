package vkres

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ComputePipeline stores a compute pipeline object and the corresponding
// pipeline layout. Unlike graphics pipelines, compute pipelines do not need
// to be recompiled against any sort of render state, so there is exactly one
// variant, compiled on first use.
type ComputePipeline struct {
	manager *PipelineManager
	cs      *ShaderModule

	mu       sync.Mutex
	layout   *PipelineLayout
	pipeline vk.Pipeline
}

// GetPipelineHandle returns the pipeline handle, compiling the pipeline on
// first use.
func (p *ComputePipeline) GetPipelineHandle() (vk.Pipeline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline != vk.NullPipeline {
		return p.pipeline, nil
	}

	device := p.manager.Device

	cache, err := p.manager.pipelineCache()
	if err != nil {
		return vk.NullPipeline, err
	}

	if p.layout == nil {
		p.layout, err = device.CreatePipelineLayout()
		if err != nil {
			return vk.NullPipeline, err
		}
	}

	createInfo := vk.ComputePipelineCreateInfo{
		SType:  vk.StructureTypeComputePipelineCreateInfo,
		Stage:  p.cs.VKPipelineShaderStageCreateInfo("main"),
		Layout: p.layout.VKPipelineLayout,
	}

	pipelines := make([]vk.Pipeline, 1)

	err = vkError(vk.CreateComputePipelines(device.VKDevice, cache.VKPipelineCache,
		1, []vk.ComputePipelineCreateInfo{createInfo}, nil, pipelines))
	if err != nil {
		return vk.NullPipeline, errors.Wrap(err, "failed to compile compute pipeline")
	}

	p.pipeline = pipelines[0]
	atomic.AddUint32(&p.manager.numComputePipelines, 1)

	logger().Debug("compiled compute pipeline", "shader", p.cs.Description)

	return p.pipeline, nil
}

// Layout returns the pipeline layout, which exists once the pipeline has
// been compiled.
func (p *ComputePipeline) Layout() *PipelineLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layout
}

func (p *ComputePipeline) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(p.manager.Device.VKDevice, p.pipeline, nil)
		p.pipeline = vk.NullPipeline
	}
	if p.layout != nil {
		p.layout.Destroy()
		p.layout = nil
	}
}
