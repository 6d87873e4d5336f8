package vkres

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PipelineCache wraps a driver pipeline cache shared by all pipelines of a
// pipeline manager.
type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	var pipelineCacheCreate = vk.PipelineCacheCreateInfo{}
	pipelineCacheCreate.SType = vk.StructureTypePipelineCacheCreateInfo

	var pipelineCache vk.PipelineCache

	if err := vkError(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache)); err != nil {
		return nil, errors.Wrap(err, "failed to create pipeline cache")
	}

	var ret PipelineCache
	ret.VKPipelineCache = pipelineCache
	ret.Device = d
	return &ret, nil
}

func (c *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(c.Device.VKDevice, c.VKPipelineCache, nil)
}
