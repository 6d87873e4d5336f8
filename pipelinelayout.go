package vkres

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

type PipelineLayout struct {
	Device           *Device
	VKPipelineLayout vk.PipelineLayout
}

func (p *PipelineLayout) Destroy() {
	vk.DestroyPipelineLayout(p.Device.VKDevice, p.VKPipelineLayout, nil)
}

// CreatePipelineLayout creates a pipeline layout over the given descriptor
// set layouts; with no arguments it creates an empty layout.
func (d *Device) CreatePipelineLayout(setLayouts ...vk.DescriptorSetLayout) (*PipelineLayout, error) {
	return d.CreatePipelineLayoutWithPushConstants(setLayouts, nil)
}

func (d *Device) CreatePipelineLayoutWithPushConstants(setLayouts []vk.DescriptorSetLayout, pushConstants []vk.PushConstantRange) (*PipelineLayout, error) {
	var pipelineLayoutCreateInfo = vk.PipelineLayoutCreateInfo{}
	pipelineLayoutCreateInfo.SType = vk.StructureTypePipelineLayoutCreateInfo
	pipelineLayoutCreateInfo.SetLayoutCount = uint32(len(setLayouts))
	pipelineLayoutCreateInfo.PSetLayouts = setLayouts
	pipelineLayoutCreateInfo.PushConstantRangeCount = uint32(len(pushConstants))
	pipelineLayoutCreateInfo.PPushConstantRanges = pushConstants

	var pipelineLayout vk.PipelineLayout

	if err := vkError(vk.CreatePipelineLayout(d.VKDevice, &pipelineLayoutCreateInfo, nil, &pipelineLayout)); err != nil {
		return nil, errors.Wrap(err, "failed to create pipeline layout")
	}

	var ret PipelineLayout
	ret.VKPipelineLayout = pipelineLayout
	ret.Device = d
	return &ret, nil
}
