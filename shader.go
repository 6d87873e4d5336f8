package vkres

import (
	"os"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ShaderModule wraps a compiled SPIR-V shader module together with the
// pipeline stage it is meant for. Shader modules identify pipelines in the
// pipeline manager, so the same module pointer must be reused for the same
// shader.
type ShaderModule struct {
	Device         *Device
	Description    string
	Stage          vk.ShaderStageFlagBits
	VKShaderModule vk.ShaderModule
}

// CreateShaderModule creates a shader module from SPIR-V code held in memory
func (d *Device) CreateShaderModule(code []byte, stage vk.ShaderStageFlagBits) (*ShaderModule, error) {
	var module vk.ShaderModule

	err := vkError(vk.CreateShaderModule(d.VKDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &module))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create shader module")
	}

	var ret ShaderModule
	ret.VKShaderModule = module
	ret.Device = d
	ret.Stage = stage
	return &ret, nil
}

// LoadShaderModuleFromFile loads SPIR-V from a file and creates a shader
// module from it
func (d *Device) LoadShaderModuleFromFile(file string, stage vk.ShaderStageFlagBits) (*ShaderModule, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read shader %q", file)
	}
	module, err := d.CreateShaderModule(data, stage)
	if err != nil {
		return nil, err
	}
	module.Description = file
	return module, nil
}

func (s *ShaderModule) VKPipelineShaderStageCreateInfo(entryPoint string) vk.PipelineShaderStageCreateInfo {
	var shaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{}
	shaderStageCreateInfo.SType = vk.StructureTypePipelineShaderStageCreateInfo
	shaderStageCreateInfo.Stage = s.Stage
	shaderStageCreateInfo.Module = s.VKShaderModule
	shaderStageCreateInfo.PName = safeString(entryPoint)
	return shaderStageCreateInfo
}

func (s *ShaderModule) Destroy() {
	vk.DestroyShaderModule(s.Device.VKDevice, s.VKShaderModule, nil)
}

func sliceUint32(data []byte) []uint32 {
	const m = 0x7fffffff
	return (*[m / 4]uint32)(unsafe.Pointer((*sliceHeader)(unsafe.Pointer(&data)).Data))[:len(data)/4]
}

type sliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}
