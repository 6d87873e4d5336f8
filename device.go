package vkres

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Device wraps a Vulkan logical device. Image, image view and pipeline
// constructors all hang off the device.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *Device) WaitIdle() {
	vk.DeviceWaitIdle(d.VKDevice)
}

// AllocateDeviceMemory performs a raw vkAllocateMemory for the given memory
// type. The memory allocator uses this for its chunks; most code should
// request memory through a MemoryAllocator instead.
func (d *Device) AllocateDeviceMemory(sizeInBytes uint64, typeIndex uint32) (*DeviceMemory, error) {
	var allocateInfo = vk.MemoryAllocateInfo{}
	allocateInfo.SType = vk.StructureTypeMemoryAllocateInfo
	allocateInfo.AllocationSize = vk.DeviceSize(sizeInBytes)
	allocateInfo.MemoryTypeIndex = typeIndex

	var deviceMemory vk.DeviceMemory

	if err := vkError(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory)); err != nil {
		return nil, errors.Wrapf(err, "failed to allocate %d bytes of device memory", sizeInBytes)
	}

	var ret DeviceMemory

	ret.Size = sizeInBytes
	ret.TypeIndex = typeIndex
	ret.Device = d
	ret.VKDeviceMemory = deviceMemory

	return &ret, nil
}
