package vkres

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory maps to a single Vulkan device memory allocation, which can
// either be memory on the host or on the device.
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	TypeIndex      uint32
	Ptr            unsafe.Pointer
}

// IsMapped returns true if the device memory is currently mapped
func (d *DeviceMemory) IsMapped() bool {
	return d.Ptr != nil
}

// Destroy frees this memory, unmapping it first if needed
func (d *DeviceMemory) Destroy() {
	if d.Ptr != nil {
		d.Unmap()
	}
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
}

// Map will map the entirety of this memory
func (d *DeviceMemory) Map() (unsafe.Pointer, error) {
	var res unsafe.Pointer
	err := vkError(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, 0, vk.DeviceSize(d.Size), 0, &res))
	if err != nil {
		return nil, err
	}
	d.Ptr = res
	return res, nil
}

// Unmap this memory
func (d *DeviceMemory) Unmap() {
	d.Ptr = nil
	vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
}
