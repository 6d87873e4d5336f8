package vkres

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

type PhysicalDevice struct {
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) Name() string {
	return vk.ToString(p.VKPhysicalDeviceProperties.DeviceName[:])
}

func (p *PhysicalDevice) String() string {
	return fmt.Sprintf("{ Name: %s }", p.Name())
}

type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

func (q *QueueFamily) IsGraphics() bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == vk.QueueFlags(vk.QueueGraphicsBit)
}

func (q *QueueFamily) IsCompute() bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) == vk.QueueFlags(vk.QueueComputeBit)
}

func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supportsPresent vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supportsPresent)
	return supportsPresent == vk.True
}

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make(QueueFamilySlice, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

func (ql QueueFamilySlice) FilterGraphics() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics()
	})
}

func (ql QueueFamilySlice) FilterGraphicsAndPresent(surface vk.Surface) QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics() && q.SupportsPresent(surface)
	})
}

// QueueFamilies returns the queue families exposed by this physical device
func (p *PhysicalDevice) QueueFamilies() QueueFamilySlice {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, nil)

	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, props)

	ret := make(QueueFamilySlice, 0, count)
	for i, qp := range props {
		qp.Deref()
		ret = append(ret, &QueueFamily{
			Index:                   i,
			PhysicalDevice:          p,
			VKQueueFamilyProperties: qp,
		})
	}
	return ret
}

type CreateDeviceOptions struct {
	EnabledExtensions []string
}

// CreateLogicalDeviceWithOptions creates a logical device with one queue per
// supplied queue family
func (p *PhysicalDevice) CreateLogicalDeviceWithOptions(qfs QueueFamilySlice, options *CreateDeviceOptions) (*Device, error) {
	if len(qfs) == 0 {
		return nil, errors.New("at least one queue family is required to create a device")
	}

	priorities := []float32{1.0}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, 0, len(qfs))
	for _, qf := range qfs {
		queueCreateInfos = append(queueCreateInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(qf.Index),
			QueueCount:       1,
			PQueuePriorities: priorities,
		})
	}

	var createInfo = vk.DeviceCreateInfo{}
	createInfo.SType = vk.StructureTypeDeviceCreateInfo
	createInfo.QueueCreateInfoCount = uint32(len(queueCreateInfos))
	createInfo.PQueueCreateInfos = queueCreateInfos

	if options != nil && len(options.EnabledExtensions) > 0 {
		createInfo.EnabledExtensionCount = uint32(len(options.EnabledExtensions))
		createInfo.PpEnabledExtensionNames = safeStrings(options.EnabledExtensions)
	}

	var device vk.Device

	if err := vkError(vk.CreateDevice(p.VKPhysicalDevice, &createInfo, nil, &device)); err != nil {
		return nil, errors.Wrap(err, "failed to create logical device")
	}

	return &Device{PhysicalDevice: p, VKDevice: device}, nil
}

func (p *PhysicalDevice) CreateLogicalDevice(qfs QueueFamilySlice) (*Device, error) {
	return p.CreateLogicalDeviceWithOptions(qfs, nil)
}

func (p *PhysicalDevice) VKPhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	return memoryProperties
}

// FindMemoryType locates a memory type which matches the type bits from a
// set of memory requirements and the requested property flags.
//
// See the documentation of VkPhysicalDeviceMemoryProperties for a detailed
// description of how this search works.
func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	memoryProperties := p.VKPhysicalDeviceMemoryProperties()
	mp := &memoryProperties
	mp.Deref()

	var i uint32
	for i = 0; i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		if memoryTypeBits&(1<<i) != 0 &&
			vk.MemoryPropertyFlags(mt.PropertyFlags)&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Newf("no memory type matches type bits %#x with properties %#x", memoryTypeBits, properties)
}

// MemoryTypeInfo describes a memory type: its own property flags and the
// heap backing it.
type MemoryTypeInfo struct {
	PropertyFlags vk.MemoryPropertyFlags
	HeapIndex     uint32
	HeapSize      uint64
}

// MemoryTypeInfo returns the property flags and backing heap of the given
// memory type. An out of range index yields the zero value.
func (p *PhysicalDevice) MemoryTypeInfo(typeIndex uint32) MemoryTypeInfo {
	memoryProperties := p.VKPhysicalDeviceMemoryProperties()
	mp := &memoryProperties
	mp.Deref()

	if typeIndex >= mp.MemoryTypeCount {
		return MemoryTypeInfo{}
	}

	mt := mp.MemoryTypes[typeIndex]
	mt.Deref()

	mh := mp.MemoryHeaps[mt.HeapIndex]
	mh.Deref()

	return MemoryTypeInfo{
		PropertyFlags: vk.MemoryPropertyFlags(mt.PropertyFlags),
		HeapIndex:     mt.HeapIndex,
		HeapSize:      uint64(mh.Size),
	}
}

// MemoryHeapSize returns the size in bytes of the heap backing the given
// memory type
func (p *PhysicalDevice) MemoryHeapSize(typeIndex uint32) uint64 {
	return p.MemoryTypeInfo(typeIndex).HeapSize
}

type VKPresentModes []vk.PresentMode

func (v VKPresentModes) Filter(f vk.PresentMode) VKPresentModes {
	ret := make(VKPresentModes, 0)
	for _, m := range v {
		if m == f {
			ret = append(ret, m)
		}
	}
	return ret
}

type VKSurfaceFormats []vk.SurfaceFormat

func (v VKSurfaceFormats) Filter(f func(f vk.SurfaceFormat) bool) VKSurfaceFormats {
	ret := make(VKSurfaceFormats, 0)
	for _, s := range v {
		if f(s) {
			ret = append(ret, s)
		}
	}
	return ret
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) (VKPresentModes, error) {
	var count uint32
	if err := vkError(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := vkError(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, modes)); err != nil {
		return nil, err
	}
	return VKPresentModes(modes), nil
}

func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) (VKSurfaceFormats, error) {
	var count uint32
	if err := vkError(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vkError(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, formats)); err != nil {
		return nil, err
	}
	return VKSurfaceFormats(formats), nil
}

func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (*vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := vkError(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps)); err != nil {
		return nil, err
	}
	return &caps, nil
}
