package vkres

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ImageCreateInfo describes an image to be created. The structure is copied
// at construction time and never mutated afterwards.
type ImageCreateInfo struct {
	// ImageType is the image dimension kind
	ImageType vk.ImageType

	// Format is the pixel format
	Format vk.Format

	// Flags are the image creation flags; cube and 2D-array compatibility
	// flags here decide which alternate view types a view of this image
	// can expose
	Flags vk.ImageCreateFlags

	// Samples is the sample count for MSAA
	Samples vk.SampleCountFlagBits

	// Extent is the image size in texels
	Extent vk.Extent3D

	// Layers is the number of array layers
	Layers uint32

	// MipLevels is the number of mip levels
	MipLevels uint32

	// Usage are the image usage flags
	Usage vk.ImageUsageFlags

	// Stages are the pipeline stages that may access the image contents
	Stages vk.PipelineStageFlags

	// Access is the allowed access pattern
	Access vk.AccessFlags

	// Tiling is the image tiling mode
	Tiling vk.ImageTiling

	// Layout is the common image layout the image is kept in. When this is
	// the general layout, PickLayout pins every request to general.
	Layout vk.ImageLayout

	// ViewFormats lists additional formats views of the image may use
	ViewFormats []vk.Format
}

// imageBacking is the ownership variant of an image: an owned backing tears
// down the native handle and returns its memory block, a borrowed backing
// does neither.
type imageBacking interface {
	destroy(d *Device, handle vk.Image)
	mapPtr(offset uint64) unsafe.Pointer
}

type ownedBacking struct {
	memory *Memory
}

func (b ownedBacking) destroy(d *Device, handle vk.Image) {
	vk.DestroyImage(d.VKDevice, handle, nil)
	b.memory.Free()
}

func (b ownedBacking) mapPtr(offset uint64) unsafe.Pointer {
	return b.memory.MapPtr(offset)
}

type borrowedBacking struct{}

func (borrowedBacking) destroy(*Device, vk.Image) {}

func (borrowedBacking) mapPtr(uint64) unsafe.Pointer { return nil }

// Image is an image resource consisting of various subresources. It can be
// accessed by the host if allocated on a suitable memory type and created
// with the linear tiling option.
//
// An image either owns its native handle and the memory bound to it, or
// borrows a handle owned elsewhere, such as a swapchain image. Destroying a
// borrowed image never touches native state.
type Image struct {
	resource

	Device *Device

	info     ImageCreateInfo
	memFlags vk.MemoryPropertyFlags
	image    vk.Image
	backing  imageBacking
}

// CreateImage creates an image and binds memory for it out of the given
// allocator. No partially constructed image escapes: if the driver rejects
// creation or no compatible memory block can be allocated, everything built
// so far is released and the error is returned.
func (d *Device) CreateImage(info *ImageCreateInfo, allocator *MemoryAllocator, memFlags vk.MemoryPropertyFlags) (*Image, error) {
	var createInfo = vk.ImageCreateInfo{}
	createInfo.SType = vk.StructureTypeImageCreateInfo
	createInfo.Flags = info.Flags
	createInfo.ImageType = info.ImageType
	createInfo.Format = info.Format
	createInfo.Extent = info.Extent
	createInfo.MipLevels = info.MipLevels
	createInfo.ArrayLayers = info.Layers
	createInfo.Samples = info.Samples
	createInfo.Tiling = info.Tiling
	createInfo.Usage = info.Usage
	createInfo.SharingMode = vk.SharingModeExclusive
	createInfo.InitialLayout = vk.ImageLayoutUndefined

	var handle vk.Image

	if err := vkError(vk.CreateImage(d.VKDevice, &createInfo, nil, &handle)); err != nil {
		return nil, errors.Wrap(err, "failed to create image")
	}

	var memReq vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.VKDevice, handle, &memReq)
	memReq.Deref()

	memory, err := allocator.Allocate(uint64(memReq.Size), uint64(memReq.Alignment), memReq.MemoryTypeBits, memFlags)
	if err != nil {
		vk.DestroyImage(d.VKDevice, handle, nil)
		return nil, errors.Wrap(err, "failed to allocate image memory")
	}

	if err := vkError(vk.BindImageMemory(d.VKDevice, handle, memory.VKDeviceMemory(), vk.DeviceSize(memory.Offset()))); err != nil {
		memory.Free()
		vk.DestroyImage(d.VKDevice, handle, nil)
		return nil, errors.Wrap(err, "failed to bind image memory")
	}

	img := &Image{
		Device:   d,
		info:     *info,
		memFlags: memFlags,
		image:    handle,
		backing:  ownedBacking{memory: memory},
	}
	img.info.ViewFormats = append([]vk.Format(nil), info.ViewFormats...)
	img.initResource(img.destroyNative)

	return img, nil
}

// WrapImage creates an image object from an existing native handle. This can
// be used for implementation managed images such as swapchain images. Make
// sure to provide the correct image properties, since otherwise some image
// operations may fail. The returned image does not own the handle and never
// destroys it.
func (d *Device) WrapImage(info *ImageCreateInfo, handle vk.Image) *Image {
	img := &Image{
		Device:  d,
		info:    *info,
		image:   handle,
		backing: borrowedBacking{},
	}
	img.info.ViewFormats = append([]vk.Format(nil), info.ViewFormats...)
	img.initResource(img.destroyNative)
	return img
}

func (m *Image) destroyNative() {
	m.backing.destroy(m.Device, m.image)
}

// Destroy releases the creator's reference. Native teardown happens once the
// last referencing view is gone, and only if the image owns its handle.
func (m *Image) Destroy() {
	m.decRef()
}

// Handle returns the native image handle
func (m *Image) Handle() vk.Image {
	return m.image
}

// Info returns the image properties the image was created with
func (m *Image) Info() *ImageCreateInfo {
	return &m.info
}

// MemFlags returns the property flags of the bound memory. Use this to
// determine whether the image is mapped to host memory.
func (m *Image) MemFlags() vk.MemoryPropertyFlags {
	return m.memFlags
}

// FormatInfo returns the format metadata for the image's pixel format
func (m *Image) FormatInfo() *FormatInfo {
	return GetFormatInfo(m.info.Format)
}

// MapPtr returns a host pointer at offset bytes into the image's memory. The
// result is nil unless the image owns host visible memory; callers must
// check the memory property flags first.
func (m *Image) MapPtr(offset uint64) unsafe.Pointer {
	return m.backing.mapPtr(offset)
}

func mipExtent(extent vk.Extent3D, level uint32) vk.Extent3D {
	return vk.Extent3D{
		Width:  maxUint32(1, extent.Width>>level),
		Height: maxUint32(1, extent.Height>>level),
		Depth:  maxUint32(1, extent.Depth>>level),
	}
}

func extentEquals(a vk.Extent3D, b vk.Extent3D) bool {
	return a.Width == b.Width && a.Height == b.Height && a.Depth == b.Depth
}

// MipLevelExtent returns the size of the given mipmap level. Each axis
// halves per level and clamps at one texel, so the result is defined for any
// level, including levels beyond the declared mip count.
func (m *Image) MipLevelExtent(level uint32) vk.Extent3D {
	return mipExtent(m.info.Extent, level)
}

// QuerySubresourceLayout queries the memory layout of a subresource. This
// can be used to retrieve the exact pointer to a subresource of a mapped
// image with linear tiling; calling it on an image that is not linearly
// tiled and host visible is a contract violation and is not checked here.
func (m *Image) QuerySubresourceLayout(subresource vk.ImageSubresource) vk.SubresourceLayout {
	var layout vk.SubresourceLayout
	vk.GetImageSubresourceLayout(m.Device.VKDevice, m.image, &subresource, &layout)
	layout.Deref()
	return layout
}

// PickLayout returns a layout compatible with the image. Images whose common
// layout is the general layout are permanently kept in it so that all access
// kinds stay valid simultaneously; for those, every request resolves to
// general. Otherwise the requested layout is returned unchanged.
func (m *Image) PickLayout(layout vk.ImageLayout) vk.ImageLayout {
	if m.info.Layout == vk.ImageLayoutGeneral {
		return vk.ImageLayoutGeneral
	}
	return layout
}

// IsFullSubresource checks whether a subresource is entirely covered by the
// given extent. This can be used to determine whether a write may treat the
// prior contents as undefined rather than preserving them.
func (m *Image) IsFullSubresource(subresource vk.ImageSubresourceLayers, extent vk.Extent3D) bool {
	return subresource.AspectMask == m.FormatInfo().AspectMask &&
		extentEquals(extent, m.MipLevelExtent(subresource.MipLevel))
}
