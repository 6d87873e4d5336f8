package vkres

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// One slot per view type, CubeArray is the last kind Vulkan defines.
const imageViewTypeCount = int(vk.ImageViewTypeCubeArray) + 1

// asyncCompilationFrameCount is the number of consecutive frames a view must
// have been bound as a render target before asynchronous pipeline
// compilation is considered safe for it.
const asyncCompilationFrameCount = 5

// ImageViewCreateInfo describes an image view to be created. The structure
// is copied at construction time and never mutated afterwards.
type ImageViewCreateInfo struct {
	// ViewType is the default view dimension kind; compatible alternate
	// kinds are constructed alongside it
	ViewType vk.ImageViewType

	// Format is the pixel format of the view
	Format vk.Format

	// Usage are the view usage flags
	Usage vk.ImageUsageFlags

	// Aspect selects the subresource aspects addressed by the view
	Aspect vk.ImageAspectFlags

	MinLevel  uint32
	NumLevels uint32
	MinLayer  uint32
	NumLayers uint32

	// Swizzle is the component mapping. The zero value is the identity
	// mapping.
	Swizzle vk.ComponentMapping
}

// ImageView wraps a set of native image view handles over one image, one
// handle per compatible view type. The view holds a strong reference to its
// parent image, keeping it alive at least as long as the view exists.
type ImageView struct {
	resource

	Device *Device

	image *Image
	info  ImageViewCreateInfo
	views [imageViewTypeCount]vk.ImageView

	rtBindingFrameId    uint32
	rtBindingFrameCount uint32
}

type viewTypeRange struct {
	viewType  vk.ImageViewType
	numLayers uint32
}

// compatibleViewTypes lists the view types to construct for the given view
// and image, with the layer count each should span. View types absent from
// the list are incompatible with the image and stay empty in the handle
// table without failing construction.
func compatibleViewTypes(info *ImageViewCreateInfo, imageInfo *ImageCreateInfo) []viewTypeRange {
	switch info.ViewType {
	case vk.ImageViewType1d, vk.ImageViewType1dArray:
		return []viewTypeRange{
			{vk.ImageViewType1d, 1},
			{vk.ImageViewType1dArray, info.NumLayers},
		}

	case vk.ImageViewType2d, vk.ImageViewType2dArray:
		return []viewTypeRange{
			{vk.ImageViewType2d, 1},
			{vk.ImageViewType2dArray, info.NumLayers},
		}

	case vk.ImageViewTypeCube, vk.ImageViewTypeCubeArray:
		ret := []viewTypeRange{
			{vk.ImageViewType2d, 1},
			{vk.ImageViewType2dArray, info.NumLayers},
		}
		if imageInfo.Flags&vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit) != 0 {
			cubeCount := info.NumLayers / 6
			if cubeCount > 0 {
				ret = append(ret,
					viewTypeRange{vk.ImageViewTypeCube, 6},
					viewTypeRange{vk.ImageViewTypeCubeArray, cubeCount * 6})
			}
		}
		return ret

	case vk.ImageViewType3d:
		ret := []viewTypeRange{
			{vk.ImageViewType3d, 1},
		}
		if imageInfo.Flags&vk.ImageCreateFlags(vk.ImageCreate2dArrayCompatibleBit) != 0 {
			ret = append(ret,
				viewTypeRange{vk.ImageViewType2d, 1},
				viewTypeRange{vk.ImageViewType2dArray, mipExtent(imageInfo.Extent, info.MinLevel).Depth})
		}
		return ret
	}

	return nil
}

// CreateImageView creates an image view against an already constructed
// image. The default view type is always constructed; alternate compatible
// types are constructed alongside it so callers can address the image, for
// example, both as a cube and as a 2D array. A driver failure on any view
// fails the whole construction and releases everything built so far.
func (d *Device) CreateImageView(image *Image, info *ImageViewCreateInfo) (*ImageView, error) {
	if info.ViewType < 0 || int(info.ViewType) >= imageViewTypeCount {
		return nil, errors.Newf("view type %d is not compatible with the image", info.ViewType)
	}

	v := &ImageView{Device: d, image: image, info: *info}

	for _, r := range compatibleViewTypes(&v.info, image.Info()) {
		if err := v.createView(r.viewType, r.numLayers); err != nil {
			v.destroyViews()
			return nil, err
		}
	}

	if v.views[v.info.ViewType] == vk.NullImageView {
		v.destroyViews()
		return nil, errors.Newf("view type %d is not compatible with the image", v.info.ViewType)
	}

	image.incRef()
	v.initResource(v.destroyNative)

	return v, nil
}

func (v *ImageView) createView(viewType vk.ImageViewType, numLayers uint32) error {
	var createInfo = vk.ImageViewCreateInfo{}
	createInfo.SType = vk.StructureTypeImageViewCreateInfo
	createInfo.Image = v.image.Handle()
	createInfo.ViewType = viewType
	createInfo.Format = v.info.Format
	createInfo.Components = v.info.Swizzle
	createInfo.SubresourceRange = vk.ImageSubresourceRange{
		AspectMask:     v.info.Aspect,
		BaseMipLevel:   v.info.MinLevel,
		LevelCount:     v.info.NumLevels,
		BaseArrayLayer: v.info.MinLayer,
		LayerCount:     numLayers,
	}

	var handle vk.ImageView

	if err := vkError(vk.CreateImageView(v.Device.VKDevice, &createInfo, nil, &handle)); err != nil {
		return errors.Wrapf(err, "failed to create image view of type %d", viewType)
	}

	v.views[viewType] = handle
	return nil
}

func (v *ImageView) destroyViews() {
	for i, h := range v.views {
		if h != vk.NullImageView {
			vk.DestroyImageView(v.Device.VKDevice, h, nil)
			v.views[i] = vk.NullImageView
		}
	}
}

func (v *ImageView) destroyNative() {
	v.destroyViews()
	v.image.decRef()
}

// Destroy releases the view's native handles and its reference on the
// parent image.
func (v *ImageView) Destroy() {
	v.decRef()
}

// Handle returns the native view handle for the default view type. It is
// guaranteed to be non null after successful construction and should be
// preferred over picking a different type.
func (v *ImageView) Handle() vk.ImageView {
	return v.HandleForType(v.info.ViewType)
}

// HandleForType returns the native view handle for the given view type, or
// the null handle if that type was not constructed for this view. Callers
// are expected to check for the null handle and fall back to Handle.
func (v *ImageView) HandleForType(viewType vk.ImageViewType) vk.ImageView {
	if viewType < 0 || int(viewType) >= imageViewTypeCount {
		return vk.NullImageView
	}
	return v.views[viewType]
}

// Type returns the default view type. Convenience method for resource
// compatibility checks.
func (v *ImageView) Type() vk.ImageViewType {
	return v.info.ViewType
}

// Info returns the view properties the view was created with
func (v *ImageView) Info() *ImageViewCreateInfo {
	return &v.info
}

// Image returns the parent image object
func (v *ImageView) Image() *Image {
	return v.image
}

// ImageHandle returns the parent image's native handle
func (v *ImageView) ImageHandle() vk.Image {
	return v.image.Handle()
}

// ImageInfo returns the parent image's properties
func (v *ImageView) ImageInfo() *ImageCreateInfo {
	return v.image.Info()
}

// FormatInfo returns the parent image's format metadata
func (v *ImageView) FormatInfo() *FormatInfo {
	return v.image.FormatInfo()
}

// MipLevelExtent computes the mip level size relative to the first mip level
// the view includes.
func (v *ImageView) MipLevelExtent(level uint32) vk.Extent3D {
	return v.image.MipLevelExtent(level + v.info.MinLevel)
}

// Subresources reconstructs the subresource range addressed by the view from
// the stored create info.
func (v *ImageView) Subresources() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     v.info.Aspect,
		BaseMipLevel:   v.info.MinLevel,
		LevelCount:     v.info.NumLevels,
		BaseArrayLayer: v.info.MinLayer,
		LayerCount:     v.info.NumLayers,
	}
}

// PickLayout picks an image layout, see Image.PickLayout
func (v *ImageView) PickLayout(layout vk.ImageLayout) vk.ImageLayout {
	return v.image.PickLayout(layout)
}

// SetRtBindingFrameId records that the view is bound as a render target in
// the given frame. Calling it again with the same frame id is a no-op; a
// frame id one past the previous one extends the consecutive run; anything
// else resets the run.
func (v *ImageView) SetRtBindingFrameId(frameId uint32) {
	if frameId == v.rtBindingFrameId {
		return
	}
	if frameId == v.rtBindingFrameId+1 {
		v.rtBindingFrameCount++
	} else {
		v.rtBindingFrameCount = 0
	}
	v.rtBindingFrameId = frameId
}

// GetRtBindingAsyncCompilationCompat reports whether the view has been bound
// as a render target over enough consecutive frames that compiling a
// pipeline for it asynchronously is unlikely to cause a visible stall.
func (v *ImageView) GetRtBindingAsyncCompilationCompat() bool {
	return v.rtBindingFrameCount >= asyncCompilationFrameCount
}
