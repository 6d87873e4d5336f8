package vkres

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Swapchain wraps a Vulkan swapchain. Its images belong to the presentation
// engine; WrapImages hands them out as borrowed Image wrappers whose
// Destroy never touches the underlying handles.
type Swapchain struct {
	Extent      vk.Extent2D
	Format      vk.Format
	Device      *Device
	VKSwapchain vk.Swapchain
	ImageUsage  vk.ImageUsageFlags
	Layers      uint32
}

func (s *Swapchain) Destroy() {
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

type CreateSwapchainOptions struct {
	OldSwapchain              *Swapchain
	ActualSize                vk.Extent2D
	DesiredNumSwapchainImages int

	// GraphicsQueueFamilyIndex and PresentQueueFamilyIndex select the
	// sharing mode. Concurrent sharing is used when they differ.
	GraphicsQueueFamilyIndex int
	PresentQueueFamilyIndex  int
}

// DefaultNumSwapchainImages will return the surface's minimum image count
// plus one.
func (p *Device) DefaultNumSwapchainImages(surface vk.Surface) (int, error) {
	caps, err := p.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return 0, err
	}
	caps.Deref()

	return int(caps.MinImageCount) + 1, nil
}

// CreateSwapchain will create a swapchain on the surface, preferring
// mailbox presentation and a B8G8R8A8 unorm format when available.
func (p *Device) CreateSwapchain(surface vk.Surface, options *CreateSwapchainOptions) (*Swapchain, error) {

	modes, err := p.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}

	presentMode := vk.PresentModeFifo
	m := modes.Filter(vk.PresentModeMailbox)
	if len(m) > 0 {
		presentMode = m[0]
	}

	formats, err := p.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, errors.New("surface reports no formats")
	}

	format := formats[0]
	format.Deref()
	formats.Filter(func(f vk.SurfaceFormat) bool {
		f.Deref()
		if f.Format == vk.FormatB8g8r8a8Unorm {
			format = f
			return true
		}
		return false
	})

	caps, err := p.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}
	caps.Deref()

	var swapchainSize vk.Extent2D

	caps.CurrentExtent.Deref()
	if caps.CurrentExtent.Width == vk.MaxUint32 {
		if options != nil {
			swapchainSize = options.ActualSize
		} else {
			swapchainSize = caps.MinImageExtent
		}
	} else {
		swapchainSize = caps.CurrentExtent
	}

	desiredSwapChainImages := 0
	if options != nil {
		desiredSwapChainImages = options.DesiredNumSwapchainImages
	}
	if desiredSwapChainImages == 0 {
		desiredSwapChainImages, err = p.DefaultNumSwapchainImages(surface)
		if err != nil {
			return nil, err
		}
	}

	imageUsage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)

	var swapchain vk.Swapchain

	createInfo := &vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface,
		MinImageCount:   uint32(desiredSwapChainImages),
		ImageFormat:     format.Format,
		ImageColorSpace: format.ColorSpace,
		ImageExtent: vk.Extent2D{
			Width:  swapchainSize.Width,
			Height: swapchainSize.Height,
		},
		PresentMode:      presentMode,
		ImageUsage:       imageUsage,
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}

	if options != nil {
		if options.OldSwapchain != nil {
			createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
		}

		if options.GraphicsQueueFamilyIndex != options.PresentQueueFamilyIndex {
			createInfo.QueueFamilyIndexCount = 2
			createInfo.PQueueFamilyIndices = []uint32{
				uint32(options.GraphicsQueueFamilyIndex),
				uint32(options.PresentQueueFamilyIndex),
			}
			createInfo.ImageSharingMode = vk.SharingModeConcurrent
		}
	}

	err = vkError(vk.CreateSwapchain(p.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create swapchain")
	}

	var ret Swapchain
	ret.VKSwapchain = swapchain
	ret.Device = p
	ret.Extent = vk.Extent2D{
		Width:  swapchainSize.Width,
		Height: swapchainSize.Height,
	}
	ret.Format = format.Format
	ret.ImageUsage = imageUsage
	ret.Layers = 1

	return &ret, nil
}

// WrapImages will fetch the swapchain's images and wrap each one as a
// borrowed Image. The wrappers carry the geometry and usage the swapchain
// was created with; destroying them releases only the wrapper.
func (s *Swapchain) WrapImages() ([]*Image, error) {
	var imageCount uint32
	err := vkError(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil))
	if err != nil {
		return nil, err
	}

	swapchainImages := make([]vk.Image, imageCount)
	err = vkError(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages))
	if err != nil {
		return nil, err
	}

	info := &ImageCreateInfo{
		ImageType: vk.ImageType2d,
		Format:    s.Format,
		Samples:   vk.SampleCount1Bit,
		Extent: vk.Extent3D{
			Width:  s.Extent.Width,
			Height: s.Extent.Height,
			Depth:  1,
		},
		Layers:    s.Layers,
		MipLevels: 1,
		Usage:     s.ImageUsage,
		Stages:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Access:    vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		Tiling:    vk.ImageTilingOptimal,
		Layout:    vk.ImageLayoutPresentSrc,
	}

	ret := make([]*Image, imageCount)
	for i := range swapchainImages {
		ret[i] = s.Device.WrapImage(info, swapchainImages[i])
	}

	return ret, nil
}
