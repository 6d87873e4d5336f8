package vkres

import (
	vk "github.com/vulkan-go/vulkan"
)

// FormatInfo describes invariant properties of a pixel format. The table
// behind GetFormatInfo is built once at package initialization and never
// mutated afterwards.
type FormatInfo struct {
	// AspectMask covers every aspect the format carries. For combined
	// depth-stencil formats this is both the depth and the stencil bit.
	AspectMask vk.ImageAspectFlags
}

// HasDepth returns true if the format carries a depth aspect.
func (f *FormatInfo) HasDepth() bool {
	return f.AspectMask&vk.ImageAspectFlags(vk.ImageAspectDepthBit) != 0
}

// HasStencil returns true if the format carries a stencil aspect.
func (f *FormatInfo) HasStencil() bool {
	return f.AspectMask&vk.ImageAspectFlags(vk.ImageAspectStencilBit) != 0
}

var (
	colorFormatInfo        = FormatInfo{AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit)}
	depthFormatInfo        = FormatInfo{AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit)}
	stencilFormatInfo      = FormatInfo{AspectMask: vk.ImageAspectFlags(vk.ImageAspectStencilBit)}
	depthStencilFormatInfo = FormatInfo{AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)}
)

var depthFormats = []vk.Format{
	vk.FormatD16Unorm,
	vk.FormatX8D24UnormPack32,
	vk.FormatD32Sfloat,
}

var stencilFormats = []vk.Format{
	vk.FormatS8Uint,
}

var depthStencilFormats = []vk.Format{
	vk.FormatD16UnormS8Uint,
	vk.FormatD24UnormS8Uint,
	vk.FormatD32SfloatS8Uint,
}

var formatInfos map[vk.Format]*FormatInfo

func init() {
	formatInfos = make(map[vk.Format]*FormatInfo)
	for _, f := range depthFormats {
		formatInfos[f] = &depthFormatInfo
	}
	for _, f := range stencilFormats {
		formatInfos[f] = &stencilFormatInfo
	}
	for _, f := range depthStencilFormats {
		formatInfos[f] = &depthStencilFormatInfo
	}
}

// GetFormatInfo returns metadata for the given format. Formats not present
// in the table are color formats, so lookups are total.
func GetFormatInfo(format vk.Format) *FormatInfo {
	if info, ok := formatInfos[format]; ok {
		return info
	}
	return &colorFormatInfo
}
