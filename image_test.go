package vkres

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func testImage(info ImageCreateInfo) *Image {
	img := &Image{info: info, backing: borrowedBacking{}}
	img.initResource(func() {})
	return img
}

func TestMipLevelExtent(t *testing.T) {
	img := testImage(ImageCreateInfo{
		Format:    vk.FormatR8g8b8a8Unorm,
		Extent:    vk.Extent3D{Width: 256, Height: 128, Depth: 1},
		MipLevels: 9,
		Layers:    1,
	})

	e := img.MipLevelExtent(0)
	if e.Width != 256 || e.Height != 128 || e.Depth != 1 {
		t.Errorf("level 0 extent wrong: %dx%dx%d", e.Width, e.Height, e.Depth)
	}

	e = img.MipLevelExtent(3)
	if e.Width != 32 || e.Height != 16 || e.Depth != 1 {
		t.Errorf("level 3 extent wrong: %dx%dx%d", e.Width, e.Height, e.Depth)
	}

	// Axes clamp at one texel once they have halved away
	e = img.MipLevelExtent(8)
	if e.Width != 1 || e.Height != 1 || e.Depth != 1 {
		t.Errorf("level 8 extent wrong: %dx%dx%d", e.Width, e.Height, e.Depth)
	}

	e = img.MipLevelExtent(20)
	if e.Width != 1 || e.Height != 1 || e.Depth != 1 {
		t.Errorf("oversized level should clamp to 1x1x1, got %dx%dx%d", e.Width, e.Height, e.Depth)
	}

	prev := img.MipLevelExtent(0)
	for level := uint32(1); level < 12; level++ {
		cur := img.MipLevelExtent(level)
		if cur.Width > prev.Width || cur.Height > prev.Height || cur.Depth > prev.Depth {
			t.Errorf("level %d grew over level %d", level, level-1)
		}
		if cur.Width < 1 || cur.Height < 1 || cur.Depth < 1 {
			t.Errorf("level %d has a zero axis", level)
		}
		prev = cur
	}
}

func TestPickLayout(t *testing.T) {
	img := testImage(ImageCreateInfo{
		Format: vk.FormatR8g8b8a8Unorm,
		Layout: vk.ImageLayoutShaderReadOnlyOptimal,
	})

	if l := img.PickLayout(vk.ImageLayoutTransferDstOptimal); l != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("expected requested layout back, got %d", l)
	}

	general := testImage(ImageCreateInfo{
		Format: vk.FormatR8g8b8a8Unorm,
		Layout: vk.ImageLayoutGeneral,
	})

	if l := general.PickLayout(vk.ImageLayoutTransferDstOptimal); l != vk.ImageLayoutGeneral {
		t.Errorf("general images must stay in the general layout, got %d", l)
	}
	if l := general.PickLayout(vk.ImageLayoutGeneral); l != vk.ImageLayoutGeneral {
		t.Errorf("expected general layout, got %d", l)
	}
}

func TestIsFullSubresource(t *testing.T) {
	img := testImage(ImageCreateInfo{
		Format:    vk.FormatR8g8b8a8Unorm,
		Extent:    vk.Extent3D{Width: 64, Height: 64, Depth: 1},
		MipLevels: 7,
		Layers:    1,
	})

	sub := vk.ImageSubresourceLayers{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		MipLevel:   0,
	}

	if !img.IsFullSubresource(sub, vk.Extent3D{Width: 64, Height: 64, Depth: 1}) {
		t.Error("full extent at level 0 should be a full subresource")
	}

	if img.IsFullSubresource(sub, vk.Extent3D{Width: 32, Height: 64, Depth: 1}) {
		t.Error("half extent must not be a full subresource")
	}

	sub.MipLevel = 2
	if !img.IsFullSubresource(sub, vk.Extent3D{Width: 16, Height: 16, Depth: 1}) {
		t.Error("full extent at level 2 should be a full subresource")
	}
}

func TestIsFullSubresourceAspects(t *testing.T) {
	img := testImage(ImageCreateInfo{
		Format:    vk.FormatD24UnormS8Uint,
		Extent:    vk.Extent3D{Width: 32, Height: 32, Depth: 1},
		MipLevels: 1,
		Layers:    1,
	})

	full := vk.Extent3D{Width: 32, Height: 32, Depth: 1}

	depthOnly := vk.ImageSubresourceLayers{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	}
	if img.IsFullSubresource(depthOnly, full) {
		t.Error("depth aspect alone must not cover a depth-stencil image")
	}

	both := vk.ImageSubresourceLayers{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit),
	}
	if !img.IsFullSubresource(both, full) {
		t.Error("both aspects with the full extent should be a full subresource")
	}
}

func TestWrapImageCopiesInfo(t *testing.T) {
	viewFormats := []vk.Format{vk.FormatR8g8b8a8Unorm, vk.FormatR8g8b8a8Srgb}
	info := &ImageCreateInfo{
		ImageType:   vk.ImageType2d,
		Format:      vk.FormatR8g8b8a8Unorm,
		Extent:      vk.Extent3D{Width: 8, Height: 8, Depth: 1},
		MipLevels:   1,
		Layers:      1,
		ViewFormats: viewFormats,
	}

	d := &Device{}
	img := d.WrapImage(info, vk.NullImage)

	viewFormats[0] = vk.FormatB8g8r8a8Unorm
	if img.Info().ViewFormats[0] != vk.FormatR8g8b8a8Unorm {
		t.Error("view format list must be copied at construction time")
	}

	// Borrowed images never expose host memory
	if img.MapPtr(0) != nil {
		t.Error("borrowed image returned a map pointer")
	}

	img.Destroy()
}
