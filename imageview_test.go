package vkres

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func viewTypesOf(ranges []viewTypeRange) map[vk.ImageViewType]uint32 {
	m := make(map[vk.ImageViewType]uint32)
	for _, r := range ranges {
		m[r.viewType] = r.numLayers
	}
	return m
}

func TestCompatibleViewTypes2d(t *testing.T) {
	imageInfo := &ImageCreateInfo{
		ImageType: vk.ImageType2d,
		Extent:    vk.Extent3D{Width: 16, Height: 16, Depth: 1},
		Layers:    4,
	}
	info := &ImageViewCreateInfo{
		ViewType:  vk.ImageViewType2d,
		NumLayers: 4,
	}

	types := viewTypesOf(compatibleViewTypes(info, imageInfo))

	if types[vk.ImageViewType2d] != 1 {
		t.Error("2D view type missing or spanning more than one layer")
	}
	if types[vk.ImageViewType2dArray] != 4 {
		t.Errorf("2D array view should span 4 layers, got %d", types[vk.ImageViewType2dArray])
	}
	if _, ok := types[vk.ImageViewTypeCube]; ok {
		t.Error("cube view requires the cube compatible flag")
	}
}

func TestCompatibleViewTypesCube(t *testing.T) {
	imageInfo := &ImageCreateInfo{
		ImageType: vk.ImageType2d,
		Flags:     vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit),
		Extent:    vk.Extent3D{Width: 16, Height: 16, Depth: 1},
		Layers:    12,
	}
	info := &ImageViewCreateInfo{
		ViewType:  vk.ImageViewTypeCube,
		NumLayers: 12,
	}

	types := viewTypesOf(compatibleViewTypes(info, imageInfo))

	if types[vk.ImageViewTypeCube] != 6 {
		t.Errorf("cube view should span 6 layers, got %d", types[vk.ImageViewTypeCube])
	}
	if types[vk.ImageViewTypeCubeArray] != 12 {
		t.Errorf("cube array view should span 12 layers, got %d", types[vk.ImageViewTypeCubeArray])
	}
	if types[vk.ImageViewType2dArray] != 12 {
		t.Errorf("2D array view should span 12 layers, got %d", types[vk.ImageViewType2dArray])
	}
}

func TestCompatibleViewTypesCubeTooFewLayers(t *testing.T) {
	imageInfo := &ImageCreateInfo{
		ImageType: vk.ImageType2d,
		Flags:     vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit),
		Extent:    vk.Extent3D{Width: 16, Height: 16, Depth: 1},
		Layers:    4,
	}
	info := &ImageViewCreateInfo{
		ViewType:  vk.ImageViewTypeCube,
		NumLayers: 4,
	}

	types := viewTypesOf(compatibleViewTypes(info, imageInfo))

	if _, ok := types[vk.ImageViewTypeCube]; ok {
		t.Error("fewer than six layers cannot form a cube view")
	}
}

func TestCompatibleViewTypes3d(t *testing.T) {
	imageInfo := &ImageCreateInfo{
		ImageType: vk.ImageType3d,
		Extent:    vk.Extent3D{Width: 16, Height: 16, Depth: 8},
	}
	info := &ImageViewCreateInfo{
		ViewType:  vk.ImageViewType3d,
		NumLayers: 1,
	}

	types := viewTypesOf(compatibleViewTypes(info, imageInfo))
	if len(types) != 1 || types[vk.ImageViewType3d] != 1 {
		t.Errorf("plain 3D image should only yield a 3D view, got %v", types)
	}

	imageInfo.Flags = vk.ImageCreateFlags(vk.ImageCreate2dArrayCompatibleBit)
	types = viewTypesOf(compatibleViewTypes(info, imageInfo))

	if types[vk.ImageViewType2d] != 1 {
		t.Error("2D array compatible 3D image should yield a 2D view")
	}
	if types[vk.ImageViewType2dArray] != 8 {
		t.Errorf("2D array view over a 3D image should span its depth, got %d", types[vk.ImageViewType2dArray])
	}

	// A deeper mip halves the slice count
	info.MinLevel = 1
	types = viewTypesOf(compatibleViewTypes(info, imageInfo))
	if types[vk.ImageViewType2dArray] != 4 {
		t.Errorf("2D array view at level 1 should span 4 slices, got %d", types[vk.ImageViewType2dArray])
	}
}

func testImageView(imageInfo ImageCreateInfo, info ImageViewCreateInfo) *ImageView {
	v := &ImageView{image: testImage(imageInfo), info: info}
	v.image.incRef()
	v.initResource(func() {})
	return v
}

func TestViewSubresources(t *testing.T) {
	v := testImageView(
		ImageCreateInfo{
			Format:    vk.FormatR8g8b8a8Unorm,
			Extent:    vk.Extent3D{Width: 64, Height: 64, Depth: 1},
			MipLevels: 7,
			Layers:    6,
		},
		ImageViewCreateInfo{
			ViewType:  vk.ImageViewType2dArray,
			Aspect:    vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MinLevel:  2,
			NumLevels: 3,
			MinLayer:  1,
			NumLayers: 4,
		})

	s := v.Subresources()
	if s.AspectMask != vk.ImageAspectFlags(vk.ImageAspectColorBit) {
		t.Error("aspect mask mismatch")
	}
	if s.BaseMipLevel != 2 || s.LevelCount != 3 {
		t.Errorf("mip range mismatch: base %d count %d", s.BaseMipLevel, s.LevelCount)
	}
	if s.BaseArrayLayer != 1 || s.LayerCount != 4 {
		t.Errorf("layer range mismatch: base %d count %d", s.BaseArrayLayer, s.LayerCount)
	}

	// View levels are relative to the first level the view includes
	e := v.MipLevelExtent(0)
	if e.Width != 16 || e.Height != 16 {
		t.Errorf("view level 0 should be image level 2, got %dx%d", e.Width, e.Height)
	}
}

func TestCreateImageViewRejectsUnknownType(t *testing.T) {
	d := &Device{}
	img := testImage(ImageCreateInfo{
		Format:    vk.FormatR8g8b8a8Unorm,
		Extent:    vk.Extent3D{Width: 8, Height: 8, Depth: 1},
		MipLevels: 1,
		Layers:    1,
	})

	v, err := d.CreateImageView(img, &ImageViewCreateInfo{
		ViewType:  vk.ImageViewType(99),
		NumLevels: 1,
		NumLayers: 1,
	})
	if err == nil {
		t.Fatal("out of range view type must fail construction")
	}
	if v != nil {
		t.Error("failed construction must not return a view")
	}
}

func TestHandleForTypeBounds(t *testing.T) {
	v := testImageView(
		ImageCreateInfo{
			Format:    vk.FormatR8g8b8a8Unorm,
			Extent:    vk.Extent3D{Width: 8, Height: 8, Depth: 1},
			MipLevels: 1,
			Layers:    1,
		},
		ImageViewCreateInfo{
			ViewType:  vk.ImageViewType2d,
			NumLevels: 1,
			NumLayers: 1,
		})

	if v.HandleForType(vk.ImageViewTypeCube) != vk.NullImageView {
		t.Error("absent view type should yield the null handle")
	}
	if v.HandleForType(vk.ImageViewType(99)) != vk.NullImageView {
		t.Error("out of range view type should yield the null handle")
	}
}

func TestRtBindingFrameTracking(t *testing.T) {
	v := testImageView(
		ImageCreateInfo{Format: vk.FormatR8g8b8a8Unorm},
		ImageViewCreateInfo{ViewType: vk.ImageViewType2d})

	if v.GetRtBindingAsyncCompilationCompat() {
		t.Error("fresh view must not be async compatible")
	}

	// Five consecutive frame increments reach the threshold
	for frame := uint32(10); frame <= 15; frame++ {
		v.SetRtBindingFrameId(frame)
	}
	if v.rtBindingFrameCount != 5 {
		t.Errorf("expected run of 5, got %d", v.rtBindingFrameCount)
	}
	if !v.GetRtBindingAsyncCompilationCompat() {
		t.Error("view should be async compatible after five consecutive frames")
	}

	// Repeating the current frame id changes nothing
	v.SetRtBindingFrameId(15)
	if v.rtBindingFrameCount != 5 {
		t.Errorf("repeated frame id must not change the run, got %d", v.rtBindingFrameCount)
	}

	// A gap resets the run
	v.SetRtBindingFrameId(20)
	if v.rtBindingFrameCount != 0 {
		t.Errorf("frame gap should reset the run, got %d", v.rtBindingFrameCount)
	}
	if v.GetRtBindingAsyncCompilationCompat() {
		t.Error("view must not stay async compatible after a reset")
	}
}

func TestRtBindingCompatThreshold(t *testing.T) {
	v := testImageView(
		ImageCreateInfo{Format: vk.FormatR8g8b8a8Unorm},
		ImageViewCreateInfo{ViewType: vk.ImageViewType2d})

	// The first call with a non successor frame id starts the run without
	// extending it, so the threshold lands on the sixth consecutive id.
	for frame := uint32(10); frame <= 14; frame++ {
		v.SetRtBindingFrameId(frame)
		if v.GetRtBindingAsyncCompilationCompat() {
			t.Errorf("view became async compatible too early at frame %d", frame)
		}
	}

	v.SetRtBindingFrameId(15)
	if !v.GetRtBindingAsyncCompilationCompat() {
		t.Error("view should be async compatible at the sixth consecutive frame")
	}
}
