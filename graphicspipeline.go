package vkres

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// GraphicsPipelineStateInfo captures the render state a graphics pipeline
// variant is compiled against. The struct is comparable and acts as the
// variant cache key, so it holds only plain values.
type GraphicsPipelineStateInfo struct {
	RenderPass vk.RenderPass
	Subpass    uint32

	Topology    vk.PrimitiveTopology
	PolygonMode vk.PolygonMode
	CullMode    vk.CullModeFlagBits
	FrontFace   vk.FrontFace
	SampleCount vk.SampleCountFlagBits

	DepthTestEnable  bool
	DepthWriteEnable bool
	// DepthCompareOp defaults to less-or-equal when left zero
	DepthCompareOp vk.CompareOp

	BlendEnable bool
}

// graphicsPipelineInstance pairs a state vector with the variant compiled
// for it. The pipeline handle stays null while an asynchronous compile is in
// flight.
type graphicsPipelineInstance struct {
	state    GraphicsPipelineStateInfo
	pipeline vk.Pipeline
}

// GraphicsPipeline stores the variants of a graphics pipeline compiled for
// each render state it was requested with. Viewport and scissor are dynamic
// state in every variant, so they do not participate in the state vector.
type GraphicsPipeline struct {
	manager *PipelineManager

	vs  *ShaderModule
	tcs *ShaderModule
	tes *ShaderModule
	gs  *ShaderModule
	fs  *ShaderModule

	mu           sync.Mutex
	layout       *PipelineLayout
	instances    []*graphicsPipelineInstance
	basePipeline vk.Pipeline
}

// caller must hold p.mu
func (p *GraphicsPipeline) findInstance(state *GraphicsPipelineStateInfo) *graphicsPipelineInstance {
	for _, inst := range p.instances {
		if inst.state == *state {
			return inst
		}
	}
	return nil
}

// GetPipelineHandle returns the pipeline variant for the given state.
//
// A variant that exists is returned immediately; its handle may still be the
// null handle while a previously queued compile is in flight. A variant that
// does not exist yet is compiled in place, unless async is set and the
// manager runs an asynchronous compiler, in which case the compile is queued
// on the background workers and the null handle is returned so the caller
// can skip the draw instead of stalling the frame. Callers decide async
// eligibility, typically from the render target's
// GetRtBindingAsyncCompilationCompat signal.
func (p *GraphicsPipeline) GetPipelineHandle(state *GraphicsPipelineStateInfo, async bool) (vk.Pipeline, error) {
	p.mu.Lock()

	if inst := p.findInstance(state); inst != nil {
		handle := inst.pipeline
		p.mu.Unlock()
		return handle, nil
	}

	inst := &graphicsPipelineInstance{state: *state}
	p.instances = append(p.instances, inst)
	p.mu.Unlock()

	if async && p.manager.compiler != nil {
		p.manager.compiler.Queue(&graphicsCompileTask{pipeline: p, instance: inst})
		return vk.NullPipeline, nil
	}

	return p.compileInstance(inst)
}

// compileInstance compiles the variant for an instance and publishes the
// handle. Runs on the caller for synchronous requests and on a compiler
// worker for asynchronous ones.
func (p *GraphicsPipeline) compileInstance(inst *graphicsPipelineInstance) (vk.Pipeline, error) {
	handle, err := p.compileVariant(&inst.state)
	if err != nil {
		return vk.NullPipeline, err
	}

	p.mu.Lock()
	inst.pipeline = handle
	if p.basePipeline == vk.NullPipeline {
		p.basePipeline = handle
	}
	p.mu.Unlock()

	atomic.AddUint32(&p.manager.numGraphicsPipelines, 1)

	logger().Debug("compiled graphics pipeline variant", "shader", p.vs.Description)

	return handle, nil
}

func (p *GraphicsPipeline) ensureLayout() (*PipelineLayout, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.layout == nil {
		layout, err := p.manager.Device.CreatePipelineLayout()
		if err != nil {
			return nil, err
		}
		p.layout = layout
	}
	return p.layout, nil
}

func (p *GraphicsPipeline) shaderStages() []vk.PipelineShaderStageCreateInfo {
	stages := make([]vk.PipelineShaderStageCreateInfo, 0, 5)
	for _, s := range []*ShaderModule{p.vs, p.tcs, p.tes, p.gs, p.fs} {
		if s != nil {
			stages = append(stages, s.VKPipelineShaderStageCreateInfo("main"))
		}
	}
	return stages
}

func (p *GraphicsPipeline) compileVariant(state *GraphicsPipelineStateInfo) (vk.Pipeline, error) {
	device := p.manager.Device

	cache, err := p.manager.pipelineCache()
	if err != nil {
		return vk.NullPipeline, err
	}

	layout, err := p.ensureLayout()
	if err != nil {
		return vk.NullPipeline, err
	}

	depthCompareOp := state.DepthCompareOp
	if depthCompareOp == 0 {
		depthCompareOp = vk.CompareOpLessOrEqual
	}

	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}

	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: state.Topology,
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizationState := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: state.PolygonMode,
		CullMode:    vk.CullModeFlags(state.CullMode),
		FrontFace:   state.FrontFace,
		LineWidth:   1.0,
	}

	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: state.SampleCount,
	}

	depthStencilState := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vkBool(state.DepthTestEnable),
		DepthWriteEnable: vkBool(state.DepthWriteEnable),
		DepthCompareOp:   depthCompareOp,
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vkBool(state.BlendEnable),
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	if state.BlendEnable {
		blendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttachment.ColorBlendOp = vk.BlendOpAdd
		blendAttachment.SrcAlphaBlendFactor = vk.BlendFactorOne
		blendAttachment.DstAlphaBlendFactor = vk.BlendFactorZero
		blendAttachment.AlphaBlendOp = vk.BlendOpAdd
	}

	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}

	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: 2,
		PDynamicStates:    []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor},
	}

	stages := p.shaderStages()

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizationState,
		PMultisampleState:   &multisampleState,
		PDepthStencilState:  &depthStencilState,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Layout:              layout.VKPipelineLayout,
		RenderPass:          state.RenderPass,
		Subpass:             state.Subpass,
	}

	pipelines := make([]vk.Pipeline, 1)

	err = vkError(vk.CreateGraphicsPipelines(device.VKDevice, cache.VKPipelineCache,
		1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines))
	if err != nil {
		return vk.NullPipeline, errors.Wrap(err, "failed to compile graphics pipeline variant")
	}

	return pipelines[0], nil
}

func (p *GraphicsPipeline) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, inst := range p.instances {
		if inst.pipeline != vk.NullPipeline {
			vk.DestroyPipeline(p.manager.Device.VKDevice, inst.pipeline, nil)
			inst.pipeline = vk.NullPipeline
		}
	}
	p.instances = nil
	p.basePipeline = vk.NullPipeline

	if p.layout != nil {
		p.layout.Destroy()
		p.layout = nil
	}
}
