package vkres

import (
	"sync"
	"sync/atomic"
)

// ComputePipelineKey identifies a compute pipeline by its shader
type ComputePipelineKey struct {
	CS *ShaderModule
}

// GraphicsPipelineKey identifies a graphics pipeline by the full set of
// shader stages it is built from; unused stages are nil.
type GraphicsPipelineKey struct {
	VS  *ShaderModule
	TCS *ShaderModule
	TES *ShaderModule
	GS  *ShaderModule
	FS  *ShaderModule
}

// PipelineCount holds the number of graphics and compute pipelines compiled
// so far, individually.
type PipelineCount struct {
	NumGraphicsPipelines uint32
	NumComputePipelines  uint32
}

// PipelineManager creates and stores graphics and compute pipelines for
// each combination of shaders used by the application. Requesting a pipeline
// for a shader set that was seen before returns the existing object.
//
// Unlike the rest of the package the manager is internally synchronized,
// since compiler workers report back into it.
type PipelineManager struct {
	Device *Device

	compiler *PipelineCompiler

	numGraphicsPipelines uint32
	numComputePipelines  uint32

	cacheOnce sync.Once
	cache     *PipelineCache
	cacheErr  error

	mu                sync.Mutex
	computePipelines  map[ComputePipelineKey]*ComputePipeline
	graphicsPipelines map[GraphicsPipelineKey]*GraphicsPipeline
}

// CreatePipelineManager creates a pipeline manager. The asynchronous
// compiler is started only when the options enable it.
func (d *Device) CreatePipelineManager(options *Options) *PipelineManager {
	m := &PipelineManager{
		Device:            d,
		computePipelines:  make(map[ComputePipelineKey]*ComputePipeline),
		graphicsPipelines: make(map[GraphicsPipelineKey]*GraphicsPipeline),
	}
	if options != nil && options.AsyncPipeCompiler {
		m.compiler = NewPipelineCompiler(options.CompilerWorkerCount)
	}
	return m
}

// Compiler returns the asynchronous pipeline compiler, or nil when async
// compilation is disabled.
func (m *PipelineManager) Compiler() *PipelineCompiler {
	return m.compiler
}

// pipelineCache returns the shared driver pipeline cache, creating it on
// first use.
func (m *PipelineManager) pipelineCache() (*PipelineCache, error) {
	m.cacheOnce.Do(func() {
		m.cache, m.cacheErr = m.Device.CreatePipelineCache()
	})
	return m.cache, m.cacheErr
}

// CreateComputePipeline retrieves the compute pipeline for the given shader,
// creating it if no pipeline for that shader exists yet. A nil shader yields
// a nil pipeline.
func (m *PipelineManager) CreateComputePipeline(cs *ShaderModule) *ComputePipeline {
	if cs == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := ComputePipelineKey{CS: cs}
	if p, ok := m.computePipelines[key]; ok {
		return p
	}

	p := &ComputePipeline{manager: m, cs: cs}
	m.computePipelines[key] = p
	return p
}

// CreateGraphicsPipeline retrieves the graphics pipeline for the given
// shader set, creating it if no pipeline for that set exists yet. The vertex
// shader is required; a nil vertex shader yields a nil pipeline.
func (m *PipelineManager) CreateGraphicsPipeline(vs, tcs, tes, gs, fs *ShaderModule) *GraphicsPipeline {
	if vs == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := GraphicsPipelineKey{VS: vs, TCS: tcs, TES: tes, GS: gs, FS: fs}
	if p, ok := m.graphicsPipelines[key]; ok {
		return p
	}

	p := &GraphicsPipeline{manager: m, vs: vs, tcs: tcs, tes: tes, gs: gs, fs: fs}
	m.graphicsPipelines[key] = p
	return p
}

// PipelineCount returns the total number of compiled pipelines
func (m *PipelineManager) PipelineCount() PipelineCount {
	return PipelineCount{
		NumGraphicsPipelines: atomic.LoadUint32(&m.numGraphicsPipelines),
		NumComputePipelines:  atomic.LoadUint32(&m.numComputePipelines),
	}
}

// Destroy stops the compiler workers and destroys every pipeline and the
// shared cache.
func (m *PipelineManager) Destroy() {
	if m.compiler != nil {
		m.compiler.Stop()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.computePipelines {
		p.Destroy()
	}
	for _, p := range m.graphicsPipelines {
		p.Destroy()
	}
	m.computePipelines = make(map[ComputePipelineKey]*ComputePipeline)
	m.graphicsPipelines = make(map[GraphicsPipelineKey]*GraphicsPipeline)

	if m.cache != nil {
		m.cache.Destroy()
		m.cache = nil
	}
}
