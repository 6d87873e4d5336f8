package vkres

import (
	"runtime"
	"sync"
)

// compileTask is a unit of pipeline compilation work queued on the
// background workers.
type compileTask interface {
	compile() error
}

// graphicsCompileTask compiles one graphics pipeline variant on a worker.
type graphicsCompileTask struct {
	pipeline *GraphicsPipeline
	instance *graphicsPipelineInstance
}

func (t *graphicsCompileTask) compile() error {
	_, err := t.pipeline.compileInstance(t.instance)
	return err
}

// PipelineCompiler runs pipeline compilation on a pool of background worker
// goroutines so shader-heavy frames do not stall on driver compiles.
type PipelineCompiler struct {
	tasks    chan compileTask
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPipelineCompiler will create a compiler with the given number of
// workers. A count of zero or less picks half the logical CPUs, at least
// one.
func NewPipelineCompiler(workerCount int) *PipelineCompiler {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU() / 2
		if workerCount < 1 {
			workerCount = 1
		}
	}

	c := &PipelineCompiler{
		tasks: make(chan compileTask, 1024),
	}

	logger().Info("started pipeline compiler", "workers", workerCount)

	c.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go c.runWorker()
	}

	return c
}

// Queue submits a task to the workers. Blocks while the queue is full.
// Must not be called after Stop.
func (c *PipelineCompiler) Queue(task compileTask) {
	c.tasks <- task
}

// Stop drains the queue and waits for the workers to exit. Safe to call
// more than once.
func (c *PipelineCompiler) Stop() {
	c.stopOnce.Do(func() {
		close(c.tasks)
		c.wg.Wait()
	})
}

func (c *PipelineCompiler) runWorker() {
	defer c.wg.Done()

	for task := range c.tasks {
		if err := task.compile(); err != nil {
			logger().Warn("pipeline compilation failed", "error", err)
		}
	}
}
