package vkres

import (
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
)

type countingTask struct {
	counter *int64
}

func (t *countingTask) compile() error {
	atomic.AddInt64(t.counter, 1)
	return nil
}

type failingTask struct{}

func (failingTask) compile() error {
	return errors.New("compile failed")
}

func TestPipelineCompilerRunsTasks(t *testing.T) {
	c := NewPipelineCompiler(2)

	var count int64
	for i := 0; i < 100; i++ {
		c.Queue(&countingTask{counter: &count})
	}

	c.Stop()

	if got := atomic.LoadInt64(&count); got != 100 {
		t.Errorf("expected 100 tasks to run, got %d", got)
	}
}

func TestPipelineCompilerSurvivesFailures(t *testing.T) {
	c := NewPipelineCompiler(1)

	var count int64
	c.Queue(failingTask{})
	c.Queue(&countingTask{counter: &count})
	c.Queue(failingTask{})
	c.Queue(&countingTask{counter: &count})

	c.Stop()

	if got := atomic.LoadInt64(&count); got != 2 {
		t.Errorf("workers should keep running after a failed task, got %d", got)
	}
}

func TestPipelineCompilerStopTwice(t *testing.T) {
	c := NewPipelineCompiler(1)
	c.Stop()
	c.Stop()
}
