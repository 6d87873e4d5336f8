package vkres

import (
	"testing"
)

func TestOptionsFromEnvDefaults(t *testing.T) {
	t.Setenv("VKRES_ALLOW_MEMORY_OVERCOMMIT", "")
	t.Setenv("VKRES_ASYNC_PIPE_COMPILER", "")
	t.Setenv("VKRES_COMPILER_WORKER_COUNT", "")

	o := OptionsFromEnv()
	if o.AllowMemoryOvercommit || o.AsyncPipeCompiler || o.CompilerWorkerCount != 0 {
		t.Errorf("unexpected defaults: %+v", o)
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("VKRES_ALLOW_MEMORY_OVERCOMMIT", "true")
	t.Setenv("VKRES_ASYNC_PIPE_COMPILER", "1")
	t.Setenv("VKRES_COMPILER_WORKER_COUNT", "4")

	o := OptionsFromEnv()
	if !o.AllowMemoryOvercommit {
		t.Error("overcommit should be enabled")
	}
	if !o.AsyncPipeCompiler {
		t.Error("async compiler should be enabled")
	}
	if o.CompilerWorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", o.CompilerWorkerCount)
	}
}

func TestOptionsFromEnvMalformed(t *testing.T) {
	t.Setenv("VKRES_ASYNC_PIPE_COMPILER", "maybe")
	t.Setenv("VKRES_COMPILER_WORKER_COUNT", "lots")

	o := OptionsFromEnv()
	if o.AsyncPipeCompiler {
		t.Error("malformed boolean should fall back to the default")
	}
	if o.CompilerWorkerCount != 0 {
		t.Error("malformed integer should fall back to the default")
	}
}
