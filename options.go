package vkres

import (
	"os"
	"strconv"
)

// Options control optional behavior of the resource layer.
type Options struct {
	// AllowMemoryOvercommit permits the memory allocator to allocate more
	// memory from a heap than the device reports for it.
	AllowMemoryOvercommit bool

	// AsyncPipeCompiler enables asynchronous compilation of graphics
	// pipeline variants on background workers.
	AsyncPipeCompiler bool

	// CompilerWorkerCount is the number of compiler workers to start when
	// AsyncPipeCompiler is set. Zero picks a default based on the CPU count.
	CompilerWorkerCount int
}

// OptionsFromEnv reads options from the VKRES_* environment variables,
// falling back to defaults for variables which are unset or malformed.
func OptionsFromEnv() *Options {
	return &Options{
		AllowMemoryOvercommit: envBool("VKRES_ALLOW_MEMORY_OVERCOMMIT", false),
		AsyncPipeCompiler:     envBool("VKRES_ASYNC_PIPE_COMPILER", false),
		CompilerWorkerCount:   envInt("VKRES_COMPILER_WORKER_COUNT", 0),
	}
}

func envBool(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
