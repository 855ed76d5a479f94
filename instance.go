package wasmcache

import (
	"github.com/skipor/wasmcache/vm"
)

// instanceFactory materializes sandbox instances from resolved compiled
// modules. It owns the construction-time memory limit and attaches a fresh
// gas meter per call; everything else comes per call.
type instanceFactory struct {
	engine      vm.Engine
	memoryLimit int64
}

func (f instanceFactory) instantiate(m vm.Module, backend vm.Backend, opts InstanceOptions) (vm.Instance, error) {
	conf := vm.InstanceConfig{
		MemoryLimit: f.memoryLimit,
		GasLimit:    opts.GasLimit,
		Meter:       vm.NewGasMeter(opts.GasLimit),
		DebugOutput: opts.DebugOutput,
	}
	return f.engine.Instantiate(m, backend, conf)
}
