// Package vmtest provides an in-process fake engine for cache tests. It
// compiles nothing: it parses the module envelope, remembers imports, and
// charges a deterministic footprint, which is all the cache ever observes.
package vmtest

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/skipor/wasmcache/checksum"
	"github.com/skipor/wasmcache/vm"
	"github.com/skipor/wasmcache/wasm"
)

// CompiledSizeFactor approximates compiled-to-raw size blowup of a real
// engine.
const CompiledSizeFactor = 3

// Engine is a fake vm.Engine. Zero value is ready to use.
type Engine struct {
	// SizeOf overrides footprint estimation when set.
	SizeOf func(code []byte) int64
	// CompileErr is returned by every Compile call when set.
	CompileErr error

	mu       sync.Mutex
	compiles map[checksum.Checksum]int
}

var _ vm.Engine = (*Engine)(nil)

func (e *Engine) Compile(code []byte) (vm.Module, error) {
	if e.CompileErr != nil {
		return nil, e.CompileErr
	}
	info, err := wasm.Parse(code)
	if err != nil {
		return nil, errors.Wrap(err, "fake compile")
	}
	e.mu.Lock()
	if e.compiles == nil {
		e.compiles = make(map[checksum.Checksum]int)
	}
	e.compiles[checksum.New(code)]++
	e.mu.Unlock()
	size := int64(len(code)) * CompiledSizeFactor
	if e.SizeOf != nil {
		size = e.SizeOf(code)
	}
	return &Module{Info: info, ModuleSize: size}, nil
}

func (e *Engine) Instantiate(m vm.Module, backend vm.Backend, conf vm.InstanceConfig) (vm.Instance, error) {
	fake, ok := m.(*Module)
	if !ok {
		return nil, errors.Errorf("foreign module type %T", m)
	}
	if conf.MemoryLimit <= 0 {
		return nil, &vm.ResourceLimitError{Reason: "non-positive memory limit"}
	}
	if conf.GasLimit == 0 {
		return nil, &vm.ResourceLimitError{Reason: "zero gas limit"}
	}
	if conf.Meter == nil {
		return nil, errors.New("instantiate without gas meter")
	}
	for _, imp := range fake.Info.Imports {
		if _, found := backend.Resolve(imp.Name); !found {
			return nil, &vm.LinkError{Module: imp.Module, Name: imp.Name}
		}
	}
	return &Instance{Module: fake, Conf: conf, Meter: conf.Meter}, nil
}

// Compiles reports how many times code with the given checksum was compiled.
// Cache tests use it to assert that hits skip compilation and evictions force
// it.
func (e *Engine) Compiles(cs checksum.Checksum) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compiles[cs]
}

// Module is the fake compiled artifact.
type Module struct {
	Info       wasm.Info
	ModuleSize int64
}

var _ vm.Module = (*Module)(nil)

func (m *Module) Size() int64 { return m.ModuleSize }

// Instance is the fake sandbox.
type Instance struct {
	Module *Module
	Conf   vm.InstanceConfig
	Meter  vm.GasMeter

	closed bool
}

var _ vm.Instance = (*Instance)(nil)

func (i *Instance) GasMeter() vm.GasMeter { return i.Meter }

func (i *Instance) Close() error {
	if i.closed {
		return errors.New("instance closed twice")
	}
	i.closed = true
	return nil
}

// Backend is a map-backed vm.Backend.
type Backend map[string]vm.HostFunc

var _ vm.Backend = (Backend)(nil)

func (b Backend) Resolve(name string) (vm.HostFunc, bool) {
	f, ok := b[name]
	return f, ok
}
