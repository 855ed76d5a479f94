// Package vm defines the narrow contracts between the cache and the sandbox
// execution engine. The cache consumes an engine only through Compile and
// Instantiate; execution of a returned Instance is the engine's business.
package vm

import "fmt"

// Engine compiles raw bytecode and links compiled modules into runnable
// instances. Implementations must be safe for concurrent use: the cache calls
// Compile from many goroutines without holding any lock.
type Engine interface {
	// Compile turns validated raw bytecode into a Module. Compilation is
	// CPU-bound and may take seconds for large modules. The result is
	// immutable and may be shared across cache tiers and callers.
	Compile(code []byte) (Module, error)
	// Instantiate links m against backend under conf limits.
	// Returns *LinkError if backend misses a required import,
	// *ResourceLimitError if conf limits cannot be satisfied.
	Instantiate(m Module, backend Backend, conf InstanceConfig) (Instance, error)
}

// Module is a compiled, immutable artifact.
type Module interface {
	// Size estimates the in-memory footprint in bytes. Used for cache
	// budget accounting; must be stable over the module's lifetime.
	Size() int64
}

// Instance is a ready-to-run sandbox. Its lifetime is owned by the caller and
// it is never cached.
type Instance interface {
	// GasMeter exposes the metering state the instance was created with.
	GasMeter() GasMeter
	// Close releases sandbox resources.
	Close() error
}

// Backend supplies host functions a module may import from the host
// namespace.
type Backend interface {
	// Resolve returns the host function registered under name.
	Resolve(name string) (HostFunc, bool)
}

// HostFunc is an opaque host function handle. The cache never calls it; it
// only hands it from Backend to the engine during linking.
type HostFunc interface{}

// InstanceConfig carries per-instantiation resource limits.
type InstanceConfig struct {
	// MemoryLimit caps sandbox linear memory, in bytes.
	MemoryLimit int64
	// GasLimit is the CPU metering budget for the instance.
	GasLimit uint64
	// Meter tracks consumption against GasLimit. The caller attaches it
	// before instantiation; the engine charges all execution costs to it.
	Meter GasMeter
	// DebugOutput enables the engine's debug print host facilities.
	DebugOutput bool
}

// LinkError reports that backend is missing an import the module requires.
type LinkError struct {
	Module string
	Name   string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link: backend has no host function for import %s.%s", e.Module, e.Name)
}

// ResourceLimitError reports limits the module cannot run under.
type ResourceLimitError struct {
	Reason string
}

func (e *ResourceLimitError) Error() string {
	return "resource limit: " + e.Reason
}
