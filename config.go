package wasmcache

import (
	"github.com/pkg/errors"

	"github.com/skipor/wasmcache/wasm"
)

// Config is supplied once at Cache construction and immutable afterward.
type Config struct {
	// Dir is the base storage location of the durable store. Exactly one
	// Cache in one process may own it at a time.
	Dir string
	// Capabilities names the host features available to modules. A module
	// requiring anything else is rejected at SaveCode.
	Capabilities []string
	// MemoryCacheSize is the byte budget of the bounded memory tier.
	MemoryCacheSize int64
	// InstanceMemoryLimit caps sandbox linear memory per instance, in bytes.
	InstanceMemoryLimit int64
}

func (c Config) validate() error {
	if c.Dir == "" {
		return errors.New("empty base storage location")
	}
	if c.MemoryCacheSize <= 0 {
		return errors.Errorf("non-positive memory cache size %v", c.MemoryCacheSize)
	}
	if c.InstanceMemoryLimit <= 0 {
		return errors.Errorf("non-positive instance memory limit %v", c.InstanceMemoryLimit)
	}
	return nil
}

func (c Config) capabilitySet() wasm.CapabilitySet {
	return wasm.NewCapabilitySet(c.Capabilities...)
}

// InstanceOptions are per-call resource limits for GetInstance. Not
// persisted.
type InstanceOptions struct {
	// GasLimit is the CPU metering budget for the instance.
	GasLimit uint64
	// DebugOutput enables the engine's debug print host facilities.
	DebugOutput bool
}
