package wasmcache

import (
	"github.com/pkg/errors"

	"github.com/skipor/wasmcache/checksum"
	"github.com/skipor/wasmcache/log"
	"github.com/skipor/wasmcache/store"
	"github.com/skipor/wasmcache/tier"
	"github.com/skipor/wasmcache/vm"
	"github.com/skipor/wasmcache/wasm"
)

// Cache composes the pinned tier, the bounded memory tier and the durable
// store over one compilation engine. Methods are safe for concurrent use.
//
// Lookup order is pinned, memory, durable store. Exactly one counter is
// incremented per GetInstance call. Pin independently increments the
// store-hit counter, because pinning always re-derives the compiled module
// from the authoritative durable artifact, even when the memory tier already
// holds a compiled copy.
type Cache struct {
	log     log.Logger
	engine  vm.Engine
	caps    wasm.CapabilitySet
	store   *store.Store
	memory  *tier.Memory
	pinned  *tier.Pinned
	factory instanceFactory
	stats   *counters
}

// New opens the durable store under conf.Dir and returns a ready Cache.
// The caller must guarantee that no other Cache, in this or any other
// process, manages conf.Dir concurrently.
func New(engine vm.Engine, l log.Logger, conf Config) (*Cache, error) {
	if engine == nil {
		return nil, errors.New("nil engine")
	}
	if err := conf.validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	st, err := store.Open(l, conf.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	return &Cache{
		log:     l,
		engine:  engine,
		caps:    conf.capabilitySet(),
		store:   st,
		memory:  tier.NewMemory(l, conf.MemoryCacheSize),
		pinned:  tier.NewPinned(l),
		factory: instanceFactory{engine: engine, memoryLimit: conf.InstanceMemoryLimit},
		stats:   newCounters(),
	}, nil
}

// SaveCode validates raw bytecode and persists it in the durable store.
// Idempotent: saving identical bytes again returns the same checksum without
// duplicating storage. Does not touch the pinned or memory tiers.
func (c *Cache) SaveCode(code []byte) (checksum.Checksum, error) {
	if err := wasm.Validate(code, c.caps); err != nil {
		c.log.Debugf("Module rejected: %v.", err)
		return checksum.Checksum{}, &ValidationError{Cause: err}
	}
	return c.store.Save(code)
}

// SaveCodeUnchecked persists bytecode skipping validation. For operator
// migration of artifacts trusted from a previous deployment; regular clients
// must use SaveCode.
func (c *Cache) SaveCodeUnchecked(code []byte) (checksum.Checksum, error) {
	return c.store.Save(code)
}

// GetCode returns the raw bytecode stored under sum. No counter accounting:
// the hit counters describe instantiation traffic only.
func (c *Cache) GetCode(sum checksum.Checksum) ([]byte, error) {
	return c.store.Load(sum)
}

// RemoveCode unlinks the durable artifact. Compiled copies already resident
// in the pinned or memory tier are not touched and keep serving hits until
// evicted or unpinned.
func (c *Cache) RemoveCode(sum checksum.Checksum) error {
	return c.store.Remove(sum)
}

// GetInstance resolves a compiled module for sum and links it against the
// caller-supplied backend under opts limits. Increments exactly one counter:
// pinned hit, memory hit, store hit, or miss.
func (c *Cache) GetInstance(sum checksum.Checksum, backend vm.Backend, opts InstanceOptions) (vm.Instance, error) {
	module, err := c.resolve(sum)
	if err != nil {
		return nil, err
	}
	return c.factory.instantiate(module, backend, opts)
}

// resolve finds or makes the compiled module for sum, consulting tiers in
// priority order. Compilation and disk reads happen without any tier lock
// held, so two callers may compile one checksum concurrently after both miss
// the memory tier. That is wasteful but safe: modules are immutable and the
// last insert wins.
func (c *Cache) resolve(sum checksum.Checksum) (vm.Module, error) {
	if module, ok := c.pinned.Get(sum); ok {
		c.stats.pinnedHits.Inc(1)
		return module, nil
	}
	if module, ok := c.memory.Get(sum); ok {
		c.stats.memoryHits.Inc(1)
		return module, nil
	}
	code, err := c.store.Load(sum)
	if err != nil {
		if IsNotFound(err) {
			c.stats.misses.Inc(1)
		}
		return nil, err
	}
	module, err := c.compile(sum, code)
	if err != nil {
		return nil, err
	}
	c.stats.storeHits.Inc(1)
	c.memory.Insert(sum, module)
	return module, nil
}

// Pin compiles the durable artifact for sum and inserts it into the pinned
// tier. Deliberately ignores the memory tier: the pinned copy is always
// re-derived from durable storage, and the work is accounted as a store hit.
func (c *Cache) Pin(sum checksum.Checksum) error {
	code, err := c.store.Load(sum)
	if err != nil {
		return err
	}
	module, err := c.compile(sum, code)
	if err != nil {
		return err
	}
	c.stats.storeHits.Inc(1)
	c.pinned.Insert(sum, module)
	return nil
}

// Unpin removes sum from the pinned tier only. Unpinning a checksum that is
// not pinned is a no-op. A compiled copy in the memory tier, if any, keeps
// serving memory hits.
func (c *Cache) Unpin(sum checksum.Checksum) error {
	c.pinned.Remove(sum)
	return nil
}

// Stats returns the current counter values by value.
func (c *Cache) Stats() Stats {
	return c.stats.snapshot()
}

func (c *Cache) compile(sum checksum.Checksum, code []byte) (vm.Module, error) {
	module, err := c.engine.Compile(code)
	if err != nil {
		return nil, &CompileError{Checksum: sum, Cause: err}
	}
	return module, nil
}
