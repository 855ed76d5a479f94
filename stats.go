package wasmcache

import "github.com/rcrowley/go-metrics"

// Stats is a snapshot of one Cache's lookup counters. All counters are
// monotonically non-decreasing for the life of the Cache and reset only by
// creating a new one.
type Stats struct {
	// PinnedHits counts GetInstance resolutions from the pinned tier.
	PinnedHits uint64
	// MemoryHits counts GetInstance resolutions from the bounded memory tier.
	MemoryHits uint64
	// StoreHits counts resolutions that loaded raw bytes from the durable
	// store and paid a compile: durable GetInstance hits plus every Pin.
	StoreHits uint64
	// Misses counts GetInstance calls for checksums unknown to the store.
	Misses uint64
}

// counters belong to one Cache. They are deliberately left out of any metrics
// registry: accounting is per Cache instance, never process wide.
type counters struct {
	pinnedHits metrics.Counter
	memoryHits metrics.Counter
	storeHits  metrics.Counter
	misses     metrics.Counter
}

func newCounters() *counters {
	return &counters{
		pinnedHits: metrics.NewCounter(),
		memoryHits: metrics.NewCounter(),
		storeHits:  metrics.NewCounter(),
		misses:     metrics.NewCounter(),
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		PinnedHits: uint64(c.pinnedHits.Count()),
		MemoryHits: uint64(c.memoryHits.Count()),
		StoreHits:  uint64(c.storeHits.Count()),
		Misses:     uint64(c.misses.Count()),
	}
}
