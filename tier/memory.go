// Package tier contains the in-memory cache tiers for compiled modules:
// a byte-budget bounded LRU tier and an unbounded pinned tier. Each tier is
// internally synchronized; callers never hold tier locks across compilation
// or disk I/O.
package tier

import (
	"sync"

	"github.com/skipor/wasmcache/checksum"
	"github.com/skipor/wasmcache/log"
	"github.com/skipor/wasmcache/vm"
)

// Memory is the bounded memory tier. When the total estimated footprint
// exceeds the byte limit, least recently used entries are evicted one at a
// time until the tier is back under the limit. Eviction drops only the
// compiled module; raw bytes stay in the durable store.
type Memory struct {
	// lock protects fields below. Held only for presence checks, recency
	// updates and inserts; never across blocking work.
	lock  sync.Mutex
	log   log.Logger
	table map[checksum.Checksum]*node
	queue *queue
	limit int64
}

func NewMemory(l log.Logger, limit int64) *Memory {
	m := &Memory{
		log:   l,
		table: make(map[checksum.Checksum]*node),
		queue: newQueue(),
		limit: limit,
	}
	m.queue.onEvict = m.onEvict
	return m
}

// Get returns the module cached under sum and marks it most recently used.
func (m *Memory) Get(sum checksum.Checksum) (vm.Module, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	defer m.checkInvariants()
	n, ok := m.table[sum]
	if !ok {
		return nil, false
	}
	m.queue.moveToBack(n)
	return n.module, true
}

// Insert adds or refreshes the entry for sum, then evicts while over limit.
// Concurrent compiles of one checksum make equivalent modules, so refresh
// semantics are last insert wins.
func (m *Memory) Insert(sum checksum.Checksum, module vm.Module) {
	m.lock.Lock()
	defer m.lock.Unlock()
	defer m.checkInvariants()
	if old, ok := m.table[sum]; ok {
		m.log.Debugf("Module %s reinserted.", sum)
		old.detach()
		old.disown()
		delete(m.table, sum)
	}
	n := newNode(sum, module)
	m.table[sum] = n
	m.queue.pushBack(n)
	if m.overflow() {
		m.queue.shrink(m.limit)
	}
}

// Contains reports presence without touching recency.
func (m *Memory) Contains(sum checksum.Checksum) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	_, ok := m.table[sum]
	return ok
}

// Size is current total estimated footprint.
func (m *Memory) Size() int64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.queue.size
}

// Len is current number of entries.
func (m *Memory) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.table)
}

// onEvict is called by queue.shrink with detached and disowned nodes.
func (m *Memory) onEvict(n *node) {
	m.log.Debugf("Module %s evicted.", n.sum)
	delete(m.table, n.sum)
}

func (m *Memory) overflow() bool { return m.queue.size > m.limit }
