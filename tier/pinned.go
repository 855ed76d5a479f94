package tier

import (
	"sync"

	"github.com/skipor/wasmcache/checksum"
	"github.com/skipor/wasmcache/log"
	"github.com/skipor/wasmcache/vm"
)

// Pinned is the pinned tier: no byte budget and no eviction. Entries live
// until explicitly removed. Operators pin a known hot set to guarantee zero
// compilation latency for it regardless of traffic to other modules.
type Pinned struct {
	// lock protects table.
	lock  sync.RWMutex
	log   log.Logger
	table map[checksum.Checksum]vm.Module
}

func NewPinned(l log.Logger) *Pinned {
	return &Pinned{
		log:   l,
		table: make(map[checksum.Checksum]vm.Module),
	}
}

func (p *Pinned) Contains(sum checksum.Checksum) bool {
	p.lock.RLock()
	defer p.lock.RUnlock()
	_, ok := p.table[sum]
	return ok
}

func (p *Pinned) Get(sum checksum.Checksum) (vm.Module, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	module, ok := p.table[sum]
	return module, ok
}

func (p *Pinned) Insert(sum checksum.Checksum, module vm.Module) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.table[sum] = module
	p.log.Debugf("Module %s pinned.", sum)
}

// Remove detaches sum from the pinned tier. Removing an unpinned checksum is
// a no-op.
func (p *Pinned) Remove(sum checksum.Checksum) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.table, sum)
	p.log.Debugf("Module %s unpinned.", sum)
}

func (p *Pinned) Len() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return len(p.table)
}
