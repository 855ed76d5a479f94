package tier

import (
	"fmt"

	"github.com/skipor/wasmcache/checksum"
	"github.com/skipor/wasmcache/internal/tag"
	"github.com/skipor/wasmcache/vm"
)

// Pre and post conditions (Invariants) for pushBack, moveToBack and shrink:
// * queue owns nodes between fakeHead and fakeTail.
// * {fakeHead, all owned nodes, fakeTail} are correct doubly linked list.
// * all nodes owned by queue have field node.owner equal to &queue
// * queue.size equal sum of owned nodes size()
type queue struct {
	size int64
	// onEvict is called in shrink for every detached node.
	// Callback must not reattach the node to this queue.
	onEvict func(*node)

	// Fake nodes. Real nodes are between them.
	// nil <- fakeHead <-> node_0 <-> ... <-> node_(n-1) <-> fakeTail -> nil
	// Such structure prevent nil checks in code.

	// fakeHead is bottom of queue. fakeHead.next is least recently used node.
	fakeHead *node

	// fakeTail is top of queue. Refreshed and new nodes attach before fakeTail.
	fakeTail *node
}

func newQueue() *queue {
	q := &queue{}
	q.fakeHead, q.fakeTail = &node{}, &node{}
	link(q.fakeHead, q.fakeTail)
	return q
}

// pushBack attaches n at most-recently-used position.
func (q *queue) pushBack(n *node) {
	n.owner = q
	q.size += n.size()
	link(q.tail(), n)
	link(n, q.fakeTail)
}

// moveToBack refreshes recency of an owned node.
func (q *queue) moveToBack(n *node) {
	if tag.Debug {
		if n.owner != q {
			panic("move of not owned node")
		}
	}
	n.detach()
	link(q.tail(), n)
	link(n, q.fakeTail)
}

// shrink detaches nodes from head towards tail while size exceeds toSize, and
// calls onEvict for each. Detached nodes have invalid prev pointer; next is
// valid during the callback call.
func (q *queue) shrink(toSize int64) {
	if toSize < 0 {
		panic(fmt.Sprintf("try shrink to negative size %v", toSize))
	}
	cur, next := q.head(), q.head().next
	for ; toSize < q.size; cur, next = next, next.next {
		q.assertNotTail(cur)
		if tag.Debug {
			cur.prev = nil
		}
		cur.disown()
		q.onEvict(cur)
	}
	link(q.fakeHead, cur)
}

func (q *queue) head() *node { return q.fakeHead.next }
func (q *queue) tail() *node { return q.fakeTail.prev }
func (q *queue) end(n *node) bool {
	if tag.Debug {
		if n != q.fakeTail && n.owner != q {
			panic("check end of not owned node")
		}
	}
	return n == q.fakeTail
}
func (q *queue) empty() bool { return q.size == 0 }

type node struct {
	sum    checksum.Checksum
	module vm.Module
	owner  *queue
	prev   *node
	next   *node
}

func newNode(sum checksum.Checksum, module vm.Module) *node {
	return &node{sum: sum, module: module}
}

func (n *node) disown() {
	n.owner.size -= n.size()
	if tag.Debug {
		n.owner = nil
	}
}

func (n *node) detach() {
	link(n.prev, n.next)
	if tag.Debug {
		n.prev = nil
		n.next = nil
	}
}

// extraSizePerNode is approximation how much memory needed to track an entry.
// Without such compensation it is possible to blow up cache with tiny modules.
const extraSizePerNode = 256 // node, two hash table cells, checksum copy.

// size is estimated entry footprint used for budget accounting.
func (n *node) size() int64 {
	return extraSizePerNode + n.module.Size()
}

func (q *queue) assertNotTail(n *node) {
	if n == q.fakeTail {
		panic("node pointer out of range")
	}
}

func link(a, b *node) { a.next, b.prev = b, a }

func (n *node) GoString() string {
	sum := func(n *node) interface{} {
		if n == nil {
			return nil
		}
		return n.sum.Hex()
	}
	return fmt.Sprintf("{sum:%v, owner:%p, prev:%v, next:%v}",
		n.sum.Hex(), n.owner, sum(n.prev), sum(n.next))
}

var _ fmt.GoStringer = (*node)(nil)
