//go:build debug

// Gomega should not be dependency in non-debug build.

package tier

import (
	"errors"
	"log"

	"github.com/facebookgo/stackerr"
	. "github.com/onsi/gomega"
)

var _ = func() (_ struct{}) {
	RegisterFailHandler(gomegaFailHandler)
	return
}()

func gomegaFailHandler(message string, callerSkip ...int) {
	skip := callerSkip[0] + 1
	log.Fatal("FATAL: invariants are broken:", stackerr.WrapSkip(errors.New(message), skip))
}

func (q *queue) checkInvariants() {
	Expect(q.fakeHead.prev).To(BeNil())
	Expect(q.fakeTail.next).To(BeNil())
	Expect(q.fakeHead.owner).To(BeNil())
	Expect(q.fakeTail.owner).To(BeNil())
	var actualSize int64
	for n := q.head(); !q.end(n); n = n.next {
		actualSize += n.size()
		Expect(n.prev.next).To(BeIdenticalTo(n))
		Expect(n.owner).To(BeIdenticalTo(q))
	}
	Expect(q.tail().next).To(BeIdenticalTo(q.fakeTail))
	Expect(actualSize).To(BeIdenticalTo(q.size))
}

func (m *Memory) checkInvariants() {
	m.queue.checkInvariants()
	var items int
	for n := m.queue.head(); !m.queue.end(n); n = n.next {
		items++
		tn, ok := m.table[n.sum]
		Expect(ok).To(BeTrue(), n.sum.Hex(), "no table ref to module")
		Expect(tn).To(BeIdenticalTo(n), "table refs to another node")
	}
	ExpectWithOffset(1, items).To(Equal(len(m.table)), "too many modules in table")
	ExpectWithOffset(1, m.overflow()).To(BeFalse(), "budget overflow")
}
