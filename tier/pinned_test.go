package tier

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skipor/wasmcache/log"
)

var _ = Describe("Pinned", func() {
	var p *Pinned
	BeforeEach(func() {
		resetSums()
		p = NewPinned(log.NewNop())
	})

	It("get missing", func() {
		sum := testSum()
		Expect(p.Contains(sum)).To(BeFalse())
		_, ok := p.Get(sum)
		Expect(ok).To(BeFalse())
	})

	It("insert then get", func() {
		sum := testSum()
		mod := testModule{size: testNodeSize}
		p.Insert(sum, mod)
		Expect(p.Contains(sum)).To(BeTrue())
		got, ok := p.Get(sum)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(mod))
		Expect(p.Len()).To(Equal(1))
	})

	It("entries survive any number of other inserts", func() {
		sum := testSum()
		p.Insert(sum, testModule{size: testNodeSize})
		for i := 0; i < 100; i++ {
			p.Insert(testSum(), testModule{size: 100 * testNodeSize})
		}
		Expect(p.Contains(sum)).To(BeTrue())
	})

	It("remove", func() {
		sum := testSum()
		p.Insert(sum, testModule{size: testNodeSize})
		p.Remove(sum)
		Expect(p.Contains(sum)).To(BeFalse())
		Expect(p.Len()).To(BeZero())
	})

	It("remove of not pinned is no-op", func() {
		p.Remove(testSum())
		Expect(p.Len()).To(BeZero())
	})
})
