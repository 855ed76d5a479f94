package vm_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skipor/wasmcache/vm"
)

var _ = Describe("GasMeter", func() {
	It("tracks consumption within limit", func() {
		m := vm.NewGasMeter(100)
		Expect(m.ConsumeGas(40, "read")).To(Succeed())
		Expect(m.ConsumeGas(60, "write")).To(Succeed())
		Expect(m.GasConsumed()).To(Equal(uint64(100)))
	})

	It("errors when budget exhausted", func() {
		m := vm.NewGasMeter(100)
		Expect(m.ConsumeGas(100, "read")).To(Succeed())
		err := m.ConsumeGas(1, "last straw")
		var oog *vm.OutOfGasError
		Expect(err).To(BeAssignableToTypeOf(oog))
		Expect(err.(*vm.OutOfGasError).Descriptor).To(Equal("last straw"))
	})

	It("caps reported consumption at limit", func() {
		m := vm.NewGasMeter(100)
		_ = m.ConsumeGas(1000, "burst")
		Expect(m.GasConsumed()).To(Equal(uint64(100)))
	})

	It("survives overflowing amounts", func() {
		m := vm.NewGasMeter(100)
		Expect(m.ConsumeGas(^uint64(0), "overflow")).NotTo(Succeed())
	})

	It("is safe under concurrent consumption", func() {
		const workers = 8
		const perWorker = 1000
		m := vm.NewGasMeter(workers * perWorker)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					Expect(m.ConsumeGas(1, "tick")).To(Succeed())
				}
			}()
		}
		wg.Wait()
		Expect(m.GasConsumed()).To(Equal(uint64(workers * perWorker)))
	})
})
