package vm

import (
	"fmt"
	"sync/atomic"
)

// GasMeter tracks CPU metering budget consumption during execution.
type GasMeter interface {
	ConsumeGas(amount uint64, descriptor string) error
	GasConsumed() uint64
}

// OutOfGasError is returned by ConsumeGas when the budget is exhausted.
type OutOfGasError struct {
	Descriptor string
}

func (e *OutOfGasError) Error() string {
	return fmt.Sprintf("out of gas: %s", e.Descriptor)
}

// NewGasMeter returns a GasMeter with the given budget. Safe for concurrent
// use; an engine may consume gas from several host threads.
func NewGasMeter(limit uint64) GasMeter {
	return &gasMeter{limit: limit}
}

type gasMeter struct {
	limit    uint64
	consumed atomic.Uint64
}

func (m *gasMeter) ConsumeGas(amount uint64, descriptor string) error {
	consumed := m.consumed.Add(amount)
	if consumed > m.limit || consumed < amount { // overflow check
		return &OutOfGasError{Descriptor: descriptor}
	}
	return nil
}

func (m *gasMeter) GasConsumed() uint64 {
	consumed := m.consumed.Load()
	if consumed > m.limit {
		return m.limit
	}
	return consumed
}
