//go:build !debug

package tier

func (q *queue) checkInvariants() {}

func (m *Memory) checkInvariants() {}
