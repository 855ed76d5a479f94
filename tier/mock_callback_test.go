package tier

import (
	. "github.com/onsi/ginkgo/v2"
	"github.com/stretchr/testify/mock"
)

type MockCallback struct {
	mock.Mock
}

func (m *MockCallback) Evict(n *node) {
	By("Evict " + n.sum.Hex())
	m.Called(n)
}
