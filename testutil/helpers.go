// Package testutil contains shared Ginkgo test helpers.
package testutil

import (
	"bytes"
	"fmt"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func Byf(format string, args ...interface{}) {
	By(fmt.Sprintf(format, args...))
	fmt.Fprintln(GinkgoWriter)
}

// ExpectBytesEqual have much less overhead for large byte chunks than
// gomega.Equal.
func ExpectBytesEqual(a, b []byte) {
	if !bytes.Equal(a, b) {
		ExpectWithOffset(1, a).To(Equal(b))
	}
}

// TmpDir returns a fresh directory removed after the current spec.
func TmpDir() string {
	dir, err := os.MkdirTemp("", "go_test_tmp_")
	Expect(err).To(BeNil())
	DeferCleanup(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})
	return dir
}
