package checksum

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/opencontainers/go-digest"
)

var _ = Describe("Checksum", func() {
	code := []byte("\x00asm\x01\x00\x00\x00some module")

	It("is deterministic", func() {
		Expect(New(code)).To(Equal(New(append([]byte(nil), code...))))
	})

	It("differs for different bytes", func() {
		other := append([]byte(nil), code...)
		other[len(other)-1]++
		Expect(New(other)).NotTo(Equal(New(code)))
	})

	It("hex round trip", func() {
		cs := New(code)
		hex := cs.Hex()
		Expect(hex).To(HaveLen(2 * Sha256Len))
		parsed, err := FromHex(hex)
		Expect(err).To(BeNil())
		Expect(parsed).To(Equal(cs))
	})

	It("rejects short hex", func() {
		_, err := FromHex("ab")
		Expect(err).To(HaveOccurred())
	})

	It("rejects non-hex", func() {
		cs := New(code)
		garbage := "z" + cs.Hex()[1:]
		_, err := FromHex(garbage)
		Expect(err).To(HaveOccurred())
	})

	It("digest round trip", func() {
		cs := New(code)
		d := cs.Digest()
		Expect(string(d)).To(Equal("sha256:" + cs.Hex()))
		parsed, err := FromDigest(d)
		Expect(err).To(BeNil())
		Expect(parsed).To(Equal(cs))
	})

	It("rejects digest of other algorithm", func() {
		d := digest.Digest("sha512:" + strings.Repeat("ab", 64))
		_, err := FromDigest(d)
		Expect(err).To(HaveOccurred())
	})

	It("string form is hex", func() {
		cs := New(code)
		Expect(cs.String()).To(Equal(cs.Hex()))
	})
})
