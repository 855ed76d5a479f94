package wasm_test

import (
	"encoding/binary"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skipor/wasmcache/vm/vmtest"
	"github.com/skipor/wasmcache/wasm"
)

var _ = Describe("Parse", func() {
	It("accepts minimal module", func() {
		info, err := wasm.Parse(vmtest.ValidCode(1))
		Expect(err).To(BeNil())
		Expect(info.Imports).To(BeEmpty())
		Expect(info.Exports).To(BeEmpty())
	})

	It("collects imports and exports", func() {
		code := vmtest.BuildCode(vmtest.CodeSpec{
			Imports: []wasm.Import{
				{Module: "env", Name: "db_read"},
				{Module: "env", Name: "db_write"},
			},
			Exports: []string{"instantiate", "execute"},
		})
		info, err := wasm.Parse(code)
		Expect(err).To(BeNil())
		Expect(info.Imports).To(Equal([]wasm.Import{
			{Module: "env", Name: "db_read"},
			{Module: "env", Name: "db_write"},
		}))
		Expect(info.Exports).To(Equal([]string{"instantiate", "execute"}))
	})

	It("rejects empty input", func() {
		_, err := wasm.Parse(nil)
		Expect(err).To(MatchError(ContainSubstring("too short")))
	})

	It("rejects bad magic", func() {
		code := vmtest.ValidCode(1)
		code[0] = 'X'
		_, err := wasm.Parse(code)
		Expect(err).To(MatchError(ContainSubstring("bad magic")))
	})

	It("rejects unsupported version", func() {
		code := vmtest.ValidCode(1)
		code[4] = 2
		_, err := wasm.Parse(code)
		Expect(err).To(MatchError(ContainSubstring("unsupported binary version")))
	})

	It("rejects truncated section payload", func() {
		code := vmtest.BuildCode(vmtest.CodeSpec{Exports: []string{"execute"}, PadTo: 64})
		_, err := wasm.Parse(code[:len(code)-3])
		Expect(err).To(HaveOccurred())
	})

	It("rejects section size overrunning the module", func() {
		code := append(vmtest.ValidCode(1), 0) // custom section
		code = binary.AppendUvarint(code, math.MaxInt64)
		_, err := wasm.Parse(code)
		Expect(err).To(MatchError(ContainSubstring("overruns")))
	})

	It("rejects name size overrunning the import section", func() {
		var payload []byte
		payload = binary.AppendUvarint(payload, 1) // import count
		payload = binary.AppendUvarint(payload, math.MaxUint64)
		code := append(vmtest.ValidCode(1), 2) // import section
		code = binary.AppendUvarint(code, uint64(len(payload)))
		code = append(code, payload...)
		_, err := wasm.Parse(code)
		Expect(err).To(MatchError(ContainSubstring("overruns")))
	})

	It("rejects trailing garbage", func() {
		code := append(vmtest.ValidCode(1), 0xff)
		_, err := wasm.Parse(code)
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown section id", func() {
		code := append(vmtest.ValidCode(1), 42, 0)
		_, err := wasm.Parse(code)
		Expect(err).To(MatchError(ContainSubstring("unknown section id")))
	})
})

var _ = Describe("RequiredCapabilities", func() {
	It("extracts marker exports", func() {
		code := vmtest.RequiresCode(1, "staking", "iterator")
		info, err := wasm.Parse(code)
		Expect(err).To(BeNil())
		Expect(wasm.RequiredCapabilities(info)).To(Equal([]string{"iterator", "staking"}))
	})

	It("ignores ordinary exports", func() {
		code := vmtest.BuildCode(vmtest.CodeSpec{Exports: []string{"execute", "query"}})
		info, err := wasm.Parse(code)
		Expect(err).To(BeNil())
		Expect(wasm.RequiredCapabilities(info)).To(BeEmpty())
	})
})

var _ = Describe("Validate", func() {
	caps := wasm.NewCapabilitySet("iterator", "staking")

	It("accepts module within capability set", func() {
		code := vmtest.RequiresCode(1, "iterator")
		Expect(wasm.Validate(code, caps)).To(Succeed())
	})

	It("rejects unavailable capability", func() {
		code := vmtest.RequiresCode(1, "ibc")
		err := wasm.Validate(code, caps)
		Expect(err).To(MatchError(ContainSubstring(`unavailable capability "ibc"`)))
	})

	It("is deterministic per byte sequence", func() {
		code := vmtest.RequiresCode(1, "ibc")
		first := wasm.Validate(code, caps)
		second := wasm.Validate(code, caps)
		Expect(first).To(HaveOccurred())
		Expect(second.Error()).To(Equal(first.Error()))
	})

	It("rejects import outside host namespace", func() {
		code := vmtest.BuildCode(vmtest.CodeSpec{
			Imports: []wasm.Import{{Module: "shady", Name: "exec"}},
		})
		err := wasm.Validate(code, caps)
		Expect(err).To(MatchError(ContainSubstring(`allowed only from "env"`)))
	})

	It("rejects malformed module", func() {
		Expect(wasm.Validate([]byte("not wasm at all"), caps)).NotTo(Succeed())
	})
})

var _ = Describe("CapabilitySet", func() {
	It("drops empty names", func() {
		set := wasm.NewCapabilitySet("iterator", "", "staking")
		Expect(set.List()).To(Equal([]string{"iterator", "staking"}))
		Expect(set.Has("")).To(BeFalse())
	})
})
