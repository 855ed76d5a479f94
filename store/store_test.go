package store_test

import (
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skipor/wasmcache/checksum"
	"github.com/skipor/wasmcache/log"
	"github.com/skipor/wasmcache/store"
	. "github.com/skipor/wasmcache/testutil"
)

var _ = Describe("Store", func() {
	var (
		dir string
		s   *store.Store
	)
	code := func(seed byte) []byte {
		var c []byte
		Fuzz(&c)
		return append(c, seed)
	}
	BeforeEach(func() {
		dir = TmpDir()
		var err error
		s, err = store.Open(log.NewNop(), dir)
		Expect(err).To(BeNil())
	})

	It("open creates layout", func() {
		Expect(filepath.Join(dir, "wasm")).To(BeADirectory())
		Expect(filepath.Join(dir, "tmp")).To(BeADirectory())
	})

	It("save then load", func() {
		c := code(1)
		cs, err := s.Save(c)
		Expect(err).To(BeNil())
		Expect(cs).To(Equal(checksum.New(c)))
		loaded, err := s.Load(cs)
		Expect(err).To(BeNil())
		ExpectBytesEqual(loaded, c)
	})

	It("save is idempotent and does not duplicate storage", func() {
		c := code(1)
		cs1, err := s.Save(c)
		Expect(err).To(BeNil())
		cs2, err := s.Save(c)
		Expect(err).To(BeNil())
		Expect(cs2).To(Equal(cs1))
		entries, err := os.ReadDir(filepath.Join(dir, "wasm"))
		Expect(err).To(BeNil())
		Expect(entries).To(HaveLen(1))
	})

	It("artifact is published under checksum hex name", func() {
		c := code(1)
		cs, err := s.Save(c)
		Expect(err).To(BeNil())
		Expect(filepath.Join(dir, "wasm", cs.Hex())).To(BeAnExistingFile())
	})

	It("leaves no temp droppings", func() {
		_, err := s.Save(code(1))
		Expect(err).To(BeNil())
		entries, err := os.ReadDir(filepath.Join(dir, "tmp"))
		Expect(err).To(BeNil())
		Expect(entries).To(BeEmpty())
	})

	It("load of unknown checksum", func() {
		cs := checksum.New(code(1))
		_, err := s.Load(cs)
		var nf *store.NotFoundError
		Expect(err).To(BeAssignableToTypeOf(nf))
		Expect(err.(*store.NotFoundError).Checksum).To(Equal(cs))
	})

	It("remove", func() {
		cs, err := s.Save(code(1))
		Expect(err).To(BeNil())
		Expect(s.Remove(cs)).To(Succeed())
		_, err = s.Load(cs)
		var nf *store.NotFoundError
		Expect(err).To(BeAssignableToTypeOf(nf))
	})

	It("remove of unknown checksum", func() {
		err := s.Remove(checksum.New(code(1)))
		var nf *store.NotFoundError
		Expect(err).To(BeAssignableToTypeOf(nf))
	})

	It("list", func() {
		sums, err := s.List()
		Expect(err).To(BeNil())
		Expect(sums).To(BeEmpty())
		cs1, _ := s.Save(code(1))
		cs2, _ := s.Save(code(2))
		sums, err = s.List()
		Expect(err).To(BeNil())
		Expect(sums).To(ConsistOf(cs1, cs2))
	})

	It("list skips foreign files", func() {
		cs, _ := s.Save(code(1))
		Expect(os.WriteFile(filepath.Join(dir, "wasm", "README"), []byte("hi"), 0644)).To(Succeed())
		sums, err := s.List()
		Expect(err).To(BeNil())
		Expect(sums).To(ConsistOf([]checksum.Checksum{cs}))
	})

	It("reopen sees saved artifacts", func() {
		c := code(1)
		cs, err := s.Save(c)
		Expect(err).To(BeNil())
		reopened, err := store.Open(log.NewNop(), dir)
		Expect(err).To(BeNil())
		loaded, err := reopened.Load(cs)
		Expect(err).To(BeNil())
		ExpectBytesEqual(loaded, c)
	})

	It("concurrent saves of identical bytes agree", func() {
		c := code(1)
		const workers = 8
		sums := make([]checksum.Checksum, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				cs, err := s.Save(c)
				Expect(err).To(BeNil())
				sums[i] = cs
			}(i)
		}
		wg.Wait()
		for _, cs := range sums {
			Expect(cs).To(Equal(checksum.New(c)))
		}
		loaded, err := s.Load(checksum.New(c))
		Expect(err).To(BeNil())
		ExpectBytesEqual(loaded, c)
	})
})
