// Package store persists raw module bytecode content-addressed by checksum.
// The namespace is append-only: artifacts are created, never edited in place.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/facebookgo/stackerr"

	"github.com/skipor/wasmcache/checksum"
	"github.com/skipor/wasmcache/log"
)

const Perm = 0644

const (
	wasmDir = "wasm"
	tmpDir  = "tmp"
)

// NotFoundError reports a checksum unknown to the store. Resolved only by a
// prior successful Save of the matching bytes.
type NotFoundError struct {
	Checksum checksum.Checksum
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no stored module for checksum %s", e.Checksum)
}

// Store is a content-addressed file store under one base directory.
// The directory must be owned by a single process; concurrent stores over one
// base directory are unsupported.
type Store struct {
	log  log.Logger
	base string
}

// Open creates the store layout under base. Fails if base cannot be created
// or is not writable.
func Open(l log.Logger, base string) (*Store, error) {
	for _, dir := range []string{wasmDir, tmpDir} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0755); err != nil {
			return nil, stackerr.Wrap(err)
		}
	}
	l.Debugf("Store opened at %s.", base)
	return &Store{log: l, base: base}, nil
}

// Save computes the checksum of code and publishes code under it.
// Saving bytes that are already stored is a no-op success. Publishing is
// atomic: a concurrent Load never observes a partial artifact, because code
// is fully written to a temporary file first and then renamed into place.
func (s *Store) Save(code []byte) (cs checksum.Checksum, err error) {
	cs = checksum.New(code)
	path := s.path(cs)
	if _, statErr := os.Stat(path); statErr == nil {
		s.log.Debugf("Module %s already stored.", cs)
		return cs, nil
	}
	tmp, err := os.CreateTemp(filepath.Join(s.base, tmpDir), "module_")
	if err != nil {
		return cs, stackerr.Wrap(err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(code); err != nil {
		return cs, stackerr.Wrap(err)
	}
	if err = tmp.Sync(); err != nil {
		return cs, stackerr.Wrap(err)
	}
	if err = tmp.Chmod(Perm); err != nil {
		return cs, stackerr.Wrap(err)
	}
	if err = tmp.Close(); err != nil {
		return cs, stackerr.Wrap(err)
	}
	// Atomic. Concurrent saves of identical bytes race to publish equal
	// content under the same name, so last rename winning is harmless.
	if err = os.Rename(tmp.Name(), path); err != nil {
		return cs, stackerr.Wrap(err)
	}
	s.log.Debugf("Module %s stored.", cs)
	return cs, nil
}

// Load returns the raw bytes stored under cs, or *NotFoundError.
func (s *Store) Load(cs checksum.Checksum) ([]byte, error) {
	code, err := os.ReadFile(s.path(cs))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{Checksum: cs}
	}
	if err != nil {
		return nil, stackerr.Wrap(err)
	}
	return code, nil
}

// Remove unlinks the artifact stored under cs.
func (s *Store) Remove(cs checksum.Checksum) error {
	err := os.Remove(s.path(cs))
	if os.IsNotExist(err) {
		return &NotFoundError{Checksum: cs}
	}
	if err != nil {
		return stackerr.Wrap(err)
	}
	s.log.Debugf("Module %s removed.", cs)
	return nil
}

// List returns checksums of all stored artifacts, for operator tooling.
// Unparsable names are skipped with a warning: the namespace is owned by this
// process, so they can only be operator droppings.
func (s *Store) List() ([]checksum.Checksum, error) {
	entries, err := os.ReadDir(filepath.Join(s.base, wasmDir))
	if err != nil {
		return nil, stackerr.Wrap(err)
	}
	sums := make([]checksum.Checksum, 0, len(entries))
	for _, e := range entries {
		cs, err := checksum.FromHex(e.Name())
		if err != nil {
			s.log.Warnf("Skipping foreign file %q in store namespace.", e.Name())
			continue
		}
		sums = append(sums, cs)
	}
	return sums, nil
}

func (s *Store) path(cs checksum.Checksum) string {
	return filepath.Join(s.base, wasmDir, cs.Hex())
}
