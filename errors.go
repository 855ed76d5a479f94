package wasmcache

import (
	"errors"
	"fmt"

	"github.com/skipor/wasmcache/checksum"
	"github.com/skipor/wasmcache/store"
	"github.com/skipor/wasmcache/vm"
)

// NotFoundError reports a checksum unknown to the durable store.
type NotFoundError = store.NotFoundError

// ValidationError is permanent rejection of a byte sequence: malformed
// bytecode, disallowed constructs, or a required capability the host does not
// provide. Retrying the same bytes never helps.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string { return "validation: " + e.Cause.Error() }
func (e *ValidationError) Unwrap() error { return e.Cause }

// CompileError reports that the engine rejected otherwise valid bytecode.
// Permanent for a given engine and byte sequence.
type CompileError struct {
	Checksum checksum.Checksum
	Cause    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %s", e.Checksum, e.Cause)
}
func (e *CompileError) Unwrap() error { return e.Cause }

// IsNotFound reports whether err is a durable store miss.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a permanent validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCompile reports whether err is a permanent compiler rejection.
func IsCompile(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// IsLink reports whether err is an instantiation-time link failure.
func IsLink(err error) bool {
	var le *vm.LinkError
	return errors.As(err, &le)
}

// IsResourceLimit reports whether err is an instantiation-time resource limit
// failure.
func IsResourceLimit(err error) bool {
	var re *vm.ResourceLimitError
	return errors.As(err, &re)
}
