package vmtest

import (
	"encoding/binary"
	"fmt"

	"github.com/skipor/wasmcache/wasm"
)

// CodeSpec describes a synthetic module for tests.
type CodeSpec struct {
	Imports []wasm.Import
	Exports []string
	// Seed distinguishes otherwise identical modules, so tests get distinct
	// checksums without caring about binary layout.
	Seed uint64
	// PadTo grows the module with a custom section up to the given raw size.
	PadTo int
}

// BuildCode encodes spec as a structurally valid module binary: magic,
// version, import and export sections, and a padding custom section.
func BuildCode(spec CodeSpec) []byte {
	code := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	if len(spec.Imports) > 0 {
		var payload []byte
		payload = binary.AppendUvarint(payload, uint64(len(spec.Imports)))
		for _, imp := range spec.Imports {
			payload = appendName(payload, imp.Module)
			payload = appendName(payload, imp.Name)
			// Function import with type index 0.
			payload = append(payload, 0x00)
			payload = binary.AppendUvarint(payload, 0)
		}
		code = appendSection(code, 2, payload)
	}

	if len(spec.Exports) > 0 {
		var payload []byte
		payload = binary.AppendUvarint(payload, uint64(len(spec.Exports)))
		for i, name := range spec.Exports {
			payload = appendName(payload, name)
			payload = append(payload, 0x00) // function export
			payload = binary.AppendUvarint(payload, uint64(i))
		}
		code = appendSection(code, 3, payload)
	}

	var pad []byte
	pad = appendName(pad, "pad")
	pad = binary.LittleEndian.AppendUint64(pad, spec.Seed)
	if extra := spec.PadTo - len(code) - len(pad) - 8; extra > 0 {
		pad = append(pad, make([]byte, extra)...)
	}
	return appendSection(code, 0, pad)
}

// ValidCode returns a minimal well-formed module with a distinguishing seed.
func ValidCode(seed uint64) []byte {
	return BuildCode(CodeSpec{Seed: seed})
}

// SizedCode returns a module whose fake-compiled footprint is approximately
// size bytes (see CompiledSizeFactor).
func SizedCode(seed uint64, size int64) []byte {
	return BuildCode(CodeSpec{Seed: seed, PadTo: int(size / CompiledSizeFactor)})
}

// RequiresCode returns a module carrying capability marker exports.
func RequiresCode(seed uint64, capabilities ...string) []byte {
	exports := make([]string, 0, len(capabilities))
	for _, c := range capabilities {
		exports = append(exports, fmt.Sprintf("requires_%s", c))
	}
	return BuildCode(CodeSpec{Seed: seed, Exports: exports})
}

func appendSection(code []byte, id byte, payload []byte) []byte {
	code = append(code, id)
	code = binary.AppendUvarint(code, uint64(len(payload)))
	return append(code, payload...)
}

func appendName(b []byte, name string) []byte {
	b = binary.AppendUvarint(b, uint64(len(name)))
	return append(b, name...)
}
