// Package wasm statically inspects raw module bytecode before it is persisted
// or compiled. It decodes only the binary envelope and the import/export
// sections; execution-level decoding belongs to the engine.
package wasm

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

var magic = []byte{0x00, 0x61, 0x73, 0x6d} // "\0asm"

const supportedVersion = 1

// Section ids per the binary format.
const (
	sectionCustom   = 0
	sectionImport   = 2
	sectionExport   = 3
	sectionMax      = 12
	importKindFunc  = 0x00
	importKindTable = 0x01
	importKindMem   = 0x02
	importKindGlob  = 0x03
)

// Import is a single entry of the import section.
type Import struct {
	Module string
	Name   string
}

// Info is the statically decoded surface of a module.
type Info struct {
	Imports []Import
	Exports []string
}

// Parse decodes the module envelope and collects imports and export names.
// It errors on malformed framing: bad magic, unsupported version, section
// payloads that overrun the module, or trailing garbage.
func Parse(code []byte) (info Info, err error) {
	if len(code) < len(magic)+4 {
		err = errors.New("module too short")
		return
	}
	if !bytes.Equal(code[:len(magic)], magic) {
		err = errors.New("bad magic")
		return
	}
	version := binary.LittleEndian.Uint32(code[len(magic):])
	if version != supportedVersion {
		err = errors.Errorf("unsupported binary version %v", version)
		return
	}
	r := reader{data: code, pos: len(magic) + 4}
	for !r.done() {
		var id byte
		id, err = r.byte()
		if err != nil {
			return
		}
		if id > sectionMax {
			err = errors.Errorf("unknown section id %v", id)
			return
		}
		var size uint64
		size, err = r.uleb("section size")
		if err != nil {
			return
		}
		var payload []byte
		payload, err = r.take(int(size))
		if err != nil {
			err = errors.Wrapf(err, "section %v", id)
			return
		}
		switch id {
		case sectionImport:
			info.Imports, err = parseImports(payload)
		case sectionExport:
			info.Exports, err = parseExports(payload)
		}
		if err != nil {
			return
		}
	}
	return
}

func parseImports(payload []byte) (imports []Import, err error) {
	r := reader{data: payload}
	count, err := r.uleb("import count")
	if err != nil {
		return
	}
	for i := uint64(0); i < count; i++ {
		var imp Import
		imp.Module, err = r.name()
		if err != nil {
			return
		}
		imp.Name, err = r.name()
		if err != nil {
			return
		}
		var kind byte
		kind, err = r.byte()
		if err != nil {
			return
		}
		if kind != importKindFunc {
			err = errors.Errorf("import %s.%s: only function imports are allowed, got kind %v", imp.Module, imp.Name, kind)
			return
		}
		if _, err = r.uleb("func type index"); err != nil {
			return
		}
		imports = append(imports, imp)
	}
	if !r.done() {
		err = errors.New("trailing bytes in import section")
	}
	return
}

func parseExports(payload []byte) (exports []string, err error) {
	r := reader{data: payload}
	count, err := r.uleb("export count")
	if err != nil {
		return
	}
	for i := uint64(0); i < count; i++ {
		var name string
		name, err = r.name()
		if err != nil {
			return
		}
		if _, err = r.byte(); err != nil { // export kind
			return
		}
		if _, err = r.uleb("export index"); err != nil {
			return
		}
		exports = append(exports, name)
	}
	if !r.done() {
		err = errors.New("trailing bytes in export section")
	}
	return
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) done() bool { return r.pos == len(r.data) }

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errors.New("unexpected end of module")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) take(n int) ([]byte, error) {
	// Declared sizes are attacker controlled: compare against the remainder
	// so a size near MaxInt64 cannot overflow the bound.
	if n < 0 || n > len(r.data)-r.pos {
		return nil, errors.New("payload overruns module")
	}
	p := r.data[r.pos : r.pos+n]
	r.pos += n
	return p, nil
}

// uleb decodes unsigned LEB128, the varint encoding binary.Uvarint implements.
func (r *reader) uleb(what string) (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, errors.Errorf("%s: bad varint", what)
	}
	r.pos += n
	return v, nil
}

func (r *reader) name() (string, error) {
	size, err := r.uleb("name size")
	if err != nil {
		return "", err
	}
	raw, err := r.take(int(size))
	if err != nil {
		return "", errors.Wrap(err, "name")
	}
	return string(raw), nil
}
