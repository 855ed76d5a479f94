package wasm

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// hostNamespace is the only import module namespace contracts may link
// against.
const hostNamespace = "env"

// requiresPrefix marks exports that declare a required host capability,
// e.g. "requires_iterator" requires capability "iterator".
const requiresPrefix = "requires_"

// CapabilitySet is the set of host capability names available to modules.
type CapabilitySet map[string]struct{}

func NewCapabilitySet(caps ...string) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		if c == "" {
			continue
		}
		set[c] = struct{}{}
	}
	return set
}

func (s CapabilitySet) Has(c string) bool {
	_, ok := s[c]
	return ok
}

func (s CapabilitySet) List() []string {
	list := make([]string, 0, len(s))
	for c := range s {
		list = append(list, c)
	}
	sort.Strings(list)
	return list
}

// RequiredCapabilities extracts capability names from marker exports.
func RequiredCapabilities(info Info) []string {
	var caps []string
	for _, name := range info.Exports {
		if strings.HasPrefix(name, requiresPrefix) {
			caps = append(caps, strings.TrimPrefix(name, requiresPrefix))
		}
	}
	sort.Strings(caps)
	return caps
}

// Validate statically checks raw bytecode against available capabilities.
// Rejection is permanent for a given byte sequence: the same bytes and the
// same capability set always produce the same verdict.
func Validate(code []byte, available CapabilitySet) error {
	info, err := Parse(code)
	if err != nil {
		return err
	}
	for _, imp := range info.Imports {
		if imp.Module != hostNamespace {
			return errors.Errorf("import %s.%s: imports are allowed only from %q", imp.Module, imp.Name, hostNamespace)
		}
	}
	for _, c := range RequiredCapabilities(info) {
		if !available.Has(c) {
			return errors.Errorf("module requires unavailable capability %q", c)
		}
	}
	return nil
}
