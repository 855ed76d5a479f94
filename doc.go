// Package wasmcache turns a content checksum into a ready-to-run sandbox
// instance while amortizing module compilation cost across three tiers:
// an unbounded pinned tier, a byte-budget bounded memory tier of compiled
// modules, and a durable content-addressed store of raw bytecode.
//
// One Cache may be shared by any number of goroutines. The base storage
// directory must be owned by exactly one Cache in one process; several
// processes managing one directory is unsupported. That is a deployment
// contract, not a memory safety one.
package wasmcache
