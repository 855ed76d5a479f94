//go:build !debug

package tag

// Debug guards expensive invariant checks. Build with `-tags debug` to turn
// them on.
const Debug = false
