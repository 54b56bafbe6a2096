//go:build !seegadebug

package board

// debugChecks enables internal invariant checks. Build with -tags seegadebug.
const debugChecks = false
