//go:build seegadebug

package board

const debugChecks = true
