package board

import "fmt"

// assert panics with a formatted message when cond is false and the
// seegadebug build tag is set. Release builds compile it to nothing.
func assert(cond bool, format string, args ...any) {
	if debugChecks && !cond {
		panic(fmt.Sprintf("board: "+format, args...))
	}
}
