// Package assert holds the handful of invariant checks that exist to catch
// programming bugs, not runtime conditions. Corrupt internal state (a
// directory entry with no matching frame, a node tagged with an unknown
// type) is a bug in this repository, not a value a caller can recover from.
package assert

import "fmt"

// That panics with a formatted message when cond is false.
func That(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
