// Package must stops the process when an invariant of bundled data or of an
// internal structure does not hold.
package must

import (
	"log/slog"
	"os"
)

var exit = os.Exit

// Assert logs message with attrs and exits when cond is false.
func Assert(cond bool, message string, attrs ...any) {
	if cond {
		return
	}
	slog.Error("assertion failed: "+message, attrs...)
	exit(1)
}

// NoError exits when err is not nil.
func NoError(err error, attrs ...any) {
	if err == nil {
		return
	}
	Assert(false, err.Error(), attrs...)
}
