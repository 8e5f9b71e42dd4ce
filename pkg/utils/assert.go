package utils

import (
	"fmt"
	"os"
)

// Assert aborts the process when an internal invariant is violated. It is
// reserved for programmer errors (bad indices, impossible states) and must
// never be used for malformed-input handling, which goes through the
// linker's own Fatal/Warn/Error/Out sinks instead.
func Assert(cond bool) {
	if !cond {
		panic("assertion failed")
	}
}

// MustNo aborts the process if err is non-nil. Used for errors that can
// only be caused by the host environment (I/O, OS calls), not by
// malformed link input.
func MustNo(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Fatal prints msg and aborts. It exists for call sites that run before a
// Context/Logger is available (e.g. flag parsing).
func Fatal(msg string) {
	fmt.Fprintln(os.Stderr, "rvld: fatal:", msg)
	os.Exit(1)
}
