package common

import (
	"fmt"
	"runtime"

	"github.com/devlights/gomy/output"
)

// SH_Assert signals a programming error: a violated precondition that a caller
// should never be able to trigger through the documented API. It dumps the
// current goroutine's stack before panicking so the failure is diagnosable
// from a log even when the panic message alone is not.
func SH_Assert(condition bool, msg string) {
	if !condition {
		output.Stdoutl("=== assertion failed ===", stack())
		panic(msg)
	}
}

// SH_Assertf is SH_Assert with a formatted message.
func SH_Assertf(condition bool, format string, a ...interface{}) {
	if !condition {
		SH_Assert(false, fmt.Sprintf(format, a...))
	}
}

func stack() string {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, 2*len(buf))
	}
}
