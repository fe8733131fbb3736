// Package debug provides env-gated diagnostic logging. Set ONYX_DEBUG to
// any non-empty value to enable it.
package debug

import (
	"fmt"
	"os"
)

var (
	enabled     = os.Getenv("ONYX_DEBUG") != ""
	verboseMode = false
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables debug output regardless of the environment.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
