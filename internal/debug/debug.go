// Package debug provides diagnostic output for ticketbridge.
//
// Output is off by default and enabled with TICKETBRIDGE_DEBUG=1 or the
// --verbose flag. Sync handlers use this for swallowed remote failures,
// which must never surface to the triggering event.
package debug

import (
	"fmt"
	"os"
)

var (
	enabled     = os.Getenv("TICKETBRIDGE_DEBUG") != ""
	verboseMode = false
	quietMode   = false
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// PrintNormal prints output unless quiet mode is enabled
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}
