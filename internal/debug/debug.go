// Package debug holds the process-wide verbosity switches set from the
// --verbose and --quiet flags.
package debug

import (
	"os"
	"sync/atomic"
)

var (
	verbose atomic.Bool
	quiet   atomic.Bool
)

// SetVerbose enables trace output.
func SetVerbose(v bool) { verbose.Store(v) }

// SetQuiet suppresses everything but warnings and errors.
func SetQuiet(q bool) { quiet.Store(q) }

// IsVerbose reports whether trace output is enabled.
// NEXUS_PRISMA_DEBUG=1 enables it without the flag.
func IsVerbose() bool {
	return verbose.Load() || os.Getenv("NEXUS_PRISMA_DEBUG") == "1"
}

// IsQuiet reports whether non-essential output is suppressed.
func IsQuiet() bool { return quiet.Load() }
