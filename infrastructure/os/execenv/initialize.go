package execenv

import (
	"runtime"
	"runtime/debug"
)

// Initialize initializes the execution environment required to run tetrad.
// A positive gcPercent replaces the garbage collection target.
func Initialize(gcPercent int) {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	if gcPercent > 0 {
		debug.SetGCPercent(gcPercent)
	}
}
