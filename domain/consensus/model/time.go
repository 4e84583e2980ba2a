package model

import "time"

// TimeSource is the interface to access time.
type TimeSource interface {
	// Now returns the current time.
	Now() time.Time
}

// Interrupter reports whether long running operations should stop
type Interrupter interface {
	Interrupted() bool
}
