package consensus

import (
	"time"

	"github.com/tetranet/tetrad/domain/consensus/model"
)

// timeSource provides an implementation of the TimeSource interface
// that simply returns the current local time.
type timeSource struct{}

// Now returns the current local time, with one second precision.
func (m *timeSource) Now() time.Time {
	return time.Unix(time.Now().Unix(), 0)
}

// NewTimeSource returns a new instance of a TimeSource
func NewTimeSource() model.TimeSource {
	return &timeSource{}
}
