package consensus

import "github.com/tetranet/tetrad/domain/consensus/model"

type channelInterrupter struct {
	interrupt <-chan struct{}
}

// NewChannelInterrupter returns an Interrupter that reports an interrupt
// once the given channel is closed. A nil channel never interrupts.
func NewChannelInterrupter(interrupt <-chan struct{}) model.Interrupter {
	return &channelInterrupter{interrupt: interrupt}
}

func (ci *channelInterrupter) Interrupted() bool {
	select {
	case <-ci.interrupt:
		return true
	default:
		return false
	}
}
