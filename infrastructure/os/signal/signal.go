// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package signal

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// ShutdownRequestChannel can be used to initiate shutdown from one of the
// subsystems using the same code paths as when an interrupt signal is received.
var ShutdownRequestChannel = make(chan struct{})

// interruptSignals defines the default signals to catch in order to do a proper
// shutdown.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// InterruptListener listens for OS Signals such as SIGINT (Ctrl+C) and shutdown
// requests from shutdownRequestChannel. It returns a channel that is closed
// when either signal is received.
func InterruptListener() chan struct{} {
	c := make(chan struct{})
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)

		// Listen for initial shutdown signal and close the returned
		// channel to notify the caller.
		select {
		case sig := <-interruptChannel:
			log.Infof("Received signal (%s). Shutting down...",
				sig)

		case <-ShutdownRequestChannel:
			log.Infof("Shutdown requested. Shutting down...")
		}
		close(c)

		// Listen for repeated signals and display a message so the user
		// knows the shutdown is in progress and the process is not
		// hung.
		for {
			select {
			case sig := <-interruptChannel:
				log.Infof("Received signal (%s). Already "+
					"shutting down...", sig)

			case <-ShutdownRequestChannel:
				log.Infof("Shutdown requested. Already " +
					"shutting down...")
			}
		}
	}()

	return c
}

// ChannelInterrupter adapts an interrupt channel to the polling form used by
// long running validation. Once the channel is closed Interrupted keeps
// returning true.
type ChannelInterrupter struct {
	ch        <-chan struct{}
	triggered uint32
}

// NewChannelInterrupter returns a ChannelInterrupter watching ch.
func NewChannelInterrupter(ch <-chan struct{}) *ChannelInterrupter {
	return &ChannelInterrupter{ch: ch}
}

// Interrupted returns true once the watched channel has been closed.
func (ci *ChannelInterrupter) Interrupted() bool {
	if atomic.LoadUint32(&ci.triggered) == 1 {
		return true
	}
	select {
	case <-ci.ch:
		atomic.StoreUint32(&ci.triggered, 1)
		return true
	default:
		return false
	}
}
