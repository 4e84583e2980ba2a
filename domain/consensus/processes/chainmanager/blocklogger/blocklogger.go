// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocklogger

import (
	"sync"
	"time"

	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

var (
	mtx               sync.Mutex
	receivedLogBlocks int64
	receivedLogTx     int64
	lastBlockLogTime  = time.Now()
)

// LogBlock logs a new active tip as an information message to show
// progress to the user. In order to prevent spam, it limits logging to one
// message every 10 seconds with duration and totals included.
func LogBlock(block *externalapi.DomainBlock, height uint64) {
	mtx.Lock()
	defer mtx.Unlock()

	receivedLogBlocks++
	receivedLogTx += int64(len(block.Transactions))

	now := time.Now()
	duration := now.Sub(lastBlockLogTime)
	if duration < time.Second*10 {
		return
	}

	// Truncate the duration to 10s of milliseconds.
	tDuration := duration.Round(10 * time.Millisecond)

	blockStr := "blocks"
	if receivedLogBlocks == 1 {
		blockStr = "block"
	}
	txStr := "transactions"
	if receivedLogTx == 1 {
		txStr = "transaction"
	}

	log.Infof("Processed %d %s in the last %s (%d %s, height %d, %s)",
		receivedLogBlocks, blockStr, tDuration, receivedLogTx, txStr, height,
		time.Unix(int64(block.Header.Time), 0))

	receivedLogBlocks = 0
	receivedLogTx = 0
	lastBlockLogTime = now
}
