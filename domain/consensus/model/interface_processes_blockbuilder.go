package model

import "github.com/tetranet/tetrad/domain/consensus/model/externalapi"

// BlockBuilder is responsible for creating blocks from the current state
type BlockBuilder interface {
	// BuildBlock builds an unsolved block on top of the active tip. A zero
	// blockTime picks the current time, or one second past the median
	// time of the parent if that is later.
	BuildBlock(coinbaseScript []byte, transactions []*externalapi.DomainTransaction,
		coinstake *externalapi.DomainTransaction, blockTime uint32) (*externalapi.DomainBlock, error)
}
