package testapi

import (
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// TestBlockBuilder adds to the main BlockBuilder methods required by tests
type TestBlockBuilder interface {
	model.BlockBuilder

	// BuildBlockOnParent builds an unsolved block on top of parentHash,
	// which need not be the active tip. Fees are only collected when the
	// parent is the active tip.
	BuildBlockOnParent(parentHash *externalapi.DomainHash, coinbaseScript []byte,
		transactions []*externalapi.DomainTransaction, coinstake *externalapi.DomainTransaction,
		blockTime uint32) (*externalapi.DomainBlock, error)
}
