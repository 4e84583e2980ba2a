package model

import (
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// BlockTemplateBuilder builds block templates for miners to consume
type BlockTemplateBuilder interface {
	// GetBlockTemplate builds an unsolved block on top of the active tip
	// paying to coinbaseScript. coinstake must be set for proof-of-stake
	// slots.
	GetBlockTemplate(coinbaseScript []byte, coinstake *externalapi.DomainTransaction) (*externalapi.DomainBlock, error)
}
