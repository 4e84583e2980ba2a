package testapi

import (
	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// TestConsensus wraps the Consensus interface with some methods that are needed by tests only
type TestConsensus interface {
	externalapi.Consensus

	Params() *chainconfig.Params

	// BuildBlockOnParent builds a block on top of parentHash. Proof-of-work
	// blocks are solved unless proof of work is skipped.
	BuildBlockOnParent(parentHash *externalapi.DomainHash, coinbaseScript []byte,
		transactions []*externalapi.DomainTransaction, coinstake *externalapi.DomainTransaction,
		blockTime uint32) (*externalapi.DomainBlock, error)

	// AddBlock builds a proof-of-work block on top of parentHash and
	// validates and connects it
	AddBlock(parentHash *externalapi.DomainHash, coinbaseScript []byte,
		transactions []*externalapi.DomainTransaction) (*externalapi.DomainHash, *externalapi.ProcessResult, error)

	// SetInterrupted makes every following chain switch stop at its next
	// interrupt check
	SetInterrupted(interrupted bool)

	BlockIndex() model.BlockIndex
	BlockStore() model.BlockStore

	BlockBuilder() TestBlockBuilder
	BlockValidator() model.BlockValidator
	ChainManager() model.ChainManager
	DifficultyManager() model.DifficultyManager
	FinalityManager() model.FinalityManager
	PastMedianTimeManager() model.PastMedianTimeManager
	StakeManager() model.StakeManager
	TransactionValidator() model.TransactionValidator
}
