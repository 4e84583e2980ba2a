package externalapi

import "time"

// Consensus maintains the current core state of the node
type Consensus interface {
	// ValidateAndConnect validates the block and, if it is valid, adds it
	// to the block index and the active chain or a side branch. Rule
	// violations are reported through the returned ProcessResult. A non-nil
	// error means the block could not be processed at all.
	ValidateAndConnect(block *DomainBlock) (*ProcessResult, error)

	// PreValidateBlocks runs the context free checks of the given blocks
	// in parallel. The result is indexed like the blocks and holds nil for
	// blocks that passed.
	PreValidateBlocks(blocks []*DomainBlock) []error

	// ValidateTransactionInContext validates a loose transaction against
	// the UTXO set of the active chain and returns its fee.
	ValidateTransactionInContext(transaction *DomainTransaction) (fee uint64, err error)

	BuildBlock(coinbaseScript []byte, transactions []*DomainTransaction,
		coinstake *DomainTransaction, blockTime uint32) (*DomainBlock, error)

	GetFinalityStatus(blockHash *DomainHash) (FinalityStatus, error)
	IsStakeEligible(address []byte, amount uint64, age time.Duration) bool
	GetNextDifficulty(lane Algorithm) (uint32, error)

	// ReconstructBlock rebuilds the block of a compact block using the
	// given transaction pool. Unresolved slots are reported as
	// ProcessResultNeedsMoreData and may be supplied with FillMissing.
	ReconstructBlock(compactBlock *CompactBlock, pool []*DomainTransaction) (*ProcessResult, error)
	FillMissing(blockHash *DomainHash, transactions []*DomainTransaction) (*ProcessResult, error)

	GetChainTip() (*BlockInfo, error)
	GetBlockByHash(blockHash *DomainHash) (*DomainBlock, error)
	GetBlockInfo(blockHash *DomainHash) (*BlockInfo, error)
	GetUTXOEntry(outpoint *DomainOutpoint) (UTXOEntry, bool)
	GetActiveChainHashes() ([]*DomainHash, error)
}
