package externalapi

// ProcessResultKind is the outcome of processing a block
type ProcessResultKind uint8

const (
	// ProcessResultAccepted means the block was accepted, either to the
	// active chain or as a side branch candidate
	ProcessResultAccepted ProcessResultKind = iota

	// ProcessResultRejected means the block broke a rule. RejectReason
	// holds the rule error.
	ProcessResultRejected

	// ProcessResultNeedsMoreData means the block cannot be evaluated until
	// missing blocks or transactions are supplied
	ProcessResultNeedsMoreData
)

var processResultKindStrings = map[ProcessResultKind]string{
	ProcessResultAccepted:      "Accepted",
	ProcessResultRejected:      "Rejected",
	ProcessResultNeedsMoreData: "NeedsMoreData",
}

func (kind ProcessResultKind) String() string {
	return processResultKindStrings[kind]
}

// ChainChanges lists the blocks that were removed from and added to the
// active chain, each in the order they were disconnected or connected
type ChainChanges struct {
	Removed []*DomainHash
	Added   []*DomainHash
}

// ProcessResult is the typed outcome of ValidateAndConnect and compact
// block reconstruction. Callers must switch on Kind.
type ProcessResult struct {
	Kind ProcessResultKind

	// BlockHash is the hash of the processed block
	BlockHash *DomainHash

	// RejectReason is set for ProcessResultRejected. A NeedsMoreData
	// result of a failed fill attempt also carries the fill error.
	RejectReason error

	// MissingBlockHashes is set for ProcessResultNeedsMoreData when
	// ancestors of the block are unknown
	MissingBlockHashes []*DomainHash

	// MissingTransactionIndexes is set for ProcessResultNeedsMoreData when
	// a compact block could not be fully reconstructed
	MissingTransactionIndexes []int

	// Block is the reconstructed block of a compact block
	Block *DomainBlock

	// ChainChanges is set when the active chain changed
	ChainChanges *ChainChanges
}

// NewAcceptedResult returns a ProcessResult of kind ProcessResultAccepted
func NewAcceptedResult(blockHash *DomainHash, chainChanges *ChainChanges) *ProcessResult {
	return &ProcessResult{
		Kind:         ProcessResultAccepted,
		BlockHash:    blockHash,
		ChainChanges: chainChanges,
	}
}

// NewRejectedResult returns a ProcessResult of kind ProcessResultRejected
func NewRejectedResult(blockHash *DomainHash, reason error) *ProcessResult {
	return &ProcessResult{
		Kind:         ProcessResultRejected,
		BlockHash:    blockHash,
		RejectReason: reason,
	}
}

// NewMissingBlocksResult returns a ProcessResult of kind
// ProcessResultNeedsMoreData listing missing blocks
func NewMissingBlocksResult(blockHash *DomainHash, missing []*DomainHash) *ProcessResult {
	return &ProcessResult{
		Kind:               ProcessResultNeedsMoreData,
		BlockHash:          blockHash,
		MissingBlockHashes: missing,
	}
}

// NewMissingTransactionsResult returns a ProcessResult of kind
// ProcessResultNeedsMoreData listing unresolved transaction indexes
func NewMissingTransactionsResult(blockHash *DomainHash, missingIndexes []int) *ProcessResult {
	return &ProcessResult{
		Kind:                      ProcessResultNeedsMoreData,
		BlockHash:                 blockHash,
		MissingTransactionIndexes: missingIndexes,
	}
}

// IsNewTip returns true if the processed block became the active tip
func (result *ProcessResult) IsNewTip() bool {
	if result.ChainChanges == nil || len(result.ChainChanges.Added) == 0 {
		return false
	}
	return result.ChainChanges.Added[len(result.ChainChanges.Added)-1].Equal(result.BlockHash)
}
