package externalapi

// ShortIDSize is the size of a compact block short transaction ID
const ShortIDSize = 6

// ShortID is a truncated keyed hash of a transaction ID
type ShortID [ShortIDSize]byte

// PrefilledTransaction is a transaction sent in full within a compact block,
// along with its index in the block
type PrefilledTransaction struct {
	Index       uint64
	Transaction *DomainTransaction
}

// CompactBlock is a block relayed with short transaction IDs instead of
// full transactions
type CompactBlock struct {
	Header                *DomainBlockHeader
	Nonce                 uint64
	PrefilledTransactions []*PrefilledTransaction
	ShortIDs              []ShortID
}

// TransactionCount returns the number of transactions the compact block
// declares
func (cb *CompactBlock) TransactionCount() int {
	return len(cb.PrefilledTransactions) + len(cb.ShortIDs)
}
