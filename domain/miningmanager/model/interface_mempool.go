package model

import (
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// Mempool maintains a set of known transactions that
// are intended to be mined into new blocks
type Mempool interface {
	// ValidateAndInsertTransaction validates transaction against consensus
	// and relay policy and adds it to the pool. source names the peer the
	// transaction came from and is empty for local submissions.
	ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction, source string) error

	// GetMempoolTransactions returns the pool transactions ordered by
	// descending fee rate
	GetMempoolTransactions() []*externalapi.DomainTransaction

	GetTransaction(transactionID *externalapi.DomainTransactionID) (*externalapi.DomainTransaction, bool)
	RemoveTransaction(transactionID *externalapi.DomainTransactionID)
	TransactionCount() int

	// HandleChainChanges updates the pool after the active chain changed
	HandleChainChanges(chainChanges *externalapi.ChainChanges) error
}
