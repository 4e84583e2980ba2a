package mempool

import (
	"math/bits"
	"sort"

	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
)

type mempoolTransaction struct {
	transaction   *externalapi.DomainTransaction
	transactionID *externalapi.DomainTransactionID
	fee           uint64
	size          uint64
}

// feeRateLess returns whether mt pays less per byte than other. Ties are
// broken by transaction ID so the order is deterministic.
func (mt *mempoolTransaction) feeRateLess(other *mempoolTransaction) bool {
	// fee/size < otherFee/otherSize without dividing
	leftHigh, leftLow := bits.Mul64(mt.fee, other.size)
	rightHigh, rightLow := bits.Mul64(other.fee, mt.size)
	if leftHigh != rightHigh {
		return leftHigh < rightHigh
	}
	if leftLow != rightLow {
		return leftLow < rightLow
	}
	return other.transactionID.Less(mt.transactionID)
}

type transactionsPool struct {
	allTransactions map[externalapi.DomainTransactionID]*mempoolTransaction
	spentOutpoints  map[externalapi.DomainOutpoint]*mempoolTransaction
}

func newTransactionsPool() *transactionsPool {
	return &transactionsPool{
		allTransactions: make(map[externalapi.DomainTransactionID]*mempoolTransaction),
		spentOutpoints:  make(map[externalapi.DomainOutpoint]*mempoolTransaction),
	}
}

func newMempoolTransaction(transaction *externalapi.DomainTransaction, fee uint64) *mempoolTransaction {
	return &mempoolTransaction{
		transaction:   transaction,
		transactionID: consensushashing.TransactionID(transaction),
		fee:           fee,
		size:          uint64(serialization.TransactionSerializeSize(transaction)),
	}
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) add(transaction *mempoolTransaction) {
	tp.allTransactions[*transaction.transactionID] = transaction
	for _, input := range transaction.transaction.Inputs {
		tp.spentOutpoints[input.PreviousOutpoint] = transaction
	}
}

// this function MUST be called with the mempool mutex locked for writes
func (tp *transactionsPool) remove(transaction *mempoolTransaction) {
	delete(tp.allTransactions, *transaction.transactionID)
	for _, input := range transaction.transaction.Inputs {
		spender, ok := tp.spentOutpoints[input.PreviousOutpoint]
		if ok && spender == transaction {
			delete(tp.spentOutpoints, input.PreviousOutpoint)
		}
	}
}

func (tp *transactionsPool) get(transactionID *externalapi.DomainTransactionID) (*mempoolTransaction, bool) {
	transaction, ok := tp.allTransactions[*transactionID]
	return transaction, ok
}

// conflicting returns the pool transaction spending one of the outpoints
// transaction spends, if there is one
func (tp *transactionsPool) conflicting(transaction *externalapi.DomainTransaction) (*mempoolTransaction, bool) {
	for _, input := range transaction.Inputs {
		spender, ok := tp.spentOutpoints[input.PreviousOutpoint]
		if ok {
			return spender, true
		}
	}
	return nil, false
}

func (tp *transactionsPool) len() int {
	return len(tp.allTransactions)
}

// byFeeRate returns the pool transactions ordered by descending fee rate
func (tp *transactionsPool) byFeeRate() []*mempoolTransaction {
	transactions := make([]*mempoolTransaction, 0, len(tp.allTransactions))
	for _, transaction := range tp.allTransactions {
		transactions = append(transactions, transaction)
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[j].feeRateLess(transactions[i])
	})
	return transactions
}
