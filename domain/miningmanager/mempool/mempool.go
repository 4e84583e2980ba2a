package mempool

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/domain/miningmanager/model"
	"github.com/tetranet/tetrad/domain/policy"
	"github.com/tetranet/tetrad/infrastructure/logger"
)

type mempool struct {
	lock sync.RWMutex

	config    *Config
	consensus externalapi.Consensus
	policy    *policy.Policy

	transactionsPool *transactionsPool
}

// New creates a new mempool
func New(config *Config, consensus externalapi.Consensus, policy *policy.Policy) model.Mempool {
	return &mempool{
		config:           config,
		consensus:        consensus,
		policy:           policy,
		transactionsPool: newTransactionsPool(),
	}
}

// ValidateAndInsertTransaction validates transaction and adds it to the
// pool. The mempool lock is not held while consensus validates the
// transaction, so the pool is checked again before inserting.
func (mp *mempool) ValidateAndInsertTransaction(transaction *externalapi.DomainTransaction, source string) error {
	if source != "" {
		err := mp.policy.CheckPeerMessage(source)
		if err != nil {
			return err
		}
	}

	transactionID := consensushashing.TransactionID(transaction)
	if mp.policy.IsRecentlyRejected(transactionID) {
		return errors.Wrapf(policy.ErrRecentlyRejected, "transaction %s was rejected recently", transactionID)
	}

	err := mp.checkAgainstPool(transaction, transactionID)
	if err != nil {
		return err
	}

	fee, err := mp.validateTransaction(transaction, transactionID)
	if err != nil {
		return err
	}

	mp.lock.Lock()
	defer mp.lock.Unlock()

	err = mp.checkAgainstPoolNoLock(transaction, transactionID)
	if err != nil {
		return err
	}
	if mp.transactionsPool.len() >= mp.config.MaximumTransactionCount {
		return errors.Wrapf(policy.ErrMempoolFull, "mempool already holds %d transactions",
			mp.transactionsPool.len())
	}

	mp.transactionsPool.add(newMempoolTransaction(transaction, fee))
	log.Debugf("Accepted transaction %s with fee %d (pool size: %d)", transactionID, fee, mp.transactionsPool.len())
	return nil
}

func (mp *mempool) checkAgainstPool(transaction *externalapi.DomainTransaction,
	transactionID *externalapi.DomainTransactionID) error {

	mp.lock.RLock()
	defer mp.lock.RUnlock()

	return mp.checkAgainstPoolNoLock(transaction, transactionID)
}

func (mp *mempool) checkAgainstPoolNoLock(transaction *externalapi.DomainTransaction,
	transactionID *externalapi.DomainTransactionID) error {

	if _, ok := mp.transactionsPool.get(transactionID); ok {
		return errors.Wrapf(policy.ErrDuplicateTransaction, "transaction %s is already in the mempool",
			transactionID)
	}
	if spender, ok := mp.transactionsPool.conflicting(transaction); ok {
		return errors.Wrapf(policy.ErrMempoolConflict, "transaction %s spends an output already spent "+
			"by mempool transaction %s", transactionID, spender.transactionID)
	}
	return nil
}

// validateTransaction runs the relay policy and consensus checks of
// transaction and returns its fee. Transactions failing for any reason
// other than a missing input are remembered as recently rejected.
func (mp *mempool) validateTransaction(transaction *externalapi.DomainTransaction,
	transactionID *externalapi.DomainTransactionID) (uint64, error) {

	err := mp.policy.CheckTransactionStandard(transaction)
	if err != nil {
		mp.policy.AddRecentReject(transactionID)
		return 0, err
	}

	fee, err := mp.consensus.ValidateTransactionInContext(transaction)
	if err != nil {
		var missingTxOut ruleerrors.ErrMissingTxOut
		if ruleerrors.IsRuleError(err) && !errors.As(err, &missingTxOut) {
			mp.policy.AddRecentReject(transactionID)
		}
		return 0, err
	}

	err = mp.policy.CheckTransactionFee(transaction, fee)
	if err != nil {
		mp.policy.AddRecentReject(transactionID)
		return 0, err
	}
	return fee, nil
}

// GetMempoolTransactions returns the pool transactions ordered by
// descending fee rate
func (mp *mempool) GetMempoolTransactions() []*externalapi.DomainTransaction {
	mp.lock.RLock()
	defer mp.lock.RUnlock()

	byFeeRate := mp.transactionsPool.byFeeRate()
	transactions := make([]*externalapi.DomainTransaction, len(byFeeRate))
	for i, transaction := range byFeeRate {
		transactions[i] = transaction.transaction
	}
	return transactions
}

func (mp *mempool) GetTransaction(
	transactionID *externalapi.DomainTransactionID) (*externalapi.DomainTransaction, bool) {

	mp.lock.RLock()
	defer mp.lock.RUnlock()

	transaction, ok := mp.transactionsPool.get(transactionID)
	if !ok {
		return nil, false
	}
	return transaction.transaction, true
}

func (mp *mempool) RemoveTransaction(transactionID *externalapi.DomainTransactionID) {
	mp.lock.Lock()
	defer mp.lock.Unlock()

	transaction, ok := mp.transactionsPool.get(transactionID)
	if ok {
		mp.transactionsPool.remove(transaction)
	}
}

func (mp *mempool) TransactionCount() int {
	mp.lock.RLock()
	defer mp.lock.RUnlock()

	return mp.transactionsPool.len()
}

// HandleChainChanges removes the transactions of connected blocks and
// the pool transactions conflicting with them. Transactions of
// disconnected blocks are offered to the pool again, and after a
// reorganization every pool transaction is revalidated.
func (mp *mempool) HandleChainChanges(chainChanges *externalapi.ChainChanges) error {
	if chainChanges == nil {
		return nil
	}

	onEnd := logger.LogAndMeasureExecutionTime(log, "HandleChainChanges")
	defer onEnd()

	disconnectedTransactions, err := mp.blockTransactions(chainChanges.Removed)
	if err != nil {
		return err
	}
	connectedTransactions, err := mp.blockTransactions(chainChanges.Added)
	if err != nil {
		return err
	}

	mp.removeConnectedTransactions(connectedTransactions)
	mp.policy.ResetRecentRejects()

	if len(chainChanges.Removed) == 0 {
		return nil
	}

	mp.revalidateTransactions()
	for _, transaction := range disconnectedTransactions {
		err := mp.ValidateAndInsertTransaction(transaction, "")
		if err != nil {
			log.Debugf("Transaction %s of a disconnected block was not re-admitted: %s",
				consensushashing.TransactionID(transaction), err)
		}
	}
	return nil
}

// blockTransactions returns the transactions of the given blocks that may
// appear in the pool, that is all but coinbases and coinstakes
func (mp *mempool) blockTransactions(blockHashes []*externalapi.DomainHash) (
	[]*externalapi.DomainTransaction, error) {

	var transactions []*externalapi.DomainTransaction
	for _, blockHash := range blockHashes {
		block, err := mp.consensus.GetBlockByHash(blockHash)
		if err != nil {
			return nil, err
		}
		for _, transaction := range block.Transactions {
			if transactionhelper.IsCoinBase(transaction) || transactionhelper.IsCoinStake(transaction) {
				continue
			}
			transactions = append(transactions, transaction)
		}
	}
	return transactions, nil
}

func (mp *mempool) removeConnectedTransactions(transactions []*externalapi.DomainTransaction) {
	mp.lock.Lock()
	defer mp.lock.Unlock()

	for _, transaction := range transactions {
		transactionID := consensushashing.TransactionID(transaction)
		if poolTransaction, ok := mp.transactionsPool.get(transactionID); ok {
			mp.transactionsPool.remove(poolTransaction)
		}
		for {
			conflicting, ok := mp.transactionsPool.conflicting(transaction)
			if !ok {
				break
			}
			log.Debugf("Removing transaction %s, which double spends block transaction %s",
				conflicting.transactionID, transactionID)
			mp.transactionsPool.remove(conflicting)
		}
	}
}

// revalidateTransactions drops the pool transactions that are no longer
// valid on top of the active tip
func (mp *mempool) revalidateTransactions() {
	mp.lock.RLock()
	transactions := mp.transactionsPool.byFeeRate()
	mp.lock.RUnlock()

	for _, transaction := range transactions {
		_, err := mp.consensus.ValidateTransactionInContext(transaction.transaction)
		if err == nil {
			continue
		}
		log.Debugf("Removing transaction %s, which is invalid after a reorganization: %s",
			transaction.transactionID, err)

		mp.lock.Lock()
		mp.transactionsPool.remove(transaction)
		mp.lock.Unlock()
	}
}
