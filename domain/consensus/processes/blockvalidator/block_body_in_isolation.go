package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/processes/transactionvalidator"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/merkle"
	"github.com/tetranet/tetrad/domain/consensus/utils/pow"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
)

const (
	coinbaseTransactionIndex  = 0
	coinstakeTransactionIndex = 1
)

func (v *blockValidator) validateBodyInIsolation(block *externalapi.DomainBlock, height uint64) error {
	err := v.checkBlockContainsAtLeastOneTransaction(block)
	if err != nil {
		return err
	}

	err = v.checkFirstBlockTransactionIsCoinbase(block)
	if err != nil {
		return err
	}

	err = v.checkBlockContainsOnlyOneCoinbase(block)
	if err != nil {
		return err
	}

	err = v.checkTransactionsInIsolation(block)
	if err != nil {
		return err
	}

	err = v.checkCoinbaseHeight(block, height)
	if err != nil {
		return err
	}

	err = v.checkCoinstakePlacement(block, height)
	if err != nil {
		return err
	}

	err = v.checkTransactionsFinalized(block, height)
	if err != nil {
		return err
	}

	err = v.checkBlockDuplicateTransactions(block)
	if err != nil {
		return err
	}

	err = v.checkBlockDoubleSpends(block)
	if err != nil {
		return err
	}

	return v.checkBlockHasNoChainedTransactions(block)
}

func (v *blockValidator) checkBlockSize(block *externalapi.DomainBlock) error {
	size := uint64(serialization.BlockSerializeSize(block))
	if size > v.maxBlockSize {
		return errors.Wrapf(ruleerrors.ErrBlockSizeTooHigh, "serialized block is too big - got "+
			"%d, max %d", size, v.maxBlockSize)
	}
	return nil
}

func (v *blockValidator) checkBlockHashMerkleRoot(block *externalapi.DomainBlock) error {
	calculatedHashMerkleRoot := merkle.CalculateHashMerkleRoot(block.Transactions)
	if !block.Header.MerkleRoot.Equal(calculatedHashMerkleRoot) {
		return errors.Wrapf(ruleerrors.ErrBadMerkleRoot, "block hash merkle root is invalid - block "+
			"header indicates %s, but calculated value is %s",
			block.Header.MerkleRoot, calculatedHashMerkleRoot)
	}
	return nil
}

func (v *blockValidator) checkBlockContainsAtLeastOneTransaction(block *externalapi.DomainBlock) error {
	if len(block.Transactions) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTransactions, "block does not contain "+
			"any transactions")
	}
	return nil
}

func (v *blockValidator) checkFirstBlockTransactionIsCoinbase(block *externalapi.DomainBlock) error {
	if !transactionhelper.IsCoinBase(block.Transactions[coinbaseTransactionIndex]) {
		return errors.Wrapf(ruleerrors.ErrFirstTxNotCoinbase, "first transaction in "+
			"block is not a coinbase")
	}
	return nil
}

func (v *blockValidator) checkBlockContainsOnlyOneCoinbase(block *externalapi.DomainBlock) error {
	for i, tx := range block.Transactions[coinbaseTransactionIndex+1:] {
		if transactionhelper.IsCoinBase(tx) {
			return errors.Wrapf(ruleerrors.ErrMultipleCoinbases, "block contains second coinbase at "+
				"index %d", i+coinbaseTransactionIndex+1)
		}
	}
	return nil
}

func (v *blockValidator) checkTransactionsInIsolation(block *externalapi.DomainBlock) error {
	for _, tx := range block.Transactions {
		err := v.transactionValidator.ValidateTransactionInIsolation(tx)
		if err != nil {
			return errors.Wrapf(err, "transaction %s failed isolation "+
				"check", consensushashing.TransactionID(tx))
		}
	}

	return nil
}

func (v *blockValidator) checkCoinbaseHeight(block *externalapi.DomainBlock, height uint64) error {
	coinbase := block.Transactions[coinbaseTransactionIndex]
	committedHeight, err := transactionhelper.CoinbaseHeight(coinbase.Inputs[0].SignatureScript)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "%s", err)
	}
	if committedHeight != height {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "coinbase commits to height %d "+
			"but the block is at height %d", committedHeight, height)
	}
	return nil
}

// checkCoinstakePlacement ensures that a coinstake appears in proof-of-stake
// slots only, and only as the second transaction
func (v *blockValidator) checkCoinstakePlacement(block *externalapi.DomainBlock, height uint64) error {
	isProofOfStake := pow.IsProofOfStakeHeight(height, v.posInterval)
	for i, tx := range block.Transactions {
		if !transactionhelper.IsCoinStake(tx) {
			continue
		}
		if !isProofOfStake {
			return errors.Wrapf(ruleerrors.ErrUnexpectedCoinstake, "proof-of-work block at height %d "+
				"contains a coinstake at index %d", height, i)
		}
		if i != coinstakeTransactionIndex {
			return errors.Wrapf(ruleerrors.ErrUnexpectedCoinstake, "coinstake at index %d, expected "+
				"index %d", i, coinstakeTransactionIndex)
		}
	}

	if !isProofOfStake || v.skipPoW {
		return nil
	}
	if len(block.Transactions) <= coinstakeTransactionIndex ||
		!transactionhelper.IsCoinStake(block.Transactions[coinstakeTransactionIndex]) {

		return errors.Wrapf(ruleerrors.ErrMissingCoinstake, "proof-of-stake block at height %d "+
			"has no coinstake", height)
	}
	return nil
}

func (v *blockValidator) checkTransactionsFinalized(block *externalapi.DomainBlock, height uint64) error {
	for _, tx := range block.Transactions {
		if !transactionvalidator.IsFinalizedTransaction(tx, height, block.Header.Time) {
			return errors.Wrapf(ruleerrors.ErrUnfinalizedTx, "block contains unfinalized "+
				"transaction %s", consensushashing.TransactionID(tx))
		}
	}
	return nil
}

func (v *blockValidator) checkBlockDuplicateTransactions(block *externalapi.DomainBlock) error {
	existingTxIDs := make(map[externalapi.DomainTransactionID]struct{})
	for _, tx := range block.Transactions {
		id := consensushashing.TransactionID(tx)
		if _, exists := existingTxIDs[*id]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTx, "block contains duplicate "+
				"transaction %s", id)
		}
		existingTxIDs[*id] = struct{}{}
	}
	return nil
}

func (v *blockValidator) checkBlockDoubleSpends(block *externalapi.DomainBlock) error {
	usedOutpoints := make(map[externalapi.DomainOutpoint]*externalapi.DomainTransactionID)
	for _, tx := range block.Transactions {
		if transactionhelper.IsCoinBase(tx) {
			continue
		}
		txID := consensushashing.TransactionID(tx)
		for _, input := range tx.Inputs {
			if spendingTxID, exists := usedOutpoints[input.PreviousOutpoint]; exists {
				return errors.Wrapf(ruleerrors.ErrDoubleSpendInSameBlock, "transaction %s spends "+
					"outpoint %s that was already spent by "+
					"transaction %s in this block", txID,
					input.PreviousOutpoint, spendingTxID)
			}
			usedOutpoints[input.PreviousOutpoint] = txID
		}
	}
	return nil
}

func (v *blockValidator) checkBlockHasNoChainedTransactions(block *externalapi.DomainBlock) error {
	transactions := block.Transactions
	transactionsSet := make(map[externalapi.DomainTransactionID]struct{}, len(transactions))
	for _, transaction := range transactions {
		txID := consensushashing.TransactionID(transaction)
		transactionsSet[*txID] = struct{}{}
	}

	for _, transaction := range transactions {
		if transactionhelper.IsCoinBase(transaction) {
			continue
		}
		for i, transactionInput := range transaction.Inputs {
			if _, ok := transactionsSet[transactionInput.PreviousOutpoint.TransactionID]; ok {
				txID := consensushashing.TransactionID(transaction)
				return errors.Wrapf(ruleerrors.ErrChainedTransactions, "block contains chained "+
					"transactions: Input %d of transaction %s spend "+
					"an output of transaction %s", i, txID, transactionInput.PreviousOutpoint.TransactionID)
			}
		}
	}

	return nil
}

// checkBlockSigOpsCost ensures the aggregate signature operation cost of
// the block does not exceed the maximum
func (v *blockValidator) checkBlockSigOpsCost(block *externalapi.DomainBlock) error {
	totalSigOps := uint64(0)
	for _, tx := range block.Transactions {
		for _, input := range tx.Inputs {
			totalSigOps += uint64(txscript.GetSigOpCount(input.SignatureScript))
		}
		for _, output := range tx.Outputs {
			totalSigOps += uint64(txscript.GetSigOpCount(output.ScriptPublicKey))
		}
	}

	cost := totalSigOps * v.sigOpCostFactor
	if cost > v.maxBlockSigOpsCost {
		return errors.Wrapf(ruleerrors.ErrSigOpsExceeded, "block contains too many signature "+
			"operations - got a cost of %d, max %d", cost, v.maxBlockSigOpsCost)
	}
	return nil
}
