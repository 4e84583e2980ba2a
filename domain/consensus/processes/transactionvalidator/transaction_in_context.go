package transactionvalidator

import (
	"math"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/constants"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
)

// IsFinalizedTransaction determines whether or not a transaction is finalized.
func IsFinalizedTransaction(tx *externalapi.DomainTransaction, blockHeight uint64, blockTime uint32) bool {
	// Lock time of zero means the transaction is finalized.
	lockTime := tx.LockTime
	if lockTime == 0 {
		return true
	}

	// The lock time field of a transaction is either a block height at
	// which the transaction is finalized or a timestamp depending on if the
	// value is before the constants.LockTimeThreshold. When it is under the
	// threshold it is a block height.
	blockTimeOrHeight := uint64(0)
	if lockTime < constants.LockTimeThreshold {
		blockTimeOrHeight = blockHeight
	} else {
		blockTimeOrHeight = uint64(blockTime)
	}
	if lockTime < blockTimeOrHeight {
		return true
	}

	// At this point, the transaction's lock time hasn't occurred yet, but
	// the transaction might still be finalized if the sequence number
	// for all transaction inputs is maxed out.
	for _, input := range tx.Inputs {
		if input.Sequence != math.MaxUint64 {
			return false
		}
	}
	return true
}

// ValidateTransactionInContext validates the transaction against utxoView,
// the UTXO set a block at povHeight is connected to, and returns its fee.
// A coinstake may pay out more than it spends and always has a fee of zero.
func (v *transactionValidator) ValidateTransactionInContext(tx *externalapi.DomainTransaction,
	utxoView model.UTXOView, povHeight uint64, isCoinstake bool) (fee uint64, err error) {

	if transactionhelper.IsCoinBase(tx) {
		return 0, nil
	}

	entries, err := v.resolveEntries(tx, utxoView)
	if err != nil {
		return 0, err
	}

	err = v.checkTransactionCoinbaseMaturity(tx, entries, povHeight)
	if err != nil {
		return 0, err
	}

	totalIn, err := v.checkTransactionInputAmounts(entries)
	if err != nil {
		return 0, err
	}

	if isCoinstake {
		return 0, nil
	}

	totalOut, err := v.checkTransactionOutputAmounts(tx, totalIn)
	if err != nil {
		return 0, err
	}

	return totalIn - totalOut, nil
}

// ValidateTransactionScripts runs the signature script of every input of
// tx against the output it spends
func (v *transactionValidator) ValidateTransactionScripts(tx *externalapi.DomainTransaction,
	utxoView model.UTXOView) error {

	if transactionhelper.IsCoinBase(tx) {
		return nil
	}

	entries, err := v.resolveEntries(tx, utxoView)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		err := txscript.VerifyInputScript(tx, i, entry.ScriptPublicKey())
		if err != nil {
			return errors.Wrapf(ruleerrors.ErrScriptValidation, "failed to validate input %d of "+
				"transaction %s: %s", i, consensushashing.TransactionID(tx), err)
		}
	}
	return nil
}

func (v *transactionValidator) resolveEntries(tx *externalapi.DomainTransaction,
	utxoView model.UTXOView) ([]externalapi.UTXOEntry, error) {

	entries := make([]externalapi.UTXOEntry, len(tx.Inputs))
	var missingOutpoints []*externalapi.DomainOutpoint
	for i, input := range tx.Inputs {
		entry, ok := utxoView.Get(&input.PreviousOutpoint)
		if !ok {
			outpoint := input.PreviousOutpoint
			missingOutpoints = append(missingOutpoints, &outpoint)
			continue
		}
		entries[i] = entry
	}
	if len(missingOutpoints) > 0 {
		return nil, ruleerrors.NewErrMissingTxOut(missingOutpoints)
	}
	return entries, nil
}

func (v *transactionValidator) checkTransactionCoinbaseMaturity(tx *externalapi.DomainTransaction,
	entries []externalapi.UTXOEntry, povHeight uint64) error {

	for i, entry := range entries {
		if !entry.IsCoinbase() && !entry.IsCoinstake() {
			continue
		}
		originHeight := entry.BlockHeight()
		if originHeight+v.blockCoinbaseMaturity > povHeight {
			return errors.Wrapf(ruleerrors.ErrImmatureSpend, "tried to spend minted "+
				"transaction output %s from height %d "+
				"at height %d before required maturity "+
				"of %d", tx.Inputs[i].PreviousOutpoint,
				originHeight, povHeight, v.blockCoinbaseMaturity)
		}
	}
	return nil
}

func (v *transactionValidator) checkTransactionInputAmounts(entries []externalapi.UTXOEntry) (totalIn uint64, err error) {
	for _, entry := range entries {
		totalIn, err = v.checkEntryAmounts(entry, totalIn)
		if err != nil {
			return 0, err
		}
	}
	return totalIn, nil
}

func (v *transactionValidator) checkEntryAmounts(entry externalapi.UTXOEntry, totalInBefore uint64) (totalInAfter uint64, err error) {
	// The total of all outputs must not be more than the max
	// allowed per transaction. Also, we could potentially overflow
	// the accumulator so check for overflow.
	originAmount := entry.Amount()
	totalInAfter = totalInBefore + originAmount
	if totalInAfter < totalInBefore ||
		totalInAfter > constants.MaxAmount {
		return 0, errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
			"inputs is %d which is higher than max "+
			"allowed value of %d", totalInBefore,
			constants.MaxAmount)
	}
	return totalInAfter, nil
}

func (v *transactionValidator) checkTransactionOutputAmounts(tx *externalapi.DomainTransaction, totalIn uint64) (uint64, error) {
	totalOut := uint64(0)
	// Calculate the total output amount for this transaction. It is safe
	// to ignore overflow and out of range errors here because those error
	// conditions would have already been caught by checkTransactionAmountRanges.
	for _, output := range tx.Outputs {
		totalOut += output.Value
	}

	// Ensure the transaction does not spend more than its inputs.
	if totalIn < totalOut {
		return 0, errors.Wrapf(ruleerrors.ErrSpendTooHigh, "total value of all transaction inputs for "+
			"the transaction is %d which is less than the amount "+
			"spent of %d", totalIn, totalOut)
	}
	return totalOut, nil
}
