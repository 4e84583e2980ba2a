package transactionvalidator

import (
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/constants"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
)

// ValidateTransactionInIsolation validates the parts of a transaction that
// do not depend on the UTXO set or any other consensus state
func (v *transactionValidator) ValidateTransactionInIsolation(tx *externalapi.DomainTransaction) error {
	err := v.checkTransactionInputCount(tx)
	if err != nil {
		return err
	}

	err = v.checkTransactionOutputCount(tx)
	if err != nil {
		return err
	}

	err = v.checkTransactionSize(tx)
	if err != nil {
		return err
	}

	err = v.checkTransactionAmountRanges(tx)
	if err != nil {
		return err
	}

	err = v.checkDuplicateTransactionInputs(tx)
	if err != nil {
		return err
	}

	err = v.checkCoinbaseLength(tx)
	if err != nil {
		return err
	}

	err = v.checkTransactionInputsNotNull(tx)
	if err != nil {
		return err
	}

	err = v.checkScriptSizes(tx)
	if err != nil {
		return err
	}

	return nil
}

func (v *transactionValidator) checkTransactionInputCount(tx *externalapi.DomainTransaction) error {
	if len(tx.Inputs) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTxInputs, "transaction has no inputs")
	}
	return nil
}

func (v *transactionValidator) checkTransactionOutputCount(tx *externalapi.DomainTransaction) error {
	if len(tx.Outputs) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTxOutputs, "transaction has no outputs")
	}
	return nil
}

func (v *transactionValidator) checkTransactionSize(tx *externalapi.DomainTransaction) error {
	size := uint64(serialization.TransactionSerializeSize(tx))
	if size > v.maxTxSize {
		return errors.Wrapf(ruleerrors.ErrTxTooBig, "serialized transaction is too big - got "+
			"%d, max %d", size, v.maxTxSize)
	}
	return nil
}

func (v *transactionValidator) checkTransactionAmountRanges(tx *externalapi.DomainTransaction) error {
	// Ensure the transaction amounts are in range. Each transaction
	// output must not be more than the max allowed per transaction.
	// Also, the total of all outputs must abide by the same
	// restrictions.
	var totalOut uint64
	for _, txOut := range tx.Outputs {
		amount := txOut.Value
		if amount > constants.MaxAmount {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "transaction output value of %d is "+
				"higher than max allowed value of %d", amount, constants.MaxAmount)
		}

		// Binary arithmetic guarantees that any overflow is detected and reported.
		newTotalOut := totalOut + amount
		if newTotalOut < totalOut {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
				"outputs exceeds max allowed value of %d", constants.MaxAmount)
		}
		totalOut = newTotalOut
		if totalOut > constants.MaxAmount {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all "+
				"transaction outputs is %d which is higher than max "+
				"allowed value of %d", totalOut, constants.MaxAmount)
		}
	}

	return nil
}

func (v *transactionValidator) checkDuplicateTransactionInputs(tx *externalapi.DomainTransaction) error {
	existingTxOut := make(map[externalapi.DomainOutpoint]struct{})
	for _, txIn := range tx.Inputs {
		if _, exists := existingTxOut[txIn.PreviousOutpoint]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTxInputs, "transaction "+
				"contains duplicate inputs")
		}
		existingTxOut[txIn.PreviousOutpoint] = struct{}{}
	}
	return nil
}

func (v *transactionValidator) checkCoinbaseLength(tx *externalapi.DomainTransaction) error {
	if !transactionhelper.IsCoinBase(tx) {
		return nil
	}

	// Coinbase signature script length must be set to the appropriate range.
	signatureScriptLen := len(tx.Inputs[0].SignatureScript)
	if signatureScriptLen < constants.MinCoinbaseScriptLen || signatureScriptLen > constants.MaxCoinbaseScriptLen {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "coinbase transaction script "+
			"length of %d is out of range (min: %d, max: %d)",
			signatureScriptLen, constants.MinCoinbaseScriptLen, constants.MaxCoinbaseScriptLen)
	}
	return nil
}

func (v *transactionValidator) checkTransactionInputsNotNull(tx *externalapi.DomainTransaction) error {
	if transactionhelper.IsCoinBase(tx) {
		return nil
	}

	coinbaseOutpoint := transactionhelper.CoinbaseOutpoint()
	for i, input := range tx.Inputs {
		if input.PreviousOutpoint == coinbaseOutpoint {
			return errors.Wrapf(ruleerrors.ErrBadTxInput, "input %d of a non-coinbase transaction "+
				"references the null outpoint", i)
		}
	}
	return nil
}

func (v *transactionValidator) checkScriptSizes(tx *externalapi.DomainTransaction) error {
	for i, input := range tx.Inputs {
		if len(input.SignatureScript) > txscript.MaxScriptSize {
			return errors.Wrapf(ruleerrors.ErrScriptMalformed, "signature script of input %d is "+
				"%d bytes long, max %d", i, len(input.SignatureScript), txscript.MaxScriptSize)
		}
	}
	for i, output := range tx.Outputs {
		if len(output.ScriptPublicKey) > txscript.MaxScriptSize {
			return errors.Wrapf(ruleerrors.ErrScriptMalformed, "script public key of output %d is "+
				"%d bytes long, max %d", i, len(output.ScriptPublicKey), txscript.MaxScriptSize)
		}
	}
	return nil
}
