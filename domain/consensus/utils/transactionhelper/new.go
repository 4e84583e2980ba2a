package transactionhelper

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/constants"
)

// CoinbaseOutpoint returns the null outpoint spent by coinbase transactions
func CoinbaseOutpoint() externalapi.DomainOutpoint {
	return externalapi.DomainOutpoint{
		TransactionID: externalapi.DomainTransactionID{},
		Index:         constants.CoinbaseOutpointIndex,
	}
}

// IsCoinBase determines whether or not a transaction is a coinbase transaction. A coinbase
// transaction is a special transaction created by miners that distributes fees and block subsidy
// to the previous blocks' miners, and has a single input spending the null outpoint.
func IsCoinBase(tx *externalapi.DomainTransaction) bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PreviousOutpoint == CoinbaseOutpoint()
}

// IsCoinStake determines whether or not a transaction has the coinstake
// layout: it spends real outputs and its first output is empty.
func IsCoinStake(tx *externalapi.DomainTransaction) bool {
	if len(tx.Inputs) == 0 || IsCoinBase(tx) || len(tx.Outputs) < 2 {
		return false
	}
	first := tx.Outputs[0]
	return first.Value == 0 && len(first.ScriptPublicKey) == 0
}

// CoinbaseSignatureScript returns a coinbase signature script committing to
// height followed by extraData
func CoinbaseSignatureScript(height uint64, extraData []byte) []byte {
	script := make([]byte, constants.CoinbaseHeightCommitmentLength, constants.CoinbaseHeightCommitmentLength+len(extraData))
	binary.LittleEndian.PutUint64(script, height)
	return append(script, extraData...)
}

// CoinbaseHeight extracts the height a coinbase signature script commits to
func CoinbaseHeight(signatureScript []byte) (uint64, error) {
	if len(signatureScript) < constants.CoinbaseHeightCommitmentLength {
		return 0, errors.Errorf("coinbase signature script of length %d is too short to "+
			"commit to a height", len(signatureScript))
	}
	return binary.LittleEndian.Uint64(signatureScript[:constants.CoinbaseHeightCommitmentLength]), nil
}

// NewCoinbaseTransaction returns a coinbase transaction for the given height
// paying value to scriptPublicKey
func NewCoinbaseTransaction(height uint64, extraData []byte, scriptPublicKey []byte,
	value uint64) *externalapi.DomainTransaction {

	return &externalapi.DomainTransaction{
		Version: constants.TransactionVersion,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: CoinbaseOutpoint(),
			SignatureScript:  CoinbaseSignatureScript(height, extraData),
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{
			Value:           value,
			ScriptPublicKey: scriptPublicKey,
		}},
		LockTime: 0,
	}
}

// NewNativeTransaction returns a new transaction with the current version
func NewNativeTransaction(inputs []*externalapi.DomainTransactionInput,
	outputs []*externalapi.DomainTransactionOutput) *externalapi.DomainTransaction {

	return &externalapi.DomainTransaction{
		Version:  constants.TransactionVersion,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: 0,
	}
}

// NewCoinstakeTransaction returns a coinstake spending stakeOutpoint and
// paying value to scriptPublicKey. The empty first output marks it as a
// coinstake.
func NewCoinstakeTransaction(stakeOutpoint externalapi.DomainOutpoint, scriptPublicKey []byte,
	value uint64) *externalapi.DomainTransaction {

	return NewNativeTransaction(
		[]*externalapi.DomainTransactionInput{{
			PreviousOutpoint: stakeOutpoint,
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		[]*externalapi.DomainTransactionOutput{
			{Value: 0, ScriptPublicKey: nil},
			{Value: value, ScriptPublicKey: scriptPublicKey},
		})
}
