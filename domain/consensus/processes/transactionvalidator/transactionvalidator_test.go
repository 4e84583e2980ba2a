package transactionvalidator

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/chainconfig"
	"github.com/tetranet/tetrad/domain/consensus/model"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/ruleerrors"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/constants"
	"github.com/tetranet/tetrad/domain/consensus/utils/testutils"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
	"github.com/tetranet/tetrad/domain/consensus/utils/utxo"
)

const maturity = 10

func newTestTransactionValidator() model.TransactionValidator {
	return New(chainconfig.MainnetParams.MaxTxSize, maturity)
}

func spendingTransaction(outpoint externalapi.DomainOutpoint, value uint64) *externalapi.DomainTransaction {
	return transactionhelper.NewNativeTransaction(
		[]*externalapi.DomainTransactionInput{{
			PreviousOutpoint: outpoint,
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		[]*externalapi.DomainTransactionOutput{{
			Value:           value,
			ScriptPublicKey: testutils.OpTrueScript(),
		}})
}

func TestValidateTransactionInIsolation(t *testing.T) {
	tv := newTestTransactionValidator()
	outpoint := externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{}, Index: 0}
	outpoint.TransactionID = *consensushashing.TransactionID(
		transactionhelper.NewCoinbaseTransaction(1, nil, testutils.OpTrueScript(), 1))

	tests := []struct {
		name        string
		modify      func(tx *externalapi.DomainTransaction)
		expectedErr error
	}{
		{"valid", func(tx *externalapi.DomainTransaction) {}, nil},
		{"no inputs", func(tx *externalapi.DomainTransaction) { tx.Inputs = nil }, ruleerrors.ErrNoTxInputs},
		{"no outputs", func(tx *externalapi.DomainTransaction) { tx.Outputs = nil }, ruleerrors.ErrNoTxOutputs},
		{"too big", func(tx *externalapi.DomainTransaction) {
			tx.Outputs[0].ScriptPublicKey = bytes.Repeat([]byte{txscript.OpTrue}, 100_001)
		}, ruleerrors.ErrTxTooBig},
		{"output above the max", func(tx *externalapi.DomainTransaction) {
			tx.Outputs[0].Value = constants.MaxAmount + 1
		}, ruleerrors.ErrBadTxOutValue},
		{"outputs total above the max", func(tx *externalapi.DomainTransaction) {
			tx.Outputs[0].Value = constants.MaxAmount
			tx.Outputs = append(tx.Outputs, tx.Outputs[0].Clone())
		}, ruleerrors.ErrBadTxOutValue},
		{"duplicate inputs", func(tx *externalapi.DomainTransaction) {
			tx.Inputs = append(tx.Inputs, tx.Inputs[0].Clone())
		}, ruleerrors.ErrDuplicateTxInputs},
		{"null outpoint in a regular transaction", func(tx *externalapi.DomainTransaction) {
			tx.Inputs = append(tx.Inputs, &externalapi.DomainTransactionInput{
				PreviousOutpoint: transactionhelper.CoinbaseOutpoint(),
			})
		}, ruleerrors.ErrBadTxInput},
		{"oversized signature script", func(tx *externalapi.DomainTransaction) {
			tx.Inputs[0].SignatureScript = make([]byte, txscript.MaxScriptSize+1)
		}, ruleerrors.ErrScriptMalformed},
	}

	for _, test := range tests {
		tx := spendingTransaction(outpoint, 100)
		test.modify(tx)
		err := tv.ValidateTransactionInIsolation(tx)
		if test.expectedErr == nil {
			if err != nil {
				t.Errorf("TestValidateTransactionInIsolation: %s: unexpected error: %+v", test.name, err)
			}
			continue
		}
		if !errors.Is(err, test.expectedErr) {
			t.Errorf("TestValidateTransactionInIsolation: %s: expected %s, got %+v", test.name, test.expectedErr, err)
		}
	}
}

func TestCoinbaseScriptLength(t *testing.T) {
	tv := newTestTransactionValidator()

	coinbase := transactionhelper.NewCoinbaseTransaction(1, nil, testutils.OpTrueScript(), 1)
	err := tv.ValidateTransactionInIsolation(coinbase)
	if err != nil {
		t.Fatalf("TestCoinbaseScriptLength: unexpected error: %+v", err)
	}

	coinbase.Inputs[0].SignatureScript = coinbase.Inputs[0].SignatureScript[:1]
	err = tv.ValidateTransactionInIsolation(coinbase)
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseTransaction) {
		t.Fatalf("TestCoinbaseScriptLength: expected ErrBadCoinbaseTransaction, got %+v", err)
	}

	coinbase.Inputs[0].SignatureScript = make([]byte, constants.MaxCoinbaseScriptLen+1)
	err = tv.ValidateTransactionInIsolation(coinbase)
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseTransaction) {
		t.Fatalf("TestCoinbaseScriptLength: expected ErrBadCoinbaseTransaction, got %+v", err)
	}
}

// utxoSetWith returns a UTXO set holding the outputs of tx as if it was
// mined at the given height
func utxoSetWith(t *testing.T, tx *externalapi.DomainTransaction, height uint64) *utxo.Set {
	set := utxo.NewSet()
	diff := utxo.NewDiff()
	err := diff.AddTransaction(set, tx, height, 1_700_000_000)
	if err != nil {
		t.Fatalf("AddTransaction: %+v", err)
	}
	err = set.ApplyDiff(diff)
	if err != nil {
		t.Fatalf("ApplyDiff: %+v", err)
	}
	return set
}

func TestValidateTransactionInContext(t *testing.T) {
	tv := newTestTransactionValidator()
	coinbase := transactionhelper.NewCoinbaseTransaction(5, nil, testutils.OpTrueScript(), 1000)
	set := utxoSetWith(t, coinbase, 5)
	outpoint := externalapi.DomainOutpoint{TransactionID: *consensushashing.TransactionID(coinbase), Index: 0}

	fee, err := tv.ValidateTransactionInContext(spendingTransaction(outpoint, 900), set, 5+maturity, false)
	if err != nil {
		t.Fatalf("TestValidateTransactionInContext: unexpected error: %+v", err)
	}
	if fee != 100 {
		t.Fatalf("TestValidateTransactionInContext: expected a fee of 100, got %d", fee)
	}

	_, err = tv.ValidateTransactionInContext(spendingTransaction(outpoint, 900), set, 5+maturity-1, false)
	if !errors.Is(err, ruleerrors.ErrImmatureSpend) {
		t.Fatalf("TestValidateTransactionInContext: expected ErrImmatureSpend, got %+v", err)
	}

	_, err = tv.ValidateTransactionInContext(spendingTransaction(outpoint, 1001), set, 5+maturity, false)
	if !errors.Is(err, ruleerrors.ErrSpendTooHigh) {
		t.Fatalf("TestValidateTransactionInContext: expected ErrSpendTooHigh, got %+v", err)
	}

	// A coinstake may pay out more than it spends
	fee, err = tv.ValidateTransactionInContext(spendingTransaction(outpoint, 1001), set, 5+maturity, true)
	if err != nil || fee != 0 {
		t.Fatalf("TestValidateTransactionInContext: unexpected coinstake result: fee %d, err %+v", fee, err)
	}

	missing := outpoint
	missing.Index = 1
	_, err = tv.ValidateTransactionInContext(spendingTransaction(missing, 1), set, 5+maturity, false)
	var missingTxOut ruleerrors.ErrMissingTxOut
	if !errors.As(err, &missingTxOut) || len(missingTxOut.MissingOutpoints) != 1 {
		t.Fatalf("TestValidateTransactionInContext: expected ErrMissingTxOut, got %+v", err)
	}
}

func TestValidateTransactionScripts(t *testing.T) {
	tv := newTestTransactionValidator()
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("TestValidateTransactionScripts: NewPrivateKey: %s", err)
	}
	lockingScript, err := txscript.PayToPubKeyScript(privateKey.PubKey().SerializeCompressed())
	if err != nil {
		t.Fatalf("TestValidateTransactionScripts: PayToPubKeyScript: %s", err)
	}

	coinbase := transactionhelper.NewCoinbaseTransaction(5, nil, lockingScript, 1000)
	set := utxoSetWith(t, coinbase, 5)
	outpoint := externalapi.DomainOutpoint{TransactionID: *consensushashing.TransactionID(coinbase), Index: 0}

	tx := spendingTransaction(outpoint, 900)
	tx.Inputs[0].SignatureScript, err = txscript.SignatureScript(tx, 0, lockingScript, consensushashing.SigHashAll, privateKey)
	if err != nil {
		t.Fatalf("TestValidateTransactionScripts: SignatureScript: %s", err)
	}

	err = tv.ValidateTransactionScripts(tx, set)
	if err != nil {
		t.Fatalf("TestValidateTransactionScripts: unexpected error: %+v", err)
	}

	// Changing an output invalidates the signature
	tx.Outputs[0].Value = 899
	err = tv.ValidateTransactionScripts(tx, set)
	if !errors.Is(err, ruleerrors.ErrScriptValidation) {
		t.Fatalf("TestValidateTransactionScripts: expected ErrScriptValidation, got %+v", err)
	}
}

func TestIsFinalizedTransaction(t *testing.T) {
	tx := spendingTransaction(externalapi.DomainOutpoint{}, 1)
	tx.Inputs[0].Sequence = 0

	tests := []struct {
		name      string
		lockTime  uint64
		height    uint64
		blockTime uint32
		expected  bool
	}{
		{"no lock time", 0, 1, 1, true},
		{"height lock passed", 100, 101, 0, true},
		{"height lock not passed", 100, 100, 0, false},
		{"time lock passed", constants.LockTimeThreshold + 10, 0, constants.LockTimeThreshold + 11, true},
		{"time lock not passed", constants.LockTimeThreshold + 10, 1_000_000, constants.LockTimeThreshold + 10, false},
	}

	for _, test := range tests {
		tx.LockTime = test.lockTime
		result := IsFinalizedTransaction(tx, test.height, test.blockTime)
		if result != test.expected {
			t.Errorf("TestIsFinalizedTransaction: %s: expected %t, got %t", test.name, test.expected, result)
		}
	}

	tx.LockTime = 100
	tx.Inputs[0].Sequence = constants.MaxTxInSequenceNum
	if !IsFinalizedTransaction(tx, 1, 0) {
		t.Errorf("TestIsFinalizedTransaction: maxed out sequences must finalize a transaction")
	}
}
