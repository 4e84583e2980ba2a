// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"bytes"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
	"github.com/tetranet/tetrad/domain/consensus/utils/constants"
	"github.com/tetranet/tetrad/domain/consensus/utils/serialization"
	"github.com/tetranet/tetrad/domain/consensus/utils/transactionhelper"
	"github.com/tetranet/tetrad/domain/consensus/utils/txscript"
)

func newTestPolicy(t *testing.T, config *Config) *Policy {
	policy, err := New(config)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}
	return policy
}

func payToTrue(value uint64) *externalapi.DomainTransactionOutput {
	return &externalapi.DomainTransactionOutput{Value: value, ScriptPublicKey: txscript.PayToTrueScript()}
}

func nullData(t *testing.T, payload []byte) *externalapi.DomainTransactionOutput {
	script, err := txscript.NullDataScript(payload)
	if err != nil {
		t.Fatalf("NullDataScript: %+v", err)
	}
	return &externalapi.DomainTransactionOutput{Value: 0, ScriptPublicKey: script}
}

func transactionWithOutputs(signatureScript []byte,
	outputs ...*externalapi.DomainTransactionOutput) *externalapi.DomainTransaction {

	previousID := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0x11})
	return transactionhelper.NewNativeTransaction(
		[]*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: *previousID, Index: 0},
			SignatureScript:  signatureScript,
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		outputs)
}

func pushScript(t *testing.T, data []byte) []byte {
	script, err := txscript.NewScriptBuilder().AddData(data).Script()
	if err != nil {
		t.Fatalf("Script: %+v", err)
	}
	return script
}

// TestCalcMinRequiredTxRelayFee tests the calcMinRequiredTxRelayFee API.
func TestCalcMinRequiredTxRelayFee(t *testing.T) {
	tests := []struct {
		name     string // test description.
		size     uint64 // Transaction size in bytes.
		relayFee uint64 // minimum relay transaction fee.
		want     uint64 // Expected fee.
	}{
		{
			// Ensure combination of size and fee that are less than 1000
			// produce a non-zero fee.
			"250 bytes with relay fee of 3",
			250,
			3,
			3,
		},
		{
			"100 bytes with default minimum relay fee",
			100,
			DefaultMinRelayTxFee,
			100,
		},
		{
			"max standard tx size with default minimum relay fee",
			DefaultMaxStandardTxSize,
			DefaultMinRelayTxFee,
			100000,
		},
		{
			"max standard tx size with max relay fee",
			DefaultMaxStandardTxSize,
			constants.MaxAmount,
			constants.MaxAmount,
		},
		{
			"1500 bytes with 5000 relay fee",
			1500,
			5000,
			7500,
		},
		{
			"782 bytes with 2550 relay fee",
			782,
			2550,
			1994,
		},
		{
			"zero relay fee",
			782,
			0,
			0,
		},
	}

	for _, test := range tests {
		got := calcMinRequiredTxRelayFee(test.size, test.relayFee)
		if got != test.want {
			t.Errorf("TestCalcMinRequiredTxRelayFee test '%s' "+
				"failed: got %v want %v", test.name, got,
				test.want)
		}
	}
}

func TestCheckTransactionStandard(t *testing.T) {
	smallConfig := DefaultConfig()
	smallConfig.MaxStandardTxSize = 60

	nonStandardConfig := DefaultConfig()
	nonStandardConfig.AcceptNonStandard = true

	nonStandardOutput := &externalapi.DomainTransactionOutput{
		Value:           DefaultDustThreshold,
		ScriptPublicKey: []byte{txscript.OpCheckSig},
	}

	tests := []struct {
		name        string
		config      *Config
		transaction *externalapi.DomainTransaction
		expectedErr error
	}{
		{
			name:        "standard payment",
			config:      DefaultConfig(),
			transaction: transactionWithOutputs(nil, payToTrue(DefaultDustThreshold)),
			expectedErr: nil,
		},
		{
			name:        "dust output",
			config:      DefaultConfig(),
			transaction: transactionWithOutputs(nil, payToTrue(DefaultDustThreshold-1)),
			expectedErr: ErrDust,
		},
		{
			name:   "OP_RETURN at the size limit",
			config: DefaultConfig(),
			transaction: transactionWithOutputs(nil, payToTrue(DefaultDustThreshold),
				nullData(t, bytes.Repeat([]byte{0xaa}, DefaultMaxOpReturnData))),
			expectedErr: nil,
		},
		{
			name:   "OP_RETURN above the size limit",
			config: DefaultConfig(),
			transaction: transactionWithOutputs(nil, payToTrue(DefaultDustThreshold),
				nullData(t, bytes.Repeat([]byte{0xaa}, DefaultMaxOpReturnData+1))),
			expectedErr: ErrOpReturnTooLarge,
		},
		{
			name:   "two OP_RETURNs",
			config: DefaultConfig(),
			transaction: transactionWithOutputs(nil, nullData(t, []byte{1}),
				nullData(t, []byte{2})),
			expectedErr: ErrMultipleOpReturns,
		},
		{
			name:        "non-standard output",
			config:      DefaultConfig(),
			transaction: transactionWithOutputs(nil, nonStandardOutput),
			expectedErr: ErrNonStandard,
		},
		{
			name:        "non-standard output with AcceptNonStandard",
			config:      nonStandardConfig,
			transaction: transactionWithOutputs(nil, nonStandardOutput),
			expectedErr: nil,
		},
		{
			name:        "signature script that is not push only",
			config:      DefaultConfig(),
			transaction: transactionWithOutputs([]byte{txscript.OpCheckSig}, payToTrue(DefaultDustThreshold)),
			expectedErr: ErrNonStandard,
		},
		{
			name:        "too large",
			config:      smallConfig,
			transaction: transactionWithOutputs(make([]byte, 20), payToTrue(DefaultDustThreshold)),
			expectedErr: ErrTxTooLarge,
		},
	}

	for _, test := range tests {
		policy := newTestPolicy(t, test.config)
		err := policy.CheckTransactionStandard(test.transaction)
		if test.expectedErr == nil {
			if err != nil {
				t.Errorf("TestCheckTransactionStandard (%s): unexpected error: %+v", test.name, err)
			}
			continue
		}
		if !errors.Is(err, test.expectedErr) {
			t.Errorf("TestCheckTransactionStandard (%s): expected %s, got %v", test.name, test.expectedErr, err)
		}
	}
}

func TestHoneytrapSignatures(t *testing.T) {
	privateKey, publicKey := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x42}, 32))
	lockingScript, err := txscript.PayToPubKeyScript(publicKey.SerializeCompressed())
	if err != nil {
		t.Fatalf("PayToPubKeyScript: %+v", err)
	}

	signedTransaction := transactionWithOutputs(nil, payToTrue(DefaultDustThreshold))
	signature, err := txscript.RawTxInSignature(signedTransaction, 0, lockingScript,
		consensushashing.SigHashAll, privateKey)
	if err != nil {
		t.Fatalf("RawTxInSignature: %+v", err)
	}
	signedTransaction.Inputs[0].SignatureScript = pushScript(t, signature)

	blacklistConfig := DefaultConfig()
	blacklistConfig.HoneytrapSignatureHashes = [][sha256.Size]byte{sha256.Sum256(signature)}

	tests := []struct {
		name            string
		config          *Config
		signature       []byte
		expectHoneytrap bool
	}{
		{
			name:            "genuine signature",
			config:          DefaultConfig(),
			signature:       signature,
			expectHoneytrap: false,
		},
		{
			name:            "blacklisted signature",
			config:          blacklistConfig,
			signature:       signature,
			expectHoneytrap: true,
		},
		{
			name:            "R equals S",
			config:          DefaultConfig(),
			signature:       []byte{0x30, 0x06, 0x02, 0x01, 0x05, 0x02, 0x01, 0x05, 0x01},
			expectHoneytrap: true,
		},
		{
			name:            "R is one",
			config:          DefaultConfig(),
			signature:       []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x05, 0x01},
			expectHoneytrap: true,
		},
		{
			name:            "bad sequence length",
			config:          DefaultConfig(),
			signature:       []byte{0x30, 0x07, 0x02, 0x01, 0x05, 0x02, 0x01, 0x06, 0x01},
			expectHoneytrap: true,
		},
		{
			name:            "non-minimal R encoding",
			config:          DefaultConfig(),
			signature:       []byte{0x30, 0x07, 0x02, 0x02, 0x00, 0x05, 0x02, 0x01, 0x06, 0x01},
			expectHoneytrap: true,
		},
	}

	for _, test := range tests {
		policy := newTestPolicy(t, test.config)
		transaction := signedTransaction.Clone()
		transaction.Inputs[0].SignatureScript = pushScript(t, test.signature)

		err := policy.CheckTransactionStandard(transaction)
		isHoneytrap := errors.Is(err, ErrHoneytrapSignature)
		if isHoneytrap != test.expectHoneytrap {
			t.Errorf("TestHoneytrapSignatures (%s): expected honeytrap %t, got error %v",
				test.name, test.expectHoneytrap, err)
		}
		if !test.expectHoneytrap && err != nil {
			t.Errorf("TestHoneytrapSignatures (%s): unexpected error: %+v", test.name, err)
		}
	}

	// Public keys and other pushes are not mistaken for signatures
	policy := newTestPolicy(t, DefaultConfig())
	transaction := signedTransaction.Clone()
	transaction.Inputs[0].SignatureScript = pushScript(t, publicKey.SerializeCompressed())
	err = policy.CheckTransactionStandard(transaction)
	if err != nil {
		t.Errorf("TestHoneytrapSignatures: a public key push was rejected: %+v", err)
	}
}

func TestCheckTransactionFee(t *testing.T) {
	policy := newTestPolicy(t, DefaultConfig())
	transaction := transactionWithOutputs(nil, payToTrue(DefaultDustThreshold))

	minimumFee := policy.MinimumRelayFee(uint64(serialization.TransactionSerializeSize(transaction)))
	err := policy.CheckTransactionFee(transaction, minimumFee)
	if err != nil {
		t.Fatalf("TestCheckTransactionFee: the minimum fee was rejected: %+v", err)
	}
	err = policy.CheckTransactionFee(transaction, minimumFee-1)
	if !errors.Is(err, ErrInsufficientFee) {
		t.Fatalf("TestCheckTransactionFee: expected ErrInsufficientFee, got %v", err)
	}
	code, ok := ExtractRejectCode(err)
	if !ok || code != RejectInsufficientFee {
		t.Fatalf("TestCheckTransactionFee: unexpected reject code %s", code)
	}
}

func TestCheckBlockStandard(t *testing.T) {
	config := DefaultConfig()
	config.MaxOpReturnPerBlock = 2
	policy := newTestPolicy(t, config)

	coinbase := transactionhelper.NewCoinbaseTransaction(1, nil, txscript.PayToTrueScript(), 1)
	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{Version: constants.BlockVersion},
		Transactions: []*externalapi.DomainTransaction{
			coinbase,
			transactionWithOutputs(nil, nullData(t, []byte{1})),
			transactionWithOutputs(nil, nullData(t, []byte{2})),
		},
	}
	err := policy.CheckBlockStandard(block)
	if err != nil {
		t.Fatalf("TestCheckBlockStandard: unexpected error: %+v", err)
	}

	block.Transactions = append(block.Transactions, transactionWithOutputs(nil, nullData(t, []byte{3})))
	err = policy.CheckBlockStandard(block)
	if !errors.Is(err, ErrTooManyOpReturnsInBlock) {
		t.Fatalf("TestCheckBlockStandard: expected ErrTooManyOpReturnsInBlock, got %v", err)
	}
}

func TestRecentRejects(t *testing.T) {
	config := DefaultConfig()
	config.RecentRejectsCapacity = 2
	policy := newTestPolicy(t, config)

	ids := make([]*externalapi.DomainTransactionID, 5)
	for i := range ids {
		ids[i] = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{byte(i + 1)})
	}

	policy.AddRecentReject(ids[0])
	if !policy.IsRecentlyRejected(ids[0]) {
		t.Fatalf("TestRecentRejects: a rejected transaction is not remembered")
	}
	if policy.IsRecentlyRejected(ids[1]) {
		t.Fatalf("TestRecentRejects: an unknown transaction is reported as rejected")
	}

	// Two generations of two entries each are kept
	for _, id := range ids[1:] {
		policy.AddRecentReject(id)
	}
	if policy.IsRecentlyRejected(ids[0]) {
		t.Fatalf("TestRecentRejects: the oldest reject was not rolled out")
	}
	for _, id := range ids[2:] {
		if !policy.IsRecentlyRejected(id) {
			t.Fatalf("TestRecentRejects: reject %s was forgotten too early", id)
		}
	}

	policy.ResetRecentRejects()
	for _, id := range ids {
		if policy.IsRecentlyRejected(id) {
			t.Fatalf("TestRecentRejects: reject %s survived a reset", id)
		}
	}
}

func TestPeerLimiters(t *testing.T) {
	limiters, err := newPeerLimiters(1, 3, 2)
	if err != nil {
		t.Fatalf("newPeerLimiters: %+v", err)
	}

	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 3; i++ {
		if !limiters.allow("peer-a", now) {
			t.Fatalf("TestPeerLimiters: message %d within the burst was denied", i)
		}
	}
	if limiters.allow("peer-a", now) {
		t.Fatalf("TestPeerLimiters: a message beyond the burst was allowed")
	}
	if !limiters.allow("peer-b", now) {
		t.Fatalf("TestPeerLimiters: peers do not have their own buckets")
	}
	if !limiters.allow("peer-a", now.Add(time.Second)) {
		t.Fatalf("TestPeerLimiters: the bucket was not refilled")
	}

	limiters.allow("peer-c", now)
	if limiters.len() != 2 {
		t.Fatalf("TestPeerLimiters: expected 2 cached limiters, got %d", limiters.len())
	}

	_, err = newPeerLimiters(1, 0, 2)
	if err == nil {
		t.Fatalf("TestPeerLimiters: a zero burst was accepted")
	}
}
