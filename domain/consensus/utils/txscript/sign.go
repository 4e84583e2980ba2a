// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
	"github.com/tetranet/tetrad/domain/consensus/utils/consensushashing"
)

// RawTxInSignature returns the serialized ECDSA signature for the input idx of
// the given transaction, with hashType appended to it.
func RawTxInSignature(tx *externalapi.DomainTransaction, idx int, lockingScript []byte,
	hashType consensushashing.SigHashType, key *btcec.PrivateKey) ([]byte, error) {

	hash, err := consensushashing.CalculateSignatureHash(tx, idx, lockingScript, hashType)
	if err != nil {
		return nil, err
	}
	signature := ecdsa.Sign(key, hash.ByteSlice())
	return append(signature.Serialize(), byte(hashType)), nil
}

// SignatureScript creates an input signature script for tx to spend coins
// sent from a previous pay-to-pubkey output to the owner of privKey.
// lockingScript is the script of the output being spent.
func SignatureScript(tx *externalapi.DomainTransaction, idx int, lockingScript []byte,
	hashType consensushashing.SigHashType, privKey *btcec.PrivateKey) ([]byte, error) {

	sig, err := RawTxInSignature(tx, idx, lockingScript, hashType, privKey)
	if err != nil {
		return nil, err
	}
	return NewScriptBuilder().AddData(sig).Script()
}
