// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import "github.com/pkg/errors"

// ScriptClass is an enumeration for the list of standard types of script.
type ScriptClass byte

// Classes of script payment known about in the blockchain.
const (
	NonStandardTy ScriptClass = iota // None of the recognized forms.
	TrueTy                           // Anyone can spend.
	PubKeyTy                         // Pay to pubkey.
	NullDataTy                       // Empty data-only (provably prunable).
)

// scriptClassToName houses the human-readable strings which describe each
// script class.
var scriptClassToName = []string{
	NonStandardTy: "nonstandard",
	TrueTy:        "true",
	PubKeyTy:      "pubkey",
	NullDataTy:    "nulldata",
}

// String implements the Stringer interface by returning the name of
// the enum script class. If the enum is invalid then "Invalid" will be
// returned.
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

// compressedPubKeyLength is the length of a compressed secp256k1 public key
const compressedPubKeyLength = 33

// isPubKey returns true if the script passed is a pay-to-pubkey
// transaction, false otherwise.
func isPubKey(pops []parsedOpcode) bool {
	return len(pops) == 2 &&
		pops[0].value == OpData33 && len(pops[0].data) == compressedPubKeyLength &&
		pops[1].value == OpCheckSig
}

// isTrue returns true if the script is the anyone-can-spend OP_TRUE script
func isTrue(pops []parsedOpcode) bool {
	return len(pops) == 1 && pops[0].value == OpTrue
}

// isNullData returns true if the passed script is a null data transaction,
// false otherwise.
func isNullData(pops []parsedOpcode) bool {
	// A nulldata transaction is either a single OP_RETURN or an
	// OP_RETURN followed by a single data push.
	l := len(pops)
	if l == 1 && pops[0].value == OpReturn {
		return true
	}

	return l == 2 &&
		pops[0].value == OpReturn &&
		(pops[1].value <= OpPushData4)
}

// typeOfScript returns the type of the script being inspected from the known
// standard types.
func typeOfScript(pops []parsedOpcode) ScriptClass {
	switch {
	case isPubKey(pops):
		return PubKeyTy
	case isTrue(pops):
		return TrueTy
	case isNullData(pops):
		return NullDataTy
	}
	return NonStandardTy
}

// GetScriptClass returns the class of the script passed.
//
// NonStandardTy will be returned when the script does not parse.
func GetScriptClass(script []byte) ScriptClass {
	pops, err := parseScript(script)
	if err != nil {
		return NonStandardTy
	}
	return typeOfScript(pops)
}

// NullDataPayload returns the data pushed by a null data script, or nil if
// the script is not a null data script
func NullDataPayload(script []byte) []byte {
	pops, err := parseScript(script)
	if err != nil || !isNullData(pops) || len(pops) < 2 {
		return nil
	}
	return pops[1].data
}

// PayToPubKeyScript creates a new script to pay a transaction output to the
// given compressed public key.
func PayToPubKeyScript(serializedPubKey []byte) ([]byte, error) {
	if len(serializedPubKey) != compressedPubKeyLength {
		return nil, errors.Errorf("public key must be %d bytes, got %d",
			compressedPubKeyLength, len(serializedPubKey))
	}
	return NewScriptBuilder().AddData(serializedPubKey).AddOp(OpCheckSig).Script()
}

// NullDataScript creates a provably-prunable script containing OP_RETURN
// followed by the passed data.
func NullDataScript(data []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OpReturn).AddData(data).Script()
}

// PayToTrueScript returns the anyone-can-spend OP_TRUE script
func PayToTrueScript() []byte {
	return []byte{OpTrue}
}
