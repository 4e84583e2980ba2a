// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// MaxScriptSize is the maximum allowed length of a raw script.
const MaxScriptSize = 10000

// ErrMalformedPush is returned when a push opcode claims more data than the
// script holds.
var ErrMalformedPush = errors.New("malformed push")

// parseScript preparses the script in bytes into a list of parsedOpcodes
// while applying a number of sanity checks. On a malformed push the opcodes
// parsed so far are returned along with the error.
func parseScript(script []byte) ([]parsedOpcode, error) {
	if len(script) > MaxScriptSize {
		return nil, errors.Errorf("script size %d is larger than max allowed size %d",
			len(script), MaxScriptSize)
	}

	retScript := make([]parsedOpcode, 0, len(script))
	for i := 0; i < len(script); {
		instr := script[i]
		pop := parsedOpcode{value: instr}
		i++

		var dataLength int
		switch {
		case instr >= OpData1 && instr <= OpData75:
			dataLength = int(instr)

		case instr == OpPushData1:
			if len(script)-i < 1 {
				return retScript, errors.Wrapf(ErrMalformedPush, "OP_PUSHDATA1 at offset %d has no length", i-1)
			}
			dataLength = int(script[i])
			i++

		case instr == OpPushData2:
			if len(script)-i < 2 {
				return retScript, errors.Wrapf(ErrMalformedPush, "OP_PUSHDATA2 at offset %d has no length", i-1)
			}
			dataLength = int(binary.LittleEndian.Uint16(script[i:]))
			i += 2

		case instr == OpPushData4:
			if len(script)-i < 4 {
				return retScript, errors.Wrapf(ErrMalformedPush, "OP_PUSHDATA4 at offset %d has no length", i-1)
			}
			dataLength = int(binary.LittleEndian.Uint32(script[i:]))
			i += 4
		}

		if dataLength > 0 {
			if dataLength > len(script)-i {
				return retScript, errors.Wrapf(ErrMalformedPush, "push of %d bytes at offset %d "+
					"exceeds the script length", dataLength, i)
			}
			pop.data = script[i : i+dataLength]
			i += dataLength
		}
		retScript = append(retScript, pop)
	}

	return retScript, nil
}

// IsPushOnly returns true if the script only pushes data, false otherwise.
// A script that fails to parse is not push only.
func IsPushOnly(script []byte) bool {
	pops, err := parseScript(script)
	if err != nil {
		return false
	}
	for _, pop := range pops {
		if !pop.isPush() {
			return false
		}
	}
	return true
}

// PushedData returns an array of byte slices containing any pushed data found
// in the passed script. This includes OP_0, but not OP_1 - OP_16.
func PushedData(script []byte) ([][]byte, error) {
	pops, err := parseScript(script)
	if err != nil {
		return nil, err
	}

	var data [][]byte
	for _, pop := range pops {
		if pop.data != nil {
			data = append(data, pop.data)
		} else if pop.value == Op0 {
			data = append(data, nil)
		}
	}
	return data, nil
}

// GetSigOpCount provides a quick count of the number of signature operations
// in a script. a CHECKSIG operations counts for 1, and a CHECK_MULTISIG for
// MaxPubKeysPerMultiSig. If the script fails to parse, then the count up to
// the point of failure is returned.
func GetSigOpCount(script []byte) int {
	// Don't check error since parseScript returns the parsed-up-to-error
	// list of pops.
	pops, _ := parseScript(script)

	numSigOps := 0
	for _, pop := range pops {
		switch {
		case pop.isCheckSig():
			numSigOps++
		case pop.isCheckMultiSig():
			numSigOps += MaxPubKeysPerMultiSig
		}
	}
	return numSigOps
}

// IsUnspendable returns whether the passed public key script is unspendable, or
// guaranteed to fail at execution. This allows outputs to be pruned instantly
// when entering the UTXO set.
func IsUnspendable(scriptPublicKey []byte) bool {
	if len(scriptPublicKey) > 0 && scriptPublicKey[0] == OpReturn {
		return true
	}
	_, err := parseScript(scriptPublicKey)
	return err != nil
}
