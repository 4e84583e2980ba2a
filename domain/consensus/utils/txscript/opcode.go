// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// These constants are the values of the opcodes the script engine knows
// about. Anything else is treated as an unknown opcode.
const (
	Op0                   = 0x00 // 0
	OpFalse               = 0x00 // 0 - AKA Op0
	OpData1               = 0x01 // 1
	OpData33              = 0x21 // 33
	OpData75              = 0x4b // 75
	OpPushData1           = 0x4c // 76
	OpPushData2           = 0x4d // 77
	OpPushData4           = 0x4e // 78
	Op1Negate             = 0x4f // 79
	OpTrue                = 0x51 // 81 - AKA Op1
	Op16                  = 0x60 // 96
	OpReturn              = 0x6a // 106
	OpCheckSig            = 0xac // 172
	OpCheckSigVerify      = 0xad // 173
	OpCheckMultiSig       = 0xae // 174
	OpCheckMultiSigVerify = 0xaf // 175
)

// MaxPubKeysPerMultiSig is the maximum number of public keys a multisig
// script may require. Signature operation counting charges this many for
// every multisig opcode.
const MaxPubKeysPerMultiSig = 20

// parsedOpcode represents an opcode that has been parsed and includes any
// potential data associated with it.
type parsedOpcode struct {
	value byte
	data  []byte
}

// isPush returns whether the opcode pushes data (or a small integer) to
// the stack.
func (pop *parsedOpcode) isPush() bool {
	return pop.value <= Op16 && pop.value != 0x50
}

// isCheckSig returns whether the opcode is a single signature check
func (pop *parsedOpcode) isCheckSig() bool {
	return pop.value == OpCheckSig || pop.value == OpCheckSigVerify
}

// isCheckMultiSig returns whether the opcode is a multi signature check
func (pop *parsedOpcode) isCheckMultiSig() bool {
	return pop.value == OpCheckMultiSig || pop.value == OpCheckMultiSigVerify
}
