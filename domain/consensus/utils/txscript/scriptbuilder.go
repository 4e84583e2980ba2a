// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ScriptBuilder provides a facility for building custom scripts. It allows
// you to push opcodes and data while respecting canonical encoding. In
// general it does not ensure the script will execute correctly, however any
// data pushes which would exceed the maximum allowed script engine limits and
// are therefore guaranteed not to execute will not be pushed and will result
// in the Script function returning an error.
type ScriptBuilder struct {
	script []byte
	err    error
}

// NewScriptBuilder returns a new instance of a script builder. See
// ScriptBuilder for details.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{
		script: make([]byte, 0, 64),
	}
}

// AddOp pushes the passed opcode to the end of the script. The script will
// not be modified if pushing the opcode would cause the script to exceed the
// maximum allowed script engine size.
func (b *ScriptBuilder) AddOp(opcode byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}

	if len(b.script)+1 > MaxScriptSize {
		b.err = errors.Errorf("adding an opcode would exceed the maximum "+
			"allowed canonical script length of %d", MaxScriptSize)
		return b
	}

	b.script = append(b.script, opcode)
	return b
}

// AddData pushes the passed data to the end of the script. It automatically
// chooses canonical opcodes depending on the length of the data. A zero length
// buffer will lead to a push of empty data onto the stack (OP_0).
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}

	dataLen := len(data)
	dataSize := canonicalDataSize(dataLen)
	if len(b.script)+dataSize > MaxScriptSize {
		b.err = errors.Errorf("adding %d bytes of data would exceed the "+
			"maximum allowed canonical script length of %d", dataLen, MaxScriptSize)
		return b
	}

	switch {
	case dataLen == 0:
		b.script = append(b.script, Op0)
	case dataLen <= OpData75:
		b.script = append(b.script, byte(OpData1-1+dataLen))
	case dataLen <= 0xff:
		b.script = append(b.script, OpPushData1, byte(dataLen))
	case dataLen <= 0xffff:
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(dataLen))
		b.script = append(b.script, OpPushData2)
		b.script = append(b.script, buf...)
	default:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(dataLen))
		b.script = append(b.script, OpPushData4)
		b.script = append(b.script, buf...)
	}

	b.script = append(b.script, data...)
	return b
}

// Script returns the currently built script. When any errors occurred while
// building the script, the script will be returned up the point of the first
// error along with the error.
func (b *ScriptBuilder) Script() ([]byte, error) {
	return b.script, b.err
}

// canonicalDataSize returns the number of bytes the canonical encoding of the
// data will take.
func canonicalDataSize(dataLen int) int {
	switch {
	case dataLen <= OpData75:
		return dataLen + 1
	case dataLen <= 0xff:
		return dataLen + 2
	case dataLen <= 0xffff:
		return dataLen + 3
	}
	return dataLen + 5
}
