package emulator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		op   uint16
		kind Kind
		text string
	}{
		{0x00E0, Cls, "CLS"},
		{0x00EE, Ret, "RET"},
		{0x0123, Invalid, "DW   #0123"},
		{0x1ABC, Jump, "GOTO ABC"},
		{0x2ABC, Call, "CALL ABC"},
		{0x3A12, SkipEqImm, "SE   VA,#12"},
		{0x4A12, SkipNeImm, "SNE  VA,#12"},
		{0x5AB0, SkipEqReg, "SE   VA,VB"},
		{0x5AB1, Invalid, "DW   #5AB1"},
		{0x6A12, LoadImm, "LD   VA,#12"},
		{0x7A12, AddImm, "ADD  VA,#12"},
		{0x8AB0, LoadReg, "LD   VA,VB"},
		{0x8AB1, Or, "OR   VA,VB"},
		{0x8AB2, And, "AND  VA,VB"},
		{0x8AB3, Xor, "XOR  VA,VB"},
		{0x8AB4, AddReg, "ADD  VA,VB"},
		{0x8AB5, SubReg, "SUB  VA,VB"},
		{0x8AB6, ShiftRight, "SHR  VA"},
		{0x8AB7, SubNeg, "SUBN VA,VB"},
		{0x8ABE, ShiftLeft, "SHL  VA"},
		{0x8AB8, Invalid, "DW   #8AB8"},
		{0x9AB0, SkipNeReg, "SNE  VA,VB"},
		{0xA123, LoadIndex, "LD   I,#123"},
		{0xB123, JumpV0, "JP   V0,#123"},
		{0xCA0F, Random, "RND  VA,#0F"},
		{0xDAB5, Draw, "DRW  VA,VB,5"},
		{0xEA9E, SkipKeyPressed, "SKP  VA"},
		{0xEAA1, SkipKeyNotPressed, "SKNP VA"},
		{0xFA07, LoadDelay, "LD   VA,DT"},
		{0xFA0A, WaitKey, "LD   VA,K"},
		{0xFA15, SetDelay, "LD   DT,VA"},
		{0xFA18, SetSound, "LD   ST,VA"},
		{0xFA1E, AddIndex, "ADD  I,VA"},
		{0xFA29, LoadFont, "LD   F,VA"},
		{0xFA33, StoreBCD, "LD   B,VA"},
		{0xFA55, StoreRegs, "LD   [I],VA"},
		{0xFA65, LoadRegs, "LD   VA,[I]"},
		{0xFA66, Invalid, "DW   #FA66"},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%04X", test.op), func(t *testing.T) {
			ins, ok := Decode(test.op)
			assert.Equal(t, test.kind != Invalid, ok)
			assert.Equal(t, test.kind, ins.Kind)
			assert.Equal(t, test.text, ins.String())
		})
	}
}

func TestDecodeOperands(t *testing.T) {
	ins, ok := Decode(0xD12F)
	assert.True(t, ok)
	assert.Equal(t, uint8(1), ins.X)
	assert.Equal(t, uint8(2), ins.Y)
	assert.Equal(t, uint8(0xF), ins.N)
	assert.Equal(t, uint8(0x2F), ins.NN)
	assert.Equal(t, uint16(0x12F), ins.NNN)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "draw", Draw.String())
	assert.Equal(t, "kind(200)", Kind(200).String())
}

func TestFaultError(t *testing.T) {
	f := &Fault{Code: StackOverflow, Op: 0x2200, Addr: 0x200}
	assert.Equal(t, "stack overflow executing 2200 at 0200", f.Error())
	assert.Equal(t, "unknown (09)", FaultCode(9).String())
}
