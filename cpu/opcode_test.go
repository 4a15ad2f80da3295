package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_Decode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		code Code
		inst Instruction
	}){
		{"add", 1, Instruction{OP_ADD, [3]Mode{}}},
		{"mul_imm", 1002, Instruction{OP_MUL, [3]Mode{MODE_POSITION, MODE_IMMEDIATE, MODE_POSITION}}},
		{"add_rel", 21101, Instruction{OP_ADD, [3]Mode{MODE_IMMEDIATE, MODE_IMMEDIATE, MODE_RELATIVE}}},
		{"in_rel", 203, Instruction{OP_IN, [3]Mode{MODE_RELATIVE}}},
		{"jt_imm", 1105, Instruction{OP_JT, [3]Mode{MODE_IMMEDIATE, MODE_IMMEDIATE}}},
		{"arb_imm", 109, Instruction{OP_ARB, [3]Mode{MODE_IMMEDIATE}}},
		{"halt", 99, Instruction{OP_HALT, [3]Mode{}}},
		{"halt_extra", 99999, Instruction{OP_HALT, [3]Mode{}}},
		{"out_extra", 90104, Instruction{OP_OUT, [3]Mode{MODE_IMMEDIATE}}},
	}

	for _, entry := range table {
		inst, err := entry.code.Decode()
		assert.NoError(err, entry.name)
		assert.Equal(entry.inst, inst, entry.name)
	}
}

func TestCode_Decode_Invalid(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		code    Code
		err     error
		operand int
	}){
		{"zero", 0, ErrInvalidOpcode, -1},
		{"op_42", 42, ErrInvalidOpcode, -1},
		{"op_98", 1098, ErrInvalidOpcode, -1},
		{"negative", -1, ErrInvalidOpcode, -1},
		{"negative_halt", -99, ErrInvalidOpcode, -1},
		{"mode_3", 301, ErrInvalidParameterMode, 0},
		{"mode_9_arg2", 9201, ErrInvalidParameterMode, 1},
		{"mode_5_arg3", 50001, ErrInvalidParameterMode, 2},
		{"mode_out", 404, ErrInvalidParameterMode, 0},
	}

	for _, entry := range table {
		_, err := entry.code.Decode()
		assert.ErrorIs(err, entry.err, entry.name)
		if entry.operand >= 0 {
			assert.ErrorIs(err, ErrOperand[entry.operand], entry.name)
		}
	}
}

func TestOp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("hlt", OP_HALT.String())
	assert.Equal("arb", OP_ARB.String())
	assert.Equal("Op(42)", Op(42).String())

	assert.Equal(3, OP_ADD.Operands())
	assert.Equal(2, OP_JF.Operands())
	assert.Equal(0, OP_HALT.Operands())
	assert.Equal(-1, Op(0).Operands())

	assert.Equal(2, OP_EQ.Target())
	assert.Equal(0, OP_IN.Target())
	assert.Equal(-1, OP_OUT.Target())
	assert.Equal(-1, OP_ARB.Target())
}

func TestMakeCode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Code(1002), MakeCode(OP_MUL, MODE_POSITION, MODE_IMMEDIATE))
	assert.Equal(Code(21101), MakeCode(OP_ADD, MODE_IMMEDIATE, MODE_IMMEDIATE, MODE_RELATIVE))
	assert.Equal(Code(99), MakeCode(OP_HALT))

	for _, code := range []Code{1002, 21101, 203, 1105, 99} {
		inst, err := code.Decode()
		assert.NoError(err)
		assert.Equal(code, MakeCode(inst.Op, inst.Operands()...))
	}
}

func TestInstruction_String(t *testing.T) {
	assert := assert.New(t)

	inst, err := Code(1002).Decode()
	assert.NoError(err)
	assert.Equal("mul.pos.imm.pos", inst.String())

	inst, err = Code(99).Decode()
	assert.NoError(err)
	assert.Equal("hlt", inst.String())
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	mem := []int64{109, -1, 204, 3, 21101, 1, 2, 7, 1106, 0, 4}

	table := [](struct {
		addr int
		text string
		size int
	}){
		{0, "arb -1", 2},
		{2, "out [rb+3]", 2},
		{4, "add 1, 2, [rb+7]", 4},
		{8, "jf 0, 4", 3},
		{1, ".data -1", 1},
		{9, ".data 0", 1},
		{11, "", 0},
		{-1, "", 0},
	}

	for _, entry := range table {
		text, size := Disassemble(mem, entry.addr)
		assert.Equal(entry.text, text, entry.addr)
		assert.Equal(entry.size, size, entry.addr)
	}

	// Operands that run off the end are data.
	text, size := Disassemble([]int64{1, 2}, 0)
	assert.Equal(".data 1", text)
	assert.Equal(1, size)

	_, err := Code(42).Decode()
	assert.True(errors.Is(err, ErrInvalidOpcode))
}
