package cpu

import (
	"errors"
	"fmt"
	"strings"
)

// Op is an instruction opcode, the low two decimal digits of a Code.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_ADD  = Op(1)  // add
	OP_MUL  = Op(2)  // mul
	OP_IN   = Op(3)  // in
	OP_OUT  = Op(4)  // out
	OP_JT   = Op(5)  // jt
	OP_JF   = Op(6)  // jf
	OP_LT   = Op(7)  // lt
	OP_EQ   = Op(8)  // eq
	OP_ARB  = Op(9)  // arb
	OP_HALT = Op(99) // hlt
)

// Operands returns the number of operands the opcode takes, or -1 if the
// opcode is not defined.
func (op Op) Operands() int {
	switch op {
	case OP_ADD, OP_MUL, OP_LT, OP_EQ:
		return 3
	case OP_JT, OP_JF:
		return 2
	case OP_IN, OP_OUT, OP_ARB:
		return 1
	case OP_HALT:
		return 0
	}

	return -1
}

// Target returns the index of the operand the opcode writes to, or -1 if
// it writes nothing.
func (op Op) Target() int {
	switch op {
	case OP_ADD, OP_MUL, OP_LT, OP_EQ:
		return 2
	case OP_IN:
		return 0
	}

	return -1
}

// Valid returns true for defined opcodes.
func (op Op) Valid() bool {
	return op.Operands() >= 0
}

// Mode is an operand addressing mode.
type Mode int

//go:generate go tool stringer -linecomment -type=Mode
const (
	MODE_POSITION  = Mode(0) // pos
	MODE_IMMEDIATE = Mode(1) // imm
	MODE_RELATIVE  = Mode(2) // rel
)

// Valid returns true for defined addressing modes.
func (mode Mode) Valid() bool {
	return mode >= MODE_POSITION && mode <= MODE_RELATIVE
}

// Code is a raw instruction word.
type Code int64

// Op returns the opcode field of the word. It may be invalid.
func (code Code) Op() Op {
	return Op(code % 100)
}

// Mode returns the mode digit for operand n (0 based). It may be invalid.
func (code Code) Mode(n int) Mode {
	div := Code(100)
	for range n {
		div *= 10
	}
	return Mode((code / div) % 10)
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Op    Op
	Modes [3]Mode
}

// Operands returns the addressing modes of the instruction's operands.
func (inst Instruction) Operands() []Mode {
	return inst.Modes[:inst.Op.Operands()]
}

func (inst Instruction) String() string {
	var modes []string
	for _, mode := range inst.Operands() {
		modes = append(modes, mode.String())
	}
	if len(modes) == 0 {
		return inst.Op.String()
	}
	return fmt.Sprintf("%v.%v", inst.Op, strings.Join(modes, "."))
}

// Decode splits the instruction word into an opcode and one addressing
// mode per operand. Mode digits beyond the opcode's operands are ignored.
func (code Code) Decode() (inst Instruction, err error) {
	inst.Op = code.Op()
	if !inst.Op.Valid() {
		err = ErrInvalidOpcode
		return
	}

	for n := range inst.Op.Operands() {
		mode := code.Mode(n)
		if !mode.Valid() {
			err = errors.Join(ErrInvalidParameterMode, ErrOperand[n])
			return
		}
		inst.Modes[n] = mode
	}

	return
}

// MakeCode encodes an opcode and operand modes into an instruction word.
func MakeCode(op Op, modes ...Mode) Code {
	code := Code(op)
	div := Code(100)
	for _, mode := range modes {
		code += Code(mode) * div
		div *= 10
	}
	return code
}

// formatOperand renders a raw operand in assembler-like notation.
func formatOperand(mode Mode, value int64) string {
	switch mode {
	case MODE_POSITION:
		return fmt.Sprintf("[%d]", value)
	case MODE_RELATIVE:
		if value < 0 {
			return fmt.Sprintf("[rb%d]", value)
		}
		return fmt.Sprintf("[rb+%d]", value)
	}
	return fmt.Sprintf("%d", value)
}

// Disassemble renders the instruction at addr in mem. size is the number
// of cells consumed; a word that does not decode, or whose operands run
// past the end of mem, is rendered as a single data cell.
func Disassemble(mem []int64, addr int) (text string, size int) {
	if addr < 0 || addr >= len(mem) {
		return
	}

	code := Code(mem[addr])
	inst, err := code.Decode()
	if err != nil || addr+1+inst.Op.Operands() > len(mem) {
		return fmt.Sprintf(".data %d", mem[addr]), 1
	}

	var args []string
	for n, mode := range inst.Operands() {
		args = append(args, formatOperand(mode, mem[addr+1+n]))
	}

	text = inst.Op.String()
	if len(args) > 0 {
		text += " " + strings.Join(args, ", ")
	}
	size = 1 + len(args)

	return
}
