package cpu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, asm *Assembler, lines ...string) Program {
	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	return prog
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("%#v", MEMORY_CAPACITY), asm.Equate["MEMORY_CAPACITY"])
}

func TestAssemblerOperands(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := assemble(t, asm,
		"add [9], 3, [10]",
		"mul [rb+3] [rb-1] [rb]",
		"in [rb+0]",
		"out -7",
		"arb 1",
		"jt 0x10, [4]",
		"halt",
	)

	assert.Equal(Program{
		1001, 9, 3, 10,
		22202, 3, -1, 0,
		203, 0,
		104, -7,
		109, 1,
		105, 16, 4,
		99,
	}, prog)

	assert.Equal(7, len(asm.Opcode))
	assert.Equal(int64(4), asm.Opcode[1].Ip)
	assert.Equal(2, asm.Opcode[1].LineNo)
	assert.Equal([]string{"mul", "[rb+3]", "[rb-1]", "[rb]"}, asm.Opcode[1].Words)
}

func TestAssemblerDisassembly(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program Program
	}){
		{"quine", quine},
		{"accumulator", accumulator},
		{"compare8", compare8},
	}

	for _, entry := range table {
		var lines []string
		for _, text := range entry.program.Disassemble() {
			lines = append(lines, text)
		}

		asm := &Assembler{}
		prog := assemble(t, asm, lines...)
		assert.Equal(entry.program, prog, entry.name)
	}
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := assemble(t, asm,
		"start: in [x]",
		"       jf [x], done",
		"       add [x], [sum], [sum]",
		"       jmp start",
		"done:  out [sum]",
		"       hlt",
		"x:     .data 0",
		"sum:   .data 0",
	)

	assert.Equal(Program{3, 15, 1006, 15, 12, 1, 15, 16, 16, 1105, 1, 0, 4, 16, 99, 0, 0}, prog)
	assert.Equal(int64(12), asm.Label["done"])

	m, err := NewMachine(prog)
	assert.NoError(err)
	outcome, err := m.Run([]int64{1, 2, 3, 0}, QUOTA_NONE)
	assert.NoError(err)
	assert.Equal(STATE_HALTED, outcome.State)
	assert.Equal([]int64{6}, outcome.Outputs)
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("PORT", "7")
	prog := assemble(t, asm,
		".equ BASE 100",
		".equ TWICE $(BASE * 2)",
		"out BASE",
		"out TWICE",
		"out 'A'",
		"out $(LINENO)",
		"add [BASE], [rb+BASE], [rb]",
		"out '\\n'",
		"out PORT",
		"mark: .data 5",
		".data $(mark + 1) mark",
	)

	assert.Equal(Program{
		104, 100,
		104, 200,
		104, 65,
		104, 6,
		22001, 100, 100, 0,
		104, 10,
		104, 7,
		5, 17, 16,
	}, prog)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := assemble(t, asm,
		".macro PUTS a b",
		"out a",
		"out b",
		".endm",
		"PUTS 1 2",
		".macro SPIN",
		"@top: jmp @top",
		".endm",
		"SPIN",
	)

	assert.Equal(Program{104, 1, 104, 2, 1105, 1, 4}, prog)
	assert.Equal(int64(4), asm.Label["SPIN_7_top"])
}

func TestAssemblerMacro_LocalLoop(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog := assemble(t, asm,
		".macro WAIT",
		"@loop: in [7]",
		"jf [7] @loop",
		".endm",
		"WAIT",
		"hlt",
	)

	assert.Equal(Program{3, 7, 1006, 7, 0, 99}, prog)
	assert.Equal(int64(0), asm.Label["WAIT_2_loop"])

	m, err := NewMachine(prog)
	assert.NoError(err)
	outcome, err := m.RunAll([]int64{0, 0, 7})
	assert.NoError(err)
	assert.Equal(STATE_HALTED, outcome.State)
	assert.Equal(3, outcome.Consumed)
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
		err  error
	}){
		{"DUP:\nDUP:\n", 2, ErrLabelDuplicate},
		{"1bad: hlt", 1, ErrLabelInvalid},
		{"out", 1, ErrOpcodeValueMissing},
		{"out 1 2", 1, ErrOpcodeExtraArgs},
		{"in 5", 1, ErrTargetInvalid},
		{"add 1 2 3", 1, ErrTargetInvalid},
		{"bogus 1", 1, ErrInstructionInvalid},
		{".data", 1, ErrOpcodeValueMissing},
		{".equ", 1, ErrEquateSyntax},
		{".equ A", 1, ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", 2, ErrEquateDuplicate},
		{".macro", 1, ErrMacroSyntax},
		{".macro A B C\n.endm\nA 1\n", 3, ErrMacroSyntax},
		{".macro A B\n.macro C\n.endm\n.endm", 2, ErrMacroNesting},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3, ErrMacroDuplicate},
		{".macro A B\n.endm\n.endm\n", 3, ErrMacroLonelyEndm},
		{".macro A\nout 1\n", 2, ErrMacroLonely},
		{".macro A\nbogus\n.endm\nout 1\nA\n", 5, ErrInstructionInvalid},
		{"out 1\njmp nowhere\nhlt", 2, nil},
		{"out [1", 1, nil},
		{"out [rb+x]", 1, nil},
		{"out 1x", 1, nil},
		{"out $(\"aaa\")", 1, nil},
		{"out $(more(\"aaa\"))", 1, nil},
		{"out $(0x10000000000000000)", 1, nil},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
		}
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, entry.prog)
		}
	}

	_, err := asm.Parse(strings.NewReader("jmp nowhere"))
	var missing ErrLabelMissing
	assert.True(errors.As(err, &missing))
	assert.Equal(ErrLabelMissing("nowhere"), missing)
}
