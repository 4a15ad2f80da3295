package cpu

import (
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProgram(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		text string
		prog Program
	}){
		{"simple", "1,9,10,3,2,3,11,0,99,30,40,50", Program{1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50}},
		{"newline", "1101,100,-1,4,0\n", Program{1101, 100, -1, 4, 0}},
		{"spaces", " 104 , 1125899906842624 ,\t99 ", Program{104, 1125899906842624, 99}},
		{"trailing_comma", "3,0,4,0,99,\n", Program{3, 0, 4, 0, 99}},
		{"multiline", "1,0,\n0,0,\n99", Program{1, 0, 0, 0, 99}},
		{"empty", "", nil},
		{"blank", "  \n", nil},
	}

	for _, entry := range table {
		prog, err := ParseProgram(strings.NewReader(entry.text))
		assert.NoError(err, entry.name)
		assert.Equal(entry.prog, prog, entry.name)
	}
}

func TestParseProgram_Invalid(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		text  string
		index int
	}){
		{"word", "1,x,3", 1},
		{"empty_cell", "1,,3", 1},
		{"float", "1.5", 0},
		{"overflow", "99,99999999999999999999", 1},
	}

	for _, entry := range table {
		prog, err := ParseProgram(strings.NewReader(entry.text))
		assert.Nil(prog, entry.name)
		assert.ErrorIs(err, ErrProgramSyntax, entry.name)

		var perr ErrParseNumber
		if assert.True(errors.As(err, &perr), entry.name) {
			assert.Equal(entry.index, perr.Index, entry.name)
		}
	}
}

func TestProgram_String(t *testing.T) {
	assert := assert.New(t)

	prog := Program(quine)
	text := prog.String()
	assert.Equal("109,1,204,-1,1001,100,1,100,1008,100,16,101,1006,101,0,99", text)

	again, err := ParseProgram(strings.NewReader(text))
	assert.NoError(err)
	assert.Equal(prog, again)

	assert.Equal("", Program{}.String())
}

func TestProgram_Disassemble(t *testing.T) {
	assert := assert.New(t)

	prog := Program{1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50}
	listing := maps.Collect(prog.Disassemble())

	assert.Equal(map[int]string{
		0:  "add [9], [10], [3]",
		4:  "mul [3], [11], [0]",
		8:  "hlt",
		9:  ".data 30",
		10: ".data 40",
		11: ".data 50",
	}, listing)

	// Early stop.
	var addrs []int
	for addr := range prog.Disassemble() {
		addrs = append(addrs, addr)
		if len(addrs) == 2 {
			break
		}
	}
	assert.Equal([]int{0, 4}, addrs)
}
