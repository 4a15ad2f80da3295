package cpu

import (
	"errors"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Program is a flat Intcode program image.
type Program []int64

// ParseProgram reads a comma-separated list of decimal integers.
// Whitespace around cells is ignored, as is a trailing comma.
func ParseProgram(r io.Reader) (prog Program, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	text := strings.TrimSpace(string(data))
	if len(text) == 0 {
		return
	}

	cells := strings.Split(strings.TrimSuffix(text, ","), ",")
	prog = make(Program, 0, len(cells))
	for n, cell := range cells {
		cell = strings.TrimSpace(cell)
		var value int64
		value, err = strconv.ParseInt(cell, 10, 64)
		if err != nil {
			err = errors.Join(ErrParseNumber{Index: n, Text: cell}, err)
			prog = nil
			return
		}
		prog = append(prog, value)
	}

	return
}

// String returns the program in its comma-separated text form.
func (prog Program) String() string {
	cells := make([]string, len(prog))
	for n, value := range prog {
		cells[n] = strconv.FormatInt(value, 10)
	}
	return strings.Join(cells, ",")
}

// Disassemble yields the address and text of each instruction, walking
// the program linearly. Cells that do not decode are yielded as data.
func (prog Program) Disassemble() iter.Seq2[int, string] {
	return func(yield func(addr int, text string) bool) {
		for addr := 0; addr < len(prog); {
			text, size := Disassemble(prog, addr)
			if !yield(addr, text) {
				return
			}
			addr += size
		}
	}
}
