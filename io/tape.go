package io

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"unicode"
)

// Tape adapts text streams to a value channel.
//
// In decimal mode the input is a sequence of integers separated by
// whitespace or commas, and each output value is written on its own line.
// In ASCII mode every input byte is one value, and output values in the
// ASCII range are written as characters; anything else is written as a
// decimal line.
type Tape struct {
	Input  io.Reader
	Output io.Writer
	Ascii  bool

	Err error // First input syntax error, if any.

	reader *bufio.Reader
}

var _ Channel = (*Tape)(nil)

// Rewind is not possible on a tape.
func (tc *Tape) Rewind() {
}

// isSeparator returns true for runes that separate decimal values.
func isSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

// next reads the next value from the input.
func (tc *Tape) next() (value int64, ok bool) {
	if tc.Input == nil || tc.Err != nil {
		return
	}
	if tc.reader == nil {
		tc.reader = bufio.NewReader(tc.Input)
	}

	if tc.Ascii {
		b, err := tc.reader.ReadByte()
		if err != nil {
			return
		}
		return int64(b), true
	}

	var token []rune
	for {
		r, _, err := tc.reader.ReadRune()
		if err != nil {
			break
		}
		if isSeparator(r) {
			if len(token) == 0 {
				continue
			}
			break
		}
		token = append(token, r)
	}

	if len(token) == 0 {
		return
	}

	value, err := strconv.ParseInt(string(token), 10, 64)
	if err != nil {
		tc.Err = ErrTapeSyntax(string(token))
		return
	}

	return value, true
}

// Receive returns an iterator that yields values read from the input
// stream, until end of input or a syntax error.
func (tc *Tape) Receive() iter.Seq[int64] {
	return func(yield func(value int64) bool) {
		for {
			value, ok := tc.next()
			if !ok {
				return
			}
			if !yield(value) {
				return
			}
		}
	}
}

// Send writes a value to the output stream.
func (tc *Tape) Send(value int64) (err error) {
	if tc.Output == nil {
		return
	}

	if tc.Ascii && value >= 0 && value < 128 {
		_, err = tc.Output.Write([]byte{byte(value)})
		return
	}

	_, err = fmt.Fprintf(tc.Output, "%d\n", value)

	return
}
