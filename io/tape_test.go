package io

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTape_Receive_Decimal(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Input: strings.NewReader(" 1, -2\n3\t\t1125899906842624,,\n")}
	assert.Equal([]int64{1, -2, 3, 1125899906842624}, slices.Collect(tape.Receive()))
	assert.NoError(tape.Err)

	// Exhausted.
	assert.Empty(slices.Collect(tape.Receive()))
}

func TestTape_Receive_Lazy(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Input: strings.NewReader("1 2 3")}
	for value := range tape.Receive() {
		assert.Equal(int64(1), value)
		break
	}
	assert.Equal([]int64{2, 3}, slices.Collect(tape.Receive()))
}

func TestTape_Receive_Syntax(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Input: strings.NewReader("1 two 3")}
	assert.Equal([]int64{1}, slices.Collect(tape.Receive()))
	assert.Equal(ErrTapeSyntax("two"), tape.Err)
	assert.Empty(slices.Collect(tape.Receive()))
}

func TestTape_Receive_Ascii(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Input: strings.NewReader("NOT A J\n"), Ascii: true}
	assert.Equal([]int64{'N', 'O', 'T', ' ', 'A', ' ', 'J', '\n'}, slices.Collect(tape.Receive()))
}

func TestTape_Receive_NoInput(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{}
	assert.Empty(slices.Collect(tape.Receive()))
	assert.NoError(tape.Send(1))
}

func TestTape_Send(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	tape := &Tape{Output: out}
	assert.NoError(tape.Send(42))
	assert.NoError(tape.Send(-1))
	assert.Equal("42\n-1\n", out.String())

	out.Reset()
	tape.Ascii = true
	assert.NoError(SendString(tape, "Hi\n"))
	assert.NoError(tape.Send(19358688))
	assert.NoError(tape.Send(-5))
	assert.Equal("Hi\n19358688\n-5\n", out.String())
}
