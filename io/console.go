package io

import (
	"fmt"
	"io"
	"iter"

	"golang.org/x/term"
)

// Console is an interactive ASCII channel with line editing and history.
// Output is written a line at a time; a partial line is flushed before
// the next input line is read, so it acts as a prompt.
type Console struct {
	Terminal *term.Terminal

	line []byte // Input not yet received.
	out  []byte // Output not yet written.
	err  error  // First write error.
}

var _ Channel = (*Console)(nil)

// NewConsole creates a console over rw, which is usually a terminal in
// raw mode.
func NewConsole(rw io.ReadWriter, prompt string) *Console {
	return &Console{
		Terminal: term.NewTerminal(rw, prompt),
	}
}

// Rewind discards any unread input.
func (con *Console) Rewind() {
	con.line = nil
}

// Receive returns an iterator that yields the bytes of each line typed,
// ending with a newline, until end of input.
func (con *Console) Receive() iter.Seq[int64] {
	return func(yield func(value int64) bool) {
		for {
			if len(con.line) == 0 {
				con.Flush()
				text, err := con.Terminal.ReadLine()
				if err != nil {
					return
				}
				con.line = append([]byte(text), '\n')
			}

			value := int64(con.line[0])
			con.line = con.line[1:]
			if !yield(value) {
				return
			}
		}
	}
}

// Send writes an ASCII value, or a decimal line for anything else.
func (con *Console) Send(value int64) (err error) {
	if value < 0 || value >= 128 {
		con.Flush()
		_, err = fmt.Fprintf(con.Terminal, "%d\n", value)
		return
	}

	con.out = append(con.out, byte(value))
	if value == '\n' {
		err = con.Flush()
	}

	return
}

// Flush writes any buffered output.
func (con *Console) Flush() (err error) {
	if len(con.out) == 0 {
		return con.err
	}

	_, err = con.Terminal.Write(con.out)
	con.out = con.out[:0]
	if err != nil && con.err == nil {
		con.err = err
	}

	return
}
