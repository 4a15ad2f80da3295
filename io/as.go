package io

import (
	"iter"
	"strconv"
)

// SendString sends each byte of text as a value, for ASCII protocols.
func SendString(ch Channel, text string) (err error) {
	for _, b := range []byte(text) {
		err = ch.Send(int64(b))
		if err != nil {
			return
		}
	}
	return
}

// ReceiveLines returns an iterator that reads ASCII values from the
// channel and yields complete lines, without the newline. A value outside
// the ASCII range ends any partial line and is yielded in decimal.
func ReceiveLines(ch Channel) iter.Seq[string] {
	return func(yield func(line string) bool) {
		var line []byte
		for value := range ch.Receive() {
			switch {
			case value == '\n':
				if !yield(string(line)) {
					return
				}
				line = line[:0]
			case value >= 0 && value < 128:
				line = append(line, byte(value))
			default:
				if len(line) > 0 {
					if !yield(string(line)) {
						return
					}
					line = line[:0]
				}
				if !yield(strconv.FormatInt(value, 10)) {
					return
				}
			}
		}
		if len(line) != 0 {
			yield(string(line))
		}
	}
}
