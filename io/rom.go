package io

import (
	"iter"
)

// Rom is a read-only list of input values, consumed in order.
type Rom struct {
	Data []int64

	index int
}

var _ Channel = (*Rom)(nil)

// Rewind restarts reading from the first value.
func (rc *Rom) Rewind() {
	rc.index = 0
}

// Remaining returns the number of unread values.
func (rc *Rom) Remaining() int {
	return len(rc.Data) - rc.index
}

// Receive returns an iterator over the unread values.
func (rc *Rom) Receive() iter.Seq[int64] {
	return func(yield func(value int64) bool) {
		for rc.index < len(rc.Data) {
			value := rc.Data[rc.index]
			rc.index++
			if !yield(value) {
				return
			}
		}
	}
}

// Send always fails; a Rom cannot be written.
func (rc *Rom) Send(value int64) error {
	return ErrChannelReadOnly
}
