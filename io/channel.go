// Package io provides value channels for feeding and draining Intcode
// machines. It includes a FIFO queue (Queue) for joining machines, a
// read-only input list (Rom), a text stream adapter (Tape) and an
// interactive terminal (Console).
package io

import (
	"iter"
)

// Channel defines the interface for all value channels.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Receive returns an iterator that yields values from the channel,
	// consuming each value yielded.
	Receive() iter.Seq[int64]
	// Send writes a single value to the channel.
	Send(value int64) error
}
