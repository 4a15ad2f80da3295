package io

import (
	"iter"
	"slices"
)

// Queue implements a circular FIFO buffer of values. With a zero Capacity
// the queue grows without bound.
type Queue struct {
	Capacity int // Capacity in values, zero for unbounded.

	ReadIndex  int
	WriteIndex int
	Size       int
	Data       []int64
}

var _ Channel = (*Queue)(nil)

// Rewind resets the queue to empty.
func (q *Queue) Rewind() {
	q.ReadIndex = 0
	q.WriteIndex = 0
	q.Size = 0
	q.Data = make([]int64, q.Capacity)
}

// Len returns the number of queued values.
func (q *Queue) Len() int {
	return q.Size
}

// Receive returns an iterator that yields values until the queue is empty.
func (q *Queue) Receive() iter.Seq[int64] {
	return func(yield func(value int64) bool) {
		for q.Size > 0 {
			value := q.Data[q.ReadIndex]
			q.ReadIndex++
			if q.ReadIndex == len(q.Data) {
				q.ReadIndex = 0
			}
			q.Size--
			if !yield(value) {
				return
			}
		}
	}
}

// Send appends a value to the queue.
// Returns ErrChannelFull if a bounded queue has reached capacity.
func (q *Queue) Send(value int64) (err error) {
	if q.Capacity > 0 && q.Size >= q.Capacity {
		err = ErrChannelFull
		return
	}

	if q.Size == len(q.Data) {
		q.grow()
	}

	q.Data[q.WriteIndex] = value

	q.WriteIndex++
	if q.WriteIndex == len(q.Data) {
		q.WriteIndex = 0
	}
	q.Size++

	return
}

// grow makes room for at least one more value.
func (q *Queue) grow() {
	size := q.Capacity
	if size == 0 {
		size = max(8, 2*len(q.Data))
	}

	data := make([]int64, size)
	copy(data, q.Peek())

	q.Data = data
	q.ReadIndex = 0
	q.WriteIndex = q.Size % len(data)
}

// Peek returns a copy of the queued values without consuming them.
func (q *Queue) Peek() (values []int64) {
	values = make([]int64, 0, q.Size)
	for n := range q.Size {
		values = append(values, q.Data[(q.ReadIndex+n)%len(q.Data)])
	}
	return
}

// Discard drops up to count values from the head of the queue.
func (q *Queue) Discard(count int) {
	for ; count > 0 && q.Size > 0; count-- {
		q.ReadIndex = (q.ReadIndex + 1) % len(q.Data)
		q.Size--
	}
}

// Drain consumes and returns all queued values.
func (q *Queue) Drain() []int64 {
	return slices.Collect(q.Receive())
}
