package cpu

import (
	"fmt"
	"slices"
)

const (
	MEMORY_CAPACITY = 1 << 20 // Default memory capacity, in cells.
)

// Memory is a flat, zero-indexed array of cells. Cells past the written
// region read as zero; writes grow the region up to Capacity.
type Memory struct {
	Capacity int64   // Maximum number of cells.
	Data     []int64 // Written region.
}

// NewMemory creates a memory of the given capacity, loaded with program
// at address zero.
func NewMemory(capacity int64, program []int64) (mem *Memory, err error) {
	if int64(len(program)) > capacity {
		err = ErrOutOfMemory
		return
	}

	mem = &Memory{
		Capacity: capacity,
		Data:     slices.Clone(program),
	}

	return
}

// check validates an address against the memory bounds.
func (mem *Memory) check(addr int64) (err error) {
	switch {
	case addr < 0:
		err = ErrAddressOutOfBounds
	case addr >= mem.Capacity:
		err = ErrOutOfMemory
	}

	return
}

// Read returns the cell at addr.
func (mem *Memory) Read(addr int64) (value int64, err error) {
	err = mem.check(addr)
	if err != nil {
		return
	}

	if addr < int64(len(mem.Data)) {
		value = mem.Data[addr]
	}

	return
}

// Write stores value at addr, growing the written region as needed.
func (mem *Memory) Write(addr int64, value int64) (err error) {
	err = mem.check(addr)
	if err != nil {
		return
	}

	if n := int(addr) + 1; n > len(mem.Data) {
		mem.Data = slices.Grow(mem.Data, n-len(mem.Data))[:n]
	}
	mem.Data[addr] = value

	return
}

// Len returns the size of the written region.
func (mem *Memory) Len() int {
	return len(mem.Data)
}

// Dump returns a copy of count cells starting at addr, zero filled past
// the written region.
func (mem *Memory) Dump(addr int64, count int) (cells []int64, err error) {
	if count < 0 {
		err = fmt.Errorf("%w: count %d", ErrAddressOutOfBounds, count)
		return
	}

	cells = make([]int64, count)
	for n := range cells {
		cells[n], err = mem.Read(addr + int64(n))
		if err != nil {
			cells = nil
			return
		}
	}

	return
}

// Clone returns a deep copy of the memory.
func (mem *Memory) Clone() *Memory {
	return &Memory{
		Capacity: mem.Capacity,
		Data:     slices.Clone(mem.Data),
	}
}
