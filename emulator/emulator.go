// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator drives a single Intcode machine from value channels.
package emulator

import (
	"iter"
	"log"

	"github.com/ezrec/intcode/cpu"
	"github.com/ezrec/intcode/internal"
	"github.com/ezrec/intcode/io"
)

// Emulator state. Machine + IO channels.
type Emulator struct {
	Verbose      bool        // If set, enables verbose logging.
	*cpu.Machine             // Reference to the machine simulation.
	Program      cpu.Program // Program loaded on Reset.

	Capacity  int64 // Memory capacity in cells.
	Quota     int   // Outputs per Tick, or cpu.QUOTA_NONE.
	TickLimit int   // Instruction budget per Tick, zero for unlimited.

	Input  []io.Channel // Input channels, drained in order.
	Output io.Channel   // Output channel.

	pending []int64
	source  func() (int64, bool)
	stop    func()
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Capacity: cpu.MEMORY_CAPACITY,
		Quota:    cpu.QUOTA_NONE,
		Output:   &io.Queue{},
	}

	return
}

// Close the emulator
func (emu *Emulator) Close() (err error) {
	if emu.stop != nil {
		emu.stop()
		emu.source = nil
		emu.stop = nil
	}

	return
}

// inputs returns all of the input channels as one sequence.
func (emu *Emulator) inputs() iter.Seq[int64] {
	var seqs []iter.Seq[int64]
	for _, ch := range emu.Input {
		seqs = append(seqs, ch.Receive())
	}
	return internal.IterSeqConcat(seqs...)
}

// Reset loads the program into a fresh machine.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil {
		err = ErrNoProgram
		return
	}

	emu.Close()

	emu.Machine, err = cpu.NewMachineCapacity(emu.Program, emu.Capacity)
	if err != nil {
		return
	}
	emu.Machine.TickLimit = emu.TickLimit
	emu.pending = nil

	if emu.Verbose {
		log.Printf("emulator: reset, %d cells of %d", len(emu.Program), emu.Capacity)
	}

	return
}

// Ticks returns the total instructions executed since a reset, or 0
// before the first Reset.
func (emu *Emulator) Ticks() int {
	if emu.Machine == nil {
		return 0
	}
	return emu.Machine.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int64 {
	if emu.Machine == nil {
		return 0
	}
	return emu.Machine.Ip
}

// Pending returns the inputs read from the channels but not yet consumed.
func (emu *Emulator) Pending() []int64 {
	return emu.pending
}

// next pulls one value from the input channels.
func (emu *Emulator) next() (value int64, ok bool) {
	if emu.source == nil {
		emu.source, emu.stop = iter.Pull(emu.inputs())
	}
	return emu.source()
}

// Tick performs a single Run of the machine, delivering its outputs to
// the output channel. When the machine needs input, one value is pulled
// from the input channels for the next Tick.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.Machine == nil {
		err = ErrNoProgram
		return
	}

	// Set machine verbosity
	emu.Machine.Verbose = emu.Verbose

	ip := emu.Machine.Ip
	defer func() {
		if err != nil {
			err = &ErrRuntime{Ip: ip, Err: err}
		}
	}()

	outcome, err := emu.Machine.Run(emu.pending, emu.Quota)
	emu.pending = emu.pending[outcome.Consumed:]
	if err != nil {
		return
	}

	for _, value := range outcome.Outputs {
		err = emu.Output.Send(value)
		if err != nil {
			return
		}
	}

	switch outcome.State {
	case cpu.STATE_HALTED:
		done = true
		if emu.Verbose {
			log.Printf("emulator: halted after %d ticks", emu.Machine.Ticks)
		}
	case cpu.STATE_NEED_INPUT:
		value, ok := emu.next()
		if !ok {
			err = ErrInputExhausted
			return
		}
		emu.pending = append(emu.pending, value)
	}

	return
}

// Run ticks the emulator until the program halts.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
