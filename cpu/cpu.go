// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"fmt"
	"log"
	"slices"
)

const (
	QUOTA_NONE = -1 // No output quota: run until halt or input starvation.
)

// State is the reason Run returned to the caller.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_HALTED      = State(0) // halted
	STATE_INTERRUPTED = State(1) // interrupted
	STATE_NEED_INPUT  = State(2) // need-input
)

// Outcome is the result of a Run.
type Outcome struct {
	State    State   // Why Run returned.
	Outputs  []int64 // Values output since the previous return.
	Consumed int     // Number of inputs consumed.
}

// Machine is the simulation context of one Intcode machine.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Memory       Memory  // Flat code and data memory.
	Ip           int64   // Address of the next instruction word.
	RelativeBase int64   // Base for relative mode operands.
	Output       []int64 // Outputs not yet handed to the caller.
	Halted       bool    // Set once a halt instruction executes.

	Ticks     int // Instructions executed since creation.
	TickLimit int // Maximum instructions per Run, zero for unlimited.

	pending []int64 // Inputs of the current Run.
	fault   error   // First fatal error, if any.
}

// NewMachine creates a machine with the default memory capacity.
func NewMachine(program []int64) (m *Machine, err error) {
	return NewMachineCapacity(program, MEMORY_CAPACITY)
}

// NewMachineCapacity creates a machine with a specific memory capacity.
func NewMachineCapacity(program []int64, capacity int64) (m *Machine, err error) {
	mem, err := NewMemory(capacity, program)
	if err != nil {
		return
	}

	m = &Machine{
		Memory: *mem,
	}

	return
}

// Clone returns an independent copy of the machine, including memory.
func (m *Machine) Clone() (clone *Machine) {
	clone = &Machine{}
	*clone = *m
	clone.Memory = *m.Memory.Clone()
	clone.Output = append([]int64(nil), m.Output...)
	clone.pending = nil

	return
}

// Fault returns the fatal error that stopped the machine, if any.
func (m *Machine) Fault() error {
	return m.fault
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	next, _ := Disassemble(m.Memory.Data, int(m.Ip))
	if m.Halted {
		next = "(halted)"
	}

	text += fmt.Sprintf("   ip: %d\n", m.Ip)
	text += fmt.Sprintf("   rb: %d\n", m.RelativeBase)
	text += fmt.Sprintf(" next: %v\n", next)
	text += fmt.Sprintf("  out: %v\n", m.Output)
	text += fmt.Sprintf("ticks: %d\n", m.Ticks)

	return
}

// Run executes from the current state until the program halts, quota
// outputs have been produced, or an input instruction finds inputs
// exhausted. A negative quota (QUOTA_NONE) disables the quota; a zero
// quota returns immediately.
//
// On error the machine is unusable, except for ErrTickLimit, after which
// Run may be called again. Only Outcome.Consumed is set on error.
func (m *Machine) Run(inputs []int64, quota int) (outcome Outcome, err error) {
	if m.Halted {
		err = ErrAlreadyHalted
		return
	}
	if m.fault != nil {
		err = m.fault
		return
	}

	m.pending = inputs
	defer func() {
		outcome.Consumed = len(inputs) - len(m.pending)
		m.pending = nil
		if err != nil {
			if !errors.Is(err, ErrTickLimit) {
				m.Output = nil
			}
			return
		}
		outcome.Outputs = m.Output
		m.Output = nil
		if quota >= 0 && len(outcome.Outputs) > quota {
			// Left over from a tick-limited run.
			m.Output = slices.Clone(outcome.Outputs[quota:])
			outcome.Outputs = outcome.Outputs[:quota:quota]
		}
	}()

	for ticks := 0; ; ticks++ {
		if quota >= 0 && len(m.Output) >= quota {
			outcome.State = STATE_INTERRUPTED
			return
		}

		if m.TickLimit > 0 && ticks >= m.TickLimit {
			err = ErrTickLimit
			return
		}

		err = m.Tick()
		switch {
		case errors.Is(err, ErrInputEmpty):
			err = nil
			outcome.State = STATE_NEED_INPUT
			return
		case err != nil:
			return
		case m.Halted:
			outcome.State = STATE_HALTED
			return
		}
	}
}

// RunAll runs with no output quota.
func (m *Machine) RunAll(inputs []int64) (outcome Outcome, err error) {
	return m.Run(inputs, QUOTA_NONE)
}

// Tick executes a single instruction. It returns ErrInputEmpty, without
// changing any state, when an input instruction has no pending input.
func (m *Machine) Tick() (err error) {
	if m.fault != nil {
		return m.fault
	}
	if m.Halted {
		return ErrAlreadyHalted
	}

	ip := m.Ip
	word, err := m.Memory.Read(ip)
	if err == nil {
		err = m.Execute(Code(word))
	}

	if err != nil && !errors.Is(err, ErrInputEmpty) {
		var fault *ErrFault
		if !errors.As(err, &fault) {
			err = &ErrFault{Ip: ip, Code: Code(word), Err: err}
		}
		m.fault = err
	}

	return
}

// Execute executes a single instruction word as if it were at Ip.
func (m *Machine) Execute(code Code) (err error) {
	defer func() {
		if err != nil && !errors.Is(err, ErrInputEmpty) {
			err = &ErrFault{Ip: m.Ip, Code: code, Err: err}
		}
	}()

	inst, err := code.Decode()
	if err != nil {
		return
	}

	if m.Verbose {
		text, _ := Disassemble(m.Memory.Data, int(m.Ip))
		log.Printf("%06d: %v", m.Ip, text)
	}

	next_ip := m.Ip + 1 + int64(inst.Op.Operands())

	switch inst.Op {
	case OP_ADD, OP_MUL, OP_LT, OP_EQ:
		var a, b, dst int64
		a, b, err = m.getValues(inst)
		if err != nil {
			return
		}
		dst, err = m.getAddress(inst, 2)
		if err != nil {
			return
		}
		var value int64
		switch inst.Op {
		case OP_ADD:
			value = a + b
		case OP_MUL:
			value = a * b
		case OP_LT:
			if a < b {
				value = 1
			}
		case OP_EQ:
			if a == b {
				value = 1
			}
		}
		err = m.Memory.Write(dst, value)
		if err != nil {
			err = errors.Join(err, ErrOperand[2])
			return
		}
	case OP_IN:
		if len(m.pending) == 0 {
			// Leave Ip on this instruction.
			return ErrInputEmpty
		}
		var dst int64
		dst, err = m.getAddress(inst, 0)
		if err != nil {
			return
		}
		err = m.Memory.Write(dst, m.pending[0])
		if err != nil {
			err = errors.Join(err, ErrOperand[0])
			return
		}
		m.pending = m.pending[1:]
	case OP_OUT:
		var value int64
		value, err = m.getValue(inst, 0)
		if err != nil {
			return
		}
		m.Output = append(m.Output, value)
	case OP_JT, OP_JF:
		var cond, target int64
		cond, target, err = m.getValues(inst)
		if err != nil {
			return
		}
		if (cond != 0) == (inst.Op == OP_JT) {
			if target < 0 {
				err = errors.Join(ErrAddressOutOfBounds, ErrOperand[1])
				return
			}
			next_ip = target
		}
	case OP_ARB:
		var offset int64
		offset, err = m.getValue(inst, 0)
		if err != nil {
			return
		}
		m.RelativeBase += offset
	case OP_HALT:
		m.Halted = true
		next_ip = m.Ip
	}

	m.Ip = next_ip
	m.Ticks++

	return
}

// operand fetches the raw value of operand n of the instruction at Ip.
func (m *Machine) operand(n int) (value int64, err error) {
	value, err = m.Memory.Read(m.Ip + 1 + int64(n))
	if err != nil {
		err = errors.Join(err, ErrOperand[n])
	}
	return
}

// getValue reads operand n, dereferencing it unless it is immediate.
func (m *Machine) getValue(inst Instruction, n int) (value int64, err error) {
	raw, err := m.operand(n)
	if err != nil {
		return
	}

	switch inst.Modes[n] {
	case MODE_IMMEDIATE:
		value = raw
		return
	case MODE_POSITION:
		value, err = m.Memory.Read(raw)
	case MODE_RELATIVE:
		value, err = m.Memory.Read(m.RelativeBase + raw)
	}
	if err != nil {
		err = errors.Join(err, ErrOperand[n])
	}

	return
}

// getValues reads the first two operands.
func (m *Machine) getValues(inst Instruction) (a, b int64, err error) {
	a, err = m.getValue(inst, 0)
	if err != nil {
		return
	}
	b, err = m.getValue(inst, 1)
	return
}

// getAddress resolves operand n to an effective address for writing.
func (m *Machine) getAddress(inst Instruction, n int) (addr int64, err error) {
	raw, err := m.operand(n)
	if err != nil {
		return
	}

	switch inst.Modes[n] {
	case MODE_POSITION:
		addr = raw
	case MODE_RELATIVE:
		addr = m.RelativeBase + raw
	case MODE_IMMEDIATE:
		err = errors.Join(ErrInvalidWriteTarget, ErrOperand[n])
	}

	return
}
