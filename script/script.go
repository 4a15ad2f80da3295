// Package script runs Starlark driver scripts against Intcode machines.
//
// A script sees these predeclared names:
//
//	program                 the loaded program, as a list of int
//	machine(prog, capacity) a new machine value
//	parse(text)             comma separated text to a list of int
//	assemble(text)          assembly source to a list of int
//	disassemble(prog)       list of (address, text) tuples
//
// Machine values have the methods run(inputs=[], quota=None), which
// returns a (state, outputs, consumed) tuple, peek(addr), dump(addr,
// count), poke(addr, value) and clone(), plus the attributes ip, relative_base, halted and
// ticks.
package script

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/intcode/cpu"
	"github.com/ezrec/intcode/translate"
)

var f = translate.From

var (
	ErrFrozen     = errors.New(f("machine is frozen"))
	ErrNotProgram = errors.New(f("not a program"))
)

// Script is a Starlark runtime bound to one program.
type Script struct {
	Verbose   bool        // If set, logs each machine run.
	Program   cpu.Program // Bound to `program`.
	Capacity  int64       // Default machine capacity, zero for cpu.MEMORY_CAPACITY.
	TickLimit int         // Instruction budget per run, zero for unlimited.
	Output    io.Writer   // Destination of print(), os.Stdout if nil.
}

// Exec runs a script, returning its globals.
func (sc *Script) Exec(filename string, src any) (globals starlark.StringDict, err error) {
	out := sc.Output
	if out == nil {
		out = os.Stdout
	}

	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(out, msg)
		},
	}

	opts := syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
	}

	globals, err = starlark.ExecFileOptions(&opts, thread, filename, src, sc.predeclared())

	return
}

// predeclared returns the names every script starts with.
func (sc *Script) predeclared() starlark.StringDict {
	return starlark.StringDict{
		"program":     toList(sc.Program),
		"machine":     starlark.NewBuiltin("machine", sc.newMachine),
		"parse":       starlark.NewBuiltin("parse", parse),
		"assemble":    starlark.NewBuiltin("assemble", sc.assemble),
		"disassemble": starlark.NewBuiltin("disassemble", disassemble),
	}
}

// toList converts values to a Starlark list.
func toList(values []int64) *starlark.List {
	elems := make([]starlark.Value, len(values))
	for n, value := range values {
		elems[n] = starlark.MakeInt64(value)
	}
	return starlark.NewList(elems)
}

// toInt64 converts a Starlark int to an int64.
func toInt64(value starlark.Value) (v int64, err error) {
	i, ok := value.(starlark.Int)
	if !ok {
		err = fmt.Errorf("%w: got %s, want int", ErrNotProgram, value.Type())
		return
	}
	v, ok = i.Int64()
	if !ok {
		err = fmt.Errorf("%w: %v out of range", ErrNotProgram, i)
	}
	return
}

// toProgram converts program text, or an iterable of int, to a Program.
func toProgram(value starlark.Value) (prog cpu.Program, err error) {
	if text, ok := value.(starlark.String); ok {
		return cpu.ParseProgram(strings.NewReader(string(text)))
	}

	iterable, ok := value.(starlark.Iterable)
	if !ok {
		err = fmt.Errorf("%w: got %s", ErrNotProgram, value.Type())
		return
	}

	iter := iterable.Iterate()
	defer iter.Done()

	var elem starlark.Value
	for iter.Next(&elem) {
		var v int64
		v, err = toInt64(elem)
		if err != nil {
			return
		}
		prog = append(prog, v)
	}

	return
}

func parse(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
		return nil, err
	}

	prog, err := cpu.ParseProgram(strings.NewReader(text))
	if err != nil {
		return nil, err
	}

	return toList(prog), nil
}

func (sc *Script) assemble(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
		return nil, err
	}

	asm := &cpu.Assembler{Verbose: sc.Verbose}
	prog, err := asm.Parse(strings.NewReader(text))
	if err != nil {
		return nil, err
	}

	return toList(prog), nil
}

func disassemble(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &value); err != nil {
		return nil, err
	}

	prog, err := toProgram(value)
	if err != nil {
		return nil, err
	}

	var lines []starlark.Value
	for addr, text := range prog.Disassemble() {
		lines = append(lines, starlark.Tuple{starlark.MakeInt(addr), starlark.String(text)})
	}

	return starlark.NewList(lines), nil
}

func (sc *Script) newMachine(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	var capacity starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "program", &value, "capacity?", &capacity); err != nil {
		return nil, err
	}

	prog, err := toProgram(value)
	if err != nil {
		return nil, err
	}

	size := sc.Capacity
	if size == 0 {
		size = cpu.MEMORY_CAPACITY
	}
	if capacity != starlark.None {
		size, err = toInt64(capacity)
		if err != nil {
			return nil, err
		}
	}

	m, err := cpu.NewMachineCapacity(prog, size)
	if err != nil {
		return nil, err
	}
	m.Verbose = sc.Verbose
	m.TickLimit = sc.TickLimit

	return &Machine{Machine: m}, nil
}

// Machine is a cpu.Machine as a Starlark value.
type Machine struct {
	*cpu.Machine
	frozen bool
}

var _ starlark.HasAttrs = (*Machine)(nil)

func (m *Machine) String() string {
	return fmt.Sprintf("<machine ip=%d ticks=%d>", m.Ip, m.Ticks)
}

func (m *Machine) Type() string { return "machine" }

func (m *Machine) Freeze() { m.frozen = true }

func (m *Machine) Truth() starlark.Bool { return !starlark.Bool(m.Halted) }

func (m *Machine) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", m.Type())
}

// machineMethods are bound to a Machine on attribute lookup.
var machineMethods = map[string]func(m *Machine, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error){
	"run":   (*Machine).run,
	"peek":  (*Machine).peek,
	"dump":  (*Machine).dump,
	"poke":  (*Machine).poke,
	"clone": (*Machine).clone,
}

func (m *Machine) Attr(name string) (value starlark.Value, err error) {
	switch name {
	case "ip":
		value = starlark.MakeInt64(m.Ip)
	case "relative_base":
		value = starlark.MakeInt64(m.RelativeBase)
	case "halted":
		value = starlark.Bool(m.Halted)
	case "ticks":
		value = starlark.MakeInt(m.Ticks)
	default:
		method, ok := machineMethods[name]
		if !ok {
			// No such attribute.
			return
		}
		value = starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			return method(m, b, args, kwargs)
		})
	}

	return
}

func (m *Machine) AttrNames() []string {
	return []string{"clone", "dump", "halted", "ip", "peek", "poke", "relative_base", "run", "ticks"}
}

func (m *Machine) run(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if m.frozen {
		return nil, ErrFrozen
	}

	var inputs starlark.Value = starlark.NewList(nil)
	var quota starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "inputs?", &inputs, "quota?", &quota); err != nil {
		return nil, err
	}

	values, err := toProgram(inputs)
	if err != nil {
		return nil, err
	}

	limit := cpu.QUOTA_NONE
	if quota != starlark.None {
		var q int64
		q, err = toInt64(quota)
		if err != nil {
			return nil, err
		}
		limit = int(q)
	}

	outcome, err := m.Run(values, limit)
	if err != nil {
		return nil, err
	}

	if m.Verbose {
		log.Printf("script: run %v inputs, quota %v: %v, %v outputs", outcome.Consumed, limit, outcome.State, len(outcome.Outputs))
	}

	return starlark.Tuple{
		starlark.String(outcome.State.String()),
		toList(outcome.Outputs),
		starlark.MakeInt(outcome.Consumed),
	}, nil
}

func (m *Machine) peek(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int64
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr); err != nil {
		return nil, err
	}

	value, err := m.Memory.Read(addr)
	if err != nil {
		return nil, err
	}

	return starlark.MakeInt64(value), nil
}

func (m *Machine) dump(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int64
	var count int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &addr, &count); err != nil {
		return nil, err
	}

	cells, err := m.Memory.Dump(addr, count)
	if err != nil {
		return nil, err
	}

	return toList(cells), nil
}

func (m *Machine) poke(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if m.frozen {
		return nil, ErrFrozen
	}

	var addr, value int64
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &addr, &value); err != nil {
		return nil, err
	}

	err := m.Memory.Write(addr, value)
	if err != nil {
		return nil, err
	}

	return starlark.None, nil
}

func (m *Machine) clone(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}

	return &Machine{Machine: m.Machine.Clone()}, nil
}
