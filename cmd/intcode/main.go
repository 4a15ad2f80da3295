// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/ezrec/intcode/chain"
	"github.com/ezrec/intcode/config"
	"github.com/ezrec/intcode/cpu"
	"github.com/ezrec/intcode/emulator"
	"github.com/ezrec/intcode/io"
	"github.com/ezrec/intcode/network"
	"github.com/ezrec/intcode/script"
)

const (
	MAX_ROUNDS = 1_000_000 // Network rounds before giving up.
)

// parseList parses a comma separated list of integers.
func parseList(text string) (values []int64, err error) {
	for _, word := range strings.Split(text, ",") {
		word = strings.TrimSpace(word)
		if len(word) == 0 {
			continue
		}
		var value int64
		value, err = strconv.ParseInt(word, 10, 64)
		if err != nil {
			return
		}
		values = append(values, value)
	}
	return
}

// loadProgram reads the program text or assembly source.
func loadProgram(cfg *config.Config) (prog cpu.Program, err error) {
	var name string
	switch {
	case len(cfg.Assembly) > 0:
		name = cfg.Assembly
	case len(cfg.Program) > 0:
		name = cfg.Program
	default:
		err = emulator.ErrNoProgram
		return
	}

	inf, err := os.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	if len(cfg.Assembly) > 0 {
		asm := &cpu.Assembler{Verbose: cfg.Verbose}
		prog, err = asm.Parse(inf)
	} else {
		prog, err = cpu.ParseProgram(inf)
	}
	if err != nil {
		err = fmt.Errorf("%v: %w", name, err)
	}

	return
}

func main() {
	var configPath string
	var disassemble bool
	var best bool
	var input string
	var output string

	cfg := config.Default()
	var phases string
	var inputs string

	flag.StringVar(&configPath, "c", "", "YAML run configuration")
	flag.StringVar(&cfg.Program, "p", "", "Program file, comma separated integers")
	flag.StringVar(&cfg.Assembly, "A", "", "Assembler source file")
	flag.StringVar(&cfg.Script, "s", "", "Starlark driver script")
	flag.StringVar(&input, "i", "-", "Tape input")
	flag.StringVar(&output, "o", "-", "Tape output")
	flag.BoolVar(&cfg.Ascii, "a", false, "ASCII tape mode")
	flag.StringVar(&inputs, "I", "", "Comma separated values input before the tape")
	flag.BoolVar(&disassemble, "d", false, "Disassemble the program, do not execute")
	flag.Int64Var(&cfg.Capacity, "m", cfg.Capacity, "Memory capacity in cells")
	flag.IntVar(&cfg.TickLimit, "t", 0, "Instruction limit, 0 for none")
	flag.IntVar(&cfg.Quota, "q", cfg.Quota, "Outputs per run, -1 for none")
	flag.IntVar(&cfg.Network, "n", 0, "Run a network of this many machines")
	flag.StringVar(&phases, "phases", "", "Run an amplifier chain with these phase settings")
	flag.BoolVar(&cfg.Feedback, "feedback", false, "Feed the last amplifier back into the first")
	flag.BoolVar(&best, "best", false, "Search all orderings of the phase settings")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	// Explicit flags override the configuration file.
	if len(configPath) != 0 {
		flags := *cfg
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("%v: %v", configPath, err)
		}
		cfg = loaded
		flag.Visit(func(fl *flag.Flag) {
			switch fl.Name {
			case "p":
				cfg.Program = flags.Program
				cfg.Assembly = ""
			case "A":
				cfg.Assembly = flags.Assembly
				cfg.Program = ""
			case "s":
				cfg.Script = flags.Script
			case "a":
				cfg.Ascii = flags.Ascii
			case "m":
				cfg.Capacity = flags.Capacity
			case "t":
				cfg.TickLimit = flags.TickLimit
			case "q":
				cfg.Quota = flags.Quota
			case "n":
				cfg.Network = flags.Network
			case "feedback":
				cfg.Feedback = flags.Feedback
			case "v":
				cfg.Verbose = flags.Verbose
			}
		})
	}

	if len(phases) != 0 {
		var err error
		cfg.Phases, err = parseList(phases)
		if err != nil {
			log.Fatalf("-phases: %v", err)
		}
	}
	if len(inputs) != 0 {
		var err error
		cfg.Inputs, err = parseList(inputs)
		if err != nil {
			log.Fatalf("-I: %v", err)
		}
	}

	err := cfg.Validate()
	if err != nil {
		log.Fatal(err)
	}

	var prog cpu.Program
	if len(cfg.Program) > 0 || len(cfg.Assembly) > 0 {
		prog, err = loadProgram(cfg)
		if err != nil {
			log.Fatal(err)
		}
	}

	switch {
	case disassemble:
		for addr, text := range prog.Disassemble() {
			fmt.Printf("%06d: %v\n", addr, text)
		}
	case len(cfg.Script) > 0:
		sc := &script.Script{
			Verbose:   cfg.Verbose,
			Program:   prog,
			Capacity:  cfg.Capacity,
			TickLimit: cfg.TickLimit,
			Output:    os.Stdout,
		}
		_, err = sc.Exec(cfg.Script, nil)
	case cfg.Network > 0:
		err = runNetwork(cfg, prog)
	case len(cfg.Phases) > 0:
		err = runChain(cfg, prog, best)
	default:
		err = runEmulator(cfg, prog, input, output)
	}

	if err != nil {
		log.Fatal(err)
	}
}

// runNetwork reports the first packet to the NAT, and the first value
// the NAT sends twice in a row.
func runNetwork(cfg *config.Config, prog cpu.Program) (err error) {
	nw, err := network.NewNetwork(prog, cfg.Network)
	if err != nil {
		return
	}
	nw.Verbose = cfg.Verbose

	packet, err := nw.FirstNat(MAX_ROUNDS)
	if err != nil {
		return
	}
	fmt.Printf("first NAT packet: x=%d y=%d\n", packet.X, packet.Y)

	nw, err = network.NewNetwork(prog, cfg.Network)
	if err != nil {
		return
	}
	nw.Verbose = cfg.Verbose

	y, err := nw.RepeatedWake(MAX_ROUNDS)
	if err != nil {
		return
	}
	fmt.Printf("repeated NAT wake: y=%d\n", y)

	return
}

// runChain runs the amplifier chain, or searches for its best ordering.
func runChain(cfg *config.Config, prog cpu.Program, best bool) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if best {
		var value int64
		var order []int64
		value, order, err = chain.Best(ctx, prog, cfg.Phases, cfg.Feedback)
		if err != nil {
			return
		}
		fmt.Printf("%d %v\n", value, order)
		return
	}

	value, err := chain.Amplify(ctx, prog, cfg.Phases, cfg.Feedback)
	if err != nil {
		return
	}
	fmt.Println(value)

	return
}

// runEmulator runs a single machine between the input and output tapes.
func runEmulator(cfg *config.Config, prog cpu.Program, input string, output string) (err error) {
	emu := emulator.NewEmulator()
	emu.Program = prog
	emu.Verbose = cfg.Verbose
	emu.Capacity = cfg.Capacity
	emu.Quota = cfg.Quota
	emu.TickLimit = cfg.TickLimit
	defer emu.Close()

	emu.Input = append(emu.Input, &io.Rom{Data: cfg.Inputs})

	tape := &io.Tape{Ascii: cfg.Ascii}

	fd := int(os.Stdin.Fd())
	interactive := cfg.Ascii && input == "-" && output == "-" && term.IsTerminal(fd)
	if interactive {
		var state *term.State
		state, err = term.MakeRaw(fd)
		if err != nil {
			return
		}
		defer term.Restore(fd, state)

		con := io.NewConsole(stdio{}, ">> ")
		defer con.Flush()

		emu.Input = append(emu.Input, con)
		emu.Output = con
	} else {
		if input == "-" {
			tape.Input = os.Stdin
		} else {
			var inf *os.File
			inf, err = os.Open(input)
			if err != nil {
				return
			}
			defer inf.Close()
			tape.Input = inf
		}

		if output == "-" {
			tape.Output = os.Stdout
		} else {
			var ouf *os.File
			ouf, err = os.Create(output)
			if err != nil {
				return
			}
			defer ouf.Close()
			tape.Output = ouf
		}

		emu.Input = append(emu.Input, tape)
		emu.Output = tape
	}

	err = emu.Reset()
	if err != nil {
		return
	}

	err = emu.Run()
	if tape.Err != nil {
		// The syntax error is why input ran out.
		err = tape.Err
	}

	return
}

// stdio joins standard input and output for the console.
type stdio struct{}

func (stdio) Read(data []byte) (int, error) { return os.Stdin.Read(data) }

func (stdio) Write(data []byte) (int, error) { return os.Stdout.Write(data) }
