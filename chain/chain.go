// Package chain connects Intcode machines in series, each on its own
// goroutine, passing every output of one stage to the input of the next.
package chain

import (
	"context"
	"errors"
	"iter"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/intcode/cpu"
	"github.com/ezrec/intcode/translate"
)

var f = translate.From

const (
	CHANNEL_DEPTH    = 16     // Values buffered between stages.
	STAGE_TICK_LIMIT = 10_000 // Instructions between cancellation checks.
)

var (
	ErrNoStages = errors.New(f("no stages"))
	ErrNoSignal = errors.New(f("no signal"))
	ErrStarved  = errors.New(f("stage starved of input"))
)

// tap records the last value a stage output.
type tap struct {
	value int64
	valid bool
}

// stage is one machine in the chain.
type stage struct {
	machine *cpu.Machine
	pending []int64       // Inputs queued before start.
	in      chan int64    // Values from the previous stage.
	done    chan struct{} // Closed when the stage halts.
	prev    *stage
	next    *stage
	tap     *tap // Set on the final stage.
}

// run drives the stage's machine until it halts.
func (st *stage) run(ctx context.Context) (err error) {
	// On failure the group context cancels the neighbours instead.
	defer func() {
		if err == nil {
			close(st.done)
		}
	}()

	pending := st.pending
	for {
		err = ctx.Err()
		if err != nil {
			return
		}

		var outcome cpu.Outcome
		outcome, err = st.machine.Run(pending, 1)
		pending = pending[outcome.Consumed:]
		if errors.Is(err, cpu.ErrTickLimit) {
			err = nil
			continue
		}
		if err != nil {
			return
		}

		for _, value := range outcome.Outputs {
			if st.tap != nil {
				st.tap.value = value
				st.tap.valid = true
			}
			switch st.next {
			case nil:
				continue
			case st:
				// Feeds itself.
				pending = append(pending, value)
				continue
			}
			select {
			case st.next.in <- value:
			case <-st.next.done:
				// Nobody is left to read it.
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		switch outcome.State {
		case cpu.STATE_HALTED:
			return
		case cpu.STATE_NEED_INPUT:
			if len(pending) != 0 {
				continue
			}
			var value int64
			value, err = st.receive(ctx)
			if err != nil {
				return
			}
			pending = append(pending, value)
		}
	}
}

// receive waits for the next value from the previous stage.
func (st *stage) receive(ctx context.Context) (value int64, err error) {
	if st.prev == nil || st.prev == st {
		err = ErrStarved
		return
	}

	select {
	case value = <-st.in:
	case <-st.prev.done:
		err = ctx.Err()
		if err != nil {
			break
		}
		// A finished producer may still have handed off a value.
		select {
		case value = <-st.in:
		default:
			err = ErrStarved
		}
	case <-ctx.Done():
		err = ctx.Err()
	}

	return
}

// Amplify runs one copy of program per phase setting. Each stage first
// receives its phase, and the first stage then receives the signal 0.
// Every output of a stage is sent to the next; with feedback, the last
// stage feeds back into the first. Returns the last value output by the
// last stage once every stage has halted.
func Amplify(ctx context.Context, program cpu.Program, phases []int64, feedback bool) (signal int64, err error) {
	if len(phases) == 0 {
		err = ErrNoStages
		return
	}

	stages := make([]*stage, len(phases))
	for n, phase := range phases {
		var m *cpu.Machine
		m, err = cpu.NewMachine(program)
		if err != nil {
			return
		}
		m.TickLimit = STAGE_TICK_LIMIT
		stages[n] = &stage{
			machine: m,
			pending: []int64{phase},
			in:      make(chan int64, CHANNEL_DEPTH),
			done:    make(chan struct{}),
		}
	}
	stages[0].pending = append(stages[0].pending, 0)

	for n, st := range stages {
		if n > 0 {
			st.prev = stages[n-1]
		}
		if n+1 < len(stages) {
			st.next = stages[n+1]
		}
	}
	if feedback {
		first, last := stages[0], stages[len(stages)-1]
		first.prev = last
		last.next = first
	}

	output := &tap{}
	stages[len(stages)-1].tap = output

	g, gctx := errgroup.WithContext(ctx)
	for _, st := range stages {
		g.Go(func() error {
			return st.run(gctx)
		})
	}

	err = g.Wait()
	if err != nil {
		return
	}

	if !output.valid {
		err = ErrNoSignal
		return
	}

	signal = output.value
	return
}

// Best tries every ordering of the phase settings, returning the highest
// signal and the ordering that produced it.
func Best(ctx context.Context, program cpu.Program, phases []int64, feedback bool) (signal int64, best []int64, err error) {
	for order := range Permutations(phases) {
		var value int64
		value, err = Amplify(ctx, program, order, feedback)
		if err != nil {
			return
		}
		if best == nil || value > signal {
			signal = value
			best = slices.Clone(order)
		}
	}

	if best == nil {
		err = ErrNoStages
	}

	return
}

// Permutations yields every ordering of values (Heap's algorithm). The
// yielded slice is reused between iterations.
func Permutations(values []int64) iter.Seq[[]int64] {
	return func(yield func([]int64) bool) {
		if len(values) == 0 {
			return
		}

		perm := slices.Clone(values)
		count := make([]int, len(perm))

		if !yield(perm) {
			return
		}

		for i := 1; i < len(perm); {
			if count[i] < i {
				if i%2 == 0 {
					perm[0], perm[i] = perm[i], perm[0]
				} else {
					perm[count[i]], perm[i] = perm[i], perm[count[i]]
				}
				if !yield(perm) {
					return
				}
				count[i]++
				i = 1
			} else {
				count[i] = 0
				i++
			}
		}
	}
}
