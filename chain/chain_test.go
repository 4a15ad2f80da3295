package chain

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/intcode/cpu"
)

var (
	series43210 = cpu.Program{3, 15, 3, 16, 1002, 16, 10, 16, 1, 16, 15, 15, 4, 15, 99, 0, 0}
	series54321 = cpu.Program{
		3, 23, 3, 24, 1002, 24, 10, 24, 1002, 23, -1, 23,
		101, 5, 23, 23, 1, 24, 23, 23, 4, 23, 99, 0, 0,
	}
	series65210 = cpu.Program{
		3, 31, 3, 32, 1002, 32, 10, 32, 1001, 31, -2, 31, 1007, 31, 0, 33,
		1002, 33, 7, 33, 1, 33, 31, 31, 1, 32, 31, 31, 4, 31, 99, 0, 0, 0,
	}
	loop139629729 = cpu.Program{
		3, 26, 1001, 26, -4, 26, 3, 27, 1002, 27, 2, 27, 1, 27, 26,
		27, 4, 27, 1001, 28, -1, 28, 1005, 28, 6, 99, 0, 0, 5,
	}
	loop18216 = cpu.Program{
		3, 52, 1001, 52, -5, 52, 3, 53, 1, 52, 56, 54, 1007, 54, 5, 55, 1005, 55, 26, 1001, 54,
		-5, 54, 1105, 1, 12, 1, 53, 54, 53, 1008, 54, 0, 55, 1001, 55, 1, 55, 2, 53, 55, 53, 4,
		53, 1001, 56, -1, 56, 1005, 56, 6, 99, 0, 0, 0, 0, 10,
	}
)

func TestAmplify(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name     string
		program  cpu.Program
		phases   []int64
		feedback bool
		signal   int64
	}){
		{"series_43210", series43210, []int64{4, 3, 2, 1, 0}, false, 43210},
		{"series_54321", series54321, []int64{0, 1, 2, 3, 4}, false, 54321},
		{"series_65210", series65210, []int64{1, 0, 4, 3, 2}, false, 65210},
		{"loop_139629729", loop139629729, []int64{9, 8, 7, 6, 5}, true, 139629729},
		{"loop_18216", loop18216, []int64{9, 7, 8, 5, 6}, true, 18216},
	}

	for _, entry := range table {
		signal, err := Amplify(context.Background(), entry.program, entry.phases, entry.feedback)
		assert.NoError(err, entry.name)
		assert.Equal(entry.signal, signal, entry.name)
	}
}

func TestBest(t *testing.T) {
	assert := assert.New(t)

	signal, best, err := Best(context.Background(), series43210, []int64{0, 1, 2, 3, 4}, false)
	assert.NoError(err)
	assert.Equal(int64(43210), signal)
	assert.Equal([]int64{4, 3, 2, 1, 0}, best)

	signal, best, err = Best(context.Background(), loop139629729, []int64{5, 6, 7, 8, 9}, true)
	assert.NoError(err)
	assert.Equal(int64(139629729), signal)
	assert.Equal([]int64{9, 8, 7, 6, 5}, best)

	_, _, err = Best(context.Background(), series43210, nil, false)
	assert.ErrorIs(err, ErrNoStages)
}

func TestAmplify_Errors(t *testing.T) {
	assert := assert.New(t)

	_, err := Amplify(context.Background(), series43210, nil, false)
	assert.ErrorIs(err, ErrNoStages)

	// Halts without output.
	_, err = Amplify(context.Background(), cpu.Program{3, 0, 99}, []int64{1, 2}, false)
	assert.ErrorIs(err, ErrNoSignal)

	// Wants a third input the first stage never gets.
	_, err = Amplify(context.Background(), cpu.Program{3, 0, 3, 0, 3, 0, 99}, []int64{1}, false)
	assert.ErrorIs(err, ErrStarved)

	// Faults on an invalid opcode.
	_, err = Amplify(context.Background(), cpu.Program{3, 0, 42}, []int64{1, 2}, false)
	assert.ErrorIs(err, cpu.ErrInvalidOpcode)
}

func TestAmplify_Cancel(t *testing.T) {
	assert := assert.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Echo forever around the loop.
	echo := cpu.Program{3, 0, 4, 0, 1105, 1, 0}
	_, err := Amplify(ctx, echo, []int64{1, 2}, true)
	assert.ErrorIs(err, context.Canceled)
}

func TestAmplify_CancelSpinning(t *testing.T) {
	assert := assert.New(t)

	// Loops forever without input or output.
	spin := cpu.Program{1105, 1, 0}

	for _, feedback := range []bool{false, true} {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		start := time.Now()
		_, err := Amplify(ctx, spin, []int64{1, 2}, feedback)
		cancel()

		assert.ErrorIs(err, context.DeadlineExceeded)
		assert.Less(time.Since(start), 5*time.Second)
	}
}

func TestAmplify_SelfFeedback(t *testing.T) {
	assert := assert.New(t)

	// Reads the phase, outputs 1 through 20, reads the signal, then
	// echoes the first value fed back to it.
	counter := cpu.Program{
		3, 100,
		1001, 101, 1, 101,
		4, 101,
		1007, 101, 20, 102,
		1005, 102, 2,
		3, 103,
		3, 104,
		4, 104,
		99,
	}

	signal, err := Amplify(context.Background(), counter, []int64{5}, true)
	assert.NoError(err)
	assert.Equal(int64(1), signal)

	// Nothing else can feed it.
	_, err = Amplify(context.Background(), cpu.Program{3, 0, 3, 0, 3, 0, 99}, []int64{1}, true)
	assert.ErrorIs(err, ErrStarved)
}

func TestPermutations(t *testing.T) {
	assert := assert.New(t)

	var seen [][]int64
	for perm := range Permutations([]int64{0, 1, 2, 3, 4}) {
		seen = append(seen, slices.Clone(perm))
	}
	assert.Len(seen, 120)

	slices.SortFunc(seen, slices.Compare)
	seen = slices.CompactFunc(seen, slices.Equal)
	assert.Len(seen, 120)

	count := 0
	for range Permutations([]int64{1, 2, 3}) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)

	for range Permutations(nil) {
		assert.Fail("empty set has no orderings")
	}
}
