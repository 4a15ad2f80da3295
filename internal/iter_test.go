package internal

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSeqConcat(t *testing.T) {
	assert := assert.New(t)

	seq := IterSeqConcat(slices.Values([]int64{1, 2}), slices.Values([]int64{}), slices.Values([]int64{3}))
	assert.Equal([]int64{1, 2, 3}, slices.Collect(seq))

	var got []int64
	for value := range seq {
		got = append(got, value)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal([]int64{1, 2}, got)

	assert.Empty(slices.Collect(IterSeqConcat[int64]()))
}
