package roidb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeSplits(t *testing.T) {
	t.Run("default fractions give train and test only", func(t *testing.T) {
		split := EncodeSplits(10, SplitOptions{TrainFrac: 0.7, ValFrac: 0.7})
		assert.Equal(t, []int32{0, 0, 0, 0, 0, 0, 0, 2, 2, 2}, split)
	})

	t.Run("three way split", func(t *testing.T) {
		split := EncodeSplits(10, SplitOptions{TrainFrac: 0.6, ValFrac: 0.8})
		assert.Equal(t, []int32{0, 0, 0, 0, 0, 0, 1, 1, 2, 2}, split)
	})

	t.Run("everything in train", func(t *testing.T) {
		split := EncodeSplits(3, SplitOptions{TrainFrac: 1, ValFrac: 1})
		assert.Equal(t, []int32{0, 0, 0}, split)
	})

	t.Run("no images", func(t *testing.T) {
		assert.Empty(t, EncodeSplits(0, SplitOptions{TrainFrac: 0.7, ValFrac: 0.7}))
	})

	t.Run("shuffle keeps the counts", func(t *testing.T) {
		split := EncodeSplits(100, SplitOptions{TrainFrac: 0.6, ValFrac: 0.8, Shuffle: true, Seed: 7})
		train, val, test := CountSplits(split)
		assert.Equal(t, 60, train)
		assert.Equal(t, 20, val)
		assert.Equal(t, 20, test)
	})

	t.Run("shuffle is reproducible for a seed", func(t *testing.T) {
		opts := SplitOptions{TrainFrac: 0.5, ValFrac: 0.75, Shuffle: true, Seed: 42}
		assert.Equal(t, EncodeSplits(50, opts), EncodeSplits(50, opts))
	})
}

func TestEncodeInputSplits(t *testing.T) {
	split := EncodeInputSplits([]string{"train", "val", "test", "", "other"})
	assert.Equal(t, []int32{0, 1, 2, 0, 0}, split)
}

func TestCountSplits(t *testing.T) {
	train, val, test := CountSplits([]int32{0, 2, 1, 0, 2, 2})
	assert.Equal(t, 2, train)
	assert.Equal(t, 1, val)
	assert.Equal(t, 3, test)
}
