package roidb

import (
	"math/rand"

	"github.com/kuanghuei/scene-graph-TF-release/internal/models"
)

// SplitOptions selects the portion split. Images before int(n*TrainFrac) are
// train, images from int(n*ValFrac) on are test, the rest are val.
type SplitOptions struct {
	TrainFrac float64
	ValFrac   float64
	Shuffle   bool
	Seed      int64
}

// EncodeSplits assigns n images to splits by portion, shuffling the
// assignment with a source seeded by opts.Seed when requested.
func EncodeSplits(n int, opts SplitOptions) []int32 {
	valBegin := int(float64(n) * opts.TrainFrac)
	testBegin := int(float64(n) * opts.ValFrac)

	split := make([]int32, n)
	for i := range split {
		s := models.SplitTrain
		if i >= valBegin {
			s = models.SplitVal
		}
		if i >= testBegin {
			s = models.SplitTest
		}
		split[i] = s
	}

	if opts.Shuffle {
		r := rand.New(rand.NewSource(opts.Seed))
		r.Shuffle(len(split), func(i, j int) {
			split[i], split[j] = split[j], split[i]
		})
	}
	return split
}

// EncodeInputSplits maps split names to split values. Anything other than
// "val" or "test" is train.
func EncodeInputSplits(names []string) []int32 {
	split := make([]int32, len(names))
	for i, name := range names {
		switch name {
		case "val":
			split[i] = models.SplitVal
		case "test":
			split[i] = models.SplitTest
		default:
			split[i] = models.SplitTrain
		}
	}
	return split
}

// CountSplits returns the number of train, val and test images.
func CountSplits(split []int32) (train, val, test int) {
	for _, s := range split {
		switch s {
		case models.SplitTrain:
			train++
		case models.SplitVal:
			val++
		case models.SplitTest:
			test++
		}
	}
	return train, val, test
}
