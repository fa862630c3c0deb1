// Package model_selection partitions sample indices into train and test subsets.
package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/irisml/pkg/errors"
	"github.com/YuminosukeSato/irisml/preprocessing"
)

// NewRand returns a PCG-backed generator seeded with seed.
// Equal seeds yield identical streams.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// TrainTestIndices draws one uniform random permutation of 0..n-1 from rng and
// splits it into train and test indices.
//
// len(train) is round(n*(1-testSize)) with halves rounded away from zero and
// len(test) = n - len(train). Both slices keep permutation order, are disjoint
// and together cover 0..n-1. Either may be empty for very small n.
func TrainTestIndices(n int, testSize float64, rng *rand.Rand) (train, test []int, err error) {
	if n <= 0 {
		return nil, nil, errors.NewValidationError("n", "number of samples must be positive", n)
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, nil, errors.NewValidationError("test_size",
			fmt.Sprintf("must be in the open interval (0, 1), got %v", testSize), testSize)
	}
	if rng == nil {
		return nil, nil, errors.NewValidationError("rng", "random source must not be nil", nil)
	}

	nTrain := int(math.Round(float64(n) * (1 - testSize)))
	perm := rng.Perm(n)
	return perm[:nTrain:nTrain], perm[nTrain:], nil
}

// TrainTestSplit partitions ds into train and test subsets using a generator
// seeded with seed. Both subsets keep ds's class order.
func TrainTestSplit(ds *preprocessing.EncodedDataset, testSize float64, seed uint64) (train, test *preprocessing.EncodedDataset, err error) {
	if ds == nil {
		return nil, nil, errors.NewValueError("TrainTestSplit", "dataset must not be nil")
	}
	trainIdx, testIdx, err := TrainTestIndices(ds.Len(), testSize, NewRand(seed))
	if err != nil {
		return nil, nil, err
	}
	return ds.Rows(trainIdx), ds.Rows(testIdx), nil
}
