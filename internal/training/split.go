package training

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// ErrStratify is returned when a class cannot be represented on both sides
// of the train/test split.
var ErrStratify = errors.New("training: stratified split impossible")

// stratifiedSplit partitions row indices so every class keeps its share of
// the test set. Each class is shuffled with a source seeded from seed, so the
// split is reproducible. Every class keeps at least one training row.
func stratifiedSplit(y []int, numClasses int, frac float64, seed int64) (train, test []int, err error) {
	byClass := make([][]int, numClasses)
	for i, k := range y {
		byClass[k] = append(byClass[k], i)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	for k, idx := range byClass {
		n := len(idx)
		if n == 0 {
			continue
		}
		if frac > 0 && n < 2 {
			return nil, nil, fmt.Errorf("%w: class %d has %d sample", ErrStratify, k, n)
		}
		rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(math.Round(frac * float64(n)))
		if frac > 0 && nTest == 0 {
			nTest = 1
		}
		if nTest >= n {
			nTest = n - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}
