package dataset

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// DefaultTestFraction is the share of rows held out for testing.
const DefaultTestFraction = 0.2

// Split is a disjoint train/test partition of a Dataset. The index slices hold
// the row positions of each partition in the source dataset.
type Split struct {
	Train      Dataset
	Test       Dataset
	TrainIndex []int
	TestIndex  []int
}

// SplitDataset shuffles row positions with a source seeded by seed and takes
// the first ceil(testFraction·n) of them as the test partition.
func SplitDataset(ds Dataset, testFraction float64, seed uint64) (*Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("test fraction must be in (0, 1), got %f", testFraction)
	}
	n := len(ds)
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest == 0 || nTest >= n {
		return nil, fmt.Errorf("cannot split %d samples with test fraction %.2f", n, testFraction)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	s := &Split{
		Train:      make(Dataset, 0, n-nTest),
		Test:       make(Dataset, 0, nTest),
		TrainIndex: append([]int(nil), perm[nTest:]...),
		TestIndex:  append([]int(nil), perm[:nTest]...),
	}
	for _, i := range s.TestIndex {
		s.Test = append(s.Test, ds[i])
	}
	for _, i := range s.TrainIndex {
		s.Train = append(s.Train, ds[i])
	}
	return s, nil
}
