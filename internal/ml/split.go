package ml

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// StratifiedSplit partitions the dataset into train and test sets while
// preserving the label balance of each class. Shuffling is driven by the
// seed so repeated splits of identical input are identical.
func StratifiedSplit(x [][]float64, y []int, testFraction float64, seed int64) (xTrain, xTest [][]float64, yTrain, yTest []int, err error) {
	if len(x) != len(y) || len(x) == 0 {
		return nil, nil, nil, nil, errors.Errorf("invalid dataset: %d rows, %d labels", len(x), len(y))
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, nil, nil, errors.Errorf("test fraction must be in (0,1), got %v", testFraction)
	}

	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	var testIdx, trainIdx []int
	for _, c := range classes {
		indices := byClass[c]
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})

		nTest := int(math.Round(testFraction * float64(len(indices))))
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}
		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}

	// Keep row order stable regardless of class iteration.
	sort.Ints(testIdx)
	sort.Ints(trainIdx)

	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, nil, nil, nil, errors.New("dataset too small to split")
	}

	for _, i := range trainIdx {
		xTrain = append(xTrain, x[i])
		yTrain = append(yTrain, y[i])
	}
	for _, i := range testIdx {
		xTest = append(xTest, x[i])
		yTest = append(yTest, y[i])
	}

	return xTrain, xTest, yTrain, yTest, nil
}
