package drone

import (
	"fmt"
	"math"
	"math/rand"
)

// Partition is one side of a train/test split.
type Partition struct {
	X [][]float64
	Y []int
}

// TrainTestSplit shuffles the rows with rng and holds out ceil(testSize*n)
// of them for evaluation.
func TrainTestSplit(rows [][]float64, y []int, testSize float64, rng *rand.Rand) (Partition, Partition, error) {
	if len(rows) != len(y) {
		return Partition{}, Partition{}, fmt.Errorf("rows and labels differ in length: %d != %d", len(rows), len(y))
	}
	if testSize <= 0 || testSize >= 1 {
		return Partition{}, Partition{}, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}

	nTest := int(math.Ceil(testSize * float64(len(rows))))
	nTrain := len(rows) - nTest
	if nTest == 0 || nTrain == 0 {
		return Partition{}, Partition{}, fmt.Errorf("cannot split %d rows with test size %v", len(rows), testSize)
	}

	perm := rng.Perm(len(rows))
	test := Partition{X: make([][]float64, 0, nTest), Y: make([]int, 0, nTest)}
	train := Partition{X: make([][]float64, 0, nTrain), Y: make([]int, 0, nTrain)}
	for i, idx := range perm {
		if i < nTest {
			test.X = append(test.X, rows[idx])
			test.Y = append(test.Y, y[idx])
			continue
		}
		train.X = append(train.X, rows[idx])
		train.Y = append(train.Y, y[idx])
	}

	return train, test, nil
}
