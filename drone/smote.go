package drone

import (
	"fmt"
	"math/rand"
	"sort"
)

// Oversample balances the classes by synthesising minority samples along the
// line segments joining each minority sample to one of its k nearest
// same-class neighbours (SMOTE). Original rows come first in the output,
// followed by the synthetic rows of each class in class order.
func Oversample(rows [][]float64, y []int, classes []string, k int, rng *rand.Rand) ([][]float64, []int, error) {
	if len(rows) != len(y) {
		return nil, nil, fmt.Errorf("rows and labels differ in length: %d != %d", len(rows), len(y))
	}
	if k <= 0 {
		return nil, nil, fmt.Errorf("invalid neighbour count: %d", k)
	}

	byClass := make([][]int, len(classes))
	for i, c := range y {
		if c < 0 || c >= len(classes) {
			return nil, nil, fmt.Errorf("row %d has class index %d outside %d classes", i, c, len(classes))
		}
		byClass[c] = append(byClass[c], i)
	}

	target := 0
	for _, members := range byClass {
		target = max(target, len(members))
	}

	outRows := make([][]float64, 0, target*len(classes))
	outY := make([]int, 0, target*len(classes))
	for i, row := range rows {
		outRows = append(outRows, cloneRow(row))
		outY = append(outY, y[i])
	}

	for class, members := range byClass {
		need := target - len(members)
		if need == 0 {
			continue
		}
		if len(members) < k+1 {
			return nil, nil, &InsufficientMinoritySamplesError{
				Class:    classes[class],
				Count:    len(members),
				Required: k + 1,
			}
		}

		neighbours := nearestNeighbours(rows, members, k)
		for n := 0; n < need; n++ {
			pick := rng.Intn(len(members) * k)
			base := rows[members[pick/k]]
			other := rows[neighbours[pick/k][pick%k]]
			gap := rng.Float64()

			synthetic := make([]float64, len(base))
			for j := range base {
				synthetic[j] = base[j] + gap*(other[j]-base[j])
			}
			outRows = append(outRows, synthetic)
			outY = append(outY, class)
		}
	}

	return outRows, outY, nil
}

// nearestNeighbours returns, for each member, the row indices of its k
// closest other members by squared Euclidean distance.
func nearestNeighbours(rows [][]float64, members []int, k int) [][]int {
	type candidate struct {
		index    int
		distance float64
	}

	out := make([][]int, len(members))
	candidates := make([]candidate, 0, len(members)-1)
	for i, a := range members {
		candidates = candidates[:0]
		for j, b := range members {
			if i == j {
				continue
			}
			candidates = append(candidates, candidate{index: b, distance: squaredDistance(rows[a], rows[b])})
		}
		sort.SliceStable(candidates, func(x, y int) bool {
			return candidates[x].distance < candidates[y].distance
		})
		nn := make([]int, k)
		for n := 0; n < k; n++ {
			nn[n] = candidates[n].index
		}
		out[i] = nn
	}
	return out
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneRow(row []float64) []float64 {
	return append([]float64(nil), row...)
}
