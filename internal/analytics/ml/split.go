package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// TrainTestSplit shuffles row indexes with a seeded source and holds out
// ceil(testSize*n) of them. Fewer than two rows, or a non-positive testSize,
// puts every row in the training set.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	if n < 2 || testSize <= 0 {
		return perm, nil
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

func selectRows(m *mat.Dense, idx []int) *mat.Dense {
	_, cols := m.Dims()
	if len(idx) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(idx), cols, nil)
	for i, r := range idx {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}

func selectValues(vals []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = vals[r]
	}
	return out
}

func denseRows(m mat.Matrix) [][]float64 {
	rows, _ := m.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
