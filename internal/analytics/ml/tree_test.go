package ml

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func column(vals ...float64) [][]float64 {
	out := make([][]float64, len(vals))
	for i, v := range vals {
		out[i] = []float64{v}
	}
	return out
}

func allRows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestGrowTree_StepFunction(t *testing.T) {
	x := column(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	y := []float64{0, 0, 0, 0, 0, 10, 10, 10, 10, 10}

	tree := growTree(x, y, allRows(10), treeParams{maxDepth: 3, criterion: criterionMSE}, rand.New(rand.NewSource(1)))

	assert.Equal(t, 1, tree.Depth(), "a perfect split stops growth")
	assert.Equal(t, 4.5, tree.root.threshold)
	assert.Equal(t, 0.0, tree.Predict([]float64{2}))
	assert.Equal(t, 10.0, tree.Predict([]float64{7}))
	assert.Equal(t, []float64{1}, tree.importances)
}

func TestGrowTree_ConstantTargetIsALeaf(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	tree := growTree(x, []float64{7, 7, 7}, allRows(3), treeParams{maxDepth: 5}, rand.New(rand.NewSource(1)))

	assert.Equal(t, 0, tree.Depth())
	assert.Equal(t, 7.0, tree.Predict([]float64{100, 100}))
	assert.Equal(t, []float64{0, 0}, tree.importances)
}

func TestGrowTree_RespectsMaxDepth(t *testing.T) {
	x := column(1, 2, 3, 4, 5, 6, 7, 8)
	y := []float64{1, 4, 9, 16, 25, 36, 49, 64}

	tree := growTree(x, y, allRows(8), treeParams{maxDepth: 2}, rand.New(rand.NewSource(1)))
	assert.LessOrEqual(t, tree.Depth(), 2)
}

func TestGrowTree_GiniLeavesAreFractions(t *testing.T) {
	// duplicate rows from a bootstrap count as separate samples
	x := column(0, 0, 1)
	y := []float64{1, 0, 1}
	tree := growTree(x, y, []int{0, 1, 1, 2}, treeParams{maxDepth: 1, criterion: criterionGini}, rand.New(rand.NewSource(1)))

	assert.InDelta(t, 1.0/3, tree.Predict([]float64{0}), 1e-12)
	assert.Equal(t, 1.0, tree.Predict([]float64{1}))
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.2, 42)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
	assert.ElementsMatch(t, allRows(10), append(append([]int(nil), train...), test...))

	train2, test2 := TrainTestSplit(10, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	// ceil(0.2*11) = 3
	_, test = TrainTestSplit(11, 0.2, 42)
	assert.Len(t, test, 3)

	train, test = TrainTestSplit(1, 0.2, 42)
	assert.Equal(t, []int{0}, train)
	assert.Empty(t, test)

	train, test = TrainTestSplit(5, 0, 42)
	assert.Len(t, train, 5)
	assert.Empty(t, test)
}

func TestMetrics(t *testing.T) {
	assert.InDelta(t, math.Sqrt(2.0/3), RMSE([]float64{1, 2, 3}, []float64{1, 3, 4}), 1e-12)
	assert.True(t, math.IsNaN(RMSE(nil, nil)))

	assert.InDelta(t, 1.0, R2([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-12)
	assert.True(t, math.IsNaN(R2([]float64{1}, []float64{1})))

	assert.Equal(t, 0.75, Accuracy([]float64{1, 0, 1, 1}, []float64{1, 0, 0, 1}))
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
	})
	s := &StandardScaler{}
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 5}, s.Mean)
	assert.Equal(t, 1.0, s.Scale[1], "constant columns keep unit scale")
	assert.InDelta(t, -math.Sqrt(1.5), out.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, out.At(2, 1))

	row, err := s.TransformRow([]float64{2, 6})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, row)

	_, err = s.TransformRow([]float64{1})
	assert.Error(t, err)

	_, err = (&StandardScaler{}).TransformRow([]float64{1})
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestGradientBoostingRegressor_FitsSignal(t *testing.T) {
	rows := 40
	data := make([]float64, 0, rows*2)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		data = append(data, float64(i), 3)
		y[i] = 3 * float64(i)
	}
	X := mat.NewDense(rows, 2, data)

	m := NewGradientBoostingRegressor(100, 0.1, 3, 42)
	require.NoError(t, m.Fit(X, y))

	pred, err := m.Predict(X)
	require.NoError(t, err)
	assert.Less(t, RMSE(pred, y), 5.0)

	imp := m.FeatureImportances()
	assert.InDelta(t, 1.0, imp[0], 1e-12)
	assert.Equal(t, 0.0, imp[1], "a constant column never splits")
}

func TestGradientBoostingRegressor_Errors(t *testing.T) {
	m := NewGradientBoostingRegressor(10, 0.1, 3, 42)
	_, err := m.Predict(mat.NewDense(1, 1, nil))
	assert.ErrorIs(t, err, ErrNotTrained)

	assert.Error(t, m.Fit(mat.NewDense(2, 1, nil), []float64{1}))
}

func forestData() (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(7))
	rows := 60
	data := make([]float64, 0, rows*3)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		v := float64(i) / float64(rows)
		data = append(data, v, rng.Float64(), rng.Float64())
		if v > 0.5 {
			y[i] = 1
		}
	}
	return mat.NewDense(rows, 3, data), y
}

func TestRandomForestClassifier_SeparatesClasses(t *testing.T) {
	X, y := forestData()
	f := NewRandomForestClassifier(30, 10, 42, 4)
	require.NoError(t, f.Fit(context.Background(), X, y))

	assert.Greater(t, f.PredictProbaRow([]float64{0.95, 0.5, 0.5}), 0.5)
	assert.Less(t, f.PredictProbaRow([]float64{0.05, 0.5, 0.5}), 0.5)

	pred, err := f.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, Accuracy(pred, y), 0.9)

	imp := f.FeatureImportances()
	assert.Greater(t, imp[0], imp[1])
	assert.Greater(t, imp[0], imp[2])
}

func TestRandomForestClassifier_DeterministicAcrossWorkers(t *testing.T) {
	X, y := forestData()
	serial := NewRandomForestClassifier(20, 6, 42, 1)
	parallel := NewRandomForestClassifier(20, 6, 42, 8)
	require.NoError(t, serial.Fit(context.Background(), X, y))
	require.NoError(t, parallel.Fit(context.Background(), X, y))

	a, err := serial.PredictProba(X)
	require.NoError(t, err)
	b, err := parallel.PredictProba(X)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRandomForestClassifier_Errors(t *testing.T) {
	X, y := forestData()
	f := NewRandomForestClassifier(10, 5, 42, 2)

	_, err := f.PredictProba(X)
	assert.ErrorIs(t, err, ErrNotTrained)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.Fit(ctx, X, y), context.Canceled)
	assert.False(t, f.Fitted())

	bad := append([]float64(nil), y...)
	bad[0] = 2
	assert.Error(t, f.Fit(context.Background(), X, bad))
}
