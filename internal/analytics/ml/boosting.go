package ml

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// GradientBoostingRegressor fits an additive ensemble of regression trees
// under squared loss. Every stage fits a tree to the current residuals and
// adds it scaled by LearningRate.
type GradientBoostingRegressor struct {
	NEstimators  int
	LearningRate float64
	MaxDepth     int
	Seed         int64

	init      float64
	trees     []*Tree
	nFeatures int
}

// NewGradientBoostingRegressor returns an unfitted regressor.
func NewGradientBoostingRegressor(nEstimators int, learningRate float64, maxDepth int, seed int64) *GradientBoostingRegressor {
	return &GradientBoostingRegressor{
		NEstimators:  nEstimators,
		LearningRate: learningRate,
		MaxDepth:     maxDepth,
		Seed:         seed,
	}
}

// Fit trains the ensemble on X and y. Any previous fit is discarded.
func (m *GradientBoostingRegressor) Fit(X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return fmt.Errorf("gradient boosting: no training rows")
	}
	if rows != len(y) {
		return fmt.Errorf("gradient boosting: %d rows but %d targets", rows, len(y))
	}
	if m.NEstimators <= 0 || m.MaxDepth <= 0 {
		return fmt.Errorf("gradient boosting: estimators and depth must be positive")
	}

	x := denseRows(X)
	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}
	params := treeParams{maxDepth: m.MaxDepth, minSamplesLeaf: 1, criterion: criterionMSE}
	rng := rand.New(rand.NewSource(m.Seed))

	m.init = stat.Mean(y, nil)
	m.nFeatures = cols
	m.trees = make([]*Tree, 0, m.NEstimators)

	pred := make([]float64, rows)
	for i := range pred {
		pred[i] = m.init
	}
	residual := make([]float64, rows)
	for stage := 0; stage < m.NEstimators; stage++ {
		floats.SubTo(residual, y, pred)
		tree := growTree(x, residual, all, params, rng)
		for i, row := range x {
			pred[i] += m.LearningRate * tree.Predict(row)
		}
		m.trees = append(m.trees, tree)
	}
	return nil
}

// Fitted reports whether Fit has completed.
func (m *GradientBoostingRegressor) Fitted() bool { return m.trees != nil }

// PredictRow scores one feature vector.
func (m *GradientBoostingRegressor) PredictRow(row []float64) float64 {
	out := m.init
	for _, t := range m.trees {
		out += m.LearningRate * t.Predict(row)
	}
	return out
}

// Predict scores every row of X.
func (m *GradientBoostingRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if !m.Fitted() {
		return nil, ErrNotTrained
	}
	rows, cols := X.Dims()
	if cols != m.nFeatures && rows > 0 {
		return nil, fmt.Errorf("gradient boosting: fitted on %d features, got %d", m.nFeatures, cols)
	}
	out := make([]float64, rows)
	for i, row := range denseRows(X) {
		out[i] = m.PredictRow(row)
	}
	return out, nil
}

// FeatureImportances averages the per-tree impurity importances and
// normalises them to sum to 1. A model that never split returns zeros.
func (m *GradientBoostingRegressor) FeatureImportances() []float64 {
	return averageImportances(m.trees, m.nFeatures)
}

func averageImportances(trees []*Tree, nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	used := 0
	for _, t := range trees {
		if floats.Sum(t.importances) == 0 {
			continue
		}
		floats.Add(out, t.importances)
		used++
	}
	if used == 0 {
		return out
	}
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}
