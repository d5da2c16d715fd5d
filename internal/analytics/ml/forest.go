package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// RandomForestClassifier is a bagged ensemble of gini trees over 0/1 labels.
// Trees are grown in parallel; each draws its seed from a master source
// before dispatch so results do not depend on scheduling.
type RandomForestClassifier struct {
	NEstimators int
	MaxDepth    int
	Seed        int64
	Workers     int

	trees     []*Tree
	nFeatures int
}

// NewRandomForestClassifier returns an unfitted forest.
func NewRandomForestClassifier(nEstimators, maxDepth int, seed int64, workers int) *RandomForestClassifier {
	return &RandomForestClassifier{
		NEstimators: nEstimators,
		MaxDepth:    maxDepth,
		Seed:        seed,
		Workers:     workers,
	}
}

// Fit grows NEstimators bootstrap trees. Labels must be 0 or 1.
func (f *RandomForestClassifier) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return fmt.Errorf("random forest: no training rows")
	}
	if rows != len(y) {
		return fmt.Errorf("random forest: %d rows but %d labels", rows, len(y))
	}
	if f.NEstimators <= 0 || f.MaxDepth <= 0 {
		return fmt.Errorf("random forest: estimators and depth must be positive")
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("random forest: label %v at row %d is not 0 or 1", v, i)
		}
	}

	x := denseRows(X)
	params := treeParams{
		maxDepth:       f.MaxDepth,
		minSamplesLeaf: 1,
		maxFeatures:    max(1, int(math.Sqrt(float64(cols)))),
		criterion:      criterionGini,
	}

	master := rand.New(rand.NewSource(f.Seed))
	seeds := make([]int64, f.NEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*Tree, f.NEstimators)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.Workers, 1))
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			sample := make([]int, rows)
			for j := range sample {
				sample[j] = rng.Intn(rows)
			}
			trees[i] = growTree(x, y, sample, params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("random forest: %w", err)
	}

	f.trees = trees
	f.nFeatures = cols
	return nil
}

// Fitted reports whether Fit has completed.
func (f *RandomForestClassifier) Fitted() bool { return f.trees != nil }

// PredictProbaRow returns the mean positive-class fraction over all trees.
func (f *RandomForestClassifier) PredictProbaRow(row []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.Predict(row)
	}
	return sum / float64(len(f.trees))
}

// PredictProba scores every row of X.
func (f *RandomForestClassifier) PredictProba(X mat.Matrix) ([]float64, error) {
	if !f.Fitted() {
		return nil, ErrNotTrained
	}
	rows, cols := X.Dims()
	if cols != f.nFeatures && rows > 0 {
		return nil, fmt.Errorf("random forest: fitted on %d features, got %d", f.nFeatures, cols)
	}
	out := make([]float64, rows)
	for i, row := range denseRows(X) {
		out[i] = f.PredictProbaRow(row)
	}
	return out, nil
}

// Predict thresholds PredictProba at 0.5.
func (f *RandomForestClassifier) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	for i, p := range proba {
		if p > 0.5 {
			proba[i] = 1
		} else {
			proba[i] = 0
		}
	}
	return proba, nil
}

// FeatureImportances averages per-tree gini importances.
func (f *RandomForestClassifier) FeatureImportances() []float64 {
	return averageImportances(f.trees, f.nFeatures)
}
