package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RMSE is the root mean squared error. Empty input returns NaN.
func RMSE(pred, actual []float64) float64 {
	if len(pred) == 0 || len(pred) != len(actual) {
		return math.NaN()
	}
	return floats.Distance(pred, actual, 2) / math.Sqrt(float64(len(pred)))
}

// R2 is the coefficient of determination of pred against actual. It is NaN
// with fewer than two values.
func R2(pred, actual []float64) float64 {
	if len(pred) < 2 || len(pred) != len(actual) {
		return math.NaN()
	}
	return stat.RSquaredFrom(pred, actual, nil)
}

// Accuracy is the share of positions where pred equals actual.
func Accuracy(pred, actual []float64) float64 {
	if len(pred) == 0 || len(pred) != len(actual) {
		return math.NaN()
	}
	hits := 0
	for i := range pred {
		if pred[i] == actual[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(pred))
}
