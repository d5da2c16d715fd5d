package ml

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/scoutsense/internal/analytics/features"
	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/internal/models"
)

// excludedColumns are identifiers, raw physicals and the regression target.
// They never enter a feature matrix.
var excludedColumns = []string{
	models.ColDraftPick,
	models.ColName,
	models.ColTeam,
	models.ColCollege,
	models.ColPos,
	models.ColPosition,
	models.ColPositionTier,
	models.ColHeight,
	models.ColWeight,
	models.ColAge,
	models.ColMeets,
}

// FillPolicy decides how missing feature values are replaced at inference.
type FillPolicy string

const (
	// FillZero substitutes 0 for a missing feature.
	FillZero FillPolicy = "zero"
	// FillMedian substitutes the training-time median of the column.
	FillMedian FillPolicy = "median"
)

// ParseFillPolicy maps a config string to a FillPolicy.
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch p := FillPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", FillZero:
		return FillZero, nil
	case FillMedian:
		return FillMedian, nil
	default:
		return "", fmt.Errorf("unknown fill policy %q", s)
	}
}

// FeatureImportance pairs a feature column with its normalised importance.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// SelectFeatureColumns returns the numeric columns of t, in table order,
// minus the standard exclusions and any extra names.
func SelectFeatureColumns(t *dataset.Table, extra ...string) []string {
	skip := make(map[string]bool, len(excludedColumns)+len(extra))
	for _, c := range excludedColumns {
		skip[c] = true
	}
	for _, c := range extra {
		skip[c] = true
	}
	var cols []string
	for _, c := range t.NumericColumns() {
		if !skip[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// fillMissing replaces NaN and infinite cells with their column median in
// place and returns the medians. A column with no defined values fills with 0.
func fillMissing(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	medians := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		defined := col[:0:0]
		for _, v := range col {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				defined = append(defined, v)
			}
		}
		med := 0.0
		if len(defined) > 0 {
			med = features.Median(defined)
		}
		medians[j] = med
		for i := 0; i < rows; i++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				m.Set(i, j, med)
			}
		}
	}
	return medians
}

// fillValues is what inference substitutes for each missing column.
func fillValues(policy FillPolicy, medians []float64) []float64 {
	if policy == FillMedian {
		return append([]float64(nil), medians...)
	}
	return make([]float64, len(medians))
}

// featureRow extracts the frozen feature columns from a record.
func featureRow(rec models.PlayerRecord, cols []string, fill []float64) []float64 {
	row := make([]float64, len(cols))
	for j, c := range cols {
		if v, ok := rec.Feature(c); ok {
			row[j] = v
		} else {
			row[j] = fill[j]
		}
	}
	return row
}
