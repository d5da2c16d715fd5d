package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/scoutsense/internal/models"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

// MergeOptions controls how yearly raw rows are combined with an engineered table.
type MergeOptions struct {
	// BaseYear is the draft year of the first raw row.
	BaseYear int
	// RowsPerYear is the bucket size used when a raw row has no draft_year.
	RowsPerYear int
	// EngineeredYear is the draft year covered by the engineered table. Raw rows
	// bucketed into this year are dropped in favour of the engineered ones.
	EngineeredYear int
}

func DefaultMergeOptions() MergeOptions {
	return MergeOptions{BaseYear: 2000, RowsPerYear: 224, EngineeredYear: 2009}
}

// Merge combines an engineered single-year table with a multi-year raw table.
// Columns only the engineered table has are filled with 0 on raw rows, and the
// result is ordered by draft_year then draft_pick.
func Merge(engineered, raw *Table, opts MergeOptions) (*Table, error) {
	if opts.RowsPerYear <= 0 {
		return nil, fmt.Errorf("rows per year must be positive, got %d", opts.RowsPerYear)
	}
	log := logger.WithComponent("merge")

	engYears := make([]float64, engineered.Len())
	for i := range engYears {
		engYears[i] = float64(opts.EngineeredYear)
	}
	eng := engineered.WithFloats(models.ColDraftYear, engYears)

	// an explicit draft_year wins, otherwise the row is bucketed by index
	known := raw.Floats(models.ColDraftYear)
	var keep []int
	rawYears := make([]float64, 0, raw.Len())
	for i := 0; i < raw.Len(); i++ {
		year := opts.BaseYear + i/opts.RowsPerYear
		if !math.IsNaN(known[i]) {
			year = int(known[i])
		}
		if year == opts.EngineeredYear {
			continue
		}
		keep = append(keep, i)
		rawYears = append(rawYears, float64(year))
	}
	kept := raw.Subset(keep).WithFloats(models.ColDraftYear, rawYears)

	log.WithFields(logrus.Fields{
		"engineered_rows": eng.Len(),
		"raw_rows":        raw.Len(),
		"raw_kept":        kept.Len(),
	}).Info("Merging draft datasets")

	columns := unionColumns(eng, kept)
	nEng := eng.Len()
	built := make([]series.Series, 0, len(columns))
	for _, col := range columns {
		inEng, inRaw := eng.Has(col), kept.Has(col)
		engineeredOnly := inEng && !inRaw
		numeric := (!inEng || eng.IsNumeric(col)) && (!inRaw || kept.IsNumeric(col))

		if numeric {
			vals := append(eng.Floats(col)[:nEng:nEng], kept.Floats(col)...)
			if engineeredOnly {
				for i, v := range vals {
					if math.IsNaN(v) {
						vals[i] = 0
					}
				}
			}
			built = append(built, series.New(vals, series.Float, col))
			continue
		}

		vals := append(eng.Strings(col)[:nEng:nEng], kept.Strings(col)...)
		if engineeredOnly {
			for i, v := range vals {
				if v == "" {
					vals[i] = "0"
				}
			}
		}
		built = append(built, series.New(vals, series.String, col))
	}

	combined, err := NewTable(dataframe.New(built...))
	if err != nil {
		return nil, fmt.Errorf("failed to combine tables: %w", err)
	}

	combined = combined.Subset(sortOrder(combined))

	for _, col := range combined.Columns() {
		if !strings.HasPrefix(col, models.ColTierPrefix) {
			continue
		}
		vals := combined.Floats(col)
		ints := make([]int, len(vals))
		for i, v := range vals {
			if !math.IsNaN(v) {
				ints[i] = int(v)
			}
		}
		combined = combined.WithInts(col, ints)
	}

	log.WithField("rows", combined.Len()).Info("Merge completed")
	return combined, nil
}

func unionColumns(a, b *Table) []string {
	cols := append([]string{}, a.Columns()...)
	for _, c := range b.Columns() {
		if !a.Has(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// sortOrder orders rows by (draft_year, draft_pick) with missing values last.
func sortOrder(t *Table) []int {
	years := t.Floats(models.ColDraftYear)
	picks := t.Floats(models.ColDraftPick)
	order := make([]int, t.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if c := compareMissingLast(years[ia], years[ib]); c != 0 {
			return c < 0
		}
		return compareMissingLast(picks[ia], picks[ib]) < 0
	})
	return order
}

func compareMissingLast(a, b float64) int {
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return 1
	case math.IsNaN(b):
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
