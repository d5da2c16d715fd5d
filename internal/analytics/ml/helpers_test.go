package ml

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/scoutsense/internal/analytics/features"
	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

var header = []string{"Draft Pick", "Team", "Name", "Pos", "Age", "Ht", "Wt", "College", "College/Yrs", "Meets"}

var (
	testPositions = []string{"QB", "WR", "OT", "DE", "CB", "LB", "RB", "S"}
	testColleges  = []string{"Alabama", "Georgia", "Ohio St.", "LSU", "USC", "Iowa"}
)

// draftTable builds an engineered table of n synthetic players whose meets
// count falls as the pick number rises.
func draftTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	records := [][]string{header}
	for i := 0; i < n; i++ {
		pick := i*(256/n) + 1
		records = append(records, []string{
			fmt.Sprint(pick),
			fmt.Sprintf("T%02d", i%32),
			fmt.Sprintf("Player %03d", i),
			testPositions[i%len(testPositions)],
			fmt.Sprint(20 + i%5),
			fmt.Sprint(70 + i%7),
			fmt.Sprint(190 + (i*37)%130),
			testColleges[i%len(testColleges)],
			fmt.Sprint(2 + i%4),
			fmt.Sprint(12 - pick/24),
		})
	}
	raw, err := dataset.FromRecords(records)
	require.NoError(t, err)
	out, err := features.Engineer(raw)
	require.NoError(t, err)
	return out
}

func fastBoosting() BoostingConfig {
	cfg := DefaultBoostingConfig()
	cfg.NEstimators = 30
	return cfg
}

func fastForest() ForestConfig {
	cfg := DefaultForestConfig()
	cfg.NEstimators = 25
	return cfg
}
