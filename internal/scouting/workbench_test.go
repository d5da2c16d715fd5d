package scouting

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/scoutsense/internal/analytics/features"
	"github.com/stitts-dev/scoutsense/internal/analytics/ml"
	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/pkg/config"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

var positions = []string{"QB", "WR", "OT", "DE", "CB", "LB"}

func rawCSV(n int) string {
	var b strings.Builder
	b.WriteString("Draft Pick,Team,Name,Pos,Age,Ht,Wt,College,College/Yrs,Meets\n")
	for i := 0; i < n; i++ {
		pick := i*(256/n) + 1
		fmt.Fprintf(&b, "%d,T%02d,Player %03d,%s,%d,%d,%d,School %d,%d,%d\n",
			pick, i%32, i, positions[i%len(positions)], 20+i%5, 70+i%7, 190+(i*37)%130, i%5, 2+i%4, 12-pick/24)
	}
	return b.String()
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Boosting.NEstimators = 20
	opts.Forest.NEstimators = 15
	return opts
}

func loadedWorkbench(t *testing.T, n int) *Workbench {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(rawCSV(n)))
	require.NoError(t, err)
	w := New(fastOptions())
	require.NoError(t, w.LoadTable(tbl))
	return w
}

func TestWorkbench_RequiresData(t *testing.T) {
	w := New(fastOptions())

	_, err := w.Train(context.Background())
	assert.ErrorIs(t, err, ErrNoData)

	_, err = w.Predict("anyone")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = w.Similar("anyone", 3, true)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = w.PositionLeaders(3, 3)
	assert.ErrorIs(t, err, ErrNoData)

	assert.ErrorIs(t, w.LoadTable(nil), ErrNoData)
}

func TestWorkbench_RequiresTraining(t *testing.T) {
	w := loadedWorkbench(t, 48)
	assert.False(t, w.Trained())
	assert.True(t, features.IsEngineered(w.Table()), "loading engineers raw tables")

	_, err := w.Predict("Player 001")
	assert.ErrorIs(t, err, ml.ErrNotTrained)
	_, err = w.Compare([]string{"Player 001"})
	assert.ErrorIs(t, err, ml.ErrNotTrained)
	_, err = w.Importance(5)
	assert.ErrorIs(t, err, ml.ErrNotTrained)
	_, _, err = w.Valuation(5)
	assert.ErrorIs(t, err, ml.ErrNotTrained)
	_, err = w.SuccessByRound()
	assert.ErrorIs(t, err, ml.ErrNotTrained)

	groups, err := w.PositionLeaders(2, 2)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestWorkbench_TrainAndQuery(t *testing.T) {
	w := loadedWorkbench(t, 48)

	report, err := w.Train(context.Background())
	require.NoError(t, err)
	assert.True(t, w.Trained())
	assert.Equal(t, 48, report.ComparedRows)
	assert.Equal(t, 48, report.Classification.Total)
	assert.NotEqual(t, report.Regression.RunID, report.Classification.RunID)
	assert.False(t, w.Table().Has("success"), "training does not label the shared table")

	pred, err := w.Predict("player 002")
	require.NoError(t, err)
	assert.Equal(t, "Player 002", pred.Player.Name)
	assert.GreaterOrEqual(t, pred.PredictedPick, 1)
	assert.GreaterOrEqual(t, pred.SuccessProbability, 0.0)
	assert.LessOrEqual(t, pred.SuccessProbability, 1.0)
	assert.Equal(t, ml.DefaultSuccessThreshold, pred.Threshold)

	_, err = w.Predict("nobody")
	assert.ErrorIs(t, err, ml.ErrPlayerNotFound)

	similar, err := w.Similar("Player 000", 3, true)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(similar), 3)
	for _, s := range similar {
		assert.Equal(t, "QB", s.Pos)
	}

	recs, err := w.Compare([]string{"Player 005", "ghost", "Player 001"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Player 005", recs[0].Name)

	imp, err := w.Importance(4)
	require.NoError(t, err)
	assert.Len(t, imp, 4)

	over, under, err := w.Valuation(3)
	require.NoError(t, err)
	assert.Len(t, over, 3)
	assert.Len(t, under, 3)
	assert.GreaterOrEqual(t, over[0].PickDifference, under[0].PickDifference)

	rounds, err := w.SuccessByRound()
	require.NoError(t, err)
	assert.NotEmpty(t, rounds)
	for _, r := range rounds {
		assert.GreaterOrEqual(t, r.Round, 1)
		assert.LessOrEqual(t, r.Round, 7)
	}
}

func TestWorkbench_ReloadDropsModels(t *testing.T) {
	w := loadedWorkbench(t, 24)
	_, err := w.Train(context.Background())
	require.NoError(t, err)

	tbl, err := dataset.ReadCSV(strings.NewReader(rawCSV(12)))
	require.NoError(t, err)
	require.NoError(t, w.LoadTable(tbl))
	assert.False(t, w.Trained())
}

func TestWorkbench_CancelledTrainingKeepsNothing(t *testing.T) {
	w := loadedWorkbench(t, 24)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Train(ctx)
	assert.Error(t, err)
	assert.False(t, w.Trained())
}

func TestWorkbench_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "draft.csv")
	require.NoError(t, os.WriteFile(path, []byte(rawCSV(16)), 0o644))

	w := New(fastOptions())
	require.NoError(t, w.Load(path))
	assert.Equal(t, path, w.Source())
	assert.Equal(t, 16, w.Table().Len())

	assert.Error(t, w.Load(filepath.Join(dir, "missing.csv")))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		SuccessThreshold: 3,
		RandomSeed:       7,
		TestSize:         0.25,
		TrainWorkers:     2,
		InferenceFill:    "median",
		GBRNEstimators:   50,
		GBRLearningRate:  0.05,
		GBRMaxDepth:      4,
		RFNEstimators:    60,
		RFMaxDepth:       8,
	}
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, opts.SuccessThreshold)
	assert.Equal(t, ml.FillMedian, opts.Boosting.Fill)
	assert.Equal(t, 50, opts.Boosting.NEstimators)
	assert.Equal(t, int64(7), opts.Forest.Seed)
	assert.Equal(t, 2, opts.Forest.Workers)

	cfg.InferenceFill = "mode"
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}

func TestResolveDataPath(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("draft_pick\n1\n"), 0o644))
		return p
	}

	_, err := ResolveDataPath("", "", dir)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = ResolveDataPath("", "", "")
	assert.ErrorIs(t, err, ErrNoData)

	zeta := write("zeta.csv")
	alpha := write("alpha.csv")
	got, err := ResolveDataPath("", "", dir)
	require.NoError(t, err)
	assert.Equal(t, alpha, got)

	def := write("default_data.csv")
	got, err = ResolveDataPath("", "", dir)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	combined := write("nfl_draft_combined.csv")
	got, err = ResolveDataPath("", "", dir)
	require.NoError(t, err)
	assert.Equal(t, combined, got)

	got, err = ResolveDataPath("", zeta, dir)
	require.NoError(t, err)
	assert.Equal(t, zeta, got)

	got, err = ResolveDataPath(alpha, zeta, dir)
	require.NoError(t, err)
	assert.Equal(t, alpha, got)

	_, err = ResolveDataPath(filepath.Join(dir, "missing.csv"), "", dir)
	assert.Error(t, err)
}
