package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/scoutsense/internal/analytics/ml"
	"github.com/stitts-dev/scoutsense/internal/scouting"
)

func writeDraft(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Draft Pick,Team,Name,Pos,Age,Ht,Wt,College,College/Yrs,Meets\n")
	positions := []string{"QB", "WR", "OT", "CB"}
	for i := 0; i < n; i++ {
		pick := i*(256/n) + 1
		fmt.Fprintf(&b, "%d,T%02d,Player %03d,%s,%d,%d,%d,School %d,%d,%d\n",
			pick, i%32, i, positions[i%len(positions)], 20+i%5, 70+i%7, 190+(i*37)%130, i%3, 2+i%4, 12-pick/24)
	}
	path := filepath.Join(t.TempDir(), "draft.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("GBR_N_ESTIMATORS", "10")
	t.Setenv("RF_N_ESTIMATORS", "10")
	t.Setenv("SCOUTSENSE_DATA", "")
	t.Setenv("SCOUTSENSE_DATA_DIR", t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDescribe(t *testing.T) {
	out, err := run(t, "describe", "scout_grade", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "0-100")
	assert.Contains(t, out, "(unknown feature)")
}

func TestPredictAndSimilar(t *testing.T) {
	data := writeDraft(t, 32)

	out, err := run(t, "--data", data, "predict", "player 004")
	require.NoError(t, err)
	assert.Contains(t, out, "Player 004")
	assert.Contains(t, out, "Predicted draft pick")

	out, err = run(t, "--data", data, "similar", "Player 000", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "SIMILARITY")
}

func TestEngineerWritesCSV(t *testing.T) {
	data := writeDraft(t, 8)
	dest := filepath.Join(t.TempDir(), "engineered.csv")

	_, err := run(t, "engineer", "--in", data, "--out", dest)
	require.NoError(t, err)

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "scout_grade")
}

func TestEngineerWithoutInputReportsNoData(t *testing.T) {
	_, err := run(t, "engineer")
	assert.ErrorIs(t, err, scouting.ErrNoData)
	assert.Contains(t, userMessage(err), "No data loaded")
}

func TestFailuresMapToUserMessages(t *testing.T) {
	_, err := run(t, "predict", "anyone")
	assert.ErrorIs(t, err, scouting.ErrNoData)
	assert.Contains(t, userMessage(err), "No data loaded")

	data := writeDraft(t, 16)
	_, err = run(t, "--data", data, "--auto-train=false", "importance")
	assert.ErrorIs(t, err, ml.ErrNotTrained)
	assert.Contains(t, userMessage(err), "No model trained")

	_, err = run(t, "--data", data, "predict", "nobody at all")
	assert.ErrorIs(t, err, ml.ErrPlayerNotFound)
	assert.Equal(t, `No such player: "nobody at all"`, userMessage(err))
}
