package ml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/scoutsense/internal/analytics/features"
	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/internal/models"
)

func TestSuccessClassifier_Label(t *testing.T) {
	tbl := draftTable(t, 64)
	c := NewSuccessClassifier(5, fastForest())

	labelled := c.Label(tbl)
	rounds := labelled.Floats(models.ColDraftRound)
	for i, s := range labelled.Floats(models.ColSuccess) {
		if rounds[i] <= 5 {
			assert.Equal(t, 1.0, s, "row %d", i)
		} else {
			assert.Equal(t, 0.0, s, "row %d", i)
		}
	}
	assert.False(t, tbl.Has(models.ColSuccess))
}

func TestSuccessClassifier_LabelDerivesRoundFromPick(t *testing.T) {
	tbl, err := dataset.FromRecords([][]string{
		{"draft_pick", "name"},
		{"10", "Early"},
		{"100", "Middle"},
		{"250", "Late"},
		{"", "Unknown"},
	})
	require.NoError(t, err)

	labelled := NewSuccessClassifier(3, fastForest()).Label(tbl)
	assert.Equal(t, []float64{1, 0, 0, 0}, labelled.Floats(models.ColSuccess))
}

func TestSuccessClassifier_DefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultSuccessThreshold, NewSuccessClassifier(0, fastForest()).Threshold())
	assert.Equal(t, 3, NewSuccessClassifier(3, fastForest()).Threshold())
}

func TestSuccessClassifier_Untrained(t *testing.T) {
	c := NewSuccessClassifier(5, fastForest())
	_, err := c.PredictProba(models.PlayerRecord{})
	assert.ErrorIs(t, err, ErrNotTrained)

	_, err = c.FeatureImportance(3)
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestSuccessClassifier_TrainLeavesInputUntouched(t *testing.T) {
	tbl := draftTable(t, 64)
	cols := tbl.Columns()
	c := NewSuccessClassifier(5, fastForest())

	labelled, report, err := c.Train(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, cols, tbl.Columns())
	assert.True(t, labelled.Has(models.ColSuccess))

	// picks 1..189 fall in rounds 1-5
	assert.Equal(t, 64, report.Total)
	assert.Equal(t, 48, report.Positives)
	assert.Equal(t, 0.75, report.SuccessRate)
	assert.Equal(t, 51, report.TrainRows)
	assert.Equal(t, 13, report.TestRows)
	assert.GreaterOrEqual(t, report.Accuracy, 0.0)
	assert.LessOrEqual(t, report.Accuracy, 1.0)

	featureCols := c.FeatureCols()
	assert.NotContains(t, featureCols, models.ColDraftPick)
	assert.NotContains(t, featureCols, models.ColDraftRound)
	assert.NotContains(t, featureCols, models.ColSuccess)
	assert.Contains(t, featureCols, features.ScoutGrade)
}

func TestSuccessClassifier_PredictProba(t *testing.T) {
	tbl := draftTable(t, 64)
	c := NewSuccessClassifier(5, fastForest())
	_, _, err := c.Train(context.Background(), tbl)
	require.NoError(t, err)

	records := tbl.Records()
	for _, rec := range records {
		p, err := c.PredictProba(rec)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}

	first, err := c.PredictProba(records[0])
	require.NoError(t, err)
	last, err := c.PredictProba(records[len(records)-1])
	require.NoError(t, err)
	assert.Greater(t, first, last)

	empty, err := c.PredictProba(models.PlayerRecord{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, empty, 0.0)
	assert.LessOrEqual(t, empty, 1.0)
}

func TestSuccessClassifier_CancelledTraining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewSuccessClassifier(5, fastForest())
	_, _, err := c.Train(ctx, draftTable(t, 32))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.Trained())
}
