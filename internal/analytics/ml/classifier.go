package ml

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/scoutsense/internal/analytics/features"
	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/internal/models"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

// DefaultSuccessThreshold is the last draft round that counts as a success.
const DefaultSuccessThreshold = 5

// ForestConfig holds the success classifier's hyperparameters.
type ForestConfig struct {
	NEstimators int
	MaxDepth    int
	Seed        int64
	TestSize    float64
	Workers     int
	Fill        FillPolicy
}

// DefaultForestConfig returns 100 depth-10 trees.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NEstimators: 100,
		MaxDepth:    10,
		Seed:        42,
		TestSize:    0.2,
		Workers:     4,
		Fill:        FillZero,
	}
}

// ClassificationReport summarises one training run.
type ClassificationReport struct {
	RunID       string  `json:"run_id"`
	TrainRows   int     `json:"train_rows"`
	TestRows    int     `json:"test_rows"`
	Features    int     `json:"features"`
	Accuracy    float64 `json:"accuracy"`
	Positives   int     `json:"positives"`
	Total       int     `json:"total"`
	SuccessRate float64 `json:"success_rate"`
}

// SuccessClassifier estimates the probability that a player is drafted
// within the first Threshold rounds.
type SuccessClassifier struct {
	threshold int
	cfg       ForestConfig

	featureCols []string
	fill        []float64
	scaler      *StandardScaler
	model       *RandomForestClassifier
}

// NewSuccessClassifier returns an untrained classifier. A threshold below 1
// falls back to DefaultSuccessThreshold.
func NewSuccessClassifier(threshold int, cfg ForestConfig) *SuccessClassifier {
	if threshold < 1 {
		threshold = DefaultSuccessThreshold
	}
	return &SuccessClassifier{threshold: threshold, cfg: cfg}
}

// Threshold returns the last successful round.
func (c *SuccessClassifier) Threshold() int { return c.threshold }

// Trained reports whether Train has completed successfully.
func (c *SuccessClassifier) Trained() bool { return c.model != nil }

// FeatureCols returns the frozen feature columns, nil before training.
func (c *SuccessClassifier) FeatureCols() []string {
	return append([]string(nil), c.featureCols...)
}

// Label returns a copy of t with an integer success column. The round comes
// from draft_round, or from draft_pick when the table has no round column.
// Rows with no known round are labelled 0.
func (c *SuccessClassifier) Label(t *dataset.Table) *dataset.Table {
	rounds := t.Floats(models.ColDraftRound)
	if !t.Has(models.ColDraftRound) {
		for i, pick := range t.Floats(models.ColDraftPick) {
			rounds[i] = features.RoundForPick(pick)
		}
	}
	labels := make([]int, len(rounds))
	for i, r := range rounds {
		if !math.IsNaN(r) && r <= float64(c.threshold) {
			labels[i] = 1
		}
	}
	return t.WithInts(models.ColSuccess, labels)
}

// Train labels t and fits the forest. The labelled copy is returned; t is
// left untouched.
func (c *SuccessClassifier) Train(ctx context.Context, t *dataset.Table) (*dataset.Table, ClassificationReport, error) {
	log, runID := logger.WithRunID("success_classifier")
	report := ClassificationReport{RunID: runID}

	c.featureCols, c.fill, c.scaler, c.model = nil, nil, nil, nil

	if t.Len() == 0 {
		return nil, report, dataset.ErrEmptyTable
	}
	if !t.Has(models.ColDraftRound) {
		if err := dataset.RequireColumns(t, models.ColDraftPick); err != nil {
			return nil, report, err
		}
	}

	labelled := c.Label(t)
	cols := SelectFeatureColumns(labelled, models.ColDraftRound, models.ColSuccess)
	if len(cols) == 0 {
		return labelled, report, ErrNoFeatures
	}

	y := labelled.Floats(models.ColSuccess)
	X := labelled.Matrix(cols)
	medians := fillMissing(X)

	scaler := &StandardScaler{}
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		return labelled, report, err
	}

	trainIdx, testIdx := TrainTestSplit(len(y), c.cfg.TestSize, c.cfg.Seed)
	model := NewRandomForestClassifier(c.cfg.NEstimators, c.cfg.MaxDepth, c.cfg.Seed, c.cfg.Workers)
	if err := model.Fit(ctx, selectRows(scaled, trainIdx), selectValues(y, trainIdx)); err != nil {
		return labelled, report, err
	}

	report.TrainRows = len(trainIdx)
	report.TestRows = len(testIdx)
	report.Features = len(cols)
	report.Total = len(y)
	for _, v := range y {
		if v == 1 {
			report.Positives++
		}
	}
	report.SuccessRate = float64(report.Positives) / float64(report.Total)
	report.Accuracy = math.NaN()
	if len(testIdx) > 0 {
		pred, err := model.Predict(selectRows(scaled, testIdx))
		if err != nil {
			return labelled, report, err
		}
		report.Accuracy = Accuracy(pred, selectValues(y, testIdx))
	}

	c.featureCols = cols
	c.fill = fillValues(c.cfg.Fill, medians)
	c.scaler = scaler
	c.model = model

	log.WithFields(logrus.Fields{
		"threshold":    c.threshold,
		"train_rows":   report.TrainRows,
		"test_rows":    report.TestRows,
		"features":     report.Features,
		"accuracy":     report.Accuracy,
		"success_rate": report.SuccessRate,
	}).Info("Success classifier trained")

	return labelled, report, nil
}

// PredictProba returns the probability that rec is a success.
func (c *SuccessClassifier) PredictProba(rec models.PlayerRecord) (float64, error) {
	if !c.Trained() {
		return 0, ErrNotTrained
	}
	row, err := c.scaler.TransformRow(featureRow(rec, c.featureCols, c.fill))
	if err != nil {
		return 0, err
	}
	return c.model.PredictProbaRow(row), nil
}

// FeatureImportance returns the topN most important features, descending.
func (c *SuccessClassifier) FeatureImportance(topN int) ([]FeatureImportance, error) {
	if !c.Trained() {
		return nil, ErrNotTrained
	}
	return rankImportances(c.featureCols, c.model.FeatureImportances(), topN), nil
}
