package ml

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/internal/models"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

// BoostingConfig holds the draft position predictor's hyperparameters.
type BoostingConfig struct {
	NEstimators  int
	LearningRate float64
	MaxDepth     int
	Seed         int64
	TestSize     float64
	Fill         FillPolicy
}

// DefaultBoostingConfig returns 100 depth-5 stages at learning rate 0.1.
func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{
		NEstimators:  100,
		LearningRate: 0.1,
		MaxDepth:     5,
		Seed:         42,
		TestSize:     0.2,
		Fill:         FillZero,
	}
}

// RegressionReport summarises one training run on the hold-out rows.
type RegressionReport struct {
	RunID     string  `json:"run_id"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	Features  int     `json:"features"`
	RMSE      float64 `json:"rmse"`
	R2        float64 `json:"r2"`
}

// DraftPositionPredictor regresses draft pick number from engineered features.
type DraftPositionPredictor struct {
	cfg BoostingConfig

	featureCols []string
	fill        []float64
	scaler      *StandardScaler
	model       *GradientBoostingRegressor
}

// NewDraftPositionPredictor returns an untrained predictor.
func NewDraftPositionPredictor(cfg BoostingConfig) *DraftPositionPredictor {
	return &DraftPositionPredictor{cfg: cfg}
}

// Trained reports whether Train has completed successfully.
func (p *DraftPositionPredictor) Trained() bool { return p.model != nil }

// FeatureCols returns the frozen feature columns, nil before training.
func (p *DraftPositionPredictor) FeatureCols() []string {
	return append([]string(nil), p.featureCols...)
}

// Train fits the predictor on t, replacing any previous fit. Rows with no
// draft pick are skipped.
func (p *DraftPositionPredictor) Train(ctx context.Context, t *dataset.Table) (RegressionReport, error) {
	log, runID := logger.WithRunID("draft_position_predictor")
	report := RegressionReport{RunID: runID}

	p.featureCols, p.fill, p.scaler, p.model = nil, nil, nil, nil

	if t.Len() == 0 {
		return report, dataset.ErrEmptyTable
	}
	if err := dataset.RequireColumns(t, models.ColDraftPick); err != nil {
		return report, err
	}
	cols := SelectFeatureColumns(t)
	if len(cols) == 0 {
		return report, ErrNoFeatures
	}

	picks := t.Floats(models.ColDraftPick)
	var keep []int
	for i, v := range picks {
		if !math.IsNaN(v) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return report, fmt.Errorf("no rows with a draft pick: %w", dataset.ErrEmptyTable)
	}
	y := selectValues(picks, keep)
	X := selectRows(t.Matrix(cols), keep)
	medians := fillMissing(X)

	scaler := &StandardScaler{}
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		return report, err
	}

	trainIdx, testIdx := TrainTestSplit(len(y), p.cfg.TestSize, p.cfg.Seed)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	model := NewGradientBoostingRegressor(p.cfg.NEstimators, p.cfg.LearningRate, p.cfg.MaxDepth, p.cfg.Seed)
	if err := model.Fit(selectRows(scaled, trainIdx), selectValues(y, trainIdx)); err != nil {
		return report, err
	}

	report.TrainRows = len(trainIdx)
	report.TestRows = len(testIdx)
	report.Features = len(cols)
	report.RMSE, report.R2 = math.NaN(), math.NaN()
	if len(testIdx) > 0 {
		pred, err := model.Predict(selectRows(scaled, testIdx))
		if err != nil {
			return report, err
		}
		actual := selectValues(y, testIdx)
		report.RMSE = RMSE(pred, actual)
		report.R2 = R2(pred, actual)
	}

	p.featureCols = cols
	p.fill = fillValues(p.cfg.Fill, medians)
	p.scaler = scaler
	p.model = model

	log.WithFields(logrus.Fields{
		"train_rows": report.TrainRows,
		"test_rows":  report.TestRows,
		"features":   report.Features,
		"rmse":       report.RMSE,
		"r2":         report.R2,
	}).Info("Draft position model trained")

	return report, nil
}

// Predict returns the predicted pick for rec, never below 1.
func (p *DraftPositionPredictor) Predict(rec models.PlayerRecord) (int, error) {
	if !p.Trained() {
		return 0, ErrNotTrained
	}
	row, err := p.scaler.TransformRow(featureRow(rec, p.featureCols, p.fill))
	if err != nil {
		return 0, err
	}
	v := p.model.PredictRow(row)
	if math.IsNaN(v) {
		return 1, nil
	}
	return max(1, int(math.Round(v))), nil
}

// PredictTable predicts every row of t.
func (p *DraftPositionPredictor) PredictTable(t *dataset.Table) ([]int, error) {
	if !p.Trained() {
		return nil, ErrNotTrained
	}
	out := make([]int, t.Len())
	for i, rec := range t.Records() {
		pick, err := p.Predict(rec)
		if err != nil {
			return nil, err
		}
		out[i] = pick
	}
	return out, nil
}

// FeatureImportance returns the topN most important features, descending.
// Ties keep feature column order. topN <= 0 returns an empty list.
func (p *DraftPositionPredictor) FeatureImportance(topN int) ([]FeatureImportance, error) {
	if !p.Trained() {
		return nil, ErrNotTrained
	}
	return rankImportances(p.featureCols, p.model.FeatureImportances(), topN), nil
}

func rankImportances(cols []string, imps []float64, topN int) []FeatureImportance {
	out := make([]FeatureImportance, len(cols))
	for i, c := range cols {
		out[i] = FeatureImportance{Feature: c, Importance: imps[i]}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Importance > out[b].Importance
	})
	if topN < 0 {
		topN = 0
	}
	if topN < len(out) {
		out = out[:topN]
	}
	return out
}

