package scouting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stitts-dev/scoutsense/internal/analytics/features"
	"github.com/stitts-dev/scoutsense/internal/analytics/ml"
	"github.com/stitts-dev/scoutsense/internal/analytics/valuation"
	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/internal/models"
	"github.com/stitts-dev/scoutsense/pkg/config"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

// ErrNoData is returned by every operation that needs a loaded table.
var ErrNoData = errors.New("no data loaded")

// Options configures the models a Workbench trains.
type Options struct {
	SuccessThreshold int
	Boosting         ml.BoostingConfig
	Forest           ml.ForestConfig
	MatchPolicy      ml.MatchPolicy
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		SuccessThreshold: ml.DefaultSuccessThreshold,
		Boosting:         ml.DefaultBoostingConfig(),
		Forest:           ml.DefaultForestConfig(),
		MatchPolicy:      ml.MatchSubstring,
	}
}

// OptionsFromConfig builds Options from loaded settings.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	fill, err := ml.ParseFillPolicy(cfg.InferenceFill)
	if err != nil {
		return Options{}, err
	}
	opts := DefaultOptions()
	opts.SuccessThreshold = cfg.SuccessThreshold
	opts.Boosting = ml.BoostingConfig{
		NEstimators:  cfg.GBRNEstimators,
		LearningRate: cfg.GBRLearningRate,
		MaxDepth:     cfg.GBRMaxDepth,
		Seed:         cfg.RandomSeed,
		TestSize:     cfg.TestSize,
		Fill:         fill,
	}
	opts.Forest = ml.ForestConfig{
		NEstimators: cfg.RFNEstimators,
		MaxDepth:    cfg.RFMaxDepth,
		Seed:        cfg.RandomSeed,
		TestSize:    cfg.TestSize,
		Workers:     cfg.TrainWorkers,
		Fill:        fill,
	}
	return opts, nil
}

// TrainingReport collects the diagnostics of one Train call.
type TrainingReport struct {
	Regression     ml.RegressionReport     `json:"regression"`
	Classification ml.ClassificationReport `json:"classification"`
	ComparedRows   int                     `json:"compared_rows"`
	Duration       time.Duration           `json:"duration"`
}

// Prediction is the draft outlook for one player.
type Prediction struct {
	Player             models.PlayerRecord `json:"player"`
	PredictedPick      int                 `json:"predicted_pick"`
	SuccessProbability float64             `json:"success_probability"`
	Threshold          int                 `json:"threshold"`
}

// Workbench loads a draft table, trains every model on it and answers
// player queries. Loading a new table drops any trained models.
type Workbench struct {
	opts Options
	log  *logrus.Entry

	mu         sync.RWMutex
	source     string
	table      *dataset.Table
	predictor  *ml.DraftPositionPredictor
	classifier *ml.SuccessClassifier
	comparator *ml.Comparator
}

// New returns an empty workbench.
func New(opts Options) *Workbench {
	return &Workbench{
		opts: opts,
		log:  logger.WithComponent("workbench"),
	}
}

// Load reads a CSV file and installs it as the working table.
func (w *Workbench) Load(path string) error {
	t, err := dataset.LoadCSV(path)
	if err != nil {
		return err
	}
	return w.install(path, t)
}

// LoadTable installs an in-memory table.
func (w *Workbench) LoadTable(t *dataset.Table) error {
	return w.install("", t)
}

func (w *Workbench) install(source string, t *dataset.Table) error {
	if t == nil || t.Len() == 0 {
		return fmt.Errorf("%w: table is empty", ErrNoData)
	}
	if !features.IsEngineered(t) {
		engineered, err := features.Engineer(t)
		if err != nil {
			return fmt.Errorf("engineering features: %w", err)
		}
		t = engineered
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.source = source
	w.table = t
	w.predictor, w.classifier, w.comparator = nil, nil, nil

	w.log.WithFields(logrus.Fields{
		"source": source,
		"rows":   t.Len(),
	}).Info("Draft table loaded")
	return nil
}

// Table returns the working table, nil when nothing is loaded.
func (w *Workbench) Table() *dataset.Table {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.table
}

// Source returns the path the table was loaded from, empty for in-memory
// tables.
func (w *Workbench) Source() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.source
}

// Trained reports whether the models are ready for queries.
func (w *Workbench) Trained() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.predictor != nil
}

// Train fits the predictor, the classifier and the comparator concurrently.
// None of them mutates the shared table. On failure the previous models are
// kept.
func (w *Workbench) Train(ctx context.Context) (TrainingReport, error) {
	var report TrainingReport

	w.mu.RLock()
	t := w.table
	w.mu.RUnlock()
	if t == nil {
		return report, ErrNoData
	}

	start := time.Now()
	predictor := ml.NewDraftPositionPredictor(w.opts.Boosting)
	classifier := ml.NewSuccessClassifier(w.opts.SuccessThreshold, w.opts.Forest)
	var comparator *ml.Comparator

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := predictor.Train(gctx, t)
		if err != nil {
			return fmt.Errorf("draft position predictor: %w", err)
		}
		report.Regression = r
		return nil
	})
	g.Go(func() error {
		_, r, err := classifier.Train(gctx, t)
		if err != nil {
			return fmt.Errorf("success classifier: %w", err)
		}
		report.Classification = r
		return nil
	})
	g.Go(func() error {
		c, err := ml.NewComparator(t, ml.WithMatchPolicy(w.opts.MatchPolicy))
		if err != nil {
			return fmt.Errorf("comparator: %w", err)
		}
		comparator = c
		report.ComparedRows = c.Len()
		return nil
	})
	if err := g.Wait(); err != nil {
		w.log.WithError(err).Warn("Training failed")
		return report, err
	}
	report.Duration = time.Since(start)

	w.mu.Lock()
	w.predictor, w.classifier, w.comparator = predictor, classifier, comparator
	w.mu.Unlock()

	w.log.WithFields(logrus.Fields{
		"rows":     t.Len(),
		"rmse":     report.Regression.RMSE,
		"accuracy": report.Classification.Accuracy,
		"duration": report.Duration,
	}).Info("Models trained")
	return report, nil
}

// components returns the trained components or the error explaining why there
// are none.
func (w *Workbench) components() (*ml.DraftPositionPredictor, *ml.SuccessClassifier, *ml.Comparator, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.table == nil {
		return nil, nil, nil, ErrNoData
	}
	if w.predictor == nil {
		return nil, nil, nil, ml.ErrNotTrained
	}
	return w.predictor, w.classifier, w.comparator, nil
}

// Predict returns the predicted pick and success probability of the first
// player whose name matches.
func (w *Workbench) Predict(name string) (Prediction, error) {
	predictor, classifier, comparator, err := w.components()
	if err != nil {
		return Prediction{}, err
	}
	rec, err := comparator.Resolve(ml.ByName(name))
	if err != nil {
		return Prediction{}, err
	}
	pick, err := predictor.Predict(rec)
	if err != nil {
		return Prediction{}, err
	}
	proba, err := classifier.PredictProba(rec)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{
		Player:             rec,
		PredictedPick:      pick,
		SuccessProbability: proba,
		Threshold:          classifier.Threshold(),
	}, nil
}

// Similar finds the n players closest to the named one.
func (w *Workbench) Similar(name string, n int, positionOnly bool) ([]ml.SimilarPlayer, error) {
	_, _, comparator, err := w.components()
	if err != nil {
		return nil, err
	}
	return comparator.FindSimilarPlayers(ml.ByName(name), n, positionOnly)
}

// Compare returns the named players side by side.
func (w *Workbench) Compare(names []string) ([]models.PlayerRecord, error) {
	_, _, comparator, err := w.components()
	if err != nil {
		return nil, err
	}
	return comparator.ComparePlayers(names)
}

// Importance returns the n features that drive the pick prediction most.
func (w *Workbench) Importance(n int) ([]ml.FeatureImportance, error) {
	predictor, _, _, err := w.components()
	if err != nil {
		return nil, err
	}
	return predictor.FeatureImportance(n)
}

// Valuation returns the n most overvalued and n most undervalued picks.
func (w *Workbench) Valuation(n int) (over, under []valuation.PickValue, err error) {
	predictor, _, _, err := w.components()
	if err != nil {
		return nil, nil, err
	}
	ranking, err := valuation.RankPicks(w.Table(), predictor)
	if err != nil {
		return nil, nil, err
	}
	return ranking.Overvalued(n), ranking.Undervalued(n), nil
}

// SuccessByRound summarises the success probability per draft round.
func (w *Workbench) SuccessByRound() ([]valuation.RoundSummary, error) {
	_, classifier, _, err := w.components()
	if err != nil {
		return nil, err
	}
	return valuation.SuccessByRound(w.Table(), classifier)
}

// PositionLeaders returns the earliest picks for the first nPositions
// positions. It needs data but no trained models.
func (w *Workbench) PositionLeaders(nPositions, perPosition int) ([]valuation.PositionGroup, error) {
	t := w.Table()
	if t == nil {
		return nil, ErrNoData
	}
	return valuation.TopPicksByPosition(t, nPositions, perPosition), nil
}
