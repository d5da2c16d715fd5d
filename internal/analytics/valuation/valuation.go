package valuation

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/scoutsense/internal/analytics/features"
	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/internal/models"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

// PickPredictor predicts a draft pick for one player.
type PickPredictor interface {
	Predict(rec models.PlayerRecord) (int, error)
}

// SuccessScorer estimates the success probability of one player.
type SuccessScorer interface {
	PredictProba(rec models.PlayerRecord) (float64, error)
}

// PickValue compares where a player went with where the model expects them to go.
type PickValue struct {
	models.PlayerRecord
	ActualPick    int `json:"actual_pick"`
	PredictedPick int `json:"predicted_pick"`
	// PickDifference is predicted minus actual. Positive means the player
	// went earlier than the model expected.
	PickDifference int `json:"pick_difference"`
}

// Ranking holds one PickValue per player with a known pick, in table order.
type Ranking []PickValue

// RankPicks predicts every row of t. Rows without a draft pick are skipped.
func RankPicks(t *dataset.Table, p PickPredictor) (Ranking, error) {
	var out Ranking
	for _, rec := range t.Records() {
		if math.IsNaN(rec.DraftPick) {
			continue
		}
		predicted, err := p.Predict(rec)
		if err != nil {
			return nil, err
		}
		actual := rec.Pick()
		out = append(out, PickValue{
			PlayerRecord:   rec,
			ActualPick:     actual,
			PredictedPick:  predicted,
			PickDifference: predicted - actual,
		})
	}

	logger.WithComponent("valuation").WithFields(logrus.Fields{
		"rows":   t.Len(),
		"ranked": len(out),
	}).Debug("Picks ranked")
	return out, nil
}

// Overvalued returns the n players drafted furthest ahead of their
// predicted slot. Ties keep table order.
func (r Ranking) Overvalued(n int) []PickValue {
	return r.top(n, func(a, b PickValue) bool { return a.PickDifference > b.PickDifference })
}

// Undervalued returns the n players drafted furthest after their
// predicted slot. Ties keep table order.
func (r Ranking) Undervalued(n int) []PickValue {
	return r.top(n, func(a, b PickValue) bool { return a.PickDifference < b.PickDifference })
}

func (r Ranking) top(n int, less func(a, b PickValue) bool) []PickValue {
	sorted := append([]PickValue(nil), r...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if n < 0 {
		n = 0
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// MeanAbsoluteError is the average absolute pick difference.
func (r Ranking) MeanAbsoluteError() float64 {
	if len(r) == 0 {
		return math.NaN()
	}
	total := 0.0
	for _, v := range r {
		total += math.Abs(float64(v.PickDifference))
	}
	return total / float64(len(r))
}

// RoundSummary aggregates success probability over one draft round.
type RoundSummary struct {
	Round              int     `json:"round"`
	Players            int     `json:"players"`
	AverageProbability float64 `json:"average_probability"`
	AveragePick        float64 `json:"average_pick"`
}

// SuccessByRound averages the scorer's probability and the actual pick for
// rounds 1 through 7. Rounds with no players are omitted.
func SuccessByRound(t *dataset.Table, s SuccessScorer) ([]RoundSummary, error) {
	rounds := t.Floats(models.ColDraftRound)
	if !t.Has(models.ColDraftRound) {
		for i, pick := range t.Floats(models.ColDraftPick) {
			rounds[i] = features.RoundForPick(pick)
		}
	}

	var (
		counts   [8]int
		probSums [8]float64
		pickSums [8]float64
	)
	for i, rec := range t.Records() {
		r := rounds[i]
		if math.IsNaN(r) || r < 1 || r > 7 {
			continue
		}
		p, err := s.PredictProba(rec)
		if err != nil {
			return nil, err
		}
		round := int(r)
		counts[round]++
		probSums[round] += p
		pickSums[round] += rec.DraftPick
	}

	var out []RoundSummary
	for round := 1; round <= 7; round++ {
		if counts[round] == 0 {
			continue
		}
		n := float64(counts[round])
		out = append(out, RoundSummary{
			Round:              round,
			Players:            counts[round],
			AverageProbability: probSums[round] / n,
			AveragePick:        pickSums[round] / n,
		})
	}
	return out, nil
}

// PositionGroup lists the earliest picks at one raw position.
type PositionGroup struct {
	Pos     string                `json:"pos"`
	Players []models.PlayerRecord `json:"players"`
}

// TopPicksByPosition takes the first nPositions distinct pos values in
// table order and returns the perPosition earliest picks at each.
func TopPicksByPosition(t *dataset.Table, nPositions, perPosition int) []PositionGroup {
	records := t.Records()
	var order []string
	byPos := make(map[string][]models.PlayerRecord)
	for _, rec := range records {
		if _, seen := byPos[rec.Pos]; !seen {
			order = append(order, rec.Pos)
		}
		byPos[rec.Pos] = append(byPos[rec.Pos], rec)
	}
	if nPositions < len(order) {
		order = order[:max(nPositions, 0)]
	}

	out := make([]PositionGroup, 0, len(order))
	for _, pos := range order {
		players := byPos[pos]
		sort.SliceStable(players, func(i, j int) bool {
			return pickOrder(players[i].DraftPick) < pickOrder(players[j].DraftPick)
		})
		if perPosition < len(players) {
			players = players[:max(perPosition, 0)]
		}
		out = append(out, PositionGroup{Pos: pos, Players: players})
	}
	return out
}

// pickOrder sorts unknown picks last.
func pickOrder(pick float64) float64 {
	if math.IsNaN(pick) {
		return math.Inf(1)
	}
	return pick
}
