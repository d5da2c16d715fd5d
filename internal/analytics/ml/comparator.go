package ml

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/internal/models"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

// MatchPolicy decides how a name query matches player names.
type MatchPolicy int

const (
	// MatchSubstring matches when the query appears anywhere in the name,
	// ignoring case.
	MatchSubstring MatchPolicy = iota
	// MatchExact matches case-insensitive equal names only.
	MatchExact
)

// Matches reports whether name satisfies query under the policy.
func (p MatchPolicy) Matches(name, query string) bool {
	name, query = strings.ToLower(name), strings.ToLower(query)
	if p == MatchExact {
		return name == query
	}
	return strings.Contains(name, query)
}

func (p MatchPolicy) String() string {
	if p == MatchExact {
		return "exact"
	}
	return "substring"
}

// Query identifies one player either by row index or by name.
type Query struct {
	index   int
	name    string
	byIndex bool
}

// ByIndex queries the row at i.
func ByIndex(i int) Query { return Query{index: i, byIndex: true} }

// ByName queries the first player whose name matches s.
func ByName(s string) Query { return Query{name: s} }

func (q Query) String() string {
	if q.byIndex {
		return "#" + strconv.Itoa(q.index)
	}
	return q.name
}

// SimilarPlayer is a neighbour annotated with its distance and score.
type SimilarPlayer struct {
	models.PlayerRecord
	Distance        float64 `json:"distance"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Comparator finds statistically similar players in a z-scored feature
// space built once from a table snapshot.
type Comparator struct {
	records     []models.PlayerRecord
	featureCols []string
	space       *mat.Dense
	scaler      *StandardScaler
	policy      MatchPolicy
}

// ComparatorOption configures a Comparator.
type ComparatorOption func(*Comparator)

// WithMatchPolicy sets how name queries are resolved.
func WithMatchPolicy(p MatchPolicy) ComparatorOption {
	return func(c *Comparator) { c.policy = p }
}

// NewComparator scales the numeric non-identifier columns of t. Missing
// values are treated as 0 before scaling.
func NewComparator(t *dataset.Table, opts ...ComparatorOption) (*Comparator, error) {
	if t.Len() == 0 {
		return nil, dataset.ErrEmptyTable
	}
	cols := SelectFeatureColumns(t, models.ColDraftRound, models.ColSuccess, models.ColSimilarityScore)
	if len(cols) == 0 {
		return nil, ErrNoFeatures
	}

	X := t.Matrix(cols)
	X.Apply(func(_, _ int, v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}, X)

	scaler := &StandardScaler{}
	space, err := scaler.FitTransform(X)
	if err != nil {
		return nil, fmt.Errorf("comparison space: %w", err)
	}

	c := &Comparator{
		records:     t.Records(),
		featureCols: cols,
		space:       space,
		scaler:      scaler,
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.WithComponent("comparator").WithFields(logrus.Fields{
		"rows":     len(c.records),
		"features": len(cols),
		"policy":   c.policy.String(),
	}).Debug("Comparison space built")
	return c, nil
}

// Len returns the number of players in the comparison space.
func (c *Comparator) Len() int { return len(c.records) }

// FeatureCols returns the columns spanning the comparison space.
func (c *Comparator) FeatureCols() []string {
	return append([]string(nil), c.featureCols...)
}

// Resolve returns the record a query refers to.
func (c *Comparator) Resolve(q Query) (models.PlayerRecord, error) {
	i, err := c.resolve(q)
	if err != nil {
		return models.PlayerRecord{}, err
	}
	return c.records[i], nil
}

func (c *Comparator) resolve(q Query) (int, error) {
	if q.byIndex {
		if q.index < 0 || q.index >= len(c.records) {
			return 0, fmt.Errorf("%w: index %d", ErrPlayerNotFound, q.index)
		}
		return q.index, nil
	}
	for i, rec := range c.records {
		if c.policy.Matches(rec.Name, q.name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrPlayerNotFound, q.name)
}

// FindSimilarPlayers returns up to n players closest to the queried one,
// nearest first. With positionOnly set only players sharing the query's
// raw pos value are considered. No qualifying neighbour yields an empty
// slice, not an error.
func (c *Comparator) FindSimilarPlayers(q Query, n int, positionOnly bool) ([]SimilarPlayer, error) {
	target, err := c.resolve(q)
	if err != nil {
		return nil, err
	}
	log := logger.WithPlayer("comparator", q.String())

	origin := c.space.RawRowView(target)
	pos := c.records[target].Pos

	candidates := make([]SimilarPlayer, 0, len(c.records))
	for i, rec := range c.records {
		if i == target {
			continue
		}
		if positionOnly && rec.Pos != pos {
			continue
		}
		d := floats.Distance(origin, c.space.RawRowView(i), 2)
		candidates = append(candidates, SimilarPlayer{
			PlayerRecord:    rec,
			Distance:        d,
			SimilarityScore: 1 / (1 + d),
		})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Distance < candidates[b].Distance
	})
	if n < 0 {
		n = 0
	}
	if n < len(candidates) {
		candidates = candidates[:n]
	}

	log.WithFields(logrus.Fields{
		"matched":       c.records[target].Name,
		"position_only": positionOnly,
		"results":       len(candidates),
	}).Debug("Similar players found")
	return candidates, nil
}

// ComparePlayers resolves each name in order and returns the matching
// records. Names that match nobody are skipped; ErrPlayerNotFound is
// returned only when none match.
func (c *Comparator) ComparePlayers(names []string) ([]models.PlayerRecord, error) {
	var out []models.PlayerRecord
	for _, name := range names {
		i, err := c.resolve(ByName(name))
		if err != nil {
			logger.WithPlayer("comparator", name).Debug("Skipping unmatched player")
			continue
		}
		out = append(out, c.records[i])
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: none of %s", ErrPlayerNotFound, strings.Join(names, ", "))
	}
	return out, nil
}
