package features

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/scoutsense/internal/dataset"
	"github.com/stitts-dev/scoutsense/internal/models"
	"github.com/stitts-dev/scoutsense/pkg/logger"
)

// Engineered column names
const (
	DraftValueScore            = "draft_value_score"
	DraftRound                 = models.ColDraftRound
	IsEarlyPick                = "is_early_pick"
	AgeNormalized              = "age_normalized"
	CollegeYearsNumeric        = "college_years_numeric"
	CollegeYearsNormalized     = "college_years_normalized"
	AgeExperienceRatio         = "age_experience_ratio"
	HeightNumeric              = "height_numeric"
	WeightNumeric              = "weight_numeric"
	BMI                        = "bmi"
	Position                   = models.ColPosition
	PositionTier               = models.ColPositionTier
	IsQB                       = "is_qb"
	IsDefensive                = "is_defensive"
	MeetsNumeric               = "meets_numeric"
	MeetsNormalized            = "meets_normalized"
	CollegeFrequency           = "college_frequency"
	CollegeFrequencyNormalized = "college_frequency_normalized"
	ScoutGrade                 = "scout_grade"
	PositionAvgPick            = "position_avg_pick"
	PickVsPositionAvg          = "pick_vs_position_avg"
	DraftPredictability        = "draft_predictability"

	TierColumnPrefix = models.ColTierPrefix
)

// Position tiers
const (
	TierSkill     = "SKILL"
	TierLine      = "LINE"
	TierSecondary = "SECONDARY"
	TierOther     = "OTHER"
)

// EarlyPickCutoff is the last pick of round two.
const EarlyPickCutoff = 64

var (
	skillPositions     = map[string]bool{"WR": true, "RB": true, "TE": true, "QB": true}
	linePositions      = map[string]bool{"OT": true, "OG": true, "C": true, "DT": true, "DE": true}
	secondaryPositions = map[string]bool{"CB": true, "S": true, "FS": true, "SS": true}

	// right-inclusive bin edges, (0,32] is round 1 and (224,256] is round 7
	roundEdges = []float64{0, 32, 64, 96, 128, 192, 224, 256}
)

// Engineer derives the scouting features from a raw draft table. The input is
// not modified. Unparseable values become missing and every numeric column is
// finally filled with its own median.
func Engineer(t *dataset.Table) (*dataset.Table, error) {
	if err := dataset.RequireColumns(t, models.ColDraftPick, models.ColPos); err != nil {
		return nil, err
	}
	log := logger.WithComponent("features")
	n := t.Len()

	picks := t.Floats(models.ColDraftPick)
	ages := t.Floats(models.ColAge)
	out := t.WithFloats(models.ColDraftPick, picks).WithFloats(models.ColAge, ages)

	// Draft metrics
	maxPick := maxDefined(picks)
	valueScore := make([]float64, n)
	rounds := make([]float64, n)
	early := make([]int, n)
	for i, p := range picks {
		valueScore[i] = math.NaN()
		if !math.IsNaN(maxPick) && maxPick != 0 {
			valueScore[i] = 1 - p/maxPick
		}
		rounds[i] = RoundForPick(p)
		if p <= EarlyPickCutoff {
			early[i] = 1
		}
	}
	out = out.WithFloats(DraftValueScore, valueScore).
		WithFloats(DraftRound, rounds).
		WithInts(IsEarlyPick, early)

	// Age and experience
	ageNorm := MinMax(ages)
	years := t.Floats(models.ColCollegeYears)
	ratio := make([]float64, n)
	for i := range ratio {
		denom := years[i]
		if denom == 0 {
			denom = 1
		}
		ratio[i] = ages[i] / denom
	}
	out = out.WithFloats(AgeNormalized, ageNorm).
		WithFloats(CollegeYearsNumeric, years).
		WithFloats(CollegeYearsNormalized, MinMax(years)).
		WithFloats(AgeExperienceRatio, ratio)

	// Physical attributes, frequently corrupted in scraped data
	heights := t.Floats(models.ColHeight)
	weights := t.Floats(models.ColWeight)
	bmi := make([]float64, n)
	for i := range bmi {
		bmi[i] = weights[i] / (heights[i] * heights[i]) * 703
		if math.IsInf(bmi[i], 0) {
			bmi[i] = math.NaN()
		}
	}
	out = out.WithFloats(HeightNumeric, heights).
		WithFloats(WeightNumeric, weights).
		WithFloats(BMI, bmi)

	// Position
	positions := make([]string, n)
	tiers := make([]string, n)
	isQB := make([]int, n)
	isDefensive := make([]int, n)
	for i, raw := range t.Strings(models.ColPos) {
		positions[i] = strings.ToUpper(strings.TrimSpace(raw))
		tiers[i] = TierFor(positions[i])
		if positions[i] == "QB" {
			isQB[i] = 1
		}
		if IsDefensivePosition(positions[i]) {
			isDefensive[i] = 1
		}
	}
	out = out.WithStrings(Position, positions).
		WithStrings(PositionTier, tiers).
		WithInts(IsQB, isQB).
		WithInts(IsDefensive, isDefensive)

	// College strength
	meets := t.Floats(models.ColMeets)
	meetsNorm := MinMax(meets)
	frequency := collegeFrequency(t.Strings(models.ColCollege))
	frequencyNorm := MinMax(frequency)
	out = out.WithFloats(MeetsNumeric, meets).
		WithFloats(MeetsNormalized, meetsNorm).
		WithFloats(CollegeFrequency, frequency).
		WithFloats(CollegeFrequencyNormalized, frequencyNorm)

	// Composite grade (0-100): draft value 40, youth 20, college 20, meets 20
	grade := make([]float64, n)
	for i := range grade {
		grade[i] = valueScore[i]*40 +
			(1-ageNorm[i])*20 +
			frequencyNorm[i]*20 +
			meetsNorm[i]*20
	}
	out = out.WithFloats(ScoutGrade, grade)

	// Draft predictability relative to the position average
	avg := positionAverage(positions, picks)
	diff := make([]float64, n)
	predictability := make([]float64, n)
	for i := range diff {
		diff[i] = picks[i] - avg[i]
		if math.IsNaN(avg[i]) || avg[i] == 0 {
			predictability[i] = 0
			continue
		}
		predictability[i] = math.Abs(diff[i]) / avg[i]
	}
	out = out.WithFloats(PositionAvgPick, avg).
		WithFloats(PickVsPositionAvg, diff).
		WithFloats(DraftPredictability, predictability)

	// One-hot tiers, only for tiers present, in sorted order
	for _, tier := range presentTiers(tiers) {
		col := make([]int, n)
		for i := range tiers {
			if tiers[i] == tier {
				col[i] = 1
			}
		}
		out = out.WithInts(TierColumn(tier), col)
	}

	filled := 0
	for _, col := range out.NumericColumns() {
		vals := out.Floats(col)
		if !hasNaN(vals) {
			continue
		}
		med := Median(vals)
		if math.IsNaN(med) {
			continue
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = med
			}
		}
		out = out.WithFloats(col, vals)
		filled++
	}

	log.WithFields(logrus.Fields{
		"rows":          n,
		"columns":       len(out.Columns()),
		"median_filled": filled,
		"input_columns": len(t.Columns()),
	}).Info("Feature engineering completed")

	return out, nil
}

// IsEngineered reports whether a table already carries the engineered columns.
func IsEngineered(t *dataset.Table) bool {
	return t.Has(DraftValueScore) && t.Has(ScoutGrade) && t.Has(PositionTier)
}

// RoundForPick maps a pick onto rounds 1-7; picks outside (0,256] yield NaN.
func RoundForPick(pick float64) float64 {
	if math.IsNaN(pick) || pick <= roundEdges[0] {
		return math.NaN()
	}
	for r := 1; r < len(roundEdges); r++ {
		if pick <= roundEdges[r] {
			return float64(r)
		}
	}
	return math.NaN()
}

// TierFor returns the scouting tier of a normalised position code.
func TierFor(position string) string {
	switch {
	case skillPositions[position]:
		return TierSkill
	case linePositions[position]:
		return TierLine
	case secondaryPositions[position]:
		return TierSecondary
	}
	return TierOther
}

// IsDefensivePosition matches D-prefixed, CB and S codes anywhere in the
// position, ignoring case.
func IsDefensivePosition(position string) bool {
	p := strings.ToUpper(position)
	return strings.Contains(p, "D") || strings.Contains(p, "CB") || strings.Contains(p, "S")
}

// MinMax scales defined values into [0,1]. A constant column maps every
// defined value to 0; missing values stay missing.
func MinMax(vals []float64) []float64 {
	lo, hi := minDefined(vals), maxDefined(vals)
	out := make([]float64, len(vals))
	for i, v := range vals {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
		case hi == lo:
			out[i] = 0
		default:
			out[i] = (v - lo) / (hi - lo)
		}
	}
	return out
}

// Median of the defined values; NaN when there are none.
func Median(vals []float64) float64 {
	defined := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return math.NaN()
	}
	sort.Float64s(defined)
	mid := len(defined) / 2
	if len(defined)%2 == 1 {
		return defined[mid]
	}
	return (defined[mid-1] + defined[mid]) / 2
}

func collegeFrequency(colleges []string) []float64 {
	counts := make(map[string]int)
	for _, c := range colleges {
		if c != "" {
			counts[c]++
		}
	}
	out := make([]float64, len(colleges))
	for i, c := range colleges {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(counts[c])
	}
	return out
}

func positionAverage(positions []string, picks []float64) []float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, p := range positions {
		if p == "" || math.IsNaN(picks[i]) {
			continue
		}
		sums[p] += picks[i]
		counts[p]++
	}
	out := make([]float64, len(positions))
	for i, p := range positions {
		if counts[p] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sums[p] / float64(counts[p])
	}
	return out
}

func presentTiers(tiers []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tiers {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func hasNaN(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func minDefined(vals []float64) float64 {
	lo := math.NaN()
	for _, v := range vals {
		if !math.IsNaN(v) && (math.IsNaN(lo) || v < lo) {
			lo = v
		}
	}
	return lo
}

func maxDefined(vals []float64) float64 {
	hi := math.NaN()
	for _, v := range vals {
		if !math.IsNaN(v) && (math.IsNaN(hi) || v > hi) {
			hi = v
		}
	}
	return hi
}

// TierColumn renders a tier column name, e.g. pos_tier_SKILL.
func TierColumn(tier string) string {
	return fmt.Sprintf("%s%s", TierColumnPrefix, tier)
}
