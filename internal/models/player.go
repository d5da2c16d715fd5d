package models

import "math"

// Raw input columns after header normalisation
const (
	ColDraftPick    = "draft_pick"
	ColTeam         = "team"
	ColName         = "name"
	ColPos          = "pos"
	ColAge          = "age"
	ColHeight       = "ht"
	ColWeight       = "wt"
	ColCollege      = "college"
	ColCollegeYears = "college/yrs"
	ColMeets        = "meets"
	ColDraftYear    = "draft_year"

	// ColTierPrefix starts each position tier one-hot column, e.g. pos_tier_SKILL.
	ColTierPrefix = "pos_tier_"
)

// Derived columns that carry strings or targets rather than model inputs
const (
	ColPosition        = "position"
	ColPositionTier    = "position_tier"
	ColDraftRound      = "draft_round"
	ColSuccess         = "success"
	ColSimilarityScore = "similarity_score"
)

// IdentityColumns never hold numeric data, whatever their contents look like.
var IdentityColumns = []string{ColName, ColTeam, ColCollege, ColPos, ColPosition, ColPositionTier}

// PlayerRecord is one draft row. It is built from a table snapshot and never
// mutated afterwards; engineered values live in Features.
type PlayerRecord struct {
	Index int `json:"index"`

	Name     string `json:"name"`
	Team     string `json:"team"`
	College  string `json:"college"`
	Pos      string `json:"pos"`
	Position string `json:"position"`

	DraftPick    float64 `json:"draft_pick"`
	Age          float64 `json:"age"`
	Height       string  `json:"ht"`
	Weight       string  `json:"wt"`
	CollegeYears string  `json:"college_yrs"`
	Meets        string  `json:"meets"`

	// Features holds every numeric column of the source table, NaN when missing.
	Features map[string]float64 `json:"features"`
}

// Feature returns a numeric column value and whether it is present and defined.
func (p PlayerRecord) Feature(name string) (float64, bool) {
	v, ok := p.Features[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Pick returns the draft pick as an integer, 0 when unknown.
func (p PlayerRecord) Pick() int {
	if math.IsNaN(p.DraftPick) {
		return 0
	}
	return int(p.DraftPick)
}
