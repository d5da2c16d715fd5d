package features

// Description documents one engineered feature.
type Description struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var descriptions = []Description{
	{DraftValueScore, "Normalized draft pick value (0-1, higher is better)"},
	{DraftRound, "Approximate round from draft pick"},
	{IsEarlyPick, "Binary: 1 if picked in first 2 rounds"},
	{AgeNormalized, "Age normalized to 0-1 scale"},
	{CollegeYearsNumeric, "Years spent in college"},
	{CollegeYearsNormalized, "College years normalized to 0-1"},
	{AgeExperienceRatio, "Age divided by college years (development indicator)"},
	{HeightNumeric, "Height (parsed from raw data)"},
	{WeightNumeric, "Weight (parsed from raw data)"},
	{BMI, "Body Mass Index calculated from height/weight"},
	{IsQB, "Binary: 1 if position is QB"},
	{IsDefensive, "Binary: 1 if defensive position"},
	{MeetsNumeric, "Combine meets/benchmarks count"},
	{MeetsNormalized, "Meets score normalized to 0-1"},
	{CollegeFrequency, "Number of players from same college in dataset"},
	{CollegeFrequencyNormalized, "College frequency normalized to 0-1"},
	{ScoutGrade, "Overall scouting grade (0-100 scale)"},
	{PositionAvgPick, "Average draft pick of the player's position"},
	{PickVsPositionAvg, "Draft pick minus the position average"},
	{DraftPredictability, "How close to position average pick (lower = more predictable)"},
}

// Descriptions lists the engineered numeric features in engine order.
func Descriptions() []Description {
	out := make([]Description, len(descriptions))
	copy(out, descriptions)
	return out
}

// Describe returns the description of a single feature.
func Describe(name string) (string, bool) {
	for _, d := range descriptions {
		if d.Name == name {
			return d.Description, true
		}
	}
	return "", false
}
