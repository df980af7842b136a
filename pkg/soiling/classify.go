package soiling

import "math"

// Category thresholds; each bucket is inclusive at its lower bound.
const (
	LightThreshold    = 10.0
	ModerateThreshold = 40.0
	HeavyThreshold    = 70.0
)

// Classify buckets a score into a DirtCategory.
func Classify(score float64) DirtCategory {
	switch {
	case score < LightThreshold:
		return Clean
	case score < ModerateThreshold:
		return Light
	case score < HeavyThreshold:
		return Moderate
	default:
		return Heavy
	}
}

// Coverage is the score read as an estimated dirt coverage percentage, capped at 100.
func Coverage(score float64) float64 {
	return math.Min(math.Max(score, 0), 100)
}
