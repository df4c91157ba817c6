package scoring

import "time"

// TimeDecay converts a last-interaction date into a recency factor in [0, 1].
// Recent contact keeps the factor near 1.0; it steps down over a year. A nil
// date (person never sighted) yields a neutral-low 0.3.
func TimeDecay(lastInteraction *time.Time, now time.Time) float64 {
	if lastInteraction == nil {
		return 0.3
	}

	age := now.Sub(*lastInteraction)
	switch {
	case age <= 7*24*time.Hour:
		return 1.0
	case age <= 30*24*time.Hour:
		return 0.8
	case age <= 90*24*time.Hour:
		return 0.6
	case age <= 180*24*time.Hour:
		return 0.4
	case age <= 365*24*time.Hour:
		return 0.2
	default:
		return 0.1
	}
}
