package scoring

import (
	"fmt"

	"github.com/aescanero/pitchgraph/internal/domain"
)

const (
	minTimeline        = 6
	maxTimeline        = 10
	minRecommendations = 6
	maxRecommendations = 8
	minActions         = 3
	maxActions         = 5
)

// NormalizeLists enforces the combine list lengths. Oversized timeline and
// recommendation lists are truncated; undersized lists and out-of-range
// action counts are only flagged.
func NormalizeLists(c *domain.CombineAgent) []string {
	var warnings []string

	switch n := len(c.Timeline); {
	case n < minTimeline:
		warnings = append(warnings, fmt.Sprintf("Timeline has %d entries (expected %d-%d).", n, minTimeline, maxTimeline))
	case n > maxTimeline:
		c.Timeline = c.Timeline[:maxTimeline]
		warnings = append(warnings, fmt.Sprintf("Timeline trimmed to %d entries.", maxTimeline))
	}

	switch n := len(c.Recommendations); {
	case n < minRecommendations:
		warnings = append(warnings, fmt.Sprintf(
			"Recommendations list has %d entries (expected %d-%d).", n, minRecommendations, maxRecommendations))
	case n > maxRecommendations:
		c.Recommendations = c.Recommendations[:maxRecommendations]
		warnings = append(warnings, fmt.Sprintf("Recommendations trimmed to %d entries.", maxRecommendations))
	}

	for _, rec := range c.Recommendations {
		if n := len(rec.Actions); n < minActions || n > maxActions {
			title := rec.Title
			if title == "" {
				title = "<untitled>"
			}
			warnings = append(warnings, fmt.Sprintf(
				"Recommendation '%s' has %d actions (expect %d-%d).", title, n, minActions, maxActions))
		}
	}
	return warnings
}
