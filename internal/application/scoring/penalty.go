package scoring

import (
	"fmt"

	"github.com/aescanero/pitchgraph/internal/domain"
)

const (
	lowScoreThreshold = 60
	penaltyPerAgent   = 5
	maxPenalty        = 15
)

// Penalty lowers the combine score by 5 points for every agent below 60,
// capped at 15 points and floored at a final score of 1.
type Penalty struct{}

func (Penalty) Name() string { return StrategyPenalty }

func (Penalty) Apply(current int, scores map[string]float64) Outcome {
	out := Outcome{Score: current}

	var low []domain.LowAgent
	for _, name := range orderedAgents(scores) {
		if scores[name] < lowScoreThreshold {
			low = append(low, domain.LowAgent{Agent: name, Score: scores[name]})
		}
	}
	if len(low) == 0 {
		return out
	}

	penalty := min(maxPenalty, penaltyPerAgent*len(low))
	out.Score = max(1, current-penalty)
	out.Adjustments = append(out.Adjustments, domain.Adjustment{
		Penalty:    penalty,
		LowAgents:  low,
		FinalScore: out.Score,
	})
	out.Warnings = append(out.Warnings, fmt.Sprintf(
		"Summary penalized %d pts because %d agents scored below %d.", penalty, len(low), lowScoreThreshold))
	return out
}
