package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/aescanero/pitchgraph/internal/domain"
)

// Weights is the fixed per-agent weight table of the weighted strategy.
var Weights = map[string]float64{
	domain.AgentDeck:          0.15,
	domain.AgentText:          0.20,
	domain.AgentSpeechContent: 0.15,
	domain.AgentAudio:         0.20,
	domain.AgentVoice:         0.15,
	domain.AgentTranscription: 0.15,
}

const (
	weightedTolerance = 5
	maxSpread         = 20
	maxDeviation      = 15
)

// Weighted lowers the combine score to the weighted average of the agent
// scores when the average is more than 5 points below it. Weights are
// renormalized over the agents that reported a score. Large spreads between
// agents and large deviations from the final score are flagged, not corrected.
type Weighted struct{}

func (Weighted) Name() string { return StrategyWeighted }

func (Weighted) Apply(current int, scores map[string]float64) Outcome {
	out := Outcome{Score: current}
	if len(scores) == 0 {
		return out
	}

	var sum, gathered float64
	for _, name := range domain.AgentNames {
		score, ok := scores[name]
		if !ok {
			continue
		}
		sum += score * Weights[name]
		gathered += Weights[name]
	}
	if gathered == 0 {
		return out
	}

	avg := sum / gathered
	if avg+weightedTolerance < float64(current) {
		target := max(1, int(math.RoundToEven(avg)))
		penalty := current - target
		out.Score = target
		out.Adjustments = append(out.Adjustments, domain.Adjustment{
			Type:     "weighted_average",
			Original: current,
			Adjusted: target,
			Penalty:  penalty,
		})
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"Summary lowered by %d pts to match the weighted average of agent scores (%.1f).", penalty, avg))
	}

	names := orderedAgents(scores)
	hi, lo := scores[names[0]], scores[names[0]]
	for _, name := range names[1:] {
		hi = max(hi, scores[name])
		lo = min(lo, scores[name])
	}
	if hi-lo > maxSpread {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"Agent scores vary by %s pts; the combine summary should favor the weakest modality.", formatScore(hi-lo)))
	}

	for _, name := range names {
		if math.Abs(scores[name]-float64(out.Score)) > maxDeviation {
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"%s agent score (%s) differs from the combine summary (%d) by over %d pts.",
				displayName(name), formatScore(scores[name]), out.Score, maxDeviation))
		}
	}
	return out
}

func displayName(agent string) string {
	if agent == "" {
		return agent
	}
	return strings.ToUpper(agent[:1]) + agent[1:]
}
