package scoring

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/aescanero/pitchgraph/internal/domain"
)

// Strategy names accepted by New.
const (
	StrategyPenalty  = "penalty"
	StrategyWeighted = "weighted"
)

// Outcome is the reconciled score with the adjustments and warnings that
// produced it.
type Outcome struct {
	Score       int
	Adjustments []domain.Adjustment
	Warnings    []string
}

// Strategy reconciles a combine score with per-agent scores. Implementations
// are pure and deterministic.
type Strategy interface {
	Name() string
	Apply(current int, scores map[string]float64) Outcome
}

// New returns the strategy registered under name.
func New(name string) (Strategy, error) {
	switch name {
	case StrategyPenalty:
		return Penalty{}, nil
	case StrategyWeighted:
		return Weighted{}, nil
	default:
		return nil, fmt.Errorf("unknown scoring strategy: %s", name)
	}
}

// AgentScores collects the numeric overallScore of every agent except combine.
func AgentScores(agents map[string]map[string]any) map[string]float64 {
	scores := make(map[string]float64, len(agents))
	for name, data := range agents {
		if name == domain.AgentCombine {
			continue
		}
		switch v := data["overallScore"].(type) {
		case float64:
			scores[name] = v
		case int:
			scores[name] = float64(v)
		}
	}
	return scores
}

// orderedAgents lists the agents in scores in canonical order, followed by
// any other agents sorted by name.
func orderedAgents(scores map[string]float64) []string {
	out := make([]string, 0, len(scores))
	for _, name := range domain.AgentNames {
		if _, ok := scores[name]; ok {
			out = append(out, name)
		}
	}
	var extra []string
	for name := range scores {
		if !slices.Contains(domain.AgentNames, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
