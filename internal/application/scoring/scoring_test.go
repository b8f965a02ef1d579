package scoring

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aescanero/pitchgraph/internal/application/schema"
	"github.com/aescanero/pitchgraph/internal/domain"
)

// scenarioScores are the per-agent scores used by the scoring scenarios.
var scenarioScores = map[string]float64{
	domain.AgentDeck:          70,
	domain.AgentText:          68,
	domain.AgentSpeechContent: 55,
	domain.AgentAudio:         60,
	domain.AgentVoice:         72,
	domain.AgentTranscription: 65,
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestPenaltyScenario(t *testing.T) {
	out := Penalty{}.Apply(90, scenarioScores)

	if out.Score != 85 {
		t.Fatalf("score = %d, want 85", out.Score)
	}
	if len(out.Adjustments) != 1 {
		t.Fatalf("expected one adjustment, got %+v", out.Adjustments)
	}
	adj := out.Adjustments[0]
	if adj.Penalty != 5 || adj.FinalScore != 85 {
		t.Fatalf("unexpected adjustment: %+v", adj)
	}
	if len(adj.LowAgents) != 1 || adj.LowAgents[0].Agent != domain.AgentSpeechContent || adj.LowAgents[0].Score != 55 {
		t.Fatalf("unexpected low agents: %+v", adj.LowAgents)
	}
	if !containsWarning(out.Warnings, "penalized 5 pts") {
		t.Fatalf("missing penalty warning: %v", out.Warnings)
	}
}

func TestPenaltyCapsAndFloors(t *testing.T) {
	scores := map[string]float64{"deck": 10, "text": 20, "audio": 30, "voice": 40}
	out := Penalty{}.Apply(90, scores)
	if out.Score != 75 || out.Adjustments[0].Penalty != 15 {
		t.Fatalf("penalty should cap at 15: %+v", out)
	}

	out = Penalty{}.Apply(10, scores)
	if out.Score != 1 {
		t.Fatalf("score should floor at 1, got %d", out.Score)
	}
}

func TestPenaltyNoLowAgents(t *testing.T) {
	out := Penalty{}.Apply(80, map[string]float64{"deck": 60, "text": 90})
	if out.Score != 80 || len(out.Adjustments) != 0 || len(out.Warnings) != 0 {
		t.Fatalf("expected no change, got %+v", out)
	}
}

func TestWeightedScenario(t *testing.T) {
	out := Weighted{}.Apply(90, scenarioScores)

	// 70*.15 + 68*.20 + 55*.15 + 60*.20 + 72*.15 + 65*.15 = 64.9
	if out.Score != 65 {
		t.Fatalf("score = %d, want 65", out.Score)
	}
	adj := out.Adjustments[0]
	if adj.Type != "weighted_average" || adj.Original != 90 || adj.Adjusted != 65 || adj.Penalty != 25 {
		t.Fatalf("unexpected adjustment: %+v", adj)
	}
	if !containsWarning(out.Warnings, "lowered by 25 pts") || !containsWarning(out.Warnings, "(64.9)") {
		t.Fatalf("missing lowered warning: %v", out.Warnings)
	}
	if containsWarning(out.Warnings, "vary by") {
		t.Fatalf("spread of 17 must not be flagged: %v", out.Warnings)
	}
}

func TestWeightedRenormalizesOverReportingAgents(t *testing.T) {
	out := Weighted{}.Apply(90, map[string]float64{"deck": 60, "text": 70})
	// (60*.15 + 70*.20) / .35 = 65.71
	if out.Score != 66 {
		t.Fatalf("score = %d, want 66", out.Score)
	}
}

func TestWeightedWithinToleranceKeepsScore(t *testing.T) {
	out := Weighted{}.Apply(70, map[string]float64{"deck": 66, "text": 66})
	if out.Score != 70 || len(out.Adjustments) != 0 {
		t.Fatalf("expected no adjustment, got %+v", out)
	}
}

func TestWeightedFlagsSpreadAndDeviation(t *testing.T) {
	out := Weighted{}.Apply(60, map[string]float64{"deck": 90, "audio": 50})
	if !containsWarning(out.Warnings, "vary by 40 pts") {
		t.Fatalf("missing spread warning: %v", out.Warnings)
	}
	if !containsWarning(out.Warnings, "Deck agent score (90) differs from the combine summary (60)") {
		t.Fatalf("missing deviation warning: %v", out.Warnings)
	}
	if containsWarning(out.Warnings, "Audio agent") {
		t.Fatalf("audio deviates by 10 and must not be flagged: %v", out.Warnings)
	}
}

func TestWeightedIgnoresUnweightedAgents(t *testing.T) {
	out := Weighted{}.Apply(90, map[string]float64{"sentiment": 10})
	if out.Score != 90 || len(out.Adjustments) != 0 {
		t.Fatalf("unweighted agents must not move the score: %+v", out)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{StrategyPenalty, StrategyWeighted} {
		s, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Fatalf("Name() = %q, want %q", s.Name(), name)
		}
	}
	if _, err := New("median"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestAgentScores(t *testing.T) {
	scores := AgentScores(map[string]map[string]any{
		"deck":    {"overallScore": float64(70)},
		"text":    {"overallScore": 68},
		"voice":   {"overallSummary": "calm"},
		"combine": {"overallScore": float64(90)},
		"custom":  {"overallScore": "high"},
	})
	if len(scores) != 2 || scores["deck"] != 70 || scores["text"] != 68 {
		t.Fatalf("unexpected scores: %v", scores)
	}
}

func combineWith(timeline, recs, actions int) *domain.CombineAgent {
	c := domain.NewCombineAgent()
	for i := 0; i < timeline; i++ {
		c.Timeline = append(c.Timeline, domain.TimelineItem{Timestamp: fmt.Sprintf("%d:00", i)})
	}
	for i := 0; i < recs; i++ {
		rec := domain.RecommendationItem{Title: fmt.Sprintf("Rec %d", i)}
		for j := 0; j < actions; j++ {
			rec.Actions = append(rec.Actions, fmt.Sprintf("action %d", j))
		}
		c.Recommendations = append(c.Recommendations, rec)
	}
	return c
}

func TestNormalizeListsTrimsTimeline(t *testing.T) {
	c := combineWith(12, 7, 4)
	warnings := NormalizeLists(c)
	if len(c.Timeline) != 10 {
		t.Fatalf("timeline length = %d, want 10", len(c.Timeline))
	}
	if c.Timeline[9].Timestamp != "9:00" {
		t.Fatalf("expected the first 10 entries to be kept, last is %q", c.Timeline[9].Timestamp)
	}
	if !containsWarning(warnings, "trimmed to 10") {
		t.Fatalf("missing trim warning: %v", warnings)
	}
}

func TestNormalizeListsTrimsRecommendations(t *testing.T) {
	c := combineWith(8, 9, 4)
	warnings := NormalizeLists(c)
	if len(c.Recommendations) != 8 {
		t.Fatalf("recommendations length = %d, want 8", len(c.Recommendations))
	}
	if !containsWarning(warnings, "Recommendations trimmed to 8 entries.") {
		t.Fatalf("missing trim warning: %v", warnings)
	}
	if containsWarning(warnings, "actions") {
		t.Fatalf("4 actions is in range and must not be flagged: %v", warnings)
	}
}

func TestNormalizeListsFlagsShortListsAndActions(t *testing.T) {
	c := combineWith(3, 2, 6)
	c.Recommendations[1].Title = ""
	warnings := NormalizeLists(c)

	if len(c.Timeline) != 3 || len(c.Recommendations) != 2 {
		t.Fatalf("short lists must not change")
	}
	for _, want := range []string{
		"Timeline has 3 entries (expected 6-10).",
		"Recommendations list has 2 entries (expected 6-8).",
		"Recommendation 'Rec 0' has 6 actions (expect 3-5).",
		"Recommendation '<untitled>' has 6 actions (expect 3-5).",
	} {
		if !containsWarning(warnings, want) {
			t.Fatalf("missing warning %q in %v", want, warnings)
		}
	}
	if len(c.Recommendations[0].Actions) != 6 {
		t.Fatalf("action lists are flagged, not corrected")
	}
}

func TestNormalizeListsInRange(t *testing.T) {
	if warnings := NormalizeLists(combineWith(6, 6, 3)); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}

func TestUnscoredVoiceDoesNotMoveScore(t *testing.T) {
	agents := map[string]map[string]any{}
	for _, agent := range domain.AgentNames {
		agents[agent] = map[string]any{"overallScore": float64(90)}
	}
	voice, warnings := schema.Validate(domain.AgentVoice, map[string]any{
		"overallSummary": "steady",
		"tone":           map[string]any{"score": float64(80)},
	})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	agents[domain.AgentVoice] = voice

	scores := AgentScores(agents)
	if _, ok := scores[domain.AgentVoice]; ok || len(scores) != 5 {
		t.Fatalf("voice without a score must not be counted: %v", scores)
	}

	out := Weighted{}.Apply(95, scores)
	if out.Score != 95 || len(out.Adjustments) != 0 || len(out.Warnings) != 0 {
		t.Fatalf("expected no change, got %+v", out)
	}
}
