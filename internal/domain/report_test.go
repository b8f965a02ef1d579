package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestReportJSONRoundTrip(t *testing.T) {
	combine := NewCombineAgent()
	combine.Summary.OverallScore = 85
	combine.Timeline = append(combine.Timeline, TimelineItem{Timestamp: "0:30", Description: "hook"})

	report := &Report{
		Meta: ReportMeta{
			Target:     "Acme",
			Context:    "seed round",
			Metadata:   map[string]any{"stage": "seed", "minutes": 4.5},
			Model:      "claude-3-5-sonnet-20241022",
			CreatedAt:  time.Date(2026, 10, 15, 12, 30, 45, 123456789, time.UTC),
			GraphOrder: []string{"deck", "text", "combine"},
			Scoring:    "penalty",
		},
		Transcript: TranscriptSection{
			Text:         "Hello investors",
			Source:       "elevenlabs",
			WordAnalysis: []WordAnalysis{{Word: "Hello", Speed: "Ideal", SyllablesPerMinute: 240.37}},
			Timestamps:   [][2]float64{{0.52, 240.37}},
			Loudness:     [][2]float64{{0.0116, -23.125}},
		},
		AudioSummary:  "steady",
		AudioAnalysis: AudioAnalysis{Summary: "steady", Analysis: map[string]any{"pace": "ok"}},
		Deck:          DeckSection{Summary: "No deck uploaded.", Pages: []Page{}, Text: "No deck text provided."},
		Agents: map[string]map[string]any{
			"deck": {"overallScore": float64(70)},
		},
		AgentWarnings:   map[string][]string{"deck": {"defaulted"}},
		AgentRaw:        map[string]string{"deck": "{}"},
		Combine:         *combine,
		CombineRaw:      "{}",
		CombineWarnings: []string{"Timeline has 1 entries (expected 6-10)."},
		SummaryAdjustments: []Adjustment{{
			Penalty:    5,
			LowAgents:  []LowAgent{{Agent: "speech_content", Score: 55}},
			FinalScore: 85,
		}},
		Warnings: []string{},
		Metrics:  DeliveryMetrics{PaceWpm: 150.25, SilenceRatio: 0.125},
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !decoded.Meta.CreatedAt.Equal(report.Meta.CreatedAt) {
		t.Fatalf("created_at changed: %v != %v", decoded.Meta.CreatedAt, report.Meta.CreatedAt)
	}
	decoded.Meta.CreatedAt = report.Meta.CreatedAt
	if !reflect.DeepEqual(&decoded, report) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, *report)
	}
}

func TestAudioIssueSeverityDefault(t *testing.T) {
	var issue AudioIssue
	if err := json.Unmarshal([]byte(`{"timestamp":"0:10","type":"filler"}`), &issue); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if issue.Severity != "low" {
		t.Fatalf("expected default severity low, got %q", issue.Severity)
	}
}
