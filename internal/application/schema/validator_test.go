package schema

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/aescanero/pitchgraph/internal/domain"
)

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func TestValidateUnknownAgentPassesThrough(t *testing.T) {
	in := map[string]any{"anything": "goes"}
	out, warnings := Validate("sentiment", in)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("expected input unchanged, got %v", out)
	}

	out, _ = Validate("sentiment", "plain text")
	if out["raw"] != "plain text" {
		t.Fatalf("expected non-object wrapped as raw, got %v", out)
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	out, warnings := Validate(domain.AgentText, decodeJSON(t, `{"overallScore": 80, "clarity": {"rationale": "crisp"}}`))
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if out["overallScore"] != float64(80) {
		t.Fatalf("overallScore = %v, want 80", out["overallScore"])
	}
	clarity := out["clarity"].(map[string]any)
	if clarity["score"] != float64(domain.DefaultScore) || clarity["rationale"] != "crisp" {
		t.Fatalf("clarity not merged with defaults: %v", clarity)
	}
	if recs, ok := out["recommendations"].([]any); !ok || len(recs) != 0 {
		t.Fatalf("recommendations should default to an empty list, got %#v", out["recommendations"])
	}
}

func TestValidateSubstitutesDefaultsOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		agent string
		input any
		want  string
	}{
		{"score above range", domain.AgentDeck, decodeJSON(t, `{"overallScore": 150}`), "outside [1, 100]"},
		{"score below range", domain.AgentAudio, decodeJSON(t, `{"overallScore": 0}`), "outside [1, 100]"},
		{"nested score", domain.AgentVoice, decodeJSON(t, `{"tone": {"score": 101}}`), "tone.score"},
		{"wrong type", domain.AgentTranscription, decodeJSON(t, `{"overallScore": "high"}`), "cannot unmarshal"},
		{"fractional score", domain.AgentSpeechContent, decodeJSON(t, `{"overallScore": 72.5}`), "cannot unmarshal"},
		{"not an object", domain.AgentCombine, decodeJSON(t, `[1, 2, 3]`), "expected a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, warnings := Validate(tt.agent, tt.input)
			if len(warnings) != 1 {
				t.Fatalf("expected exactly one warning, got %v", warnings)
			}
			if !strings.Contains(warnings[0], tt.want) {
				t.Fatalf("warning %q does not mention %q", warnings[0], tt.want)
			}
			if !reflect.DeepEqual(out, Defaults(tt.agent)) {
				t.Fatalf("expected all-defaults instance, got %v", out)
			}
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	for _, agent := range append(append([]string{}, domain.AgentNames...), domain.AgentCombine) {
		t.Run(agent, func(t *testing.T) {
			first, warnings := Validate(agent, Defaults(agent))
			if len(warnings) != 0 {
				t.Fatalf("defaults produced warnings: %v", warnings)
			}
			second, warnings := Validate(agent, first)
			if len(warnings) != 0 {
				t.Fatalf("revalidation produced warnings: %v", warnings)
			}
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("revalidation changed the record:\n%v\n%v", first, second)
			}
		})
	}

	combine := decodeJSON(t, `{
		"summary": {"overallScore": 88, "headline": "Strong", "highlights": ["market"], "risks": []},
		"timeline": [{"timestamp": "0:10", "description": "hook", "impact": "high"}],
		"recommendations": [{"title": "Tighten ask", "actions": ["a", "b", "c"]}],
		"voiceScripts": [{"persona": "coach", "tone": "warm", "script": "Go"}]
	}`)
	out, warnings := Validate(domain.AgentCombine, combine)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !reflect.DeepEqual(out, combine) {
		t.Fatalf("conformant record changed:\n got %v\nwant %v", out, combine)
	}
}

func TestValidateAudioIssueSeverityDefault(t *testing.T) {
	out, warnings := Validate(domain.AgentAudio, decodeJSON(t, `{"overallScore": 70, "issues": [{"type": "filler"}]}`))
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	issue := out["issues"].([]any)[0].(map[string]any)
	if issue["severity"] != "low" {
		t.Fatalf("severity = %v, want low", issue["severity"])
	}
}

func TestDecodeCombine(t *testing.T) {
	combine := domain.NewCombineAgent()
	if err := Decode(Defaults(domain.AgentCombine), combine); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if combine.Summary.OverallScore != domain.DefaultScore {
		t.Fatalf("score = %d, want %d", combine.Summary.OverallScore, domain.DefaultScore)
	}
	if !Known(domain.AgentCombine) || Known("sentiment") {
		t.Fatalf("Known reported the wrong schemas")
	}
}

func TestValidateVoiceWithoutScore(t *testing.T) {
	out, warnings := Validate(domain.AgentVoice, decodeJSON(t, `{"overallSummary": "steady", "tone": {"score": 80, "rationale": "warm"}}`))
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if _, ok := out["overallScore"]; ok {
		t.Fatalf("absent voice score must stay absent, got %v", out["overallScore"])
	}
	if _, ok := Defaults(domain.AgentVoice)["overallScore"]; ok {
		t.Fatalf("voice defaults must not carry a score")
	}

	out, warnings = Validate(domain.AgentVoice, decodeJSON(t, `{"overallScore": 74}`))
	if len(warnings) != 0 || out["overallScore"] != float64(74) {
		t.Fatalf("emitted voice score not kept: %v %v", out, warnings)
	}

	out, warnings = Validate(domain.AgentVoice, decodeJSON(t, `{"overallScore": 0}`))
	if len(warnings) != 1 || !reflect.DeepEqual(out, Defaults(domain.AgentVoice)) {
		t.Fatalf("out-of-range voice score must fall back to defaults: %v %v", out, warnings)
	}
}
