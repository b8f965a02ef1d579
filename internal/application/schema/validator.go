package schema

import (
	"encoding/json"
	"fmt"

	"github.com/aescanero/pitchgraph/internal/domain"
)

var factories = map[string]func() domain.AgentRecord{
	domain.AgentDeck:          func() domain.AgentRecord { return domain.NewDeckAgent() },
	domain.AgentText:          func() domain.AgentRecord { return domain.NewTextAgent() },
	domain.AgentSpeechContent: func() domain.AgentRecord { return domain.NewSpeechContentAgent() },
	domain.AgentAudio:         func() domain.AgentRecord { return domain.NewAudioAgent() },
	domain.AgentVoice:         func() domain.AgentRecord { return domain.NewVoiceAgent() },
	domain.AgentTranscription: func() domain.AgentRecord { return domain.NewTranscriptAgent() },
	domain.AgentCombine:       func() domain.AgentRecord { return domain.NewCombineAgent() },
}

// Known reports whether agent has a schema.
func Known(agent string) bool {
	_, ok := factories[agent]
	return ok
}

// Defaults returns the all-defaults instance of the agent's schema, or an
// empty map for agents without one.
func Defaults(agent string) map[string]any {
	factory, ok := factories[agent]
	if !ok {
		return map[string]any{}
	}
	m, err := toMap(factory())
	if err != nil {
		// Default records are plain structs and always encode.
		panic(fmt.Sprintf("schema: encoding defaults for %s: %v", agent, err))
	}
	return m
}

// Validate normalizes data against the agent's schema. It never fails: data
// for agents without a schema passes through (wrapped as {"raw": data} when
// it is not an object), and data that does not conform is replaced by the
// all-defaults instance with one warning carrying the validation error.
func Validate(agent string, data any) (map[string]any, []string) {
	factory, ok := factories[agent]
	if !ok {
		if m, ok := data.(map[string]any); ok {
			return m, nil
		}
		return map[string]any{"raw": data}, nil
	}

	record := factory()
	if err := decodeInto(record, data); err != nil {
		return Defaults(agent), []string{fmt.Sprintf("%s output failed validation: %v", agent, err)}
	}

	m, err := toMap(record)
	if err != nil {
		return Defaults(agent), []string{fmt.Sprintf("%s output failed validation: %v", agent, err)}
	}
	return m, nil
}

// Decode converts an already validated map into the typed record.
func Decode(data map[string]any, record domain.AgentRecord) error {
	return decodeInto(record, data)
}

// Encode converts a typed record back into its map form.
func Encode(record domain.AgentRecord) (map[string]any, error) {
	return toMap(record)
}

// decodeInto overlays data on the defaults already held by record, so absent
// fields keep their defaults, then checks score bounds.
func decodeInto(record domain.AgentRecord, data any) error {
	if _, ok := data.(map[string]any); !ok {
		return fmt.Errorf("expected a JSON object, got %T", data)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode input: %w", err)
	}
	if err := json.Unmarshal(raw, record); err != nil {
		return err
	}
	record.Normalize()
	return record.Check()
}

func toMap(record domain.AgentRecord) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
