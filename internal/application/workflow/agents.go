package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/pitchgraph/internal/application/graph"
	"github.com/aescanero/pitchgraph/internal/application/schema"
	"github.com/aescanero/pitchgraph/internal/domain"
	"go.uber.org/zap"
)

// ProgressFunc is called after each agent node settles. It may be called from
// several goroutines at once.
type ProgressFunc func(ctx context.Context, agent string, result graph.NodeResult)

// promptVars exposes every state input; each prompt picks the variables it
// declares.
func promptVars(state *graph.State) map[string]string {
	return map[string]string{
		"context":       state.Context,
		"target":        state.Target,
		"metadata":      state.Metadata,
		"transcript":    state.Transcript,
		"deck_text":     state.DeckText,
		"deck_summary":  state.DeckSummary,
		"audio_summary": state.AudioSummary,
	}
}

func (o *Orchestrator) agentNode(agent string, deps []string, progress ProgressFunc) graph.Node {
	return graph.Node{
		Name:         agent,
		Dependencies: deps,
		Compute: func(ctx context.Context, state *graph.State) (graph.NodeResult, error) {
			vars := promptVars(state)
			if agent == domain.AgentCombine {
				agentsJSON, err := marshalAgents(state.Agents)
				if err != nil {
					return graph.NodeResult{}, err
				}
				vars["agents_json"] = agentsJSON
			}

			res, err := o.callAgent(ctx, agent, vars)
			if err != nil {
				return graph.NodeResult{}, err
			}
			if progress != nil {
				progress(ctx, agent, res)
			}
			return res, nil
		},
	}
}

// callAgent renders the agent prompt, calls the generator and validates the
// response. Generator and parse failures are recovered into the schema
// defaults with a warning; a missing prompt or a cancelled context is not.
func (o *Orchestrator) callAgent(ctx context.Context, agent string, vars map[string]string) (graph.NodeResult, error) {
	prompt, err := o.prompts.Agent(agent)
	if err != nil {
		return graph.NodeResult{}, err
	}
	text, err := prompt.Render(vars)
	if err != nil {
		return graph.NodeResult{}, fmt.Errorf("failed to render prompt: %w", err)
	}

	start := time.Now()
	raw, err := o.generator.Generate(ctx, o.model, text)
	if err != nil {
		if ctx.Err() != nil {
			return graph.NodeResult{}, fmt.Errorf("%s agent cancelled: %w", agent, ctx.Err())
		}
		return o.recovered(agent, "", err, start), nil
	}
	raw = strings.TrimSpace(raw)

	parsed, err := ParseJSON(raw)
	if err != nil {
		return o.recovered(agent, raw, err, start), nil
	}

	validated, warnings := schema.Validate(agent, parsed)
	status := "completed"
	if len(warnings) > 0 {
		status = "degraded"
	}
	o.metrics.RecordNodeExecuted(agent, status, time.Since(start))
	o.metrics.RecordWarnings(agent, len(warnings))

	return graph.NodeResult{Parsed: validated, Raw: raw, Warnings: warnings}, nil
}

func (o *Orchestrator) recovered(agent, raw string, cause error, start time.Time) graph.NodeResult {
	o.logger.Warn("agent failed, using defaults",
		zap.String("agent", agent),
		zap.Error(cause))
	o.metrics.RecordNodeExecuted(agent, "failed", time.Since(start))
	o.metrics.RecordWarnings(agent, 1)

	return graph.NodeResult{
		Parsed:   schema.Defaults(agent),
		Raw:      raw,
		Warnings: []string{fmt.Sprintf("%s agent failed: %v", agent, cause)},
	}
}

// marshalAgents renders the settled agent outputs for the combine prompt.
func marshalAgents(agents map[string]map[string]any) (string, error) {
	view := make(map[string]map[string]any, len(agents))
	for name, data := range agents {
		if name != domain.AgentCombine {
			view[name] = data
		}
	}
	b, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode agent outputs: %w", err)
	}
	return string(b), nil
}
