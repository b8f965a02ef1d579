// Package workflow evaluates a pitch by running one LLM agent per modality
// and a final combine agent over a dependency graph.
//
// Execute resolves the transcript (from the payload or the transcriber),
// runs the best-effort audio and deck stages, renders each agent prompt from
// the embedded catalogue, and reconciles the combine output with the
// configured scoring strategy. Agent failures never abort a run: the agent's
// schema defaults are used and a warning is recorded. Missing input, an
// unknown prompt or an unresolvable graph do abort it.
package workflow
