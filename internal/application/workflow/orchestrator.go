package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aescanero/pitchgraph/internal/application/graph"
	"github.com/aescanero/pitchgraph/internal/application/schema"
	"github.com/aescanero/pitchgraph/internal/application/scoring"
	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
	"go.uber.org/zap"
)

var (
	// ErrNoInput is returned when a payload carries neither transcript nor media.
	ErrNoInput = errors.New("No transcript or media available to evaluate.")
	// ErrNotConfigured is returned when a stage needs a provider that was
	// not set up.
	ErrNotConfigured = errors.New("provider not configured")
)

// Default models used when none are configured.
const (
	DefaultModel      = "claude-3-5-sonnet-20241022"
	DefaultAudioModel = "claude-3-5-haiku-20241022"
)

const (
	transcriptOnlySummary = "Transcript-only evaluation (raw audio unavailable)."
	noDeckSummary         = "No deck uploaded."
	noDeckText            = "No deck text provided."
	emptyDeckText         = "Deck slides had no text."
)

// Orchestrator turns a job payload into a combined evaluation report.
type Orchestrator struct {
	generator   ports.Generator
	transcriber ports.Transcriber
	extractor   ports.PDFExtractor
	strategy    scoring.Strategy
	prompts     *Catalogue
	metrics     ports.MetricsCollector
	logger      *zap.Logger

	model       string
	audioModel  string
	concurrency int
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTranscriber enables media payloads.
func WithTranscriber(t ports.Transcriber) Option {
	return func(o *Orchestrator) { o.transcriber = t }
}

// WithPDFExtractor enables deck analysis.
func WithPDFExtractor(e ports.PDFExtractor) Option {
	return func(o *Orchestrator) { o.extractor = e }
}

// WithModels sets the model for agent prompts and the one used for the
// audio analysis prompt.
func WithModels(model, audioModel string) Option {
	return func(o *Orchestrator) {
		if model != "" {
			o.model = model
		}
		if audioModel != "" {
			o.audioModel = audioModel
		}
	}
}

// WithConcurrency bounds parallel agent nodes per job.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// WithPrompts replaces the embedded prompt catalogue.
func WithPrompts(c *Catalogue) Option {
	return func(o *Orchestrator) { o.prompts = c }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates a workflow orchestrator
func NewOrchestrator(
	generator ports.Generator,
	strategy scoring.Strategy,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	opts ...Option,
) (*Orchestrator, error) {
	o := &Orchestrator{
		generator:   generator,
		strategy:    strategy,
		metrics:     metrics,
		logger:      logger,
		model:       DefaultModel,
		audioModel:  DefaultAudioModel,
		concurrency: -1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.prompts == nil {
		prompts, err := DefaultCatalogue()
		if err != nil {
			return nil, err
		}
		o.prompts = prompts
	}
	for _, agent := range append(slices.Clone(domain.AgentNames), domain.AgentCombine) {
		if _, err := o.prompts.Agent(agent); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Model returns the model used for agent prompts.
func (o *Orchestrator) Model() string {
	return o.model
}

// Execute runs the whole evaluation for one payload.
func (o *Orchestrator) Execute(ctx context.Context, payload *domain.Payload) (*domain.Report, error) {
	return o.ExecuteWithProgress(ctx, payload, nil)
}

// ExecuteWithProgress is Execute with a callback invoked as each agent
// settles.
func (o *Orchestrator) ExecuteWithProgress(ctx context.Context, payload *domain.Payload, progress ProgressFunc) (*domain.Report, error) {
	var warnings []string

	transcription, err := o.transcript(ctx, payload)
	if err != nil {
		return nil, err
	}

	metadata := payload.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	audio := domain.AudioAnalysis{Summary: transcriptOnlySummary, Analysis: map[string]any{}}
	if payload.HasMedia() {
		sourceName := payload.Media.Filename
		if sourceName == "" {
			sourceName = payload.Target
		}
		analysis, err := o.analyzeAudio(ctx, transcription, sourceName, string(metadataJSON))
		if err != nil {
			o.logger.Warn("audio analysis failed", zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("Audio analysis failed: %v", err))
		} else {
			audio = *analysis
		}
	}

	deck := domain.DeckSection{Summary: noDeckSummary, Pages: []domain.Page{}, Text: noDeckText}
	if payload.HasDeck() {
		var deckWarnings []string
		deck, deckWarnings = o.analyzeDeck(ctx, payload)
		warnings = append(warnings, deckWarnings...)
	}

	state := graph.NewState()
	state.Context = payload.Context
	state.Target = payload.Target
	state.Metadata = string(metadataJSON)
	state.Transcript = transcription.Text
	state.DeckText = deck.Text
	state.DeckSummary = deck.Summary
	state.AudioSummary = audio.Summary

	runner := graph.NewRunner(o.logger, graph.WithConcurrency(o.concurrency))
	for _, agent := range domain.AgentNames {
		runner.Register(o.agentNode(agent, nil, progress))
	}
	runner.Register(o.agentNode(domain.AgentCombine, domain.AgentNames, progress))

	order, err := runner.Run(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to run agent graph: %w", err)
	}

	combine, combineWarnings, adjustments := o.reconcile(state)
	o.metrics.RecordWarnings("workflow", len(warnings))

	report := &domain.Report{
		Meta: domain.ReportMeta{
			Target:     payload.Target,
			Context:    payload.Context,
			Metadata:   metadata,
			Model:      o.model,
			CreatedAt:  o.now().UTC(),
			GraphOrder: order,
			Scoring:    o.strategy.Name(),
		},
		Transcript: domain.TranscriptSection{
			Text:         transcription.Text,
			Source:       transcription.Source,
			WordAnalysis: transcription.WordAnalysis,
			Timestamps:   transcription.Timestamps,
			Loudness:     transcription.Loudness,
		},
		AudioSummary:       audio.Summary,
		AudioAnalysis:      audio,
		Deck:               deck,
		Agents:             state.Agents,
		AgentWarnings:      state.AgentWarnings,
		AgentRaw:           state.AgentRaw,
		Combine:            *combine,
		CombineRaw:         state.AgentRaw[domain.AgentCombine],
		CombineWarnings:    combineWarnings,
		SummaryAdjustments: adjustments,
		Warnings:           nonNilStrings(warnings),
		Metrics:            deriveMetrics(transcription),
	}
	return report, nil
}

// transcript resolves the transcript from the payload or the media file.
func (o *Orchestrator) transcript(ctx context.Context, payload *domain.Payload) (*domain.Transcription, error) {
	if payload.Transcript != "" {
		return &domain.Transcription{
			Text:         payload.Transcript,
			Source:       "user",
			WordAnalysis: []domain.WordAnalysis{},
			Timestamps:   [][2]float64{},
			Loudness:     [][2]float64{},
		}, nil
	}
	if !payload.HasMedia() {
		return nil, ErrNoInput
	}
	if o.transcriber == nil {
		return nil, fmt.Errorf("%w: media submitted but no transcriber is configured", ErrNotConfigured)
	}

	t, err := o.transcriber.Transcribe(ctx, payload.Media.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe media: %w", err)
	}
	if t.Source == "" {
		t.Source = "elevenlabs"
	}
	if t.WordAnalysis == nil {
		t.WordAnalysis = []domain.WordAnalysis{}
	}
	if t.Timestamps == nil {
		t.Timestamps = [][2]float64{}
	}
	if t.Loudness == nil {
		t.Loudness = [][2]float64{}
	}
	return t, nil
}

// reconcile applies the scoring strategy and list rules to the combine
// output and mirrors the result back into the agent map.
func (o *Orchestrator) reconcile(state *graph.State) (*domain.CombineAgent, []string, []domain.Adjustment) {
	combineWarnings := append([]string{}, state.AgentWarnings[domain.AgentCombine]...)

	combine := domain.NewCombineAgent()
	if err := schema.Decode(state.Agents[domain.AgentCombine], combine); err != nil {
		combine = domain.NewCombineAgent()
		combineWarnings = append(combineWarnings, fmt.Sprintf("combine output failed validation: %v", err))
	}

	outcome := o.strategy.Apply(combine.Summary.OverallScore, scoring.AgentScores(state.Agents))
	combine.Summary.OverallScore = outcome.Score
	listWarnings := scoring.NormalizeLists(combine)
	combineWarnings = append(combineWarnings, outcome.Warnings...)
	combineWarnings = append(combineWarnings, listWarnings...)
	o.metrics.RecordWarnings("scoring", len(outcome.Warnings)+len(listWarnings))

	if m, err := schema.Encode(combine); err == nil {
		state.Agents[domain.AgentCombine] = m
	}

	adjustments := outcome.Adjustments
	if adjustments == nil {
		adjustments = []domain.Adjustment{}
	}
	return combine, combineWarnings, adjustments
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
