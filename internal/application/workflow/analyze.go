package workflow

import (
	"context"
	"fmt"

	"github.com/aescanero/pitchgraph/internal/domain"
	"go.uber.org/zap"
)

// SpeechAnalysis is the standalone analysis of one recording.
type SpeechAnalysis struct {
	Transcription string                `json:"transcription"`
	WordAnalysis  []domain.WordAnalysis `json:"word_analysis"`
	Timestamps    [][2]float64          `json:"timestamps"`
	Loudness      [][2]float64          `json:"loudness"`
	Summary       string                `json:"summary"`
}

// DeckAnalysis is the standalone analysis of one PDF deck.
type DeckAnalysis struct {
	TotalPages int           `json:"total_pages"`
	Pages      []domain.Page `json:"pages"`
	Summary    string        `json:"summary"`
}

// AnalyzeSpeech transcribes the media file at path and summarizes the
// delivery. Unlike a full evaluation, any failure is returned.
func (o *Orchestrator) AnalyzeSpeech(ctx context.Context, path, filename string) (*SpeechAnalysis, error) {
	t, err := o.transcript(ctx, &domain.Payload{
		Media: &domain.Upload{Path: path, Filename: filename},
	})
	if err != nil {
		return nil, err
	}

	summary, err := o.speechSummary(ctx, t, filename)
	if err != nil {
		return nil, err
	}

	o.logger.Info("speech analyzed",
		zap.String("filename", filename),
		zap.Int("words", len(t.WordAnalysis)))

	return &SpeechAnalysis{
		Transcription: t.Text,
		WordAnalysis:  t.WordAnalysis,
		Timestamps:    t.Timestamps,
		Loudness:      t.Loudness,
		Summary:       summary,
	}, nil
}

// AnalyzeDeck extracts the pages of the PDF at path and summarizes the deck.
func (o *Orchestrator) AnalyzeDeck(ctx context.Context, path, filename string) (*DeckAnalysis, error) {
	if o.extractor == nil {
		return nil, fmt.Errorf("%w: no PDF extractor configured", ErrNotConfigured)
	}

	doc, err := o.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract deck: %w", err)
	}
	pages := doc.Pages
	if pages == nil {
		pages = []domain.Page{}
	}

	summary, err := o.deckSummary(ctx, doc, filename)
	if err != nil {
		return nil, err
	}

	o.logger.Info("deck analyzed",
		zap.String("filename", filename),
		zap.Int("pages", doc.TotalPages))

	return &DeckAnalysis{TotalPages: doc.TotalPages, Pages: pages, Summary: summary}, nil
}
