package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aescanero/pitchgraph/internal/domain"
	"go.uber.org/zap"
)

const transcriptSnippetLen = 500

// analyzeAudio produces a coach summary of the speech and a structured audio
// analysis. Both calls are best effort from the caller's point of view.
func (o *Orchestrator) analyzeAudio(ctx context.Context, t *domain.Transcription, filename, metadata string) (*domain.AudioAnalysis, error) {
	summary, err := o.speechSummary(ctx, t, filename)
	if err != nil {
		return nil, err
	}

	raw, err := o.runTask(ctx, "audio_analysis", o.audioModel, map[string]string{
		"audio_filename": filename,
		"transcript":     t.Text,
		"summary":        summary,
		"metadata":       metadata,
	})
	if err != nil {
		return nil, err
	}

	analysis := map[string]any{}
	if raw != "" {
		parsed, err := ParseJSON(raw)
		if m, ok := parsed.(map[string]any); err == nil && ok {
			analysis = m
		} else {
			analysis["raw_text"] = raw
		}
	}

	return &domain.AudioAnalysis{Summary: summary, Analysis: analysis, Raw: raw}, nil
}

// speechSummary asks for a coach summary of the speech features.
func (o *Orchestrator) speechSummary(ctx context.Context, t *domain.Transcription, filename string) (string, error) {
	audioData, err := json.MarshalIndent(speechFeatures(t, filename), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode speech features: %w", err)
	}
	return o.runTask(ctx, "speech_summary", o.model, map[string]string{
		"filename":   filename,
		"audio_data": string(audioData),
		"transcript": t.Text,
	})
}

type speechSummaryData struct {
	FileName          string         `json:"file_name"`
	WordCount         int            `json:"word_count"`
	FillerWordsCount  int            `json:"filler_words_count"`
	SpeedDistribution map[string]int `json:"speed_distribution"`
	TranscriptSnippet string         `json:"transcript_snippet"`
}

func speechFeatures(t *domain.Transcription, filename string) speechSummaryData {
	text := strings.TrimSpace(t.Text)
	data := speechSummaryData{
		FileName:          filename,
		WordCount:         len(strings.Fields(text)),
		SpeedDistribution: map[string]int{},
		TranscriptSnippet: text,
	}
	if runes := []rune(text); len(runes) > transcriptSnippetLen {
		data.TranscriptSnippet = string(runes[:transcriptSnippetLen])
	}
	for _, w := range t.WordAnalysis {
		if isFiller(w.Word) {
			data.FillerWordsCount++
		}
		data.SpeedDistribution[w.Speed]++
	}
	return data
}

// analyzeDeck extracts slide text and summarizes the deck. Failures leave
// the placeholder texts in place and are reported as warnings.
func (o *Orchestrator) analyzeDeck(ctx context.Context, payload *domain.Payload) (domain.DeckSection, []string) {
	deck := domain.DeckSection{Summary: noDeckSummary, Pages: []domain.Page{}, Text: noDeckText}

	if o.extractor == nil {
		return deck, []string{"Deck analysis skipped: no PDF extractor configured."}
	}

	doc, err := o.extractor.Extract(ctx, payload.Deck.Path)
	if err != nil {
		o.logger.Warn("deck extraction failed",
			zap.String("path", payload.Deck.Path),
			zap.Error(err))
		return deck, []string{fmt.Sprintf("Deck analysis failed: %v", err)}
	}
	if doc.Pages != nil {
		deck.Pages = doc.Pages
	}
	deck.Text = slideText(doc.Pages)

	filename := payload.Deck.Filename
	if filename == "" {
		filename = payload.Target
	}
	summary, err := o.deckSummary(ctx, doc, filename)
	if err != nil {
		o.logger.Warn("deck summary failed", zap.Error(err))
		return deck, []string{fmt.Sprintf("Deck summary failed: %v", err)}
	}
	deck.Summary = summary
	return deck, nil
}

func (o *Orchestrator) deckSummary(ctx context.Context, doc *domain.Document, filename string) (string, error) {
	return o.runTask(ctx, "deck_summary", o.model, map[string]string{
		"filename":    filename,
		"total_pages": strconv.Itoa(doc.TotalPages),
		"pages_text":  summaryPagesText(doc.Pages),
	})
}

// slideText joins the non-empty slides for the deck agent prompt.
func slideText(pages []domain.Page) string {
	var fragments []string
	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		fragments = append(fragments, fmt.Sprintf("Slide %d: %s", p.PageNumber, strings.TrimSpace(p.Text)))
	}
	if len(fragments) == 0 {
		return emptyDeckText
	}
	return strings.Join(fragments, "\n\n")
}

func summaryPagesText(pages []domain.Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, fmt.Sprintf("--- Slide %d ---\n%s", p.PageNumber, p.Text))
	}
	return strings.Join(parts, "\n\n")
}

// runTask renders an auxiliary prompt and returns the trimmed response.
func (o *Orchestrator) runTask(ctx context.Context, task, model string, vars map[string]string) (string, error) {
	prompt, err := o.prompts.Task(task)
	if err != nil {
		return "", err
	}
	text, err := prompt.Render(vars)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	out, err := o.generator.Generate(ctx, model, text)
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", task, err)
	}
	return strings.TrimSpace(out), nil
}
