package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/aescanero/pitchgraph/internal/application/workflow"
	"github.com/aescanero/pitchgraph/internal/domain"
)

// stubAnalyzer reads the stored upload so tests can see it existed while
// the analysis ran.
type stubAnalyzer struct {
	seen    string
	content string
	err     error
}

func (a *stubAnalyzer) read(path, filename string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	a.seen, a.content = filename, string(data)
	return a.err
}

func (a *stubAnalyzer) AnalyzeSpeech(ctx context.Context, path, filename string) (*workflow.SpeechAnalysis, error) {
	if err := a.read(path, filename); err != nil {
		return nil, err
	}
	return &workflow.SpeechAnalysis{
		Transcription: "we sell shovels",
		WordAnalysis:  []domain.WordAnalysis{{Word: "we", Speed: "normal", SyllablesPerMinute: 240}},
		Timestamps:    [][2]float64{{0.4, 240}},
		Loudness:      [][2]float64{},
		Summary:       "Clear delivery.",
	}, nil
}

func (a *stubAnalyzer) AnalyzeDeck(ctx context.Context, path, filename string) (*workflow.DeckAnalysis, error) {
	if err := a.read(path, filename); err != nil {
		return nil, err
	}
	return &workflow.DeckAnalysis{
		TotalPages: 1,
		Pages:      []domain.Page{{PageNumber: 1, Text: "Shovels Inc."}},
		Summary:    "One slide.",
	}, nil
}

func analyzeRequest(t *testing.T, path string, parts ...formFile) *http.Request {
	t.Helper()
	req := multipartRequest(t, nil, parts...)
	req.URL.Path = path
	req.RequestURI = path
	return req
}

func TestAnalyzeSpeech(t *testing.T) {
	env := newTestEnv(t, false)
	analyzer := &stubAnalyzer{}
	env.server.analyzer = analyzer

	rec := env.do(t, analyzeRequest(t, "/api/v1/analyze", formFile{"file", "pitch.mp3", "audio/mpeg", "ID3"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if analyzer.seen != "pitch.mp3" || analyzer.content != "ID3" {
		t.Fatalf("analyzer saw %q with %q", analyzer.seen, analyzer.content)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"transcription", "word_analysis", "timestamps", "loudness", "summary"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("response missing %q: %s", key, rec.Body.String())
		}
	}

	if names := uploadedFiles(t, env.uploads.Dir()); len(names) != 0 {
		t.Fatalf("analysis left files: %v", names)
	}
}

func TestAnalyzeDeck(t *testing.T) {
	env := newTestEnv(t, false)
	analyzer := &stubAnalyzer{}
	env.server.analyzer = analyzer

	rec := env.do(t, analyzeRequest(t, "/api/v1/analyze-pdf", formFile{"file", "deck.pdf", "application/pdf", "%PDF-1.4"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp workflow.DeckAnalysis
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalPages != 1 || len(resp.Pages) != 1 || resp.Summary != "One slide." {
		t.Fatalf("unexpected analysis: %+v", resp)
	}
	if names := uploadedFiles(t, env.uploads.Dir()); len(names) != 0 {
		t.Fatalf("analysis left files: %v", names)
	}
}

func TestAnalyzeRejectsUploads(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		parts []formFile
	}{
		{"deck on speech route", "/api/v1/analyze", []formFile{{"file", "deck.pdf", "application/pdf", "%PDF"}}},
		{"audio on deck route", "/api/v1/analyze-pdf", []formFile{{"file", "pitch.wav", "audio/wav", "RIFF"}}},
		{"missing file", "/api/v1/analyze", []formFile{{"media", "pitch.wav", "audio/wav", "RIFF"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			analyzer := &stubAnalyzer{}
			env.server.analyzer = analyzer

			rec := env.do(t, analyzeRequest(t, tt.path, tt.parts...))
			if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "INVALID_UPLOAD" {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if analyzer.seen != "" {
				t.Fatalf("analyzer ran for a rejected upload")
			}
			if names := uploadedFiles(t, env.uploads.Dir()); len(names) != 0 {
				t.Fatalf("rejected upload left files: %v", names)
			}
		})
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not configured", fmt.Errorf("%w: no transcriber", workflow.ErrNotConfigured), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"provider failure", errors.New("upstream 500"), http.StatusBadGateway, "ANALYSIS_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			env.server.analyzer = &stubAnalyzer{err: tt.err}

			rec := env.do(t, analyzeRequest(t, "/api/v1/analyze", formFile{"file", "pitch.wav", "audio/wav", "RIFF"}))
			if rec.Code != tt.wantCode || errorCode(t, rec) != tt.wantBody {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if names := uploadedFiles(t, env.uploads.Dir()); len(names) != 0 {
				t.Fatalf("failed analysis left files: %v", names)
			}
		})
	}
}

func TestAnalyzeWithoutAnalyzer(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, analyzeRequest(t, "/api/v1/analyze-pdf", formFile{"file", "deck.pdf", "application/pdf", "%PDF"}))
	if rec.Code != http.StatusServiceUnavailable || errorCode(t, rec) != "UNAVAILABLE" {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}
