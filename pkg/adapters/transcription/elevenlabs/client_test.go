package elevenlabs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pitch.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func newTestClient(t *testing.T, handler http.HandlerFunc, attempts int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{APIKey: "xi-key", BaseURL: server.URL, MaxAttempts: attempts}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

const sttBody = `{
	"language_code": "en",
	"text": "hello make",
	"words": [
		{"text": "hello", "start": 0.0, "end": 0.5, "type": "word"},
		{"text": " ", "start": 0.5, "end": 0.5, "type": "spacing"},
		{"text": "make", "start": 0.5, "end": 0.75, "type": "word"},
		{"text": "(laughs)", "start": 0.8, "end": 1.2, "type": "audio_event"},
		{"text": "uh", "start": 1.3, "end": 1.3, "type": "word"}
	]
}`

func TestTranscribe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/speech-to-text" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "xi-key" {
			t.Errorf("missing API key header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("model_id") != "scribe_v1" {
			t.Errorf("model_id = %q", r.FormValue("model_id"))
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			data, _ := io.ReadAll(f)
			if header.Filename != "pitch.wav" || !strings.HasPrefix(string(data), "RIFF") {
				t.Errorf("unexpected upload %s", header.Filename)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sttBody)
	}, 0)

	got, err := c.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "hello make" || got.Source != "elevenlabs" {
		t.Fatalf("unexpected transcription: %+v", got)
	}
	if len(got.WordAnalysis) != 2 {
		t.Fatalf("word analysis = %+v, want 2 words", got.WordAnalysis)
	}
	// hello: 2 syllables over 0.5s; make: 1 syllable over 0.25s
	if w := got.WordAnalysis[0]; w.Word != "hello" || w.SyllablesPerMinute != 240 || w.Speed != "Ideal" {
		t.Fatalf("unexpected first word: %+v", w)
	}
	if w := got.WordAnalysis[1]; w.SyllablesPerMinute != 240 || w.Speed != "Ideal" {
		t.Fatalf("unexpected second word: %+v", w)
	}
	if len(got.Timestamps) != 2 || got.Timestamps[1] != [2]float64{0.75, 240} {
		t.Fatalf("timestamps = %v", got.Timestamps)
	}
	if got.Loudness == nil {
		t.Fatalf("loudness must be an empty series, not nil")
	}
}

func TestTranscribeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, sttBody)
	}, 2)

	if _, err := c.Transcribe(context.Background(), writeAudio(t)); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestTranscribeStopsAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}, 2)

	if _, err := c.Transcribe(context.Background(), writeAudio(t)); err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestTranscribeClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}, 3)

	_, err := c.Transcribe(context.Background(), writeAudio(t))
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not be retried, calls = %d", calls.Load())
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	}, 0)
	if _, err := c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "none.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEstimateSyllables(t *testing.T) {
	tests := map[string]int{
		"hello":     2,
		"make":      1,
		"table":     2,
		"rhythm":    1,
		"the":       1,
		"beautiful": 3,
		"Market,":   2,
		"42":        1,
	}
	for word, want := range tests {
		if got := estimateSyllables(word); got != want {
			t.Errorf("estimateSyllables(%q) = %d, want %d", word, got, want)
		}
	}
}

func TestPaceBucket(t *testing.T) {
	tests := []struct {
		spm  float64
		want string
	}{
		{129.99, "Too Slow"},
		{130, "Ideal"},
		{300, "Ideal"},
		{300.01, "Fast"},
		{400, "Fast"},
		{400.5, "Too Fast"},
	}
	for _, tt := range tests {
		if got := paceBucket(tt.spm); got != tt.want {
			t.Errorf("paceBucket(%v) = %q, want %q", tt.spm, got, tt.want)
		}
	}
}
