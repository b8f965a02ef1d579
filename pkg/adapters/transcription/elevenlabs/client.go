package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Syllables-per-minute bounds of the pace buckets.
const (
	slowSPM  = 130
	idealSPM = 300
	fastSPM  = 400
)

// Config holds ElevenLabs speech-to-text settings
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// MaxAttempts counts the first request; values below 1 mean one.
	MaxAttempts int
}

// Client implements ports.Transcriber with the ElevenLabs speech-to-text API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	http       *http.Client
	logger     *zap.Logger
}

// NewClient creates a new ElevenLabs client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("elevenlabs API key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	model := cfg.Model
	if model == "" {
		model = "scribe_v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	maxRetries := cfg.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}, nil
}

type sttWord struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Type  string  `json:"type"`
}

type sttResponse struct {
	LanguageCode string    `json:"language_code"`
	Text         string    `json:"text"`
	Words        []sttWord `json:"words"`
}

// statusError is a non-2xx API response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("elevenlabs returned %d: %s", e.code, e.body)
}

// Transcribe uploads the media file and converts the word timings into the
// pace analysis.
func (c *Client) Transcribe(ctx context.Context, path string) (*domain.Transcription, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read media file: %w", err)
	}

	var resp *sttResponse
	operation := func() error {
		r, err := c.convert(ctx, filepath.Base(path), audio)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && se.code != http.StatusTooManyRequests && se.code < 500 {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying transcription",
			zap.String("file", filepath.Base(path)),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, fmt.Errorf("failed to transcribe %s: %w", filepath.Base(path), err)
	}

	words, timestamps := analyzeWords(resp.Words)

	c.logger.Info("transcription complete",
		zap.String("file", filepath.Base(path)),
		zap.String("language", resp.LanguageCode),
		zap.Int("words", len(words)))

	return &domain.Transcription{
		Text:         resp.Text,
		WordAnalysis: words,
		Timestamps:   timestamps,
		Loudness:     [][2]float64{},
		Source:       "elevenlabs",
	}, nil
}

func (c *Client) convert(ctx context.Context, filename string, audio []byte) (*sttResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model_id", c.model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/speech-to-text", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("xi-api-key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &statusError{code: res.StatusCode, body: strings.TrimSpace(string(raw))}
	}

	var out sttResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// analyzeWords classifies each timed word by syllables per minute. Words
// with no duration or no text are skipped.
func analyzeWords(words []sttWord) ([]domain.WordAnalysis, [][2]float64) {
	analysis := []domain.WordAnalysis{}
	timestamps := [][2]float64{}

	for _, w := range words {
		if w.Type != "" && w.Type != "word" {
			continue
		}
		duration := w.End - w.Start
		if duration <= 0 || strings.TrimSpace(w.Text) == "" {
			continue
		}

		spm := round2(float64(estimateSyllables(w.Text)) / duration * 60)
		analysis = append(analysis, domain.WordAnalysis{
			Word:               w.Text,
			Speed:              paceBucket(spm),
			SyllablesPerMinute: spm,
		})
		timestamps = append(timestamps, [2]float64{w.End, spm})
	}
	return analysis, timestamps
}

func paceBucket(spm float64) string {
	switch {
	case spm < slowSPM:
		return "Too Slow"
	case spm <= idealSPM:
		return "Ideal"
	case spm <= fastSPM:
		return "Fast"
	default:
		return "Too Fast"
	}
}

// estimateSyllables counts vowel groups, dropping a silent trailing "e".
// Every word has at least one syllable.
func estimateSyllables(word string) int {
	w := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z')
	}))

	count := 0
	prevVowel := false
	for _, r := range w {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if count > 1 && strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") {
		count--
	}
	if count == 0 {
		return 1
	}
	return count
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
