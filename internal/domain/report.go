package domain

import "time"

// Report is the combined evaluation returned for a completed job. Field
// names are the wire contract consumed by the frontend.
type Report struct {
	Meta               ReportMeta                `json:"meta"`
	Transcript         TranscriptSection         `json:"transcript"`
	AudioSummary       string                    `json:"audio_summary"`
	AudioAnalysis      AudioAnalysis             `json:"audio_analysis"`
	Deck               DeckSection               `json:"deck"`
	Agents             map[string]map[string]any `json:"agents"`
	AgentWarnings      map[string][]string       `json:"agentWarnings"`
	AgentRaw           map[string]string         `json:"agentRaw"`
	Combine            CombineAgent              `json:"combine"`
	CombineRaw         string                    `json:"combineRaw"`
	CombineWarnings    []string                  `json:"combineWarnings"`
	SummaryAdjustments []Adjustment              `json:"summaryAdjustments"`
	Warnings           []string                  `json:"warnings"`
	Metrics            DeliveryMetrics           `json:"metrics"`
	Error              string                    `json:"error,omitempty"`
}

// ErrorReport is the report-shaped payload stored for a failed job.
func ErrorReport(msg string) *Report {
	return &Report{Error: msg}
}

type ReportMeta struct {
	Target     string         `json:"target"`
	Context    string         `json:"context"`
	Metadata   map[string]any `json:"metadata"`
	Model      string         `json:"model"`
	CreatedAt  time.Time      `json:"created_at"`
	GraphOrder []string       `json:"graphOrder"`
	Scoring    string         `json:"scoring"`
}

type TranscriptSection struct {
	Text         string         `json:"text"`
	Source       string         `json:"source"`
	WordAnalysis []WordAnalysis `json:"word_analysis"`
	Timestamps   [][2]float64   `json:"timestamps"`
	Loudness     [][2]float64   `json:"loudness"`
}

// AudioAnalysis is the best-effort audio stage output.
type AudioAnalysis struct {
	Summary  string         `json:"summary"`
	Analysis map[string]any `json:"analysis"`
	Raw      string         `json:"raw"`
}

type DeckSection struct {
	Summary string `json:"summary"`
	Pages   []Page `json:"pages"`
	Text    string `json:"text"`
}

// LowAgent names an agent that scored below the penalty threshold.
type LowAgent struct {
	Agent string  `json:"agent"`
	Score float64 `json:"score"`
}

// Adjustment records a change the scoring rules made to the combine score.
// Penalty adjustments fill LowAgents/FinalScore; weighted-average
// adjustments fill Type/Original/Adjusted.
type Adjustment struct {
	Type       string     `json:"type,omitempty"`
	Penalty    int        `json:"penalty"`
	LowAgents  []LowAgent `json:"lowAgents,omitempty"`
	FinalScore int        `json:"finalScore,omitempty"`
	Original   int        `json:"original,omitempty"`
	Adjusted   int        `json:"adjusted,omitempty"`
}

// DeliveryMetrics are derived from word timings and loudness samples.
type DeliveryMetrics struct {
	PaceWpm           float64 `json:"paceWpm"`
	FillerWordsPerMin float64 `json:"fillerWordsPerMin"`
	SilenceRatio      float64 `json:"silenceRatio"`
	AvgVolumeDb       float64 `json:"avgVolumeDb"`
}
