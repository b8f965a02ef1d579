package domain

import (
	"encoding/json"
	"fmt"
)

// Agent names. The order of AgentNames is the canonical order used for
// registration, reporting and deterministic warning output.
const (
	AgentDeck          = "deck"
	AgentText          = "text"
	AgentSpeechContent = "speech_content"
	AgentAudio         = "audio"
	AgentVoice         = "voice"
	AgentTranscription = "transcription"
	AgentCombine       = "combine"
)

// AgentNames lists the per-modality agents. Combine is not included.
var AgentNames = []string{
	AgentDeck,
	AgentText,
	AgentSpeechContent,
	AgentAudio,
	AgentVoice,
	AgentTranscription,
}

// DefaultScore replaces any missing score field.
const DefaultScore = 65

const (
	minScore = 1
	maxScore = 100
)

func checkScore(field string, v int) error {
	if v < minScore || v > maxScore {
		return fmt.Errorf("%s: score %d is outside [%d, %d]", field, v, minScore, maxScore)
	}
	return nil
}

// AgentRecord is implemented by every agent output variant.
type AgentRecord interface {
	// Check verifies score bounds.
	Check() error
	// Normalize replaces nil lists with empty ones.
	Normalize()
}

// ScoreDetail is a score with its rationale.
type ScoreDetail struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

func defaultScoreDetail() ScoreDetail {
	return ScoreDetail{Score: DefaultScore}
}

type SlideNote struct {
	SlideNumber int    `json:"slideNumber"`
	Observation string `json:"observation"`
	Suggestion  string `json:"suggestion"`
}

type DeckAgent struct {
	OverallScore        int         `json:"overallScore"`
	NarrativeScore      int         `json:"narrativeScore"`
	StructureScore      int         `json:"structureScore"`
	VisualsScore        int         `json:"visualsScore"`
	ClarityScore        int         `json:"clarityScore"`
	PersuasivenessScore int         `json:"persuasivenessScore"`
	Strengths           []string    `json:"strengths"`
	Gaps                []string    `json:"gaps"`
	SlideNotes          []SlideNote `json:"slideNotes"`
}

func NewDeckAgent() *DeckAgent {
	return &DeckAgent{
		OverallScore:        DefaultScore,
		NarrativeScore:      DefaultScore,
		StructureScore:      DefaultScore,
		VisualsScore:        DefaultScore,
		ClarityScore:        DefaultScore,
		PersuasivenessScore: DefaultScore,
		Strengths:           []string{},
		Gaps:                []string{},
		SlideNotes:          []SlideNote{},
	}
}

func (d *DeckAgent) Check() error {
	return checkAll(
		scoreField{"overallScore", d.OverallScore},
		scoreField{"narrativeScore", d.NarrativeScore},
		scoreField{"structureScore", d.StructureScore},
		scoreField{"visualsScore", d.VisualsScore},
		scoreField{"clarityScore", d.ClarityScore},
		scoreField{"persuasivenessScore", d.PersuasivenessScore},
	)
}

func (d *DeckAgent) Normalize() {
	d.Strengths = nonNil(d.Strengths)
	d.Gaps = nonNil(d.Gaps)
	d.SlideNotes = nonNil(d.SlideNotes)
}

type TextAgent struct {
	OverallScore    int         `json:"overallScore"`
	Clarity         ScoreDetail `json:"clarity"`
	Pacing          ScoreDetail `json:"pacing"`
	Confidence      ScoreDetail `json:"confidence"`
	Engagement      ScoreDetail `json:"engagement"`
	VocalDelivery   string      `json:"vocalDelivery"`
	BodyLanguage    string      `json:"bodyLanguage"`
	Recommendations []string    `json:"recommendations"`
}

func NewTextAgent() *TextAgent {
	return &TextAgent{
		OverallScore:    DefaultScore,
		Clarity:         defaultScoreDetail(),
		Pacing:          defaultScoreDetail(),
		Confidence:      defaultScoreDetail(),
		Engagement:      defaultScoreDetail(),
		Recommendations: []string{},
	}
}

func (t *TextAgent) Check() error {
	return checkAll(
		scoreField{"overallScore", t.OverallScore},
		scoreField{"clarity.score", t.Clarity.Score},
		scoreField{"pacing.score", t.Pacing.Score},
		scoreField{"confidence.score", t.Confidence.Score},
		scoreField{"engagement.score", t.Engagement.Score},
	)
}

func (t *TextAgent) Normalize() {
	t.Recommendations = nonNil(t.Recommendations)
}

type SpeechContentAgent struct {
	OverallScore    int         `json:"overallScore"`
	StoryArc        ScoreDetail `json:"storyArc"`
	ValueProp       ScoreDetail `json:"valueProp"`
	Differentiation ScoreDetail `json:"differentiation"`
	Ask             ScoreDetail `json:"ask"`
	Evidences       []string    `json:"evidences"`
	Recommendations []string    `json:"recommendations"`
}

func NewSpeechContentAgent() *SpeechContentAgent {
	return &SpeechContentAgent{
		OverallScore:    DefaultScore,
		StoryArc:        defaultScoreDetail(),
		ValueProp:       defaultScoreDetail(),
		Differentiation: defaultScoreDetail(),
		Ask:             defaultScoreDetail(),
		Evidences:       []string{},
		Recommendations: []string{},
	}
}

func (s *SpeechContentAgent) Check() error {
	return checkAll(
		scoreField{"overallScore", s.OverallScore},
		scoreField{"storyArc.score", s.StoryArc.Score},
		scoreField{"valueProp.score", s.ValueProp.Score},
		scoreField{"differentiation.score", s.Differentiation.Score},
		scoreField{"ask.score", s.Ask.Score},
	)
}

func (s *SpeechContentAgent) Normalize() {
	s.Evidences = nonNil(s.Evidences)
	s.Recommendations = nonNil(s.Recommendations)
}

// AudioIssue is a timestamped delivery problem. Severity defaults to "low".
type AudioIssue struct {
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

func (a *AudioIssue) UnmarshalJSON(b []byte) error {
	type plain AudioIssue
	v := plain{Severity: "low"}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = AudioIssue(v)
	return nil
}

type AudioMetrics struct {
	Pace          string `json:"pace"`
	FillerWords   string `json:"fillerWords"`
	SilenceRatio  string `json:"silenceRatio"`
	AverageVolume string `json:"averageVolume"`
}

type AudioAgent struct {
	OverallScore int          `json:"overallScore"`
	Issues       []AudioIssue `json:"issues"`
	Metrics      AudioMetrics `json:"metrics"`
}

func NewAudioAgent() *AudioAgent {
	return &AudioAgent{OverallScore: DefaultScore, Issues: []AudioIssue{}}
}

func (a *AudioAgent) Check() error {
	return checkScore("overallScore", a.OverallScore)
}

func (a *AudioAgent) Normalize() {
	a.Issues = nonNil(a.Issues)
}

// VoiceAgent has no default overallScore. An absent score stays absent so
// the voice agent only takes part in scoring when the model rates it.
type VoiceAgent struct {
	OverallScore   *int        `json:"overallScore,omitempty"`
	OverallSummary string      `json:"overallSummary"`
	Tone           ScoreDetail `json:"tone"`
	Cadence        ScoreDetail `json:"cadence"`
	Confidence     ScoreDetail `json:"confidence"`
	Clarity        ScoreDetail `json:"clarity"`
	Articulation   ScoreDetail `json:"articulation"`
	Vocabulary     ScoreDetail `json:"vocabulary"`
	Conviction     ScoreDetail `json:"conviction"`
}

func NewVoiceAgent() *VoiceAgent {
	return &VoiceAgent{
		Tone:         defaultScoreDetail(),
		Cadence:      defaultScoreDetail(),
		Confidence:   defaultScoreDetail(),
		Clarity:      defaultScoreDetail(),
		Articulation: defaultScoreDetail(),
		Vocabulary:   defaultScoreDetail(),
		Conviction:   defaultScoreDetail(),
	}
}

func (v *VoiceAgent) Check() error {
	if v.OverallScore != nil {
		if err := checkScore("overallScore", *v.OverallScore); err != nil {
			return err
		}
	}
	return checkAll(
		scoreField{"tone.score", v.Tone.Score},
		scoreField{"cadence.score", v.Cadence.Score},
		scoreField{"confidence.score", v.Confidence.Score},
		scoreField{"clarity.score", v.Clarity.Score},
		scoreField{"articulation.score", v.Articulation.Score},
		scoreField{"vocabulary.score", v.Vocabulary.Score},
		scoreField{"conviction.score", v.Conviction.Score},
	)
}

func (v *VoiceAgent) Normalize() {}

type TranscriptAgent struct {
	OverallScore    int         `json:"overallScore"`
	Clarity         ScoreDetail `json:"clarity"`
	Relevance       ScoreDetail `json:"relevance"`
	Structure       ScoreDetail `json:"structure"`
	Highlights      []string    `json:"highlights"`
	Risks           []string    `json:"risks"`
	Recommendations []string    `json:"recommendations"`
}

func NewTranscriptAgent() *TranscriptAgent {
	return &TranscriptAgent{
		OverallScore:    DefaultScore,
		Clarity:         defaultScoreDetail(),
		Relevance:       defaultScoreDetail(),
		Structure:       defaultScoreDetail(),
		Highlights:      []string{},
		Risks:           []string{},
		Recommendations: []string{},
	}
}

func (t *TranscriptAgent) Check() error {
	return checkAll(
		scoreField{"overallScore", t.OverallScore},
		scoreField{"clarity.score", t.Clarity.Score},
		scoreField{"relevance.score", t.Relevance.Score},
		scoreField{"structure.score", t.Structure.Score},
	)
}

func (t *TranscriptAgent) Normalize() {
	t.Highlights = nonNil(t.Highlights)
	t.Risks = nonNil(t.Risks)
	t.Recommendations = nonNil(t.Recommendations)
}

type TimelineItem struct {
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

type RecommendationItem struct {
	Title   string   `json:"title"`
	Actions []string `json:"actions"`
}

type VoiceScript struct {
	Persona string `json:"persona"`
	Tone    string `json:"tone"`
	Script  string `json:"script"`
}

type CombineSummary struct {
	OverallScore int      `json:"overallScore"`
	Headline     string   `json:"headline"`
	Highlights   []string `json:"highlights"`
	Risks        []string `json:"risks"`
}

// CombineAgent is the synthesized report produced by the combine stage.
type CombineAgent struct {
	Summary         CombineSummary       `json:"summary"`
	Timeline        []TimelineItem       `json:"timeline"`
	Recommendations []RecommendationItem `json:"recommendations"`
	VoiceScripts    []VoiceScript        `json:"voiceScripts"`
}

func NewCombineAgent() *CombineAgent {
	return &CombineAgent{
		Summary: CombineSummary{
			OverallScore: DefaultScore,
			Highlights:   []string{},
			Risks:        []string{},
		},
		Timeline:        []TimelineItem{},
		Recommendations: []RecommendationItem{},
		VoiceScripts:    []VoiceScript{},
	}
}

func (c *CombineAgent) Check() error {
	return checkScore("summary.overallScore", c.Summary.OverallScore)
}

func (c *CombineAgent) Normalize() {
	c.Summary.Highlights = nonNil(c.Summary.Highlights)
	c.Summary.Risks = nonNil(c.Summary.Risks)
	c.Timeline = nonNil(c.Timeline)
	c.Recommendations = nonNil(c.Recommendations)
	for i := range c.Recommendations {
		c.Recommendations[i].Actions = nonNil(c.Recommendations[i].Actions)
	}
	c.VoiceScripts = nonNil(c.VoiceScripts)
}

type scoreField struct {
	name  string
	value int
}

func checkAll(fields ...scoreField) error {
	for _, f := range fields {
		if err := checkScore(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
