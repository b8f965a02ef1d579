package domain

// WordAnalysis is the pace classification of one spoken word.
type WordAnalysis struct {
	Word               string  `json:"word"`
	Speed              string  `json:"speed"`
	SyllablesPerMinute float64 `json:"syllables_per_minute"`
}

// Transcription is the result of a speech-to-text call. Timestamps are
// [end_seconds, syllables_per_minute] pairs and Loudness [seconds, dB] pairs.
type Transcription struct {
	Text         string         `json:"transcription"`
	WordAnalysis []WordAnalysis `json:"word_analysis"`
	Timestamps   [][2]float64   `json:"timestamps"`
	Loudness     [][2]float64   `json:"loudness"`
	Source       string         `json:"source"`
}

// Page is the text of one PDF page, numbered from 1.
type Page struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// Document is the text extracted from a PDF deck.
type Document struct {
	TotalPages int    `json:"total_pages"`
	Pages      []Page `json:"pages"`
}
