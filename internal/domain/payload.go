package domain

// Upload references a file persisted by the upload layer.
type Upload struct {
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
}

// Payload is the input of one evaluation job. Exactly one of Transcript or
// Media is expected; Deck is optional.
type Payload struct {
	Context    string         `json:"context"`
	Target     string         `json:"target"`
	Metadata   map[string]any `json:"metadata"`
	Transcript string         `json:"transcript,omitempty"`
	Media      *Upload        `json:"media,omitempty"`
	Deck       *Upload        `json:"deck,omitempty"`
}

// HasMedia reports whether a media file is attached.
func (p *Payload) HasMedia() bool {
	return p.Media != nil && p.Media.Path != ""
}

// HasDeck reports whether a deck file is attached.
func (p *Payload) HasDeck() bool {
	return p.Deck != nil && p.Deck.Path != ""
}
