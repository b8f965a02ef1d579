package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aescanero/pitchgraph/internal/domain"
)

// Validator checks job payloads before they are queued
type Validator struct {
	maxContextLen int
}

// NewValidator creates a payload validator. maxContextLen bounds the
// free-text context and target fields; zero disables the check.
func NewValidator(maxContextLen int) *Validator {
	return &Validator{maxContextLen: maxContextLen}
}

// Validate rejects payloads that carry both a transcript and a media file,
// and uploads whose files are missing. A payload with neither is accepted
// and fails when evaluated.
func (v *Validator) Validate(p *domain.Payload) error {
	if p == nil {
		return fmt.Errorf("payload is required")
	}

	if strings.TrimSpace(p.Transcript) != "" && p.HasMedia() {
		return fmt.Errorf("provide either a transcript or a media file, not both")
	}

	if v.maxContextLen > 0 {
		if len(p.Context) > v.maxContextLen {
			return fmt.Errorf("context exceeds %d bytes", v.maxContextLen)
		}
		if len(p.Target) > v.maxContextLen {
			return fmt.Errorf("target exceeds %d bytes", v.maxContextLen)
		}
	}

	if p.Media != nil {
		if err := v.validateUpload("media", p.Media); err != nil {
			return err
		}
	}
	if p.Deck != nil {
		if err := v.validateUpload("deck", p.Deck); err != nil {
			return err
		}
	}

	return nil
}

func (v *Validator) validateUpload(field string, u *domain.Upload) error {
	if u.Path == "" {
		return fmt.Errorf("%s path is required", field)
	}

	info, err := os.Stat(u.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s file not found: %s", field, u.Path)
		}
		return fmt.Errorf("failed to stat %s file: %w", field, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s path is a directory: %s", field, u.Path)
	}
	return nil
}
