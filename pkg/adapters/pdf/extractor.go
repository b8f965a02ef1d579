package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Extractor implements ports.PDFExtractor.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a new PDF text extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the trimmed plain text of every page. Pages without a
// content stream yield empty text.
func (e *Extractor) Extract(ctx context.Context, path string) (doc *domain.Document, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("failed to parse pdf %s: %v", path, p)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]domain.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		text := ""
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("failed to read page %d: %w", i, err)
			}
		}
		pages = append(pages, domain.Page{
			PageNumber: i,
			Text:       strings.TrimSpace(text),
		})
	}

	e.logger.Debug("pdf extracted",
		zap.String("path", path),
		zap.Int("pages", total))

	return &domain.Document{TotalPages: total, Pages: pages}, nil
}
