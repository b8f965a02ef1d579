package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aescanero/pitchgraph/internal/domain"
	"go.uber.org/zap"
)

// UploadStore persists uploaded media and decks under <dataDir>/uploads.
type UploadStore struct {
	dir    string
	logger *zap.Logger
}

// NewUploadStore creates the uploads directory if needed.
func NewUploadStore(dataDir string, logger *zap.Logger) (*UploadStore, error) {
	dir := filepath.Join(dataDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &UploadStore{dir: dir, logger: logger}, nil
}

// Dir returns the directory uploads are written to.
func (s *UploadStore) Dir() string {
	return s.dir
}

// Save writes r to <dir>/<jobID>-<filename>. The filename is reduced to a
// safe base name first.
func (s *UploadStore) Save(jobID, filename, contentType string, r io.Reader) (*domain.Upload, error) {
	name := sanitize(filename)
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s", jobID, name))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	s.logger.Debug("upload stored",
		zap.String("job_id", jobID),
		zap.String("path", path),
		zap.Int64("bytes", n))

	return &domain.Upload{Path: path, Filename: filename, ContentType: contentType}, nil
}

// Remove deletes every upload stored for a job.
func (s *UploadStore) Remove(jobID string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, jobID+"-*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove upload: %w", err)
		}
	}
	return nil
}

func sanitize(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	clean = strings.TrimLeft(clean, ".")
	if clean == "" {
		return "upload"
	}
	return clean
}
