package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aescanero/pitchgraph/internal/application/workflow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Analyzer runs the single-stage analyses behind /analyze and /analyze-pdf.
type Analyzer interface {
	AnalyzeSpeech(ctx context.Context, path, filename string) (*workflow.SpeechAnalysis, error)
	AnalyzeDeck(ctx context.Context, path, filename string) (*workflow.DeckAnalysis, error)
}

// handleAnalyzeSpeech transcribes and summarizes one uploaded recording
// synchronously. The upload is removed once the response is written.
func (s *Server) handleAnalyzeSpeech(c *gin.Context) {
	s.analyzeUpload(c, allowedMediaTypes, func(ctx context.Context, path, filename string) (any, error) {
		return s.analyzer.AnalyzeSpeech(ctx, path, filename)
	})
}

// handleAnalyzeDeck extracts and summarizes one uploaded PDF deck.
func (s *Server) handleAnalyzeDeck(c *gin.Context) {
	s.analyzeUpload(c, allowedDeckTypes, func(ctx context.Context, path, filename string) (any, error) {
		return s.analyzer.AnalyzeDeck(ctx, path, filename)
	})
}

func (s *Server) analyzeUpload(c *gin.Context, allowed []string, run func(ctx context.Context, path, filename string) (any, error)) {
	if s.analyzer == nil {
		abortWithError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "analysis is not configured")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	id := "analyze-" + uuid.NewString()
	defer func() {
		if err := s.uploads.Remove(id); err != nil {
			s.logger.Warn("failed to remove analysis upload",
				zap.String("upload_id", id),
				zap.Error(err))
		}
	}()

	upload, err := s.saveUpload(c, id, "file", allowed)
	if err == nil && upload == nil {
		err = &uploadError{msg: "file is required"}
	}
	if err != nil {
		var ue *uploadError
		if errors.As(err, &ue) {
			abortWithError(c, http.StatusBadRequest, "INVALID_UPLOAD", ue.msg)
			return
		}
		s.writeError(c, err)
		return
	}

	result, err := run(c.Request.Context(), upload.Path, upload.Filename)
	if err != nil {
		if errors.Is(err, workflow.ErrNotConfigured) {
			abortWithError(c, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
			return
		}
		s.logger.Error("analysis failed",
			zap.String("path", c.FullPath()),
			zap.String("filename", upload.Filename),
			zap.Error(err))
		abortWithError(c, http.StatusBadGateway, "ANALYSIS_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}
