package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aescanero/pitchgraph/internal/application/orchestrator"
	"github.com/aescanero/pitchgraph/internal/application/workers"
	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	allowedMediaTypes = []string{"audio/mpeg", "audio/mp3", "audio/wav", "audio/x-wav", "video/mp4"}
	allowedDeckTypes  = []string{"application/pdf"}
)

// JobSubmitRequest represents a JSON job submission
type JobSubmitRequest struct {
	Context    string         `json:"context"`
	Target     string         `json:"target"`
	Metadata   map[string]any `json:"metadata"`
	Transcript string         `json:"transcript"`
}

// JobSubmitResponse represents a job submission response
type JobSubmitResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// writeError maps manager errors onto HTTP statuses
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidPayload):
		abortWithError(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
	case errors.Is(err, ports.ErrJobNotFound):
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "Job not found")
	case errors.Is(err, orchestrator.ErrJobNotReady):
		abortWithError(c, http.StatusConflict, "NOT_COMPLETED", "Job has not finished yet")
	case errors.Is(err, orchestrator.ErrJobFinished):
		abortWithError(c, http.StatusConflict, "ALREADY_FINISHED", err.Error())
	case errors.Is(err, workers.ErrQueueFull),
		errors.Is(err, workers.ErrPoolStopped),
		errors.Is(err, orchestrator.ErrShuttingDown):
		abortWithError(c, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "INTERNAL", "Internal server error")
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
		})
		return
	}

	status := s.health.GetStatus()
	code, label := http.StatusOK, "healthy"
	if !status.Healthy {
		code, label = http.StatusServiceUnavailable, "unhealthy"
	}
	c.JSON(code, gin.H{
		"status":    label,
		"timestamp": status.Timestamp,
		"checks": gin.H{
			"workers": status,
		},
	})
}

// handleSubmitJob handles JSON job submission with an inline transcript
func (s *Server) handleSubmitJob(c *gin.Context) {
	var req JobSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("invalid request", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	job, err := s.manager.Submit(c.Request.Context(), &domain.Payload{
		Context:    req.Context,
		Target:     req.Target,
		Metadata:   req.Metadata,
		Transcript: req.Transcript,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, submitResponse(job))
}

// handleUploadJob handles multipart submission with media and deck files
func (s *Server) handleUploadJob(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	jobID := uuid.NewString()
	payload := &domain.Payload{
		Context:    c.PostForm("context"),
		Target:     c.PostForm("target"),
		Transcript: c.PostForm("transcript"),
	}
	if raw := c.PostForm("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload.Metadata); err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "metadata must be a JSON object")
			return
		}
	}
	if c.Request.MultipartForm == nil {
		if _, err := c.MultipartForm(); err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("invalid multipart form: %v", err))
			return
		}
	}

	media, err := s.saveUpload(c, jobID, "media", allowedMediaTypes)
	if err != nil {
		s.rejectUpload(c, jobID, err)
		return
	}
	deck, err := s.saveUpload(c, jobID, "deck", allowedDeckTypes)
	if err != nil {
		s.rejectUpload(c, jobID, err)
		return
	}
	payload.Media, payload.Deck = media, deck

	job, err := s.manager.SubmitWithID(c.Request.Context(), jobID, payload)
	if err != nil {
		if errors.Is(err, orchestrator.ErrInvalidPayload) {
			_ = s.uploads.Remove(jobID)
		}
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, submitResponse(job))
}

type uploadError struct{ msg string }

func (e *uploadError) Error() string { return e.msg }

// saveUpload stores the named form file, if present.
func (s *Server) saveUpload(c *gin.Context, jobID, field string, allowed []string) (*domain.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &uploadError{msg: fmt.Sprintf("invalid %s upload: %v", field, err)}
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
	if !slices.Contains(allowed, contentType) {
		return nil, &uploadError{msg: fmt.Sprintf("unsupported %s type: %s", field, contentType)}
	}

	return s.storeFile(jobID, fh, contentType)
}

func (s *Server) storeFile(jobID string, fh *multipart.FileHeader, contentType string) (*domain.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	return s.uploads.Save(jobID, fh.Filename, contentType, f)
}

func (s *Server) rejectUpload(c *gin.Context, jobID string, err error) {
	if rerr := s.uploads.Remove(jobID); rerr != nil {
		s.logger.Warn("failed to remove rejected uploads",
			zap.String("job_id", jobID),
			zap.Error(rerr))
	}
	var ue *uploadError
	if errors.As(err, &ue) {
		abortWithError(c, http.StatusBadRequest, "INVALID_UPLOAD", ue.msg)
		return
	}
	s.writeError(c, err)
}

func submitResponse(job *domain.Job) JobSubmitResponse {
	return JobSubmitResponse{
		JobID:       job.ID,
		Status:      string(job.Status),
		SubmittedAt: job.CreatedAt.Format(time.RFC3339),
	}
}

// handleListJobs handles listing jobs
func (s *Server) handleListJobs(c *gin.Context) {
	jobs, err := s.manager.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	if status := c.Query("status"); status != "" {
		jobs = slices.DeleteFunc(jobs, func(j *domain.Job) bool {
			return string(j.Status) != status
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// handleGetJob handles getting job status
func (s *Server) handleGetJob(c *gin.Context) {
	job, err := s.manager.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// handleGetResult returns the report of a finished job. Failed jobs carry
// the report-shaped error payload.
func (s *Server) handleGetResult(c *gin.Context) {
	job, report, err := s.manager.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":       job.ID,
		"status":       job.Status,
		"error":        job.Error,
		"result":       report,
		"completed_at": job.CompletedAt,
	})
}

// handleCancelJob handles job cancellation
func (s *Server) handleCancelJob(c *gin.Context) {
	jobID := c.Param("id")

	if err := s.manager.Cancel(c.Request.Context(), jobID); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":       jobID,
		"status":       "cancelling",
		"cancelled_at": time.Now().UTC().Format(time.RFC3339),
	})
}
