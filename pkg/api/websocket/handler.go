package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// JobLookup returns the current state of a job.
type JobLookup interface {
	Status(ctx context.Context, jobID string) (*domain.Job, error)
}

// Handler handles WebSocket connections
type Handler struct {
	eventBus ports.EventBus
	jobs     JobLookup
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(eventBus ports.EventBus, jobs JobLookup, logger *zap.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		jobs:     jobs,
		logger:   logger,
	}
}

// HandleJobStream streams the events of one job until it settles or the
// client disconnects. A job that already settled gets a single snapshot.
func (h *Handler) HandleJobStream(c *gin.Context) {
	jobID := c.Param("id")

	if _, err := h.jobs.Status(c.Request.Context(), jobID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Job not found"}})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("job_id", jobID),
		zap.String("client", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe before the snapshot so no transition is missed in between.
	eventChan := make(chan domain.Event, 32)
	if err := h.eventBus.Subscribe(ctx, domain.TopicJobEvents, h.forward(jobID, eventChan)); err != nil {
		h.logger.Error("failed to subscribe to events",
			zap.String("job_id", jobID),
			zap.Error(err))
		return
	}

	job, err := h.jobs.Status(ctx, jobID)
	if err != nil {
		h.logger.Error("failed to load job",
			zap.String("job_id", jobID),
			zap.Error(err))
		return
	}
	if job.Status.IsTerminal() {
		_ = h.write(conn, snapshot(job))
		h.close(conn)
		return
	}

	// Reads only detect the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventChan:
			if err := h.write(conn, event); err != nil {
				h.logger.Warn("failed to write message",
					zap.String("job_id", jobID),
					zap.Error(err))
				return
			}
			if event.Type == domain.EventTypeJobCompleted || event.Type == domain.EventTypeJobFailed {
				h.close(conn)
				return
			}
		}
	}
}

// forward returns a bus handler passing this job's events to ch
func (h *Handler) forward(jobID string, ch chan<- domain.Event) ports.EventHandler {
	return func(ctx context.Context, event domain.Event) error {
		if event.JobID != jobID {
			return nil
		}

		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}
}

func (h *Handler) write(conn *websocket.Conn, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Handler) close(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// snapshot renders a settled job as the event that settled it
func snapshot(job *domain.Job) domain.Event {
	eventType := domain.EventTypeJobCompleted
	data := map[string]any{}
	if job.Status == domain.JobStatusFailed {
		eventType = domain.EventTypeJobFailed
		data["error"] = job.Error
	}
	return domain.Event{
		ID:        job.ID,
		Type:      eventType,
		JobID:     job.ID,
		Timestamp: job.UpdatedAt,
		Data:      data,
	}
}
