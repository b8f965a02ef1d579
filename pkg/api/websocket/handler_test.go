package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
	eventsmemory "github.com/aescanero/pitchgraph/pkg/adapters/events/memory"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type jobTable map[string]*domain.Job

func (t jobTable) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	job, ok := t[jobID]
	if !ok {
		return nil, ports.ErrJobNotFound
	}
	return job, nil
}

func newStreamServer(t *testing.T, jobs jobTable) (*httptest.Server, *eventsmemory.InMemoryEventBus) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := eventsmemory.NewInMemoryEventBus(zap.NewNop())
	h := NewHandler(bus, jobs, zap.NewNop())

	router := gin.New()
	router.GET("/api/v1/jobs/:id/ws", h.HandleJobStream)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, bus
}

func dial(t *testing.T, server *httptest.Server, jobID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/jobs/" + jobID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return event
}

func waitForSubscriber(t *testing.T, bus *eventsmemory.InMemoryEventBus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount(domain.TopicJobEvents) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamFiltersByJob(t *testing.T) {
	server, bus := newStreamServer(t, jobTable{"job-1": {ID: "job-1", Status: domain.JobStatusRunning}})
	conn := dial(t, server, "job-1")
	waitForSubscriber(t, bus)

	ctx := context.Background()
	_ = bus.Publish(ctx, domain.TopicJobEvents, domain.Event{ID: "e0", Type: domain.EventTypeNodeCompleted, JobID: "job-2", Node: "deck"})
	_ = bus.Publish(ctx, domain.TopicJobEvents, domain.Event{ID: "e1", Type: domain.EventTypeNodeCompleted, JobID: "job-1", Node: "text"})

	event := readEvent(t, conn)
	if event.ID != "e1" || event.Node != "text" {
		t.Fatalf("unexpected event: %+v", event)
	}

	_ = bus.Publish(ctx, domain.TopicJobEvents, domain.Event{ID: "e2", Type: domain.EventTypeJobCompleted, JobID: "job-1"})
	if event := readEvent(t, conn); event.Type != domain.EventTypeJobCompleted {
		t.Fatalf("unexpected event: %+v", event)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.CloseNormalClosure {
		t.Fatalf("expected normal closure after completion, got %v", err)
	}
}

func TestStreamSnapshotForSettledJob(t *testing.T) {
	server, _ := newStreamServer(t, jobTable{
		"job-1": {ID: "job-1", Status: domain.JobStatusFailed, Error: "job timed out"},
	})
	conn := dial(t, server, "job-1")

	event := readEvent(t, conn)
	if event.Type != domain.EventTypeJobFailed || event.Data["error"] != "job timed out" {
		t.Fatalf("unexpected snapshot: %+v", event)
	}
}

func TestStreamUnknownJob(t *testing.T) {
	server, _ := newStreamServer(t, jobTable{})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/jobs/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}
