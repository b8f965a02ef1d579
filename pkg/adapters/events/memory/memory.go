package memory

import (
	"context"
	"sync"

	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/internal/ports"
	"go.uber.org/zap"
)

type subscription struct {
	id      uint64
	handler ports.EventHandler
}

// InMemoryEventBus implements EventBus using in-process handlers. It is used
// when the service runs without Redis and in tests.
type InMemoryEventBus struct {
	subscribers map[string][]subscription
	nextID      uint64
	logger      *zap.Logger
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]subscription),
		logger:      logger,
	}
}

// Publish delivers an event to every current subscriber of a topic. Handlers
// run in their own goroutines.
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	e.mu.RLock()
	subs := make([]subscription, len(e.subscribers[topic]))
	copy(subs, e.subscribers[topic])
	e.mu.RUnlock()

	for _, sub := range subs {
		e.wg.Add(1)
		go func(h ports.EventHandler) {
			defer e.wg.Done()
			if err := h(ctx, event); err != nil {
				e.logger.Debug("event handler error",
					zap.String("topic", topic),
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
		}(sub.handler)
	}

	return nil
}

// Subscribe subscribes to events on a topic until ctx is cancelled
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.subscribers[topic] = append(e.subscribers[topic], subscription{id: id, handler: handler})
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.unsubscribe(topic, id)
	}()

	return nil
}

// Close drops all subscriptions and waits for in-flight handlers
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	e.subscribers = make(map[string][]subscription)
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// unsubscribe removes one subscription from a topic
func (e *InMemoryEventBus) unsubscribe(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[topic]
	for i, s := range subs {
		if s.id == id {
			e.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(e.subscribers[topic]) == 0 {
		delete(e.subscribers, topic)
	}
}

// SubscriberCount returns the number of live subscriptions on a topic.
func (e *InMemoryEventBus) SubscriberCount(topic string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subscribers[topic])
}
