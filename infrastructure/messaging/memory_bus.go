// Package messaging provides the in-process event bus. External brokers
// (EventBridge, webhooks) live behind the same ports.EventBus interface in
// the surrounding platform; this backend only fans events out to local
// subscribers.
package messaging

import (
	"context"
	"sync"

	"deckgen-backend/domain/events"

	"go.uber.org/zap"
)

// Subscriber receives published domain events
type Subscriber func(ctx context.Context, event events.DomainEvent)

// InMemoryEventBus delivers domain events synchronously to local
// subscribers. A failing subscriber never fails the publisher.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]Subscriber
	logger      *zap.Logger
}

// NewInMemoryEventBus creates a new in-process event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		subscribers: make(map[string][]Subscriber),
		logger:      logger,
	}
}

// Subscribe registers a subscriber for an event type. An empty event type
// subscribes to all events.
func (b *InMemoryEventBus) Subscribe(eventType string, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], sub)
}

// Publish delivers a single event
func (b *InMemoryEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	b.mu.RLock()
	targets := make([]Subscriber, 0, len(b.subscribers[event.GetEventType()])+len(b.subscribers[""]))
	targets = append(targets, b.subscribers[event.GetEventType()]...)
	targets = append(targets, b.subscribers[""]...)
	b.mu.RUnlock()

	for _, sub := range targets {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event subscriber panicked",
						zap.String("eventType", event.GetEventType()),
						zap.Any("panic", r),
					)
				}
			}()
			sub(ctx, event)
		}()
	}
	return nil
}

// PublishBatch delivers multiple events
func (b *InMemoryEventBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := b.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
