// Package events provides an in-process publish/subscribe bus for security
// and delivery events, built on Watermill's gochannel transport. Sinks
// (logging, metrics) subscribe per event type and never influence the
// request path: publishing is fire-and-forget from the caller's view.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Event is the envelope carried on the bus.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
}

// Handler processes events delivered to a subscription.
type Handler func(ctx context.Context, event Event) error

// Bus is a gochannel-backed pub/sub bus.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger

	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewBus creates an in-memory event bus. bufferSize is the per-subscriber
// output channel buffer; zero falls back to 100.
func NewBus(bufferSize int64, logger *slog.Logger) *Bus {
	if bufferSize == 0 {
		bufferSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	rootCtx, cancel := context.WithCancel(context.Background())

	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: bufferSize},
		watermill.NewStdLogger(false, false),
	)

	return &Bus{
		pubsub:  pubsub,
		logger:  logger,
		rootCtx: rootCtx,
		cancel:  cancel,
	}
}

// Publish sends an event to its type topic. ID and timestamp are stamped
// when absent.
func (bus *Bus) Publish(ctx context.Context, evt Event) error {
	event := evt

	if event.Type == "" {
		return fmt.Errorf("eventbus: event type must not be empty")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Metadata == nil {
		event.Metadata = make(map[string]string)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339Nano))

	return bus.pubsub.Publish(event.Type, msg)
}

// Subscribe registers a handler for an event type. Each subscription runs
// its own consumer goroutine until the bus is closed.
func (bus *Bus) Subscribe(eventType string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("eventbus: handler must not be nil")
	}

	msgs, err := bus.pubsub.Subscribe(bus.rootCtx, eventType)
	if err != nil {
		return err
	}

	bus.wg.Add(1)
	go bus.consume(eventType, msgs, handler)

	return nil
}

func (bus *Bus) consume(topic string, msgs <-chan *message.Message, handler Handler) {
	defer bus.wg.Done()

	for msg := range msgs {
		var event Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			bus.logger.Error("eventbus: failed to decode event", "topic", topic, "error", err)
			msg.Ack()
			continue
		}

		if err := handler(bus.rootCtx, event); err != nil {
			bus.logger.Error("eventbus: handler failed", "topic", topic, "event_id", event.ID, "error", err)
		}

		msg.Ack()
	}
}

// Close stops all consumers and the underlying pub/sub.
func (bus *Bus) Close() error {
	bus.cancel()
	err := bus.pubsub.Close()
	bus.wg.Wait()
	return err
}
