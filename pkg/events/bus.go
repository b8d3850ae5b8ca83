package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Publisher is the narrow write side of the event bus. Services depend on
// this rather than a concrete transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventHandler processes one delivered event.
type EventHandler func(ctx context.Context, event Event) error

type envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Bus is the in-process event bus backed by a watermill gochannel pub/sub.
// It always works, even with no external infrastructure configured.
type Bus struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewBus(topic string) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false)),
		topic:  topic,
	}
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(envelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventType(), err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return b.pubSub.Publish(b.topic, msg)
}

// Subscribe registers a handler and consumes in a background goroutine.
// A handler error is logged and the message acked anyway: lifecycle events
// are fire-and-forget notifications, not a durable work queue.
func (b *Bus) Subscribe(ctx context.Context, handler EventHandler) error {
	messages, err := b.pubSub.Subscribe(ctx, b.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var env envelope
			if err := json.Unmarshal(msg.Payload, &env); err != nil {
				log.Printf("[ERROR] Failed to unmarshal event: %v", err)
				msg.Ack()
				continue
			}

			event := BaseEvent{
				Type:       env.Type,
				Data:       env.Data,
				OccurredAt: env.OccurredAt,
			}

			if err := handler(msg.Context(), event); err != nil {
				log.Printf("[ERROR] Event handler failed for %s: %v", env.Type, err)
			}
			msg.Ack()
		}
	}()

	return nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// Fanout publishes every event to each underlying publisher, skipping nil
// entries. Used to pair the in-process bus with the optional NATS bridge.
type Fanout struct {
	publishers []Publisher
}

func NewFanout(publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers}
}

func (f *Fanout) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range f.publishers {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
