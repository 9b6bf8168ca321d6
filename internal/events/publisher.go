package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const Topic = "sierre-order-events"

// Event types emitted on the order events topic.
const (
	TypeOrderUpserted   = "order.upserted"
	TypeSyncCompleted   = "sync.completed"
	TypeWebhookReceived = "webhook.received"
)

// Event is the wire format on the order events topic. Dates lists the
// "YYYY-MM-DD" days whose rollups the worker should refresh.
type Event struct {
	Type      string    `json:"type"`
	Shop      string    `json:"shop"`
	Dates     []string  `json:"dates,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher writes events to Kafka. A nil Publisher is valid and drops
// everything, so callers never need to guard for a missing broker.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers string) *Publisher {
	if brokers == "" {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Shop),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
