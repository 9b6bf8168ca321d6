package worker

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"sierre/internal/events"
	"sierre/internal/logger"
)

// Processor handles one consumed message.
type Processor interface {
	Process(ctx context.Context, value []byte) error
}

// Worker consumes the order events topic and hands messages to a processor.
// Processing errors are logged and the message skipped; rollups are
// idempotent so at-least-once delivery is fine.
type Worker struct {
	reader    *kafka.Reader
	processor Processor
	logger    *logger.Logger
}

func New(brokers string, processor Processor, log *logger.Logger) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        strings.Split(brokers, ","),
		Topic:          events.Topic,
		GroupID:        "sierre-worker",
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return &Worker{
		reader:    reader,
		processor: processor,
		logger:    log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker consuming %s", events.Topic)
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}
		if err := w.processor.Process(ctx, msg.Value); err != nil {
			w.logger.Error("Failed to process message at offset %d: %v", msg.Offset, err)
		}
	}
}

func (w *Worker) Close() error {
	return w.reader.Close()
}
