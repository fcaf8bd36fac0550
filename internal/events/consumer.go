package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded event
type Handler func(ctx context.Context, event Event) error

// Consumer tails the event stream with a consumer group
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

// Run reads until ctx is cancelled. Records that fail to decode or handle are logged
// and committed so one bad record cannot wedge the group.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		event, err := Decode(msg.Value)
		if err != nil {
			slog.Warn("Skipping malformed event", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		} else if err := handle(ctx, event); err != nil {
			slog.Error("Event handler failed", "type", event.Type, "offset", msg.Offset, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
