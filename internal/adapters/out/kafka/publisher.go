// Package kafka implements the outbound event log adapter: a writer that
// publishes lifecycle events for the dispatch worker and any downstream
// consumers.
package kafka

import (
	"context"

	"dispatch/internal/core/domain/model/lifecycle"
	"dispatch/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the slice of kafka.Writer the publisher depends on.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter builds a writer for the lifecycle topic. The hash balancer
// together with order-id keys keeps a given order's events in one partition,
// preserving their relative order.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
}

// Publisher publishes lifecycle events to the ordered event log. It is fed
// by the outbox relay, so every published event corresponds to a committed
// state change.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a publisher over an already configured writer.
func NewPublisher(writer messageWriter) (*Publisher, error) {
	if writer == nil {
		return nil, errs.NewValueIsRequiredError("writer")
	}

	return &Publisher{writer: writer}, nil
}

// Publish encodes the events and writes them keyed by order id. Either all
// messages are handed to the writer or none; a partial encode aborts the
// batch so the relay retries it whole.
func (p *Publisher) Publish(ctx context.Context, events ...lifecycle.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		raw, err := event.Marshal()
		if err != nil {
			return err
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(event.OrderID.String()),
			Value: raw,
		})
	}

	return p.writer.WriteMessages(ctx, msgs...)
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
