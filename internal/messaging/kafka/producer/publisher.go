package producer

import (
	"context"

	"go-presence/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// Keying by aggregate id keeps all lifecycle events of one attendance
// record in a single partition, so consumers see them in order.
func publishEvent(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	msg := kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
