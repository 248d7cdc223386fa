// Package broker publishes domain events to Kafka with segmentio/kafka-go.
//
// The active trace context is injected into message headers so consumers can
// continue the producer's trace.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Publisher sends one keyed event.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
	Close() error
}

// messageWriter is the slice of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON events to a single topic.
type KafkaPublisher struct {
	w          messageWriter
	propagator propagation.TextMapPropagator
}

// NewKafkaPublisher returns a publisher for topic on brokers. The underlying
// writer connects lazily on first write.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // same key, same partition
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

// Publish encodes payload and writes it keyed by key. An "event-type" header
// carries eventType.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("broker: encode %s: %w", eventType, err)
	}

	carrier := propagation.MapCarrier{}
	p.textMapPropagator().Inject(ctx, carrier)

	headers := []kafka.Header{{Key: "event-type", Value: []byte(eventType)}}
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
		Time:    time.Now().UTC(),
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("broker: write %s: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

func (p *KafkaPublisher) textMapPropagator() propagation.TextMapPropagator {
	if p.propagator != nil {
		return p.propagator
	}
	return otel.GetTextMapPropagator()
}

// Nop discards events. Used when KAFKA_BROKERS is unset.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                       { return nil }
