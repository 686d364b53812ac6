package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers []string
	Topic   string
}

// Event is the envelope written to the order events topic.
type Event struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits domain events after a transaction commits. Implementations
// are best-effort; a failed publish must never roll back business state.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafkaGo.Writer
}

func NewKafkaPublisher(cfg *Config) Publisher {
	return &kafkaPublisher{
		writer: &kafkaGo.Writer{
			Addr:     kafkaGo.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafkaGo.LeastBytes{},
		},
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	event := Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(key),
		Value: raw,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
