package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"ev-route-service/internal/domain"
)

const schemaVersion = "v1"

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Acks         int
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes PlanComputed events to a Kafka topic keyed by plan id.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka publisher: topic must not be empty")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher: at least one broker is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafka.RequiredAcks(cfg.Acks),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: false,
	}
	return newKafkaPublisherWithWriter(w, cfg.WriteTimeout), nil
}

// newKafkaPublisherWithWriter wires the provided writer. It is used in tests.
func newKafkaPublisherWithWriter(w messageWriter, timeout time.Duration) *KafkaPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaPublisher{writer: w, timeout: timeout}
}

func (p *KafkaPublisher) PublishPlan(ctx context.Context, ev domain.PlanComputed) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("publish plan %s: encode: %w", ev.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(ev.ID),
		Value: value,
		Time:  ev.ComputedAt,
		Headers: []kafka.Header{
			{Key: "schema_version", Value: []byte(schemaVersion)},
			{Key: "event_type", Value: []byte("plan_computed")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish plan %s: %w", ev.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishPlan(context.Context, domain.PlanComputed) error { return nil }

func (NopPublisher) Close() error { return nil }
