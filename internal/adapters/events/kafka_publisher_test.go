package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ev-route-service/internal/domain"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected deadline")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_PublishPlan(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisherWithWriter(w, time.Second)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := domain.PlanComputed{
		ID:          "plan-1",
		Origin:      "Seattle",
		Destination: "Kennewick",
		DistanceKm:  345,
		StationIDs:  []string{"OCM-3"},
		ComputedAt:  at,
	}
	require.NoError(t, p.PublishPlan(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "plan-1", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, "schema_version", msg.Headers[0].Key)

	var decoded domain.PlanComputed
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev, decoded)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := newKafkaPublisherWithWriter(w, 0)

	err := p.PublishPlan(context.Background(), domain.PlanComputed{ID: "x"})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	_, err = NewKafkaPublisher(KafkaConfig{Topic: "plans"})
	assert.Error(t, err)

	p, err := NewKafkaPublisher(KafkaConfig{Topic: "plans", Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
