package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() ports.AccountEvent {
	return ports.AccountEvent{
		Type:       ports.EventAccountProvisioned,
		ProfileID:  "p-1",
		AuthUserID: "u-1",
		Role:       "buyer",
		ActorID:    "u-admin",
		OccurredAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func TestKafkaPublisher_ClavePorAuthUserID(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "marketplace.account-events"}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))

	require.Len(t, w.msgs, 1)
	m := w.msgs[0]
	assert.Equal(t, "marketplace.account-events", m.Topic)
	assert.Equal(t, []byte("u-1"), m.Key)
	assert.Equal(t, sampleEvent().OccurredAt, m.Time)
	assert.Equal(t, "event_type", m.Headers[0].Key)
	assert.Equal(t, []byte(ports.EventAccountProvisioned), m.Headers[0].Value)

	var body map[string]any
	require.NoError(t, json.Unmarshal(m.Value, &body))
	assert.Equal(t, "account.provisioned", body["type"])
	assert.Equal(t, "p-1", body["profile_id"])
	assert.Equal(t, "u-admin", body["actor_id"])
	assert.NotContains(t, body, "detail")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_ErrorDelWriter(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("leader not available")}, topic: "t"}

	assert.Error(t, p.Publish(context.Background(), sampleEvent()))
}

func TestNewKafkaPublisher_Validaciones(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "t")
	assert.Error(t, err)
	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "t")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestLogPublisher_EscribeEvento(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(logger.NewWithWriter(&buf, "info"))

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "account.provisioned", line["event"])
	assert.Equal(t, "u-1", line["auth_user_id"])
	assert.Equal(t, "evento de cuenta", line["message"])
}
