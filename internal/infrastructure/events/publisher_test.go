package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
)

type fakeWriter struct {
	msgs   []kafka.Message
	fail   bool
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("broker caído")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish_UsaOrderIDComoClave(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaPublisherWith(fw)
	ev := transformation.Event{
		Type:       transformation.EventCompleted,
		OrderID:    "ord-1",
		CompanyID:  "cmp-1",
		ActorID:    "user-1",
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, fw.msgs, 1)
	msg := fw.msgs[0]
	assert.Equal(t, "ord-1", string(msg.Key))
	var decoded transformation.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev, decoded)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, transformation.EventCompleted, string(msg.Headers[0].Value))
}

func TestKafkaPublisher_Publish_PropagaErrorDelBroker(t *testing.T) {
	p := NewKafkaPublisherWith(&fakeWriter{fail: true})

	err := p.Publish(context.Background(), transformation.Event{Type: transformation.EventCompensated, OrderID: "ord-1"})

	assert.Error(t, err)
}

func TestKafkaPublisher_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, NewKafkaPublisherWith(fw).Close())
	assert.True(t, fw.closed)
}
