package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/stravahook/internal/domain"
)

type recordingWriter struct {
	topic string
	msgs  []kafka.Message
	err   error
}

func (w *recordingWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.topic = topic
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestPublisherWritesKeyedPayload(t *testing.T) {
	writer := &recordingWriter{}
	pub := NewPublisher(writer, "")
	fixed := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	activity := domain.Activity{ID: 991, Name: "Morning Walk", Type: "Walk", StartDateLocal: "2024-03-05T09:00:00Z"}
	err := pub.NotifyPrivatized(context.Background(), activity, domain.ActivityUpdate{Name: "Rusty", Private: true})
	require.NoError(t, err)

	require.Equal(t, TopicActivityPrivatized, writer.topic)
	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	require.Equal(t, "991", string(msg.Key))
	require.Equal(t, fixed, msg.Time)

	var payload ActivityPrivatized
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	require.Equal(t, int64(991), payload.ActivityID)
	require.Equal(t, "Morning Walk", payload.PreviousName)
	require.Equal(t, "Rusty", payload.NewName)
	require.True(t, payload.Private)
	require.Equal(t, SchemaVersion, payload.Version)
}

func TestPublisherWrapsWriteFailures(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	pub := NewPublisher(writer, "privatized-test")

	err := pub.NotifyPrivatized(context.Background(), domain.Activity{ID: 1}, domain.ActivityUpdate{Name: "Rusty", Private: true})
	require.Error(t, err)
	require.ErrorContains(t, err, "privatized-test")
	require.ErrorContains(t, err, "broker down")
	require.Empty(t, writer.msgs)
}
