package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/stravahook/internal/domain"
	"example.com/stravahook/internal/observability"
)

// messageWriter is satisfied by KafkaProducer.
type messageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// Publisher turns privatized activities into Kafka messages keyed by activity id.
type Publisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewPublisher returns a Publisher writing to topic.
func NewPublisher(writer messageWriter, topic string) *Publisher {
	if topic == "" {
		topic = TopicActivityPrivatized
	}
	return &Publisher{writer: writer, topic: topic, now: time.Now}
}

// NotifyPrivatized implements domain.Notifier.
func (p *Publisher) NotifyPrivatized(ctx context.Context, activity domain.Activity, update domain.ActivityUpdate) error {
	payload := ActivityPrivatized{
		ActivityID:   activity.ID,
		ActivityType: activity.Type,
		PreviousName: activity.Name,
		NewName:      update.Name,
		Private:      update.Private,
		StartedAt:    activity.StartDateLocal,
		OccurredAt:   p.now().UTC(),
		Version:      SchemaVersion,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode privatized event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(activity.ID, 10)),
		Value: encoded,
		Time:  payload.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("activity.privatized")},
			{Key: "version", Value: []byte(SchemaVersion)},
		},
	}
	if err := p.writer.WriteMessages(ctx, p.topic, msg); err != nil {
		observability.RecordPublishError(p.topic)
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}
