// Package events defines the messages emitted after an activity is privatized
// and the Kafka producer that delivers them.
package events

import "time"

// TopicActivityPrivatized is the default topic for privatization notices.
const TopicActivityPrivatized = "activity_privatized"

// SchemaVersion is stamped on every payload.
const SchemaVersion = "v1"

// ActivityPrivatized is emitted once an activity has been renamed and hidden upstream.
type ActivityPrivatized struct {
	ActivityID   int64     `json:"activity_id"`
	ActivityType string    `json:"activity_type"`
	PreviousName string    `json:"previous_name"`
	NewName      string    `json:"new_name"`
	Private      bool      `json:"private"`
	StartedAt    string    `json:"started_at"`
	OccurredAt   time.Time `json:"occurred_at"`
	Version      string    `json:"version"`
}
