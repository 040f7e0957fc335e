package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ObjectTypeActivity is the webhook object_type that triggers processing.
const ObjectTypeActivity = "activity"

// Aspect types carried by webhook events.
const (
	AspectCreate = "create"
	AspectUpdate = "update"
	AspectDelete = "delete"
)

// Event is the webhook notification delivered by Strava on object changes.
type Event struct {
	AspectType     string          `json:"aspect_type"`
	EventTime      int64           `json:"event_time"`
	ObjectID       int64           `json:"object_id"`
	ObjectType     string          `json:"object_type"`
	OwnerID        int64           `json:"owner_id"`
	SubscriptionID int64           `json:"subscription_id"`
	Updates        json.RawMessage `json:"updates,omitempty"`
}

// ErrIncompleteEvent is returned by Validate when a required event field is absent.
var ErrIncompleteEvent = errors.New("incomplete webhook event")

// Validate checks that every field of the notification shape is present.
// Absent numeric fields decode as zero, and upstream ids are always positive.
func (e Event) Validate() error {
	switch {
	case e.AspectType == "":
		return fmt.Errorf("%w: aspect_type", ErrIncompleteEvent)
	case e.ObjectType == "":
		return fmt.Errorf("%w: object_type", ErrIncompleteEvent)
	case e.ObjectID <= 0:
		return fmt.Errorf("%w: object_id", ErrIncompleteEvent)
	case e.OwnerID <= 0:
		return fmt.Errorf("%w: owner_id", ErrIncompleteEvent)
	case e.SubscriptionID <= 0:
		return fmt.Errorf("%w: subscription_id", ErrIncompleteEvent)
	case e.EventTime <= 0:
		return fmt.Errorf("%w: event_time", ErrIncompleteEvent)
	}
	return nil
}

// Activity is the subset of the upstream activity record the filters need.
type Activity struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	StartDateLocal string    `json:"start_date_local"`
	StartLatLng    []float64 `json:"start_latlng"`
}

// Coordinates returns the start position, or false when the record carries none.
func (a Activity) Coordinates() (lat, lng float64, ok bool) {
	if len(a.StartLatLng) < 2 {
		return 0, 0, false
	}
	return a.StartLatLng[0], a.StartLatLng[1], true
}

// ActivityUpdate is the partial update applied to a matching activity.
type ActivityUpdate struct {
	Name    string
	Private bool
}

// ProcessedActivity is a row of the dedup store.
type ProcessedActivity struct {
	ID          int64
	ActivityID  int64
	ProcessedAt time.Time
}

// Cursor models the keyset pagination token for processed activities.
type Cursor struct {
	ID int64
}
