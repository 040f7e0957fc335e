// Package domain holds the activity filtering rules and the processing pipeline
// that renames and hides matching activities.
package domain

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyProcessed is returned by MarkProcessed when the identifier is already recorded.
	ErrAlreadyProcessed = errors.New("activity already processed")
	// ErrMalformedActivity indicates upstream data the filters cannot interpret.
	ErrMalformedActivity = errors.New("malformed activity record")
	// ErrProcessedNotFound is returned when an identifier has no dedup row.
	ErrProcessedNotFound = errors.New("processed activity not found")
)

// ProcessedStore is the dedup store contract used by the pipeline.
type ProcessedStore interface {
	HasProcessed(ctx context.Context, activityID int64) (bool, error)
	MarkProcessed(ctx context.Context, activityID int64) error
}

// ProcessedReader exposes read-only views of the dedup store.
type ProcessedReader interface {
	GetProcessed(ctx context.Context, activityID int64) (*ProcessedActivity, error)
	ListProcessed(ctx context.Context, cursor *Cursor, limit int) ([]ProcessedActivity, *Cursor, error)
}

// ActivityClient talks to the upstream activity API.
type ActivityClient interface {
	GetActivity(ctx context.Context, activityID int64) (*Activity, error)
	UpdateActivity(ctx context.Context, activityID int64, update ActivityUpdate) error
}

// Notifier announces activities that were renamed and hidden.
type Notifier interface {
	NotifyPrivatized(ctx context.Context, activity Activity, update ActivityUpdate) error
}

type noopNotifier struct{}

func (noopNotifier) NotifyPrivatized(context.Context, Activity, ActivityUpdate) error { return nil }
