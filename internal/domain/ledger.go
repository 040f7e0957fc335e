package domain

import "context"

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Ledger serves read-only queries over processed activities.
type Ledger struct {
	reader ProcessedReader
}

// NewLedger constructs a Ledger.
func NewLedger(reader ProcessedReader) *Ledger {
	return &Ledger{reader: reader}
}

// Get fetches the dedup row for an activity.
func (l *Ledger) Get(ctx context.Context, activityID int64) (*ProcessedActivity, error) {
	row, err := l.reader.GetProcessed(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrProcessedNotFound
	}
	return row, nil
}

// List returns processed activities newest first with cursor pagination.
func (l *Ledger) List(ctx context.Context, cursor *Cursor, limit int) ([]ProcessedActivity, *Cursor, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return l.reader.ListProcessed(ctx, cursor, limit)
}
