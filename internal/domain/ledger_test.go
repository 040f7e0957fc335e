package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLedgerGetNotFound(t *testing.T) {
	ledger := NewLedger(&stubReader{})

	_, err := ledger.Get(context.Background(), 1)
	require.ErrorIs(t, err, ErrProcessedNotFound)
}

func TestLedgerGet(t *testing.T) {
	row := &ProcessedActivity{ID: 3, ActivityID: 99, ProcessedAt: time.Now().UTC()}
	ledger := NewLedger(&stubReader{row: row})

	got, err := ledger.Get(context.Background(), 99)
	require.NoError(t, err)
	require.Equal(t, row, got)
}

func TestLedgerListClampsLimit(t *testing.T) {
	reader := &stubReader{}
	ledger := NewLedger(reader)

	_, _, err := ledger.List(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Equal(t, defaultListLimit, reader.lastLimit)

	_, _, err = ledger.List(context.Background(), &Cursor{ID: 10}, 5000)
	require.NoError(t, err)
	require.Equal(t, maxListLimit, reader.lastLimit)
	require.Equal(t, &Cursor{ID: 10}, reader.lastCursor)
}

type stubReader struct {
	row        *ProcessedActivity
	lastLimit  int
	lastCursor *Cursor
}

func (r *stubReader) GetProcessed(context.Context, int64) (*ProcessedActivity, error) {
	return r.row, nil
}

func (r *stubReader) ListProcessed(_ context.Context, cursor *Cursor, limit int) ([]ProcessedActivity, *Cursor, error) {
	r.lastLimit = limit
	r.lastCursor = cursor
	return nil, nil, nil
}
