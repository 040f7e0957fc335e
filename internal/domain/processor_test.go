package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcessorPrivatizesMatchingWalk(t *testing.T) {
	store := newMemoryStore()
	client := &stubClient{activity: &Activity{ID: 7, Name: "Morning Walk", Type: "Walk", StartDateLocal: tuesdayMorning, StartLatLng: []float64{40.5, -73.5}}}
	notifier := &stubNotifier{}

	result, err := newTestProcessor(store, client, WithNotifier(notifier)).Process(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, OutcomePrivatized, result.Outcome)

	require.Len(t, client.updates, 1)
	require.Equal(t, ActivityUpdate{Name: "Rusty", Private: true}, client.updates[0])
	require.True(t, store.has(7))
	require.Equal(t, 1, notifier.calls)
}

func TestProcessorSkipsAlreadyProcessed(t *testing.T) {
	store := newMemoryStore()
	store.rows[7] = struct{}{}
	client := &stubClient{activity: &Activity{ID: 7, Type: "Walk", StartDateLocal: tuesdayMorning, StartLatLng: []float64{40.5, -73.5}}}

	result, err := newTestProcessor(store, client).Process(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyProcessed, result.Outcome)
	require.Zero(t, client.fetches)
	require.Empty(t, client.updates)
	require.Equal(t, 0, store.inserts)
}

func TestProcessorRejectionsLeaveNoTrace(t *testing.T) {
	cases := map[string]Activity{
		"run":         {Type: "Run", StartDateLocal: tuesdayMorning, StartLatLng: []float64{40.5, -73.5}},
		"saturday":    {Type: "Walk", StartDateLocal: saturdayMorning, StartLatLng: []float64{40.5, -73.5}},
		"outside":     {Type: "Walk", StartDateLocal: tuesdayMorning, StartLatLng: []float64{41.5, -73.5}},
		"no-location": {Type: "Walk", StartDateLocal: tuesdayMorning},
	}
	for name, activity := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemoryStore()
			client := &stubClient{activity: &activity}

			result, err := newTestProcessor(store, client).Process(context.Background(), 9)
			require.NoError(t, err)
			require.Equal(t, OutcomeRejected, result.Outcome)
			require.NotEmpty(t, result.Reason)
			require.Empty(t, client.updates)
			require.False(t, store.has(9))
		})
	}
}

func TestProcessorMalformedTimestamp(t *testing.T) {
	store := newMemoryStore()
	client := &stubClient{activity: &Activity{Type: "Walk", StartDateLocal: "not-a-date", StartLatLng: []float64{40.5, -73.5}}}

	result, err := newTestProcessor(store, client).Process(context.Background(), 11)
	require.ErrorIs(t, err, ErrMalformedActivity)
	require.Equal(t, OutcomeMalformed, result.Outcome)
	require.Empty(t, client.updates)
	require.False(t, store.has(11))
}

func TestProcessorUpdateFailureRecordsNothing(t *testing.T) {
	store := newMemoryStore()
	updateErr := errors.New("status 500")
	client := &stubClient{
		activity:  &Activity{Type: "Walk", StartDateLocal: tuesdayMorning, StartLatLng: []float64{40.5, -73.5}},
		updateErr: updateErr,
	}
	notifier := &stubNotifier{}

	result, err := newTestProcessor(store, client, WithNotifier(notifier)).Process(context.Background(), 12)
	require.ErrorIs(t, err, updateErr)
	require.Equal(t, OutcomeUpdateFailed, result.Outcome)
	require.False(t, store.has(12))
	require.Zero(t, notifier.calls)
}

func TestProcessorFetchFailure(t *testing.T) {
	store := newMemoryStore()
	fetchErr := errors.New("not found")
	client := &stubClient{fetchErr: fetchErr}

	result, err := newTestProcessor(store, client).Process(context.Background(), 13)
	require.ErrorIs(t, err, fetchErr)
	require.Equal(t, OutcomeFetchFailed, result.Outcome)
	require.Empty(t, client.updates)
}

func TestProcessorStoreUnavailable(t *testing.T) {
	store := newMemoryStore()
	store.hasErr = errors.New("connection refused")
	client := &stubClient{activity: &Activity{Type: "Walk", StartDateLocal: tuesdayMorning, StartLatLng: []float64{40.5, -73.5}}}

	result, err := newTestProcessor(store, client).Process(context.Background(), 14)
	require.Error(t, err)
	require.Equal(t, OutcomeStoreFailed, result.Outcome)
	require.Zero(t, client.fetches)
}

func TestProcessorConcurrentInsertIsBenign(t *testing.T) {
	store := newMemoryStore()
	store.markErr = ErrAlreadyProcessed
	client := &stubClient{activity: &Activity{Type: "Walk", StartDateLocal: tuesdayMorning, StartLatLng: []float64{40.5, -73.5}}}
	notifier := &stubNotifier{}

	result, err := newTestProcessor(store, client, WithNotifier(notifier)).Process(context.Background(), 15)
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, result.Outcome)
	require.Zero(t, notifier.calls)
}

func TestProcessorNotifierFailureDoesNotFail(t *testing.T) {
	store := newMemoryStore()
	client := &stubClient{activity: &Activity{Type: "Walk", StartDateLocal: tuesdayMorning, StartLatLng: []float64{40.5, -73.5}}}

	result, err := newTestProcessor(store, client, WithNotifier(&stubNotifier{err: errors.New("broker down")})).Process(context.Background(), 16)
	require.NoError(t, err)
	require.Equal(t, OutcomePrivatized, result.Outcome)
	require.True(t, store.has(16))
}

func TestPreviewDoesNotMutate(t *testing.T) {
	store := newMemoryStore()
	client := &stubClient{activity: &Activity{ID: 17, Type: "Walk", StartDateLocal: tuesdayMorning, StartLatLng: []float64{40.5, -73.5}}}

	activity, decision, err := newTestProcessor(store, client).Preview(context.Background(), 17)
	require.NoError(t, err)
	require.True(t, decision.Accept)
	require.Equal(t, int64(17), activity.ID)
	require.Empty(t, client.updates)
	require.Equal(t, 0, store.inserts)
}

func newTestProcessor(store ProcessedStore, client ActivityClient, opts ...ProcessorOption) *Processor {
	opts = append([]ProcessorOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewProcessor(store, client, opts...)
}

type memoryStore struct {
	mu      sync.Mutex
	rows    map[int64]struct{}
	inserts int
	hasErr  error
	markErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[int64]struct{})}
}

func (s *memoryStore) HasProcessed(_ context.Context, activityID int64) (bool, error) {
	if s.hasErr != nil {
		return false, s.hasErr
	}
	return s.has(activityID), nil
}

func (s *memoryStore) MarkProcessed(_ context.Context, activityID int64) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[activityID]; ok {
		return ErrAlreadyProcessed
	}
	s.rows[activityID] = struct{}{}
	s.inserts++
	return nil
}

func (s *memoryStore) has(activityID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[activityID]
	return ok
}

type stubClient struct {
	mu        sync.Mutex
	activity  *Activity
	fetchErr  error
	updateErr error
	fetches   int
	updates   []ActivityUpdate
}

func (c *stubClient) GetActivity(_ context.Context, activityID int64) (*Activity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	activity := *c.activity
	activity.ID = activityID
	return &activity, nil
}

func (c *stubClient) UpdateActivity(_ context.Context, _ int64, update ActivityUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updateErr != nil {
		return c.updateErr
	}
	c.updates = append(c.updates, update)
	return nil
}

type stubNotifier struct {
	calls int
	err   error
}

func (n *stubNotifier) NotifyPrivatized(context.Context, Activity, ActivityUpdate) error {
	n.calls++
	return n.err
}
