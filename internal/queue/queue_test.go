package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendguard/spendguard/internal/shared/types"
	"github.com/spendguard/spendguard/internal/storage"
)

type stubSubmitter struct {
	err      error
	failIDs  map[string]bool
	received []types.PurchaseEvent
}

func (s *stubSubmitter) AddPurchase(ctx context.Context, ev types.PurchaseEvent) (string, error) {
	s.received = append(s.received, ev)
	if s.err != nil {
		return "", s.err
	}
	if s.failIDs[ev.ID] {
		return "", errors.New("rejected")
	}
	return "remote-" + ev.ID, nil
}

func authed(v bool) AuthSource {
	return func() bool { return v }
}

func newQueue(t *testing.T, submit Submitter, auth AuthSource) *Queue {
	t.Helper()
	s, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, submit, auth, nil)
}

func event(id string) types.PurchaseEvent {
	return types.PurchaseEvent{
		ID:        id,
		ItemName:  "Widget",
		Price:     10,
		Currency:  "USD",
		Website:   "shop.example.com",
		Timestamp: time.Now(),
	}
}

func TestRecordPersistsPending(t *testing.T) {
	q := newQueue(t, &stubSubmitter{}, authed(true))

	require.NoError(t, q.Record(event("pur_01")))

	pending, err := q.List(types.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, types.StatusPending, pending[0].Status)
}

func TestSyncPendingMarksSynced(t *testing.T) {
	sub := &stubSubmitter{}
	q := newQueue(t, sub, authed(true))
	require.NoError(t, q.Record(event("pur_01")))
	require.NoError(t, q.Record(event("pur_02")))

	report, err := q.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncReport{Attempted: 2, Synced: 2}, report)

	synced, err := q.List(types.StatusSynced)
	require.NoError(t, err)
	require.Len(t, synced, 2)
	assert.Equal(t, "remote-pur_01", synced[0].RemoteID)

	// Second pass: nothing to resubmit.
	sub.received = nil
	report, err = q.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncReport{}, report)
	assert.Empty(t, sub.received, "synced events are never resubmitted")
}

func TestSyncPendingLeavesFailuresPending(t *testing.T) {
	sub := &stubSubmitter{failIDs: map[string]bool{"pur_02": true}}
	q := newQueue(t, sub, authed(true))
	require.NoError(t, q.Record(event("pur_01")))
	require.NoError(t, q.Record(event("pur_02")))

	report, err := q.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncReport{Attempted: 2, Synced: 1, Failed: 1}, report)

	pending, err := q.List(types.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pur_02", pending[0].ID)

	// The failed event is retried on the next pass.
	sub.failIDs = nil
	report, err = q.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncReport{Attempted: 1, Synced: 1}, report)
}

func TestSyncPendingSkippedWhenUnauthenticated(t *testing.T) {
	sub := &stubSubmitter{}
	q := newQueue(t, sub, authed(false))
	require.NoError(t, q.Record(event("pur_01")))

	report, err := q.SyncPending(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Empty(t, sub.received)

	pending, err := q.List(types.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "events wait for sign-in")
}

func TestSyncPendingHonorsContext(t *testing.T) {
	q := newQueue(t, &stubSubmitter{}, authed(true))
	require.NoError(t, q.Record(event("pur_01")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.SyncPending(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClear(t *testing.T) {
	q := newQueue(t, &stubSubmitter{}, authed(true))
	require.NoError(t, q.Record(event("pur_01")))

	require.NoError(t, q.Clear())

	all, err := q.List("")
	require.NoError(t, err)
	assert.Empty(t, all)
}
