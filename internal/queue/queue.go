// Package queue owns the durable purchase-event pipeline: record locally
// first, reconcile with the remote ledger later. Delivery is at-least-once;
// the client-generated id is what lets the backend dedupe resubmissions.
package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spendguard/spendguard/internal/infrastructure/logging"
	"github.com/spendguard/spendguard/internal/shared/types"
)

// Submitter delivers a single event to the remote ledger and returns the
// ledger's id for it.
type Submitter interface {
	AddPurchase(ctx context.Context, ev types.PurchaseEvent) (string, error)
}

// AuthSource reports whether an authenticated user exists. Sync without one
// would be rejected remotely, so the queue does not try.
type AuthSource func() bool

// Store is the durability surface the queue needs.
type Store interface {
	InsertPurchase(ev types.PurchaseEvent) error
	MarkPurchaseSynced(id, remoteID string) error
	ListPurchases(status types.PurchaseStatus) ([]types.PurchaseEvent, error)
	ClearPurchases() error
}

// SyncReport summarizes one SyncPending pass.
type SyncReport struct {
	Skipped   bool `json:"skipped"`
	Attempted int  `json:"attempted"`
	Synced    int  `json:"synced"`
	Failed    int  `json:"failed"`
}

// Queue records purchase events and reconciles them with the ledger.
type Queue struct {
	store  Store
	submit Submitter
	authed AuthSource
	log    *logging.Logger
}

// New creates a queue over the given store and submitter.
func New(store Store, submit Submitter, authed AuthSource, log *logging.Logger) *Queue {
	if log == nil {
		log = logging.NewNop()
	}
	return &Queue{store: store, submit: submit, authed: authed, log: log}
}

// Record persists the event as pending. This happens before any network
// attempt; a crash after Record loses nothing.
func (q *Queue) Record(ev types.PurchaseEvent) error {
	ev.Status = types.StatusPending
	if err := q.store.InsertPurchase(ev); err != nil {
		return fmt.Errorf("recording purchase: %w", err)
	}
	q.log.Info("purchase recorded",
		zap.String("purchase_id", ev.ID),
		zap.String("item", ev.ItemName),
		zap.Float64("price", ev.Price))
	return nil
}

// SyncPending submits every pending event once. Successes flip to synced
// with the ledger's id attached; failures stay pending for the next pass.
// Synced events are never resubmitted. Without an authenticated user the
// whole pass is skipped.
func (q *Queue) SyncPending(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	if q.submit == nil {
		report.Skipped = true
		q.log.Debug("sync skipped, no ledger configured")
		return report, nil
	}
	if q.authed != nil && !q.authed() {
		report.Skipped = true
		q.log.Debug("sync skipped, no authenticated user")
		return report, nil
	}

	pending, err := q.store.ListPurchases(types.StatusPending)
	if err != nil {
		return report, fmt.Errorf("listing pending purchases: %w", err)
	}

	for _, ev := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Attempted++

		remoteID, err := q.submit.AddPurchase(ctx, ev)
		if err != nil {
			report.Failed++
			q.log.Warn("purchase sync failed, will retry",
				zap.String("purchase_id", ev.ID),
				zap.Error(err))
			continue
		}

		if err := q.store.MarkPurchaseSynced(ev.ID, remoteID); err != nil {
			// Submitted but not marked: the next pass resubmits and the
			// backend dedupes by client id.
			report.Failed++
			q.log.Error("marking purchase synced",
				zap.String("purchase_id", ev.ID),
				zap.Error(err))
			continue
		}
		report.Synced++
	}

	q.log.Info("sync pass complete",
		zap.Int("attempted", report.Attempted),
		zap.Int("synced", report.Synced),
		zap.Int("failed", report.Failed))
	return report, nil
}

// List returns events filtered by status; empty status lists all.
func (q *Queue) List(status types.PurchaseStatus) ([]types.PurchaseEvent, error) {
	return q.store.ListPurchases(status)
}

// Clear removes every event, synced or not.
func (q *Queue) Clear() error {
	return q.store.ClearPurchases()
}
