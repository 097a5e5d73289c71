// Package authbridge copies a signed-in identity from the companion web
// application into local state. Sign-in is the gate for sync: without a
// stored profile the queue holds events locally and nothing is submitted.
package authbridge

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spendguard/spendguard/internal/infrastructure/logging"
	"github.com/spendguard/spendguard/internal/shared/types"
	"github.com/spendguard/spendguard/internal/storage"
)

// ErrNoEmail rejects profiles missing the one mandatory field.
var ErrNoEmail = errors.New("profile has no email")

// GoalInitializer provisions default goals for a fresh account.
type GoalInitializer interface {
	InitializeGoals(ctx context.Context, email string) error
}

// Bridge moves identity state between the web application and the store.
type Bridge struct {
	store *storage.Store
	goals GoalInitializer
	log   *logging.Logger
}

// New creates a bridge. goals may be nil when no ledger is configured.
func New(store *storage.Store, goals GoalInitializer, log *logging.Logger) *Bridge {
	if log == nil {
		log = logging.NewNop()
	}
	return &Bridge{store: store, goals: goals, log: log}
}

// SignIn stores the profile, flips the authenticated flag, and provisions
// goals best-effort. Goal initialization failure never fails the sign-in;
// the account works without it and provisioning retries on the next
// sign-in.
func (b *Bridge) SignIn(ctx context.Context, profile types.UserProfile) error {
	if profile.Email == "" {
		return ErrNoEmail
	}

	if err := b.store.SetValue(storage.KeyUserProfile, profile); err != nil {
		return err
	}
	if err := b.store.SetValue(storage.KeyAuthenticated, true); err != nil {
		return err
	}
	if err := b.store.SetValue(storage.KeyAuthSyncedAt, time.Now().UnixMilli()); err != nil {
		return err
	}

	if b.goals != nil {
		if err := b.goals.InitializeGoals(ctx, profile.Email); err != nil {
			b.log.Warn("goal initialization failed",
				zap.String("email", profile.Email),
				zap.Error(err))
		}
	}

	b.log.Info("user signed in", zap.String("email", profile.Email))
	return nil
}

// SignOut clears the stored identity. Queued purchase events stay put.
func (b *Bridge) SignOut() error {
	if err := b.store.DeleteValue(storage.KeyUserProfile); err != nil {
		return err
	}
	return b.store.SetValue(storage.KeyAuthenticated, false)
}

// Authenticated reports whether a signed-in user exists. Any read failure
// counts as unauthenticated.
func (b *Bridge) Authenticated() bool {
	var flag bool
	if err := b.store.GetValue(storage.KeyAuthenticated, &flag); err != nil {
		return false
	}
	return flag
}

// Profile returns the stored identity, or storage.ErrNotFound.
func (b *Bridge) Profile() (types.UserProfile, error) {
	var p types.UserProfile
	err := b.store.GetValue(storage.KeyUserProfile, &p)
	return p, err
}

// UserID returns the ledger identity for the signed-in user, or "" when
// nobody is signed in. Profiles without an account id fall back to the
// email.
func (b *Bridge) UserID() string {
	p, err := b.Profile()
	if err != nil {
		return ""
	}
	if p.ID != "" {
		return p.ID
	}
	return p.Email
}
