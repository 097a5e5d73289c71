package authbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendguard/spendguard/internal/shared/types"
	"github.com/spendguard/spendguard/internal/storage"
)

type stubGoals struct {
	err    error
	emails []string
}

func (s *stubGoals) InitializeGoals(ctx context.Context, email string) error {
	s.emails = append(s.emails, email)
	return s.err
}

func newBridge(t *testing.T, goals GoalInitializer) (*Bridge, *storage.Store) {
	t.Helper()
	s, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, goals, nil), s
}

func TestSignInStoresProfileAndFlag(t *testing.T) {
	goals := &stubGoals{}
	b, _ := newBridge(t, goals)

	profile := types.UserProfile{Email: "sam@example.com", Name: "Sam"}
	require.NoError(t, b.SignIn(context.Background(), profile))

	assert.True(t, b.Authenticated())
	got, err := b.Profile()
	require.NoError(t, err)
	assert.Equal(t, profile, got)
	assert.Equal(t, []string{"sam@example.com"}, goals.emails)
}

func TestSignInRequiresEmail(t *testing.T) {
	b, _ := newBridge(t, nil)

	err := b.SignIn(context.Background(), types.UserProfile{Name: "Sam"})
	assert.ErrorIs(t, err, ErrNoEmail)
	assert.False(t, b.Authenticated())
}

func TestSignInSurvivesGoalFailure(t *testing.T) {
	goals := &stubGoals{err: errors.New("ledger down")}
	b, _ := newBridge(t, goals)

	require.NoError(t, b.SignIn(context.Background(), types.UserProfile{Email: "sam@example.com"}))
	assert.True(t, b.Authenticated(), "goal provisioning is best-effort")
}

func TestSignOutKeepsQueue(t *testing.T) {
	b, store := newBridge(t, nil)
	require.NoError(t, b.SignIn(context.Background(), types.UserProfile{Email: "sam@example.com"}))
	require.NoError(t, store.InsertPurchase(types.PurchaseEvent{
		ID: "pur_01", ItemName: "Widget", Currency: "USD", Status: types.StatusPending,
	}))

	require.NoError(t, b.SignOut())

	assert.False(t, b.Authenticated())
	_, err := b.Profile()
	assert.ErrorIs(t, err, storage.ErrNotFound)

	events, err := store.ListPurchases("")
	require.NoError(t, err)
	assert.Len(t, events, 1, "sign-out never drops queued events")
}

func TestAuthenticatedDefaultsFalse(t *testing.T) {
	b, _ := newBridge(t, nil)
	assert.False(t, b.Authenticated())
}

func TestUserIDPrefersAccountID(t *testing.T) {
	b, _ := newBridge(t, nil)
	assert.Empty(t, b.UserID())

	require.NoError(t, b.SignIn(context.Background(), types.UserProfile{ID: "u-7", Email: "sam@example.com"}))
	assert.Equal(t, "u-7", b.UserID())

	require.NoError(t, b.SignOut())
	assert.Empty(t, b.UserID())
}

func TestUserIDFallsBackToEmail(t *testing.T) {
	b, _ := newBridge(t, nil)
	require.NoError(t, b.SignIn(context.Background(), types.UserProfile{Email: "sam@example.com"}))
	assert.Equal(t, "sam@example.com", b.UserID())
}
