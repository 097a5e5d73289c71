package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendguard/spendguard/internal/infrastructure/config"
	"github.com/spendguard/spendguard/internal/shared/types"
)

func newClient(baseURL string) *Client {
	return New(config.LedgerConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func newUserClient(baseURL, userID string) *Client {
	c := newClient(baseURL)
	c.SetIdentity(func() string { return userID })
	return c
}

func TestAddPurchase(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/purchases/add", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"purchase": map[string]any{"id": "srv-42"},
		})
	}))
	defer srv.Close()

	remoteID, err := newUserClient(srv.URL, "u-7").AddPurchase(context.Background(), types.PurchaseEvent{
		ID:        "pur_01",
		ItemName:  "Widget",
		Price:     12.5,
		Currency:  "USD",
		Website:   "shop.example.com",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-42", remoteID)

	assert.Equal(t, "pur_01", gotBody["client_id"])
	assert.Equal(t, "u-7", gotBody["user_id"])
	assert.Equal(t, "Widget", gotBody["item_name"])
	assert.Equal(t, 12.5, gotBody["price"])
}

func TestAddPurchaseServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "limit reached"})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).AddPurchase(context.Background(), types.PurchaseEvent{ID: "pur_01"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit reached")
}

func TestListPurchases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/purchases/list", r.URL.Path)
		assert.Equal(t, "u-7", r.URL.Query().Get("user_id"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "electronics", r.URL.Query().Get("category"))
		assert.Empty(t, r.URL.Query().Get("offset"))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"purchases": []map[string]any{
				{"id": "srv-1", "item_name": "Widget", "price": 10.0, "currency": "USD"},
			},
			"statistics": map[string]any{
				"total_spent":    10.0,
				"purchase_count": 1,
				"average_price":  10.0,
			},
		})
	}))
	defer srv.Close()

	got, stats, err := newUserClient(srv.URL, "u-7").ListPurchases(context.Background(), ListOptions{
		Limit:    5,
		Category: "electronics",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Widget", got[0].ItemName)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.PurchaseCount)
	assert.Equal(t, 10.0, stats.TotalSpent)
}

func TestCheckSpending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/purchases/check-spending", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u-7", body["user_id"])
		assert.Equal(t, "Widget", body["item_name"])
		assert.Equal(t, 25.0, body["price"])
		json.NewEncoder(w).Encode(map[string]any{
			"is_overspending":  true,
			"roast_message":    "again?",
			"spent_today":      80.0,
			"daily_limit":      50.0,
			"new_total":        105.0,
			"overspend_amount": 55.0,
		})
	}))
	defer srv.Close()

	check, err := newUserClient(srv.URL, "u-7").CheckSpending(context.Background(), "Widget", 25.0)
	require.NoError(t, err)
	assert.True(t, check.IsOverspending)
	assert.Equal(t, 55.0, check.OverspendAmount)
	assert.Equal(t, "again?", check.RoastMessage)
}

func TestCheckSpendingHonorsDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client abort; with
		// unread body data net/http never starts the background read that
		// cancels r.Context(), and srv.Close() would block forever.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(srv.URL).CheckSpending(ctx, "Widget", 25.0)
	assert.Error(t, err)
}

func TestInitializeGoalsAlreadyExistsIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/goals/initialize", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "goals already exists for user"})
	}))
	defer srv.Close()

	err := newClient(srv.URL).InitializeGoals(context.Background(), "sam@example.com")
	assert.NoError(t, err)
}

func TestInitializeGoalsOtherFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "unknown user"})
	}))
	defer srv.Close()

	err := newClient(srv.URL).InitializeGoals(context.Background(), "sam@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown user")
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, newClient(srv.URL).Health(context.Background()))
}

func TestRetriesTransientConnectionFailures(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			// Tear the connection down mid-request so the client sees a
			// transport error, not an HTTP status.
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newClient(srv.URL).Health(context.Background()))
	assert.Equal(t, 3, attempts)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	for i := 0; i < 5; i++ {
		_, _, err := c.ListPurchases(context.Background(), ListOptions{})
		require.Error(t, err)
	}

	_, _, err := c.ListPurchases(context.Background(), ListOptions{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
