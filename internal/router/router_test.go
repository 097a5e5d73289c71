package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendguard/spendguard/internal/authbridge"
	"github.com/spendguard/spendguard/internal/queue"
	"github.com/spendguard/spendguard/internal/shared/types"
	"github.com/spendguard/spendguard/internal/storage"
	"github.com/spendguard/spendguard/internal/visits"
)

type stubChecker struct {
	check   *types.SpendingCheck
	err     error
	gotItem string
}

func (s *stubChecker) CheckSpending(ctx context.Context, itemName string, price float64) (*types.SpendingCheck, error) {
	s.gotItem = itemName
	return s.check, s.err
}

type stubSubmitter struct{}

func (stubSubmitter) AddPurchase(ctx context.Context, ev types.PurchaseEvent) (string, error) {
	return "remote-" + ev.ID, nil
}

func newTestRegistry(t *testing.T, checker SpendingChecker) (*Registry, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bridge := authbridge.New(store, nil, nil)
	q := queue.New(store, stubSubmitter{}, bridge.Authenticated, nil)

	r := NewRegistry()
	require.NoError(t, r.Register(NewPurchasesProvider(q, checker)))
	require.NoError(t, r.Register(NewAuthProvider(bridge)))
	require.NoError(t, r.Register(NewVisitsProvider(visits.New(store))))
	require.NoError(t, r.Register(NewProductsProvider(store)))
	require.NoError(t, r.Register(NewSitesProvider(store)))
	return r, store
}

func exec(t *testing.T, r *Registry, toolID string, params map[string]interface{}) *types.Result {
	t.Helper()
	res, err := r.Execute(context.Background(), toolID, params, &types.Context{})
	require.NoError(t, err)
	return res
}

func TestRegistryDispatch(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	res := exec(t, r, "sites.classify", map[string]interface{}{"hostname": "www.amazon.com"})
	require.True(t, res.Success)
	assert.Equal(t, "shopping", res.Data["type"])
}

func TestRegistryRejectsMalformedToolID(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	res := exec(t, r, "noseparator", nil)
	assert.False(t, res.Success)

	res = exec(t, r, "ghost.tool", nil)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Contains(t, *res.Error, "service not found")
}

func TestRegistryList(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	assert.Len(t, r.List(nil), 5)

	cat := types.CategoryPurchases
	filtered := r.List(&cat)
	require.Len(t, filtered, 1)
	assert.Equal(t, "purchases", filtered[0].ID)

	stats := r.Stats()
	assert.Equal(t, 5, stats["total_services"])
}

func TestPurchaseRecordAndList(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	res := exec(t, r, "purchases.record", map[string]interface{}{
		"item_name": "Widget",
		"price":     12.5,
		"website":   "shop.example.com",
	})
	require.True(t, res.Success)
	assert.NotEmpty(t, res.Data["id"])

	res = exec(t, r, "purchases.list", map[string]interface{}{"status": "pending"})
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Data["count"])
}

func TestPurchaseRecordRequiresItemName(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	res := exec(t, r, "purchases.record", map[string]interface{}{"price": 5.0})
	assert.False(t, res.Success)
}

func TestSyncRequiresAuth(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	exec(t, r, "purchases.record", map[string]interface{}{"item_name": "Widget"})

	res := exec(t, r, "purchases.sync", nil)
	require.True(t, res.Success)
	assert.Equal(t, true, res.Data["skipped"])

	res = exec(t, r, "auth.signIn", map[string]interface{}{"email": "sam@example.com"})
	require.True(t, res.Success)

	res = exec(t, r, "purchases.sync", nil)
	require.True(t, res.Success)
	assert.Equal(t, false, res.Data["skipped"])
	assert.Equal(t, 1, res.Data["synced"])
}

func TestCheckSpendingDegradesToNormal(t *testing.T) {
	r, _ := newTestRegistry(t, &stubChecker{err: assert.AnError})

	res := exec(t, r, "purchases.checkSpending", map[string]interface{}{"price": 20.0})
	require.True(t, res.Success)
	check := res.Data["check"].(*types.SpendingCheck)
	assert.False(t, check.IsOverspending)
	assert.Equal(t, true, res.Data["degraded"])
}

func TestCheckSpendingVerdict(t *testing.T) {
	checker := &stubChecker{check: &types.SpendingCheck{IsOverspending: true, OverspendAmount: 5}}
	r, _ := newTestRegistry(t, checker)

	res := exec(t, r, "purchases.checkSpending", map[string]interface{}{
		"item_name": "Widget",
		"price":     20.0,
	})
	require.True(t, res.Success)
	check := res.Data["check"].(*types.SpendingCheck)
	assert.True(t, check.IsOverspending)
	assert.Equal(t, "Widget", checker.gotItem)
}

func TestAuthStatusLifecycle(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	res := exec(t, r, "auth.status", nil)
	require.True(t, res.Success)
	assert.Equal(t, false, res.Data["authenticated"])

	exec(t, r, "auth.signIn", map[string]interface{}{"email": "sam@example.com", "name": "Sam"})

	res = exec(t, r, "auth.status", nil)
	assert.Equal(t, true, res.Data["authenticated"])
	profile := res.Data["user"].(types.UserProfile)
	assert.Equal(t, "sam@example.com", profile.Email)

	exec(t, r, "auth.signOut", nil)
	res = exec(t, r, "auth.status", nil)
	assert.Equal(t, false, res.Data["authenticated"])
}

func TestVisitsRoundTrip(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	res := exec(t, r, "visits.record", map[string]interface{}{
		"url":    "https://www.amazon.com/dp/B0TEST",
		"title":  "Amazon",
		"tab_id": 7.0,
	})
	require.True(t, res.Success)

	res = exec(t, r, "visits.current", nil)
	require.True(t, res.Success)
	cur := res.Data["current"].(visits.CurrentSite)
	assert.Equal(t, "shopping", cur.Type)

	res = exec(t, r, "visits.history", nil)
	assert.Equal(t, 1, res.Data["count"])
}

func TestProductsSlotAndHistory(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	res := exec(t, r, "products.last", nil)
	require.True(t, res.Success)
	assert.Nil(t, res.Data["product"])

	exec(t, r, "products.setLast", map[string]interface{}{
		"item_name": "Lamp", "price": 30.0, "currency": "EUR",
	})

	res = exec(t, r, "products.last", nil)
	product := res.Data["product"].(types.ProductDescriptor)
	assert.Equal(t, "Lamp", product.ItemName)

	res = exec(t, r, "products.recent", nil)
	assert.Equal(t, 1, res.Data["count"])
}
