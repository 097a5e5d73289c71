package router

import (
	"context"
	"time"

	"github.com/spendguard/spendguard/internal/queue"
	"github.com/spendguard/spendguard/internal/shared/id"
	"github.com/spendguard/spendguard/internal/shared/types"
)

// SpendingChecker evaluates a prospective purchase remotely.
type SpendingChecker interface {
	CheckSpending(ctx context.Context, itemName string, price float64) (*types.SpendingCheck, error)
}

// PurchasesProvider exposes the durable purchase queue and the remote
// spending check.
type PurchasesProvider struct {
	queue   *queue.Queue
	checker SpendingChecker
}

// NewPurchasesProvider creates the purchases provider. checker may be nil
// when no ledger is configured; checkSpending then reports a normal
// verdict.
func NewPurchasesProvider(q *queue.Queue, checker SpendingChecker) *PurchasesProvider {
	return &PurchasesProvider{queue: q, checker: checker}
}

// Definition returns service metadata.
func (p *PurchasesProvider) Definition() types.Service {
	return types.Service{
		ID:           "purchases",
		Name:         "Purchase Queue",
		Description:  "Records purchase events durably and reconciles them with the remote ledger",
		Category:     types.CategoryPurchases,
		Capabilities: []string{"record", "sync", "check_spending"},
		Tools: []types.Tool{
			{
				ID:          "purchases.record",
				Name:        "Record Purchase",
				Description: "Persist a confirmed purchase event as pending",
				Parameters: []types.Parameter{
					{Name: "item_name", Type: "string", Description: "Product name", Required: true},
					{Name: "price", Type: "number", Description: "Purchase price", Required: false},
					{Name: "currency", Type: "string", Description: "ISO currency code (default USD)", Required: false},
					{Name: "website", Type: "string", Description: "Hostname of the shop", Required: false},
					{Name: "url", Type: "string", Description: "Product page URL", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "purchases.sync",
				Name:        "Sync Pending",
				Description: "Submit pending events to the ledger once",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "purchases.list",
				Name:        "List Purchases",
				Description: "List recorded events, optionally filtered by status",
				Parameters: []types.Parameter{
					{Name: "status", Type: "string", Description: "pending or synced", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "purchases.clear",
				Name:        "Clear Purchases",
				Description: "Remove every recorded event",
				Parameters:  []types.Parameter{},
				Returns:     "boolean",
			},
			{
				ID:          "purchases.checkSpending",
				Name:        "Check Spending",
				Description: "Evaluate a prospective purchase against the daily budget",
				Parameters: []types.Parameter{
					{Name: "item_name", Type: "string", Description: "Product name", Required: false},
					{Name: "price", Type: "number", Description: "Prospective purchase price", Required: true},
				},
				Returns: "object",
			},
		},
	}
}

// Execute dispatches a purchases tool.
func (p *PurchasesProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "purchases.record":
		return p.record(params)
	case "purchases.sync":
		return p.sync(ctx)
	case "purchases.list":
		return p.list(params)
	case "purchases.clear":
		return p.clear()
	case "purchases.checkSpending":
		return p.checkSpending(ctx, params)
	default:
		return Failure("unknown tool: " + toolID)
	}
}

func (p *PurchasesProvider) record(params map[string]interface{}) (*types.Result, error) {
	itemName, err := getString(params, "item_name", true)
	if err != nil {
		return Failure(err.Error())
	}
	price, err := getFloat(params, "price", false)
	if err != nil {
		return Failure(err.Error())
	}
	currency, _ := getString(params, "currency", false)
	if currency == "" {
		currency = "USD"
	}
	website, _ := getString(params, "website", false)
	pageURL, _ := getString(params, "url", false)

	ev := types.PurchaseEvent{
		ID:        id.NewPurchaseID().String(),
		ItemName:  itemName,
		Price:     price,
		Currency:  currency,
		Website:   website,
		URL:       pageURL,
		Timestamp: time.Now(),
		Status:    types.StatusPending,
	}
	if err := p.queue.Record(ev); err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{"id": ev.ID})
}

func (p *PurchasesProvider) sync(ctx context.Context) (*types.Result, error) {
	report, err := p.queue.SyncPending(ctx)
	if err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{
		"skipped":   report.Skipped,
		"attempted": report.Attempted,
		"synced":    report.Synced,
		"failed":    report.Failed,
	})
}

func (p *PurchasesProvider) list(params map[string]interface{}) (*types.Result, error) {
	status, err := getString(params, "status", false)
	if err != nil {
		return Failure(err.Error())
	}
	events, err := p.queue.List(types.PurchaseStatus(status))
	if err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{
		"purchases": events,
		"count":     len(events),
	})
}

func (p *PurchasesProvider) clear() (*types.Result, error) {
	if err := p.queue.Clear(); err != nil {
		return Failure(err.Error())
	}
	return Success(nil)
}

func (p *PurchasesProvider) checkSpending(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	price, err := getFloat(params, "price", true)
	if err != nil {
		return Failure(err.Error())
	}
	itemName, _ := getString(params, "item_name", false)

	// No ledger, or a failing one: resolve normal. The page must never
	// stall waiting for a verdict.
	if p.checker == nil {
		return Success(map[string]interface{}{"check": &types.SpendingCheck{}})
	}
	check, err := p.checker.CheckSpending(ctx, itemName, price)
	if err != nil {
		return Success(map[string]interface{}{"check": &types.SpendingCheck{}, "degraded": true})
	}
	return Success(map[string]interface{}{"check": check})
}
