// Package ledger is the HTTP client for the remote spending ledger: the
// backend that stores purchases, evaluates budgets, and owns goal state.
// Every call goes through a rate limiter and a circuit breaker, and
// transient failures retry with backoff.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/spendguard/spendguard/internal/infrastructure/config"
	"github.com/spendguard/spendguard/internal/infrastructure/resilience"
	"github.com/spendguard/spendguard/internal/shared/types"
)

// ErrUnavailable wraps failures where the ledger could not be reached at
// all, including an open circuit.
var ErrUnavailable = errors.New("ledger unavailable")

// IdentitySource supplies the signed-in user's ledger id, or "" when
// nobody is signed in.
type IdentitySource func() string

// Client talks to the ledger API.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	identity IdentitySource
}

// New creates a client for the configured ledger endpoint.
func New(cfg config.LedgerConfig) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetTransport(retryClient.HTTPClient.Transport)

	if cfg.APIKey != "" {
		restyClient.SetHeader("x-api-key", cfg.APIKey)
	}

	breaker := resilience.New("ledger", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		breaker: breaker,
	}
}

// SetIdentity wires the signed-in user lookup. Requests made while src
// returns "" omit user_id; the ledger treats them as anonymous.
func (c *Client) SetIdentity(src IdentitySource) {
	c.identity = src
}

func (c *Client) userID() string {
	if c.identity == nil {
		return ""
	}
	return c.identity()
}

// do runs fn behind the limiter and breaker.
func (c *Client) do(ctx context.Context, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

type addPurchaseRequest struct {
	ClientID  string  `json:"client_id"`
	UserID    string  `json:"user_id,omitempty"`
	ItemName  string  `json:"item_name"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Website   string  `json:"website"`
	URL       string  `json:"url,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type addPurchaseResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Purchase struct {
		ID string `json:"id"`
	} `json:"purchase"`
}

// AddPurchase submits one event and returns the ledger's id for it. The
// client id travels with the request so resubmissions dedupe server-side.
func (c *Client) AddPurchase(ctx context.Context, ev types.PurchaseEvent) (string, error) {
	var out addPurchaseResponse
	err := c.do(ctx, func() error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetBody(addPurchaseRequest{
				ClientID:  ev.ID,
				UserID:    c.userID(),
				ItemName:  ev.ItemName,
				Price:     ev.Price,
				Currency:  ev.Currency,
				Website:   ev.Website,
				URL:       ev.URL,
				Timestamp: ev.Timestamp.UnixMilli(),
			}).
			SetResult(&out).
			ForceContentType("application/json").
			Post("/purchases/add")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("adding purchase: status %d", resp.StatusCode())
		}
		if !out.Success {
			return fmt.Errorf("adding purchase: %s", out.Error)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return out.Purchase.ID, nil
}

// ListOptions narrow and page a purchase listing. Zero values are
// omitted from the query.
type ListOptions struct {
	Limit     int
	Offset    int
	Category  string
	StartDate string
	EndDate   string
	Sort      string
}

func (o ListOptions) query() map[string]string {
	q := map[string]string{}
	if o.Limit > 0 {
		q["limit"] = strconv.Itoa(o.Limit)
	}
	if o.Offset > 0 {
		q["offset"] = strconv.Itoa(o.Offset)
	}
	if o.Category != "" {
		q["category"] = o.Category
	}
	if o.StartDate != "" {
		q["start_date"] = o.StartDate
	}
	if o.EndDate != "" {
		q["end_date"] = o.EndDate
	}
	if o.Sort != "" {
		q["sort"] = o.Sort
	}
	return q
}

// Statistics aggregates the listed purchases server-side.
type Statistics struct {
	TotalSpent    float64 `json:"total_spent"`
	PurchaseCount int     `json:"purchase_count"`
	AveragePrice  float64 `json:"average_price"`
}

type listPurchasesResponse struct {
	Success    bool                  `json:"success"`
	Error      string                `json:"error,omitempty"`
	Purchases  []types.PurchaseEvent `json:"purchases"`
	Statistics *Statistics           `json:"statistics,omitempty"`
}

// ListPurchases fetches the ledger's view of recorded purchases, with
// the aggregate statistics the ledger computes over the filtered set.
func (c *Client) ListPurchases(ctx context.Context, opts ListOptions) ([]types.PurchaseEvent, *Statistics, error) {
	query := opts.query()
	if uid := c.userID(); uid != "" {
		query["user_id"] = uid
	}

	var out listPurchasesResponse
	err := c.do(ctx, func() error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetResult(&out).
			ForceContentType("application/json").
			Get("/purchases/list")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("listing purchases: status %d", resp.StatusCode())
		}
		if !out.Success {
			return fmt.Errorf("listing purchases: %s", out.Error)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out.Purchases, out.Statistics, nil
}

type checkSpendingRequest struct {
	UserID   string  `json:"user_id,omitempty"`
	ItemName string  `json:"item_name"`
	Price    float64 `json:"price"`
}

// CheckSpending evaluates a prospective purchase against the user's daily
// budget. The item name travels with the price so the verdict's message
// can reference it. The caller bounds ctx; a slow ledger must not hold a
// decision open.
func (c *Client) CheckSpending(ctx context.Context, itemName string, price float64) (*types.SpendingCheck, error) {
	var out types.SpendingCheck
	err := c.do(ctx, func() error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetBody(checkSpendingRequest{
				UserID:   c.userID(),
				ItemName: itemName,
				Price:    price,
			}).
			SetResult(&out).
			ForceContentType("application/json").
			Post("/purchases/check-spending")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("checking spending: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type initializeGoalsRequest struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email"`
}

type initializeGoalsResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// InitializeGoals sets up default goals for a newly signed-in user. An
// "already exists" answer counts as success; initialization is idempotent
// from the caller's point of view.
func (c *Client) InitializeGoals(ctx context.Context, email string) error {
	return c.do(ctx, func() error {
		var out initializeGoalsResponse
		resp, err := c.resty.R().
			SetContext(ctx).
			SetBody(initializeGoalsRequest{UserID: c.userID(), Email: email}).
			SetResult(&out).
			SetError(&out).
			ForceContentType("application/json").
			Post("/goals/initialize")
		if err != nil {
			return err
		}
		if out.Success || strings.Contains(strings.ToLower(out.Error), "already exists") {
			return nil
		}
		if resp.IsError() {
			return fmt.Errorf("initializing goals: status %d", resp.StatusCode())
		}
		return fmt.Errorf("initializing goals: %s", out.Error)
	})
}

// Health probes the ledger's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, func() error {
		resp, err := c.resty.R().SetContext(ctx).Get("/health")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("health check: status %d", resp.StatusCode())
		}
		return nil
	})
}
