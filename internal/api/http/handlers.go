// Package http holds the REST surface the popup and the companion web
// application use: health, service discovery, tool execution, and queue
// inspection.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spendguard/spendguard/internal/infrastructure/monitoring"
	"github.com/spendguard/spendguard/internal/queue"
	"github.com/spendguard/spendguard/internal/router"
	"github.com/spendguard/spendguard/internal/shared/types"
)

// LedgerProber reports reachability of the remote ledger.
type LedgerProber interface {
	Health(ctx context.Context) error
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	registry *router.Registry
	queue    *queue.Queue
	ledger   LedgerProber
	metrics  *monitoring.Metrics
}

// NewHandlers creates a handler set. ledger may be nil when none is
// configured.
func NewHandlers(registry *router.Registry, q *queue.Queue, ledger LedgerProber, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{registry: registry, queue: q, ledger: ledger, metrics: metrics}
}

// Root handles the liveness probe.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "spendguard-router",
	})
}

// Health reports component health, including a bounded ledger probe.
func (h *Handlers) Health(c *gin.Context) {
	ledgerStatus := gin.H{"configured": h.ledger != nil}
	if h.ledger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ledger.Health(ctx); err != nil {
			ledgerStatus["reachable"] = false
			ledgerStatus["error"] = err.Error()
		} else {
			ledgerStatus["reachable"] = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"registry": h.registry.Stats(),
		"ledger":   ledgerStatus,
	})
}

// ListServices lists registered providers, optionally filtered by
// category.
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		cat := types.Category(raw)
		category = &cat
	}

	services := h.registry.List(category)
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"count":    len(services),
	})
}

// Execute runs one router tool synchronously.
func (h *Handlers) Execute(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appCtx := &types.Context{PageID: req.PageID}
	if reqID, ok := c.Get("request_id"); ok {
		s := reqID.(string)
		appCtx.RequestID = &s
	}

	service := req.ToolID
	if idx := strings.IndexByte(service, '.'); idx > 0 {
		service = service[:idx]
	}
	timer := monitoring.NewTimer(h.metrics, service, req.ToolID)

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		timer.Stop("error")
		h.metrics.RecordToolError(service, req.ToolID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Success {
		timer.Stop("success")
	} else {
		timer.Stop("failure")
	}
	c.JSON(http.StatusOK, result)
}

// ListPurchases exposes the queue for the popup.
func (h *Handlers) ListPurchases(c *gin.Context) {
	status := types.PurchaseStatus(c.Query("status"))
	events, err := h.queue.List(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	pending := 0
	for _, ev := range events {
		if ev.Status == types.StatusPending {
			pending++
		}
	}
	h.metrics.SetQueuePending(pending)

	c.JSON(http.StatusOK, gin.H{
		"purchases": events,
		"count":     len(events),
		"pending":   pending,
	})
}

// SyncPurchases triggers one sync pass.
func (h *Handlers) SyncPurchases(c *gin.Context) {
	report, err := h.queue.SyncPending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.metrics.RecordSyncPass(report.Attempted, report.Synced, report.Failed)
	c.JSON(http.StatusOK, report)
}

// ClearPurchases empties the queue.
func (h *Handlers) ClearPurchases(c *gin.Context) {
	if err := h.queue.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// MetricsSummary returns the JSON snapshot for the popup's stats view.
func (h *Handlers) MetricsSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetSnapshot())
}
