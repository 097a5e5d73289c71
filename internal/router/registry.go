// Package router arbitrates every page context's access to shared state.
// Providers own one concern each (purchases, auth, visits, products,
// sites); the registry dispatches tool calls to them. Pages never touch
// storage or the ledger directly.
package router

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spendguard/spendguard/internal/shared/types"
)

// Provider is one registered concern.
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)
}

// Registry manages provider discovery and execution.
type Registry struct {
	providers sync.Map
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider under its definition's ID.
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return fmt.Errorf("provider ID cannot be empty")
	}
	r.providers.Store(def.ID, provider)
	return nil
}

// Unregister removes a provider.
func (r *Registry) Unregister(serviceID string) {
	r.providers.Delete(serviceID)
}

// Get retrieves a provider by ID.
func (r *Registry) Get(serviceID string) (Provider, bool) {
	val, ok := r.providers.Load(serviceID)
	if !ok {
		return nil, false
	}
	return val.(Provider), true
}

// List returns registered service definitions, optionally filtered by
// category.
func (r *Registry) List(category *types.Category) []types.Service {
	var services []types.Service
	r.providers.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
		return true
	})
	return services
}

// Execute dispatches a tool call. Tool IDs are "service.tool"; the prefix
// selects the provider.
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	parts := strings.SplitN(toolID, ".", 2)
	if len(parts) < 2 {
		return Failure(fmt.Sprintf("invalid tool ID format: %s", toolID))
	}

	provider, ok := r.Get(parts[0])
	if !ok {
		return Failure(fmt.Sprintf("service not found: %s", parts[0]))
	}

	return provider.Execute(ctx, toolID, params, appCtx)
}

// Stats summarizes the registry for the inspection endpoint.
func (r *Registry) Stats() map[string]interface{} {
	var total, totalTools int
	categories := make(map[string]int)

	r.providers.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		total++
		totalTools += len(def.Tools)
		categories[string(def.Category)]++
		return true
	})

	return map[string]interface{}{
		"total_services": total,
		"total_tools":    totalTools,
		"categories":     categories,
	}
}
