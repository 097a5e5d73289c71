package router

import (
	"context"
	"errors"

	"github.com/spendguard/spendguard/internal/classify"
	"github.com/spendguard/spendguard/internal/shared/types"
	"github.com/spendguard/spendguard/internal/storage"
)

// SitesProvider classifies hostnames and caches the answers.
type SitesProvider struct {
	store *storage.Store
}

// NewSitesProvider creates the sites provider.
func NewSitesProvider(store *storage.Store) *SitesProvider {
	return &SitesProvider{store: store}
}

// Definition returns service metadata.
func (p *SitesProvider) Definition() types.Service {
	return types.Service{
		ID:           "sites",
		Name:         "Site Classifier",
		Description:  "Classifies hostnames as shopping, financial, subscription, or general",
		Category:     types.CategorySites,
		Capabilities: []string{"classify", "retailer"},
		Tools: []types.Tool{
			{
				ID:          "sites.classify",
				Name:        "Classify Site",
				Description: "Return the category for a hostname",
				Parameters: []types.Parameter{
					{Name: "hostname", Type: "string", Description: "Hostname to classify", Required: true},
				},
				Returns: "string",
			},
			{
				ID:          "sites.isRetailer",
				Name:        "Is Known Retailer",
				Description: "Report whether the hostname has extraction rules",
				Parameters: []types.Parameter{
					{Name: "hostname", Type: "string", Description: "Hostname to check", Required: true},
				},
				Returns: "boolean",
			},
		},
	}
}

// Execute dispatches a sites tool.
func (p *SitesProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "sites.classify":
		return p.classify(params)
	case "sites.isRetailer":
		return p.isRetailer(params)
	default:
		return Failure("unknown tool: " + toolID)
	}
}

func (p *SitesProvider) classify(params map[string]interface{}) (*types.Result, error) {
	hostname, err := getString(params, "hostname", true)
	if err != nil {
		return Failure(err.Error())
	}

	siteType := string(classify.WebsiteType(hostname))

	// Cache is advisory: a write failure degrades to reclassification.
	cache := map[string]string{}
	if err := p.store.GetValue(storage.KeyWebsiteTypes, &cache); err != nil && !errors.Is(err, storage.ErrNotFound) {
		cache = map[string]string{}
	}
	cache[hostname] = siteType
	_ = p.store.SetValue(storage.KeyWebsiteTypes, cache)

	return Success(map[string]interface{}{"type": siteType})
}

func (p *SitesProvider) isRetailer(params map[string]interface{}) (*types.Result, error) {
	hostname, err := getString(params, "hostname", true)
	if err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{"retailer": classify.IsKnownRetailer(hostname)})
}
