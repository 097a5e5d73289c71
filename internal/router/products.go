package router

import (
	"context"
	"errors"
	"time"

	"github.com/spendguard/spendguard/internal/shared/types"
	"github.com/spendguard/spendguard/internal/storage"
)

// ProductsProvider exposes the last-viewed product slot and the bounded
// recent history that page watchers feed.
type ProductsProvider struct {
	store *storage.Store
}

// NewProductsProvider creates the products provider.
func NewProductsProvider(store *storage.Store) *ProductsProvider {
	return &ProductsProvider{store: store}
}

// Definition returns service metadata.
func (p *ProductsProvider) Definition() types.Service {
	return types.Service{
		ID:           "products",
		Name:         "Product Slots",
		Description:  "Holds the last product a page watcher saw and a bounded recent history",
		Category:     types.CategoryProducts,
		Capabilities: []string{"set_last", "last", "recent"},
		Tools: []types.Tool{
			{
				ID:          "products.setLast",
				Name:        "Set Last Product",
				Description: "Overwrite the last-viewed slot and append to recent history",
				Parameters: []types.Parameter{
					{Name: "item_name", Type: "string", Description: "Product name", Required: true},
					{Name: "price", Type: "number", Description: "Listed price", Required: false},
					{Name: "currency", Type: "string", Description: "ISO currency code (default USD)", Required: false},
					{Name: "website", Type: "string", Description: "Hostname of the shop", Required: false},
					{Name: "url", Type: "string", Description: "Product page URL", Required: false},
					{Name: "description", Type: "string", Description: "Sanitized description", Required: false},
				},
				Returns: "boolean",
			},
			{
				ID:          "products.last",
				Name:        "Last Product",
				Description: "Return the last-viewed product, if any",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          "products.recent",
				Name:        "Recent Products",
				Description: "Return the recent-product history, newest first",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
		},
	}
}

// Execute dispatches a products tool.
func (p *ProductsProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "products.setLast":
		return p.setLast(params)
	case "products.last":
		return p.last()
	case "products.recent":
		return p.recent()
	default:
		return Failure("unknown tool: " + toolID)
	}
}

func (p *ProductsProvider) setLast(params map[string]interface{}) (*types.Result, error) {
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
	description, _ := getString(params, "description", false)

	product := types.ProductDescriptor{
		URL:         pageURL,
		Website:     website,
		ItemName:    itemName,
		Price:       price,
		Currency:    currency,
		Description: description,
		Timestamp:   time.Now(),
	}
	if err := p.store.PushRecentProduct(product); err != nil {
		return Failure(err.Error())
	}
	return Success(nil)
}

func (p *ProductsProvider) last() (*types.Result, error) {
	var product types.ProductDescriptor
	err := p.store.GetValue(storage.KeyLastProduct, &product)
	if errors.Is(err, storage.ErrNotFound) {
		return Success(map[string]interface{}{"product": nil})
	}
	if err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{"product": product})
}

func (p *ProductsProvider) recent() (*types.Result, error) {
	var recent []types.ProductDescriptor
	err := p.store.GetValue(storage.KeyRecentProducts, &recent)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{
		"products": recent,
		"count":    len(recent),
	})
}
