package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendguard/spendguard/internal/dom"
	"github.com/spendguard/spendguard/internal/shared/types"
)

func parsePage(t *testing.T, html, url string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(html, url)
	require.NoError(t, err)
	return doc
}

func TestProductGenericRule(t *testing.T) {
	page := `<html><head><title>Shop</title></head><body>
		<h1 class="product-title">Widget</h1>
		<span class="product-price">$12.50</span>
	</body></html>`
	doc := parsePage(t, page, "https://shop.example.com/products/widget")

	product, ok := Product(doc)
	require.True(t, ok)
	assert.Equal(t, "Widget", product.ItemName)
	assert.Equal(t, 12.50, product.Price)
	assert.Equal(t, "USD", product.Currency)
	assert.Equal(t, "shop.example.com", product.Website)
}

func TestProductUnparsablePriceDefaultsZero(t *testing.T) {
	page := `<html><body>
		<h1 class="product-title">Widget</h1>
		<span class="product-price">Call for price</span>
	</body></html>`
	doc := parsePage(t, page, "https://shop.example.com/products/widget")

	product, ok := Product(doc)
	require.True(t, ok)
	assert.Equal(t, "Widget", product.ItemName)
	assert.Equal(t, 0.0, product.Price)
	assert.Equal(t, "USD", product.Currency)
}

func TestProductNoNameFails(t *testing.T) {
	page := `<html><body><p>nothing for sale</p></body></html>`
	doc := parsePage(t, page, "https://shop.example.com/about")

	_, ok := Product(doc)
	assert.False(t, ok)
}

func TestProductSiteRule(t *testing.T) {
	page := `<html><body>
		<h1>Unrelated heading</h1>
		<span id="productTitle"> Mechanical Keyboard </span>
		<div id="corePrice_feature_div"><span class="a-offscreen">$89.99</span></div>
	</body></html>`
	doc := parsePage(t, page, "https://www.amazon.com/dp/B0TEST")

	product, ok := Product(doc)
	require.True(t, ok)
	assert.Equal(t, "Mechanical Keyboard", product.ItemName)
	assert.Equal(t, 89.99, product.Price)
}

func TestProductOpenGraphFallback(t *testing.T) {
	page := `<html><head>
		<meta property="og:title" content="Desk Lamp">
		<meta property="og:description" content="A <b>bright</b> lamp">
	</head><body><div class="price">€30.00</div></body></html>`
	doc := parsePage(t, page, "https://shop.example.com/item/lamp")

	product, ok := Product(doc)
	require.True(t, ok)
	assert.Equal(t, "Desk Lamp", product.ItemName)
	assert.Equal(t, 30.0, product.Price)
	assert.Equal(t, "EUR", product.Currency)
	// Markup is stripped out of descriptions.
	assert.Equal(t, "A bright lamp", product.Description)
}

func TestIsProductPage(t *testing.T) {
	productPaths := []string{
		"https://www.amazon.com/dp/B0TEST",
		"https://www.ebay.com/itm/1234",
		"https://www.walmart.com/ip/5678",
		"https://shop.example.com/products/widget",
		"https://store.example.com/shop/item/42",
	}
	for _, u := range productPaths {
		doc := parsePage(t, `<html><body></body></html>`, u)
		assert.True(t, IsProductPage(doc), "url: %s", u)
	}

	doc := parsePage(t, `<html><body></body></html>`, "https://blog.example.com/post/1")
	assert.False(t, IsProductPage(doc))
}

func TestIsProductPageKnownRetailerShape(t *testing.T) {
	// Unrecognized path on a known retailer still counts when the page
	// exposes name- and price-shaped elements.
	page := `<html><body>
		<span id="productTitle">Thing</span>
		<span class="a-price"><span class="a-offscreen">$5.00</span></span>
	</body></html>`
	doc := parsePage(t, page, "https://www.amazon.com/some/unknown/path")
	assert.True(t, IsProductPage(doc))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text     string
		price    float64
		currency string
		ok       bool
	}{
		{"$12.50", 12.50, "USD", true},
		{"Now only $1,299.00!", 1299.0, "USD", true},
		{"€45", 45.0, "EUR", true},
		{"£9.99", 9.99, "GBP", true},
		{"USD 20.00", 20.0, "USD", true},
		{"12.50", 12.50, "USD", true},
		{"free", 0, "USD", false},
		{"", 0, "USD", false},
	}

	for _, tt := range tests {
		price, currency, ok := ParsePrice(tt.text)
		assert.Equal(t, tt.price, price, "text: %q", tt.text)
		assert.Equal(t, tt.currency, currency, "text: %q", tt.text)
		assert.Equal(t, tt.ok, ok, "text: %q", tt.text)
	}
}

func TestWatcherScansOnURLChange(t *testing.T) {
	page := `<html><body>
		<h1 class="product-title">Widget</h1>
		<span class="product-price">$12.50</span>
	</body></html>`
	doc := parsePage(t, page, "https://shop.example.com/products/widget")

	var seen []types.ProductDescriptor
	w := NewWatcher(doc, time.Millisecond, time.Millisecond, func(p types.ProductDescriptor) {
		seen = append(seen, p)
	}, nil)

	w.Scan()
	require.Len(t, seen, 1)
	assert.Equal(t, "Widget", seen[0].ItemName)

	// Non-product URL: no callback.
	require.NoError(t, doc.SetURL("https://shop.example.com/cart"))
	w.Scan()
	assert.Len(t, seen, 1)
}
