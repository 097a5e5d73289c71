// Package extract reads a best-effort product descriptor off the current
// page: site-specific selector rules for known retailers, a generic
// fallback elsewhere, and a watcher that re-runs extraction after render
// settling and on SPA URL changes.
package extract

import (
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/microcosm-cc/bluemonday"

	"github.com/spendguard/spendguard/internal/classify"
	"github.com/spendguard/spendguard/internal/dom"
	"github.com/spendguard/spendguard/internal/shared/types"
)

var descriptionPolicy = bluemonday.StrictPolicy()

// Product extracts a ProductDescriptor from the page. The second return is
// false when no item name can be found; a name with an unparsable price
// still succeeds with price 0.
func Product(doc *dom.Document) (*types.ProductDescriptor, bool) {
	rule := ruleFor(doc.Hostname())

	name := firstText(doc, rule.name)
	if name == "" {
		name = metaContent(doc, "og:title")
	}
	if name == "" {
		return nil, false
	}

	price, currency, _ := ParsePrice(firstText(doc, rule.price))

	desc := metaContent(doc, "og:description")
	if desc == "" {
		if el := doc.QueryFirst(`meta[name="description"]`); el != nil {
			desc = el.AttrOr("content", "")
		}
	}
	desc = strings.TrimSpace(descriptionPolicy.Sanitize(desc))

	return &types.ProductDescriptor{
		URL:         doc.URL().String(),
		Website:     doc.Hostname(),
		ItemName:    name,
		Price:       price,
		Currency:    currency,
		Description: desc,
		Timestamp:   time.Now(),
	}, true
}

// IsProductPage reports whether the page looks like a single-product page:
// a recognizable product path, or a known retailer exposing name- and
// price-shaped elements.
func IsProductPage(doc *dom.Document) bool {
	path := doc.URL().Path
	for _, pattern := range productPathPatterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}

	if classify.IsKnownRetailer(doc.Hostname()) {
		rule := ruleFor(doc.Hostname())
		return firstText(doc, rule.name) != "" && firstText(doc, rule.price) != ""
	}

	return false
}

// firstText returns the first non-empty trimmed text among selectors.
func firstText(doc *dom.Document, selectors []string) string {
	for _, sel := range selectors {
		if el := doc.QueryFirst(sel); el != nil {
			if el.Tag() == "meta" {
				if v := strings.TrimSpace(el.AttrOr("content", "")); v != "" {
					return v
				}
				continue
			}
			if v, ok := el.Attr("content"); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
			if text := el.Text(); text != "" {
				return text
			}
		}
	}
	return ""
}

// metaContent pulls an open-graph property off the head via XPath, which
// tolerates the attribute-order variations meta tags show in the wild.
func metaContent(doc *dom.Document, property string) string {
	node := htmlquery.FindOne(doc.RootNode(), `//meta[@property="`+property+`"]`)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.SelectAttr(node, "content"))
}
