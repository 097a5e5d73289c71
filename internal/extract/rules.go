package extract

// siteRule holds per-retailer selectors for the product name and price.
// Selectors are tried in order; the first non-empty text wins.
type siteRule struct {
	name  []string
	price []string
}

// siteRules maps known retailer hostnames (registrable domain) to their
// extraction rules. Everything else goes through genericRule.
var siteRules = map[string]siteRule{
	"amazon.com": {
		name:  []string{"#productTitle", "#title span"},
		price: []string{"#corePrice_feature_div .a-offscreen", ".a-price .a-offscreen", "#priceblock_ourprice"},
	},
	"ebay.com": {
		name:  []string{"h1.x-item-title__mainTitle", "#itemTitle"},
		price: []string{".x-price-primary", "#prcIsum"},
	},
	"walmart.com": {
		name:  []string{`h1[itemprop="name"]`, "h1.prod-ProductTitle"},
		price: []string{`span[itemprop="price"]`, `[data-automation-id="product-price"]`},
	},
	"target.com": {
		name:  []string{`h1[data-test="product-title"]`},
		price: []string{`[data-test="product-price"]`},
	},
	"bestbuy.com": {
		name:  []string{".sku-title h1", "h1.heading-5"},
		price: []string{".priceView-customer-price span", ".priceView-hero-price span"},
	},
	"etsy.com": {
		name:  []string{`h1[data-buy-box-listing-title]`, "h1"},
		price: []string{`[data-buy-box-region="price"] p`, ".wt-text-title-larger"},
	},
}

// genericRule is the fallback for unrecognized hostnames: a prioritized
// list of selectors common across storefront templates.
var genericRule = siteRule{
	name: []string{
		`[itemprop="name"]`,
		"h1.product-title",
		"h1.product_title",
		"h1.product-name",
		".product-name h1",
		"#product-title",
		"h1",
	},
	price: []string{
		`[itemprop="price"]`,
		".product-price",
		".price-current",
		".price",
		"#price",
		`[class*="price"]`,
	},
}

// productPathPatterns match URL paths that retailers use for single-product
// pages. Glob syntax, matched against the URL path.
var productPathPatterns = []string{
	"/dp/**",
	"/gp/product/**",
	"/itm/**",
	"/ip/**",
	"/p/**",
	"/listing/**",
	"**/product/**",
	"**/products/**",
	"**/item/**",
}

// ruleFor picks the site-specific rule by hostname suffix, falling back to
// the generic rule.
func ruleFor(hostname string) siteRule {
	host := hostname
	for domain, rule := range siteRules {
		if host == domain || hasDomainSuffix(host, domain) {
			return rule
		}
	}
	return genericRule
}

func hasDomainSuffix(host, domain string) bool {
	return len(host) > len(domain) && host[len(host)-len(domain)-1] == '.' &&
		host[len(host)-len(domain):] == domain
}
