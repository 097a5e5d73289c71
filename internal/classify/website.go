package classify

import "strings"

// SiteType categorizes a hostname for visit bookkeeping.
type SiteType string

const (
	SiteShopping     SiteType = "shopping"
	SiteFinancial    SiteType = "financial"
	SiteSubscription SiteType = "subscription"
	SiteGeneral      SiteType = "general"
)

var shoppingSites = []string{
	"amazon.com", "ebay.com", "walmart.com", "target.com",
	"bestbuy.com", "etsy.com", "aliexpress.com", "shopify.com",
}

var financialSites = []string{
	"paypal.com", "stripe.com", "venmo.com", "cashapp.com",
	"mint.com", "chase.com", "bankofamerica.com", "wellsfargo.com",
}

var subscriptionSites = []string{
	"netflix.com", "spotify.com", "hulu.com", "disney.com",
	"youtube.com", "twitch.tv",
}

// WebsiteType categorizes a hostname. Unknown hosts are general.
func WebsiteType(hostname string) SiteType {
	host := strings.ToLower(strings.TrimSpace(hostname))

	for _, s := range shoppingSites {
		if matchesSite(host, s) {
			return SiteShopping
		}
	}
	for _, s := range financialSites {
		if matchesSite(host, s) {
			return SiteFinancial
		}
	}
	for _, s := range subscriptionSites {
		if matchesSite(host, s) {
			return SiteSubscription
		}
	}
	return SiteGeneral
}

// IsKnownRetailer reports whether extraction has site-specific rules worth
// trusting for this hostname.
func IsKnownRetailer(hostname string) bool {
	return WebsiteType(hostname) == SiteShopping
}

func matchesSite(host, site string) bool {
	return host == site || strings.HasSuffix(host, "."+site)
}
