package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/itcaat/ebaylog/internal/models"
)

const (
	// SearchBaseURL is eBay's search results endpoint
	SearchBaseURL = "https://www.ebay.com/sch/i.html"

	// Fixed query parameters of every search: results source and page size
	searchParams = "?_from=R40&_nkw=%s&_ipg=25"
	// Price range fragment, only added when both bounds are present
	priceParams = "&_udlo=%s&_udhi=%s"
)

// BuildSearchURL assembles the search URL for q against the eBay endpoint
func BuildSearchURL(q models.SearchQuery) string {
	return BuildSearchURLWithBase(SearchBaseURL, q)
}

// BuildSearchURLWithBase assembles the search URL for q against base.
// Words of the item are joined with '+'; nothing else is escaped, so callers
// passing URL-unsafe characters get them verbatim in the query.
func BuildSearchURLWithBase(base string, q models.SearchQuery) string {
	searchURL := base + fmt.Sprintf(searchParams, q.Keywords())

	// Both bounds or nothing
	if q.HasPriceRange() {
		searchURL += fmt.Sprintf(priceParams, q.PriceLow, q.PriceHigh)
	}

	return searchURL
}

// resolveLink makes a listing href absolute relative to the page it was found on
func resolveLink(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}

	if strings.HasPrefix(href, "//") {
		return base.Scheme + ":" + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return base.ResolveReference(ref).String()
}
