package models

import "strings"

// SearchQuery is what a caller asks eBay for
type SearchQuery struct {
	Item      string `json:"item"`
	PriceLow  string `json:"from,omitempty"`
	PriceHigh string `json:"to,omitempty"`
}

// Valid reports whether the query has an item to search for.
// Whitespace-only items count as empty.
func (q SearchQuery) Valid() bool {
	return len(strings.Fields(q.Item)) > 0
}

// HasPriceRange reports whether both price bounds were supplied
func (q SearchQuery) HasPriceRange() bool {
	return q.PriceLow != "" && q.PriceHigh != ""
}

// Keywords joins the whitespace-separated words of Item with '+'
func (q SearchQuery) Keywords() string {
	return strings.Join(strings.Fields(q.Item), "+")
}
