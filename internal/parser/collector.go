package parser

import "github.com/itcaat/ebaylog/internal/models"

// ResultSet accumulates listings for one search in page order.
// It is owned by a single search and not safe for concurrent use.
type ResultSet struct {
	listings []models.Listing
}

// Add appends a listing
func (r *ResultSet) Add(listing models.Listing) {
	r.listings = append(r.listings, listing)
}

// Len returns the number of collected listings
func (r *ResultSet) Len() int {
	return len(r.listings)
}

// Listings returns the collected listings, never nil
func (r *ResultSet) Listings() []models.Listing {
	if r.listings == nil {
		return []models.Listing{}
	}
	return r.listings
}
