package models

// MissingField is stored in a Listing field when the listing markup has no node for it.
// Consumers rely on a single space rather than an empty string.
const MissingField = " "

// Listing represents an individual search result from eBay
type Listing struct {
	Name          string `json:"name"`
	Link          string `json:"link"`
	SecondaryInfo string `json:"secondary_info"`
	Price         string `json:"price"`
	Image         string `json:"image"`
}

// NewListing returns a Listing with every field set to MissingField
func NewListing() Listing {
	return Listing{
		Name:          MissingField,
		Link:          MissingField,
		SecondaryInfo: MissingField,
		Price:         MissingField,
		Image:         MissingField,
	}
}
