package models

import "strings"

// ExternalListingRef is the canonical {id, url} pair for one external listing.
type ExternalListingRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ListingURL is the canonical detail page of listing id under baseURL.
func ListingURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/rooms/" + id
}

// RawDetail holds the unprocessed strings the detail rules recovered from a
// listing page. An empty string means the rule did not match.
type RawDetail struct {
	Ref       ExternalListingRef
	Title     string
	RawPrice  string
	Location  string
	Guests    string
	Bedrooms  string
	Bathrooms string
	FetchErr  string
}

// ExternalListingDetail is the resolved, typed record for one listing.
// A nil field was not recoverable from the source markup; it is omitted from
// JSON output rather than written as a zero value.
type ExternalListingDetail struct {
	ExternalListingRef

	Title     *string  `json:"title,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Location  *string  `json:"location,omitempty"`
	Guests    *int     `json:"guests,omitempty"`
	Bedrooms  *int     `json:"bedrooms,omitempty"`
	Bathrooms *int     `json:"bathrooms,omitempty"`

	// FetchError explains why the record degraded to ref-only. It is shown
	// in the console report but kept out of the structured records.
	FetchError string `json:"-"`
}

// RefOnly returns a detail with every optional field absent.
func RefOnly(ref ExternalListingRef) *ExternalListingDetail {
	return &ExternalListingDetail{ExternalListingRef: ref}
}

// IsRefOnly reports whether no optional field is present.
func (d *ExternalListingDetail) IsRefOnly() bool {
	return d.Title == nil && d.Price == nil && d.Location == nil &&
		d.Guests == nil && d.Bedrooms == nil && d.Bathrooms == nil
}

// TitleOr returns the title, or fallback when it is absent.
func (d *ExternalListingDetail) TitleOr(fallback string) string {
	if d.Title == nil {
		return fallback
	}
	return *d.Title
}

// ScrapeResult is the output of one extraction + resolution batch.
type ScrapeResult struct {
	SourceURL string
	Refs      []ExternalListingRef
	Details   []*ExternalListingDetail

	// Interrupted is set when the batch was cancelled before every ref was
	// resolved. Details then holds only what finished.
	Interrupted bool
}

// NoListings reports that the source page was fetched but referenced no
// listings at all.
func (r *ScrapeResult) NoListings() bool {
	return len(r.Refs) == 0
}

// InsightReport holds summary statistics over a batch of resolved details.
type InsightReport struct {
	TotalListings      int
	WithTitle          int
	WithPrice          int
	WithLocation       int
	RefOnly            int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      *ExternalListingDetail
	ListingsByLocation map[string]int
}
