// Package scrape implements the extraction and crawl engine for directory
// sites: cascading selector resolution over listing fragments, per-field
// normalizers, site adapters, and the pagination crawler.
package scrape

import "time"

// Record is the transient output of extracting one business listing or
// detail page. Every field except Name, Source and SourceURL is optional;
// a missing field is nil, never an error.
type Record struct {
	Name        string
	Source      string
	SourceURL   string
	SourceID    *string
	Phone       *string
	Email       *string
	Website     *string
	Address     *string
	City        *string
	State       *string
	ZipCode     *string
	Country     *string
	Latitude    *float64
	Longitude   *float64
	Category    *string
	Description *string
	Rating      *float64
	ReviewCount *int
	Hours       *string
	Amenities   []string
	Images      []string
	ScrapedAt   time.Time
}

// Valid reports whether the record carries the two fields required for
// persistence. Invalid records are discarded, never stored.
func (r *Record) Valid() bool {
	return r != nil && r.Name != "" && r.SourceURL != ""
}

// Query describes one crawl session: a category searched in a location,
// optionally bounded to a number of result pages. MaxPages <= 0 means
// crawl until the site signals the end of results.
type Query struct {
	Category string
	Location string
	MaxPages int
}
