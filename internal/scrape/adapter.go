package scrape

import (
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// Adapter supplies the site-specific half of the extraction engine: URL
// construction, the ordered selector tables for one markup dialect, and the
// end-of-results signal. Adding a directory site means adding an Adapter
// value, not touching the crawler.
type Adapter interface {
	// Source identifies the directory site (persisted on every record).
	Source() string
	// BaseURL is the absolute root used to resolve relative listing links.
	BaseURL() string
	// BuildSearchURL constructs the first result page URL for a query.
	// Deterministic: same inputs always yield the same URL.
	BuildSearchURL(category, location string) string
	// BuildPageURL injects the site's pagination parameter into searchURL,
	// preserving all other query parameters. page is zero-based; page 0
	// returns searchURL unchanged.
	BuildPageURL(searchURL string, page int) string
	// ListingContainers locates the listing fragments on one result page
	// using the adapter's ordered container rules.
	ListingContainers(doc *goquery.Document) *goquery.Selection
	// ExtractListingURLs collects canonical listing URLs from one result
	// page, de-duplicated within the page, in document order.
	ExtractListingURLs(doc *goquery.Document) []string
	// ExtractListingRecord builds a record from one listing fragment.
	// Returns nil when the fragment carries no recognizable listing.
	ExtractListingRecord(listing *goquery.Selection) *Record
	// ExtractDetailRecord builds a record from a full business detail page.
	ExtractDetailRecord(doc *goquery.Document, sourceURL string) *Record
	// HasNextPage reports the site's "more results" signal.
	HasNextPage(doc *goquery.Document) bool
}

// setQueryParam overwrites one query parameter, leaving the rest intact.
func setQueryParam(rawURL, key, value string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := parsed.Query()
	q.Set(key, value)
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// matchSourceID derives the site-native identifier from a canonical URL.
func matchSourceID(re *regexp.Regexp, sourceURL string) *string {
	m := re.FindStringSubmatch(sourceURL)
	if len(m) < 2 || m[1] == "" {
		return nil
	}
	return &m[1]
}
