package scrape

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	yelpBaseURL  = "https://www.yelp.ca"
	yelpPageSize = 10
)

// Yelp search result markup rotates generated class names between template
// variants, so every table starts with the currently observed class and
// falls back to structural or generic patterns.
var (
	yelpResultsRules = []Rule{
		attrRule("main", "id", "main-content"),
		classRule("main", `searchResultsContainer`),
		tagRule("main"),
	}
	yelpContainerRules = []Rule{
		classRule("li", `y-css-mhg9c5`),
		attrRule("div", "data-testid", "serp-ia-card"),
		tagRule("li"),
	}
	yelpNameRules = []Rule{
		classRule("h3", `y-css-hcgwj4`),
		tagRule("h3"),
	}
	yelpNameLinkRules = []Rule{
		classRule("a", `y-css-12f4fi2`),
		tagRule("a"),
	}
	yelpRatingRules = []Rule{
		classRule("div", `y-css-dnttlc`),
		attrRule("div", "role", "img"),
		classRule("div", `(?i)star|rating`),
	}
	yelpReviewRules = []Rule{
		attrRule("div", "data-traffic-crawl-id", "SearchResultBizRating"),
		classRule("span", `(?i)review`),
	}
	yelpCategoriesRules = []Rule{
		attrRule("div", "data-testid", "serp-ia-categories"),
		classRule("div", `(?i)priceCategory`),
	}
	yelpCategoryItemRules = []Rule{
		classRule("button", `y-css-4nc3wq`),
		tagRule("button"),
		tagRule("a"),
	}
	yelpAddressTextRules = []Rule{
		classRule("span", `raw__09f24`),
		classRule("p", `y-css-194gzdn`),
	}
	yelpSecondaryRules = []Rule{
		classRule("div", `secondaryAttributes__09f24`),
	}
	yelpCityRules = []Rule{
		classRule("div", `y-css-74ugvt`),
		classRule("p", `y-css-194gzdn`),
	}
	yelpTagRules = []Rule{
		attrRule("div", "data-testid", "tag"),
		classRule("div", `tag__09f24`),
	}
	yelpTagTextRules = []Rule{
		classRule("span", `raw__09f24`),
		classRule("span", `tagText__09f24`),
	}
	yelpImageRules = []Rule{
		classRule("img", `y-css-fex5b`),
		tagRule("img"),
	}
	yelpPaginationRules = []Rule{
		classRule("div", `pagination__09f24`),
		classRule("div", `(?i)pagination`),
	}
	yelpNextLinkRules = []Rule{
		classRule("a", `next-link`),
		attrRule("a", "aria-label", "Next"),
	}

	yelpBizIDRe   = regexp.MustCompile(`/biz/([^/?#]+)`)
	yelpServingRe = regexp.MustCompile(`Serving\s+(.+?)(?:\s+and the Surrounding Area)?$`)
)

// Yelp adapts the extraction engine to yelp.ca search result markup.
type Yelp struct {
	base   string
	region string
}

// NewYelp constructs the yelp.ca adapter.
func NewYelp() *Yelp {
	return &Yelp{base: yelpBaseURL, region: "CA"}
}

// Source implements Adapter.
func (y *Yelp) Source() string { return "yelp" }

// BaseURL implements Adapter.
func (y *Yelp) BaseURL() string { return y.base }

// BuildSearchURL implements Adapter.
func (y *Yelp) BuildSearchURL(category, location string) string {
	q := url.Values{}
	q.Set("find_desc", category)
	q.Set("find_loc", location)
	return y.base + "/search?" + q.Encode()
}

// BuildPageURL implements Adapter. Yelp paginates with a result offset,
// ten listings per page.
func (y *Yelp) BuildPageURL(searchURL string, page int) string {
	if page <= 0 {
		return searchURL
	}
	return setQueryParam(searchURL, "start", strconv.Itoa(page*yelpPageSize))
}

// ListingContainers implements Adapter.
func (y *Yelp) ListingContainers(doc *goquery.Document) *goquery.Selection {
	root := findFirst(doc.Selection, yelpResultsRules)
	if root == nil {
		return nil
	}
	return findAll(root, yelpContainerRules)
}

// ExtractListingURLs implements Adapter.
func (y *Yelp) ExtractListingURLs(doc *goquery.Document) []string {
	containers := y.ListingContainers(doc)
	if containers == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var urls []string
	containers.Each(func(_ int, listing *goquery.Selection) {
		nameEl := findFirst(listing, yelpNameRules)
		if nameEl == nil {
			return
		}
		link := findFirst(nameEl, yelpNameLinkRules)
		href := attrValue(link, "href")
		if href == "" || !strings.Contains(href, "/biz/") {
			return
		}
		canonical := canonicalURL(y.base, href)
		if canonical == "" {
			return
		}
		if _, dup := seen[canonical]; dup {
			return
		}
		seen[canonical] = struct{}{}
		urls = append(urls, canonical)
	})
	return urls
}

// ExtractListingRecord implements Adapter. Fields are extracted
// independently; a field whose rules match nothing stays nil.
func (y *Yelp) ExtractListingRecord(listing *goquery.Selection) *Record {
	nameEl := findFirst(listing, yelpNameRules)
	if nameEl == nil {
		return nil
	}

	rec := &Record{
		Source:    y.Source(),
		Country:   optional("Canada"),
		ScrapedAt: time.Now().UTC(),
	}

	link := findFirst(nameEl, yelpNameLinkRules)
	if link == nil {
		link = closestAnchor(nameEl)
	}
	if link != nil {
		rec.Name = text(link)
		if href := attrValue(link, "href"); strings.Contains(href, "/biz/") {
			rec.SourceURL = canonicalURL(y.base, href)
		}
	}
	if rec.Name == "" {
		rec.Name = text(nameEl)
	}
	rec.SourceID = matchSourceID(yelpBizIDRe, rec.SourceURL)

	if el := findFirst(listing, yelpRatingRules); el != nil {
		raw := attrValue(el, "aria-label")
		if raw == "" {
			raw = text(el)
		}
		rec.Rating = parseRating(raw)
	}
	if el := findFirst(listing, yelpReviewRules); el != nil {
		rec.ReviewCount = parseReviewCount(text(el))
	}
	if el := findFirst(listing, yelpCategoriesRules); el != nil {
		if items := findAll(el, yelpCategoryItemRules); items != nil {
			var categories []string
			items.Each(func(_ int, s *goquery.Selection) {
				categories = append(categories, text(s))
			})
			if capped := capList(categories, maxListItems); capped != nil {
				rec.Category = optional(strings.Join(capped, ", "))
			}
		}
	}

	y.extractListingLocation(listing, rec)
	y.extractListingTags(listing, rec)

	if el := findFirst(listing, yelpImageRules); el != nil {
		if src := resolveURL(y.base, attrValue(el, "src")); src != "" {
			rec.Images = []string{src}
		}
	}

	return rec
}

func (y *Yelp) extractListingLocation(listing *goquery.Selection, rec *Record) {
	if addrEl := findFirst(listing, []Rule{tagRule("address")}); addrEl != nil {
		inner := findFirst(addrEl, yelpAddressTextRules)
		raw := text(inner)
		if raw == "" {
			raw = text(addrEl)
		}
		rec.Address, rec.City, rec.State, rec.ZipCode = splitAddress(raw)
	}

	secondary := findFirst(listing, yelpSecondaryRules)
	if secondary == nil || rec.City != nil {
		return
	}
	cityEl := findFirst(secondary, yelpCityRules)
	raw := text(cityEl)
	if raw == "" {
		return
	}
	// Service-area listings read "Serving X and the Surrounding Area".
	if m := yelpServingRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}
	rec.City = optional(raw)
}

func (y *Yelp) extractListingTags(listing *goquery.Selection, rec *Record) {
	tags := findAll(listing, yelpTagRules)
	if tags == nil {
		return
	}
	var values []string
	tags.Each(func(_ int, s *goquery.Selection) {
		inner := findFirst(s, yelpTagTextRules)
		value := text(inner)
		if value == "" {
			value = text(s)
		}
		values = append(values, value)
	})
	rec.Amenities = capList(values, maxListItems)
}

// ExtractDetailRecord implements Adapter for full business pages.
func (y *Yelp) ExtractDetailRecord(doc *goquery.Document, sourceURL string) *Record {
	rec := &Record{
		Source:    y.Source(),
		SourceURL: canonicalURL(y.base, sourceURL),
		Country:   optional("Canada"),
		ScrapedAt: time.Now().UTC(),
	}
	rec.SourceID = matchSourceID(yelpBizIDRe, rec.SourceURL)

	if el := findFirst(doc.Selection, []Rule{tagRule("h1")}); el != nil {
		rec.Name = text(el)
	}

	if el := findFirst(doc.Selection, []Rule{
		attrRule("div", "data-testid", "rating"),
		classRule("div", `(?i)rating`),
	}); el != nil {
		raw := text(el)
		rec.Rating = parseRating(raw)
		rec.ReviewCount = parseReviewCount(raw)
	}

	if addrEl := findFirst(doc.Selection, []Rule{tagRule("address")}); addrEl != nil {
		var parts []string
		addrEl.Find("p").Each(func(_ int, s *goquery.Selection) {
			if part := text(s); part != "" {
				parts = append(parts, part)
			}
		})
		raw := strings.Join(parts, ", ")
		if raw == "" {
			raw = text(addrEl)
		}
		rec.Address, rec.City, rec.State, rec.ZipCode = splitAddress(raw)
	}

	if el := findFirst(doc.Selection, []Rule{classRule("p", `(?i)phone`)}); el != nil {
		rec.Phone = parsePhone(text(el), y.region)
	}

	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := attrValue(s, "href")
		if !strings.HasPrefix(href, "http") || strings.Contains(href, "/biz/") || strings.Contains(href, "yelp.") {
			return true
		}
		rec.Website = optional(href)
		return false
	})

	var categories []string
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(attrValue(s, "href"), "find_desc=") {
			categories = append(categories, text(s))
		}
	})
	if capped := capList(categories, maxListItems); capped != nil {
		rec.Category = optional(strings.Join(capped, ", "))
	}

	if !rec.Valid() {
		return nil
	}
	return rec
}

// HasNextPage implements Adapter. The signal is an enabled next-link inside
// the pagination block; a missing block or a disabled control means the
// result set is exhausted.
func (y *Yelp) HasNextPage(doc *goquery.Document) bool {
	pagination := findFirst(doc.Selection, yelpPaginationRules)
	if pagination == nil {
		return false
	}
	next := findFirst(pagination, yelpNextLinkRules)
	if next == nil {
		return false
	}
	if strings.Contains(attrValue(next, "class"), "disabled") {
		return false
	}
	return true
}
