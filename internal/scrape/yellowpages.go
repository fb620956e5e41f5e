package scrape

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const ypBaseURL = "https://www.yellowpages.com"

var (
	ypResultsRules = []Rule{
		classRule("div", `search-results`),
		attrRule("div", "id", "main-content"),
		tagRule("body"),
	}
	ypContainerRules = []Rule{
		classRule("div", `(^|\s)result(\s|$)`),
		classRule("div", `v-card`),
		classRule("div", `(?i)listing`),
	}
	ypNameRules = []Rule{
		classRule("a", `business-name`),
		tagRule("h2"),
	}
	ypPhoneRules = []Rule{
		classRule("div", `(^|\s)phones?(\s|$)`),
		classRule("li", `(?i)phone`),
	}
	ypStreetRules = []Rule{
		classRule("div", `street-address`),
		classRule("span", `street-address`),
	}
	ypLocalityRules = []Rule{
		classRule("div", `locality`),
		classRule("span", `locality`),
	}
	ypAddressRules = []Rule{
		classRule("div", `(^|\s)adr(\s|$)`),
		classRule("p", `(?i)address`),
	}
	ypRatingRules = []Rule{
		classRule("div", `result-rating`),
		classRule("span", `(?i)rating|star`),
	}
	ypCountRules = []Rule{
		classRule("span", `(^|\s)count(\s|$)`),
		classRule("span", `(?i)review`),
	}
	ypCategoriesRules = []Rule{
		classRule("div", `(^|\s)categories(\s|$)`),
		classRule("div", `(?i)category`),
	}
	ypWebsiteRules = []Rule{
		classRule("a", `track-visit-website`),
		classRule("a", `(?i)website`),
	}
	ypSnippetRules = []Rule{
		classRule("p", `(^|\s)body(\s|$)`),
		classRule("p", `(?i)snippet`),
	}
	ypHoursRules = []Rule{
		classRule("div", `open-status`),
		classRule("div", `(?i)hours`),
	}
	ypImageRules = []Rule{
		classRule("img", `media-thumbnail`),
		tagRule("img"),
	}
	ypNextRules = []Rule{
		classRule("a", `(^|\s)next(\s|$)`),
		attrRule("a", "rel", "next"),
	}

	ypListingIDRe = regexp.MustCompile(`/mip/([^/?#]+)`)
)

// YellowPages adapts the extraction engine to yellowpages.com markup.
type YellowPages struct {
	base   string
	region string
}

// NewYellowPages constructs the yellowpages.com adapter.
func NewYellowPages() *YellowPages {
	return &YellowPages{base: ypBaseURL, region: "US"}
}

// Source implements Adapter.
func (p *YellowPages) Source() string { return "yellowpages" }

// BaseURL implements Adapter.
func (p *YellowPages) BaseURL() string { return p.base }

// BuildSearchURL implements Adapter.
func (p *YellowPages) BuildSearchURL(category, location string) string {
	q := url.Values{}
	q.Set("search_terms", category)
	q.Set("geo_location_terms", location)
	return p.base + "/search?" + q.Encode()
}

// BuildPageURL implements Adapter. Yellow Pages paginates with a literal
// one-based page number.
func (p *YellowPages) BuildPageURL(searchURL string, page int) string {
	if page <= 0 {
		return searchURL
	}
	return setQueryParam(searchURL, "page", strconv.Itoa(page+1))
}

// ListingContainers implements Adapter.
func (p *YellowPages) ListingContainers(doc *goquery.Document) *goquery.Selection {
	root := findFirst(doc.Selection, ypResultsRules)
	if root == nil {
		root = doc.Selection
	}
	return findAll(root, ypContainerRules)
}

// ExtractListingURLs implements Adapter.
func (p *YellowPages) ExtractListingURLs(doc *goquery.Document) []string {
	containers := p.ListingContainers(doc)
	if containers == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var urls []string
	containers.Each(func(_ int, listing *goquery.Selection) {
		link := findFirst(listing, ypNameRules)
		link = closestAnchorOrSelf(link)
		href := attrValue(link, "href")
		if href == "" {
			return
		}
		canonical := canonicalURL(p.base, href)
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

func closestAnchorOrSelf(sel *goquery.Selection) *goquery.Selection {
	if sel == nil {
		return nil
	}
	if a := closestAnchor(sel); a != nil {
		return a
	}
	if a := sel.Find("a").First(); a.Length() > 0 {
		return a
	}
	return nil
}

// ExtractListingRecord implements Adapter.
func (p *YellowPages) ExtractListingRecord(listing *goquery.Selection) *Record {
	nameEl := findFirst(listing, ypNameRules)
	if nameEl == nil {
		return nil
	}

	rec := &Record{
		Source:    p.Source(),
		Country:   optional("USA"),
		ScrapedAt: time.Now().UTC(),
	}

	rec.Name = text(nameEl)
	if link := closestAnchorOrSelf(nameEl); link != nil {
		if href := attrValue(link, "href"); href != "" {
			rec.SourceURL = canonicalURL(p.base, href)
		}
	}
	rec.SourceID = matchSourceID(ypListingIDRe, rec.SourceURL)

	if el := findFirst(listing, ypPhoneRules); el != nil {
		rec.Phone = parsePhone(text(el), p.region)
	}

	p.extractListingAddress(listing, rec)

	if el := findFirst(listing, ypRatingRules); el != nil {
		raw := attrValue(el, "aria-label")
		if raw == "" {
			raw = text(el)
		}
		rec.Rating = parseRating(raw)
	}
	if el := findFirst(listing, ypCountRules); el != nil {
		raw := text(el)
		rec.ReviewCount = parseReviewCount(raw)
		if rec.ReviewCount == nil {
			// The count badge is often a bare "(123)".
			rec.ReviewCount = parseInteger(raw)
		}
	}

	if el := findFirst(listing, ypCategoriesRules); el != nil {
		var categories []string
		el.Find("a").Each(func(_ int, s *goquery.Selection) {
			categories = append(categories, text(s))
		})
		if capped := capList(categories, maxListItems); capped != nil {
			rec.Category = optional(strings.Join(capped, ", "))
		}
	}

	if el := findFirst(listing, ypWebsiteRules); el != nil {
		if href := attrValue(el, "href"); strings.HasPrefix(href, "http") {
			rec.Website = optional(href)
		}
	}
	if el := findFirst(listing, ypSnippetRules); el != nil {
		rec.Description = optional(text(el))
	}
	if el := findFirst(listing, ypHoursRules); el != nil {
		rec.Hours = optional(text(el))
	}
	if el := findFirst(listing, ypImageRules); el != nil {
		if src := resolveURL(p.base, attrValue(el, "src")); src != "" {
			rec.Images = []string{src}
		}
	}

	return rec
}

func (p *YellowPages) extractListingAddress(listing *goquery.Selection, rec *Record) {
	street := text(findFirst(listing, ypStreetRules))
	locality := text(findFirst(listing, ypLocalityRules))

	raw := street
	if locality != "" {
		if raw != "" {
			raw += ", "
		}
		raw += locality
	}
	if raw == "" {
		raw = text(findFirst(listing, ypAddressRules))
	}
	if raw == "" {
		return
	}
	rec.Address, rec.City, rec.State, rec.ZipCode = splitAddress(raw)
}

// ExtractDetailRecord implements Adapter for full business pages.
func (p *YellowPages) ExtractDetailRecord(doc *goquery.Document, sourceURL string) *Record {
	rec := &Record{
		Source:    p.Source(),
		SourceURL: canonicalURL(p.base, sourceURL),
		Country:   optional("USA"),
		ScrapedAt: time.Now().UTC(),
	}
	rec.SourceID = matchSourceID(ypListingIDRe, rec.SourceURL)

	if el := findFirst(doc.Selection, []Rule{
		classRule("h1", `business-name`),
		tagRule("h1"),
	}); el != nil {
		rec.Name = text(el)
	}

	if el := findFirst(doc.Selection, ypPhoneRules); el != nil {
		rec.Phone = parsePhone(text(el), p.region)
	}

	p.extractListingAddress(doc.Selection, rec)

	if el := findFirst(doc.Selection, ypRatingRules); el != nil {
		raw := attrValue(el, "aria-label")
		if raw == "" {
			raw = text(el)
		}
		rec.Rating = parseRating(raw)
		rec.ReviewCount = parseReviewCount(raw)
	}

	if el := findFirst(doc.Selection, ypWebsiteRules); el != nil {
		if href := attrValue(el, "href"); strings.HasPrefix(href, "http") {
			rec.Website = optional(href)
		}
	}
	if el := findFirst(doc.Selection, ypHoursRules); el != nil {
		rec.Hours = optional(text(el))
	}

	if !rec.Valid() {
		return nil
	}
	return rec
}

// HasNextPage implements Adapter.
func (p *YellowPages) HasNextPage(doc *goquery.Document) bool {
	next := findFirst(doc.Selection, ypNextRules)
	if next == nil {
		return false
	}
	if strings.Contains(attrValue(next, "class"), "disabled") {
		return false
	}
	return true
}
