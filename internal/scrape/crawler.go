package scrape

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher turns a URL into rendered markup. A failed fetch is data, not
// a fault: the crawler converts it into a truncated (partial) result.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// Crawler walks a multi-page result set for one query, extracting records
// page by page until the site signals the end of results. Termination rests
// on several independent signals (no listing containers, no valid records,
// no next-control, page cap) because no single signal is reliable across
// the sites' template variations.
//
// A crawler owns no state across Crawl calls; each call gets its own seen
// set and accumulator, so concurrent queries need no locking.
type Crawler struct {
	adapter Adapter
	fetcher PageFetcher
	delay   time.Duration
}

// NewCrawler wires an adapter and fetcher into a crawl session factory.
// delay is the mandatory pause between successive page fetches.
func NewCrawler(adapter Adapter, fetcher PageFetcher, delay time.Duration) *Crawler {
	return &Crawler{adapter: adapter, fetcher: fetcher, delay: delay}
}

// Crawl runs the pagination state machine and returns every valid record
// extracted, de-duplicated across pages by canonical URL. Fetch and parse
// failures truncate the crawl; whatever accumulated so far is returned as a
// valid partial result. A missing fetcher is the only terminal failure, and
// even that yields an empty result rather than an error.
func (c *Crawler) Crawl(ctx context.Context, q Query) []*Record {
	if c.fetcher == nil {
		log.Printf("crawl failed source=%s category=%q location=%q: page fetcher not configured", c.adapter.Source(), q.Category, q.Location)
		return nil
	}

	searchURL := c.adapter.BuildSearchURL(q.Category, q.Location)
	seen := make(map[string]struct{})
	var accumulated []*Record

	for page := 0; ; page++ {
		if page > 0 {
			if q.MaxPages > 0 && page >= q.MaxPages {
				log.Printf("crawl done source=%s category=%q: reached max pages %d", c.adapter.Source(), q.Category, q.MaxPages)
				break
			}
			if !c.pause(ctx) {
				break
			}
		}

		pageURL := searchURL
		if page > 0 {
			pageURL = c.adapter.BuildPageURL(searchURL, page)
		}

		doc, ok := c.fetchDocument(ctx, pageURL)
		if !ok {
			break
		}

		containers := c.adapter.ListingContainers(doc)
		if containers == nil || containers.Length() == 0 {
			log.Printf("crawl done source=%s category=%q page=%d: no listing containers", c.adapter.Source(), q.Category, page+1)
			break
		}

		extracted := 0
		added := 0
		containers.Each(func(_ int, listing *goquery.Selection) {
			rec := c.extractListing(listing)
			if !rec.Valid() {
				return
			}
			extracted++
			if _, dup := seen[rec.SourceURL]; dup {
				return
			}
			seen[rec.SourceURL] = struct{}{}
			accumulated = append(accumulated, rec)
			added++
		})
		log.Printf("crawl page source=%s category=%q page=%d extracted=%d new=%d", c.adapter.Source(), q.Category, page+1, extracted, added)

		if extracted == 0 {
			break
		}
		if !c.adapter.HasNextPage(doc) {
			log.Printf("crawl done source=%s category=%q page=%d: no next page", c.adapter.Source(), q.Category, page+1)
			break
		}
	}

	return accumulated
}

// CrawlURLs walks the same pagination collecting canonical listing URLs
// instead of records, for callers that scrape detail pages separately.
func (c *Crawler) CrawlURLs(ctx context.Context, q Query) []string {
	if c.fetcher == nil {
		log.Printf("crawl failed source=%s category=%q location=%q: page fetcher not configured", c.adapter.Source(), q.Category, q.Location)
		return nil
	}

	searchURL := c.adapter.BuildSearchURL(q.Category, q.Location)
	seen := make(map[string]struct{})
	var accumulated []string

	for page := 0; ; page++ {
		if page > 0 {
			if q.MaxPages > 0 && page >= q.MaxPages {
				break
			}
			if !c.pause(ctx) {
				break
			}
		}

		pageURL := searchURL
		if page > 0 {
			pageURL = c.adapter.BuildPageURL(searchURL, page)
		}

		doc, ok := c.fetchDocument(ctx, pageURL)
		if !ok {
			break
		}

		pageURLs := c.adapter.ExtractListingURLs(doc)
		added := 0
		for _, u := range pageURLs {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			accumulated = append(accumulated, u)
			added++
		}
		log.Printf("crawl page source=%s category=%q page=%d urls=%d new=%d", c.adapter.Source(), q.Category, page+1, len(pageURLs), added)

		if len(pageURLs) == 0 {
			break
		}
		if !c.adapter.HasNextPage(doc) {
			break
		}
	}

	return accumulated
}

// ScrapeDetail fetches one business detail page and extracts a record from
// the full tree. Returns nil on fetch/parse failure or an invalid record.
func (c *Crawler) ScrapeDetail(ctx context.Context, pageURL string) *Record {
	if c.fetcher == nil {
		log.Printf("detail scrape failed source=%s url=%s: page fetcher not configured", c.adapter.Source(), pageURL)
		return nil
	}
	doc, ok := c.fetchDocument(ctx, pageURL)
	if !ok {
		return nil
	}
	return c.adapter.ExtractDetailRecord(doc, pageURL)
}

func (c *Crawler) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, bool) {
	markup, err := c.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		log.Printf("fetch failed source=%s url=%s err=%v: returning partial result", c.adapter.Source(), pageURL, err)
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		log.Printf("parse failed source=%s url=%s err=%v: returning partial result", c.adapter.Source(), pageURL, err)
		return nil, false
	}
	return doc, true
}

// extractListing isolates one listing: a panic inside the adapter's
// extraction drops that listing only, the page loop continues.
func (c *Crawler) extractListing(listing *goquery.Selection) (rec *Record) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("listing extraction failed source=%s err=%v", c.adapter.Source(), r)
			rec = nil
		}
	}()
	return c.adapter.ExtractListingRecord(listing)
}

// pause sleeps the configured inter-page delay, aborting early when the
// context is cancelled.
func (c *Crawler) pause(ctx context.Context) bool {
	if c.delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
