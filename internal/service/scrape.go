package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/directory-scraper/internal/entity"
	"github.com/octobees/directory-scraper/internal/repository"
	"github.com/octobees/directory-scraper/internal/scrape"
	"github.com/octobees/directory-scraper/internal/service/scoring"
)

// CrawlSummary reports the outcome of a single category crawl.
type CrawlSummary struct {
	RunID     string `json:"run_id"`
	Source    string `json:"source"`
	Category  string `json:"category"`
	Location  string `json:"location"`
	Extracted int    `json:"extracted"`
	Persisted int    `json:"persisted"`
	AvgScore  int    `json:"avg_score"`
}

// ScrapeService runs directory crawls and persists the extracted listings.
type ScrapeService struct {
	adapters map[string]scrape.Adapter
	fetcher  scrape.PageFetcher
	repo     repository.BusinessesRepository
	delay    time.Duration
}

// NewScrapeService wires the crawl pipeline. The default adapters cover the
// supported directory sites; RegisterAdapter adds more.
func NewScrapeService(repo repository.BusinessesRepository, fetcher scrape.PageFetcher, delay time.Duration) *ScrapeService {
	s := &ScrapeService{
		adapters: make(map[string]scrape.Adapter),
		fetcher:  fetcher,
		repo:     repo,
		delay:    delay,
	}
	s.RegisterAdapter(scrape.NewYelp())
	s.RegisterAdapter(scrape.NewYellowPages())
	return s
}

// RegisterAdapter makes a directory site available by its source name.
func (s *ScrapeService) RegisterAdapter(adapter scrape.Adapter) {
	s.adapters[strings.ToLower(adapter.Source())] = adapter
}

// Sources lists the registered directory sites.
func (s *ScrapeService) Sources() []string {
	names := make([]string, 0, len(s.adapters))
	for name := range s.adapters {
		names = append(names, name)
	}
	return names
}

// ScrapeCategory crawls one category/location pair and upserts every valid
// listing. Extraction problems are absorbed by the crawler; a persistence
// failure aborts the run.
func (s *ScrapeService) ScrapeCategory(ctx context.Context, source, category, location string, maxPages int) (CrawlSummary, error) {
	summary := CrawlSummary{
		RunID:    uuid.NewString(),
		Source:   strings.ToLower(source),
		Category: category,
		Location: location,
	}

	adapter, ok := s.adapters[summary.Source]
	if !ok {
		return summary, fmt.Errorf("unknown source %q", source)
	}
	if category == "" || location == "" {
		return summary, fmt.Errorf("category and location are required")
	}

	log.Printf("scrape start run_id=%s source=%s category=%q location=%q max_pages=%d",
		summary.RunID, summary.Source, category, location, maxPages)

	crawler := scrape.NewCrawler(adapter, s.fetcher, s.delay)
	records := crawler.Crawl(ctx, scrape.Query{Category: category, Location: location, MaxPages: maxPages})
	summary.Extracted = len(records)

	totalScore := 0
	for _, record := range records {
		totalScore += scoreRecord(record)
		business := recordToBusiness(record)
		if err := s.repo.Upsert(ctx, business); err != nil {
			return summary, fmt.Errorf("persist %s: %w", business.SourceURL, err)
		}
		summary.Persisted++
	}
	if summary.Extracted > 0 {
		summary.AvgScore = totalScore / summary.Extracted
	}

	log.Printf("scrape done run_id=%s source=%s category=%q extracted=%d persisted=%d avg_score=%d",
		summary.RunID, summary.Source, category, summary.Extracted, summary.Persisted, summary.AvgScore)
	return summary, nil
}

// ScrapeCategories runs one crawl per category. A failed category is logged
// and skipped so the remaining categories still run; the per-crawl delay is
// also applied between categories.
func (s *ScrapeService) ScrapeCategories(ctx context.Context, source string, categories []string, location string, maxPages int) []CrawlSummary {
	summaries := make([]CrawlSummary, 0, len(categories))
	for i, category := range categories {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return summaries
			case <-time.After(s.delay):
			}
		}
		summary, err := s.ScrapeCategory(ctx, source, category, location, maxPages)
		if err != nil {
			log.Printf("scrape category failed source=%s category=%q err=%v", source, category, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func scoreRecord(record *scrape.Record) int {
	features := scoring.ListingFeatures{
		Phone:       deref(record.Phone),
		Email:       deref(record.Email),
		Website:     deref(record.Website),
		Address:     deref(record.Address),
		City:        deref(record.City),
		State:       deref(record.State),
		ZipCode:     deref(record.ZipCode),
		Category:    deref(record.Category),
		Description: deref(record.Description),
		Hours:       deref(record.Hours),
		Amenities:   len(record.Amenities),
		Images:      len(record.Images),
		Rating:      record.Rating,
		ReviewCount: record.ReviewCount,
	}
	return scoring.ComputeScore(features).Total
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func recordToBusiness(record *scrape.Record) *entity.Business {
	business := &entity.Business{
		Name:        record.Name,
		Source:      record.Source,
		SourceURL:   record.SourceURL,
		SourceID:    record.SourceID,
		Phone:       record.Phone,
		Email:       record.Email,
		Website:     record.Website,
		Address:     record.Address,
		City:        record.City,
		State:       record.State,
		ZipCode:     record.ZipCode,
		Country:     record.Country,
		Latitude:    record.Latitude,
		Longitude:   record.Longitude,
		Category:    record.Category,
		Description: record.Description,
		Rating:      record.Rating,
		ReviewCount: record.ReviewCount,
		Hours:       record.Hours,
		Amenities:   record.Amenities,
		Images:      record.Images,
		IsActive:    true,
	}
	if !record.ScrapedAt.IsZero() {
		ts := record.ScrapedAt
		business.ScrapedAt = &ts
	}
	return business
}
