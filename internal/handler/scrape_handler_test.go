package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/octobees/directory-scraper/internal/service"
)

type recordingScraper struct {
	mu         sync.Mutex
	done       chan struct{}
	source     string
	categories []string
	location   string
	maxPages   int
}

func (r *recordingScraper) ScrapeCategories(ctx context.Context, source string, categories []string, location string, maxPages int) []service.CrawlSummary {
	r.mu.Lock()
	r.source = source
	r.categories = categories
	r.location = location
	r.maxPages = maxPages
	r.mu.Unlock()
	close(r.done)
	return []service.CrawlSummary{{Source: source, Extracted: 1, Persisted: 1}}
}

func TestScrapeHandler_Enqueue(t *testing.T) {
	scraper := &recordingScraper{done: make(chan struct{})}
	handler := NewScrapeHandler(scraper, time.Minute)
	e := echo.New()

	c, rec := postJSON(e, "/scrape", `{"source":"Yelp","category":"Plumbers","location":"Montreal, QC","max_pages":2}`)
	if err := handler.Enqueue(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	var payload APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data, _ := payload.Data.(map[string]any)
	if runID, _ := data["run_id"].(string); runID == "" {
		t.Fatalf("expected run_id in response, got %+v", payload)
	}
	if status, _ := data["status"].(string); status != "queued" {
		t.Fatalf("expected queued status, got %+v", payload)
	}

	select {
	case <-scraper.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected background crawl to start")
	}

	scraper.mu.Lock()
	defer scraper.mu.Unlock()
	if scraper.source != "yelp" {
		t.Fatalf("expected lowercased source, got %q", scraper.source)
	}
	if len(scraper.categories) != 1 || scraper.categories[0] != "Plumbers" {
		t.Fatalf("unexpected categories: %v", scraper.categories)
	}
	if scraper.location != "Montreal, QC" || scraper.maxPages != 2 {
		t.Fatalf("unexpected crawl request: %+v", scraper)
	}
}

func TestScrapeHandler_EnqueueMultipleCategories(t *testing.T) {
	scraper := &recordingScraper{done: make(chan struct{})}
	handler := NewScrapeHandler(scraper, time.Minute)
	e := echo.New()

	c, rec := postJSON(e, "/scrape", `{"source":"yellowpages","categories":["Plumbers"," Electricians ",""],"location":"Los Angeles, CA"}`)
	if err := handler.Enqueue(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	select {
	case <-scraper.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected background crawl to start")
	}

	scraper.mu.Lock()
	defer scraper.mu.Unlock()
	if len(scraper.categories) != 2 || scraper.categories[1] != "Electricians" {
		t.Fatalf("expected trimmed categories, got %v", scraper.categories)
	}
}

func TestScrapeHandler_EnqueueValidation(t *testing.T) {
	handler := NewScrapeHandler(&recordingScraper{done: make(chan struct{})}, time.Minute)
	e := echo.New()

	c, rec := postJSON(e, "/scrape", `{"source":"yelp","category":"Plumbers"}`)
	_ = handler.Enqueue(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without location, got %d", rec.Code)
	}

	c, rec = postJSON(e, "/scrape", `{"source":"yelp","location":"Montreal"}`)
	_ = handler.Enqueue(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without categories, got %d", rec.Code)
	}

	c, rec = postJSON(e, "/scrape", `{bad`)
	_ = handler.Enqueue(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed payload, got %d", rec.Code)
	}
}

func TestScrapeHandler_DefaultSource(t *testing.T) {
	scraper := &recordingScraper{done: make(chan struct{})}
	handler := NewScrapeHandler(scraper, time.Minute)
	e := echo.New()

	c, _ := postJSON(e, "/scrape", `{"category":"Plumbers","location":"Montreal"}`)
	if err := handler.Enqueue(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-scraper.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected background crawl to start")
	}

	scraper.mu.Lock()
	defer scraper.mu.Unlock()
	if scraper.source != "yelp" {
		t.Fatalf("expected yelp default source, got %q", scraper.source)
	}
}
