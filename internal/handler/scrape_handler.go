package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/directory-scraper/internal/dto"
	"github.com/octobees/directory-scraper/internal/middleware"
	"github.com/octobees/directory-scraper/internal/service"
)

// ScrapeRunner abstracts the crawl pipeline for the handler.
type ScrapeRunner interface {
	ScrapeCategories(ctx context.Context, source string, categories []string, location string, maxPages int) []service.CrawlSummary
}

// ScrapeHandler accepts crawl requests and runs them in the background.
type ScrapeHandler struct {
	scraper    ScrapeRunner
	runTimeout time.Duration
}

// NewScrapeHandler constructs a scrape handler.
func NewScrapeHandler(scraper ScrapeRunner, runTimeout time.Duration) *ScrapeHandler {
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	return &ScrapeHandler{scraper: scraper, runTimeout: runTimeout}
}

// Enqueue handles POST /scrape requests. The crawl runs in a background
// goroutine; the response acknowledges the accepted run immediately.
func (h *ScrapeHandler) Enqueue(c echo.Context) error {
	var req dto.ScrapeRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	req.Source = strings.ToLower(strings.TrimSpace(req.Source))
	if req.Source == "" {
		req.Source = "yelp"
	}
	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		return Error(c, http.StatusBadRequest, "location is required")
	}

	categories := make([]string, 0, len(req.Categories)+1)
	if category := strings.TrimSpace(req.Category); category != "" {
		categories = append(categories, category)
	}
	for _, category := range req.Categories {
		if category = strings.TrimSpace(category); category != "" {
			categories = append(categories, category)
		}
	}
	if len(categories) == 0 {
		return Error(c, http.StatusBadRequest, "category or categories is required")
	}

	runID := uuid.NewString()
	requestID := middleware.RequestIDFromContext(c)
	log.Printf("scrape accepted run_id=%s request_id=%s source=%s categories=%d location=%q",
		runID, requestID, req.Source, len(categories), req.Location)

	// The request context ends with the response; the crawl gets its own.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
		defer cancel()
		summaries := h.scraper.ScrapeCategories(ctx, req.Source, categories, req.Location, req.MaxPages)
		var extracted, persisted int
		for _, s := range summaries {
			extracted += s.Extracted
			persisted += s.Persisted
		}
		log.Printf("scrape run finished run_id=%s extracted=%d persisted=%d", runID, extracted, persisted)
	}()

	return Success(c, http.StatusAccepted, "scrape run queued", dto.ScrapeQueuedResponse{
		RunID:  runID,
		Status: "queued",
	})
}
