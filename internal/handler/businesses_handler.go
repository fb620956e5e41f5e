package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/octobees/directory-scraper/internal/dto"
	"github.com/octobees/directory-scraper/internal/service"
)

// BusinessesHandler exposes the listings catalogue endpoints.
type BusinessesHandler struct {
	service *service.BusinessesService
}

// NewBusinessesHandler creates a new handler instance.
func NewBusinessesHandler(service *service.BusinessesService) *BusinessesHandler {
	return &BusinessesHandler{service: service}
}

// List handles GET /businesses requests.
func (h *BusinessesHandler) List(c echo.Context) error {
	filter := dto.ListFilter{
		Q:        strings.TrimSpace(c.QueryParam("q")),
		Source:   strings.TrimSpace(c.QueryParam("source")),
		Category: strings.TrimSpace(c.QueryParam("category")),
		City:     strings.TrimSpace(c.QueryParam("city")),
		State:    strings.TrimSpace(c.QueryParam("state")),
		Page:     parseIntDefault(c.QueryParam("page"), 1),
		PerPage:  parseIntDefault(c.QueryParam("per_page"), 20),
	}

	if minRatingStr := strings.TrimSpace(c.QueryParam("min_rating")); minRatingStr != "" {
		minRating, err := strconv.ParseFloat(minRatingStr, 64)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid min_rating")
		}
		filter.MinRating = &minRating
	}

	if scrapedSinceStr := strings.TrimSpace(c.QueryParam("scraped_since")); scrapedSinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, scrapedSinceStr)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid scraped_since (use RFC3339)")
		}
		filter.ScrapedSince = &parsed
	}

	if activeStr := strings.TrimSpace(c.QueryParam("active")); activeStr != "" {
		filter.ActiveOnly = activeStr == "true" || activeStr == "1"
	}

	businesses, err := h.service.ListBusinesses(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list businesses")
	}

	return Success(c, http.StatusOK, "businesses retrieved", businesses)
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}
