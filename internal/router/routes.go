package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/directory-scraper/internal/auth"
	"github.com/octobees/directory-scraper/internal/config"
	"github.com/octobees/directory-scraper/internal/handler"
	middlewarepkg "github.com/octobees/directory-scraper/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth       *handler.AuthHandler
	Businesses *handler.BusinessesHandler
	Scrape     *handler.ScrapeHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/login", handlers.Auth.Login)
	e.GET("/businesses", handlers.Businesses.List)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))
	secured.POST("/scrape", handlers.Scrape.Enqueue,
		middlewarepkg.RequireRole("admin"),
		middlewarepkg.ScrapeRateLimiter(cfg.RateLimitScrape))
}
