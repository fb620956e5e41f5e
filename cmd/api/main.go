package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/octobees/directory-scraper/internal/auth"
	"github.com/octobees/directory-scraper/internal/config"
	"github.com/octobees/directory-scraper/internal/database"
	"github.com/octobees/directory-scraper/internal/fetch"
	"github.com/octobees/directory-scraper/internal/handler"
	middlewarepkg "github.com/octobees/directory-scraper/internal/middleware"
	"github.com/octobees/directory-scraper/internal/repository"
	"github.com/octobees/directory-scraper/internal/router"
	"github.com/octobees/directory-scraper/internal/scrape"
	"github.com/octobees/directory-scraper/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	businessesRepo := repository.NewPGXBusinessesRepository(pool)

	// Without a fetch key the crawl endpoint still registers; runs log the
	// unconfigured fetcher and produce nothing.
	var fetcher scrape.PageFetcher
	zyte, err := fetch.NewZyteClient(cfg.ZyteAPIKey, fetch.WithMaxRetries(cfg.MaxRetries))
	switch {
	case err == nil:
		fetcher = zyte
	case errors.Is(err, fetch.ErrNotConfigured):
		log.Printf("ZYTE_API_KEY not set, scrape runs will fail until configured")
	default:
		log.Fatalf("failed to build fetch client: %v", err)
	}

	authService := service.NewAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, jwtManager)
	businessesService := service.NewBusinessesService(businessesRepo)
	scrapeService := service.NewScrapeService(businessesRepo, fetcher, cfg.ScrapeDelay)

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Businesses: handler.NewBusinessesHandler(businessesService),
		Scrape:     handler.NewScrapeHandler(scrapeService, cfg.ScrapeTimeout),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
