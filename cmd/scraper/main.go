package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/octobees/directory-scraper/internal/config"
	"github.com/octobees/directory-scraper/internal/database"
	"github.com/octobees/directory-scraper/internal/fetch"
	"github.com/octobees/directory-scraper/internal/repository"
	"github.com/octobees/directory-scraper/internal/service"
)

func main() {
	jobsPath := flag.String("jobs", "jobs.yaml", "path to the YAML jobs file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	jobs, err := config.LoadJobs(*jobsPath)
	if err != nil {
		log.Fatalf("failed to load jobs: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	fetcher, err := fetch.NewZyteClient(cfg.ZyteAPIKey, fetch.WithMaxRetries(cfg.MaxRetries))
	if err != nil {
		log.Fatalf("failed to build fetch client: %v", err)
	}

	repo := repository.NewPGXBusinessesRepository(pool)
	scraper := service.NewScrapeService(repo, fetcher, cfg.ScrapeDelay)

	var extracted, persisted int
	for _, source := range jobs.Sources {
		summaries := scraper.ScrapeCategories(ctx, source, jobs.Categories, jobs.Location, jobs.MaxPages)
		for _, s := range summaries {
			extracted += s.Extracted
			persisted += s.Persisted
		}
		if ctx.Err() != nil {
			log.Printf("batch interrupted err=%v", ctx.Err())
			break
		}
	}

	log.Printf("batch finished sources=%d categories=%d extracted=%d persisted=%d",
		len(jobs.Sources), len(jobs.Categories), extracted, persisted)

	if ctx.Err() != nil {
		os.Exit(1)
	}
}
