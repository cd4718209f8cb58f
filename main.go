// Copyright (c) 2024 cblomart
// Licensed under the MIT License

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"newsdesk/internal/aggregator"
	"newsdesk/internal/api"
	"newsdesk/internal/cache"
	"newsdesk/internal/classifier"
	"newsdesk/internal/config"
	"newsdesk/internal/poller"
	"newsdesk/internal/scraper"
	"newsdesk/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env before reading configuration
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	// Load configuration
	cfg := config.Load()

	log.Println("Server starting up...")

	// Initialize persistent storage
	storageManager, err := storage.NewStorage(cfg.DataDir, cfg.DBFile)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	defer storageManager.Close()

	// Drop the flat-file store left by older deployments
	if _, err := storage.RemoveLegacyFiles(cfg.DataDir, cfg.LegacyDataFiles); err != nil {
		log.Printf("Warning: failed to remove legacy data files: %v", err)
	}

	// Initialize query cache
	cacheManager := cache.NewManager(cfg.CacheTTL)

	// Initialize scraper
	fetcher := scraper.NewFetcher(&http.Client{}, cfg.Scraper.UserAgent)
	details := scraper.NewDetailFetcher(fetcher, cfg.Scraper.DetailTimeout, cfg.Scraper.ReadabilityFallback)
	pageScraper, err := scraper.NewPageScraper(fetcher, details, storageManager, cfg.Source, cfg.Scraper)
	if err != nil {
		log.Fatal("Failed to initialize scraper:", err)
	}

	// Initialize classifier; without an API key it stays unconfigured
	newsClassifier := classifier.New(context.Background(), cfg.Classifier)

	// Initialize aggregator
	agg := aggregator.New(cacheManager, storageManager, pageScraper, newsClassifier, cfg.Source)

	// Initialize and start background scraping
	backgroundPoller := poller.New(agg, poller.Options{
		Schedule:     cfg.ScrapeSchedule,
		RunOnStartup: cfg.ScrapeOnStartup,
		Classify:     cfg.ScheduledClassify,
	})
	if err := backgroundPoller.Start(); err != nil {
		log.Fatal("Failed to start scrape scheduler:", err)
	}

	// Initialize API server
	server := api.NewServer(agg, backgroundPoller, newsClassifier, cfg)

	log.Printf("Starting news server on port %d", cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Source: %s (%s, %d categories)", cfg.Source.Name, cfg.Source.BaseURL, len(cfg.Source.Categories))
	log.Printf("Cache TTL: %v", cfg.CacheTTL)
	log.Printf("AI categorization configured: %v", newsClassifier.Configured())

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		cancel()
	}()

	// Start server; returns once the context is cancelled
	if err := server.StartWithContext(ctx); err != nil {
		log.Printf("Server error: %v", err)
	}

	backgroundPoller.Stop()
	log.Println("Shutdown complete")
}
