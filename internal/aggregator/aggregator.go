package aggregator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"newsdesk/internal/cache"
	"newsdesk/internal/config"
	"newsdesk/internal/models"
	"newsdesk/internal/scraper"
	"newsdesk/internal/storage"
)

// PageScraper returns the not-yet-stored articles found on one listing page
type PageScraper interface {
	ScrapePage(ctx context.Context, pageURL, category string) ([]models.Article, error)
}

// Classifier labels a batch of articles without dropping any of them
type Classifier interface {
	Configured() bool
	ClassifyBatch(ctx context.Context, articles []models.Article) []models.Article
}

// Aggregator runs ingestion passes over the configured source and serves
// cached reads of the stored articles.
type Aggregator struct {
	cacheManager *cache.Manager
	storage      storage.Storage
	scraper      PageScraper
	classifier   Classifier
	source       config.SourceConfig
	categories   []string
}

func New(cacheManager *cache.Manager, storage storage.Storage, scraper PageScraper, classifier Classifier, source config.SourceConfig) *Aggregator {
	return &Aggregator{
		cacheManager: cacheManager,
		storage:      storage,
		scraper:      scraper,
		classifier:   classifier,
		source:       source,
		categories:   models.CategorySet(models.ClassifierCategories, source.CategoryNames(), []string{source.HomeCategory, models.TopStories}),
	}
}

// RunStats summarises one ingestion pass
type RunStats struct {
	Pages       int `json:"pages"`
	FailedPages int `json:"failed_pages"`
	Found       int `json:"found"`
	Unique      int `json:"unique"`
	Classified  int `json:"classified"`
	Inserted    int `json:"inserted"`
}

type page struct {
	url      string
	category string
}

// pages lists the homepage followed by every category, in configured order
func (a *Aggregator) pages() []page {
	pages := make([]page, 0, len(a.source.Categories)+1)
	pages = append(pages, page{url: scraper.PageURL(a.source.BaseURL, ""), category: a.source.HomeCategory})
	for _, c := range a.source.Categories {
		pages = append(pages, page{url: scraper.PageURL(a.source.BaseURL, c.Path), category: c.Name})
	}
	return pages
}

// Run scrapes every page, optionally classifies the new articles and writes
// them in one batch. Page failures are logged and skipped; only a storage
// failure is returned.
func (a *Aggregator) Run(ctx context.Context, classify bool) (*RunStats, error) {
	log.Printf("Starting full %s scrape for all categories...", a.source.Name)

	stats := &RunStats{}
	var found []models.Article

	for _, p := range a.pages() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Pages++
		articles, err := a.scraper.ScrapePage(ctx, p.url, p.category)
		if err != nil {
			stats.FailedPages++
			log.Printf("Warning: failed to scrape %s (%s): %v", p.category, p.url, err)
		}
		found = append(found, articles...)
	}

	stats.Found = len(found)
	unique := models.UniqueByURL(found)
	stats.Unique = len(unique)
	log.Printf("Total new unique articles to process: %d", len(unique))

	if len(unique) == 0 {
		log.Printf("No new articles found. Scrape complete.")
		return stats, nil
	}

	if classify {
		if a.classifier != nil && a.classifier.Configured() {
			log.Printf("Applying AI categorization to new articles...")
		}
		unique = a.classify(ctx, unique)
		for _, article := range unique {
			if article.AICategorized {
				stats.Classified++
			}
		}
	}

	for i := range unique {
		if strings.TrimSpace(unique[i].Category) == "" {
			unique[i].Category = models.DefaultCategory
		}
	}

	inserted, err := a.storage.InsertBatch(ctx, unique)
	if err != nil {
		return stats, fmt.Errorf("failed to store articles: %w", err)
	}
	stats.Inserted = inserted

	if inserted > 0 {
		a.cacheManager.Flush()
	}

	log.Printf("Successfully added %d new articles to the database.", inserted)
	return stats, nil
}

// classify never loses an article: a nil or misbehaving classifier leaves
// the batch with default labels for anything outside the vocabulary
func (a *Aggregator) classify(ctx context.Context, articles []models.Article) []models.Article {
	if a.classifier != nil {
		out := a.classifier.ClassifyBatch(ctx, articles)
		if len(out) == len(articles) {
			return out
		}
		log.Printf("Warning: classifier returned %d of %d articles, using defaults", len(out), len(articles))
	}

	out := make([]models.Article, len(articles))
	for i, article := range articles {
		if !models.IsClassifierCategory(article.Category) {
			article.Category = models.DefaultCategory
		}
		article.AICategorized = false
		out[i] = article
	}
	return out
}

// GetArticles answers a query from the cache, falling back to storage
func (a *Aggregator) GetArticles(ctx context.Context, query *models.ArticleQuery) ([]models.Article, error) {
	if query == nil {
		query = &models.ArticleQuery{}
	}

	articles, generation, found := a.cacheManager.GetArticles(query)
	if found {
		return articles, nil
	}

	articles, err := a.storage.QueryArticles(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}

	// a run that flushed while we were querying makes this result stale
	a.cacheManager.SetArticles(query, articles, generation)
	return articles, nil
}

// GetAvailableCategories returns the sorted category labels clients may
// filter on
func (a *Aggregator) GetAvailableCategories() []string {
	out := make([]string, len(a.categories))
	copy(out, a.categories)
	return out
}

// IsValidCategory reports whether name (case-insensitive) is a known label
func (a *Aggregator) IsValidCategory(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range a.categories {
		if c == name {
			return true
		}
	}
	return false
}

// ClassifierConfigured reports whether runs can classify articles
func (a *Aggregator) ClassifierConfigured() bool {
	return a.classifier != nil && a.classifier.Configured()
}

// CountArticles returns the number of stored articles
func (a *Aggregator) CountArticles(ctx context.Context) (int, error) {
	return a.storage.CountArticles(ctx)
}
