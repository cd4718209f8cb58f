package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"newsdesk/internal/config"
	"newsdesk/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	articleLinkSelector = `a[data-link-type="article"]`
	headlineSelector    = `span.container__headline-text`
)

// ExistenceChecker answers whether a URL is already stored
type ExistenceChecker interface {
	Exists(ctx context.Context, url string) (bool, error)
}

// DetailSource extracts image and description for one article URL
type DetailSource interface {
	FetchDetails(ctx context.Context, articleURL string) Details
}

// PageScraper turns a listing page into new, fully populated articles
type PageScraper struct {
	fetcher        *Fetcher
	details        DetailSource
	store          ExistenceChecker
	base           *url.URL
	source         string
	listingTimeout time.Duration
	minHeadline    int
	now            func() time.Time
}

func NewPageScraper(fetcher *Fetcher, details DetailSource, store ExistenceChecker, src config.SourceConfig, cfg config.ScraperConfig) (*PageScraper, error) {
	base, err := url.Parse(src.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", src.BaseURL)
	}

	return &PageScraper{
		fetcher:        fetcher,
		details:        details,
		store:          store,
		base:           base,
		source:         src.Name,
		listingTimeout: cfg.ListingTimeout,
		minHeadline:    cfg.MinHeadlineLength,
		now:            time.Now,
	}, nil
}

type candidate struct {
	url      string
	headline string
}

// ScrapePage fetches a listing page and returns the articles on it that are
// not stored yet. A fetch failure is returned as an error with no articles.
func (p *PageScraper) ScrapePage(ctx context.Context, pageURL, category string) ([]models.Article, error) {
	log.Printf("Scraping %s from %s...", category, pageURL)

	body, err := p.fetcher.Fetch(ctx, pageURL, p.listingTimeout)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", pageURL, err)
	}

	links := doc.Find(articleLinkSelector)
	candidates := p.newCandidates(ctx, links)

	log.Printf("Found %d links, %d are new for category '%s'.", links.Length(), len(candidates), category)

	var articles []models.Article
	for _, c := range candidates {
		if ctx.Err() != nil {
			return articles, ctx.Err()
		}

		details := p.details.FetchDetails(ctx, c.url)
		if details.ImageURL == "" {
			log.Printf("  -> Skipping article, no image found: %s", c.headline)
			continue
		}

		articles = append(articles, models.Article{
			Title:       c.headline,
			URL:         c.url,
			Source:      p.source,
			Category:    category,
			ImageURL:    details.ImageURL,
			Description: details.Description,
			PublishedAt: models.FormatTimestamp(p.now()),
		})
	}

	return articles, nil
}

// newCandidates resolves article links, drops those already stored and
// those without a usable headline. Each URL is kept once per page.
func (p *PageScraper) newCandidates(ctx context.Context, links *goquery.Selection) []candidate {
	var candidates []candidate
	accepted := make(map[string]bool)
	known := make(map[string]bool)

	links.Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		fullURL, ok := p.resolve(href)
		if !ok || accepted[fullURL] || known[fullURL] {
			return
		}

		exists, err := p.store.Exists(ctx, fullURL)
		if err != nil {
			log.Printf("Warning: existence check failed for %s: %v", fullURL, err)
		}
		if exists {
			known[fullURL] = true
			return
		}

		headline := cleanText(link.Find(headlineSelector).First().Text())
		if headline == "" || utf8.RuneCountInString(headline) < p.minHeadline {
			return
		}

		accepted[fullURL] = true
		candidates = append(candidates, candidate{url: fullURL, headline: headline})
	})

	return candidates
}

// resolve turns an href into an absolute URL on the source site
func (p *PageScraper) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := p.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(abs.Hostname(), p.base.Hostname()) {
		return "", false
	}
	abs.Fragment = ""

	return abs.String(), true
}

// PageURL joins a category path onto the source base URL
func PageURL(baseURL, path string) string {
	if path == "" || path == "/" {
		return strings.TrimRight(baseURL, "/")
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
