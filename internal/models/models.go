package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// TopStories tags articles scraped from the site's homepage
	TopStories = "top-stories"
	// DefaultCategory is assigned whenever classification cannot decide
	DefaultCategory = "general"

	// TimestampLayout is the stored publishedAt format. Date filters compare
	// lexically against it, so it must stay fixed-width and UTC.
	TimestampLayout = "2006-01-02T15:04:05Z"
)

// ClassifierCategories is the fixed label vocabulary a classifier may assign
var ClassifierCategories = []string{
	"world", "politics", "business", "sports", "entertainment", "technology",
	"style", "travel", "science", "climate", "weather", "health",
	"opinion", "general", "crime", "education", "environment",
}

// IsClassifierCategory reports whether label belongs to ClassifierCategories
func IsClassifierCategory(label string) bool {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, c := range ClassifierCategories {
		if c == label {
			return true
		}
	}
	return false
}

// Article represents a single scraped news article
type Article struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Source        string `json:"source"`
	Category      string `json:"category"`
	ImageURL      string `json:"imageUrl"`
	Description   string `json:"description"`
	PublishedAt   string `json:"publishedAt"`
	AICategorized bool   `json:"ai_categorized"`
}

// SortMode selects the ordering of query results
type SortMode string

const (
	SortPublishedDesc SortMode = "publishedAt"
	SortPublishedAsc  SortMode = "publishedAt_asc"
	SortRelevancy     SortMode = "relevancy"
)

// ParseSortMode maps the sort_by query value to a SortMode. An empty value
// selects the default newest-first ordering.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "":
		return SortPublishedDesc, nil
	case SortPublishedDesc, SortPublishedAsc, SortRelevancy:
		return SortMode(s), nil
	}
	return "", fmt.Errorf("invalid sort_by %q: must be one of publishedAt, publishedAt_asc, relevancy", s)
}

// ArticleQuery is a conjunction of optional predicates plus ordering and a cap.
// Empty strings mean "no predicate".
type ArticleQuery struct {
	Category string
	From     string
	To       string
	Search   string
	Sort     SortMode
	Limit    int
}

// CacheKey identifies the query for result caching
func (q *ArticleQuery) CacheKey() string {
	return fmt.Sprintf("articles:%s|%s|%s|%s|%s|%d", q.Category, q.From, q.To, q.Search, q.Sort, q.Limit)
}

// NormalizeFromDate validates a from_date value and returns the lower bound
// to compare against. Accepts YYYY-MM-DD or RFC 3339.
func NormalizeFromDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(TimestampLayout), nil
	}
	return "", fmt.Errorf("invalid from_date %q: expected YYYY-MM-DD or RFC 3339", s)
}

// NormalizeToDate validates a to_date value. A bare date is extended to the
// last second of that day so the whole day is included.
func NormalizeToDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s + "T23:59:59Z", nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(TimestampLayout), nil
	}
	return "", fmt.Errorf("invalid to_date %q: expected YYYY-MM-DD or RFC 3339", s)
}

// FormatTimestamp renders t in the stored publishedAt format
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// CategorySet returns the sorted, de-duplicated union of the given label lists
func CategorySet(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, label := range list {
			label = strings.ToLower(strings.TrimSpace(label))
			if label == "" || seen[label] {
				continue
			}
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

// UniqueByURL collapses articles sharing a URL. The last occurrence wins but
// keeps the position of the first.
func UniqueByURL(articles []Article) []Article {
	index := make(map[string]int, len(articles))
	var out []Article
	for _, a := range articles {
		if i, ok := index[a.URL]; ok {
			out[i] = a
			continue
		}
		index[a.URL] = len(out)
		out = append(out, a)
	}
	return out
}
