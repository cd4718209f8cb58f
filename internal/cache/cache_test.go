package cache

import (
	"testing"
	"time"

	"newsdesk/internal/models"
)

func TestCacheManager_GetSetArticles(t *testing.T) {
	cacheManager := NewManager(15 * time.Minute)

	query := &models.ArticleQuery{Category: "world", Sort: models.SortPublishedDesc, Limit: 100}
	articles := []models.Article{{ID: 1, Title: "Cached article title here", URL: "https://example.com/1"}}

	_, gen, found := cacheManager.GetArticles(query)
	if found {
		t.Fatal("Expected empty cache")
	}

	if !cacheManager.SetArticles(query, articles, gen) {
		t.Fatal("Expected the write to be accepted")
	}

	cached, _, found := cacheManager.GetArticles(query)
	if !found {
		t.Fatal("Expected to find cached articles")
	}
	if len(cached) != 1 || cached[0].URL != "https://example.com/1" {
		t.Errorf("Unexpected cached value: %+v", cached)
	}

	other := &models.ArticleQuery{Category: "business", Sort: models.SortPublishedDesc, Limit: 100}
	if _, _, found := cacheManager.GetArticles(other); found {
		t.Error("Expected a different query to miss")
	}
}

func TestCacheManager_EmptyResultIsCached(t *testing.T) {
	cacheManager := NewManager(15 * time.Minute)
	query := &models.ArticleQuery{Category: "sports"}

	_, gen, _ := cacheManager.GetArticles(query)
	cacheManager.SetArticles(query, []models.Article{}, gen)

	cached, _, found := cacheManager.GetArticles(query)
	if !found {
		t.Fatal("Expected empty result to be cached")
	}
	if len(cached) != 0 {
		t.Errorf("Expected 0 articles, got %d", len(cached))
	}
}

func TestCacheManager_Flush(t *testing.T) {
	cacheManager := NewManager(15 * time.Minute)

	_, gen, _ := cacheManager.GetArticles(&models.ArticleQuery{Category: "a"})
	cacheManager.SetArticles(&models.ArticleQuery{Category: "a"}, nil, gen)
	cacheManager.SetArticles(&models.ArticleQuery{Category: "b"}, nil, gen)

	if cacheManager.Len() != 2 {
		t.Fatalf("Expected 2 cached queries, got %d", cacheManager.Len())
	}

	cacheManager.Flush()

	if cacheManager.Len() != 0 {
		t.Errorf("Expected cache to be flushed, got %d entries", cacheManager.Len())
	}
	if _, _, found := cacheManager.GetArticles(&models.ArticleQuery{Category: "a"}); found {
		t.Error("Expected query a to be flushed")
	}
}

func TestCacheManager_WriteFromBeforeFlushIsDropped(t *testing.T) {
	cacheManager := NewManager(15 * time.Minute)
	query := &models.ArticleQuery{Category: "world"}

	_, stale, found := cacheManager.GetArticles(query)
	if found {
		t.Fatal("Expected empty cache")
	}

	cacheManager.Flush()

	if cacheManager.SetArticles(query, []models.Article{}, stale) {
		t.Error("Expected a result read before the flush to be rejected")
	}
	if _, _, found := cacheManager.GetArticles(query); found {
		t.Error("Expected the stale result to stay out of the cache")
	}

	_, fresh, _ := cacheManager.GetArticles(query)
	if fresh == stale {
		t.Fatal("Expected Flush to advance the generation")
	}
	if !cacheManager.SetArticles(query, []models.Article{{URL: "https://example.com/new"}}, fresh) {
		t.Error("Expected a result read after the flush to be accepted")
	}
}
