package cache

import (
	"sync"
	"time"

	"newsdesk/internal/models"

	"github.com/patrickmn/go-cache"
)

// Manager caches article query results between ingestion runs. Every Flush
// starts a new generation; results read from storage under an older
// generation are never cached.
type Manager struct {
	cache      *cache.Cache
	mu         sync.RWMutex
	generation uint64
}

func NewManager(defaultTTL time.Duration) *Manager {
	return &Manager{
		cache: cache.New(defaultTTL, 10*time.Minute),
	}
}

// GetArticles returns the cached result for a query, if any, together with
// the current generation to hand back to SetArticles on a miss
func (m *Manager) GetArticles(query *models.ArticleQuery) ([]models.Article, uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cached, found := m.cache.Get(query.CacheKey())
	if !found {
		return nil, m.generation, false
	}
	articles, ok := cached.([]models.Article)
	return articles, m.generation, ok
}

// SetArticles stores a query result with the default TTL. The write is
// dropped when the cache was flushed since generation was observed.
func (m *Manager) SetArticles(query *models.ArticleQuery, articles []models.Article, generation uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		return false
	}
	m.cache.Set(query.CacheKey(), articles, cache.DefaultExpiration)
	return true
}

// Len reports the number of cached queries
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache.ItemCount()
}

// Flush drops every cached result, called after the store changes
func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.cache.Flush()
}
