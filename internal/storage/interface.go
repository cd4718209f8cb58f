package storage

import (
	"context"

	"newsdesk/internal/models"
)

// Storage defines the article store used by ingestion and the read API
type Storage interface {
	Exists(ctx context.Context, url string) (bool, error)
	InsertBatch(ctx context.Context, articles []models.Article) (int, error)
	QueryArticles(ctx context.Context, query *models.ArticleQuery) ([]models.Article, error)
	CountArticles(ctx context.Context) (int, error)
	Close() error
}
