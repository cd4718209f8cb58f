package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newsdesk/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db   *sql.DB
	path string
}

func NewSQLiteStorage(dataDir, dbFile string) (*SQLiteStorage, error) {
	// Ensure data directory exists with secure permissions (0750)
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	log.Printf("Initializing database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_synchronous=NORMAL&_timeout=30000&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Printf("Warning: failed to set %s: %v", pragma, err)
		}
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := validateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Database initialized successfully")
	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		source TEXT,
		category TEXT,
		imageUrl TEXT,
		description TEXT,
		publishedAt TEXT NOT NULL,
		ai_categorized BOOLEAN DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(publishedAt);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category, publishedAt);
	`
	_, err := db.Exec(schema)
	return err
}

// validateSchema refuses to run against an articles table that lacks a
// column this store reads or writes.
func validateSchema(db *sql.DB) error {
	required := []string{
		"id", "title", "url", "source", "category", "imageUrl",
		"description", "publishedAt", "ai_categorized",
	}
	for _, column := range required {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('articles') WHERE name = ?", column).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to inspect articles table: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("articles table is missing column %q", column)
		}
	}
	return nil
}

// Exists reports whether an article with the given URL is already stored
func (s *SQLiteStorage) Exists(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM articles WHERE url = ?", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article %s: %w", url, err)
	}
	return true, nil
}

// InsertBatch stores all articles whose URL is not present yet, inside one
// transaction. Rows colliding on url are skipped individually; any other
// failure rolls the whole batch back. It returns the number of new rows.
func (s *SQLiteStorage) InsertBatch(ctx context.Context, articles []models.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (title, url, source, category, imageUrl, description, publishedAt, ai_categorized)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range articles {
		var res sql.Result
		res, err = stmt.ExecContext(ctx,
			a.Title, a.URL, a.Source, a.Category, a.ImageURL,
			nullIfEmpty(a.Description), a.PublishedAt, a.AICategorized)
		if err != nil {
			return 0, fmt.Errorf("failed to insert article %s: %w", a.URL, err)
		}
		var n int64
		n, err = res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read insert result: %w", err)
		}
		inserted += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	return inserted, nil
}

// rollback aborts tx. A transaction already finished by a failed Commit
// reports sql.ErrTxDone, which is not worth a warning.
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Printf("Warning: rollback failed: %v", err)
	}
}

// QueryArticles returns articles matching every predicate set on query
func (s *SQLiteStorage) QueryArticles(ctx context.Context, query *models.ArticleQuery) ([]models.Article, error) {
	sqlQuery, args := buildArticleQuery(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := []models.Article{}
	for rows.Next() {
		var (
			a           models.Article
			source      sql.NullString
			category    sql.NullString
			imageURL    sql.NullString
			description sql.NullString
			aiFlag      sql.NullBool
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &source, &category, &imageURL,
			&description, &a.PublishedAt, &aiFlag); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		a.Source = source.String
		a.Category = category.String
		a.ImageURL = imageURL.String
		a.Description = description.String
		a.AICategorized = aiFlag.Bool
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read articles: %w", err)
	}

	return articles, nil
}

// CountArticles returns the total number of stored articles
func (s *SQLiteStorage) CountArticles(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func buildArticleQuery(query *models.ArticleQuery) (string, []interface{}) {
	baseQuery := `
		SELECT id, title, url, source, category, imageUrl, description, publishedAt, ai_categorized
		FROM articles`

	var conditions []string
	var args []interface{}

	if query.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, query.Category)
	}
	if query.From != "" {
		conditions = append(conditions, "publishedAt >= ?")
		args = append(args, query.From)
	}
	if query.To != "" {
		conditions = append(conditions, "publishedAt <= ?")
		args = append(args, query.To)
	}
	if query.Search != "" {
		pattern := "%" + escapeLike(query.Search) + "%"
		conditions = append(conditions, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	baseQuery += " ORDER BY " + orderClause(query.Sort)

	if query.Limit > 0 {
		baseQuery += " LIMIT ?"
		args = append(args, query.Limit)
	}

	return baseQuery, args
}

func orderClause(mode models.SortMode) string {
	switch mode {
	case models.SortPublishedAsc:
		return "publishedAt ASC, id ASC"
	case models.SortRelevancy:
		return "title ASC, id ASC"
	default:
		return "publishedAt DESC, id DESC"
	}
}

// escapeLike makes % and _ in user input match literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
