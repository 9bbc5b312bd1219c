// Package imagecache remembers the product image found for each query.
package imagecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"price-finder/internal/models"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Store interface {
	Get(ctx context.Context, query string) (string, bool, error)
	Set(ctx context.Context, query, imageURL string) error
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// MemoryStore is a size-bounded LRU keyed by models.CacheKey.
type MemoryStore struct {
	cache *lru.Cache[string, string]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create image lru: %w", err)
	}
	return &MemoryStore{cache: c}, nil
}

func (m *MemoryStore) Get(_ context.Context, query string) (string, bool, error) {
	v, ok := m.cache.Get(models.CacheKey(query))
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, query, imageURL string) error {
	m.cache.Add(models.CacheKey(query), imageURL)
	return nil
}

func (m *MemoryStore) Len(_ context.Context) (int, error) {
	return m.cache.Len(), nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.cache.Purge()
	return nil
}

// PostgresStore persists images in the image_cache table and keeps a
// MemoryStore in front of it for hot queries.
type PostgresStore struct {
	db  *sql.DB
	mem *MemoryStore
}

func NewPostgresStore(db *sql.DB, mem *MemoryStore) *PostgresStore {
	return &PostgresStore{db: db, mem: mem}
}

func (p *PostgresStore) Get(ctx context.Context, query string) (string, bool, error) {
	if v, ok, _ := p.mem.Get(ctx, query); ok {
		return v, true, nil
	}

	var imageURL string
	err := p.db.QueryRowContext(ctx,
		`SELECT image_url FROM image_cache WHERE query = $1`, models.CacheKey(query),
	).Scan(&imageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select image: %w", err)
	}

	_ = p.mem.Set(ctx, query, imageURL)
	return imageURL, true, nil
}

func (p *PostgresStore) Set(ctx context.Context, query, imageURL string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO image_cache (query, image_url, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (query) DO UPDATE SET image_url = EXCLUDED.image_url, updated_at = NOW()`,
		models.CacheKey(query), imageURL,
	)
	if err != nil {
		return fmt.Errorf("upsert image: %w", err)
	}
	return p.mem.Set(ctx, query, imageURL)
}

func (p *PostgresStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM image_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}

func (p *PostgresStore) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM image_cache`); err != nil {
		return fmt.Errorf("clear images: %w", err)
	}
	return p.mem.Clear(ctx)
}

// Warm loads the most recently updated rows into memory. It returns the
// number of rows loaded.
func (p *PostgresStore) Warm(ctx context.Context, limit int) (int, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT query, image_url FROM image_cache ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return 0, fmt.Errorf("warm images: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var query, imageURL string
		if err := rows.Scan(&query, &imageURL); err != nil {
			return n, fmt.Errorf("scan image row: %w", err)
		}
		_ = p.mem.Set(ctx, query, imageURL)
		n++
	}
	return n, rows.Err()
}
