package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"price-finder/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the pool used for the persistent image cache.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

const imageCacheDDL = `
CREATE TABLE IF NOT EXISTS image_cache (
    query      TEXT PRIMARY KEY,
    image_url  TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrate creates the tables the server needs if they are missing.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, imageCacheDDL); err != nil {
		return fmt.Errorf("migrate image_cache: %w", err)
	}
	return nil
}
