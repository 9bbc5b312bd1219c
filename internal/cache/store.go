// Package cache holds per-query result sets and pending markers.
package cache

import (
	"context"
	"errors"

	"price-finder/internal/models"
)

// ErrMiss is returned by Get when no result set is cached for the query.
var ErrMiss = errors.New("cache miss")

// Store is implemented by MemoryStore and RedisStore. All methods key by
// models.CacheKey(query).
type Store interface {
	Get(ctx context.Context, query string) (*models.ResultSet, error)
	Set(ctx context.Context, query string, rs *models.ResultSet) error

	// MarkPending records that a round is in flight. It reports false when
	// the query was already pending.
	MarkPending(ctx context.Context, query string) (bool, error)
	IsPending(ctx context.Context, query string) (bool, error)
	ClearPending(ctx context.Context, query string) error

	Delete(ctx context.Context, query string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}
