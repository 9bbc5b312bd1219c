package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"price-finder/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps result sets as JSON strings so several server instances
// can share one cache.
type RedisStore struct {
	client     redis.Cmdable
	prefix     string
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewRedisStore(client redis.Cmdable, prefix string, ttl, pendingTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, pendingTTL: pendingTTL}
}

func (s *RedisStore) resultKey(query string) string {
	return s.prefix + "set:" + models.CacheKey(query)
}

func (s *RedisStore) pendingKey(query string) string {
	return s.prefix + "pending:" + models.CacheKey(query)
}

func (s *RedisStore) Get(ctx context.Context, query string) (*models.ResultSet, error) {
	val, err := s.client.Get(ctx, s.resultKey(query)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rs models.ResultSet
	if err := json.Unmarshal([]byte(val), &rs); err != nil {
		return nil, fmt.Errorf("decode cached result set: %w", err)
	}
	return &rs, nil
}

func (s *RedisStore) Set(ctx context.Context, query string, rs *models.ResultSet) error {
	data, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("encode result set: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.resultKey(query), data, s.ttl)
	pipe.Del(ctx, s.pendingKey(query))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) MarkPending(ctx context.Context, query string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.pendingKey(query), "1", s.pendingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) IsPending(ctx context.Context, query string) (bool, error) {
	n, err := s.client.Exists(ctx, s.pendingKey(query)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) ClearPending(ctx context.Context, query string) error {
	return s.client.Del(ctx, s.pendingKey(query)).Err()
}

func (s *RedisStore) Delete(ctx context.Context, query string) error {
	return s.client.Del(ctx, s.resultKey(query), s.pendingKey(query)).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.scan(ctx, s.prefix+"*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	keys, err := s.scan(ctx, s.prefix+"set:*")
	return len(keys), err
}

func (s *RedisStore) scan(ctx context.Context, match string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}
