package cache

import (
	"context"
	"sync"
	"time"

	"price-finder/internal/models"
)

type memoryEntry struct {
	rs      *models.ResultSet
	expires time.Time
}

// MemoryStore is a process-local Store. Expired entries are dropped lazily.
type MemoryStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	pendingTTL time.Duration
	results    map[string]memoryEntry
	pending    map[string]time.Time
	now        func() time.Time
}

func NewMemoryStore(ttl, pendingTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:        ttl,
		pendingTTL: pendingTTL,
		results:    make(map[string]memoryEntry),
		pending:    make(map[string]time.Time),
		now:        time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, query string) (*models.ResultSet, error) {
	key := models.CacheKey(query)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.results[key]
	if !ok {
		return nil, ErrMiss
	}
	if !m.now().Before(e.expires) {
		delete(m.results, key)
		return nil, ErrMiss
	}
	return e.rs, nil
}

func (m *MemoryStore) Set(_ context.Context, query string, rs *models.ResultSet) error {
	key := models.CacheKey(query)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.results[key] = memoryEntry{rs: rs, expires: m.now().Add(m.ttl)}
	delete(m.pending, key)
	return nil
}

func (m *MemoryStore) MarkPending(_ context.Context, query string) (bool, error) {
	key := models.CacheKey(query)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingLocked(key) {
		return false, nil
	}
	m.pending[key] = m.now().Add(m.pendingTTL)
	return true, nil
}

func (m *MemoryStore) IsPending(_ context.Context, query string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingLocked(models.CacheKey(query)), nil
}

func (m *MemoryStore) pendingLocked(key string) bool {
	exp, ok := m.pending[key]
	if !ok {
		return false
	}
	if !m.now().Before(exp) {
		delete(m.pending, key)
		return false
	}
	return true
}

func (m *MemoryStore) ClearPending(_ context.Context, query string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, models.CacheKey(query))
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, query string) error {
	key := models.CacheKey(query)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.results, key)
	delete(m.pending, key)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]memoryEntry)
	m.pending = make(map[string]time.Time)
	return nil
}

func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for key, e := range m.results {
		if now.Before(e.expires) {
			n++
		} else {
			delete(m.results, key)
		}
	}
	return n, nil
}
