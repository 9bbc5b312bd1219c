package relay

import (
	"strings"
	"sync"

	"price-finder/internal/common/metrics"
	"price-finder/internal/models"
)

// Queue holds pending queries in arrival order. A query is never queued
// twice, nor queued while a worker is already running it.
type Queue struct {
	mu     sync.Mutex
	items  []string
	active map[string]struct{}
	paused bool
}

func NewQueue() *Queue {
	return &Queue{active: make(map[string]struct{})}
}

// Enqueue reports whether the query was added.
func (q *Queue) Enqueue(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	key := models.CacheKey(query)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.holds(key) {
		return false
	}
	q.items = append(q.items, query)
	metrics.RelayQueueLength.Set(float64(len(q.items)))
	return true
}

// Contains reports whether the query is queued or being run by the worker.
func (q *Queue) Contains(query string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.holds(models.CacheKey(query))
}

func (q *Queue) holds(key string) bool {
	if _, ok := q.active[key]; ok {
		return true
	}
	for _, item := range q.items {
		if models.CacheKey(item) == key {
			return true
		}
	}
	return false
}

// Next pops the oldest query. It returns false when paused or empty.
func (q *Queue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.paused || len(q.items) == 0 {
		return "", false
	}
	query := q.items[0]
	q.items = q.items[1:]
	metrics.RelayQueueLength.Set(float64(len(q.items)))
	return query, true
}

func (q *Queue) Start(query string) {
	q.mu.Lock()
	q.active[models.CacheKey(query)] = struct{}{}
	q.mu.Unlock()
}

func (q *Queue) Complete(query string) {
	q.mu.Lock()
	delete(q.active, models.CacheKey(query))
	q.mu.Unlock()
}

func (q *Queue) ClearActive() {
	q.mu.Lock()
	q.active = make(map[string]struct{})
	q.mu.Unlock()
}

// Clear drops every queued query and returns how many were removed.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	metrics.RelayQueueLength.Set(0)
	return n
}

// TogglePause flips the pause flag and returns the new value.
func (q *Queue) TogglePause() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = !q.paused
	return q.paused
}

func (q *Queue) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns copies of the queued and active queries.
func (q *Queue) Snapshot() (queued, active []string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queued = append([]string{}, q.items...)
	active = make([]string, 0, len(q.active))
	for k := range q.active {
		active = append(active, k)
	}
	return queued, active
}
