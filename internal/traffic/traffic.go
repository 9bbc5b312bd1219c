// Package traffic keeps in-memory visitor and search statistics for the
// admin panel.
package traffic

import (
	"sort"
	"strings"
	"sync"
	"time"

	"price-finder/internal/models"
)

type Log struct {
	mu            sync.Mutex
	now           func() time.Time
	maxHistory    int
	onlineTimeout time.Duration

	totalSearches int
	visitors      map[string]struct{}
	history       []models.SearchEntry
	terms         map[string]int
	heartbeats    map[string]time.Time
}

func New(maxHistory int, onlineTimeout time.Duration) *Log {
	return &Log{
		now:           time.Now,
		maxHistory:    maxHistory,
		onlineTimeout: onlineTimeout,
		visitors:      make(map[string]struct{}),
		terms:         make(map[string]int),
		heartbeats:    make(map[string]time.Time),
	}
}

// RecordSearch counts one search by visitor. History is newest first and
// capped at maxHistory entries.
func (l *Log) RecordSearch(query, visitor string) {
	query = strings.TrimSpace(query)
	l.mu.Lock()
	defer l.mu.Unlock()

	l.totalSearches++
	if visitor != "" {
		l.visitors[visitor] = struct{}{}
	}
	l.history = append([]models.SearchEntry{{Query: query, Timestamp: l.now()}}, l.history...)
	if len(l.history) > l.maxHistory {
		l.history = l.history[:l.maxHistory]
	}
	if key := models.CacheKey(query); key != "" {
		l.terms[key]++
	}
}

// Heartbeat marks visitor as online.
func (l *Log) Heartbeat(visitor string) {
	if visitor == "" {
		return
	}
	l.mu.Lock()
	l.heartbeats[visitor] = l.now()
	l.mu.Unlock()
}

// Online returns the number of visitors seen within the online timeout and
// forgets the rest.
func (l *Log) Online() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.onlineTimeout)
	for id, seen := range l.heartbeats {
		if seen.Before(cutoff) {
			delete(l.heartbeats, id)
		}
	}
	return len(l.heartbeats)
}

// TopTerms returns up to n terms by descending count, ties broken
// alphabetically.
func (l *Log) TopTerms(n int) []models.TermCount {
	l.mu.Lock()
	out := make([]models.TermCount, 0, len(l.terms))
	for term, count := range l.terms {
		out = append(out, models.TermCount{Term: term, Count: count})
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

type Stats struct {
	TotalSearches  int
	UniqueVisitors int
	History        []models.SearchEntry
}

func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		TotalSearches:  l.totalSearches,
		UniqueVisitors: len(l.visitors),
		History:        append([]models.SearchEntry{}, l.history...),
	}
}

// Clear resets search statistics. Heartbeats are kept so the online count
// survives a stats reset.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totalSearches = 0
	l.visitors = make(map[string]struct{})
	l.history = nil
	l.terms = make(map[string]int)
}
