package cache

import (
	"context"
	"testing"
	"time"

	"price-finder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemoryStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(time.Hour, 5*time.Minute)
	s.now = clock.Now
	return s, clock
}

func sampleSet(query string) *models.ResultSet {
	return &models.ResultSet{
		Query:  query,
		Source: models.SourceWorker,
		Items: []models.Result{
			{Title: "eBay Apple iPhone 15 $950.00", Price: 950, PriceDisplay: "$950.00", Store: "eBay", URL: "#"},
		},
	}
}

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestMemoryStore()

	_, err := s.Get(ctx, "iphone 15")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "iPhone 15", sampleSet("iPhone 15")))

	got, err := s.Get(ctx, "  IPHONE 15 ")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	n, _ := s.Len(ctx)
	assert.Equal(t, 1, n)

	clock.Advance(time.Hour)
	_, err = s.Get(ctx, "iphone 15")
	assert.ErrorIs(t, err, ErrMiss)
	n, _ = s.Len(ctx)
	assert.Equal(t, 0, n)
}

func TestMemoryStore_Pending(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestMemoryStore()

	marked, err := s.MarkPending(ctx, "ps5")
	require.NoError(t, err)
	assert.True(t, marked)

	marked, _ = s.MarkPending(ctx, "PS5")
	assert.False(t, marked)

	pending, _ := s.IsPending(ctx, "ps5")
	assert.True(t, pending)

	clock.Advance(5 * time.Minute)
	pending, _ = s.IsPending(ctx, "ps5")
	assert.False(t, pending, "pending marker must expire")

	_, _ = s.MarkPending(ctx, "ps5")
	require.NoError(t, s.Set(ctx, "ps5", sampleSet("ps5")))
	pending, _ = s.IsPending(ctx, "ps5")
	assert.False(t, pending, "storing results clears the marker")
}

func TestMemoryStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMemoryStore()

	require.NoError(t, s.Set(ctx, "a", sampleSet("a")))
	require.NoError(t, s.Set(ctx, "b", sampleSet("b")))
	_, _ = s.MarkPending(ctx, "c")

	require.NoError(t, s.Delete(ctx, "A"))
	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Clear(ctx))
	n, _ := s.Len(ctx)
	assert.Equal(t, 0, n)
	pending, _ := s.IsPending(ctx, "c")
	assert.False(t, pending)
}
