// internal/workers/search/backup-search/handler_test.go
package backupsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-finder/internal/common/config"
	"price-finder/internal/common/logger"
	"price-finder/internal/relevance"
)

func createTestHandler(t *testing.T, baseURL string, timeout time.Duration) (*Handler, *[]time.Duration) {
	cfg := &Config{
		Enabled:      true,
		BaseURL:      baseURL,
		APIKey:       "token",
		Country:      "au",
		Timeout:      timeout,
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
	}
	h := NewHandler(cfg, logger.NewTestLogger(t))
	var slept []time.Duration
	h.sleep = func(d time.Duration) { slept = append(slept, d) }
	return h, &slept
}

func TestExecute_FlatResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "token", r.URL.Query().Get("token"))
		assert.Equal(t, "au", r.URL.Query().Get("country"))
		assert.Equal(t, "ps5", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"results":[{"title":"JB Hi-Fi PS5 Console $799.00","url":"https://jb/ps5"}]}`))
	}))
	defer srv.Close()

	h, _ := createTestHandler(t, srv.URL, time.Second)
	out, err := h.Execute(context.Background(), &Input{Query: " ps5 "})
	require.NoError(t, err)
	assert.Equal(t, []relevance.RawListing{{Title: "JB Hi-Fi PS5 Console $799.00", URL: "https://jb/ps5"}}, out.Listings)
}

func TestExecute_OffersAreFlattened(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"offers":[
			{"title":"PS5 Console","price":799,"shop_name":"BigW","url":"https://bigw/ps5"},
			{"title":"PS5 Slim","price":0,"shop_name":"Kmart"},
			{"title":"PS5 Digital","price":649.5,"shop_name":""}
		]}`))
	}))
	defer srv.Close()

	h, _ := createTestHandler(t, srv.URL, time.Second)
	out, err := h.Execute(context.Background(), &Input{Query: "ps5"})
	require.NoError(t, err)

	require.Len(t, out.Listings, 2)
	assert.Equal(t, "BigW PS5 Console $799.00", out.Listings[0].Title)
	assert.Equal(t, "https://bigw/ps5", out.Listings[0].URL)
	assert.Equal(t, "Unknown PS5 Digital $649.50", out.Listings[1].Title)

	c, ok := relevance.Normalize(out.Listings[0])
	require.True(t, ok)
	assert.Equal(t, 799.0, c.Price)
	assert.Equal(t, "BigW", c.Store)
}

func TestExecute_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	h, slept := createTestHandler(t, srv.URL, time.Second)
	out, err := h.Execute(context.Background(), &Input{Query: "ps5"})
	require.NoError(t, err)
	assert.Empty(t, out.Listings)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		delay     time.Duration
		timeout   time.Duration
		wantErr   error
		wantCalls int32
	}{
		{name: "client error is not retried", status: http.StatusUnauthorized, timeout: time.Second, wantErr: ErrBackupSearchFailed, wantCalls: 1},
		{name: "server error exhausts retries", status: http.StatusServiceUnavailable, timeout: time.Second, wantErr: ErrBackupSearchFailed, wantCalls: 3},
		{name: "timeout", status: http.StatusOK, delay: 200 * time.Millisecond, timeout: 20 * time.Millisecond, wantErr: ErrBackupTimeout, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(tt.delay)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			h, _ := createTestHandler(t, srv.URL, tt.timeout)
			out, err := h.Execute(context.Background(), &Input{Query: "ps5"})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, out)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestExecute_DisabledAndNilInput(t *testing.T) {
	h := NewHandler(&Config{Enabled: false}, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{Query: "ps5"})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilInput)
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.APIs.BackupSearch.Enabled = true
	cfg.APIs.BackupSearch.APIKey = "k"
	cfg.APIs.BackupSearch.Timeout = 1500

	got := LoadConfig(cfg)
	assert.True(t, got.Enabled)
	assert.Equal(t, 1500*time.Millisecond, got.Timeout)
	assert.Equal(t, 3, got.MaxRetries)
}
