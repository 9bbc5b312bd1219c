package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-finder/internal/cache"
	apperrors "price-finder/internal/common/errors"
	"price-finder/internal/common/logger"
	"price-finder/internal/common/observability"
	"price-finder/internal/imagecache"
	"price-finder/internal/livestate"
	"price-finder/internal/models"
	"price-finder/internal/relay"
	"price-finder/internal/relevance"
	"price-finder/internal/traffic"
	backupsearch "price-finder/internal/workers/search/backup-search"
	enrichimages "price-finder/internal/workers/search/enrich-images"
	processlistings "price-finder/internal/workers/search/process-listings"
	"price-finder/pkg/ruleset"
)

var iphoneListings = []relevance.RawListing{
	{Title: "JB Hi-Fi Apple iPhone 15 128GB Blue $999.00"},
	{Title: "Spigen Case for iPhone 15 $24.99"},
	{Title: "Officeworks Apple iPhone 15 256GB Black $1199.00"},
	{Title: "Kogan iPhone 15 Screen Protector 2-pack $12.00"},
	{Title: "Amazon Apple iPhone 15 512GB $1399.00"},
	{Title: "eBay Apple iPhone 15 128GB Midnight $950.00"},
}

type fixture struct {
	svc    *Service
	cache  *cache.MemoryStore
	images *imagecache.MemoryStore
	hub    *relay.Hub
}

// newFixture builds a Service with in-memory collaborators. backupURL may be
// empty to disable the backup API.
func newFixture(t *testing.T, backupURL string) *fixture {
	log := logger.NewTestLogger(t)

	images, err := imagecache.NewMemoryStore(10)
	require.NoError(t, err)
	live, err := livestate.New("default", "")
	require.NoError(t, err)

	rules := relevance.MustCompile(ruleset.Default())
	processor := processlistings.NewHandler(
		&processlistings.Config{Timeout: time.Second, SlowThreshold: 500 * time.Millisecond},
		relevance.NewPipeline(rules), log)
	enricher := enrichimages.NewHandler(&enrichimages.Config{Timeout: time.Second}, images, log)
	backup := backupsearch.NewHandler(&backupsearch.Config{
		Enabled:    backupURL != "",
		BaseURL:    backupURL,
		APIKey:     "token",
		Timeout:    time.Second,
		MaxRetries: 1,
	}, log)

	results := cache.NewMemoryStore(time.Hour, 5*time.Minute)
	hub := relay.NewHub(relay.NewQueue(), "secret", time.Second, log)

	svc := NewService(Dependencies{
		Cache:          results,
		Images:         images,
		Hub:            hub,
		Traffic:        traffic.New(50, 65*time.Second),
		LiveState:      live,
		Processor:      processor,
		Enricher:       enricher,
		Backup:         backup,
		Observability:  observability.NewNoop(),
		RulesetVersion: rules.Version,
		TopTerms:       5,
		BackupTimeout:  2 * time.Second,
	}, log)

	return &fixture{svc: svc, cache: results, images: images, hub: hub}
}

func errorCode(t *testing.T, err error) apperrors.ErrorCode {
	se, ok := apperrors.As(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	return se.Code
}

func TestSearch_QueuesAndThenServesSubmittedResults(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	out, err := f.svc.Search(ctx, "iPhone 15", "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, out.Status)
	assert.Equal(t, 1, f.hub.Queue().Len())

	out, err = f.svc.Search(ctx, "iphone 15", "2.2.2.2")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, out.Status)
	assert.Equal(t, 1, f.hub.Queue().Len(), "pending query is not queued twice")

	out, err = f.svc.Results(ctx, "iphone 15")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, out.Status)

	rs, err := f.svc.Submit(ctx, "iphone 15", iphoneListings)
	require.NoError(t, err)
	assert.Equal(t, models.SourceWorker, rs.Source)
	require.Len(t, rs.Items, 4)

	out, err = f.svc.Results(ctx, "IPHONE 15")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, out.Status)
	assert.Equal(t, 950.0, out.Results[0].Price)

	out, err = f.svc.Search(ctx, "iphone 15", "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, out.Status)
}

func TestResults_QueuedQueryStaysPendingAfterMarkerExpires(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	f.hub.Queue().TogglePause()
	_, err := f.svc.Search(ctx, "ps5", "1.1.1.1")
	require.NoError(t, err)

	// marker expired, job still waiting in the paused queue
	require.NoError(t, f.cache.ClearPending(ctx, "ps5"))

	out, err := f.svc.Results(ctx, "ps5")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, out.Status)

	pending, err := f.cache.IsPending(ctx, "ps5")
	require.NoError(t, err)
	assert.True(t, pending, "marker refreshed")

	assert.Equal(t, 1, f.hub.Queue().Clear())
	require.NoError(t, f.cache.ClearPending(ctx, "ps5"))
	_, err = f.svc.Results(ctx, "ps5")
	assert.Equal(t, apperrors.ErrCodeResultsNotFound, errorCode(t, err))
}

func TestSearch_Errors(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.svc.Search(ctx, "  ", "v")
	assert.Equal(t, apperrors.ErrCodeInvalidQuery, errorCode(t, err))

	assert.True(t, f.svc.ToggleMaintenance())
	_, err = f.svc.Search(ctx, "ps5", "v")
	assert.Equal(t, apperrors.ErrCodeServiceDisabled, errorCode(t, err))
	assert.False(t, f.svc.ToggleMaintenance())

	_, err = f.svc.Results(ctx, "never searched")
	assert.Equal(t, apperrors.ErrCodeResultsNotFound, errorCode(t, err))
}

func TestSubmit_EmptyRoundIsCached(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.svc.Search(ctx, "ps5", "v")
	require.NoError(t, err)

	rs, err := f.svc.Submit(ctx, "ps5", []relevance.RawListing{{Title: "Xbox Series X $799.00"}})
	require.NoError(t, err)
	assert.Empty(t, rs.Items)

	out, err := f.svc.Results(ctx, "ps5")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, out.Status)
	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
}

func TestSubmit_InvalidPayload(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.svc.Submit(context.Background(), " ", nil)
	assert.Equal(t, apperrors.ErrCodeInvalidPayload, errorCode(t, err))
}

func newBackupServer(t *testing.T, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch_UsesBackupWhenNoWorker(t *testing.T) {
	srv := newBackupServer(t, `{"results":[
		{"title":"JB Hi-Fi Sony PS5 Console $799.00"},
		{"title":"BigW Sony PS5 Console $749.00"}
	]}`)
	f := newFixture(t, srv.URL)
	ctx := context.Background()

	out, err := f.svc.Search(ctx, "ps5", "v")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, out.Status)
	assert.Zero(t, f.hub.Queue().Len())

	f.svc.Wait()

	out, err = f.svc.Results(ctx, "ps5")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, out.Status)
	require.Len(t, out.Results, 2)
	assert.Equal(t, 749.0, out.Results[0].Price)
}

func TestSearch_FailedBackupClearsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	f := newFixture(t, srv.URL)
	ctx := context.Background()

	_, err := f.svc.Search(ctx, "ps5", "v")
	require.NoError(t, err)
	f.svc.Wait()

	_, err = f.svc.Results(ctx, "ps5")
	assert.Equal(t, apperrors.ErrCodeResultsNotFound, errorCode(t, err))
}

func TestSubmit_FallsBackToBackupWhenWorkerFindsNothing(t *testing.T) {
	srv := newBackupServer(t, `{"offers":[{"title":"Sony PS5 Console","price":699,"shop_name":"Kmart"}]}`)
	f := newFixture(t, srv.URL)

	rs, err := f.svc.Submit(context.Background(), "ps5", nil)
	require.NoError(t, err)
	assert.Equal(t, models.SourceBackup, rs.Source)
	require.Len(t, rs.Items, 1)
	assert.Equal(t, "Kmart", rs.Items[0].Store)
}

func TestSubmit_UsesCachedImage(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	require.NoError(t, f.images.Set(ctx, "iphone 15", "https://img/iphone.jpg"))

	rs, err := f.svc.Submit(ctx, "iphone 15", iphoneListings)
	require.NoError(t, err)
	for _, item := range rs.Items {
		assert.Equal(t, "https://img/iphone.jpg", item.Image)
	}
}

func TestAdminOperations(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, _ = f.svc.Search(ctx, "ps5", "a")
	_, _ = f.svc.Search(ctx, "switch", "b")
	_, err := f.svc.Submit(ctx, "iphone 15", iphoneListings)
	require.NoError(t, err)
	require.NoError(t, f.images.Set(ctx, "iphone 15", "https://img/iphone.jpg"))
	f.svc.Heartbeat("a")

	assert.True(t, f.svc.ToggleQueue())

	data := f.svc.TrafficData(ctx)
	assert.Equal(t, models.WorkerDisconnected, data.WorkerStatus)
	assert.True(t, data.IsQueuePaused)
	assert.Equal(t, []string{"ps5", "switch"}, data.JobQueue)
	assert.Equal(t, 1, data.ResultCacheSize)
	assert.Equal(t, 1, data.ImageCacheSize)
	assert.Equal(t, 2, data.TotalSearches)
	assert.Equal(t, 2, data.UniqueVisitors)
	assert.Equal(t, 1, data.OnlineUsers)
	assert.Equal(t, "1.5.0", data.RulesetVersion)

	assert.Equal(t, 2, f.svc.ClearQueue())
	require.NoError(t, f.svc.ClearCache(ctx, "iphone 15"))
	n, _ := f.cache.Len(ctx)
	assert.Zero(t, n)
	require.NoError(t, f.svc.ClearImageCache(ctx))
	f.svc.ClearStats()

	data = f.svc.TrafficData(ctx)
	assert.Empty(t, data.JobQueue)
	assert.Zero(t, data.ImageCacheSize)
	assert.Zero(t, data.TotalSearches)

	assert.ErrorIs(t, f.svc.DisconnectWorker(), relay.ErrNoWorker)
}

func TestLiveState(t *testing.T) {
	f := newFixture(t, "")

	require.NoError(t, f.svc.SetTheme("halloween"))
	require.NoError(t, f.svc.SetBanner("Scheduled maintenance at 5pm"))
	ts, err := f.svc.TriggerRain()
	require.NoError(t, err)
	f.svc.Heartbeat("v1")

	st := f.svc.LiveState()
	assert.Equal(t, "halloween", st.Theme)
	assert.Equal(t, "Scheduled maintenance at 5pm", st.Banner)
	assert.Equal(t, ts, st.RainEventTimestamp)
	assert.Equal(t, 1, st.OnlineUsers)
}
