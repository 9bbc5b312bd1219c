// Package search coordinates a query from the first request to a cached
// result set: cache lookup, job relay, result processing and fallbacks.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"price-finder/internal/cache"
	apperrors "price-finder/internal/common/errors"
	"price-finder/internal/common/logger"
	"price-finder/internal/common/metrics"
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
)

type Status string

const (
	StatusReady   Status = "ready"
	StatusPending Status = "pending"
)

// Outcome is the answer to a search or results poll.
type Outcome struct {
	Status  Status
	Results []models.Result
}

type Dependencies struct {
	Cache          cache.Store
	Images         imagecache.Store
	Hub            *relay.Hub
	Traffic        *traffic.Log
	LiveState      *livestate.Store
	Processor      *processlistings.Handler
	Enricher       *enrichimages.Handler
	Backup         *backupsearch.Handler
	Observability  *observability.Observability
	RulesetVersion string
	TopTerms       int
	BackupTimeout  time.Duration
}

type Service struct {
	deps        Dependencies
	logger      logger.Logger
	maintenance atomic.Bool
	background  sync.WaitGroup
}

func NewService(deps Dependencies, log logger.Logger) *Service {
	if deps.BackupTimeout == 0 {
		deps.BackupTimeout = 30 * time.Second
	}
	return &Service{deps: deps, logger: logger.Component(log, "search")}
}

// Search answers from cache or starts a round for the query. A started
// round goes to the worker queue, or straight to the backup API when no
// worker is connected.
func (s *Service) Search(ctx context.Context, query, visitor string) (*Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		metrics.SearchRequests.WithLabelValues("invalid").Inc()
		return nil, apperrors.NewInvalidQueryError("query parameter is required")
	}
	if s.maintenance.Load() {
		metrics.SearchRequests.WithLabelValues("disabled").Inc()
		return nil, apperrors.NewServiceDisabledError()
	}

	s.deps.Traffic.RecordSearch(query, visitor)

	if out, ok := s.cached(ctx, query); ok {
		metrics.SearchRequests.WithLabelValues("cache_hit").Inc()
		return out, nil
	}

	marked, err := s.deps.Cache.MarkPending(ctx, query)
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError(err)
	}
	if !marked {
		metrics.SearchRequests.WithLabelValues("pending").Inc()
		return &Outcome{Status: StatusPending}, nil
	}

	if !s.deps.Hub.Connected() && s.deps.Backup != nil && s.deps.Backup.Enabled() {
		s.logger.Info("no worker connected, using backup search", map[string]interface{}{"query": query})
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			s.backupRound(query)
		}()
	} else {
		s.deps.Hub.Queue().Enqueue(query)
	}

	metrics.SearchRequests.WithLabelValues("queued").Inc()
	return &Outcome{Status: StatusPending}, nil
}

// Results is the polling endpoint behind a pending search.
func (s *Service) Results(ctx context.Context, query string) (*Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewInvalidQueryError("query is required")
	}
	if out, ok := s.cached(ctx, query); ok {
		return out, nil
	}

	pending, err := s.deps.Cache.IsPending(ctx, query)
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError(err)
	}
	if pending {
		return &Outcome{Status: StatusPending}, nil
	}

	// the marker can expire while the queue is paused or backed up
	if s.deps.Hub.Queue().Contains(query) {
		if _, err := s.deps.Cache.MarkPending(ctx, query); err != nil {
			s.logger.Warn("failed to refresh pending marker", map[string]interface{}{"query": query, "error": err.Error()})
		}
		return &Outcome{Status: StatusPending}, nil
	}
	return nil, apperrors.NewResultsNotFoundError(query)
}

func (s *Service) cached(ctx context.Context, query string) (*Outcome, bool) {
	rs, err := s.deps.Cache.Get(ctx, query)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("cache read failed", map[string]interface{}{"query": query, "error": err.Error()})
		}
		return nil, false
	}
	items := rs.Items
	if items == nil {
		items = []models.Result{}
	}
	return &Outcome{Status: StatusReady, Results: items}, true
}

// Submit stores the result of a worker round. When the worker found
// nothing usable the backup API gets one attempt.
func (s *Service) Submit(ctx context.Context, query string, raw []relevance.RawListing) (*models.ResultSet, error) {
	query = strings.TrimSpace(query)
	start := time.Now()
	defer s.deps.Hub.Queue().Complete(query)

	out, err := s.deps.Processor.Execute(ctx, &processlistings.Input{Query: query, Listings: raw})
	if err != nil {
		return nil, apperrors.NewInvalidPayloadError(err.Error())
	}
	results, source := out.Results, models.SourceWorker

	if len(results) == 0 && s.deps.Backup != nil && s.deps.Backup.Enabled() {
		s.logger.Info("worker round empty, trying backup search", map[string]interface{}{"query": query})
		if backup, err := s.backupResults(ctx, query); err == nil && len(backup) > 0 {
			results, source = backup, models.SourceBackup
		}
	}

	return s.store(ctx, query, results, source, start)
}

func (s *Service) backupResults(ctx context.Context, query string) ([]models.Result, error) {
	found, err := s.deps.Backup.Execute(ctx, &backupsearch.Input{Query: query})
	if err != nil {
		s.logger.Warn("backup search failed", map[string]interface{}{"query": query, "error": err.Error()})
		return nil, err
	}
	out, err := s.deps.Processor.Execute(ctx, &processlistings.Input{Query: query, Listings: found.Listings})
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (s *Service) backupRound(query string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.deps.BackupTimeout)
	defer cancel()
	start := time.Now()

	results, err := s.backupResults(ctx, query)
	if err != nil {
		if cerr := s.deps.Cache.ClearPending(ctx, query); cerr != nil {
			s.logger.Warn("clear pending failed", map[string]interface{}{"query": query, "error": cerr.Error()})
		}
		s.deps.Observability.RecordRound(ctx, string(models.SourceBackup), "failed", time.Since(start), 0)
		return
	}
	if _, err := s.store(ctx, query, results, models.SourceBackup, start); err != nil {
		s.logger.Error("store backup results failed", map[string]interface{}{"query": query, "error": err.Error()})
	}
}

func (s *Service) store(ctx context.Context, query string, results []models.Result, source models.ResultSource, start time.Time) (*models.ResultSet, error) {
	if s.deps.Enricher != nil && len(results) > 0 {
		results = s.deps.Enricher.Execute(ctx, &enrichimages.Input{Query: query, Results: results}).Results
	}
	if results == nil {
		results = []models.Result{}
	}

	rs := &models.ResultSet{
		Query:     query,
		Items:     results,
		Source:    source,
		CreatedAt: time.Now(),
	}
	if err := s.deps.Cache.Set(ctx, query, rs); err != nil {
		return nil, apperrors.NewCacheUnavailableError(err)
	}

	status := "success"
	if len(results) == 0 {
		status = "empty"
	}
	s.deps.Observability.RecordRound(ctx, string(source), status, time.Since(start), len(results))
	s.logger.Info("results cached", map[string]interface{}{
		"query":       query,
		"source":      string(source),
		"resultCount": len(results),
	})
	return rs, nil
}

// Wait blocks until background backup rounds finish.
func (s *Service) Wait() {
	s.background.Wait()
}
