package search

import (
	"context"
	"strings"

	"price-finder/internal/livestate"
	"price-finder/internal/models"
)

func (s *Service) Maintenance() bool { return s.maintenance.Load() }

// ToggleMaintenance flips maintenance mode and returns the new value.
func (s *Service) ToggleMaintenance() bool {
	for {
		old := s.maintenance.Load()
		if s.maintenance.CompareAndSwap(old, !old) {
			s.logger.Info("maintenance toggled", map[string]interface{}{"enabled": !old})
			return !old
		}
	}
}

func (s *Service) ToggleQueue() bool {
	paused := s.deps.Hub.Queue().TogglePause()
	s.logger.Info("queue toggled", map[string]interface{}{"paused": paused})
	return paused
}

func (s *Service) DisconnectWorker() error {
	return s.deps.Hub.Disconnect()
}

func (s *Service) ClearQueue() int {
	return s.deps.Hub.Queue().Clear()
}

// ClearCache drops one query's result set, or all of them when query is
// blank.
func (s *Service) ClearCache(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return s.deps.Cache.Clear(ctx)
	}
	return s.deps.Cache.Delete(ctx, query)
}

func (s *Service) ClearImageCache(ctx context.Context) error {
	if s.deps.Images == nil {
		return nil
	}
	return s.deps.Images.Clear(ctx)
}

func (s *Service) ClearStats() {
	s.deps.Traffic.Clear()
}

func (s *Service) Heartbeat(visitor string) {
	s.deps.Traffic.Heartbeat(visitor)
}

func (s *Service) LiveState() livestate.State {
	return s.deps.LiveState.Get(s.deps.Traffic.Online())
}

func (s *Service) SetTheme(theme string) error {
	return s.deps.LiveState.SetTheme(theme)
}

func (s *Service) SetBanner(message string) error {
	return s.deps.LiveState.SetBanner(message)
}

func (s *Service) TriggerRain() (int64, error) {
	return s.deps.LiveState.TriggerRain()
}

// TrafficData assembles the admin dashboard snapshot. Cache sizes that
// cannot be read are reported as zero.
func (s *Service) TrafficData(ctx context.Context) *models.TrafficData {
	status := s.deps.Hub.Status()
	stats := s.deps.Traffic.Stats()

	workerStatus := models.WorkerDisconnected
	if status.Connected {
		workerStatus = models.WorkerConnected
	}

	data := &models.TrafficData{
		WorkerStatus:      workerStatus,
		IsQueuePaused:     status.Paused,
		JobQueue:          status.Queue,
		ActiveJobs:        status.Active,
		IsServiceDisabled: s.Maintenance(),
		TotalSearches:     stats.TotalSearches,
		UniqueVisitors:    stats.UniqueVisitors,
		OnlineUsers:       s.deps.Traffic.Online(),
		SearchHistory:     stats.History,
		TopSearches:       s.deps.Traffic.TopTerms(s.deps.TopTerms),
		RulesetVersion:    s.deps.RulesetVersion,
	}

	if n, err := s.deps.Cache.Len(ctx); err == nil {
		data.ResultCacheSize = n
	} else {
		s.logger.Warn("result cache size unavailable", map[string]interface{}{"error": err.Error()})
	}
	if s.deps.Images != nil {
		if n, err := s.deps.Images.Len(ctx); err == nil {
			data.ImageCacheSize = n
		} else {
			s.logger.Warn("image cache size unavailable", map[string]interface{}{"error": err.Error()})
		}
	}
	return data
}
