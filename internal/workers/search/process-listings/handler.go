// internal/workers/search/process-listings/handler.go
package processlistings

import (
	"context"
	"errors"
	"strings"
	"time"

	"price-finder/internal/common/logger"
	"price-finder/internal/common/metrics"
	"price-finder/internal/models"
	"price-finder/internal/relevance"
)

const (
	TaskType = "process-listings"
)

var (
	ErrNilInput   = errors.New("input cannot be nil")
	ErrEmptyQuery = errors.New("query cannot be empty")
)

type Handler struct {
	config   *Config
	pipeline *relevance.Pipeline
	logger   logger.Logger
}

func NewHandler(config *Config, pipeline *relevance.Pipeline, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		pipeline: pipeline,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute filters and ranks one batch of raw listings for a query.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	output, err := h.execute(ctx, input)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "INVALID_INPUT").Inc()
		return nil, err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return output, nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	candidates, report := h.pipeline.Run(input.Listings, input.Query)
	elapsed := time.Since(start)

	intent := string(report.Intent)
	for _, s := range report.Stages {
		if d := s.Dropped(); d > 0 {
			metrics.PipelineCandidatesDropped.WithLabelValues(string(s.Stage), intent).Add(float64(d))
		}
	}
	metrics.PipelineDuration.WithLabelValues(intent).Observe(elapsed.Seconds())

	rules := h.pipeline.Rules()
	results := make([]models.Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, models.Result{
			Title:        c.Title,
			Price:        c.Price,
			PriceDisplay: c.PriceDisplay,
			Store:        c.Store,
			URL:          c.URL,
			Condition:    rules.Condition(c.Title),
		})
	}

	duration := elapsed.Milliseconds()
	h.logger.Info("ranking completed", map[string]interface{}{
		"query":       input.Query,
		"intent":      intent,
		"inputCount":  len(input.Listings),
		"outputCount": len(results),
		"durationMs":  duration,
	})

	if elapsed > h.config.SlowThreshold {
		h.logger.Warn("ranking exceeded threshold", map[string]interface{}{
			"durationMs":  duration,
			"thresholdMs": h.config.SlowThreshold.Milliseconds(),
		})
	}

	return &Output{Results: results, Intent: report.Intent, Report: report}, nil
}
