// internal/workers/search/backup-search/handler.go
package backupsearch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"price-finder/internal/common/http"
	"price-finder/internal/common/logger"
	"price-finder/internal/common/metrics"
	"price-finder/internal/relevance"
)

const (
	TaskType = "backup-search"
)

var (
	ErrNilInput           = errors.New("input cannot be nil")
	ErrDisabled           = errors.New("BACKUP_SEARCH_DISABLED")
	ErrBackupSearchFailed = errors.New("BACKUP_SEARCH_FAILED")
	ErrBackupTimeout      = errors.New("BACKUP_SEARCH_TIMEOUT")
)

type Handler struct {
	config *Config
	client *http.Client
	logger logger.Logger
	sleep  func(time.Duration)
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: http.NewClient(config.Timeout),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sleep:  time.Sleep,
	}
}

func (h *Handler) Enabled() bool { return h.config.Enabled }

// Execute fetches raw listings for a query from the backup price API.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	output, err := h.execute(ctx, input)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, h.mapErrorToCode(err)).Inc()
		return nil, err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return output, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if !h.config.Enabled {
		return nil, ErrDisabled
	}

	params := url.Values{}
	params.Add("token", h.config.APIKey)
	params.Add("country", h.config.Country)
	params.Add("q", strings.TrimSpace(input.Query))

	var resp searchResponse
	err := h.retryWithBackoff(ctx, func() error {
		resp = searchResponse{}
		return h.client.GetJSON(ctx, strings.TrimRight(h.config.BaseURL, "/")+"/search", params, &resp)
	})
	if err != nil {
		if errors.Is(err, ErrBackupTimeout) {
			metrics.ExternalAPICalls.WithLabelValues("backup_search", "timeout").Inc()
			return nil, err
		}
		metrics.ExternalAPICalls.WithLabelValues("backup_search", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrBackupSearchFailed, err)
	}
	metrics.ExternalAPICalls.WithLabelValues("backup_search", "success").Inc()

	listings := flatten(resp)
	h.logger.Info("backup search completed", map[string]interface{}{
		"query":       input.Query,
		"resultCount": len(listings),
	})
	return &Output{Listings: listings}, nil
}

// flatten turns offers into titles the listing normalizer can parse: shop
// name first, price last.
func flatten(resp searchResponse) []relevance.RawListing {
	out := make([]relevance.RawListing, 0, len(resp.Results)+len(resp.Offers))
	out = append(out, resp.Results...)
	for _, o := range resp.Offers {
		if o.Title == "" || o.Price <= 0 {
			continue
		}
		shop := strings.TrimSpace(o.ShopName)
		if shop == "" {
			shop = "Unknown"
		}
		out = append(out, relevance.RawListing{
			Title: fmt.Sprintf("%s %s $%.2f", shop, o.Title, o.Price),
			URL:   o.URL,
		})
	}
	return out
}

// retryWithBackoff retries retryable failures, doubling the delay each
// attempt. Timeouts are not retried.
func (h *Handler) retryWithBackoff(ctx context.Context, operation func() error) error {
	attempts := h.config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := h.config.InitialDelay

	var err error
	for i := 0; i < attempts; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if isTimeout(ctx, err) {
			return ErrBackupTimeout
		}
		var statusErr *http.StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return err
		}

		if i < attempts-1 {
			h.logger.Warn("backup search failed, retrying", map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  attempts,
				"nextRetryMs": delay.Milliseconds(),
			})
			h.sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func isTimeout(ctx context.Context, err error) bool {
	return ctx.Err() == context.DeadlineExceeded ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "Client.Timeout")
}

func (h *Handler) mapErrorToCode(err error) string {
	switch {
	case errors.Is(err, ErrBackupTimeout):
		return "BACKUP_SEARCH_TIMEOUT"
	case errors.Is(err, ErrDisabled):
		return "BACKUP_SEARCH_DISABLED"
	case errors.Is(err, ErrNilInput):
		return "INVALID_INPUT"
	default:
		return "BACKUP_SEARCH_FAILED"
	}
}
