// internal/workers/search/enrich-images/handler.go
package enrichimages

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"price-finder/internal/common/http"
	"price-finder/internal/common/logger"
	"price-finder/internal/common/metrics"
	"price-finder/internal/imagecache"
	"price-finder/internal/models"
)

const (
	TaskType = "enrich-images"
)

var (
	ErrImageSearchTimeout = errors.New("IMAGE_SEARCH_TIMEOUT")
	ErrImageSearchFailed  = errors.New("IMAGE_SEARCH_FAILED")
)

type Handler struct {
	config *Config
	client *http.Client
	cache  imagecache.Store
	logger logger.Logger
}

func NewHandler(config *Config, cache imagecache.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: http.NewClient(config.Timeout),
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Enabled() bool { return h.config.Enabled() }

// Execute attaches one product image to every result. A failed lookup is
// logged and leaves the results without an image.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	out := &Output{Results: input.Results}

	image, cached, err := h.execute(ctx, input.Query)
	if err != nil {
		code := "IMAGE_SEARCH_FAILED"
		if errors.Is(err, ErrImageSearchTimeout) {
			code = "IMAGE_SEARCH_TIMEOUT"
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.logger.Warn("image search failed, continuing without image", map[string]interface{}{
			"query": input.Query,
			"error": err.Error(),
		})
		return out
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()

	out.Image = image
	out.Cached = cached
	if image == "" {
		return out
	}

	enriched := make([]models.Result, len(input.Results))
	for i, r := range input.Results {
		if r.Image == "" {
			r.Image = image
		}
		enriched[i] = r
	}
	out.Results = enriched
	return out
}

func (h *Handler) execute(ctx context.Context, query string) (string, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false, nil
	}

	if h.cache != nil {
		image, ok, err := h.cache.Get(ctx, query)
		if err != nil {
			h.logger.Warn("image cache read failed", map[string]interface{}{"error": err.Error()})
		} else if ok {
			return image, true, nil
		}
	}

	if !h.config.Enabled() {
		return "", false, nil
	}

	image, err := h.search(ctx, query)
	if err != nil {
		return "", false, err
	}
	if image == "" {
		return "", false, nil
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, query, image); err != nil {
			h.logger.Warn("image cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	h.logger.Info("image search completed", map[string]interface{}{"query": query})
	return image, false, nil
}

func (h *Handler) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Add("key", h.config.SearchAPIKey)
	params.Add("cx", h.config.SearchEngineID)
	params.Add("q", query)
	params.Add("searchType", "image")
	params.Add("num", "1")

	var resp searchResponse
	if err := h.client.GetJSON(ctx, h.config.SearchAPIBaseURL, params, &resp); err != nil {
		if ctx.Err() == context.DeadlineExceeded ||
			strings.Contains(err.Error(), "Client.Timeout") ||
			strings.Contains(err.Error(), "deadline") {
			metrics.ExternalAPICalls.WithLabelValues("image_search", "timeout").Inc()
			return "", ErrImageSearchTimeout
		}
		metrics.ExternalAPICalls.WithLabelValues("image_search", "error").Inc()
		return "", fmt.Errorf("%w: %v", ErrImageSearchFailed, err)
	}
	metrics.ExternalAPICalls.WithLabelValues("image_search", "success").Inc()

	for _, item := range resp.Items {
		if item.Link != "" {
			return item.Link, nil
		}
	}
	return "", nil
}
