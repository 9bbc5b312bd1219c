// Package errors provides the standardized error type shared by the HTTP
// surface, the job relay and the search workers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode is a stable machine-readable error identifier returned to clients.
type ErrorCode string

const (
	ErrCodeInvalidQuery   ErrorCode = "INVALID_QUERY"
	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"

	ErrCodeServiceDisabled   ErrorCode = "SERVICE_DISABLED"
	ErrCodeResultsNotFound   ErrorCode = "RESULTS_NOT_FOUND"
	ErrCodeWorkerUnavailable ErrorCode = "WORKER_UNAVAILABLE"

	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	ErrCodeImageSearchFailed   ErrorCode = "IMAGE_SEARCH_FAILED"
	ErrCodeImageSearchTimeout  ErrorCode = "IMAGE_SEARCH_TIMEOUT"
	ErrCodeBackupSearchFailed  ErrorCode = "BACKUP_SEARCH_FAILED"
	ErrCodeBackupSearchTimeout ErrorCode = "BACKUP_SEARCH_TIMEOUT"

	ErrCodeRulesetInvalid ErrorCode = "RULESET_INVALID"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e after attaching key=value to its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidQueryError(details string) *StandardError {
	return newError(ErrCodeInvalidQuery, "Query parameter is required", details, false)
}

func NewInvalidPayloadError(details string) *StandardError {
	return newError(ErrCodeInvalidPayload, "Request body failed validation", details, false)
}

func NewUnauthorizedError(details string) *StandardError {
	return newError(ErrCodeUnauthorized, "Unauthorized", details, false)
}

func NewRateLimitedError() *StandardError {
	return newError(ErrCodeRateLimited, "Too many requests", "", true)
}

func NewServiceDisabledError() *StandardError {
	return newError(ErrCodeServiceDisabled, "The service is temporarily down for maintenance. Please try again later.", "", true)
}

func NewResultsNotFoundError(query string) *StandardError {
	return newError(ErrCodeResultsNotFound, "No results for this query", fmt.Sprintf("query: %s", query), false)
}

func NewWorkerUnavailableError() *StandardError {
	return newError(ErrCodeWorkerUnavailable, "No scraping worker is connected", "", true)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Result cache unavailable", err.Error(), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(op string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()), true)
}

func NewImageSearchFailedError(err error) *StandardError {
	return newError(ErrCodeImageSearchFailed, "Image search API error", err.Error(), false)
}

// NewImageSearchTimeoutError is not retried: the result set is served without an image.
func NewImageSearchTimeoutError() *StandardError {
	return newError(ErrCodeImageSearchTimeout, "Image search API timeout", "image lookup exceeded its deadline", false)
}

func NewBackupSearchFailedError(err error) *StandardError {
	return newError(ErrCodeBackupSearchFailed, "Backup search API error", err.Error(), true)
}

func NewBackupSearchTimeoutError() *StandardError {
	return newError(ErrCodeBackupSearchTimeout, "Backup search API timeout", "backup search exceeded its deadline", true)
}

func NewRulesetInvalidError(err error) *StandardError {
	return newError(ErrCodeRulesetInvalid, "Relevance ruleset is invalid", err.Error(), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// As extracts a StandardError from err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCacheUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeBackupSearchFailed:
		return 3

	case ErrCodeBackupSearchTimeout:
		return 2

	default:
		return 0
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// HTTPStatus maps an error code to the response status used by the API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidQuery, ErrCodeInvalidPayload:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusForbidden
	case ErrCodeResultsNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeServiceDisabled, ErrCodeWorkerUnavailable, ErrCodeCacheUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeImageSearchTimeout, ErrCodeBackupSearchTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeImageSearchFailed, ErrCodeBackupSearchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "UNAUTHORIZED") || strings.Contains(codeStr, "RATE"):
		return "ACCESS"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_EXECUTION") || strings.Contains(codeStr, "CACHE"):
		return "STORAGE"
	case strings.Contains(codeStr, "IMAGE") || strings.Contains(codeStr, "BACKUP"):
		return "EXTERNAL_API"
	case strings.Contains(codeStr, "WORKER") || strings.Contains(codeStr, "SERVICE"):
		return "AVAILABILITY"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
