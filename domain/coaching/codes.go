package coaching

import (
	"context"
	"errors"
	"net/http"
)

// Failure codes surfaced in warnings, error responses and persisted state
const (
	CodeValidationError     = "ValidationError"
	CodeRateLimited         = "RateLimited"
	CodeTimeout             = "Timeout"
	CodeUpstreamUnavailable = "UpstreamUnavailable"
	CodeOrchestrationFailed = "OrchestrationFailed"
	CodePartialCoaching     = "PartialCoaching"
)

// StatusCoder is implemented by upstream errors that carry an HTTP status
type StatusCoder interface {
	HTTPStatus() int
}

// MapGenerationError translates a per-move generation error into a failure code
func MapGenerationError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CodeTimeout
	}

	var coder StatusCoder
	if errors.As(err, &coder) {
		return MapHTTPStatus(coder.HTTPStatus())
	}

	return CodeUpstreamUnavailable
}

// MapHTTPStatus translates an upstream HTTP status into a failure code
func MapHTTPStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return CodeTimeout
	default:
		return CodeUpstreamUnavailable
	}
}

// IsTransientStatus reports whether an upstream HTTP status is worth retrying
func IsTransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
