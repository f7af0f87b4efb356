package transformer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// AuthError indicates the API key is missing, invalid, or lacks permission.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// RateLimitError indicates the backend throttled or rejected the request
// because a usage quota was exhausted.
type RateLimitError struct {
	Reason string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s", e.Reason)
}

// TransientNetworkError indicates a connectivity or timeout failure that may
// succeed on a later attempt.
type TransientNetworkError struct {
	Reason string
	Err    error
}

func (e *TransientNetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network failure: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("network failure: %s", e.Reason)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

// InvalidResponseError indicates the backend answered but the payload did not
// contain a usable image.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response: %s", e.Reason)
}

// IsRetryable reports whether err is worth retrying after a backoff. Rate
// limits and transient network failures qualify; auth and malformed-response
// failures do not.
func IsRetryable(err error) bool {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var netErr *TransientNetworkError
	return errors.As(err, &netErr)
}

// IsRateLimit reports whether err is a rate limit failure.
func IsRateLimit(err error) bool {
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}

// rateLimitMarkers are the substrings backends use to report throttling. The
// Gemini API reports quota exhaustion inconsistently across endpoints, so all
// known spellings are matched.
var rateLimitMarkers = []string{
	"rate limit",
	"quota exceeded",
	"resource_exhausted",
	"429",
}

var authMarkers = []string{
	"api key",
	"api_key",
	"unauthenticated",
	"unauthorized",
	"permission denied",
	"401",
	"403",
}

// Classify maps a raw backend error onto the typed failure taxonomy. Errors
// that already carry a type pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	var rateErr *RateLimitError
	var netErr *TransientNetworkError
	var respErr *InvalidResponseError
	if errors.As(err, &authErr) || errors.As(err, &rateErr) || errors.As(err, &netErr) || errors.As(err, &respErr) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientNetworkError{Reason: "request timed out", Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return &RateLimitError{Reason: err.Error()}
		}
	}
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return &AuthError{Reason: err.Error()}
		}
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return &TransientNetworkError{Reason: "request failed", Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &TransientNetworkError{Reason: "connection failed", Err: err}
	}

	return &TransientNetworkError{Reason: "request failed", Err: err}
}
