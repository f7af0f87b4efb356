package transformer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timeoutErr implements net.Error for timeout classification tests.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want any
	}{
		{
			name: "Quota message becomes rate limit",
			err:  errors.New("googleapi: Error 429: Resource has been exhausted (e.g. check quota)."),
			want: &RateLimitError{},
		},
		{
			name: "Rate limit phrase becomes rate limit",
			err:  errors.New("rate limit exceeded for model"),
			want: &RateLimitError{},
		},
		{
			name: "Status token becomes rate limit",
			err:  errors.New("error generating content: RESOURCE_EXHAUSTED"),
			want: &RateLimitError{},
		},
		{
			name: "Invalid key becomes auth",
			err:  errors.New("API key not valid. Please pass a valid API key."),
			want: &AuthError{},
		},
		{
			name: "Permission denied becomes auth",
			err:  errors.New("permission denied on tuned model"),
			want: &AuthError{},
		},
		{
			name: "Deadline becomes transient",
			err:  fmt.Errorf("generate content: %w", context.DeadlineExceeded),
			want: &TransientNetworkError{},
		},
		{
			name: "Net timeout becomes transient",
			err:  timeoutErr{},
			want: &TransientNetworkError{},
		},
		{
			name: "Connection refused becomes transient",
			err:  &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			want: &TransientNetworkError{},
		},
		{
			name: "Unknown server failure becomes transient",
			err:  errors.New("internal server error"),
			want: &TransientNetworkError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.Error(t, got)
			switch tt.want.(type) {
			case *RateLimitError:
				var e *RateLimitError
				assert.True(t, errors.As(got, &e), "expected RateLimitError, got %T: %v", got, got)
			case *AuthError:
				var e *AuthError
				assert.True(t, errors.As(got, &e), "expected AuthError, got %T: %v", got, got)
			case *TransientNetworkError:
				var e *TransientNetworkError
				assert.True(t, errors.As(got, &e), "expected TransientNetworkError, got %T: %v", got, got)
			}
		})
	}
}

func TestClassifyPassthrough(t *testing.T) {
	t.Run("Nil stays nil", func(t *testing.T) {
		assert.NoError(t, Classify(nil))
	})

	t.Run("Typed errors pass through unchanged", func(t *testing.T) {
		orig := &InvalidResponseError{Reason: "no image data found in response"}
		assert.Same(t, orig, Classify(orig).(*InvalidResponseError))

		wrapped := fmt.Errorf("transform a.jpg: %w", &AuthError{Reason: "key revoked"})
		assert.Equal(t, wrapped, Classify(wrapped))
	})

	t.Run("Cancellation passes through", func(t *testing.T) {
		got := Classify(fmt.Errorf("generate content: %w", context.Canceled))
		assert.True(t, errors.Is(got, context.Canceled))
		var netErr *TransientNetworkError
		assert.False(t, errors.As(got, &netErr))
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&RateLimitError{Reason: "429"}))
	assert.True(t, IsRetryable(&TransientNetworkError{Reason: "request timed out"}))
	assert.True(t, IsRetryable(fmt.Errorf("task failed: %w", &RateLimitError{Reason: "quota exceeded"})))
	assert.False(t, IsRetryable(&AuthError{Reason: "key revoked"}))
	assert.False(t, IsRetryable(&InvalidResponseError{Reason: "text only"}))
	assert.False(t, IsRetryable(errors.New("plain failure")))
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, IsRateLimit(&RateLimitError{Reason: "quota exceeded"}))
	assert.False(t, IsRateLimit(&TransientNetworkError{Reason: "timeout"}))
	assert.False(t, IsRateLimit(nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&RateLimitError{Reason: "quota exceeded for requests per minute"}).Error(), "rate limit")
	assert.Contains(t, (&AuthError{Reason: "missing key"}).Error(), "authentication failed")
	assert.Contains(t, (&InvalidResponseError{Reason: "no image data"}).Error(), "invalid response")

	inner := errors.New("connection reset by peer")
	netErr := &TransientNetworkError{Reason: "request failed", Err: inner}
	assert.Contains(t, netErr.Error(), "connection reset")
	assert.True(t, errors.Is(netErr, inner))
}

func TestRegistry(t *testing.T) {
	stub := &stubTransformer{name: "stub"}
	Register("stub", func(cfg Config) (Transformer, error) {
		if cfg.APIKey == "" {
			return nil, &AuthError{Reason: "API key is not configured"}
		}
		return stub, nil
	})

	t.Run("Registered backend is listed", func(t *testing.T) {
		_, ok := Registered()["stub"]
		assert.True(t, ok)
	})

	t.Run("New builds from factory", func(t *testing.T) {
		tr, err := New("stub", Config{APIKey: "test-key", Timeout: time.Second})
		require.NoError(t, err)
		assert.Equal(t, "stub", tr.Name())
	})

	t.Run("Factory error propagates", func(t *testing.T) {
		_, err := New("stub", Config{})
		var authErr *AuthError
		assert.True(t, errors.As(err, &authErr))
	})

	t.Run("Unknown backend fails", func(t *testing.T) {
		_, err := New("nonexistent", Config{APIKey: "test-key"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown transformer backend")
	})
}

type stubTransformer struct {
	name string
}

func (s *stubTransformer) Name() string { return s.name }

func (s *stubTransformer) Transform(_ context.Context, req Request) (*Result, error) {
	return &Result{Image: req.Image, MIMEType: req.MIMEType}, nil
}
