package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const (
	maxRetries = 3
	baseDelay  = 250 * time.Millisecond
	maxDelay   = 4 * time.Second
)

// shouldRetry retries on network errors, 5xx responses, and rate limits.
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil || resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

//nolint:bodyclose // [*http.Response] here is a generic type parameter, not a leaked response
func newRetryExecutor() failsafe.Executor[*http.Response] {
	policy := retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(baseDelay, maxDelay).
		WithMaxRetries(maxRetries).
		WithJitterFactor(0.1).
		HandleIf(shouldRetry).
		Build()
	return failsafe.With(policy)
}

// doWithRetry executes an HTTP request with exponential backoff. The request
// factory is re-invoked per attempt so request bodies are re-readable.
// Responses that trigger a retry have their bodies closed here; when retries
// are exhausted the executor returns a non-nil error and callers must not
// touch the response. Non-retryable error statuses (4xx) are returned as-is
// for the caller to inspect.
func doWithRetry(ctx context.Context, client *http.Client, makeReq func() (*http.Request, error)) (*http.Response, error) {
	resp, err := newRetryExecutor().WithContext(ctx).Get(func() (*http.Response, error) {
		req, reqErr := makeReq()
		if reqErr != nil {
			return nil, reqErr
		}
		resp, doErr := client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if shouldRetry(resp, nil) {
			_ = resp.Body.Close()
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
