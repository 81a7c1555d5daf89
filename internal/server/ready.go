package server

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// readyPollInterval is how often the readiness poll probes the backend.
const readyPollInterval = 500 * time.Millisecond

// WaitReady polls the backend base URL until it answers an HTTP request,
// the timeout elapses, or the context is cancelled.
//
// Any HTTP response counts as ready: the poll checks that the server is
// accepting connections, not that a particular route exists. On timeout the
// deployment is reported unhealthy with the last probe error included.
//
// Parameters:
//   - ctx: Context for cancellation
//   - baseURL: The backend base URL, e.g. http://127.0.0.1:8000
//   - timeout: How long to keep probing before giving up
//
// Returns:
//   - nil once the backend answers
//   - Error if the timeout elapses or the context is cancelled first
func WaitReady(ctx context.Context, baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: readyPollInterval}
	deadline := time.Now().Add(timeout)

	var lastErr error
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			return fmt.Errorf("deployment unhealthy: not ready after %s: %w", timeout, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
}
