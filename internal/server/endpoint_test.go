package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// concurrencyProbe is a backend that records the highest number of requests
// it ever handled at once.
type concurrencyProbe struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	total    atomic.Int64
}

func (p *concurrencyProbe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.inFlight++
		if p.inFlight > p.peak {
			p.peak = p.inFlight
		}
		p.mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()

		p.total.Add(1)
		fmt.Fprint(w, "ok")
	})
}

func TestEndpointCapsConcurrency(t *testing.T) {
	probe := &concurrencyProbe{}
	backend := httptest.NewServer(probe.handler())
	t.Cleanup(backend.Close)

	target, err := url.Parse(backend.URL)
	require.NoError(t, err)

	const maxConcurrent = 10
	endpoint := NewEndpoint(":0", target, maxConcurrent)
	front := httptest.NewServer(endpoint.httpServer.Handler)
	t.Cleanup(front.Close)

	const requests = 40
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(front.URL + "/prompt")
			if assert.NoError(t, err) {
				resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	// Every request eventually goes through; none are rejected, they queue.
	assert.Equal(t, int64(requests), probe.total.Load())
	assert.LessOrEqual(t, probe.peak, maxConcurrent,
		"backend must never see more than %d concurrent requests", maxConcurrent)
	assert.Greater(t, probe.peak, 1, "requests under the cap run concurrently")
}

func TestEndpointProxiesErrors(t *testing.T) {
	// Target that refuses connections: a server that is already closed.
	backend := httptest.NewServer(http.NotFoundHandler())
	targetURL := backend.URL
	backend.Close()

	target, err := url.Parse(targetURL)
	require.NoError(t, err)

	endpoint := NewEndpoint(":0", target, 2)
	front := httptest.NewServer(endpoint.httpServer.Handler)
	t.Cleanup(front.Close)

	resp, err := http.Get(front.URL + "/prompt")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestWaitReady(t *testing.T) {
	t.Run("ready backend", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(backend.Close)

		assert.NoError(t, WaitReady(context.Background(), backend.URL, time.Second))
	})

	t.Run("any response counts as ready", func(t *testing.T) {
		backend := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(backend.Close)

		assert.NoError(t, WaitReady(context.Background(), backend.URL, time.Second))
	})

	t.Run("unreachable backend times out", func(t *testing.T) {
		backend := httptest.NewServer(http.NotFoundHandler())
		deadURL := backend.URL
		backend.Close()

		err := WaitReady(context.Background(), deadURL, 100*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unhealthy")
	})

	t.Run("cancelled context", func(t *testing.T) {
		backend := httptest.NewServer(http.NotFoundHandler())
		deadURL := backend.URL
		backend.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := WaitReady(ctx, deadURL, time.Minute)
		assert.Error(t, err)
	})
}
