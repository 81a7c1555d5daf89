// Package server implements the web endpoint in front of a deployed ComfyUI
// instance.
//
// The endpoint is a transparent reverse proxy with a fixed concurrency cap:
// at most MaxConcurrent requests are in flight against the backing container
// at any moment, and further requests queue until a slot frees up. The
// package also provides the readiness poll used at deployment time and a
// pty-backed native launch mode for running ComfyUI without a container.
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/comfyops/comfydock/internal/logger"
)

// Endpoint is the HTTP front of one deployed app.
type Endpoint struct {
	target     *url.URL
	httpServer *http.Server
	slots      chan struct{}
}

// NewEndpoint creates an endpoint proxying listenAddr to target.
//
// Parameters:
//   - listenAddr: The host address to serve on, e.g. ":8000"
//   - target: The backing ComfyUI base URL, e.g. http://127.0.0.1:8000
//   - maxConcurrent: The in-flight request cap; requests beyond it queue
//
// Returns:
//   - The endpoint, ready to Start
func NewEndpoint(listenAddr string, target *url.URL, maxConcurrent int) *Endpoint {
	e := &Endpoint{
		target: target,
		slots:  make(chan struct{}, maxConcurrent),
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("Proxy request failed: %v", err)
		http.Error(w, fmt.Sprintf("Failed to forward request: %v", err), http.StatusBadGateway)
	}

	e.httpServer = &http.Server{
		Addr:    listenAddr,
		Handler: e.loggingMiddleware(e.limitMiddleware(proxy)),
		// No read or write timeouts: ComfyUI streams generation progress
		// over long-lived connections.
		IdleTimeout: 120 * time.Second,
	}
	return e
}

// Start begins serving and blocks until the endpoint is shut down.
//
// Returns:
//   - http.ErrServerClosed after graceful shutdown
//   - error if the listener fails
func (e *Endpoint) Start() error {
	logger.Info("Serving web endpoint on %s -> %s", e.httpServer.Addr, e.target)
	return e.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the endpoint, waiting for in-flight requests
// up to the context deadline.
func (e *Endpoint) Stop(ctx context.Context) error {
	logger.Info("Shutting down web endpoint...")
	return e.httpServer.Shutdown(ctx)
}

// limitMiddleware enforces the concurrency cap with a buffered-channel
// semaphore. A request past the cap waits for a slot rather than being
// rejected; it only gives up when its own context is cancelled.
func (e *Endpoint) limitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case e.slots <- struct{}{}:
			defer func() { <-e.slots }()
		case <-r.Context().Done():
			logger.Debug("Request cancelled while waiting for a slot: %s %s", r.Method, r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with its processing duration.
func (e *Endpoint) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.Info("%s %s %s", r.RemoteAddr, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		logger.Debug("Completed in %v", time.Since(start))
	})
}
