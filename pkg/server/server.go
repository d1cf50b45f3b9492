// Copyright (c) 2025, the kubechat authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/kubechat/kubechat/pkg/auth"
	"github.com/kubechat/kubechat/pkg/command"
)

// Assistant is the chat brain the server fronts. ChatStream reports whether
// the answer went out through emit; when it did not, the returned reply
// carries the full response.
type Assistant interface {
	Chat(ctx context.Context, sessionID, message, cluster string) (command.Reply, error)
	ChatStream(ctx context.Context, sessionID, message, cluster string, emit func(chunk string) error) (command.Reply, bool, error)
	Confirm(ctx context.Context, sessionID, confirmation string) (command.Reply, error)
	Regenerate(ctx context.Context, sessionID, originalQuery, cluster string) (command.Reply, error)
}

// ClusterLister lists the configured cluster names.
type ClusterLister interface {
	List() []string
}

// Server represents the HTTP server
type Server struct {
	config      *Config
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	assistant   Assistant
	tokens      *auth.Manager
	clusters    ClusterLister

	mu    sync.RWMutex
	ready bool
}

// NewServer creates a new server instance
func NewServer(config *Config, assistant Assistant, tokens *auth.Manager, clusters ClusterLister) *Server {
	if config == nil {
		config = NewConfig()
	}

	s := &Server{
		config:      config,
		rateLimiter: rate.NewLimiter(config.RateLimit, config.RateLimitBurst),
		assistant:   assistant,
		tokens:      tokens,
		clusters:    clusters,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Address, config.Port),
		Handler:      s.setupRoutes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Default handler
	mux.HandleFunc("/", s.handleDefault)

	// System endpoints (no rate limiting)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	// Login is rate limited but unauthenticated: it is how a token is obtained.
	mux.HandleFunc("/v1/login", s.withMiddleware(s.handleLogin))

	// Chat endpoints require a valid token.
	mux.HandleFunc("/v1/chat", s.withAuth(s.handleChat))
	mux.HandleFunc("/v1/confirm", s.withAuth(s.handleConfirm))
	mux.HandleFunc("/v1/regenerate", s.withAuth(s.handleRegenerate))
	mux.HandleFunc("/v1/clusters", s.withAuth(s.handleClusters))

	return mux
}

// SetReady marks the server as ready to serve traffic
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Handler exposes the configured routes, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.SetReady(true)

	slog.Info("starting http server", "addr", s.httpServer.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down http server")
	return s.httpServer.Shutdown(shutdownCtx)
}
