// Package httpserver exposes the Awaaz HTTP surface: the /ws relay
// endpoint, the client-facing JSON APIs, health probes, Prometheus metrics,
// and static asset serving for the browser client.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/awaaz-ai/awaaz/internal/config"
	"github.com/awaaz-ai/awaaz/internal/health"
	"github.com/awaaz-ai/awaaz/internal/observe"
	"github.com/awaaz-ai/awaaz/internal/relay"
	"github.com/awaaz-ai/awaaz/internal/resilience"
	"github.com/awaaz-ai/awaaz/pkg/gate"
	"github.com/awaaz-ai/awaaz/pkg/provider/s2s"
)

const (
	readHeaderTimeout = 10 * time.Second

	// configTimeout bounds how long a freshly accepted WebSocket client has
	// to send its session config message.
	configTimeout = 10 * time.Second
)

// Deps holds the dependencies of a [Server].
type Deps struct {
	Cfg      *config.Config
	Provider s2s.Provider
	Gate     *gate.Gate
	Registry *relay.Registry
	Metrics  *observe.Metrics
	Health   *health.Handler
	Log      *slog.Logger
}

// Server is the Awaaz HTTP server. Create with [New], run with [Server.Run].
type Server struct {
	cfg      *config.Config
	provider s2s.Provider
	gate     *gate.Gate
	registry *relay.Registry
	met      *observe.Metrics
	health   *health.Handler
	log      *slog.Logger
	breaker  *resilience.CircuitBreaker

	handler http.Handler
	srv     *http.Server
}

// New builds a Server with all routes registered.
func New(deps Deps) *Server {
	s := &Server{
		cfg:      deps.Cfg,
		provider: deps.Provider,
		gate:     deps.Gate,
		registry: deps.Registry,
		met:      deps.Metrics,
		health:   deps.Health,
		log:      deps.Log,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.met == nil {
		s.met = observe.DefaultMetrics()
	}
	if s.registry == nil {
		s.registry = relay.NewRegistry()
	}
	if s.health == nil {
		s.health = health.New()
	}
	s.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name: "ai-service-connect",
	})
	s.handler = s.routes()
	return s
}

// Handler returns the server's root handler, for mounting in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// given timeout. A nil error means the server stopped cleanly.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	s.srv = &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listener, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("httpserver: listen on %q: %w", s.cfg.Server.ListenAddr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		tls := s.cfg.Server.TLS
		s.log.Info("http server listening",
			"addr", listener.Addr().String(),
			"tls", tls != nil,
		)
		if tls != nil {
			errCh <- s.srv.ServeTLS(listener, tls.CertFile, tls.KeyFile)
		} else {
			errCh <- s.srv.Serve(listener)
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpserver: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpserver: shutdown: %w", err)
	}
	return nil
}
