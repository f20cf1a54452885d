// ABOUTME: HTTP server exposing the inventory store as a JSON API with SSE change events
// ABOUTME: Owns listener setup, route registration and graceful shutdown

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/store-inventory/internal/auth"
	"github.com/2389/store-inventory/internal/dedupe"
	"github.com/2389/store-inventory/internal/inventory"
	"github.com/2389/store-inventory/internal/mcp"
)

// Config holds the server settings.
type Config struct {
	Addr string
	// Verifier guards mutating routes. Nil disables auth.
	Verifier        auth.TokenVerifier
	IdempotencyTTL  time.Duration
	IdempotencySize int
	// Version is reported to MCP clients.
	Version string
}

// Server serves the inventory HTTP API.
type Server struct {
	inventory   *inventory.Store
	config      Config
	idempotency *dedupe.Cache
	markdown    goldmark.Markdown
	tools       *mcp.Server
	httpServer  *http.Server
	logger      *slog.Logger

	// done is closed on shutdown so event streams end
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a Server over inv. Pass nil logger for default.
func New(inv *inventory.Store, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 10 * time.Minute
	}
	if cfg.IdempotencySize <= 0 {
		cfg.IdempotencySize = 1000
	}

	s := &Server{
		inventory:   inv,
		config:      cfg,
		idempotency: dedupe.New(cfg.IdempotencyTTL, cfg.IdempotencySize),
		markdown:    goldmark.New(),
		logger:      logger.With("component", "api"),
		done:        make(chan struct{}),
	}

	tools, err := mcp.NewServer(mcp.Config{
		Inventory: inv,
		Logger:    logger,
		Verifier:  cfg.Verifier,
		Version:   cfg.Version,
	})
	if err != nil {
		s.logger.Warn("MCP endpoint disabled", "error", err)
	} else {
		s.tools = tools
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoint - no auth required
	mux.HandleFunc("/health", s.handleHealth)

	// Reads are open; writes need a token if a verifier is configured
	items := s.withWriteAuth(http.HandlerFunc(s.handleItems))
	mux.Handle("/api/items", items)
	mux.Handle("/api/items/", items)
	mux.HandleFunc("/api/events", s.handleEvents)

	// MCP tools gate writes per session
	if s.tools != nil {
		s.tools.RegisterRoutes(mux)
	}

	return mux
}

// withWriteAuth applies token auth to every method except GET and HEAD.
func (s *Server) withWriteAuth(next http.Handler) http.Handler {
	protected := auth.RequireToken(s.config.Verifier, s.logger)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	})
}

// Run listens on the configured address and blocks until ctx is canceled
// or the server fails. Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	// Uses context.Background() since the original context is already canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// Shutdown ends event streams, stops the HTTP server and releases the
// idempotency cache. The inventory store is left to its owner.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	s.doneOnce.Do(func() { close(s.done) })
	defer s.idempotency.Close()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
