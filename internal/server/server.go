package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/miwake-ai/miwake/api"
	"github.com/miwake-ai/miwake/internal/auth"
	"github.com/miwake-ai/miwake/internal/batch"
	"github.com/miwake-ai/miwake/internal/catalog"
	"github.com/miwake-ai/miwake/internal/embedding"
	"github.com/miwake-ai/miwake/internal/ratelimit"
	"github.com/miwake-ai/miwake/internal/tenant"
)

// Server is the resolution HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Config holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): Limiter, Health, MCPServer.
type Config struct {
	// Required dependencies.
	JWTMgr   *auth.JWTManager
	Registry *tenant.Registry
	Resolver batch.Resolver
	Batch    *batch.Processor
	Embedder embedding.Provider
	Catalog  *catalog.Catalog
	Logger   *slog.Logger

	// Optional dependencies (nil = disabled).
	Limiter   ratelimit.Limiter
	Health    HealthChecker
	MCPServer *mcpserver.MCPServer

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64
	MaxBatchItems       int

	// Default per-tenant rate limit; tenant records can override.
	RateLimitPerMinute int
	RateLimitBurst     int
}

// authLimit is the fixed budget for the unauthenticated token exchange,
// keyed by client IP.
var authLimit = ratelimit.PerMinute(20, 5)

// New creates a new HTTP server with all routes configured.
func New(cfg Config) *Server {
	h := NewHandlers(HandlersDeps{
		JWTMgr:              cfg.JWTMgr,
		Registry:            cfg.Registry,
		Resolver:            cfg.Resolver,
		Batch:               cfg.Batch,
		Embedder:            cfg.Embedder,
		Catalog:             cfg.Catalog,
		Health:              cfg.Health,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		MaxBatchItems:       cfg.MaxBatchItems,
	})

	// Per-tenant rate limit, with registry overrides.
	tenantLimits := func(r *http.Request) (string, ratelimit.Limit) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			return "", ratelimit.Limit{}
		}
		perMinute, burst := cfg.RateLimitPerMinute, cfg.RateLimitBurst
		if rec, ok := cfg.Registry.Lookup(claims.TenantID); ok {
			perMinute = rec.RateLimit(perMinute)
			burst = rec.Burst(burst)
		}
		return "tenant:" + claims.TenantID, ratelimit.PerMinute(perMinute, burst)
	}
	ipLimits := func(r *http.Request) (string, ratelimit.Limit) {
		return "ip:" + ratelimit.IPKeyFunc(r), authLimit
	}

	tenantRL := ratelimit.Middleware(cfg.Limiter, tenantLimits, cfg.Logger)
	authRL := ratelimit.Middleware(cfg.Limiter, ipLimits, cfg.Logger)

	mux := http.NewServeMux()

	// Token exchange (no auth required, rate limited by IP).
	mux.Handle("POST /auth/token", authRL(http.HandlerFunc(h.HandleAuthToken)))

	// Resolution endpoints (JWT required, rate limited per tenant).
	mux.Handle("POST /v1/resolve", tenantRL(http.HandlerFunc(h.HandleResolve)))
	mux.Handle("POST /v1/resolve/batch", tenantRL(http.HandlerFunc(h.HandleResolveBatch)))

	// Catalog (JWT required, rate limited per tenant).
	mux.Handle("GET /v1/catalog", tenantRL(http.HandlerFunc(h.HandleCatalog)))

	// MCP StreamableHTTP transport (JWT required).
	if cfg.MCPServer != nil {
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(cfg.MCPServer))
	}

	// Health and API spec (no auth, no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPISpec)
	})

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
