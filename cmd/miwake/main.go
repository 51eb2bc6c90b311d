// Command miwake runs the intent resolution service: HTTP API, MCP
// server, and the Qdrant-backed similarity index, all in one process.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/miwake-ai/miwake/internal/auth"
	"github.com/miwake-ai/miwake/internal/batch"
	"github.com/miwake-ai/miwake/internal/catalog"
	"github.com/miwake-ai/miwake/internal/config"
	"github.com/miwake-ai/miwake/internal/embedding"
	"github.com/miwake-ai/miwake/internal/engine"
	"github.com/miwake-ai/miwake/internal/enrich"
	"github.com/miwake-ai/miwake/internal/matcher"
	"github.com/miwake-ai/miwake/internal/mcp"
	"github.com/miwake-ai/miwake/internal/ratelimit"
	"github.com/miwake-ai/miwake/internal/search"
	"github.com/miwake-ai/miwake/internal/server"
	"github.com/miwake-ai/miwake/internal/telemetry"
	"github.com/miwake-ai/miwake/internal/tenant"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("MIWAKE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("miwake starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Create embedding provider.
	embedder, err := embedding.New(cfg.EmbeddingProvider, cfg.OllamaURL, cfg.OllamaModel, cfg.EmbeddingDimensions)
	if err != nil {
		return err
	}
	logger.Info("embedding provider ready",
		"provider", cfg.EmbeddingProvider, "dimensions", cfg.EmbeddingDimensions)

	// Connect to the Qdrant intent example index and seed the catalog.
	cat := catalog.Default()
	index, err := search.NewIndex(search.Config{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		UseTLS:     cfg.QdrantUseTLS,
		Collection: cfg.QdrantCollection,
		Dims:       uint64(cfg.EmbeddingDimensions), //nolint:gosec // validated positive in config.Validate
	}, logger)
	if err != nil {
		return fmt.Errorf("qdrant: %w", err)
	}
	defer func() { _ = index.Close() }()

	if err := index.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("qdrant ensure collection: %w", err)
	}
	if err := seedCatalog(ctx, index, embedder, cat); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	// Load tenant registry and per-tenant policy documents.
	registry, err := tenant.Load(cfg.PolicyDir, logger)
	if err != nil {
		return err
	}

	// Optional customer/order context snapshot for enrichment.
	var contexts engine.ContextProvider
	if cfg.ContextFile != "" {
		store, err := enrich.NewFileStore(cfg.ContextFile)
		if err != nil {
			return fmt.Errorf("context snapshot: %w", err)
		}
		contexts = store
		logger.Info("context enrichment: enabled", "file", cfg.ContextFile)
	} else {
		logger.Info("context enrichment: disabled (no MIWAKE_CONTEXT_FILE)")
	}

	// Create JWT manager for the token exchange.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Assemble the resolution pipeline.
	eng := engine.New(index, nil, contexts, registry, engine.Config{
		Thresholds: matcher.Thresholds{
			FastPath:      cfg.FastPathThreshold,
			AmbiguityGap:  cfg.AmbiguityGapThreshold,
			LowConfidence: cfg.LowConfidenceThreshold,
		},
		CompoundThreshold: cfg.CompoundThreshold,
		TopK:              cfg.SearchTopK,
	}, logger)

	processor := batch.New(eng, cfg.BatchMaxConcurrency, logger)

	// Create MCP server.
	mcpSrv := mcp.New(eng, index, embedder, cat, logger)

	// Create rate limiter.
	var limiter ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = ratelimit.NewMemoryLimiter()
		defer func() { _ = limiter.Close() }()
		logger.Info("rate limiting: memory (in-process token bucket)",
			"per_minute", cfg.RateLimitPerMinute, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	// Create HTTP server (MCP mounted at /mcp).
	srv := server.New(server.Config{
		JWTMgr:              jwtMgr,
		Registry:            registry,
		Resolver:            eng,
		Batch:               processor,
		Embedder:            embedder,
		Catalog:             cat,
		Logger:              logger,
		Limiter:             limiter,
		Health:              index,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		MaxBatchItems:       cfg.BatchMaxItems,
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
		RateLimitBurst:      cfg.RateLimitBurst,
	})

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	// Graceful shutdown: stop accepting new requests and drain in-flight
	// resolutions. The index connection closes after via the deferred Close.
	slog.Info("miwake shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("miwake stopped")
	return nil
}

// seedCatalog embeds every catalog example utterance and upserts them
// into the index. Point IDs are stable per example, so restarting the
// service refreshes the points rather than duplicating them.
func seedCatalog(ctx context.Context, index *search.Index, embedder embedding.Provider, cat *catalog.Catalog) error {
	examples := search.CatalogExamples(cat)
	texts := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
	}

	vecs, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed examples: %w", err)
	}
	if len(vecs) != len(examples) {
		return fmt.Errorf("embed examples: got %d vectors for %d texts", len(vecs), len(examples))
	}
	for i := range examples {
		examples[i].Embedding = vecs[i]
	}

	return index.Seed(ctx, examples)
}
