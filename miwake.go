// Package miwake is the public API for embedding the miwake intent
// resolution server.
//
// Consumers import this package to construct and extend the server
// without forking it:
//
//	app, err := miwake.New(
//	    miwake.WithVersion(version),
//	    miwake.WithLogger(logger),
//	    miwake.WithDecomposer(myLLMDecomposer{}),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: miwake (root)
// imports internal/*, but internal/* never imports miwake (root).
// Public types (Match, Decomposition, etc.) are standalone structs with
// no internal imports; conversion adapters live here because this is the
// only file that sees both sides of the boundary.
package miwake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
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
	"github.com/miwake-ai/miwake/internal/model"
	"github.com/miwake-ai/miwake/internal/ratelimit"
	"github.com/miwake-ai/miwake/internal/search"
	"github.com/miwake-ai/miwake/internal/server"
	"github.com/miwake-ai/miwake/internal/telemetry"
	"github.com/miwake-ai/miwake/internal/tenant"
)

// App is the miwake server lifecycle. Construct with New(), run with Run().
// App has no public fields — use New() options to configure it.
type App struct {
	cfg          config.Config
	srv          *server.Server
	index        *search.Index // nil when a custom searcher replaces Qdrant
	embedder     embedding.Provider
	limiter      ratelimit.Limiter
	otelShutdown func(context.Context) error
	logger       *slog.Logger
	version      string
	seeded       bool
}

// New initialises the miwake server. It loads configuration, wires all
// subsystems, and returns a ready-to-run App. It does NOT start any
// goroutines or accept HTTP connections — call Run().
func New(opts ...Option) (*App, error) {
	// Apply options.
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.policyDir != "" {
		cfg.PolicyDir = o.policyDir
	}
	if o.contextFile != "" {
		cfg.ContextFile = o.contextFile
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	app := &App{cfg: cfg, logger: logger, version: version}

	// Initialize OpenTelemetry.
	app.otelShutdown, err = telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Embedding provider: option overrides config.
	if o.embeddingProvider != nil {
		app.embedder = embedderAdapter{o.embeddingProvider}
	} else {
		app.embedder, err = embedding.New(cfg.EmbeddingProvider, cfg.OllamaURL, cfg.OllamaModel, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, err
		}
	}

	// Searcher: custom implementation or the built-in Qdrant index.
	var searcher engine.VectorSearcher
	var health server.HealthChecker
	if o.searcher != nil {
		adapter := searcherAdapter{o.searcher}
		searcher, health = adapter, adapter
		app.seeded = true // the custom searcher owns its own data
	} else {
		app.index, err = search.NewIndex(search.Config{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			UseTLS:     cfg.QdrantUseTLS,
			Collection: cfg.QdrantCollection,
			Dims:       uint64(cfg.EmbeddingDimensions), //nolint:gosec // validated positive in config.Validate
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("qdrant: %w", err)
		}
		searcher, health = app.index, app.index
	}

	// Tenant registry and policy documents.
	registry, err := tenant.Load(cfg.PolicyDir, logger)
	if err != nil {
		return nil, err
	}

	// Optional customer/order context snapshot.
	var contexts engine.ContextProvider
	if cfg.ContextFile != "" {
		store, err := enrich.NewFileStore(cfg.ContextFile)
		if err != nil {
			return nil, fmt.Errorf("context snapshot: %w", err)
		}
		contexts = store
	}

	jwtMgr, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	var decomposer engine.Decomposer
	if o.decomposer != nil {
		decomposer = decomposerAdapter{o.decomposer}
	}

	cat := catalog.Default()
	eng := engine.New(searcher, decomposer, contexts, registry, engine.Config{
		Thresholds: matcher.Thresholds{
			FastPath:      cfg.FastPathThreshold,
			AmbiguityGap:  cfg.AmbiguityGapThreshold,
			LowConfidence: cfg.LowConfidenceThreshold,
		},
		CompoundThreshold: cfg.CompoundThreshold,
		TopK:              cfg.SearchTopK,
	}, logger)

	processor := batch.New(eng, cfg.BatchMaxConcurrency, logger)
	mcpSrv := mcp.New(eng, searcher, app.embedder, cat, logger)

	if cfg.RateLimitPerMinute > 0 {
		app.limiter = ratelimit.NewMemoryLimiter()
	} else {
		app.limiter = ratelimit.NoopLimiter{}
	}

	app.srv = server.New(server.Config{
		JWTMgr:              jwtMgr,
		Registry:            registry,
		Resolver:            eng,
		Batch:               processor,
		Embedder:            app.embedder,
		Catalog:             cat,
		Logger:              logger,
		Limiter:             app.limiter,
		Health:              health,
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

	return app, nil
}

// Run prepares the vector index, serves HTTP until ctx is cancelled or
// the server fails, then shuts everything down. It blocks for the life
// of the server.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if a.index != nil {
		if err := a.index.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("qdrant ensure collection: %w", err)
		}
	}
	if !a.seeded {
		if err := a.seedCatalog(ctx); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		a.seeded = true
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.srv.Shutdown(shutdownCtx)
}

// close releases everything New acquired. Safe to call once, after Run.
func (a *App) close() {
	if a.limiter != nil {
		_ = a.limiter.Close()
	}
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
}

// seedCatalog embeds every catalog example utterance and upserts them
// into the index.
func (a *App) seedCatalog(ctx context.Context) error {
	examples := search.CatalogExamples(catalog.Default())
	texts := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
	}

	vecs, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed examples: %w", err)
	}
	if len(vecs) != len(examples) {
		return fmt.Errorf("embed examples: got %d vectors for %d texts", len(vecs), len(examples))
	}
	for i := range examples {
		examples[i].Embedding = vecs[i]
	}

	return a.index.Seed(ctx, examples)
}

// ---------------------------------------------------------------------------
// Adapters between public extension interfaces and internal capability
// interfaces.
// ---------------------------------------------------------------------------

type embedderAdapter struct {
	p EmbeddingProvider
}

func (a embedderAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return a.p.Embed(ctx, text)
}

func (a embedderAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return a.p.EmbedBatch(ctx, texts)
}

func (a embedderAdapter) Dimensions() int {
	return a.p.Dimensions()
}

type searcherAdapter struct {
	s Searcher
}

func (a searcherAdapter) Search(ctx context.Context, embedding []float32, topK int) ([]model.IntentMatch, error) {
	matches, err := a.s.Search(ctx, embedding, topK)
	if err != nil {
		return nil, err
	}
	out := make([]model.IntentMatch, len(matches))
	for i, m := range matches {
		out[i] = model.IntentMatch{
			IntentCode:  m.IntentCode,
			Similarity:  model.Clamp01(m.Similarity),
			ExampleText: m.ExampleText,
		}
	}
	return out, nil
}

func (a searcherAdapter) Healthy(ctx context.Context) error {
	return a.s.Healthy(ctx)
}

type decomposerAdapter struct {
	d Decomposer
}

func (a decomposerAdapter) Decompose(ctx context.Context, in engine.DecomposeInput) (*engine.Decomposition, error) {
	hints := make([]Match, len(in.Hints))
	for i, h := range in.Hints {
		hints[i] = Match{IntentCode: h.IntentCode, Similarity: h.Similarity, ExampleText: h.ExampleText}
	}

	dec, err := a.d.Decompose(ctx, DecomposeInput{
		Text:            in.Text,
		Hints:           hints,
		CustomerTier:    string(in.CustomerTier),
		PreviousIntents: in.PreviousIntents,
	})
	if err != nil {
		return nil, err
	}

	intents := make([]model.ResolvedIntent, len(dec.Intents))
	for i, ir := range dec.Intents {
		intents[i] = model.NewResolvedIntent(ir.IntentCode, ir.Confidence, ir.Evidence...)
	}
	return &engine.Decomposition{
		Intents:               intents,
		IsCompound:            dec.IsCompound,
		RequiresClarification: dec.RequiresClarification,
		ClarificationQuestion: dec.ClarificationQuestion,
		Trace:                 dec.Trace,
	}, nil
}
