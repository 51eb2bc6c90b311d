package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/singleflight"

	"github.com/miwake-ai/miwake/internal/model"
)

// Config holds the connection settings for the intent example index.
type Config struct {
	Host       string
	Port       int // gRPC port, 6334 by default
	APIKey     string
	UseTLS     bool
	Collection string
	Dims       uint64
}

// Index is the Qdrant-backed intent example index. It implements the
// engine's VectorSearcher capability.
type Index struct {
	client     *qdrant.Client
	collection string
	dims       uint64
	logger     *slog.Logger

	healthGroup singleflight.Group
	healthErr   atomic.Value // stores *error (pointer-to-error, never nil pointer; inner error may be nil)
	healthAt    atomic.Int64 // unix nanos of last check
}

// NewIndex connects to the Qdrant server via gRPC. The connection is
// lazy; a bad address surfaces on the first RPC, not here.
func NewIndex(cfg Config, logger *slog.Logger) (*Index, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("search: qdrant host is required")
	}
	port := cfg.Port
	if port <= 0 {
		port = 6334
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("search: connect to qdrant at %s:%d: %w", cfg.Host, port, err)
	}

	return &Index{
		client:     client,
		collection: cfg.Collection,
		dims:       cfg.Dims,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection if it doesn't already exist and
// ensures the intent_code payload index is present. CreateFieldIndex is
// idempotent on Qdrant, so it is always attempted.
func (x *Index) EnsureCollection(ctx context.Context) error {
	exists, err := x.client.CollectionExists(ctx, x.collection)
	if err != nil {
		return fmt.Errorf("search: check collection exists: %w", err)
	}

	if !exists {
		m := uint64(16)
		efConstruct := uint64(128)

		if err := x.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: x.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     x.dims,
				Distance: qdrant.Distance_Cosine,
				HnswConfig: &qdrant.HnswConfigDiff{
					M:           &m,
					EfConstruct: &efConstruct,
				},
			}),
		}); err != nil {
			return fmt.Errorf("search: create collection %q: %w", x.collection, err)
		}
		x.logger.Info("qdrant: created collection", "collection", x.collection, "dims", x.dims)
	} else {
		x.logger.Info("qdrant: collection already exists", "collection", x.collection)
	}

	keywordType := qdrant.FieldType_FieldTypeKeyword
	if _, err := x.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: x.collection,
		FieldName:      "intent_code",
		FieldType:      &keywordType,
	}); err != nil {
		return fmt.Errorf("search: ensure index on %q: %w", "intent_code", err)
	}

	return nil
}

// Seed upserts example utterances into the index. Point IDs are stable
// per (intent code, text), so reseeding is idempotent.
func (x *Index) Seed(ctx context.Context, examples []Example) error {
	if len(examples) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(examples))
	for i, ex := range examples {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(ex.ID.String()),
			Vectors: qdrant.NewVectorsDense(ex.Embedding),
			Payload: qdrant.NewValueMap(map[string]any{
				"intent_code":  ex.IntentCode,
				"example_text": ex.Text,
			}),
		}
	}

	_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("search: qdrant seed %d examples: %w", len(examples), err)
	}
	x.logger.Info("qdrant: seeded examples", "collection", x.collection, "count", len(examples))
	return nil
}

// Search returns the topK closest example utterances for the embedding,
// ordered descending by similarity. Qdrant's ordering is stable for equal
// scores, which the matcher's tie-break rules rely on.
func (x *Index) Search(ctx context.Context, embedding []float32, topK int) ([]model.IntentMatch, error) {
	if topK <= 0 {
		topK = 5
	}

	limit := uint64(topK) //nolint:gosec
	scored, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.collection,
		Query:          qdrant.NewQueryDense(embedding),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search: qdrant query: %w", err)
	}

	matches := make([]model.IntentMatch, 0, len(scored))
	for _, sp := range scored {
		code := sp.Payload["intent_code"].GetStringValue()
		if code == "" {
			x.logger.Warn("qdrant: point missing intent_code payload", "id", sp.Id.GetUuid())
			continue
		}
		matches = append(matches, model.IntentMatch{
			IntentCode:  code,
			Similarity:  clampScore(sp.Score),
			ExampleText: sp.Payload["example_text"].GetStringValue(),
		})
	}

	return matches, nil
}

// Count returns the number of points in the collection. Used to decide
// whether the catalog needs seeding at startup.
func (x *Index) Count(ctx context.Context) (uint64, error) {
	n, err := x.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: x.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("search: qdrant count: %w", err)
	}
	return n, nil
}

// Healthy returns nil if Qdrant is reachable. Results are cached for 5
// seconds; concurrent calls after cache expiry are deduplicated via
// singleflight so only one gRPC call is made and all waiters share its
// result.
func (x *Index) Healthy(ctx context.Context) error {
	// Fast path: return the cached result if fresh.
	if time.Since(time.Unix(0, x.healthAt.Load())) < 5*time.Second {
		return x.loadHealthErr()
	}

	// Deduplicate concurrent checks. Use context.Background() instead of
	// the caller's ctx because singleflight reuses the first caller's
	// context; if that caller cancels, all waiters would get a stale error.
	result, _, _ := x.healthGroup.Do("health", func() (any, error) {
		checkCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, err := x.client.HealthCheck(checkCtx)
		if err != nil {
			x.storeHealthErr(fmt.Errorf("search: qdrant unhealthy: %w", err))
		} else {
			x.storeHealthErr(nil)
		}
		x.healthAt.Store(time.Now().UnixNano())
		return x.loadHealthErr(), nil
	})
	if result == nil {
		return nil
	}
	return result.(error)
}

// storeHealthErr stores an error (or nil) in the atomic.Value.
// atomic.Value cannot store nil directly, so we wrap it in a pointer.
func (x *Index) storeHealthErr(err error) {
	x.healthErr.Store(&err)
}

// loadHealthErr loads the cached health error.
func (x *Index) loadHealthErr() error {
	v := x.healthErr.Load()
	if v == nil {
		return nil
	}
	return *v.(*error)
}

// Close shuts down the Qdrant gRPC connection.
func (x *Index) Close() error {
	return x.client.Close()
}
