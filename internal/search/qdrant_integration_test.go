package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miwake-ai/miwake/internal/testutil"
)

// newTestIndex creates an Index pointed at a local address with no server
// running. gRPC connects lazily, so construction succeeds; actual RPCs
// fail. Sufficient for testing early-return paths, error handling, and
// caching logic.
func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(Config{
		Host:       "localhost",
		Port:       16334, // Non-standard port, no server running.
		Collection: "test_examples",
		Dims:       4,
	}, testutil.TestLogger())
	require.NoError(t, err, "NewIndex should succeed (gRPC is lazy-connect)")
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestNewIndexRequiresHost(t *testing.T) {
	_, err := NewIndex(Config{Collection: "test"}, testutil.TestLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "host is required")
}

func TestSeedEmptyIsNoop(t *testing.T) {
	idx := newTestIndex(t)

	// Seed with no examples should return nil immediately without calling Qdrant.
	assert.NoError(t, idx.Seed(context.Background(), nil))
	assert.NoError(t, idx.Seed(context.Background(), []Example{}))
}

func TestSearchFailsWithoutServer(t *testing.T) {
	idx := newTestIndex(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	matches, err := idx.Search(ctx, []float32{1, 0, 0, 0}, 5)

	require.Error(t, err, "search should fail without a running Qdrant server")
	assert.Contains(t, err.Error(), "qdrant query")
	assert.Nil(t, matches)
}

func TestSeedFailsWithoutServer(t *testing.T) {
	idx := newTestIndex(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := idx.Seed(ctx, []Example{{
		ID:         ExampleID("ORDER_STATUS.WISMO", "Where is my order?"),
		IntentCode: "ORDER_STATUS.WISMO",
		Text:       "Where is my order?",
		Embedding:  []float32{1, 0, 0, 0},
	}})

	require.Error(t, err, "seed should fail without a running Qdrant server")
	assert.Contains(t, err.Error(), "qdrant seed 1 examples")
}

func TestEnsureCollectionFailsWithoutServer(t *testing.T) {
	idx := newTestIndex(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := idx.EnsureCollection(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check collection exists")
}

func TestHealthErrStoreAndLoad(t *testing.T) {
	idx := newTestIndex(t)

	// Initially, loadHealthErr should return nil.
	assert.Nil(t, idx.loadHealthErr())

	idx.storeHealthErr(fmt.Errorf("connection refused"))
	loaded := idx.loadHealthErr()
	require.Error(t, loaded)
	assert.Equal(t, "connection refused", loaded.Error())

	// Store nil (healthy).
	idx.storeHealthErr(nil)
	assert.Nil(t, idx.loadHealthErr())
}

func TestHealthyUsesFreshCache(t *testing.T) {
	idx := newTestIndex(t)

	// A fresh cached result is returned without a gRPC call; the call
	// would fail since no server is running.
	idx.storeHealthErr(nil)
	idx.healthAt.Store(time.Now().UnixNano())
	assert.Nil(t, idx.Healthy(context.Background()))

	cachedErr := fmt.Errorf("search: qdrant unhealthy: previous failure")
	idx.storeHealthErr(cachedErr)
	idx.healthAt.Store(time.Now().UnixNano())

	err := idx.Healthy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "previous failure")
}

func TestHealthyExpiredCacheChecksServer(t *testing.T) {
	idx := newTestIndex(t)

	idx.storeHealthErr(nil)
	idx.healthAt.Store(time.Now().Add(-10 * time.Second).UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := idx.Healthy(ctx)
	require.Error(t, err, "expired cache should trigger a real health check which fails")
	assert.Contains(t, err.Error(), "qdrant unhealthy")
}

func TestHealthyConcurrent(t *testing.T) {
	idx := newTestIndex(t)

	// Force real health checks; singleflight should deduplicate them.
	idx.healthAt.Store(time.Now().Add(-10 * time.Second).UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := make(chan error, 10)
	for range 10 {
		go func() {
			errs <- idx.Healthy(ctx)
		}()
	}

	for range 10 {
		err := <-errs
		require.Error(t, err)
		assert.Contains(t, err.Error(), "qdrant unhealthy")
	}
}

func TestIndexRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	qc, err := testutil.StartQdrant(ctx)
	require.NoError(t, err)
	t.Cleanup(qc.Terminate)

	idx, err := NewIndex(Config{
		Host:       qc.Host,
		Port:       qc.GRPCPort,
		Collection: "intent_examples_test",
		Dims:       4,
	}, testutil.TestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	require.NoError(t, idx.EnsureCollection(ctx))

	examples := []Example{
		{ID: ExampleID("ORDER_STATUS.WISMO", "Where is my order?"), IntentCode: "ORDER_STATUS.WISMO", Text: "Where is my order?", Embedding: []float32{1, 0, 0, 0}},
		{ID: ExampleID("RETURN_EXCHANGE.RETURN_INITIATE", "I want to return this"), IntentCode: "RETURN_EXCHANGE.RETURN_INITIATE", Text: "I want to return this", Embedding: []float32{0, 1, 0, 0}},
		{ID: ExampleID("ORDER_MODIFY.CANCEL_ORDER", "Cancel my order"), IntentCode: "ORDER_MODIFY.CANCEL_ORDER", Text: "Cancel my order", Embedding: []float32{0, 0, 1, 0}},
	}
	require.NoError(t, idx.Seed(ctx, examples))

	// Reseeding must not duplicate points.
	require.NoError(t, idx.Seed(ctx, examples))
	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	matches, err := idx.Search(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "ORDER_STATUS.WISMO", matches[0].IntentCode)
	assert.Equal(t, "Where is my order?", matches[0].ExampleText)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-3)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i].Similarity, matches[i-1].Similarity)
	}

	assert.NoError(t, idx.Healthy(ctx))
}
