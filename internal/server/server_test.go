package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miwake-ai/miwake/internal/auth"
	"github.com/miwake-ai/miwake/internal/batch"
	"github.com/miwake-ai/miwake/internal/catalog"
	"github.com/miwake-ai/miwake/internal/embedding"
	"github.com/miwake-ai/miwake/internal/model"
	"github.com/miwake-ai/miwake/internal/server"
	"github.com/miwake-ai/miwake/internal/tenant"
	"github.com/miwake-ai/miwake/internal/testutil"
)

// stubResolver returns a canned fast-path result, or panics when the
// text asks for it.
type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, req model.Request) (*model.Result, error) {
	if req.Text == "panic please" {
		panic("synthetic handler panic")
	}
	return &model.Result{
		RequestID: req.RequestID,
		PathTaken: model.PathFastPath,
	}, nil
}

type stubHealth struct{ err error }

func (s stubHealth) Healthy(context.Context) error { return s.err }

// newTestServer builds a server with one tenant ("acme-retail", API key
// "secret-key") and a stub pipeline.
func newTestServer(t *testing.T, health server.HealthChecker) *server.Server {
	t.Helper()

	dir := t.TempDir()
	hash, err := auth.HashAPIKey("secret-key")
	require.NoError(t, err)
	records, err := json.Marshal([]tenant.Tenant{
		{ID: "acme-retail", Name: "Acme Retail", APIKeyHash: hash, KeyID: "key-1", Active: true},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tenants.json"), records, 0600))

	registry, err := tenant.Load(dir, testutil.TestLogger())
	require.NoError(t, err)

	jwtMgr, err := auth.NewJWTManager("server-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	resolver := stubResolver{}
	return server.New(server.Config{
		JWTMgr:              jwtMgr,
		Registry:            registry,
		Resolver:            resolver,
		Batch:               batch.New(resolver, 4, testutil.TestLogger()),
		Embedder:            embedding.NewNoopProvider(8),
		Catalog:             catalog.Default(),
		Logger:              testutil.TestLogger(),
		Health:              health,
		Port:                0,
		Version:             "test",
		MaxRequestBodyBytes: 1 << 20,
		MaxBatchItems:       10,
		RateLimitPerMinute:  600,
		RateLimitBurst:      100,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// obtainToken runs the token exchange and returns the access token.
func obtainToken(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/auth/token", "", model.AuthTokenRequest{
		TenantID: "acme-retail",
		APIKey:   "secret-key",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data model.AuthTokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.AccessToken)
	assert.Equal(t, "Bearer", resp.Data.TokenType)
	return resp.Data.AccessToken
}

func TestHealthNoAuth(t *testing.T) {
	srv := newTestServer(t, stubHealth{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthDegraded(t *testing.T) {
	srv := newTestServer(t, stubHealth{err: fmt.Errorf("qdrant unreachable")})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestAuthTokenExchange(t *testing.T) {
	srv := newTestServer(t, nil)
	obtainToken(t, srv.Handler())
}

func TestAuthTokenBadCredentials(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/auth/token", "", model.AuthTokenRequest{
		TenantID: "acme-retail",
		APIKey:   "wrong",
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuthTokenMissingFields(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/auth/token", "", model.AuthTokenRequest{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveRequiresAuth(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/resolve", "", model.ResolveRequest{Text: "hi"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResolveRejectsMalformedToken(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/resolve", "not-a-jwt", model.ResolveRequest{Text: "hi"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestResolve(t *testing.T) {
	srv := newTestServer(t, nil)
	token := obtainToken(t, srv.Handler())

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/resolve", token, model.ResolveRequest{
		Text:         "where is my order 123456",
		CustomerTier: "vip",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data model.Result `json:"data"`
		Meta model.ResponseMeta
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.PathFastPath, resp.Data.PathTaken)
	assert.NotEmpty(t, resp.Data.RequestID)
	assert.NotEmpty(t, resp.Meta.RequestID)
}

func TestResolveEmptyText(t *testing.T) {
	srv := newTestServer(t, nil)
	token := obtainToken(t, srv.Handler())

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/resolve", token, model.ResolveRequest{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "text is required")
}

func TestResolveUnknownField(t *testing.T) {
	srv := newTestServer(t, nil)
	token := obtainToken(t, srv.Handler())

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/resolve", token,
		map[string]any{"text": "hi", "bogus_field": true})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestResolvePanicRecovered(t *testing.T) {
	srv := newTestServer(t, nil)
	token := obtainToken(t, srv.Handler())

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/resolve", token, model.ResolveRequest{
		Text: "panic please",
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestResolveBatch(t *testing.T) {
	srv := newTestServer(t, nil)
	token := obtainToken(t, srv.Handler())

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/resolve/batch", token, model.BatchResolveRequest{
		Items: []model.ResolveRequest{
			{Text: "where is my order"},
			{Text: "cancel my order"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Items []batch.Item `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 2)
	for _, item := range resp.Data.Items {
		assert.NotNil(t, item.Result)
		assert.Empty(t, item.Error)
	}
}

func TestResolveBatchTooLarge(t *testing.T) {
	srv := newTestServer(t, nil)
	token := obtainToken(t, srv.Handler())

	items := make([]model.ResolveRequest, 11)
	for i := range items {
		items[i] = model.ResolveRequest{Text: "hello"}
	}
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/resolve/batch", token,
		model.BatchResolveRequest{Items: items})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many items")
}

func TestResolveBatchEmptyItemText(t *testing.T) {
	srv := newTestServer(t, nil)
	token := obtainToken(t, srv.Handler())

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/resolve/batch", token, model.BatchResolveRequest{
		Items: []model.ResolveRequest{{Text: "ok"}, {}},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "item 1: text is required")
}

func TestCatalog(t *testing.T) {
	srv := newTestServer(t, nil)
	token := obtainToken(t, srv.Handler())

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/v1/catalog", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Intents []catalog.Intent `json:"intents"`
			Count   int              `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, len(resp.Data.Intents), resp.Data.Count)
	assert.NotEmpty(t, resp.Data.Intents)
}

func TestOpenAPISpecNoAuth(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/openapi.yaml", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "/v1/resolve")
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", "", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
