package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/miwake-ai/miwake/internal/auth"
	"github.com/miwake-ai/miwake/internal/batch"
	"github.com/miwake-ai/miwake/internal/catalog"
	"github.com/miwake-ai/miwake/internal/embedding"
	"github.com/miwake-ai/miwake/internal/model"
	"github.com/miwake-ai/miwake/internal/tenant"
)

// HealthChecker reports backend availability; the Qdrant index
// implements it.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	jwtMgr              *auth.JWTManager
	registry            *tenant.Registry
	resolver            batch.Resolver
	batch               *batch.Processor
	embedder            embedding.Provider
	catalog             *catalog.Catalog
	health              HealthChecker
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
	maxBatchItems       int
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): Health.
type HandlersDeps struct {
	JWTMgr              *auth.JWTManager
	Registry            *tenant.Registry
	Resolver            batch.Resolver
	Batch               *batch.Processor
	Embedder            embedding.Provider
	Catalog             *catalog.Catalog
	Health              HealthChecker
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	MaxBatchItems       int
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		jwtMgr:              d.JWTMgr,
		registry:            d.Registry,
		resolver:            d.Resolver,
		batch:               d.Batch,
		embedder:            d.Embedder,
		catalog:             d.Catalog,
		health:              d.Health,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		maxBatchItems:       d.MaxBatchItems,
	}
}

// HandleAuthToken handles POST /auth/token: exchanges a tenant API key
// for a short-lived JWT.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.TenantID == "" || req.APIKey == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "tenant_id and api_key are required")
		return
	}

	rec, err := h.registry.Authenticate(req.TenantID, req.APIKey)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(rec.ID, rec.KeyID)
	if err != nil {
		h.logger.Error("auth token issue failed", "tenant_id", rec.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to issue token")
		return
	}

	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}

// HandleResolve handles POST /v1/resolve: classifies one message.
func (h *Handlers) HandleResolve(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "no claims in context")
		return
	}

	var body model.ResolveRequest
	if err := decodeJSON(w, r, &body, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if body.Text == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "text is required")
		return
	}

	req, err := h.buildRequest(r.Context(), claims.TenantID, body)
	if err != nil {
		h.logger.Error("embedding failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeInternalError, "embedding unavailable")
		return
	}

	result, err := h.resolver.Resolve(r.Context(), req)
	if err != nil {
		h.logger.Error("resolution failed", "request_id", req.RequestID, "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "resolution failed")
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// HandleResolveBatch handles POST /v1/resolve/batch.
func (h *Handlers) HandleResolveBatch(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "no claims in context")
		return
	}

	var body model.BatchResolveRequest
	if err := decodeJSON(w, r, &body, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if len(body.Items) == 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "items is required")
		return
	}
	if h.maxBatchItems > 0 && len(body.Items) > h.maxBatchItems {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "too many items in batch")
		return
	}
	for i, item := range body.Items {
		if item.Text == "" {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput,
				"item "+strconv.Itoa(i)+": text is required")
			return
		}
	}

	reqs := make([]model.Request, len(body.Items))
	for i, item := range body.Items {
		req, err := h.buildRequest(r.Context(), claims.TenantID, item)
		if err != nil {
			h.logger.Error("embedding failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
			writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeInternalError, "embedding unavailable")
			return
		}
		reqs[i] = req
	}

	items := h.batch.Process(r.Context(), reqs)
	writeJSON(w, r, http.StatusOK, map[string]any{"items": items})
}

// buildRequest embeds the text and assembles the pipeline request.
func (h *Handlers) buildRequest(ctx context.Context, tenantID string, body model.ResolveRequest) (model.Request, error) {
	vec, err := h.embedder.Embed(ctx, body.Text)
	if err != nil {
		return model.Request{}, err
	}
	return model.Request{
		RequestID:       uuid.New().String(),
		TenantID:        tenantID,
		Channel:         body.Channel,
		Text:            body.Text,
		Embedding:       vec,
		CustomerEmail:   body.CustomerEmail,
		CustomerTier:    model.NormalizeTier(body.CustomerTier),
		OrderIDs:        body.OrderIDs,
		PreviousIntents: body.PreviousIntents,
	}, nil
}

// HandleCatalog handles GET /v1/catalog: lists the intent taxonomy.
func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"intents": h.catalog.All(),
		"count":   h.catalog.Len(),
	})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	components := map[string]string{}

	if h.health != nil {
		if err := h.health.Healthy(r.Context()); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			components["qdrant"] = err.Error()
		} else {
			components["qdrant"] = "ok"
		}
	}

	writeJSON(w, r, httpStatus, map[string]any{
		"status":         status,
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"components":     components,
	})
}
