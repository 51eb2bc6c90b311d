// Package tenant holds the tenant registry: API-key credentials and
// per-tenant policy documents loaded from a configuration directory.
//
// Layout of the directory:
//
//	tenants.json       - array of tenant records (credentials, overrides)
//	<tenant_id>.json   - policy document for one tenant
//
// Policy documents are validated at load time and a malformed document
// fails startup; a named tenant never silently gets defaults. Tenants
// without a document of their own fall back to the built-in "default"
// policy.
package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/miwake-ai/miwake/internal/auth"
	"github.com/miwake-ai/miwake/internal/policy"
)

// registryFile is the per-directory credentials file, skipped when
// scanning for policy documents.
const registryFile = "tenants.json"

// ErrInvalidCredentials is returned for unknown tenants, inactive tenants,
// and wrong API keys alike, so the response does not reveal which it was.
var ErrInvalidCredentials = errors.New("tenant: invalid credentials")

// Tenant is one tenant's credential record.
type Tenant struct {
	ID         string `json:"tenant_id"`
	Name       string `json:"name"`
	APIKeyHash string `json:"api_key_hash"` // Argon2id, from auth.HashAPIKey.
	KeyID      string `json:"key_id,omitempty"`

	// Rate limit overrides; zero means use the server defaults.
	RateLimitPerMinute int `json:"rate_limit_per_minute,omitempty"`
	RateLimitBurst     int `json:"rate_limit_burst,omitempty"`

	Active bool `json:"active"`
}

// RateLimit returns the tenant's per-minute limit, or def when no
// override is configured.
func (t Tenant) RateLimit(def int) int {
	if t.RateLimitPerMinute > 0 {
		return t.RateLimitPerMinute
	}
	return def
}

// Burst returns the tenant's burst size, or def when no override is
// configured.
func (t Tenant) Burst(def int) int {
	if t.RateLimitBurst > 0 {
		return t.RateLimitBurst
	}
	return def
}

// Registry is the loaded tenant set. Immutable after Load; safe for
// concurrent use.
type Registry struct {
	tenants    map[string]Tenant
	policies   map[string]*policy.Document
	defaultDoc *policy.Document
	logger     *slog.Logger
}

// Load reads the tenant directory. An empty dir configures no tenants;
// every lookup then falls back to the default policy and Authenticate
// always fails.
func Load(dir string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		tenants:    make(map[string]Tenant),
		policies:   make(map[string]*policy.Document),
		defaultDoc: policy.DefaultDocument(),
		logger:     logger,
	}
	if dir == "" {
		logger.Warn("tenant: no policy directory configured, all tenants use the default policy")
		return r, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tenant: read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(dir, name)
		if name == registryFile {
			if err := r.loadTenants(path); err != nil {
				return nil, err
			}
			continue
		}
		if err := r.loadPolicy(path, strings.TrimSuffix(name, ".json")); err != nil {
			return nil, err
		}
	}

	logger.Info("tenant: registry loaded",
		"tenants", len(r.tenants),
		"policies", len(r.policies),
	)
	return r, nil
}

func (r *Registry) loadTenants(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from validated config, not user input
	if err != nil {
		return fmt.Errorf("tenant: read %s: %w", path, err)
	}
	var records []Tenant
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("tenant: parse %s: %w", path, err)
	}
	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("tenant: %s: record with empty tenant_id", path)
		}
		if rec.APIKeyHash == "" {
			return fmt.Errorf("tenant: %s: tenant %q has no api_key_hash", path, rec.ID)
		}
		if _, dup := r.tenants[rec.ID]; dup {
			return fmt.Errorf("tenant: %s: duplicate tenant %q", path, rec.ID)
		}
		r.tenants[rec.ID] = rec
	}
	return nil
}

func (r *Registry) loadPolicy(path, wantID string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from validated config, not user input
	if err != nil {
		return fmt.Errorf("tenant: read %s: %w", path, err)
	}
	var doc policy.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("tenant: parse %s: %w", path, err)
	}
	if doc.TenantID != wantID {
		return fmt.Errorf("tenant: %s: document tenant_id %q does not match filename", path, doc.TenantID)
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("tenant: %s: %w", path, err)
	}
	r.policies[doc.TenantID] = &doc
	return nil
}

// Document returns the policy for a tenant, falling back to the default
// document for unknown tenants. Implements the engine's policy provider.
func (r *Registry) Document(tenantID string) (*policy.Document, error) {
	if doc, ok := r.policies[tenantID]; ok {
		return doc, nil
	}
	return r.defaultDoc, nil
}

// Lookup returns a tenant record by ID.
func (r *Registry) Lookup(tenantID string) (Tenant, bool) {
	t, ok := r.tenants[tenantID]
	return t, ok
}

// Authenticate verifies an API key for a tenant. Unknown tenants and
// inactive tenants burn the same Argon2id cost as a real verification so
// timing does not reveal which tenants exist.
func (r *Registry) Authenticate(tenantID, apiKey string) (Tenant, error) {
	rec, ok := r.tenants[tenantID]
	if !ok || !rec.Active {
		auth.DummyVerify()
		return Tenant{}, ErrInvalidCredentials
	}
	valid, err := auth.VerifyAPIKey(apiKey, rec.APIKeyHash)
	if err != nil {
		r.logger.Error("tenant: api key hash is malformed", "tenant_id", tenantID, "error", err)
		return Tenant{}, ErrInvalidCredentials
	}
	if !valid {
		return Tenant{}, ErrInvalidCredentials
	}
	return rec, nil
}
