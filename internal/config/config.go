// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Qdrant settings for the intent vector index.
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	QdrantAPIKey     string
	QdrantUseTLS     bool

	// Embedding provider settings.
	EmbeddingProvider   string // "ollama" or "noop"
	EmbeddingDimensions int    // Vector dimensions; must match the chosen model's output.
	OllamaURL           string
	OllamaModel         string

	// Pipeline thresholds.
	FastPathThreshold      float64
	AmbiguityGapThreshold  float64
	LowConfidenceThreshold float64
	CompoundThreshold      float64
	SearchTopK             int

	// Tenant settings.
	PolicyDir string // Directory holding per-tenant policy JSON documents.

	// Context enrichment; empty disables enrichment.
	ContextFile string // Path to a static customer/order context snapshot.

	// JWT settings.
	JWTSecret     string // HS256 signing secret for the token exchange.
	JWTExpiration time.Duration

	// Rate limiting.
	RateLimitPerMinute int
	RateLimitBurst     int

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64 // Maximum request body size in bytes.
	BatchMaxConcurrency int   // Parallelism cap for batch resolution.
	BatchMaxItems       int   // Maximum messages accepted in one batch call.
}

// Load reads configuration from environment variables with sensible
// defaults. Malformed values are collected and reported together rather
// than silently replaced.
func Load() (Config, error) {
	var errs []error
	geti := func(key string, def int) int {
		v, err := envInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	getf := func(key string, def float64) float64 {
		v, err := envFloat(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	getb := func(key string, def bool) bool {
		v, err := envBool(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	getd := func(key string, def time.Duration) time.Duration {
		v, err := envDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := Config{
		Port:                   geti("MIWAKE_PORT", 8080),
		ReadTimeout:            getd("MIWAKE_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:           getd("MIWAKE_WRITE_TIMEOUT", 30*time.Second),
		QdrantHost:             envStr("QDRANT_HOST", "localhost"),
		QdrantPort:             geti("QDRANT_PORT", 6334),
		QdrantCollection:       envStr("MIWAKE_QDRANT_COLLECTION", "intent_examples"),
		QdrantAPIKey:           envStr("QDRANT_API_KEY", ""),
		QdrantUseTLS:           getb("QDRANT_USE_TLS", false),
		EmbeddingProvider:      envStr("MIWAKE_EMBEDDING_PROVIDER", "ollama"),
		EmbeddingDimensions:    geti("MIWAKE_EMBEDDING_DIMENSIONS", 1024),
		OllamaURL:              envStr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:            envStr("OLLAMA_MODEL", "mxbai-embed-large"),
		FastPathThreshold:      getf("MIWAKE_FAST_PATH_THRESHOLD", 0.85),
		AmbiguityGapThreshold:  getf("MIWAKE_AMBIGUITY_GAP_THRESHOLD", 0.10),
		LowConfidenceThreshold: getf("MIWAKE_LOW_CONFIDENCE_THRESHOLD", 0.60),
		CompoundThreshold:      getf("MIWAKE_COMPOUND_THRESHOLD", 0.60),
		SearchTopK:             geti("MIWAKE_SEARCH_TOP_K", 5),
		PolicyDir:              envStr("MIWAKE_POLICY_DIR", ""),
		ContextFile:            envStr("MIWAKE_CONTEXT_FILE", ""),
		JWTSecret:              envStr("MIWAKE_JWT_SECRET", ""),
		JWTExpiration:          getd("MIWAKE_JWT_EXPIRATION", 1*time.Hour),
		RateLimitPerMinute:     geti("MIWAKE_RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:         geti("MIWAKE_RATE_LIMIT_BURST", 20),
		OTELEndpoint:           envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:           getb("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:            envStr("OTEL_SERVICE_NAME", "miwake"),
		LogLevel:               envStr("MIWAKE_LOG_LEVEL", "info"),
		MaxRequestBodyBytes:    int64(geti("MIWAKE_MAX_REQUEST_BODY_BYTES", 1*1024*1024)), // 1 MB default
		BatchMaxConcurrency:    geti("MIWAKE_BATCH_MAX_CONCURRENCY", 8),
		BatchMaxItems:          geti("MIWAKE_BATCH_MAX_ITEMS", 100),
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and that every
// threshold is in range.
func (c Config) Validate() error {
	if c.QdrantHost == "" {
		return fmt.Errorf("config: QDRANT_HOST is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("config: MIWAKE_EMBEDDING_DIMENSIONS must be positive")
	}
	thresholds := []struct {
		name  string
		value float64
	}{
		{"MIWAKE_FAST_PATH_THRESHOLD", c.FastPathThreshold},
		{"MIWAKE_AMBIGUITY_GAP_THRESHOLD", c.AmbiguityGapThreshold},
		{"MIWAKE_LOW_CONFIDENCE_THRESHOLD", c.LowConfidenceThreshold},
		{"MIWAKE_COMPOUND_THRESHOLD", c.CompoundThreshold},
	}
	for _, th := range thresholds {
		if th.value <= 0 || th.value > 1 {
			return fmt.Errorf("config: %s must be in (0, 1]", th.name)
		}
	}
	if c.SearchTopK <= 0 {
		return fmt.Errorf("config: MIWAKE_SEARCH_TOP_K must be positive")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: MIWAKE_MAX_REQUEST_BODY_BYTES must be positive")
	}
	if c.BatchMaxConcurrency <= 0 {
		return fmt.Errorf("config: MIWAKE_BATCH_MAX_CONCURRENCY must be positive")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid number", key, v)
	}
	return f, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
