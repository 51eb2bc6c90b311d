package miwake

import "log/slog"

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	port              int
	logger            *slog.Logger
	version           string
	policyDir         string
	contextFile       string
	embeddingProvider EmbeddingProvider
	searcher          Searcher
	decomposer        Decomposer
}

// WithPort overrides the TCP port from config (MIWAKE_PORT env var).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithLogger sets the logger. Defaults to a JSON slog handler on stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported by /health.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithPolicyDir overrides the tenant registry directory from config
// (MIWAKE_POLICY_DIR env var).
func WithPolicyDir(dir string) Option {
	return func(o *resolvedOptions) { o.policyDir = dir }
}

// WithContextFile overrides the customer/order context snapshot path
// from config (MIWAKE_CONTEXT_FILE env var).
func WithContextFile(path string) Option {
	return func(o *resolvedOptions) { o.contextFile = path }
}

// WithEmbeddingProvider replaces the configured embedding provider.
func WithEmbeddingProvider(p EmbeddingProvider) Option {
	return func(o *resolvedOptions) { o.embeddingProvider = p }
}

// WithSearcher replaces the built-in Qdrant index. The app skips
// collection setup and catalog seeding when a custom searcher is set.
func WithSearcher(s Searcher) Option {
	return func(o *resolvedOptions) { o.searcher = s }
}

// WithDecomposer plugs an LLM-backed decomposer into the reasoning path.
func WithDecomposer(d Decomposer) Option {
	return func(o *resolvedOptions) { o.decomposer = d }
}
