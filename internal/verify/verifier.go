package verify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcpvet/mcpvet/internal/allowlist"
	"github.com/mcpvet/mcpvet/internal/logging"
	"github.com/mcpvet/mcpvet/internal/mcp"
	"github.com/mcpvet/mcpvet/internal/protocol"
)

// Default timeout tiers. The verification timeouts are overridable via
// Options (fed from the MCPVET_* environment knobs); the discovery cap
// is fixed.
const (
	DefaultHTTPVerifyTimeout  = 6 * time.Second
	DefaultStdioVerifyTimeout = 30 * time.Second
	DefaultVerifyTimeout      = 8 * time.Second

	// toolsOverallTimeout caps one stdio tool-discovery handshake.
	toolsOverallTimeout = 45 * time.Second

	// toolsHTTPBaseTimeout and toolsHTTPTimeoutStep tier the per-attempt
	// timeouts for HTTP discovery requests: 10s, 15s, 20s.
	toolsHTTPBaseTimeout = 10 * time.Second
	toolsHTTPTimeoutStep = 5 * time.Second

	// httpRetries is the retry budget for retryable HTTP failures.
	httpRetries = 2
)

// Options configures a Verifier. Zero values take defaults.
type Options struct {
	// AllowList guards stdio command launches. Defaults to the standard
	// interpreter list.
	AllowList *allowlist.List

	// HTTPVerifyTimeout bounds one HTTP-family verification request.
	HTTPVerifyTimeout time.Duration

	// StdioVerifyTimeout bounds one stdio verification.
	StdioVerifyTimeout time.Duration

	// VerifyTimeout is the generic fallback bound used when a
	// transport-specific timeout is not configured.
	VerifyTimeout time.Duration

	// Client identifies this client in initialize requests.
	Client protocol.ClientInfo

	// Logger receives debug output. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Verifier verifies server connectivity and discovers tool catalogs.
// It holds no per-call state and is safe for concurrent use.
type Verifier struct {
	allow        *allowlist.List
	httpTimeout  time.Duration
	stdioTimeout time.Duration
	client       protocol.ClientInfo
	logger       *slog.Logger
}

// New creates a Verifier, applying defaults for unset options.
func New(opts Options) *Verifier {
	allow := opts.AllowList
	if allow == nil {
		allow = allowlist.Default()
	}

	// The generic timeout, when set, backfills any transport-specific
	// timeout the caller left unset.
	httpTimeout := opts.HTTPVerifyTimeout
	if httpTimeout <= 0 {
		httpTimeout = opts.VerifyTimeout
	}
	if httpTimeout <= 0 {
		httpTimeout = DefaultHTTPVerifyTimeout
	}
	stdioTimeout := opts.StdioVerifyTimeout
	if stdioTimeout <= 0 {
		stdioTimeout = opts.VerifyTimeout
	}
	if stdioTimeout <= 0 {
		stdioTimeout = DefaultStdioVerifyTimeout
	}

	client := opts.Client
	if client.Name == "" {
		client = protocol.ClientInfo{Name: "mcpvet", Version: "dev"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscard()
	}

	return &Verifier{
		allow:        allow,
		httpTimeout:  httpTimeout,
		stdioTimeout: stdioTimeout,
		client:       client,
		logger:       logger,
	}
}

// VerifyAll fans one verification out per configured server and joins
// the results. Results are returned in input order. A crash, timeout
// or malformed response from one server never delays or aborts the
// others.
func (v *Verifier) VerifyAll(ctx context.Context, servers []mcp.NamedConfig) []mcp.VerificationResult {
	runID := uuid.NewString()
	logger := v.logger.With("run", runID)
	logger.Debug("verifying servers", "count", len(servers))

	results := make([]mcp.VerificationResult, len(servers))
	var wg sync.WaitGroup
	for i, sc := range servers {
		wg.Add(1)
		go func(i int, sc mcp.NamedConfig) {
			defer wg.Done()
			results[i] = v.verifyOne(ctx, logger, sc.Name, sc.Config)
		}(i, sc)
	}
	wg.Wait()

	return results
}

// Verify checks a single server.
func (v *Verifier) Verify(ctx context.Context, name string, cfg *mcp.ServerConfig) mcp.VerificationResult {
	return v.verifyOne(ctx, v.logger.With("run", uuid.NewString()), name, cfg)
}

func (v *Verifier) verifyOne(ctx context.Context, logger *slog.Logger, name string, cfg *mcp.ServerConfig) mcp.VerificationResult {
	logger = logger.With("server", name)

	var result mcp.VerificationResult
	if cfg.IsHTTP() {
		result = v.verifyHTTP(ctx, logger, name, cfg)
	} else {
		result = v.verifyStdio(ctx, logger, name, cfg)
	}

	logger.Debug("verification finished", "status", result.Status, "error", result.Error)
	return result
}

// DiscoverTools retrieves the advertised tool catalog of one server.
func (v *Verifier) DiscoverTools(ctx context.Context, name string, cfg *mcp.ServerConfig) mcp.ToolsResult {
	logger := v.logger.With("run", uuid.NewString(), "server", name)

	var result mcp.ToolsResult
	if cfg.IsHTTP() {
		result = v.toolsHTTP(ctx, logger, name, cfg)
	} else {
		result = v.toolsStdio(ctx, logger, name, cfg)
	}

	logger.Debug("tool discovery finished", "tools", len(result.Tools), "error", result.Error)
	return result
}
