package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cockroachdb/errors"

	vererrors "github.com/mcpvet/mcpvet/internal/errors"
	"github.com/mcpvet/mcpvet/internal/mcp"
	"github.com/mcpvet/mcpvet/internal/protocol"
	"github.com/mcpvet/mcpvet/internal/transport"
)

// verifyHTTP checks an HTTP-family server with a single initialize
// exchange under the fixed verification timeout. A timeout yields
// pending (the server may simply be slow); everything else that goes
// wrong is definitive.
func (v *Verifier) verifyHTTP(ctx context.Context, logger *slog.Logger, name string, cfg *mcp.ServerConfig) mcp.VerificationResult {
	tr, err := transport.NewHTTP(cfg.URL, cfg.Headers)
	if err != nil {
		return mcp.VerificationResult{Name: name, Status: mcp.StatusFailed, Error: err.Error()}
	}

	result, err := tr.Call(ctx, protocol.NewInitializeRequest(v.client), transport.CallSpec{
		Base:    v.httpTimeout,
		Retries: httpRetries,
	})
	if err != nil {
		switch {
		case errors.Is(err, vererrors.ErrTimeout):
			return mcp.VerificationResult{Name: name, Status: mcp.StatusPending, Error: "Connection timeout"}
		case needsAuth(err):
			return mcp.VerificationResult{Name: name, Status: mcp.StatusNeedsAuth, Error: err.Error()}
		default:
			return mcp.VerificationResult{Name: name, Status: mcp.StatusFailed, Error: err.Error()}
		}
	}

	return mcp.VerificationResult{
		Name:       name,
		Status:     mcp.StatusConnected,
		ServerInfo: serverInfoFromResult(result),
	}
}

// toolsHTTP runs the discovery handshake over HTTP: initialize,
// notifications/initialized, then tools/list under the tiered
// 10s/15s/20s attempt timeouts.
func (v *Verifier) toolsHTTP(ctx context.Context, logger *slog.Logger, name string, cfg *mcp.ServerConfig) mcp.ToolsResult {
	tr, err := transport.NewHTTP(cfg.URL, cfg.Headers)
	if err != nil {
		return mcp.ToolsResult{Name: name, Error: err.Error()}
	}

	spec := transport.CallSpec{
		Base:    toolsHTTPBaseTimeout,
		Step:    toolsHTTPTimeoutStep,
		Retries: httpRetries,
	}

	if _, err := tr.Call(ctx, protocol.NewInitializeRequest(v.client), spec); err != nil {
		return mcp.ToolsResult{Name: name, Error: "initialize failed: " + err.Error()}
	}

	// Notification delivery problems are not fatal; some servers answer
	// 202 with an empty body, some not at all.
	if err := tr.Notify(ctx, protocol.NewInitializedNotification(), toolsHTTPBaseTimeout); err != nil {
		logger.Debug("initialized notification not acknowledged", "error", err)
	}

	result, err := tr.Call(ctx, protocol.NewToolsListRequest(), spec)
	if err != nil {
		return mcp.ToolsResult{Name: name, Error: "tools/list failed: " + err.Error()}
	}

	return mcp.ToolsResult{Name: name, Tools: parseTools(result)}
}

// needsAuth matches HTTP responses that indicate missing credentials.
func needsAuth(err error) bool {
	var statusErr *transport.HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusUnauthorized ||
		statusErr.StatusCode == http.StatusForbidden
}

// serverInfoFromResult extracts the serverInfo object from an
// initialize result.
func serverInfoFromResult(result json.RawMessage) *mcp.ServerInfo {
	if len(result) == 0 {
		return nil
	}
	var payload struct {
		ServerInfo *mcp.ServerInfo `json:"serverInfo"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil
	}
	return payload.ServerInfo
}
