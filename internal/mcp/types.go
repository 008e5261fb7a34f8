package mcp

import "encoding/json"

// Transport type constants for MCP server communication.
const (
	// TransportStdio indicates local process communication via stdin/stdout.
	// This is the default transport when Type is empty.
	TransportStdio = "stdio"

	// TransportHTTP indicates remote communication via HTTP POST.
	TransportHTTP = "http"

	// TransportSSE indicates remote communication via Server-Sent Events.
	TransportSSE = "sse"

	// TransportStreamableHTTP indicates the streamable HTTP transport
	// introduced in newer MCP revisions. Handled identically to http.
	TransportStreamableHTTP = "streamable-http"
)

// ServerConfig describes a single declared MCP server. It is read-only
// input: the engine never mutates a config it is handed.
type ServerConfig struct {
	// Type selects the transport: "stdio", "http", "sse" or
	// "streamable-http". Empty or unrecognized values fall back to stdio.
	Type string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`

	// Command is the executable for stdio servers.
	Command string `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`

	// Args are command-line arguments passed to Command.
	Args []string `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`

	// Env contains environment variables merged over the process
	// environment when launching a stdio server.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"`

	// URL is the endpoint for HTTP-family servers.
	URL string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`

	// Headers contains extra HTTP headers sent on every request to an
	// HTTP-family server.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
}

// IsHTTP reports whether this config uses an HTTP-family transport.
// Anything that is not explicitly http, sse or streamable-http is
// treated as stdio.
func (c *ServerConfig) IsHTTP() bool {
	switch c.Type {
	case TransportHTTP, TransportSSE, TransportStreamableHTTP:
		return true
	}
	return false
}

// NamedConfig pairs a server name with its configuration. The engine
// consumes an ordered list of these; it never reads configuration files
// itself.
type NamedConfig struct {
	Name   string
	Config *ServerConfig
}

// Status is the outcome classification of one verification.
type Status string

const (
	// StatusPending means no definitive answer yet: the server may be
	// slow to start. Callers may re-poll pending servers.
	StatusPending Status = "pending"

	// StatusConnected means the server responded with recognizable
	// JSON-RPC output.
	StatusConnected Status = "connected"

	// StatusFailed means a definitive rejection: spawn failure, protocol
	// error, disallowed command, or nonzero exit.
	StatusFailed Status = "failed"

	// StatusNeedsAuth means the server rejected the request for lack of
	// credentials (HTTP 401/403).
	StatusNeedsAuth Status = "needs-auth"
)

// ServerInfo identifies a server as reported in its initialize response.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// VerificationResult is the terminal outcome of verifying one server.
type VerificationResult struct {
	Name       string      `json:"name"`
	Status     Status      `json:"status"`
	ServerInfo *ServerInfo `json:"serverInfo,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Tool describes one entry of a server's advertised tool catalog.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ToolsResult is the terminal outcome of one tool-discovery call.
// Unlike verification there is no pending state: discovery either
// yields a catalog or an error.
type ToolsResult struct {
	Name  string `json:"name"`
	Tools []Tool `json:"tools"`
	Error string `json:"error,omitempty"`
}
