// Package transport provides the two ways of reaching an MCP server:
// a supervised child process speaking newline-delimited JSON-RPC over
// its standard streams, and an HTTP client speaking JSON-RPC over POST
// with optional SSE-encoded responses and session tracking.
//
// Each transport instance belongs to exactly one verification or
// discovery call. Instances are not safe for concurrent use and are
// never shared across servers.
package transport
