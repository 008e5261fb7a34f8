// Package protocol contains the transport-agnostic wire pieces of the
// MCP handshake: JSON-RPC 2.0 message shapes and request constructors,
// newline framing for stdio streams, a Server-Sent-Events decoder, and
// a bounded scanner for pulling JSON objects out of log lines.
//
// Nothing in this package performs I/O. The stdio and HTTP transports
// both build on it.
package protocol
