// Package mcp defines the data model shared by the verification engine:
// server configurations as declared by the caller, and the terminal
// result types produced by verification and tool discovery.
//
// Configs are owned by the caller and treated as immutable. Results are
// produced exactly once per call and carry a status or error field
// instead of raising; no error crosses the engine boundary as a panic
// or returned error from the orchestration entry points.
package mcp
