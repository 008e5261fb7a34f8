// Package verify drives the MCP handshake against declared servers
// and aggregates the outcomes.
//
// Each server gets its own handshake instance over its own transport;
// instances run concurrently and share nothing but the read-only
// configuration list. A handshake is an explicit state machine
// advanced by discrete events (line received, response received, timer
// fired, process exited), and finalization is single-winner: exactly
// one event decides the result, later events are no-ops.
//
// Verification distinguishes pending (no definitive answer, caller may
// re-poll) from failed (definitive rejection). Tool discovery has no
// pending state; it is success-or-error.
package verify
