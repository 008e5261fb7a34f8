package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Version is the MCP protocol revision this engine speaks.
const Version = "2024-11-05"

// Request ids used by the handshake. Ids are strictly increasing per
// handshake instance, starting at 1.
const (
	InitializeID = 1
	ToolsListID  = 2
)

// MCP method names exercised by the engine.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodToolsList   = "tools/list"
)

// Request is an outgoing JSON-RPC 2.0 request or notification.
// Notifications carry no ID.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Response is an incoming JSON-RPC 2.0 response. ID is kept raw
// because servers have been observed to reply with both numbers and
// strings.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IDEquals reports whether the response id matches the given numeric
// id, tolerating servers that echo ids back as strings.
func (r *Response) IDEquals(id int64) bool {
	if len(r.ID) == 0 {
		return false
	}
	var n int64
	if err := json.Unmarshal(r.ID, &n); err == nil {
		return n == id
	}
	var s string
	if err := json.Unmarshal(r.ID, &s); err == nil {
		var sn int64
		if err := json.Unmarshal([]byte(s), &sn); err == nil {
			return sn == id
		}
	}
	return false
}

// ParseResponse decodes one JSON-RPC response from raw bytes.
func ParseResponse(data []byte) (*Response, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty message")
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "decoding JSON-RPC message")
	}
	return &resp, nil
}

// ClientInfo identifies this client in the initialize request.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// initializeParams is the params payload of the initialize request.
type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
}

// NewInitializeRequest builds the initialize request (id=1).
func NewInitializeRequest(client ClientInfo) *Request {
	id := int64(InitializeID)
	return &Request{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  MethodInitialize,
		Params: initializeParams{
			ProtocolVersion: Version,
			Capabilities:    map[string]any{},
			ClientInfo:      client,
		},
	}
}

// NewInitializedNotification builds the notifications/initialized
// notification. No response is expected.
func NewInitializedNotification() *Request {
	return &Request{
		JSONRPC: "2.0",
		Method:  MethodInitialized,
	}
}

// NewToolsListRequest builds the tools/list request (id=2).
func NewToolsListRequest() *Request {
	id := int64(ToolsListID)
	return &Request{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  MethodToolsList,
		Params:  map[string]any{},
	}
}

// Encode marshals the request for the wire. Stdio framing (the
// trailing newline) is the transport's concern, not this function's.
func (r *Request) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "encoding JSON-RPC request")
	}
	return data, nil
}
