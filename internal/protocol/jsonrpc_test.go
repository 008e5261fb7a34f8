package protocol

import (
	"encoding/json"
	"testing"
)

func TestNewInitializeRequest(t *testing.T) {
	req := NewInitializeRequest(ClientInfo{Name: "mcpvet", Version: "0.1.0"})

	data, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded["jsonrpc"] != "2.0" {
		t.Errorf("jsonrpc = %v, want 2.0", decoded["jsonrpc"])
	}
	if decoded["id"] != float64(1) {
		t.Errorf("id = %v, want 1", decoded["id"])
	}
	if decoded["method"] != "initialize" {
		t.Errorf("method = %v, want initialize", decoded["method"])
	}

	params := decoded["params"].(map[string]any)
	if params["protocolVersion"] != Version {
		t.Errorf("protocolVersion = %v, want %v", params["protocolVersion"], Version)
	}
	if _, ok := params["capabilities"]; !ok {
		t.Error("params should carry a capabilities object")
	}
	client := params["clientInfo"].(map[string]any)
	if client["name"] != "mcpvet" {
		t.Errorf("clientInfo.name = %v, want mcpvet", client["name"])
	}
}

func TestNewInitializedNotification_HasNoID(t *testing.T) {
	data, err := NewInitializedNotification().Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded["id"]; ok {
		t.Error("notification must not carry an id")
	}
	if decoded["method"] != "notifications/initialized" {
		t.Errorf("method = %v", decoded["method"])
	}
}

func TestNewToolsListRequest(t *testing.T) {
	data, err := NewToolsListRequest().Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["id"] != float64(2) {
		t.Errorf("id = %v, want 2", decoded["id"])
	}
	if decoded["method"] != "tools/list" {
		t.Errorf("method = %v, want tools/list", decoded["method"])
	}
}

func TestResponse_IDEquals(t *testing.T) {
	tests := []struct {
		name string
		body string
		id   int64
		want bool
	}{
		{"numeric match", `{"jsonrpc":"2.0","id":1,"result":{}}`, 1, true},
		{"numeric mismatch", `{"jsonrpc":"2.0","id":2,"result":{}}`, 1, false},
		{"string id", `{"jsonrpc":"2.0","id":"2","result":{}}`, 2, true},
		{"missing id", `{"jsonrpc":"2.0","result":{}}`, 1, false},
		{"null id", `{"jsonrpc":"2.0","id":null,"result":{}}`, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseResponse: %v", err)
			}
			if got := resp.IDEquals(tt.id); got != tt.want {
				t.Errorf("IDEquals(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestParseResponse_Errors(t *testing.T) {
	if _, err := ParseResponse([]byte("  ")); err == nil {
		t.Error("empty input should fail")
	}
	if _, err := ParseResponse([]byte("starting server...")); err == nil {
		t.Error("non-JSON input should fail")
	}
}

func TestParseResponse_ErrorField(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32600,"message":"invalid session"}}`))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("Error field should be decoded")
	}
	if resp.Error.Code != -32600 {
		t.Errorf("Code = %d, want -32600", resp.Error.Code)
	}
	if resp.Error.Error() != "invalid session" {
		t.Errorf("message = %q", resp.Error.Error())
	}
}
