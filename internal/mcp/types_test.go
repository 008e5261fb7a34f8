package mcp

import (
	"encoding/json"
	"testing"
)

func TestIsHTTP(t *testing.T) {
	tests := []struct {
		typ  string
		want bool
	}{
		{"", false},
		{"stdio", false},
		{"http", true},
		{"sse", true},
		{"streamable-http", true},
		{"HTTP", false},
		{"websocket", false},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Type: tt.typ}
		if got := cfg.IsHTTP(); got != tt.want {
			t.Errorf("IsHTTP() with type %q = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestVerificationResult_JSONShape(t *testing.T) {
	result := VerificationResult{
		Name:       "github",
		Status:     StatusConnected,
		ServerInfo: &ServerInfo{Name: "github-mcp", Version: "1.0"},
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["status"] != "connected" {
		t.Errorf("status = %v", m["status"])
	}
	if _, present := m["error"]; present {
		t.Error("empty error should be omitted")
	}
	if _, present := m["serverInfo"]; !present {
		t.Error("serverInfo missing")
	}
}

func TestTool_InputSchemaPassthrough(t *testing.T) {
	raw := []byte(`{"name":"search","inputSchema":{"type":"object","properties":{"q":{"type":"string"}}}}`)

	var tool Tool
	if err := json.Unmarshal(raw, &tool); err != nil {
		t.Fatal(err)
	}

	// The schema is carried opaquely, not interpreted.
	out, err := json.Marshal(tool)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Tool
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}
	if string(decoded.InputSchema) != string(tool.InputSchema) {
		t.Errorf("schema altered: %s vs %s", decoded.InputSchema, tool.InputSchema)
	}
}
