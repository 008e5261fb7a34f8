package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadServers_JSONPreservesOrder(t *testing.T) {
	path := writeTemp(t, "servers.json", `{
		"mcpServers": {
			"zeta": {"command": "npx", "args": ["-y", "zeta-server"]},
			"alpha": {"type": "http", "url": "https://example.com/mcp"},
			"mid": {"command": "uvx", "env": {"API_KEY": "x"}}
		}
	}`)

	servers, err := LoadServers(path)
	if err != nil {
		t.Fatalf("LoadServers: %v", err)
	}

	wantOrder := []string{"zeta", "alpha", "mid"}
	if len(servers) != len(wantOrder) {
		t.Fatalf("got %d servers, want %d", len(servers), len(wantOrder))
	}
	for i, name := range wantOrder {
		if servers[i].Name != name {
			t.Errorf("servers[%d] = %q, want %q (document order)", i, servers[i].Name, name)
		}
	}

	if servers[0].Config.Command != "npx" {
		t.Errorf("zeta command = %q", servers[0].Config.Command)
	}
	if !servers[1].Config.IsHTTP() {
		t.Error("alpha should be HTTP-family")
	}
	if servers[2].Config.Env["API_KEY"] != "x" {
		t.Error("mid env missing")
	}
}

func TestLoadServers_JSONGenericServersKey(t *testing.T) {
	path := writeTemp(t, "servers.json", `{"servers": {"one": {"command": "node"}}}`)

	servers, err := LoadServers(path)
	if err != nil {
		t.Fatalf("LoadServers: %v", err)
	}
	if len(servers) != 1 || servers[0].Name != "one" {
		t.Fatalf("servers = %+v", servers)
	}
}

func TestLoadServers_YAMLSorted(t *testing.T) {
	path := writeTemp(t, "servers.yaml", `
servers:
  bravo:
    command: node
  alpha:
    type: sse
    url: https://example.com/sse
`)

	servers, err := LoadServers(path)
	if err != nil {
		t.Fatalf("LoadServers: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(servers))
	}
	if servers[0].Name != "alpha" || servers[1].Name != "bravo" {
		t.Errorf("order = %s, %s; want sorted", servers[0].Name, servers[1].Name)
	}
	if servers[0].Config.Type != "sse" {
		t.Errorf("alpha type = %q", servers[0].Config.Type)
	}
}

func TestLoadServers_TOML(t *testing.T) {
	path := writeTemp(t, "servers.toml", `
[servers.github]
command = "docker"
args = ["run", "-i", "--rm", "ghcr.io/github/github-mcp-server"]

[servers.github.env]
GITHUB_TOKEN = "ghp_x"
`)

	servers, err := LoadServers(path)
	if err != nil {
		t.Fatalf("LoadServers: %v", err)
	}
	if len(servers) != 1 {
		t.Fatalf("got %d servers, want 1", len(servers))
	}
	cfg := servers[0].Config
	if cfg.Command != "docker" || len(cfg.Args) != 4 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Env["GITHUB_TOKEN"] != "ghp_x" {
		t.Error("env not parsed")
	}
}

func TestLoadServers_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "servers.ini", "[servers]")
	if _, err := LoadServers(path); err == nil {
		t.Error("unsupported extension should fail")
	}
}

func TestLoadServers_MissingFile(t *testing.T) {
	if _, err := LoadServers(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadServers_MalformedJSON(t *testing.T) {
	path := writeTemp(t, "servers.json", `{"mcpServers": [1,2]}`)
	if _, err := LoadServers(path); err == nil {
		t.Error("non-object mcpServers should fail")
	}
}
