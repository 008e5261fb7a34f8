package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultServerFiles(t *testing.T) {
	files := DefaultServerFiles("mcpvet")
	if len(files) == 0 {
		t.Fatal("no candidate files")
	}
	if files[0] != ".mcp.json" {
		t.Errorf("first candidate = %q, want project-local .mcp.json", files[0])
	}
}

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "servers.json")
	if err := os.WriteFile(present, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	got := FirstExisting([]string{
		filepath.Join(dir, "missing.json"),
		present,
	})
	if got != present {
		t.Errorf("FirstExisting = %q, want %q", got, present)
	}

	if got := FirstExisting([]string{filepath.Join(dir, "nope")}); got != "" {
		t.Errorf("FirstExisting = %q, want empty", got)
	}
}
