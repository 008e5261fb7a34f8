package allowlist

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	vererrors "github.com/mcpvet/mcpvet/internal/errors"
)

func TestValidate_AllowedCommands(t *testing.T) {
	list := Default()

	allowed := []string{
		"node", "npx", "npm", "pnpm", "yarn", "bunx", "bun",
		"python", "python3", "uvx", "uv", "deno", "docker", "cargo", "go",
	}

	for _, cmd := range allowed {
		if err := list.Validate(cmd); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", cmd, err)
		}
	}
}

func TestValidate_RejectsUnknownCommands(t *testing.T) {
	list := Default()

	tests := []struct {
		name    string
		command string
	}{
		{"shell builtin", "rm"},
		{"arbitrary binary", "curl"},
		{"absolute path to unknown", "/usr/bin/bash"},
		{"windows path to unknown", `C:\Windows\System32\cmd.exe`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := list.Validate(tt.command)
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want error", tt.command)
			}
			if !strings.Contains(err.Error(), "not in the allowed list") {
				t.Errorf("error = %q, want mention of allowed list", err)
			}
			if !errors.Is(err, vererrors.ErrCommandNotAllowed) {
				t.Errorf("error %q not marked ErrCommandNotAllowed", err)
			}
		})
	}
}

func TestValidate_RejectionsCarrySentinel(t *testing.T) {
	list := Default()

	for _, cmd := range []string{"", "node.sh", "curl"} {
		if err := list.Validate(cmd); !errors.Is(err, vererrors.ErrCommandNotAllowed) {
			t.Errorf("Validate(%q) = %v, want ErrCommandNotAllowed mark", cmd, err)
		}
	}
}

func TestValidate_PathAndExtensionHandling(t *testing.T) {
	list := Default()

	tests := []struct {
		name    string
		command string
		wantOK  bool
	}{
		{"unix path", "/usr/local/bin/node", true},
		{"windows path", `C:\Program Files\nodejs\node.exe`, true},
		{"cmd extension", "npx.cmd", true},
		{"bat extension", "yarn.BAT", true},
		{"mixed separators", `tools\bin/python3`, true},
		{"unrecognized extension", "node.sh", false},
		{"script masquerading", "python.py", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := list.Validate(tt.command)
			if tt.wantOK && err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tt.command, err)
			}
			if !tt.wantOK && err == nil {
				t.Errorf("Validate(%q) = nil, want error", tt.command)
			}
		})
	}
}

func TestValidate_EmptyCommand(t *testing.T) {
	if err := Default().Validate("  "); err == nil {
		t.Error("Validate of blank command should fail")
	}
}

func TestNew_CaseInsensitive(t *testing.T) {
	list := New("Node")
	if err := list.Validate("NODE"); err != nil {
		t.Errorf("Validate(NODE) = %v, want nil", err)
	}
}
