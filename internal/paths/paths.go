// Package paths resolves the filesystem locations mcpvet reads from.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// ConfigHome returns the base directory for user configuration files,
// following the XDG base directory specification.
func ConfigHome() string {
	return xdg.ConfigHome
}

// DefaultServerFiles lists the server declaration files probed, in
// order, when the user does not name one explicitly: the project-local
// .mcp.json first, then the user-level servers file.
func DefaultServerFiles(appName string) []string {
	return []string{
		".mcp.json",
		filepath.Join(ConfigHome(), appName, "servers.json"),
		filepath.Join(ConfigHome(), appName, "servers.yaml"),
		filepath.Join(ConfigHome(), appName, "servers.toml"),
	}
}

// FirstExisting returns the first path in candidates that exists, or
// an empty string when none does.
func FirstExisting(candidates []string) string {
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
