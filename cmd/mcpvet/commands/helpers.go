package commands

import (
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/mcpvet/mcpvet/cmd"
	"github.com/mcpvet/mcpvet/internal/config"
	"github.com/mcpvet/mcpvet/internal/errors"
	"github.com/mcpvet/mcpvet/internal/mcp"
	"github.com/mcpvet/mcpvet/internal/paths"
	"github.com/mcpvet/mcpvet/internal/protocol"
	"github.com/mcpvet/mcpvet/internal/verify"
)

// loadDeclaredServers resolves the server declaration file (the -f flag
// or the first default location that exists) and parses it.
func loadDeclaredServers() ([]mcp.NamedConfig, error) {
	path := serverFile
	if path == "" {
		path = paths.FirstExisting(paths.DefaultServerFiles(config.AppName))
	}
	if path == "" {
		return nil, errors.NewUserError(
			errors.New("no server declaration file found"),
			"create a .mcp.json or pass one with --file")
	}

	servers, err := config.LoadServers(path)
	if err != nil {
		return nil, errors.NewUserError(err, "check the server file syntax")
	}
	if len(servers) == 0 {
		return nil, errors.NewUserError(
			errors.Newf("no servers declared in %s", path), "")
	}
	return servers, nil
}

// selectServers filters the declared servers down to the named ones,
// keeping declaration order. With no names, all servers are returned.
func selectServers(servers []mcp.NamedConfig, names []string) ([]mcp.NamedConfig, error) {
	if len(names) == 0 {
		return servers, nil
	}

	byName := make(map[string]mcp.NamedConfig, len(servers))
	for _, sc := range servers {
		byName[sc.Name] = sc
	}

	var missing []string
	selected := make([]mcp.NamedConfig, 0, len(names))
	for _, name := range names {
		sc, ok := byName[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		selected = append(selected, sc)
	}

	if len(missing) > 0 {
		err := errors.Wrapf(errors.ErrNotFound, "unknown server(s): %s", strings.Join(missing, ", "))
		return nil, errors.NewUserError(err, "run 'mcpvet verify' without arguments to see declared servers")
	}
	return selected, nil
}

// newVerifier builds the engine from the loaded settings.
func newVerifier(logger *slog.Logger) *verify.Verifier {
	opts := verify.Options{
		Client: protocol.ClientInfo{Name: config.AppName, Version: cmd.Version},
		Logger: logger,
	}
	if settings != nil {
		opts.HTTPVerifyTimeout = settings.HTTPVerify()
		opts.StdioVerifyTimeout = settings.StdioVerify()
		opts.VerifyTimeout = settings.Verify()
	}
	return verify.New(opts)
}

// statusLabel renders a verification status with its conventional color.
func statusLabel(s mcp.Status) string {
	switch s {
	case mcp.StatusConnected:
		return color.GreenString(string(s))
	case mcp.StatusFailed:
		return color.RedString(string(s))
	case mcp.StatusNeedsAuth:
		return color.MagentaString(string(s))
	case mcp.StatusPending:
		return color.YellowString(string(s))
	default:
		return string(s)
	}
}

// endpointOf returns what the server is reached through, for display.
func endpointOf(cfg *mcp.ServerConfig) string {
	if cfg.IsHTTP() {
		return cfg.URL
	}
	if len(cfg.Args) == 0 {
		return cfg.Command
	}
	return cfg.Command + " " + strings.Join(cfg.Args, " ")
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
