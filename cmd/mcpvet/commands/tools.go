package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/mcpvet/mcpvet/internal/errors"
	"github.com/mcpvet/mcpvet/internal/logging"
	"github.com/mcpvet/mcpvet/internal/mcp"
	"github.com/mcpvet/mcpvet/internal/redact"
)

var (
	toolsJSON        bool
	toolsShowSecrets bool
)

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "Output in JSON format")
	toolsCmd.Flags().BoolVar(&toolsShowSecrets, "show-secrets", false,
		"Reveal masked secrets in env values")
	rootCmd.AddCommand(toolsCmd)
}

var toolsCmd = &cobra.Command{
	Use:   "tools [server]",
	Short: "List the tools an MCP server advertises",
	Long: `Run the full protocol handshake against one server and print the
tool catalog it advertises.

Without a server name, a fuzzy picker opens when multiple servers are
declared and stdin is a terminal.

Environment variables containing secrets (TOKEN, KEY, SECRET, PASSWORD,
AUTH, CREDENTIAL, API_KEY) are masked by default. Use --show-secrets to
reveal them.

Examples:
  # Pick a server interactively
  mcpvet tools

  # List tools for one server as JSON
  mcpvet tools github --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTools,
}

func runTools(cmd *cobra.Command, args []string) error {
	declared, err := loadDeclaredServers()
	if err != nil {
		return err
	}

	server, err := pickServer(declared, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	verifier := newVerifier(logging.FromContext(ctx))
	result := verifier.DiscoverTools(ctx, server.Name, server.Config)

	if err := outputTools(cmd.OutOrStdout(), server, result); err != nil {
		return err
	}
	if result.Error != "" {
		return errors.Newf("tool discovery failed for %s", server.Name)
	}
	return nil
}

// pickServer resolves which server to query: the named one, the only
// one declared, or an interactive choice.
func pickServer(servers []mcp.NamedConfig, args []string) (mcp.NamedConfig, error) {
	if len(args) == 1 {
		selected, err := selectServers(servers, args)
		if err != nil {
			return mcp.NamedConfig{}, err
		}
		return selected[0], nil
	}

	if len(servers) == 1 {
		return servers[0], nil
	}

	if !logging.IsTTY(os.Stdin) {
		return mcp.NamedConfig{}, errors.NewUserError(
			errors.New("multiple servers declared"),
			"name one: mcpvet tools <server>")
	}

	idx, err := fuzzyfinder.Find(
		servers,
		func(i int) string {
			return fmt.Sprintf("%s (%s)", servers[i].Name, transportOf(servers[i].Config))
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			sc := servers[i]
			return fmt.Sprintf("Name: %s\nTransport: %s\nEndpoint: %s",
				sc.Name, transportOf(sc.Config), endpointOf(sc.Config))
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return mcp.NamedConfig{}, errors.NewUserError(err, "no server selected")
		}
		return mcp.NamedConfig{}, errors.Wrap(err, "interactive selection failed")
	}
	return servers[idx], nil
}

func outputTools(w io.Writer, server mcp.NamedConfig, result mcp.ToolsResult) error {
	if toolsJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(result), "encoding JSON report")
	}
	return outputToolsText(w, server, result)
}

func outputToolsText(w io.Writer, server mcp.NamedConfig, result mcp.ToolsResult) error {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", bold("Server:"), server.Name)
	fmt.Fprintf(w, "%s %s\n", bold("Endpoint:"), endpointOf(server.Config))

	if len(server.Config.Env) > 0 {
		env := server.Config.Env
		if !toolsShowSecrets {
			env = redact.MaskSecrets(env)
		}
		keys := make([]string, 0, len(env))
		for k := range env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "%s\n", bold("Env:"))
		for _, k := range keys {
			fmt.Fprintf(w, "  %s=%s\n", k, env[k])
		}
	}
	fmt.Fprintln(w)

	if result.Error != "" {
		fmt.Fprintf(w, "%s %s\n", color.RedString("discovery failed:"), result.Error)
		return nil
	}

	if len(result.Tools) == 0 {
		fmt.Fprintln(w, "No tools advertised")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", bold("TOOL"), bold("DESCRIPTION"))
	for _, tool := range result.Tools {
		fmt.Fprintf(tw, "%s\t%s\n",
			color.GreenString(tool.Name), truncate(tool.Description, 70))
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing report")
	}

	fmt.Fprintf(w, "\n%d tool(s)\n", len(result.Tools))
	return nil
}

// transportOf names the transport a config selects, for display.
func transportOf(cfg *mcp.ServerConfig) string {
	if cfg.Type != "" {
		return cfg.Type
	}
	return "stdio"
}
