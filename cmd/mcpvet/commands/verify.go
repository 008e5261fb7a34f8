package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mcpvet/mcpvet/internal/errors"
	"github.com/mcpvet/mcpvet/internal/logging"
	"github.com/mcpvet/mcpvet/internal/mcp"
)

var verifyJSON bool

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify [server...]",
	Short: "Verify connectivity of configured MCP servers",
	Long: `Verify that configured MCP servers respond to the protocol handshake.

All declared servers are checked concurrently; results are reported in
declaration order. With server names as arguments, only those servers
are checked.

Statuses:
  connected   the server answered the initialize request
  failed      the server is definitively broken (crash, refused, bad response)
  needs-auth  the server answered 401 or 403; credentials are required
  pending     no answer within the timeout; the server may still be starting

Exit codes:
  0 - no server failed
  1 - at least one server failed or needs authentication

Examples:
  # Verify every declared server
  mcpvet verify

  # Verify one server as JSON
  mcpvet verify github --json`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	declared, err := loadDeclaredServers()
	if err != nil {
		return err
	}
	servers, err := selectServers(declared, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	verifier := newVerifier(logging.FromContext(ctx))
	results := verifier.VerifyAll(ctx, servers)

	if err := outputVerify(cmd.OutOrStdout(), servers, results); err != nil {
		return err
	}

	for _, result := range results {
		if result.Status == mcp.StatusFailed || result.Status == mcp.StatusNeedsAuth {
			return errVerificationFailures
		}
	}
	return nil
}

func outputVerify(w io.Writer, servers []mcp.NamedConfig, results []mcp.VerificationResult) error {
	if verifyJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(results), "encoding JSON report")
	}
	return outputVerifyTabular(w, servers, results)
}

func outputVerifyTabular(w io.Writer, servers []mcp.NamedConfig, results []mcp.VerificationResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		bold("NAME"), bold("STATUS"), bold("ENDPOINT"), bold("DETAIL"))

	for i, result := range results {
		detail := result.Error
		if result.Status == mcp.StatusConnected && result.ServerInfo != nil {
			detail = result.ServerInfo.Name
			if result.ServerInfo.Version != "" {
				detail += " " + result.ServerInfo.Version
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			result.Name,
			statusLabel(result.Status),
			truncate(endpointOf(servers[i].Config), 50),
			truncate(detail, 60))
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing report")
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %s\n", summarize(results))
	return nil
}

// summarize counts results per status for the report footer.
func summarize(results []mcp.VerificationResult) string {
	counts := map[mcp.Status]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	return fmt.Sprintf("%d connected, %d pending, %d needs-auth, %d failed",
		counts[mcp.StatusConnected], counts[mcp.StatusPending],
		counts[mcp.StatusNeedsAuth], counts[mcp.StatusFailed])
}

// errVerificationFailures is the sentinel for the nonzero exit code.
var errVerificationFailures = errors.New("one or more servers failed verification")
