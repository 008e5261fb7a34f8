// Package commands implements the CLI commands for mcpvet.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcpvet/mcpvet/cmd"
	"github.com/mcpvet/mcpvet/internal/config"
	"github.com/mcpvet/mcpvet/internal/errors"
	"github.com/mcpvet/mcpvet/internal/logging"
)

// serverFile holds the value of the -f/--file flag.
var serverFile string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// configFile holds the value of the --config flag.
var configFile string

// settings holds the loaded configuration.
var settings *config.Settings

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&serverFile, "file", "f", "",
		"server declaration file (default: .mcp.json, then user config)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./config.yaml, then user config)")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("mcpvet version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	// Capture load errors for later reporting
	settings, configLoadErr = config.Load(configFile)
}

var rootCmd = &cobra.Command{
	Use:   "mcpvet",
	Short: "Verify MCP server connectivity and discover tools",
	Long: `mcpvet checks that the MCP servers you have configured actually
respond. It speaks the Model Context Protocol handshake over both
transports: stdio servers are spawned as child processes (guarded by a
command allow-list) and HTTP-family servers are probed with JSON-RPC
over POST, decoding plain JSON and SSE responses alike.

Each server ends up connected, failed, needs-auth, or pending. Pending
means the server did not answer in time but may still be starting up;
it is worth re-running, unlike a definitive failure.`,
	Example: `  # Verify every declared server
  mcpvet verify

  # Verify two servers from a specific declaration file
  mcpvet verify github filesystem -f ./servers.yaml

  # List the tools a server advertises
  mcpvet tools github`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return checkConfig(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity
		// The MCPVET_DEBUG knob applies when no -v flag is given.
		if v == 0 && settings != nil && settings.Debug {
			v = 1
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var primaryHandler slog.Handler
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		primaryHandler = logging.NewHandler(cmd.ErrOrStderr(), opts)
	}

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		// File output uses JSON format
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: level,
		}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// checkConfig surfaces configuration load errors before any command runs.
func checkConfig(cmd *cobra.Command) error {
	if cmd.Name() == "help" || cmd.Name() == "version" {
		return nil
	}
	if configLoadErr != nil {
		return errors.NewUserError(configLoadErr, "check the config file syntax or pass --config")
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
