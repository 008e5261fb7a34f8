// Package config provides configuration management for mcpvet using Viper.
package config

import (
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/mcpvet/mcpvet/internal/paths"
)

// AppName is the application name used for config file naming.
const AppName = "mcpvet"

// Settings holds the tunable knobs of the verification engine. All
// timeouts are in milliseconds, matching the environment overrides
// MCPVET_HTTP_VERIFY_TIMEOUT, MCPVET_STDIO_VERIFY_TIMEOUT,
// MCPVET_VERIFY_TIMEOUT and MCPVET_DEBUG.
type Settings struct {
	HTTPVerifyTimeout  int  `mapstructure:"http_verify_timeout" yaml:"http_verify_timeout"`
	StdioVerifyTimeout int  `mapstructure:"stdio_verify_timeout" yaml:"stdio_verify_timeout"`
	VerifyTimeout      int  `mapstructure:"verify_timeout" yaml:"verify_timeout"`
	Debug              bool `mapstructure:"debug" yaml:"debug"`
}

// HTTPVerify returns the HTTP verification timeout as a duration.
func (s *Settings) HTTPVerify() time.Duration {
	return time.Duration(s.HTTPVerifyTimeout) * time.Millisecond
}

// StdioVerify returns the stdio verification timeout as a duration.
func (s *Settings) StdioVerify() time.Duration {
	return time.Duration(s.StdioVerifyTimeout) * time.Millisecond
}

// Verify returns the generic verification timeout as a duration.
func (s *Settings) Verify() time.Duration {
	return time.Duration(s.VerifyTimeout) * time.Millisecond
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(filepath.Join(paths.ConfigHome(), AppName))

	// Environment variable support
	viper.SetEnvPrefix("MCPVET")
	viper.AutomaticEnv()

	// Documented defaults for the timing knobs.
	viper.SetDefault("http_verify_timeout", 6000)
	viper.SetDefault("stdio_verify_timeout", 30000)
	viper.SetDefault("verify_timeout", 8000)
	viper.SetDefault("debug", false)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded settings, or defaults when no file is found.
func Load(path string) (*Settings, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// If user specified a path, this is an error
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
			// Implicit load falls back to defaults
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	return &settings, nil
}
