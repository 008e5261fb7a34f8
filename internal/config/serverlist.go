package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/mcpvet/mcpvet/internal/mcp"
)

// LoadServers reads a server declaration file and returns the ordered
// (name, config) list the engine consumes. The format is chosen by
// extension: .json expects a .mcp.json-style mcpServers object and
// preserves document order; .yaml/.yml and .toml expect a servers map
// and return names sorted.
func LoadServers(path string) ([]mcp.NamedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading server file %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONServers(data)
	case ".yaml", ".yml":
		return parseYAMLServers(data)
	case ".toml":
		return parseTOMLServers(data)
	default:
		return nil, errors.Newf("unsupported server file format %q", filepath.Ext(path))
	}
}

// jsonServerKeys are accepted top-level keys for the JSON format.
// Claude Code writes mcpServers; the generic form is servers.
var jsonServerKeys = map[string]bool{"mcpServers": true, "servers": true}

// parseJSONServers walks the document with a token decoder so that
// declaration order is preserved; a plain map would lose it.
func parseJSONServers(data []byte) ([]mcp.NamedConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "parsing JSON server file")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("server file must be a JSON object")
	}

	var servers []mcp.NamedConfig
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "parsing JSON server file")
		}
		key := keyTok.(string)

		if !jsonServerKeys[key] {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, errors.Wrapf(err, "skipping key %q", key)
			}
			continue
		}

		openTok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "parsing server object")
		}
		if delim, ok := openTok.(json.Delim); !ok || delim != '{' {
			return nil, errors.Newf("%q must be an object", key)
		}
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return nil, errors.Wrap(err, "parsing server name")
			}
			name := nameTok.(string)

			var cfg mcp.ServerConfig
			if err := dec.Decode(&cfg); err != nil {
				return nil, errors.Wrapf(err, "parsing server %q", name)
			}
			servers = append(servers, mcp.NamedConfig{Name: name, Config: &cfg})
		}
		if _, err := dec.Token(); err != nil {
			return nil, errors.Wrap(err, "parsing server object")
		}
	}

	return servers, nil
}

func parseYAMLServers(data []byte) ([]mcp.NamedConfig, error) {
	var file struct {
		Servers map[string]*mcp.ServerConfig `yaml:"servers"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parsing YAML server file")
	}
	return sortedServers(file.Servers), nil
}

func parseTOMLServers(data []byte) ([]mcp.NamedConfig, error) {
	var file struct {
		Servers map[string]*mcp.ServerConfig `toml:"servers"`
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parsing TOML server file")
	}
	return sortedServers(file.Servers), nil
}

func sortedServers(m map[string]*mcp.ServerConfig) []mcp.NamedConfig {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	servers := make([]mcp.NamedConfig, 0, len(names))
	for _, name := range names {
		servers = append(servers, mcp.NamedConfig{Name: name, Config: m[name]})
	}
	return servers
}
