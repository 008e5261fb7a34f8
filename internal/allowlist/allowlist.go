// Package allowlist restricts which executables may be spawned for
// stdio MCP servers. Verification of a stdio server must pass this
// check before any process is created; a rejected command never
// touches the process table.
package allowlist

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	vererrors "github.com/mcpvet/mcpvet/internal/errors"
)

// defaultCommands is the fixed set of interpreter and launcher names
// permitted for stdio servers.
var defaultCommands = []string{
	"node", "npx", "npm", "pnpm", "yarn", "bunx", "bun",
	"python", "python3", "uvx", "uv", "deno", "docker", "cargo", "go",
}

// recognized platform executable extensions, stripped before matching.
var knownExtensions = []string{"", ".exe", ".cmd", ".bat"}

// List is an immutable set of permitted executable base names.
type List struct {
	allowed map[string]struct{}
}

// New constructs a List from the given command names.
func New(commands ...string) *List {
	allowed := make(map[string]struct{}, len(commands))
	for _, c := range commands {
		allowed[strings.ToLower(c)] = struct{}{}
	}
	return &List{allowed: allowed}
}

// Default returns the standard allow-list of interpreter and launcher
// names.
func Default() *List {
	return New(defaultCommands...)
}

// Commands returns the sorted permitted names, for display.
func (l *List) Commands() []string {
	out := make([]string, 0, len(l.allowed))
	for c := range l.allowed {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Validate checks whether command may be spawned. It strips directory
// components (either path-separator style) and one recognized
// executable extension, then matches the remaining base name against
// the list. A nil return means the command is permitted; every
// rejection is marked with ErrCommandNotAllowed so callers can
// classify it without matching message text.
func (l *List) Validate(command string) error {
	if strings.TrimSpace(command) == "" {
		return reject(errors.New("command is empty"))
	}

	base := baseName(command)

	name, ok := stripExtension(base)
	if !ok {
		return reject(errors.Newf("command %q has an unrecognized extension", base))
	}

	if _, ok := l.allowed[strings.ToLower(name)]; !ok {
		return reject(errors.Newf("command %q is not in the allowed list (%s)",
			name, strings.Join(l.Commands(), ", ")))
	}
	return nil
}

func reject(err error) error {
	return errors.Mark(err, vererrors.ErrCommandNotAllowed)
}

// baseName strips directory components using both separator styles, so
// configs written on one platform validate the same everywhere.
func baseName(command string) string {
	if i := strings.LastIndexAny(command, `/\`); i >= 0 {
		return command[i+1:]
	}
	return command
}

// stripExtension removes one recognized executable extension
// (none, .exe, .cmd or .bat). It reports false when the name carries
// an extension outside that set.
func stripExtension(name string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name, true
	}
	ext := strings.ToLower(name[i:])
	for _, known := range knownExtensions {
		if ext == known {
			return name[:i], true
		}
	}
	return name, false
}
