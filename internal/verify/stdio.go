package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcpvet/mcpvet/internal/mcp"
	"github.com/mcpvet/mcpvet/internal/protocol"
	"github.com/mcpvet/mcpvet/internal/transport"
)

// excerptLimit bounds the stdout/stderr excerpts embedded in failure
// messages.
const excerptLimit = 500

// handshakeState enumerates the stdio tool-discovery state machine.
type handshakeState int

const (
	stateInit handshakeState = iota
	stateAwaitInitialize
	stateInitialized
	stateAwaitTools
	stateDone
)

// verifyStdio runs the verification-only handshake: send initialize,
// declare the server connected as soon as any JSON-RPC-shaped output
// appears on stdout. The state machine is advanced by exactly one of
// {line received, process exited, timer fired}; the first terminal
// event wins and later ones are no-ops by construction.
func (v *Verifier) verifyStdio(ctx context.Context, logger *slog.Logger, name string, cfg *mcp.ServerConfig) mcp.VerificationResult {
	if err := v.allow.Validate(cfg.Command); err != nil {
		return mcp.VerificationResult{Name: name, Status: mcp.StatusFailed, Error: err.Error()}
	}

	proc, err := transport.Spawn(transport.SpawnOptions{
		Command: cfg.Command,
		Args:    cfg.Args,
		Env:     cfg.Env,
	})
	if err != nil {
		return mcp.VerificationResult{Name: name, Status: mcp.StatusFailed, Error: err.Error()}
	}
	defer proc.Terminate()

	if data, err := protocol.NewInitializeRequest(v.client).Encode(); err == nil {
		if err := proc.WriteLine(data); err != nil {
			logger.Debug("stdin write failed", "error", err)
		}
	}

	timer := time.NewTimer(v.stdioTimeout)
	defer timer.Stop()

	lines := proc.Lines()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				// Stdout closed; the exit status decides the outcome.
				lines = nil
				continue
			}
			if !looksLikeJSONRPC(line) {
				continue
			}
			return mcp.VerificationResult{
				Name:       name,
				Status:     mcp.StatusConnected,
				ServerInfo: extractServerInfo(line),
			}

		case status := <-proc.Exited():
			// The exit status is delivered only after stdout is drained
			// and closed, but it can still win the select race against
			// lines already sitting in the buffer. Read them out first.
			if lines != nil {
				for line := range lines {
					if looksLikeJSONRPC(line) {
						return mcp.VerificationResult{
							Name:       name,
							Status:     mcp.StatusConnected,
							ServerInfo: extractServerInfo(line),
						}
					}
				}
			}
			if status.Code == 0 {
				// Clean exit without recognizable output is reported as
				// pending, not failed: callers re-poll pending servers.
				return mcp.VerificationResult{
					Name:   name,
					Status: mcp.StatusPending,
					Error:  withDiagnostic("No response from server", proc.StderrTail()),
				}
			}
			return mcp.VerificationResult{
				Name:   name,
				Status: mcp.StatusFailed,
				Error:  exitFailureMessage(status.Code, proc.StderrTail(), proc.StdoutHead()),
			}

		case <-timer.C:
			return mcp.VerificationResult{
				Name:   name,
				Status: mcp.StatusPending,
				Error:  fmt.Sprintf("No response after %s", v.stdioTimeout),
			}

		case <-ctx.Done():
			return mcp.VerificationResult{
				Name:   name,
				Status: mcp.StatusPending,
				Error:  "Verification canceled",
			}
		}
	}
}

// toolsStdio runs the full initialize → initialized → tools/list
// handshake and returns the advertised catalog.
func (v *Verifier) toolsStdio(ctx context.Context, logger *slog.Logger, name string, cfg *mcp.ServerConfig) mcp.ToolsResult {
	if err := v.allow.Validate(cfg.Command); err != nil {
		return mcp.ToolsResult{Name: name, Error: err.Error()}
	}

	proc, err := transport.Spawn(transport.SpawnOptions{
		Command: cfg.Command,
		Args:    cfg.Args,
		Env:     cfg.Env,
	})
	if err != nil {
		return mcp.ToolsResult{Name: name, Error: err.Error()}
	}
	defer proc.Terminate()

	send := func(req *protocol.Request) error {
		data, err := req.Encode()
		if err != nil {
			return err
		}
		return proc.WriteLine(data)
	}

	timer := time.NewTimer(toolsOverallTimeout)
	defer timer.Stop()

	lines := proc.Lines()

	// exited holds the status once received; the channel delivers
	// exactly once, so later consumers read the captured value.
	var exited *transport.ExitStatus

	// failAfterExit turns a stdin write failure into the exit-status
	// report: a broken pipe means the child is going down, and the exit
	// code plus stderr tail is the message worth surfacing, not the
	// pipe error. Lines are still drained while waiting so the stdout
	// reader cannot wedge on a full buffer.
	failAfterExit := func(sendErr error) mcp.ToolsResult {
		for exited == nil {
			select {
			case status := <-proc.Exited():
				exited = &status
			case _, ok := <-lines:
				if !ok {
					lines = nil
				}
			case <-timer.C:
				return mcp.ToolsResult{Name: name, Error: sendErr.Error()}
			case <-ctx.Done():
				return mcp.ToolsResult{Name: name, Error: sendErr.Error()}
			}
		}
		return mcp.ToolsResult{
			Name:  name,
			Error: exitFailureMessage(exited.Code, proc.StderrTail(), proc.StdoutHead()),
		}
	}

	if err := send(protocol.NewInitializeRequest(v.client)); err != nil {
		return failAfterExit(err)
	}
	state := stateAwaitInitialize

	// handleLine advances the state machine by one stdout line; done is
	// true when result is terminal.
	handleLine := func(line string) (result mcp.ToolsResult, done bool) {
		resp, err := protocol.ParseResponse([]byte(line))
		if err != nil {
			// Non-JSON chatter on stdout is expected from many servers;
			// skip it.
			logger.Debug("skipping unparseable line", "line", truncate(line, 120))
			return mcp.ToolsResult{}, false
		}

		switch {
		case state == stateAwaitInitialize && resp.IDEquals(protocol.InitializeID):
			if resp.Error != nil {
				return mcp.ToolsResult{Name: name, Error: "initialize failed: " + resp.Error.Message}, true
			}
			// Initialized is a transient state: the notification and the
			// tools/list request go out back to back.
			if err := send(protocol.NewInitializedNotification()); err != nil {
				return failAfterExit(err), true
			}
			if err := send(protocol.NewToolsListRequest()); err != nil {
				return failAfterExit(err), true
			}
			state = stateAwaitTools

		case state == stateAwaitTools && resp.IDEquals(protocol.ToolsListID):
			if resp.Error != nil {
				return mcp.ToolsResult{Name: name, Error: "tools/list failed: " + resp.Error.Message}, true
			}
			return mcp.ToolsResult{Name: name, Tools: parseTools(resp.Result)}, true

		case resp.Error != nil:
			// A top-level error at any state is terminal.
			return mcp.ToolsResult{Name: name, Error: resp.Error.Message}, true

		default:
			// Stale or unexpected id; ignore without advancing.
		}
		return mcp.ToolsResult{}, false
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if result, done := handleLine(line); done {
				return result
			}

		case status := <-proc.Exited():
			exited = &status
			// Exit races lines still buffered in the closed channel;
			// process them before treating the exit as the outcome.
			if lines != nil {
				for line := range lines {
					if result, done := handleLine(line); done {
						return result
					}
				}
			}
			return mcp.ToolsResult{
				Name:  name,
				Error: exitFailureMessage(status.Code, proc.StderrTail(), proc.StdoutHead()),
			}

		case <-timer.C:
			return mcp.ToolsResult{
				Name:  name,
				Error: fmt.Sprintf("timed out after %s waiting for tools/list response", toolsOverallTimeout),
			}

		case <-ctx.Done():
			return mcp.ToolsResult{Name: name, Error: "tool discovery canceled"}
		}
	}
}

// looksLikeJSONRPC reports whether a stdout line resembles a JSON-RPC
// message.
func looksLikeJSONRPC(line string) bool {
	return strings.Contains(line, `"jsonrpc"`) || strings.Contains(line, `"result"`)
}

// extractServerInfo pulls the serverInfo object out of a log line via
// the bounded brace scanner.
func extractServerInfo(line string) *mcp.ServerInfo {
	obj, ok := protocol.ScanObjectAfter(line, `"serverInfo"`)
	if !ok {
		return nil
	}
	var info mcp.ServerInfo
	if err := json.Unmarshal([]byte(obj), &info); err != nil {
		return nil
	}
	return &info
}

// parseTools decodes the result.tools array. A result without tools is
// a success with an empty catalog.
func parseTools(result json.RawMessage) []mcp.Tool {
	var payload struct {
		Tools []mcp.Tool `json:"tools"`
	}
	if err := json.Unmarshal(result, &payload); err != nil || payload.Tools == nil {
		return []mcp.Tool{}
	}
	return payload.Tools
}

func exitFailureMessage(code int, stderrTail, stdoutHead string) string {
	msg := fmt.Sprintf("process exited with code %d", code)
	if s := truncate(strings.TrimSpace(stderrTail), excerptLimit); s != "" {
		msg += "; stderr: " + s
	}
	if s := truncate(strings.TrimSpace(stdoutHead), excerptLimit); s != "" {
		msg += "; stdout: " + s
	}
	return msg
}

func withDiagnostic(msg, stderrTail string) string {
	if s := strings.TrimSpace(stderrTail); s != "" {
		return msg + ": " + truncate(s, excerptLimit)
	}
	return msg
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
