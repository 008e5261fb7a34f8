package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid input, configuration, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, network, permissions, etc.).
	ExitSystem = 2
)

// Sentinel errors classifying verification and discovery failures.
// Components wrap these with context via cockroachdb/errors so callers
// can branch on class with errors.Is while keeping the full message.
var (
	// ErrCommandNotAllowed indicates a stdio command failed the
	// allow-list check. Terminal; no process is spawned.
	ErrCommandNotAllowed = errors.New("command not allowed")

	// ErrSpawnFailure indicates the OS refused to launch the child
	// process (not found, permission denied). Terminal, never retried.
	ErrSpawnFailure = errors.New("spawn failure")

	// ErrTimeout indicates the per-call timer expired before a terminal
	// state was reached. Maps to a pending verification result and a
	// terminal discovery error.
	ErrTimeout = errors.New("timeout")

	// ErrProtocol indicates the server answered with a JSON-RPC error.
	ErrProtocol = errors.New("protocol error")

	// ErrHTTP indicates a non-2xx HTTP response.
	ErrHTTP = errors.New("http error")

	// ErrNetwork indicates a transport-level connection failure.
	// Retryable up to the transport's attempt budget.
	ErrNetwork = errors.New("network error")

	// ErrParse indicates malformed JSON or SSE content where a whole
	// response body had to parse.
	ErrParse = errors.New("parse error")

	// ErrNotFound indicates the requested server name is not declared.
	ErrNotFound = errors.New("server not found")
)

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}
