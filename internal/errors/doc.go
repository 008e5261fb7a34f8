// Package errors provides error handling conventions for mcpvet.
//
// This package defines sentinel errors for the verification engine's
// failure classes, an ExitError type for CLI exit code handling, and
// exit code constants following standard Unix conventions.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [errors.Is]:
//
//	if errors.Is(err, vererrors.ErrNetwork) {
//	    // retryable transport failure
//	}
//
// The engine itself never lets these escape its entry points: public
// verification and discovery operations fold every error into the
// result value's status and error fields.
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, configuration, etc.)
//   - ExitSystem (2): System-related error (I/O, network, permissions, etc.)
package errors
