// Package main is the entry point for the mcpvet CLI.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/mcpvet/mcpvet/cmd/mcpvet/commands"
	vererrors "github.com/mcpvet/mcpvet/internal/errors"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	code := vererrors.ExitUser
	var exitErr *vererrors.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		if exitErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", exitErr.Suggestion)
		}
	}
	os.Exit(code)
}
