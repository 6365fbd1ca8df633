// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

const usageExitCode = 2

func handleRunError(err error, w io.Writer) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, &UsageError{}) {
		fmt.Fprintf(w, "Error [vmctl]: %v\nRun 'vmctl --help' for usage.\n", err)
		return usageExitCode
	}

	exitCode := -1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		exitCode = exitErr.ExitCode()
	}

	fmt.Fprintf(w, "Error [vmctl]: %v\n", err)

	return exitCode
}

// Run is the main entry point for the CLI command. The args do not include
// the program name.
func Run(ctx context.Context, args []string, cfg IO) int {
	a := &app{
		io:     cfg,
		logger: slog.Default(),
	}

	if args == nil {
		args = []string{}
	}

	root := newRootCommand(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)

	return handleRunError(err, cfg.Stderr)
}
