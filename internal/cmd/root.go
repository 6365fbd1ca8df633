// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vmctl",
		Short: "Configure and run QEMU virtual machines",
		Long: `vmctl keeps named QEMU virtual machine configurations, compiles them into
QEMU command lines and supervises the running VM process.`,
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	root.SetIn(a.io.Stdin)
	root.SetOut(a.io.Stdout)
	root.SetErr(a.io.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{msg: "flags", err: err}
	})

	flags := root.PersistentFlags()
	flags.BoolVar(&a.debug, "debug", false,
		"enable debug logging")
	flags.StringVar(&a.settingsFile, "settings", "",
		"settings file (default settings.yaml in the user config dir)")
	flags.StringVar(&a.storeDir, "store-dir", "",
		"directory of the stored VM configurations")

	root.AddCommand(
		newCreateCommand(a),
		newSetCommand(a),
		newShowCommand(a),
		newListCommand(a),
		newDeleteCommand(a),
		newFieldsCommand(a),
		newPreviewCommand(a),
		newRunCommand(a),
		newImgCommand(a),
	)

	return root
}

// exactArgs is like [cobra.ExactArgs] but returns a [UsageError].
func exactArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return &UsageError{
				msg: fmt.Sprintf("accepts %d arg(s), received %d", n, len(args)),
			}
		}

		return nil
	}
}

// minimumArgs is like [cobra.MinimumNArgs] but returns a [UsageError].
func minimumArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return &UsageError{
				msg: fmt.Sprintf("requires at least %d arg(s), received %d", n, len(args)),
			}
		}

		return nil
	}
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	return buildInfo.Main.Version
}

// rangeArgs is like [cobra.RangeArgs] but returns a [UsageError].
func rangeArgs(low, high int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < low || len(args) > high {
			return &UsageError{
				msg: fmt.Sprintf("accepts between %d and %d arg(s), received %d",
					low, high, len(args)),
			}
		}

		return nil
	}
}
