// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPreviewCommand(a *app) *cobra.Command {
	var (
		overrides []string
		argv      bool
	)

	cmd := &cobra.Command{
		Use:   "preview NAME",
		Short: "Print the QEMU command line of a VM configuration",
		Long: `Print the QEMU command line of a VM configuration. The QMP control port
is a placeholder, the actual port is allocated when the VM is started.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(args[0], overrides)
			if err != nil {
				return err
			}

			launcher := a.newLauncher(cfg, a.newSupervisor(nil))

			if argv {
				command, err := launcher.Command()
				if err != nil {
					return err //nolint:wrapcheck
				}

				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(command, "\n"))

				return nil
			}

			preview, err := launcher.Preview()
			if err != nil {
				return err //nolint:wrapcheck
			}

			fmt.Fprintln(cmd.OutOrStdout(), preview)

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&overrides, "set", nil,
		"override a field for this invocation only (KEY=VALUE)")
	cmd.Flags().BoolVar(&argv, "argv", false,
		"print one argument per line instead of a shell command line")

	return cmd
}
