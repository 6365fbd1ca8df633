// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aibor/vmctl/internal/vm"
)

func newCreateCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "create NAME [KEY=VALUE...]",
		Short: "Create a new VM configuration",
		Long: `Create a new VM configuration with default values. Fields may be set by
KEY=VALUE arguments. Run "vmctl fields" for the available keys.`,
		Args: minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := vm.Default()
			cfg.Name = args[0]

			err := assignAll(cfg, args[1:])
			if err != nil {
				return err
			}

			name := cfg.StorageName()

			exists, err := a.exists(name)
			if err != nil {
				return err
			}

			if exists && !force {
				return fmt.Errorf("%w: %s", ErrConfigExists, name)
			}

			return save(a, cfg)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false,
		"overwrite an existing configuration")

	return cmd
}

func newSetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set NAME KEY=VALUE...",
		Short: "Change fields of a VM configuration",
		Long: `Change fields of a VM configuration. For list fields the value is
appended, an empty value clears the list.`,
		Args: minimumArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(args[0], args[1:])
			if err != nil {
				return err
			}

			return save(a, cfg)
		},
	}
}

func save(a *app, cfg *vm.Config) error {
	err := cfg.Validate()
	if err != nil {
		return err //nolint:wrapcheck
	}

	err = a.store.Save(cfg)
	if err != nil {
		return err //nolint:wrapcheck
	}

	a.logger.Info("Saved configuration", slog.String("name", cfg.StorageName()))

	return nil
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a VM configuration",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(args[0], nil)
			if err != nil {
				return err
			}

			writeFields(cmd.OutOrStdout(), cfg)

			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored VM configurations",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := a.store.List()
			if err != nil {
				return err //nolint:wrapcheck
			}

			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			return nil
		},
	}
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a VM configuration",
		Args:    exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.store.Delete(args[0]) //nolint:wrapcheck
		},
	}
}

func newFieldsCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the configuration fields",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, field := range vm.Fields() {
				fmt.Fprintln(cmd.OutOrStdout(), field.Describe())
			}

			return nil
		},
	}
}

func writeFields(w io.Writer, cfg *vm.Config) {
	for _, field := range vm.Fields() {
		values := field.Values(cfg)
		if field.Kind == vm.KindList {
			fmt.Fprintf(w, "%-16s %s\n", field.Key, strings.Join(values, ", "))
			continue
		}

		fmt.Fprintf(w, "%-16s %s\n", field.Key, values[0])
	}
}
