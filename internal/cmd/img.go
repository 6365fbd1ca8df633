// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aibor/vmctl/internal/img"
)

func newImgCommand(a *app) *cobra.Command {
	var executable string

	tool := func() *img.Tool {
		return &img.Tool{
			Executable: executable,
			Runner:     img.LocalRunner{Logger: a.logger},
		}
	}

	cmd := &cobra.Command{
		Use:   "img",
		Short: "Manage disk images with qemu-img",
	}

	cmd.PersistentFlags().StringVar(&executable, "qemu-img", img.DefaultExecutable,
		"qemu-img executable")

	cmd.AddCommand(
		newImgCreateCommand(tool),
		newImgConvertCommand(tool),
		newImgInfoCommand(tool),
	)

	return cmd
}

func newImgCreateCommand(tool func() *img.Tool) *cobra.Command {
	var opts img.CreateOptions

	cmd := &cobra.Command{
		Use:   "create PATH [SIZE]",
		Short: "Create a disk image",
		Long: `Create a disk image of the given size, like "20G". The size may be
omitted if a backing file is given.`,
		Args: rangeArgs(1, 2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			if len(args) > 1 {
				opts.Size = args[1]
			}

			return tool().Create(cmd.Context(), opts) //nolint:wrapcheck
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Format, "format", "f", "qcow2", "image format")
	flags.StringVarP(&opts.BackingFile, "backing-file", "b", "", "backing file")
	flags.StringVarP(&opts.BackingFormat, "backing-format", "F", "", "backing file format")

	return cmd
}

func newImgConvertCommand(tool func() *img.Tool) *cobra.Command {
	var opts img.ConvertOptions

	cmd := &cobra.Command{
		Use:   "convert SOURCE DEST",
		Short: "Convert a disk image into another format",
		Args:  exactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			opts.Dest = args[1]

			return tool().Convert(cmd.Context(), opts) //nolint:wrapcheck
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.SourceFormat, "source-format", "f", "", "source image format")
	flags.StringVarP(&opts.DestFormat, "format", "O", "qcow2", "destination image format")
	flags.BoolVarP(&opts.Compress, "compress", "c", false, "compress the destination image")

	return cmd
}

func newImgInfoCommand(tool func() *img.Tool) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info PATH",
		Short: "Show information about a disk image",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := tool().Info(cmd.Context(), args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}

			out := cmd.OutOrStdout()

			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")

				return encoder.Encode(info) //nolint:wrapcheck
			}

			fmt.Fprintf(out, "file:         %s\n", info.Filename)
			fmt.Fprintf(out, "format:       %s\n", info.Format)
			fmt.Fprintf(out, "virtual size: %d\n", info.VirtualSize)
			fmt.Fprintf(out, "disk size:    %d\n", info.ActualSize)

			if info.BackingFilename != "" {
				fmt.Fprintf(out, "backing file: %s\n", info.BackingFilename)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
