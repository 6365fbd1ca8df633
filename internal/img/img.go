// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package img wraps the qemu-img tool for disk image management. Each
// operation runs qemu-img as a one-shot subprocess.
package img

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// DefaultExecutable is the name of the qemu-img binary.
const DefaultExecutable = "qemu-img"

// ErrMissingArgument is returned if a required option is empty.
var ErrMissingArgument = errors.New("missing argument")

// Runner runs a command to completion.
type Runner interface {
	Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error
}

// LocalRunner runs commands on the local host.
type LocalRunner struct {
	Logger *slog.Logger
}

// Run implements [Runner].
func (r LocalRunner) Run(
	ctx context.Context,
	stdout, stderr io.Writer,
	name string,
	args ...string,
) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Debug("Run command", slog.String("command", cmd.String()))

	err := cmd.Run()
	if err != nil {
		logger.Warn("Command failed",
			slog.String("command", cmd.String()),
			slog.Any("error", err),
		)

		return fmt.Errorf("run %s: %w", name, err)
	}

	return nil
}

// Tool runs qemu-img operations.
type Tool struct {
	// Executable defaults to [DefaultExecutable].
	Executable string
	// Runner defaults to a [LocalRunner].
	Runner Runner
}

// CreateOptions are the options for [Tool.Create].
type CreateOptions struct {
	Path string
	// Format defaults to qcow2.
	Format string
	// Size like "20G". Optional if BackingFile is set.
	Size          string
	BackingFile   string
	BackingFormat string
}

// Create creates a new disk image.
func (t *Tool) Create(ctx context.Context, opts CreateOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("%w: path", ErrMissingArgument)
	}

	if opts.Size == "" && opts.BackingFile == "" {
		return fmt.Errorf("%w: size", ErrMissingArgument)
	}

	format := opts.Format
	if format == "" {
		format = "qcow2"
	}

	args := []string{"create", "-f", format}

	if opts.BackingFile != "" {
		args = append(args, "-b", opts.BackingFile)
		if opts.BackingFormat != "" {
			args = append(args, "-F", opts.BackingFormat)
		}
	}

	args = append(args, opts.Path)
	if opts.Size != "" {
		args = append(args, opts.Size)
	}

	_, err := t.run(ctx, args...)

	return err
}

// ConvertOptions are the options for [Tool.Convert].
type ConvertOptions struct {
	Source       string
	SourceFormat string
	Dest         string
	// DestFormat defaults to qcow2.
	DestFormat string
	Compress   bool
}

// Convert converts a disk image into another format.
func (t *Tool) Convert(ctx context.Context, opts ConvertOptions) error {
	if opts.Source == "" || opts.Dest == "" {
		return fmt.Errorf("%w: source and destination", ErrMissingArgument)
	}

	destFormat := opts.DestFormat
	if destFormat == "" {
		destFormat = "qcow2"
	}

	args := []string{"convert"}

	if opts.SourceFormat != "" {
		args = append(args, "-f", opts.SourceFormat)
	}

	args = append(args, "-O", destFormat)

	if opts.Compress {
		args = append(args, "-c")
	}

	args = append(args, opts.Source, opts.Dest)

	_, err := t.run(ctx, args...)

	return err
}

// Info describes a disk image as reported by "qemu-img info".
type Info struct {
	Filename        string `json:"filename"`
	Format          string `json:"format"`
	VirtualSize     int64  `json:"virtual-size"`
	ActualSize      int64  `json:"actual-size"`
	ClusterSize     int64  `json:"cluster-size"`
	DirtyFlag       bool   `json:"dirty-flag"`
	BackingFilename string `json:"backing-filename"`
}

// Info returns information about the image at the given path.
func (t *Tool) Info(ctx context.Context, path string) (*Info, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path", ErrMissingArgument)
	}

	stdout, err := t.run(ctx, "info", "--output=json", path)
	if err != nil {
		return nil, err
	}

	var info Info

	err = json.Unmarshal(stdout, &info)
	if err != nil {
		return nil, fmt.Errorf("decode info: %w", err)
	}

	return &info, nil
}

func (t *Tool) run(ctx context.Context, args ...string) ([]byte, error) {
	executable := t.Executable
	if executable == "" {
		executable = DefaultExecutable
	}

	runner := t.Runner
	if runner == nil {
		runner = LocalRunner{}
	}

	var stdout, stderr bytes.Buffer

	err := runner.Run(ctx, &stdout, &stderr, executable, args...)
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("qemu-img %s: %w: %s", args[0], err, msg)
		}

		return nil, fmt.Errorf("qemu-img %s: %w", args[0], err)
	}

	return stdout.Bytes(), nil
}
