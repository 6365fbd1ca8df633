// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aibor/vmctl/internal/launcher"
	"github.com/aibor/vmctl/internal/netport"
	"github.com/aibor/vmctl/internal/settings"
	"github.com/aibor/vmctl/internal/store"
	"github.com/aibor/vmctl/internal/supervisor"
	"github.com/aibor/vmctl/internal/vm"
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// app carries the state shared by all sub commands.
type app struct {
	io IO

	debug        bool
	settingsFile string
	storeDir     string

	settings *settings.Settings
	store    *store.Store
	logger   *slog.Logger
}

func (a *app) setup() error {
	s, err := settings.Load(a.settingsFile)
	if err != nil {
		return err
	}

	level, err := s.Level()
	if err != nil {
		return err
	}

	if a.debug {
		level = slog.LevelDebug
	}

	a.logger = setupLogging(a.io.Stderr, level)

	if a.storeDir != "" {
		s.StoreDir = a.storeDir
	}

	a.settings = s
	a.store = store.New(s.StoreDir)

	a.logger.Debug("Settings loaded",
		slog.String("store_dir", s.StoreDir),
		slog.String("log_level", level.String()),
	)

	return nil
}

// loadConfig loads the stored config and applies the given key=value
// overrides without saving them.
func (a *app) loadConfig(name string, overrides []string) (*vm.Config, error) {
	cfg, err := a.store.Load(name)
	if err != nil {
		return nil, err
	}

	err = assignAll(cfg, overrides)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (a *app) exists(name string) (bool, error) {
	path, err := a.store.Path(name)
	if err != nil {
		return false, err //nolint:wrapcheck
	}

	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat config: %w", err)
	}

	return true, nil
}

func (a *app) newSupervisor(sink supervisor.LineSink) *supervisor.Supervisor {
	opts := []supervisor.Option{
		supervisor.WithStopTimeout(a.settings.StopTimeout),
		supervisor.WithLogger(a.logger),
	}

	if len(a.settings.SearchDirs) > 0 {
		opts = append(opts, supervisor.WithSearchDirs(a.settings.SearchDirs...))
	}

	if sink != nil {
		opts = append(opts, supervisor.WithLineSink(sink))
	}

	return supervisor.New(opts...)
}

func (a *app) newLauncher(cfg *vm.Config, sup launcher.Supervisor) *launcher.Launcher {
	return launcher.New(cfg, sup,
		launcher.WithLogger(a.logger),
		launcher.WithPortAllocator(&netport.Allocator{
			Fallback: a.settings.FallbackPort,
			Logger:   a.logger,
		}),
		launcher.WithQMPSettings(launcher.QMPSettings{
			Attempts:    a.settings.QMPAttempts,
			Interval:    a.settings.QMPInterval,
			DialTimeout: a.settings.QMPDialTimeout,
		}),
	)
}

func assignAll(cfg *vm.Config, assignments []string) error {
	for _, assignment := range assignments {
		err := cfg.Assign(assignment)
		if err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}
