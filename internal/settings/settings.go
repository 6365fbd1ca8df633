// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package settings loads the application settings from an optional YAML
// file and the environment.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aibor/vmctl/internal/hoststat"
	"github.com/aibor/vmctl/internal/netport"
	"github.com/aibor/vmctl/internal/qmp"
	"github.com/aibor/vmctl/internal/store"
	"github.com/aibor/vmctl/internal/supervisor"
)

// EnvPrefix is the prefix of environment variables overriding settings.
const EnvPrefix = "VMCTL"

// FileName is the base name of the settings file.
const FileName = "settings"

// Settings are the application wide settings.
type Settings struct {
	StoreDir       string        `mapstructure:"store_dir"`
	LogLevel       string        `mapstructure:"log_level"`
	StopTimeout    time.Duration `mapstructure:"stop_timeout"`
	QMPAttempts    int           `mapstructure:"qmp_attempts"`
	QMPInterval    time.Duration `mapstructure:"qmp_interval"`
	QMPDialTimeout time.Duration `mapstructure:"qmp_dial_timeout"`
	FallbackPort   int           `mapstructure:"fallback_port"`
	StatsInterval  time.Duration `mapstructure:"stats_interval"`
	SearchDirs     []string      `mapstructure:"search_dirs"`
}

// Level returns the parsed log level.
func (s *Settings) Level() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(s.LogLevel))
	if err != nil {
		return level, fmt.Errorf("log_level: %w", err)
	}

	return level, nil
}

// Dir returns the directory the settings file is searched in by default.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}

	return filepath.Join(configDir, "vmctl"), nil
}

// Load reads the settings. If file is empty, "settings.yaml" is read from
// [Dir] if present. An explicitly given file must exist. Environment
// variables with [EnvPrefix] take precedence over the file.
func Load(file string) (*Settings, error) {
	v := viper.New()

	err := setDefaults(v)
	if err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := Dir()
		if err == nil {
			v.SetConfigName(FileName)
			v.SetConfigType("yaml")
			v.AddConfigPath(dir)
		}
	}

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	var settings Settings

	err = v.Unmarshal(&settings)
	if err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	return &settings, nil
}

func setDefaults(v *viper.Viper) error {
	storeDir, err := store.DefaultDir()
	if err != nil {
		return err
	}

	v.SetDefault("store_dir", storeDir)
	v.SetDefault("log_level", slog.LevelWarn.String())
	v.SetDefault("stop_timeout", supervisor.DefaultStopTimeout)
	v.SetDefault("qmp_attempts", qmp.DefaultAttempts)
	v.SetDefault("qmp_interval", qmp.DefaultInterval)
	v.SetDefault("qmp_dial_timeout", qmp.DefaultDialTimeout)
	v.SetDefault("fallback_port", netport.DefaultFallbackPort)
	v.SetDefault("stats_interval", hoststat.DefaultInterval)
	v.SetDefault("search_dirs", supervisor.DefaultSearchDirs(runtime.GOOS))

	return nil
}
