// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aibor/vmctl/internal/vm"
)

// ConfigFileName is the name of the configuration file in each VM directory.
const ConfigFileName = "config.json"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store persists [vm.Config]s in a base directory.
type Store struct {
	Dir string
}

// New returns a [Store] for the given base directory.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// DefaultDir returns the default base directory in the user's config
// directory.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}

	return filepath.Join(configDir, "vmctl", "vms"), nil
}

// Path returns the path of the configuration file for the given name.
func (s *Store) Path(name string) (string, error) {
	err := validateName(name)
	if err != nil {
		return "", err
	}

	return filepath.Join(s.Dir, name, ConfigFileName), nil
}

// Save writes the config under its storage name. The file is replaced
// atomically, so a failed write never corrupts a previously saved config.
func (s *Store) Save(cfg *vm.Config) error {
	name := cfg.StorageName()

	err := s.save(name, cfg)
	if err != nil {
		return &Error{Op: "save", Name: name, Err: err}
	}

	return nil
}

func (s *Store) save(name string, cfg *vm.Config) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)

	err = os.MkdirAll(dir, dirPerm)
	if err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	data, err := json.MarshalIndent(newRecord(cfg), "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+ConfigFileName+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmpFile.Name()

	err = writeAndClose(tmpFile, append(data, '\n'))
	if err == nil {
		err = os.Chmod(tmpPath, filePerm)
	}

	if err == nil {
		err = os.Rename(tmpPath, path)
	}

	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return nil
}

func writeAndClose(file *os.File, data []byte) error {
	_, err := file.Write(data)
	if err == nil {
		err = file.Sync()
	}

	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// Load reads the config with the given name. Keys missing in the file keep
// their default value, unknown keys are ignored. The loaded config is not
// validated.
func (s *Store) Load(name string) (*vm.Config, error) {
	cfg, err := s.load(name)
	if err != nil {
		return nil, &Error{Op: "load", Name: name, Err: err}
	}

	return cfg, nil
}

func (s *Store) load(name string) (*vm.Config, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	rec := newRecord(vm.Default())
	rec.Name = name

	err = json.Unmarshal(data, &rec)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return rec.config(), nil
}

// List returns the sorted names of all stored configs.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, &Error{Op: "list", Name: s.Dir, Err: err}
	}

	var names []string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		_, err := os.Stat(filepath.Join(s.Dir, entry.Name(), ConfigFileName))
		if err != nil {
			continue
		}

		names = append(names, entry.Name())
	}

	slices.Sort(names)

	return names, nil
}

// Delete removes the config with the given name and its directory, if the
// directory is empty then.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err == nil {
		err = os.Remove(path)
	}

	if err != nil {
		return &Error{Op: "delete", Name: name, Err: err}
	}

	// Keep the directory if the user put other files there, like disk images.
	_ = os.Remove(filepath.Dir(path))

	return nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) ||
		filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return nil
}
