// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultSearchDirs returns the directories searched for executables in
// addition to the PATH on the given operating system (as in [runtime.GOOS]).
func DefaultSearchDirs(goos string) []string {
	if goos == "windows" {
		return []string{`C:\Program Files\qemu`, `C:\qemu`}
	}

	return nil
}

// resolveExecutable returns the path of the executable with the given name.
//
// Names with path separators are checked directly. Other names are looked up
// in PATH first and in the search dirs next. On Windows ".exe" is appended if
// missing.
func resolveExecutable(
	name string,
	goos string,
	searchDirs []string,
	lookPath func(string) (string, error),
) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrExecutableNotFound)
	}

	if goos == "windows" && !strings.EqualFold(filepath.Ext(name), ".exe") {
		name += ".exe"
	}

	path, err := lookPath(name)
	if err == nil {
		return path, nil
	}

	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %w", ErrExecutableNotFound, err)
	}

	for _, dir := range searchDirs {
		path, dirErr := lookPath(filepath.Join(dir, name))
		if dirErr == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %w", ErrExecutableNotFound, err)
}
