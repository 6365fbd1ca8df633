// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import "errors"

var (
	// ErrExecutableNotFound is returned if the executable could not be
	// resolved.
	ErrExecutableNotFound = errors.New("executable not found")

	// ErrLaunchFailed is returned if the operating system failed to spawn
	// the process.
	ErrLaunchFailed = errors.New("launch failed")

	// ErrAlreadyActive is returned if a process is started while another one
	// is still active.
	ErrAlreadyActive = errors.New("process already active")

	// ErrNotRunning is returned if there is no running process.
	ErrNotRunning = errors.New("process not running")
)
