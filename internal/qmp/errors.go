// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRunning is returned if the VM process is not running.
	ErrNotRunning = errors.New("vm not running")

	// ErrControlChannelUnreachable is returned if all connection attempts
	// failed.
	ErrControlChannelUnreachable = errors.New("control channel unreachable")

	// ErrInvalidGreeting is returned if the server did not greet with a QMP
	// banner.
	ErrInvalidGreeting = errors.New("invalid greeting")
)

// CommandError is a QMP error response.
type CommandError struct {
	Command string
	Class   string
	Desc    string
}

// Error implements the [error] interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("qmp %s: %s: %s", e.Command, e.Class, e.Desc)
}

// Is implements the [errors.Is] interface.
func (*CommandError) Is(other error) bool {
	_, ok := other.(*CommandError)
	return ok
}
