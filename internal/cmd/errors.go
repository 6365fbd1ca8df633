// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigExists is returned when creating a config with a name that is
	// already taken.
	ErrConfigExists = errors.New("config already exists")

	// ErrUnknownCommand is returned for unknown interactive commands.
	ErrUnknownCommand = errors.New("unknown command")
)

// UsageError wraps errors that occur during argument parsing.
type UsageError struct {
	err error
	msg string
}

func (e *UsageError) Error() string {
	if e.err == nil {
		return e.msg
	}

	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *UsageError) Is(other error) bool {
	_, ok := other.(*UsageError)
	return ok
}

func (e *UsageError) Unwrap() error {
	return e.err
}
