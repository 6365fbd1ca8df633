// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every [ConfigError].
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnknownField is returned if a field key is not known.
	ErrUnknownField = errors.New("unknown field")
)

// ConfigError indicates an invalid configuration value.
type ConfigError struct {
	Field string
	Msg   string
	Err   error
}

// Error implements the [error] interface.
func (e *ConfigError) Error() string {
	msg := ErrInvalidConfiguration.Error() + ": " + e.Field + ": " + e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (*ConfigError) Is(other error) bool {
	if other == ErrInvalidConfiguration { //nolint:errorlint,err113
		return true
	}

	_, ok := other.(*ConfigError)

	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func invalid(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
