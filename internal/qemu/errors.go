// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "errors"

var (
	// ErrArgumentCollision is returned if two [Argument]s are considered equal.
	ErrArgumentCollision = errors.New("colliding args")

	// ErrShellOperator is returned if extra arguments contain an unquoted
	// shell operator. Arguments are never passed through a shell.
	ErrShellOperator = errors.New("unquoted shell operator")
)
