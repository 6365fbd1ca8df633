// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import "errors"

var (
	// ErrArchNotSupported is returned if the requested architecture is not
	// a known QEMU system target.
	ErrArchNotSupported = errors.New("architecture not supported")

	// ErrInterfaceNotFound is returned if a host network interface required
	// by the VM network backend does not exist.
	ErrInterfaceNotFound = errors.New("host interface not found")

	// ErrInterfaceType is returned if a host network interface exists but is
	// of the wrong type, e.g. not a bridge.
	ErrInterfaceType = errors.New("host interface has wrong type")
)
