// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import "golang.org/x/sys/unix"

const kvmDevice = "/dev/kvm"

// hostAccelAvailable checks if the KVM device can be opened for read and
// write by the current user.
func hostAccelAvailable() bool {
	return unix.Access(kvmDevice, unix.R_OK|unix.W_OK) == nil
}
