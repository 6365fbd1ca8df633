// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import "golang.org/x/sys/unix"

// hostAccelAvailable checks if the Hypervisor.framework is supported by the
// kernel.
func hostAccelAvailable() bool {
	supported, err := unix.SysctlUint32("kern.hv_support")
	return err == nil && supported == 1
}
