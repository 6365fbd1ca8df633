// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import "runtime"

// Host hardware accelerators as named by QEMU's "-accel" argument.
const (
	AccelKVM  = "kvm"
	AccelHVF  = "hvf"
	AccelWHPX = "whpx"
	AccelTCG  = "tcg"
)

// HardwareAccel returns the QEMU hardware accelerator name for the given
// host operating system (as in [runtime.GOOS]). It returns an empty string
// if the OS has none.
func HardwareAccel(goos string) string {
	switch goos {
	case "linux":
		return AccelKVM
	case "darwin":
		return AccelHVF
	case "windows":
		return AccelWHPX
	default:
		return ""
	}
}

// AccelProbe reports if hardware acceleration is available for guests of the
// given architecture.
type AccelProbe func(arch Arch) bool

// HostAccelAvailable is the [AccelProbe] for the running host. Only native
// guests are accelerated.
func HostAccelAvailable(arch Arch) bool {
	if !arch.IsNative() {
		return false
	}

	return hostAccelAvailable()
}

// HostOS is the operating system of the host.
const HostOS = runtime.GOOS
