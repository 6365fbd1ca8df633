// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import "golang.org/x/sys/windows"

// Processor feature flag for hardware virtualization enabled in firmware.
const pfVirtFirmwareEnabled = 21

var procIsProcessorFeaturePresent = windows.NewLazySystemDLL("kernel32.dll").
	NewProc("IsProcessorFeaturePresent")

// hostAccelAvailable checks if virtualization extensions are enabled in the
// firmware, which the Windows Hypervisor Platform requires.
func hostAccelAvailable() bool {
	return processorFeaturePresent(pfVirtFirmwareEnabled)
}

func processorFeaturePresent(feature uint32) bool {
	if procIsProcessorFeaturePresent.Find() != nil {
		return false
	}

	present, _, _ := procIsProcessorFeaturePresent.Call(uintptr(feature))

	return present != 0
}
