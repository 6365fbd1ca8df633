// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux && !darwin && !windows

package sys

// hostAccelAvailable has no probe on this OS. Hardware acceleration must be
// requested explicitly.
func hostAccelAvailable() bool {
	return false
}
