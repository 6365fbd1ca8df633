// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux

package sys

// CheckHostInterface is a no-op on hosts without netlink. QEMU reports
// missing interfaces itself.
func CheckHostInterface(_ string, _ bool) error {
	return nil
}
