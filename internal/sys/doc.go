// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sys provides host system facts needed to launch QEMU guests: the
// known emulation targets, hardware accelerator detection and host network
// interface checks.
package sys
