// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qmp provides a minimal client for the QEMU Machine Protocol.
//
// Each command uses its own connection: the client reads the server greeting,
// negotiates capabilities, sends the command, reads the response and closes
// the connection. Failed connection attempts are retried while the VM
// process is running.
package qmp
