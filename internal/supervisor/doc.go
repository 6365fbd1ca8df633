// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package supervisor manages the lifecycle of a single hypervisor process.
//
// A [Supervisor] starts the process, drains its output into a line sink,
// detects its exit asynchronously and terminates it gracefully on request.
// It never runs more than one process at a time.
package supervisor
