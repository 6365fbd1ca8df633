// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu compiles a [vm.Config] into the argument vector of a QEMU
// system emulator.
//
// Compilation is a pure function of the configuration, the QMP control port
// and the accelerator probe of the [Compiler]. The control channel is always
// a QMP server on the loopback interface that does not wait for a client.
//
// The argument vector is meant for [exec.Command] and is never passed through
// a shell. [Preview] renders it as a shell command line for display only.
package qemu
