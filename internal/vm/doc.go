// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vm provides the virtual machine configuration model.
//
// A [Config] is edited through [Field] descriptors, which carry the static
// kind of each option and its constraints. [Config.Validate] checks all fields
// and the dependencies between them.
package vm
