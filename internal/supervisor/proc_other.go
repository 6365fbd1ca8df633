// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !unix

package supervisor

import (
	"os"
	"os/exec"
)

func setProcAttr(_ *exec.Cmd) {}

// terminate kills the process. There is no graceful termination signal.
func terminate(process *os.Process) error {
	return process.Kill() //nolint:wrapcheck
}
