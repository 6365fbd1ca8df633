// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import "encoding/json"

// Command is a QMP command.
type Command struct {
	Execute   string         `json:"execute"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Predefined commands.
var (
	// Stop pauses the guest CPUs.
	Stop = Command{Execute: "stop"}
	// Cont resumes paused guest CPUs.
	Cont = Command{Execute: "cont"}
	// SystemPowerdown sends an ACPI power button event to the guest.
	SystemPowerdown = Command{Execute: "system_powerdown"}
	// SystemReset resets the guest.
	SystemReset = Command{Execute: "system_reset"}
	// Quit terminates QEMU immediately.
	Quit = Command{Execute: "quit"}

	capabilities = Command{Execute: "qmp_capabilities"}
)

// message is any message received from the server. Exactly one of the fields
// is set, depending on the message type.
type message struct {
	QMP    json.RawMessage `json:"QMP"`
	Return json.RawMessage `json:"return"`
	Error  *struct {
		Class string `json:"class"`
		Desc  string `json:"desc"`
	} `json:"error"`
	Event string `json:"event"`
}

func (m *message) isGreeting() bool {
	return len(m.QMP) > 0
}

func (m *message) isEvent() bool {
	return m.Event != ""
}
