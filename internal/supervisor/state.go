// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

// State is the lifecycle state of a [Supervisor].
type State int

const (
	// StateIdle means no process exists.
	StateIdle State = iota
	// StateStarting means the process is being spawned.
	StateStarting
	// StateRunning means the process is alive.
	StateRunning
	// StateStopping means termination was requested and the process has not
	// exited yet.
	StateStopping
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Event is passed to observers on each state transition.
type Event struct {
	State State
	// PID of the process. It is 0 if no process was spawned.
	PID int
	// Err is the exit error of the process on the transition to [StateIdle]
	// after exit. It is not interpreted.
	Err error
}
