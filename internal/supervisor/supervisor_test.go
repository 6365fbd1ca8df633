// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package supervisor_test

import (
	"context"
	"os/exec"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/aibor/vmctl/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines map[string][]string
}

func (r *lineRecorder) sink(stream, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lines == nil {
		r.lines = map[string][]string{}
	}

	r.lines[stream] = append(r.lines[stream], line)
}

func (r *lineRecorder) get(stream string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.lines[stream])
}

type stateRecorder struct {
	mu     sync.Mutex
	states []supervisor.State
}

func (r *stateRecorder) observe(event supervisor.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states = append(r.states, event.State)
}

func (r *stateRecorder) get() []supervisor.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.states)
}

func TestSupervisorRunToExit(t *testing.T) {
	var (
		lines  lineRecorder
		states stateRecorder
	)

	sup := supervisor.New(supervisor.WithLineSink(lines.sink))
	sup.Subscribe(states.observe)

	err := sup.Start([]string{"sh", "-c", "echo out; echo err >&2; exit 3"})
	require.NoError(t, err)

	err = sup.Wait(context.Background())

	var exitErr *exec.ExitError

	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.Equal(t, supervisor.StateIdle, sup.State())
	assert.Zero(t, sup.PID())

	assert.Eventually(t, func() bool {
		return slices.Equal([]string{"out"}, lines.get(supervisor.StreamStdout)) &&
			slices.Equal([]string{"err"}, lines.get(supervisor.StreamStderr))
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []supervisor.State{
		supervisor.StateStarting,
		supervisor.StateRunning,
		supervisor.StateIdle,
	}, states.get())
}

func TestSupervisorStartTwice(t *testing.T) {
	sup := supervisor.New()

	require.NoError(t, sup.Start([]string{"sleep", "10"}))
	assert.True(t, sup.Running())
	assert.Positive(t, sup.PID())

	err := sup.Start([]string{"sleep", "10"})
	require.ErrorIs(t, err, supervisor.ErrAlreadyActive)
	assert.True(t, sup.Running(), "first process must be unaffected")

	require.NoError(t, sup.Stop(context.Background()))
	assert.Equal(t, supervisor.StateIdle, sup.State())
}

func TestSupervisorStop(t *testing.T) {
	var states stateRecorder

	sup := supervisor.New()
	sup.Subscribe(states.observe)

	require.NoError(t, sup.Start([]string{"sleep", "10"}))
	require.NoError(t, sup.Stop(context.Background()))

	assert.Equal(t, supervisor.StateIdle, sup.State())
	assert.Equal(t, []supervisor.State{
		supervisor.StateStarting,
		supervisor.StateRunning,
		supervisor.StateStopping,
		supervisor.StateIdle,
	}, states.get())

	require.ErrorIs(t, sup.Stop(context.Background()), supervisor.ErrNotRunning)
}

func TestSupervisorStopEscalatesToKill(t *testing.T) {
	sup := supervisor.New(supervisor.WithStopTimeout(100 * time.Millisecond))

	require.NoError(t, sup.Start([]string{
		"sh", "-c", `trap "" TERM; while true; do sleep 0.05; done`,
	}))

	// Give the shell time to install the trap.
	time.Sleep(200 * time.Millisecond)

	start := time.Now()

	require.NoError(t, sup.Stop(context.Background()))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, supervisor.StateIdle, sup.State())
}

func TestSupervisorStopContextCanceled(t *testing.T) {
	sup := supervisor.New(supervisor.WithStopTimeout(time.Hour))

	require.NoError(t, sup.Start([]string{
		"sh", "-c", `trap "" TERM; while true; do sleep 0.05; done`,
	}))

	time.Sleep(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := sup.Stop(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, supervisor.StateIdle, sup.State())
}

func TestSupervisorRestart(t *testing.T) {
	sup := supervisor.New()

	require.NoError(t, sup.Start([]string{"true"}))
	require.NoError(t, sup.Wait(context.Background()))

	require.NoError(t, sup.Start([]string{"sleep", "10"}))
	require.NoError(t, sup.Stop(context.Background()))
}

func TestSupervisorExecutableNotFound(t *testing.T) {
	var states stateRecorder

	sup := supervisor.New(supervisor.WithSearchDirs(t.TempDir()))
	sup.Subscribe(states.observe)

	err := sup.Start([]string{"qemu-system-does-not-exist"})
	require.ErrorIs(t, err, supervisor.ErrExecutableNotFound)
	assert.Equal(t, supervisor.StateIdle, sup.State())
	assert.Equal(t, []supervisor.State{
		supervisor.StateStarting,
		supervisor.StateIdle,
	}, states.get())

	err = sup.Start(nil)
	require.ErrorIs(t, err, supervisor.ErrExecutableNotFound)
}

func TestSupervisorLaunchFailed(t *testing.T) {
	sup := supervisor.New()

	// A directory resolves as path but cannot be executed.
	err := sup.Start([]string{t.TempDir()})
	require.Error(t, err)
	assert.Equal(t, supervisor.StateIdle, sup.State())
}

func TestSupervisorWaitNeverStarted(t *testing.T) {
	sup := supervisor.New()
	require.ErrorIs(t, sup.Wait(context.Background()), supervisor.ErrNotRunning)
}

func TestSupervisorOverlongOutputLine(t *testing.T) {
	var lines lineRecorder

	sup := supervisor.New(supervisor.WithLineSink(lines.sink))

	script := `head -c 70000 /dev/zero | tr "\0" a >&2; echo >&2; ` +
		`for i in $(seq 1 2000); do echo line$i >&2; done; echo finished`

	require.NoError(t, sup.Start([]string{"sh", "-c", script}))
	require.NoError(t, sup.Wait(context.Background()))

	assert.Eventually(t, func() bool {
		return slices.Equal([]string{"finished"}, lines.get(supervisor.StreamStdout))
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		stderr := lines.get(supervisor.StreamStderr)
		return len(stderr) == 2002 && stderr[2001] == "line2000"
	}, time.Second, 10*time.Millisecond)

	stderr := lines.get(supervisor.StreamStderr)
	assert.Len(t, stderr[0], supervisor.MaxLineLength)
	assert.Len(t, stderr[1], 70000-supervisor.MaxLineLength)
	assert.Equal(t, "line1", stderr[2])
}
