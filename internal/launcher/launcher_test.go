// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package launcher_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/vmctl/internal/launcher"
	"github.com/aibor/vmctl/internal/netport"
	"github.com/aibor/vmctl/internal/qemu"
	"github.com/aibor/vmctl/internal/qmp"
	"github.com/aibor/vmctl/internal/supervisor"
	"github.com/aibor/vmctl/internal/vm"
)

type fakeSupervisor struct {
	mu       sync.Mutex
	state    supervisor.State
	argv     []string
	startErr error
	stops    int
}

func (f *fakeSupervisor) Start(argv []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.startErr != nil {
		return f.startErr
	}

	f.argv = argv
	f.state = supervisor.StateRunning

	return nil
}

func (f *fakeSupervisor) Stop(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != supervisor.StateRunning {
		return supervisor.ErrNotRunning
	}

	f.stops++
	f.state = supervisor.StateIdle

	return nil
}

func (f *fakeSupervisor) Wait(_ context.Context) error {
	return nil
}

func (f *fakeSupervisor) State() supervisor.State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

func (f *fakeSupervisor) Running() bool {
	return f.State() == supervisor.StateRunning
}

func (f *fakeSupervisor) PID() int {
	return 0
}

func (f *fakeSupervisor) setState(state supervisor.State) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = state
}

var testCompiler = qemu.Compiler{HostOS: "linux"}

func newLauncher(cfg *vm.Config, sup launcher.Supervisor, opts ...launcher.Option) *launcher.Launcher {
	opts = append([]launcher.Option{
		launcher.WithCompiler(testCompiler),
		launcher.WithPortAllocator(&netport.Allocator{Fallback: 4321}),
	}, opts...)

	return launcher.New(cfg, sup, opts...)
}

func TestLauncher_Preview(t *testing.T) {
	l := newLauncher(vm.Default(), &fakeSupervisor{})

	preview, err := l.Preview()
	require.NoError(t, err)

	assert.Contains(t, preview, "tcp:127.0.0.1:4321,server=on,wait=off")
	assert.Equal(t, 0, l.Port())
}

func TestLauncher_PreviewInvalid(t *testing.T) {
	cfg := vm.Default()
	cfg.MemoryMB = 0

	_, err := newLauncher(cfg, &fakeSupervisor{}).Preview()
	require.ErrorIs(t, err, vm.ErrInvalidConfiguration)
}

func TestLauncher_Start(t *testing.T) {
	sup := &fakeSupervisor{}
	l := newLauncher(vm.Default(), sup)

	require.NoError(t, l.Start(t.Context()))

	port := l.Port()
	require.NotZero(t, port)

	expected, err := testCompiler.Compile(vm.Default(), port)
	require.NoError(t, err)
	assert.Equal(t, expected, sup.argv)
	assert.True(t, l.Running())

	err = l.Start(t.Context())
	require.ErrorIs(t, err, supervisor.ErrAlreadyActive)

	preview, err := l.Preview()
	require.NoError(t, err)
	assert.Equal(t, qemu.Preview(expected), preview)
}

func TestLauncher_StartFailure(t *testing.T) {
	sup := &fakeSupervisor{startErr: supervisor.ErrExecutableNotFound}
	l := newLauncher(vm.Default(), sup)

	err := l.Start(t.Context())
	require.ErrorIs(t, err, supervisor.ErrExecutableNotFound)
	assert.Zero(t, l.Port())

	err = <-l.Pause(t.Context())
	require.ErrorIs(t, err, qmp.ErrNotRunning)
}

func TestLauncher_StartInvalid(t *testing.T) {
	cfg := vm.Default()
	cfg.Cores = 0

	sup := &fakeSupervisor{}
	err := newLauncher(cfg, sup).Start(t.Context())
	require.ErrorIs(t, err, vm.ErrInvalidConfiguration)
	assert.Nil(t, sup.argv)
}

func TestLauncher_InterfacePreflight(t *testing.T) {
	hostErr := errors.New("no such interface")

	tests := []struct {
		name     string
		backend  vm.NetBackend
		ifname   string
		checked  []string
		bridge   bool
		expected error
	}{
		{
			name:     "tap missing",
			backend:  vm.NetTap,
			ifname:   "tap0",
			checked:  []string{"tap0"},
			expected: hostErr,
		},
		{
			name:     "bridge missing",
			backend:  vm.NetBridge,
			ifname:   "br0",
			checked:  []string{"br0"},
			bridge:   true,
			expected: hostErr,
		},
		{
			name:    "user mode not checked",
			backend: vm.NetUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := vm.Default()
			cfg.Network.Backend = tt.backend
			cfg.Network.Ifname = tt.ifname

			var (
				checked []string
				bridge  bool
			)

			check := func(name string, isBridge bool) error {
				checked = append(checked, name)
				bridge = isBridge

				return hostErr
			}

			sup := &fakeSupervisor{}
			l := newLauncher(cfg, sup, launcher.WithInterfaceCheck(check))

			err := l.Start(t.Context())
			if tt.expected != nil {
				require.ErrorIs(t, err, tt.expected)
				require.ErrorIs(t, err, vm.ErrInvalidConfiguration)
				assert.Nil(t, sup.argv)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.checked, checked)
			assert.Equal(t, tt.bridge, bridge)
		})
	}
}

func TestLauncher_Toggle(t *testing.T) {
	sup := &fakeSupervisor{}
	l := newLauncher(vm.Default(), sup)

	require.NoError(t, l.Toggle(t.Context()))
	assert.True(t, l.Running())

	require.NoError(t, l.Toggle(t.Context()))
	assert.False(t, l.Running())
	assert.Equal(t, 1, sup.stops)

	for _, state := range []supervisor.State{
		supervisor.StateStarting,
		supervisor.StateStopping,
	} {
		sup.setState(state)
		require.ErrorIs(t, l.Toggle(t.Context()), launcher.ErrBusy, state)
	}
}

func TestLauncher_ControlNotRunning(t *testing.T) {
	l := newLauncher(vm.Default(), &fakeSupervisor{})

	controls := []func(context.Context) <-chan error{
		l.Pause,
		l.Resume,
		l.PowerDown,
		l.Reset,
	}

	for _, control := range controls {
		result := control(t.Context())

		require.ErrorIs(t, <-result, qmp.ErrNotRunning)

		_, open := <-result
		assert.False(t, open, "result channel closed")
	}
}

func TestLauncher_ControlAfterExit(t *testing.T) {
	sup := &fakeSupervisor{}
	l := newLauncher(vm.Default(), sup,
		launcher.WithQMPSettings(launcher.QMPSettings{Attempts: 1}))

	require.NoError(t, l.Start(t.Context()))
	require.NoError(t, l.Stop(t.Context()))

	err := <-l.PowerDown(t.Context())
	require.ErrorIs(t, err, qmp.ErrNotRunning)
}
