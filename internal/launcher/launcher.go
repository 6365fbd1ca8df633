// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package launcher ties configuration, compilation, process supervision and
// the QMP control channel of a single VM together.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aibor/vmctl/internal/netport"
	"github.com/aibor/vmctl/internal/qemu"
	"github.com/aibor/vmctl/internal/qmp"
	"github.com/aibor/vmctl/internal/supervisor"
	"github.com/aibor/vmctl/internal/sys"
	"github.com/aibor/vmctl/internal/vm"
)

// ErrBusy is returned by [Launcher.Toggle] while the VM is starting or
// stopping.
var ErrBusy = errors.New("vm is starting or stopping")

// Supervisor is the process lifecycle handle used by the [Launcher].
type Supervisor interface {
	Start(argv []string) error
	Stop(ctx context.Context) error
	Wait(ctx context.Context) error
	State() supervisor.State
	Running() bool
	PID() int
}

// QMPSettings configure the QMP clients created for each start.
type QMPSettings struct {
	Attempts    int
	Interval    time.Duration
	DialTimeout time.Duration
}

// Option configures a [Launcher].
type Option func(*Launcher)

// WithCompiler sets the argument compiler. Defaults to [qemu.HostCompiler].
func WithCompiler(compiler qemu.Compiler) Option {
	return func(l *Launcher) {
		l.compiler = compiler
	}
}

// WithPortAllocator sets the control port allocator.
func WithPortAllocator(allocator *netport.Allocator) Option {
	return func(l *Launcher) {
		l.ports = allocator
	}
}

// WithQMPSettings sets the retry behavior of the control channel.
func WithQMPSettings(settings QMPSettings) Option {
	return func(l *Launcher) {
		l.qmpSettings = settings
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// WithInterfaceCheck sets the host network interface preflight check for tap
// and bridge backends. Defaults to [sys.CheckHostInterface].
func WithInterfaceCheck(check func(name string, bridge bool) error) Option {
	return func(l *Launcher) {
		l.checkInterface = check
	}
}

// Launcher runs a single VM.
type Launcher struct {
	// Config is the VM configuration used for the next start.
	Config *vm.Config

	supervisor     Supervisor
	compiler       qemu.Compiler
	ports          *netport.Allocator
	qmpSettings    QMPSettings
	logger         *slog.Logger
	checkInterface func(name string, bridge bool) error

	mu     sync.Mutex
	port   int
	client *qmp.Client
}

// New creates a [Launcher] for the given config and supervisor.
func New(cfg *vm.Config, sup Supervisor, opts ...Option) *Launcher {
	launcher := &Launcher{
		Config:     cfg,
		supervisor: sup,
		compiler:   qemu.HostCompiler,
		ports:      &netport.Allocator{},
		qmpSettings: QMPSettings{
			Attempts:    qmp.DefaultAttempts,
			Interval:    qmp.DefaultInterval,
			DialTimeout: qmp.DefaultDialTimeout,
		},
		logger:         slog.Default(),
		checkInterface: sys.CheckHostInterface,
	}

	for _, opt := range opts {
		opt(launcher)
	}

	if launcher.ports.Logger == nil {
		launcher.ports.Logger = launcher.logger
	}

	return launcher
}

// Port returns the control port of the last start, or 0.
func (l *Launcher) Port() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.port
}

// Command returns the argument vector for the current config. It uses the
// control port of the last start or the fallback port if not started yet.
func (l *Launcher) Command() ([]string, error) {
	port := l.Port()
	if port == 0 {
		port = l.ports.Fallback
		if port == 0 {
			port = netport.DefaultFallbackPort
		}
	}

	return l.compiler.Compile(l.Config, port)
}

// Preview returns the current command as shell command line.
func (l *Launcher) Preview() (string, error) {
	argv, err := l.Command()
	if err != nil {
		return "", err
	}

	return qemu.Preview(argv), nil
}

// Start compiles the config with a freshly allocated control port and starts
// the VM process.
func (l *Launcher) Start(ctx context.Context) error {
	if l.supervisor.State() != supervisor.StateIdle {
		return supervisor.ErrAlreadyActive
	}

	err := l.preflight()
	if err != nil {
		return err
	}

	port := l.ports.Allocate(ctx)

	argv, err := l.compiler.Compile(l.Config, port)
	if err != nil {
		return err
	}

	accel, _ := l.compiler.Accelerator(l.Config)
	if accel == sys.AccelTCG && l.Config.WantsHostCPU() {
		l.logger.Warn("CPU model host requires hardware acceleration",
			slog.String("arch", l.Config.Arch.String()),
		)
	}

	l.logger.Info("Start VM",
		slog.String("name", l.Config.StorageName()),
		slog.Int("qmp_port", port),
	)

	err = l.supervisor.Start(argv)
	if err != nil {
		return fmt.Errorf("start %s: %w", l.Config.StorageName(), err)
	}

	client := qmp.NewClient(qemu.QMPHost, port, l.supervisor.Running)
	client.Attempts = l.qmpSettings.Attempts
	client.Interval = l.qmpSettings.Interval
	client.DialTimeout = l.qmpSettings.DialTimeout
	client.Logger = l.logger

	l.mu.Lock()
	l.port = port
	l.client = client
	l.mu.Unlock()

	return nil
}

func (l *Launcher) preflight() error {
	network := l.Config.Network

	switch network.Backend {
	case vm.NetTap, vm.NetBridge:
		if network.Ifname == "" {
			break
		}

		err := l.checkInterface(network.Ifname, network.Backend == vm.NetBridge)
		if err != nil {
			return &vm.ConfigError{
				Field: "net_ifname",
				Msg:   "host interface " + network.Ifname,
				Err:   err,
			}
		}
	case vm.NetDefault, vm.NetUser, vm.NetSocket, vm.NetNone:
	}

	return nil
}

// Stop terminates the VM process.
func (l *Launcher) Stop(ctx context.Context) error {
	return l.supervisor.Stop(ctx) //nolint:wrapcheck
}

// Toggle starts an idle VM or stops a running one.
func (l *Launcher) Toggle(ctx context.Context) error {
	switch l.supervisor.State() {
	case supervisor.StateIdle:
		return l.Start(ctx)
	case supervisor.StateRunning:
		return l.Stop(ctx)
	case supervisor.StateStarting, supervisor.StateStopping:
		return ErrBusy
	default:
		return ErrBusy
	}
}

// Wait blocks until the VM process exited.
func (l *Launcher) Wait(ctx context.Context) error {
	return l.supervisor.Wait(ctx) //nolint:wrapcheck
}

// Running returns true if the VM process is running.
func (l *Launcher) Running() bool {
	return l.supervisor.Running()
}

// PID returns the process ID of the VM, or 0.
func (l *Launcher) PID() int {
	return l.supervisor.PID()
}

// Pause pauses the guest CPUs.
func (l *Launcher) Pause(ctx context.Context) <-chan error {
	return l.send(ctx, qmp.Stop)
}

// Resume resumes paused guest CPUs.
func (l *Launcher) Resume(ctx context.Context) <-chan error {
	return l.send(ctx, qmp.Cont)
}

// PowerDown requests an ACPI shutdown of the guest.
func (l *Launcher) PowerDown(ctx context.Context) <-chan error {
	return l.send(ctx, qmp.SystemPowerdown)
}

// Reset resets the guest.
func (l *Launcher) Reset(ctx context.Context) <-chan error {
	return l.send(ctx, qmp.SystemReset)
}

func (l *Launcher) send(ctx context.Context, cmd qmp.Command) <-chan error {
	l.mu.Lock()
	client := l.client
	l.mu.Unlock()

	if client == nil {
		result := make(chan error, 1)
		result <- qmp.ErrNotRunning
		close(result)

		return result
	}

	return client.Send(ctx, cmd)
}
