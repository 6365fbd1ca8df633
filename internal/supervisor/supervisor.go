// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultStopTimeout is the time a process has to exit after the graceful
// termination signal before it is killed.
const DefaultStopTimeout = 5 * time.Second

// Option configures a [Supervisor].
type Option func(*Supervisor)

// WithStopTimeout sets the time to wait for a graceful exit in [Supervisor.Stop].
func WithStopTimeout(timeout time.Duration) Option {
	return func(s *Supervisor) {
		s.stopTimeout = timeout
	}
}

// WithSearchDirs sets additional directories to search for the executable.
func WithSearchDirs(dirs ...string) Option {
	return func(s *Supervisor) {
		s.searchDirs = dirs
	}
}

// WithLogger sets the logger for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// WithLineSink sets the receiver of the process output. Output is logged by
// default.
func WithLineSink(sink LineSink) Option {
	return func(s *Supervisor) {
		s.sink = sink
	}
}

// Supervisor owns the lifecycle of at most one process at a time.
type Supervisor struct {
	stopTimeout time.Duration
	searchDirs  []string
	logger      *slog.Logger
	sink        LineSink
	goos        string
	lookPath    func(string) (string, error)

	mu        sync.Mutex
	state     State
	process   *os.Process
	done      chan struct{}
	exitErr   error
	observers []func(Event)
}

// New creates a new idle [Supervisor].
func New(opts ...Option) *Supervisor {
	supervisor := &Supervisor{
		stopTimeout: DefaultStopTimeout,
		searchDirs:  DefaultSearchDirs(runtime.GOOS),
		logger:      slog.Default(),
		goos:        runtime.GOOS,
		lookPath:    exec.LookPath,
	}

	for _, opt := range opts {
		opt(supervisor)
	}

	if supervisor.sink == nil {
		supervisor.sink = LogSink(supervisor.logger)
	}

	return supervisor
}

// Subscribe registers an observer that is called on every state transition.
// Observers are called synchronously with the state lock held, so they must
// not block or call back into the supervisor.
func (s *Supervisor) Subscribe(observer func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = append(s.observers, observer)
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Running returns true if the process is alive and not being stopped.
func (s *Supervisor) Running() bool {
	return s.State() == StateRunning
}

// PID returns the process ID of the active process, or 0.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.process == nil {
		return 0
	}

	return s.process.Pid
}

// Start spawns the process for the given argument vector. The first element
// is the executable. It returns once the process is running or spawning
// failed. It is never passed through a shell.
//
// Start returns [ErrAlreadyActive] if the supervisor is not idle.
func (s *Supervisor) Start(argv []string) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyActive
	}

	s.setState(StateStarting, 0, nil)
	s.mu.Unlock()

	err := s.start(argv)
	if err != nil {
		s.mu.Lock()
		s.setState(StateIdle, 0, nil)
		s.mu.Unlock()

		return err
	}

	return nil
}

func (s *Supervisor) start(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("%w: empty argument vector", ErrExecutableNotFound)
	}

	path, err := resolveExecutable(argv[0], s.goos, s.searchDirs, s.lookPath)
	if err != nil {
		return err
	}

	outReader, outWriter, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %w", ErrLaunchFailed, err)
	}

	errReader, errWriter, err := os.Pipe()
	if err != nil {
		_ = outReader.Close()
		_ = outWriter.Close()

		return fmt.Errorf("%w: stderr pipe: %w", ErrLaunchFailed, err)
	}

	cmd := exec.Command(path, argv[1:]...) //nolint:gosec,noctx
	cmd.Stdout = outWriter
	cmd.Stderr = errWriter
	setProcAttr(cmd)

	s.logger.Debug("Start process", slog.String("command", cmd.String()))

	err = cmd.Start()

	// The child holds its own copies now.
	_ = outWriter.Close()
	_ = errWriter.Close()

	if err != nil {
		_ = outReader.Close()
		_ = errReader.Close()

		return fmt.Errorf("%w: %w", ErrLaunchFailed, err)
	}

	var drainGroup errgroup.Group

	drainGroup.Go(func() error {
		defer outReader.Close()
		return copyLines(s.sink, StreamStdout, outReader)
	})
	drainGroup.Go(func() error {
		defer errReader.Close()
		return copyLines(s.sink, StreamStderr, errReader)
	})

	done := make(chan struct{})

	s.mu.Lock()
	s.process = cmd.Process
	s.done = done
	s.exitErr = nil
	s.setState(StateRunning, cmd.Process.Pid, nil)
	s.mu.Unlock()

	go s.monitor(cmd, &drainGroup, done)

	return nil
}

// monitor waits for the process to exit and transitions back to idle. Output
// draining is awaited after the transition, so it never delays it.
func (s *Supervisor) monitor(
	cmd *exec.Cmd,
	drainGroup *errgroup.Group,
	done chan struct{},
) {
	exitErr := cmd.Wait()

	s.mu.Lock()
	pid := s.process.Pid
	s.process = nil
	s.exitErr = exitErr
	close(done)
	s.setState(StateIdle, pid, exitErr)
	s.mu.Unlock()

	s.logger.Debug("Process exited",
		slog.Int("pid", pid),
		slog.Any("error", exitErr),
	)

	err := drainGroup.Wait()
	if err != nil {
		s.logger.Warn("Output draining failed", slog.Any("error", err))
	}
}

// Stop terminates the running process gracefully and kills it if it does not
// exit within the stop timeout. It returns once the process exited.
//
// If the context is canceled before, the process is killed and the context
// error is returned after the process exited.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotRunning
	}

	process, done := s.process, s.done
	s.setState(StateStopping, process.Pid, nil)
	s.mu.Unlock()

	termErr := terminate(process)
	if termErr != nil && !errors.Is(termErr, os.ErrProcessDone) {
		s.logger.Warn("Graceful termination failed", slog.Any("error", termErr))
	}

	var err error

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		s.logger.Warn("Process did not exit in time, killing it",
			slog.Int("pid", process.Pid),
			slog.Duration("timeout", s.stopTimeout),
		)
	case <-ctx.Done():
		err = ctx.Err()
	}

	killErr := process.Kill()
	if killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
		s.logger.Warn("Kill failed", slog.Any("error", killErr))
	}

	<-done

	return err
}

// Wait blocks until the current or last process exited and returns its exit
// error. It returns [ErrNotRunning] if no process has been started yet.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return ErrNotRunning
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exitErr
}

// setState transitions to the given state and notifies observers. It must be
// called with the lock held.
func (s *Supervisor) setState(state State, pid int, err error) {
	s.state = state

	event := Event{State: state, PID: pid, Err: err}
	for _, observer := range s.observers {
		observer(event)
	}
}
