// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aibor/vmctl/internal/hoststat"
	"github.com/aibor/vmctl/internal/launcher"
	"github.com/aibor/vmctl/internal/supervisor"
)

const sessionHelp = `Commands: pause, resume, powerdown, reset, stop, status, help`

func newRunCommand(a *app) *cobra.Command {
	var (
		overrides []string
		stats     bool
	)

	cmd := &cobra.Command{
		Use:   "run NAME",
		Short: "Run a VM and control it interactively",
		Long: `Run a VM and control it by commands read line by line from stdin:

  pause      pause the guest CPUs
  resume     resume the guest CPUs
  powerdown  request an ACPI shutdown of the guest
  reset      reset the guest
  stop       terminate the QEMU process
  status     print the process state

Interrupt and termination signals stop the VM. The command returns once the
QEMU process exited.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(args[0], overrides)
			if err != nil {
				return err
			}

			sup := a.newSupervisor(nil)
			sup.Subscribe(func(event supervisor.Event) {
				a.logger.Info("VM state changed",
					slog.String("state", event.State.String()),
					slog.Int("pid", event.PID),
				)
			})

			session := &session{
				launcher: a.newLauncher(cfg, sup),
				input:    cmd.InOrStdin(),
				output:   cmd.OutOrStdout(),
				logger:   a.logger,
			}

			if stats {
				session.statsInterval = a.settings.StatsInterval
			}

			return session.run(cmd.Context())
		},
	}

	cmd.Flags().StringArrayVar(&overrides, "set", nil,
		"override a field for this run only (KEY=VALUE)")
	cmd.Flags().BoolVar(&stats, "stats", false,
		"periodically print host and VM resource usage")

	return cmd
}

// session runs a single VM until its process exits.
type session struct {
	launcher      *launcher.Launcher
	input         io.Reader
	output        io.Writer
	logger        *slog.Logger
	statsInterval time.Duration
}

func (s *session) run(ctx context.Context) error {
	err := s.launcher.Start(ctx)
	if err != nil {
		return err //nolint:wrapcheck
	}

	fmt.Fprintf(s.output, "VM running with PID %d, QMP port %d\n",
		s.launcher.PID(), s.launcher.Port())

	// Commands are sent with their own context, so they are not canceled
	// with the session.
	sendCtx := context.WithoutCancel(ctx)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	exited := make(chan error, 1)
	go func() {
		exited <- s.launcher.Wait(sendCtx)
	}()

	if s.statsInterval > 0 {
		go hoststat.Watch(sessionCtx, s.statsInterval, s.launcher.PID,
			func(sample hoststat.Sample, err error) {
				if err != nil {
					s.logger.Debug("Resource sampling failed", slog.Any("error", err))
				}

				fmt.Fprintln(s.output, sample)
			})
	}

	lines := readLines(sessionCtx, s.input)

	for {
		select {
		case err := <-exited:
			return err
		case <-ctx.Done():
			s.logger.Info("Stopping VM", slog.Any("reason", context.Cause(ctx)))

			err := s.launcher.Stop(sendCtx)
			if err != nil {
				s.logger.Warn("Stop failed", slog.Any("error", err))
			}

			<-exited

			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}

			stopped, err := s.handle(sendCtx, line)
			if err != nil {
				fmt.Fprintln(s.output, err)
			}

			if stopped {
				<-exited
				return nil
			}
		}
	}
}

// handle executes an interactive command. It returns true if the VM was
// stopped.
func (s *session) handle(ctx context.Context, line string) (bool, error) {
	controls := map[string]func(context.Context) <-chan error{
		"pause":     s.launcher.Pause,
		"resume":    s.launcher.Resume,
		"powerdown": s.launcher.PowerDown,
		"reset":     s.launcher.Reset,
	}

	if control, exists := controls[line]; exists {
		// Delivery failures are logged by the QMP client.
		_ = control(ctx)
		return false, nil
	}

	switch line {
	case "":
	case "stop":
		err := s.launcher.Stop(ctx)
		if err != nil {
			return false, err //nolint:wrapcheck
		}

		return true, nil
	case "status":
		fmt.Fprintf(s.output, "running: %t, pid: %d\n",
			s.launcher.Running(), s.launcher.PID())
	case "help":
		fmt.Fprintln(s.output, sessionHelp)
	default:
		return false, fmt.Errorf("%w: %s\n%s", ErrUnknownCommand, line, sessionHelp)
	}

	return false, nil
}

// readLines sends trimmed lines of r to the returned channel until r is
// exhausted or the context is canceled.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- strings.ToLower(strings.TrimSpace(scanner.Text())):
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}
