// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package netport allocates local TCP ports for control channels.
package netport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// ErrResourceExhausted is returned if no port could be allocated.
var ErrResourceExhausted = errors.New("no free port available")

// DefaultFallbackPort is used by [AllocateWithFallback] if allocation keeps
// failing.
const DefaultFallbackPort = 4444

const (
	defaultAttempts = 3
	defaultBackoff  = 50 * time.Millisecond
)

// Allocate returns a TCP port on the loopback interface that was free at the
// time of the call.
//
// The port is released again before return, so another process might grab
// it before QEMU binds it.
func Allocate() (int, error) {
	var listenConfig net.ListenConfig

	listener, err := listenConfig.Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	addr, _ := listener.Addr().(*net.TCPAddr)

	err = listener.Close()
	if err != nil {
		return 0, fmt.Errorf("%w: release: %w", ErrResourceExhausted, err)
	}

	if addr == nil || addr.Port == 0 {
		return 0, ErrResourceExhausted
	}

	return addr.Port, nil
}

// Allocator retries port allocation and falls back to a fixed port.
type Allocator struct {
	// Attempts is the number of allocation tries. Defaults to 3.
	Attempts int
	// Backoff is the delay after the first failed try. It doubles with each
	// further try. Defaults to 50ms.
	Backoff time.Duration
	// Fallback is returned if all tries failed. Defaults to
	// [DefaultFallbackPort].
	Fallback int
	// Logger receives a warning if the fallback is used.
	Logger *slog.Logger

	allocate func() (int, error)
}

// AllocateWithFallback allocates a port with the default [Allocator].
func AllocateWithFallback(ctx context.Context) int {
	return (&Allocator{}).Allocate(ctx)
}

// Allocate returns a free port or the fallback port. It never fails, so
// launching a VM is never blocked by a port allocation issue. The fallback
// port is not checked for availability.
func (a *Allocator) Allocate(ctx context.Context) int {
	attempts := a.Attempts
	if attempts < 1 {
		attempts = defaultAttempts
	}

	backoff := a.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	allocate := a.allocate
	if allocate == nil {
		allocate = Allocate
	}

	var err error

retry:
	for attempt := range attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				err = errors.Join(err, ctx.Err())
				break retry
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		var port int

		port, err = allocate()
		if err == nil {
			return port
		}
	}

	fallback := a.Fallback
	if fallback == 0 {
		fallback = DefaultFallbackPort
	}

	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Warn("Port allocation failed, using fallback port",
		slog.Int("port", fallback),
		slog.Any("error", err),
	)

	return fallback
}
