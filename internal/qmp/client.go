// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"
)

// Client defaults.
const (
	DefaultAttempts    = 5
	DefaultInterval    = 500 * time.Millisecond
	DefaultDialTimeout = time.Second
	DefaultIOTimeout   = 2 * time.Second
)

// Dialer establishes connections to the QMP server.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Client sends commands to a QMP server on a TCP address.
type Client struct {
	// Addr is the TCP address of the QMP server.
	Addr string

	// Running reports if the VM process is running. No connection is
	// attempted while it returns false. A nil func reports false.
	Running func() bool

	// Dialer defaults to a [net.Dialer].
	Dialer Dialer

	// Attempts is the maximum number of connection attempts.
	Attempts int

	// Interval is the delay between connection attempts.
	Interval time.Duration

	// DialTimeout limits each connection attempt.
	DialTimeout time.Duration

	// IOTimeout limits the message exchange of each attempt.
	IOTimeout time.Duration

	Logger *slog.Logger
}

// NewClient returns a [Client] for the QMP server on the given local port
// with default settings.
func NewClient(host string, port int, running func() bool) *Client {
	return &Client{
		Addr:        net.JoinHostPort(host, strconv.Itoa(port)),
		Running:     running,
		Attempts:    DefaultAttempts,
		Interval:    DefaultInterval,
		DialTimeout: DefaultDialTimeout,
		IOTimeout:   DefaultIOTimeout,
	}
}

// Execute sends the command and returns the raw return value of the server.
//
// It returns [ErrNotRunning] without connecting if the VM is not running.
// Connection failures are retried as long as the VM keeps running. If all
// attempts fail, [ErrControlChannelUnreachable] joined with the last error is
// returned. An error response of the server is returned as [CommandError]
// and not retried.
func (c *Client) Execute(ctx context.Context, cmd Command) (json.RawMessage, error) {
	attempts := max(c.Attempts, 1)

	var lastErr error

	for attempt := range attempts {
		if attempt > 0 {
			err := sleep(ctx, c.Interval)
			if err != nil {
				return nil, errors.Join(ErrControlChannelUnreachable, lastErr, err)
			}
		}

		if c.Running == nil || !c.Running() {
			if lastErr != nil {
				return nil, errors.Join(ErrNotRunning, lastErr)
			}

			return nil, ErrNotRunning
		}

		result, err := c.exchange(ctx, cmd)
		if err == nil {
			return result, nil
		}

		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			c.logger().Warn("QMP command failed",
				slog.String("command", cmd.Execute),
				slog.String("class", cmdErr.Class),
				slog.String("desc", cmdErr.Desc),
			)

			return nil, err
		}

		c.logger().Debug("QMP attempt failed",
			slog.Int("attempt", attempt+1),
			slog.String("addr", c.Addr),
			slog.Any("error", err),
		)

		lastErr = err
	}

	return nil, errors.Join(ErrControlChannelUnreachable, lastErr)
}

// Send executes the command on its own goroutine and never blocks. Failures
// are logged. The returned channel receives the result of [Client.Execute]
// and is closed afterwards.
func (c *Client) Send(ctx context.Context, cmd Command) <-chan error {
	result := make(chan error, 1)

	go func() {
		defer close(result)

		_, err := c.Execute(ctx, cmd)
		if err != nil && !errors.Is(err, &CommandError{}) {
			c.logger().Warn("QMP command not delivered",
				slog.String("command", cmd.Execute),
				slog.Any("error", err),
			)
		}

		result <- err
	}()

	return result
}

func (c *Client) exchange(ctx context.Context, cmd Command) (json.RawMessage, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if c.IOTimeout > 0 {
		err = conn.SetDeadline(time.Now().Add(c.IOTimeout))
		if err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var greeting message

	err = decoder.Decode(&greeting)
	if err != nil {
		return nil, fmt.Errorf("read greeting: %w", err)
	}

	if !greeting.isGreeting() {
		return nil, ErrInvalidGreeting
	}

	_, err = roundTrip(encoder, decoder, capabilities)
	if err != nil {
		return nil, err
	}

	result, err := roundTrip(encoder, decoder, cmd)
	if err != nil && cmd.Execute == Quit.Execute && errors.Is(err, io.EOF) {
		// QEMU may close the connection before answering quit.
		return nil, nil
	}

	return result, err
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialer := c.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	if c.DialTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.DialTimeout)
		defer cancel()
	}

	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return conn, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}

	return c.Logger
}

// roundTrip sends the command and reads its response. Asynchronous events
// received in between are skipped.
func roundTrip(
	encoder *json.Encoder,
	decoder *json.Decoder,
	cmd Command,
) (json.RawMessage, error) {
	err := encoder.Encode(cmd)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", cmd.Execute, err)
	}

	for {
		var msg message

		err := decoder.Decode(&msg)
		if err != nil {
			return nil, fmt.Errorf("read %s response: %w", cmd.Execute, err)
		}

		switch {
		case msg.isEvent():
			continue
		case msg.Error != nil:
			return nil, &CommandError{
				Command: cmd.Execute,
				Class:   msg.Error.Class,
				Desc:    msg.Error.Desc,
			}
		default:
			return msg.Return, nil
		}
	}
}

func sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
