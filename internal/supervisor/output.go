// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Output stream names passed to a [LineSink].
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// LineSink receives the output of the process line by line.
type LineSink func(stream, line string)

// LogSink returns a [LineSink] that writes each line as log record.
func LogSink(logger *slog.Logger) LineSink {
	return func(stream, line string) {
		logger.Info(line, slog.String("stream", stream))
	}
}

// WriterSink returns a [LineSink] that writes each line to the given writer.
func WriterSink(w io.Writer) LineSink {
	return func(_, line string) {
		_, _ = fmt.Fprintln(w, line)
	}
}

// MaxLineLength is the maximum length of a line passed to a [LineSink].
// Longer lines are split into several calls.
const MaxLineLength = 64 * 1024

// copyLines reads lines from src and passes the non empty ones to the sink
// until src is exhausted. After a read error, the rest of src is discarded,
// so the writing process never blocks on a full pipe.
func copyLines(sink LineSink, stream string, src io.Reader) error {
	reader := bufio.NewReaderSize(src, MaxLineLength)

	for {
		chunk, err := reader.ReadSlice('\n')

		line := strings.TrimRight(string(chunk), "\r\n")
		if len(line) > 0 {
			sink(stream, line)
		}

		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
		case errors.Is(err, io.EOF):
			return nil
		default:
			_, _ = io.Copy(io.Discard, reader)
			return fmt.Errorf("read %s: %w", stream, err)
		}
	}
}
