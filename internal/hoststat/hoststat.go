// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hoststat samples host and VM process resource usage.
package hoststat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// DefaultInterval is the default sampling interval.
const DefaultInterval = 2 * time.Second

const mebibyte = 1 << 20

// Sample is a single resource usage measurement.
type Sample struct {
	HostCPUPercent    float64
	HostMemoryPercent float64

	// PID of the VM process. Process values are zero if it is 0.
	PID               int
	ProcessCPUPercent float64
	ProcessRSS        uint64
}

// String implements [fmt.Stringer].
func (s Sample) String() string {
	str := fmt.Sprintf("host cpu %.1f%% mem %.1f%%",
		s.HostCPUPercent, s.HostMemoryPercent)

	if s.PID != 0 {
		str += fmt.Sprintf(" | vm pid %d cpu %.1f%% rss %d MiB",
			s.PID, s.ProcessCPUPercent, s.ProcessRSS/mebibyte)
	}

	return str
}

// Collect takes a [Sample]. Host CPU usage is measured over the given window.
// A pid of 0 skips process values.
func Collect(ctx context.Context, window time.Duration, pid int) (Sample, error) {
	sample := Sample{PID: pid}

	percents, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return sample, fmt.Errorf("host cpu: %w", err)
	}

	if len(percents) > 0 {
		sample.HostCPUPercent = percents[0]
	}

	memory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return sample, fmt.Errorf("host memory: %w", err)
	}

	sample.HostMemoryPercent = memory.UsedPercent

	if pid == 0 {
		return sample, nil
	}

	proc, err := process.NewProcessWithContext(ctx, int32(pid)) //nolint:gosec
	if err != nil {
		return sample, fmt.Errorf("process %d: %w", pid, err)
	}

	memInfo, memErr := proc.MemoryInfoWithContext(ctx)
	if memErr == nil {
		sample.ProcessRSS = memInfo.RSS
	}

	cpuPercent, cpuErr := proc.CPUPercentWithContext(ctx)
	if cpuErr == nil {
		sample.ProcessCPUPercent = cpuPercent
	}

	err = errors.Join(memErr, cpuErr)
	if err != nil {
		return sample, fmt.Errorf("process %d: %w", pid, err)
	}

	return sample, nil
}

// Watch collects samples every interval and passes them to fn until the
// context is canceled. The pid func is called for each sample, so the
// process may change. Sampling errors are passed to fn along with the
// partial sample.
func Watch(
	ctx context.Context,
	interval time.Duration,
	pid func() int,
	fn func(Sample, error),
) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	// The CPU window takes half the interval, the rest is idle.
	window := interval / 2 //nolint:mnd

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sample, err := Collect(ctx, window, pid())
		if ctx.Err() != nil {
			return
		}

		fn(sample, err)
	}
}
