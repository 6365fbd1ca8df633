// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build windows

package sys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostAccelAvailableWindows(t *testing.T) {
	t.Run("foreign arch", func(t *testing.T) {
		for _, arch := range []Arch{ARM, RISCV64} {
			if arch.IsNative() {
				continue
			}

			assert.False(t, HostAccelAvailable(arch), arch)
		}
	})

	t.Run("native", func(t *testing.T) {
		assert.NotPanics(t, func() {
			_ = HostAccelAvailable(Native)
		})
	})

	t.Run("unknown feature", func(t *testing.T) {
		assert.False(t, processorFeaturePresent(0xffff))
	})
}
