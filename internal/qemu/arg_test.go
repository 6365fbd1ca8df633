// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/aibor/vmctl/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentString(t *testing.T) {
	assert.Equal(t, "-snapshot", qemu.UniqueArg("snapshot").String())
	assert.Equal(t, "-drive file=a,if=ide",
		qemu.RepeatableArg("drive", "file=a", "if=ide").String())
	assert.Equal(t, "disk.img", qemu.PositionalArg("disk.img").String())
}

func TestArgumentEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     qemu.Argument
		expected bool
	}{
		{
			name:     "unique same name",
			a:        qemu.UniqueArg("m", "1024"),
			b:        qemu.UniqueArg("m", "2048"),
			expected: true,
		},
		{
			name: "unique different name",
			a:    qemu.UniqueArg("m", "1024"),
			b:    qemu.UniqueArg("smp", "1024"),
		},
		{
			name: "repeatable different value",
			a:    qemu.RepeatableArg("device", "usb-tablet"),
			b:    qemu.RepeatableArg("device", "usb-kbd"),
		},
		{
			name:     "repeatable same value",
			a:        qemu.RepeatableArg("device", "usb-tablet"),
			b:        qemu.RepeatableArg("device", "usb-tablet"),
			expected: true,
		},
		{
			name: "positional same value",
			a:    qemu.PositionalArg("disk.img"),
			b:    qemu.PositionalArg("disk.img"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Equal(tt.b))
		})
	}
}

func TestBuildArgumentStrings(t *testing.T) {
	t.Run("builds", func(t *testing.T) {
		args := []qemu.Argument{
			qemu.UniqueArg("m", "64"),
			qemu.RepeatableArg("device", "a"),
			qemu.RepeatableArg("device", "b"),
			qemu.UniqueArg("snapshot"),
		}

		actual, err := qemu.BuildArgumentStrings(args)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"-m", "64",
			"-device", "a",
			"-device", "b",
			"-snapshot",
		}, actual)
	})

	t.Run("positional", func(t *testing.T) {
		args := []qemu.Argument{
			qemu.UniqueArg("m", "64"),
			qemu.PositionalArg("disk.img"),
			qemu.PositionalArg("disk.img"),
			qemu.UniqueArg("snapshot"),
		}

		actual, err := qemu.BuildArgumentStrings(args)
		require.NoError(t, err)
		assert.Equal(t, []string{"-m", "64", "disk.img", "disk.img", "-snapshot"}, actual)
	})

	t.Run("collision", func(t *testing.T) {
		args := []qemu.Argument{
			qemu.UniqueArg("m", "64"),
			qemu.UniqueArg("m", "128"),
		}

		_, err := qemu.BuildArgumentStrings(args)
		require.ErrorIs(t, err, qemu.ErrArgumentCollision)
	})
}
