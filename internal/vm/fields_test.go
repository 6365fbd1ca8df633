// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm_test

import (
	"testing"

	"github.com/aibor/vmctl/internal/sys"
	"github.com/aibor/vmctl/internal/vm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsUnique(t *testing.T) {
	seen := map[string]bool{}

	for _, field := range vm.Fields() {
		assert.False(t, seen[field.Key], "duplicate key %s", field.Key)
		seen[field.Key] = true
		assert.NotEmpty(t, field.Usage, field.Key)
	}
}

func TestLookupField(t *testing.T) {
	field, ok := vm.LookupField("memory")
	require.True(t, ok)
	assert.Equal(t, vm.KindNumber, field.Kind)
	assert.Equal(t, vm.MinMemoryMB, field.Min)
	assert.Equal(t, vm.MaxMemoryMB, field.Max)

	_, ok = vm.LookupField("nope")
	assert.False(t, ok)
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected func(*vm.Config)
		err      error
	}{
		{
			name:  "memory",
			input: []string{"memory=4096"},
			expected: func(cfg *vm.Config) {
				cfg.MemoryMB = 4096
			},
		},
		{
			name:  "memory below minimum",
			input: []string{"memory=16"},
			err:   vm.ErrInvalidConfiguration,
		},
		{
			name:  "memory not a number",
			input: []string{"memory=lots"},
			err:   vm.ErrInvalidConfiguration,
		},
		{
			name:  "smp above maximum",
			input: []string{"smp=257"},
			err:   vm.ErrInvalidConfiguration,
		},
		{
			name:  "unknown field",
			input: []string{"colour=blue"},
			err:   vm.ErrUnknownField,
		},
		{
			name:  "missing equal sign",
			input: []string{"memory"},
			err:   vm.ErrInvalidConfiguration,
		},
		{
			name:  "invalid choice",
			input: []string{"accel=fast"},
			err:   vm.ErrInvalidConfiguration,
		},
		{
			name:  "boolean",
			input: []string{"snapshot=true", "no_reboot=1"},
			expected: func(cfg *vm.Config) {
				cfg.Toggles.Snapshot = true
				cfg.Toggles.NoReboot = true
			},
		},
		{
			name:  "invalid boolean",
			input: []string{"snapshot=maybe"},
			err:   vm.ErrInvalidConfiguration,
		},
		{
			name:  "arch follows machine",
			input: []string{"arch=aarch64"},
			expected: func(cfg *vm.Config) {
				cfg.Arch = sys.AArch64
				cfg.Machine = "virt"
			},
		},
		{
			name:  "arch keeps custom machine",
			input: []string{"machine=microvm", "arch=i386"},
			expected: func(cfg *vm.Config) {
				cfg.Arch = sys.I386
				cfg.Machine = "microvm"
			},
		},
		{
			name:  "primary disk with interface",
			input: []string{"disk=/vm/a.qcow2", "disk_interface=ide"},
			expected: func(cfg *vm.Config) {
				cfg.Disks = []vm.Disk{{
					Role:      vm.RoleDisk,
					Path:      "/vm/a.qcow2",
					Interface: vm.InterfaceIDE,
				}}
			},
		},
		{
			name:  "primary disk removed",
			input: []string{"disk=/vm/a.qcow2", "disk="},
			expected: func(cfg *vm.Config) {
				cfg.Disks = []vm.Disk{}
			},
		},
		{
			name:  "interface without disk",
			input: []string{"disk_interface=scsi"},
			err:   vm.ErrInvalidConfiguration,
		},
		{
			name:  "cdrom list",
			input: []string{"cdrom=a.iso", "cdrom=b.iso"},
			expected: func(cfg *vm.Config) {
				cfg.Disks = []vm.Disk{
					{Role: vm.RoleCDROM, Path: "a.iso"},
					{Role: vm.RoleCDROM, Path: "b.iso"},
				}
			},
		},
		{
			name:  "list cleared",
			input: []string{"device=virtio-rng-pci", "device="},
			expected: func(cfg *vm.Config) {
				cfg.Expert.Devices = nil
			},
		},
		{
			name:  "malformed uuid",
			input: []string{"uuid=not-a-uuid"},
			err:   vm.ErrInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := vm.Default()

			var err error
			for _, input := range tt.input {
				err = cfg.Assign(input)
				if err != nil {
					break
				}
			}

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)

			expected := vm.Default()
			tt.expected(expected)
			assert.Equal(t, expected, cfg)
		})
	}
}

func TestAssignInvalidKeepsConfig(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "memory below minimum", input: "memory=10"},
		{name: "memory above maximum", input: "memory=99999999"},
		{name: "smp zero", input: "smp=0"},
		{name: "malformed uuid", input: "uuid=bogus"},
		{name: "not a boolean", input: "snapshot=maybe"},
		{name: "unknown choice", input: "boot=z"},
		{name: "interface without disk", input: "disk_interface=virtio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := vm.Default()
			require.NoError(t, cfg.Assign("memory=2048"))
			require.NoError(t, cfg.Assign("uuid=0f2d4a8c-3b1e-4c6f-9a7d-5e8b1c2d3f4a"))
			require.NoError(t, cfg.Assign("cdrom=a.iso"))

			expected := cfg.Clone()

			err := cfg.Assign(tt.input)
			require.ErrorIs(t, err, vm.ErrInvalidConfiguration)
			assert.Equal(t, expected, cfg)
		})
	}
}

func TestAssignUUIDAuto(t *testing.T) {
	cfg := vm.Default()

	require.NoError(t, cfg.Assign("uuid=auto"))

	_, err := uuid.Parse(cfg.UUID)
	require.NoError(t, err)
}

func TestFieldValues(t *testing.T) {
	cfg := vm.Default()
	require.NoError(t, cfg.Assign("cdrom=a.iso"))
	require.NoError(t, cfg.Assign("floppy=f.img"))
	require.NoError(t, cfg.Assign("cdrom=b.iso"))

	tests := map[string][]string{
		"memory":   {"2048"},
		"accel":    {"auto"},
		"snapshot": {"false"},
		"cdrom":    {"a.iso", "b.iso"},
		"floppy":   {"f.img"},
		"disk":     {""},
	}

	for key, expected := range tests {
		t.Run(key, func(t *testing.T) {
			field, ok := vm.LookupField(key)
			require.True(t, ok)
			assert.Equal(t, expected, field.Values(cfg))
		})
	}

	assert.Len(t, cfg.Disks, 3, "reading values must not add disks")
}

func TestFieldDescribe(t *testing.T) {
	field, ok := vm.LookupField("boot")
	require.True(t, ok)
	assert.Contains(t, field.Describe(), "boot (choice)")
	assert.Contains(t, field.Describe(), "[c|d|a|n]")
}
