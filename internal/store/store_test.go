// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/vmctl/internal/qemu"
	"github.com/aibor/vmctl/internal/store"
	"github.com/aibor/vmctl/internal/sys"
	"github.com/aibor/vmctl/internal/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullConfig() *vm.Config {
	cfg := vm.Default()
	cfg.Name = "alpine"
	cfg.Arch = sys.AArch64
	cfg.Machine = "virt"
	cfg.CPU = "cortex-a72"
	cfg.Accel = vm.AccelSoftware
	cfg.MemoryMB = 4096
	cfg.Cores = 4
	cfg.UUID = "7d444840-9dc0-11d1-b245-5ffdce74fad2"
	cfg.NUMA = []string{"node,nodeid=0"}
	cfg.Toggles = vm.Toggles{NoReboot: true, Snapshot: true}
	cfg.Disks = []vm.Disk{
		{Role: vm.RoleDisk, Path: "/vm/alpine.qcow2", Interface: vm.InterfaceSCSI},
		{Role: vm.RoleCDROM, Path: "/isos/alpine.iso"},
		{Role: vm.RoleFlash, Path: "/vm/efi.fd", Format: "raw"},
	}
	cfg.Boot = vm.BootCDROM
	cfg.Network = vm.Network{
		Backend:     vm.NetUser,
		Model:       "e1000",
		HostForward: "tcp::2222-:22",
	}
	cfg.Display = vm.Display{Backend: vm.DisplayGTK, GL: true}
	cfg.Audio = vm.Audio{Driver: "pa", Model: "AC97"}
	cfg.USB = vm.USB{Enabled: true, Device: "tablet"}
	cfg.Kernel = "vmlinuz"
	cfg.Append = "console=ttyAMA0"
	cfg.Debug = vm.Debug{GDB: "tcp::1234"}
	cfg.Expert = vm.Expert{Devices: []string{"virtio-rng-pci"}}
	cfg.ExtraArgs = "-rtc base=utc"
	cfg.LauncherPath = "/opt/qemu/bin/qemu-system-aarch64"

	return cfg
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := store.New(t.TempDir())
	cfg := fullConfig()

	require.NoError(t, s.Save(cfg))

	loaded, err := s.Load("alpine")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveBlankName(t *testing.T) {
	s := store.New(t.TempDir())
	cfg := vm.Default()
	cfg.Name = " "

	require.NoError(t, s.Save(cfg))

	path, err := s.Path(vm.DefaultName)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestSaveDropsEmptyDisks(t *testing.T) {
	s := store.New(t.TempDir())
	cfg := vm.Default()
	cfg.Disks = []vm.Disk{
		{Role: vm.RoleDisk},
		{Role: vm.RoleSecondary, Path: "b.qcow2"},
	}

	require.NoError(t, s.Save(cfg))

	loaded, err := s.Load(vm.DefaultName)
	require.NoError(t, err)
	assert.Equal(t, []vm.Disk{{Role: vm.RoleSecondary, Path: "b.qcow2"}}, loaded.Disks)
}

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected func(*vm.Config)
	}{
		{
			name:    "empty object",
			content: `{}`,
		},
		{
			name:    "minimal flat format",
			content: `{"name": "old", "ram": 1024, "disk": "/vm/old.iso", "boot": "CD-ROM (d)", "unknown": 1}`,
			expected: func(c *vm.Config) {
				c.Name = "old"
				c.MemoryMB = 1024
				c.Boot = vm.BootCDROM
				c.Disks = []vm.Disk{{Role: vm.RoleDisk, Path: "/vm/old.iso"}}
			},
		},
		{
			name:    "legacy disk boot label",
			content: `{"boot": "Disk (c)", "smp": 8}`,
			expected: func(c *vm.Config) {
				c.Cores = 8
			},
		},
		{
			name:    "legacy arch label",
			content: `{"arch": "Arm (64-bit)", "machine": "virt", "boot": "Disk (c)"}`,
			expected: func(c *vm.Config) {
				c.Arch = sys.AArch64
				c.Machine = "virt"
			},
		},
		{
			name:    "unknown arch kept",
			content: `{"arch": "Z80"}`,
			expected: func(c *vm.Config) {
				c.Arch = "Z80"
			},
		},
		{
			name:    "partial network",
			content: `{"network": {"hostfwd": "tcp::8080-:80"}}`,
			expected: func(c *vm.Config) {
				c.Network.HostForward = "tcp::8080-:80"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(dir, "vm1"), 0o755))
			require.NoError(t, os.WriteFile(
				filepath.Join(dir, "vm1", store.ConfigFileName),
				[]byte(tt.content),
				0o600,
			))

			loaded, err := store.New(dir).Load("vm1")
			require.NoError(t, err)

			expected := vm.Default()
			expected.Name = "vm1"

			if tt.expected != nil {
				tt.expected(expected)
			}

			assert.Equal(t, expected, loaded)
		})
	}
}

func TestLoadLegacyArchCompiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pi"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "pi", store.ConfigFileName),
		[]byte(`{"name": "pi", "arch": "Arm (64-bit)", "machine": "virt", "cpu": "cortex-a72", "boot": "Disk (c)"}`),
		0o600,
	))

	loaded, err := store.New(dir).Load("pi")
	require.NoError(t, err)

	argv, err := qemu.Compiler{HostOS: "linux"}.Compile(loaded, 4444)
	require.NoError(t, err)
	assert.Equal(t, "qemu-system-aarch64", argv[0])
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broken"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "broken", store.ConfigFileName),
		[]byte(`{"ram": "lots"`),
		0o600,
	))

	s := store.New(dir)

	_, err := s.Load("missing")
	require.ErrorIs(t, err, &store.Error{})
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = s.Load("broken")
	require.ErrorIs(t, err, &store.Error{})

	_, err = s.Load("../escape")
	require.ErrorIs(t, err, store.ErrInvalidName)
}

func TestSaveFailureKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir)
	cfg := vm.Default()
	cfg.Name = "keep"

	require.NoError(t, s.Save(cfg))

	path, err := s.Path("keep")
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	cfg.Name = "keep/../../escape"
	require.ErrorIs(t, s.Save(cfg), store.ErrInvalidName)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestListAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir)

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		cfg := vm.Default()
		cfg.Name = name
		require.NoError(t, s.Save(cfg))
	}

	// Directories without config are ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))

	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)

	require.NoError(t, s.Delete("mid"))
	assert.NoDirExists(t, filepath.Join(dir, "mid"))

	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	require.ErrorIs(t, s.Delete("mid"), fs.ErrNotExist)
}

func TestListMissingDir(t *testing.T) {
	names, err := store.New(filepath.Join(t.TempDir(), "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestPath(t *testing.T) {
	s := store.New("/base")

	path, err := s.Path("vm")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/base", "vm", "config.json"), path)

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := s.Path(name)
		require.ErrorIs(t, err, store.ErrInvalidName, name)
	}
}
