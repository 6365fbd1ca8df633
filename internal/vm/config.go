// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/aibor/vmctl/internal/sys"
)

// DefaultName is used as storage key for configurations without name.
const DefaultName = "unnamed_vm"

// Bounds of the guest resources.
const (
	MinMemoryMB uint64 = 32
	MaxMemoryMB uint64 = 256000
	MinCores    uint64 = 1
	MaxCores    uint64 = 256
)

// Default resources.
const (
	DefaultMemoryMB uint64 = 2048
	DefaultCores    uint64 = 2
)

// CPUHost is the CPU model that passes the host CPU through to the guest. It
// requires hardware acceleration.
const CPUHost = "host"

// Accel selects the execution strategy for guest instructions.
type Accel string

const (
	// AccelAuto uses hardware acceleration if the host supports it and the
	// CPU model is [CPUHost]. Software emulation otherwise.
	AccelAuto Accel = "auto"
	// AccelHardware always uses the host's hardware accelerator.
	AccelHardware Accel = "hw"
	// AccelSoftware always uses software emulation (TCG).
	AccelSoftware Accel = "tcg"
)

// BootDevice is the single letter boot device code.
type BootDevice string

const (
	BootDisk    BootDevice = "c"
	BootCDROM   BootDevice = "d"
	BootFloppy  BootDevice = "a"
	BootNetwork BootDevice = "n"
)

// ParseBootDevice parses a boot device code. Besides the plain letter, it
// accepts labels with the letter in parentheses, like "Disk (c)".
func ParseBootDevice(s string) (BootDevice, bool) {
	s = strings.TrimSpace(s)

	if open := strings.LastIndex(s, "("); open >= 0 && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[open+1 : len(s)-1])
	}

	boot := BootDevice(strings.ToLower(s))
	if !slices.Contains(bootDevices, boot) {
		return "", false
	}

	return boot, true
}

// DiskRole tags the purpose of a [Disk].
type DiskRole string

const (
	RoleDisk      DiskRole = "disk"
	RoleSecondary DiskRole = "secondary"
	RoleCDROM     DiskRole = "cdrom"
	RoleFloppy    DiskRole = "floppy"
	RoleFlash     DiskRole = "flash"
)

// DiskInterface is the bus a disk is attached to.
type DiskInterface string

const (
	InterfaceVirtio DiskInterface = "virtio"
	InterfaceIDE    DiskInterface = "ide"
	InterfaceSCSI   DiskInterface = "scsi"
)

// Disk is a storage medium attached to the guest.
type Disk struct {
	Role DiskRole
	Path string
	// Interface defaults to [InterfaceVirtio] if empty.
	Interface DiskInterface
	// Format is the image format. It is inferred from the file extension
	// if empty.
	Format string
}

// IsISO returns true if the disk path has an ".iso" extension. Such disks are
// always attached as CD-ROM.
func (d Disk) IsISO() bool {
	return strings.EqualFold(filepath.Ext(d.Path), ".iso")
}

// NetBackend is the host side of the guest network.
type NetBackend string

const (
	// NetDefault leaves the network to QEMU's defaults.
	NetDefault NetBackend = ""
	NetUser    NetBackend = "user"
	NetTap     NetBackend = "tap"
	NetBridge  NetBackend = "bridge"
	NetSocket  NetBackend = "socket"
	NetNone    NetBackend = "none"
)

// Network configures the guest network.
type Network struct {
	Backend NetBackend
	// Model is the guest NIC model, e.g. virtio-net-pci, e1000, rtl8139.
	Model string
	// HostForward is a user mode port forward rule like "tcp::2222-:22".
	HostForward string
	// Ifname is the tap interface or bridge name.
	Ifname string
	// Socket is the socket backend endpoint like "listen=:1234".
	Socket string
	MAC    string
}

// DisplayBackend is the QEMU display frontend.
type DisplayBackend string

const (
	// DisplayDefault lets QEMU pick the native window of the host.
	DisplayDefault DisplayBackend = ""
	DisplayGTK     DisplayBackend = "gtk"
	DisplaySDL     DisplayBackend = "sdl"
	DisplayCocoa   DisplayBackend = "cocoa"
	DisplayVNC     DisplayBackend = "vnc"
	// DisplayNone runs the guest headless.
	DisplayNone DisplayBackend = "none"
)

// Display configures the guest graphics output.
type Display struct {
	Backend DisplayBackend
	// VNC is the VNC endpoint, like ":1". Required for [DisplayVNC].
	VNC string
	// VGA is the video adapter model, e.g. std, virtio, qxl.
	VGA        string
	GL         bool
	Fullscreen bool
}

// Audio configures guest sound. It is disabled if Driver is empty or "none".
type Audio struct {
	// Driver is the host audio backend, e.g. pa, alsa, coreaudio, dsound.
	Driver string
	// Model is the guest sound card, e.g. intel-hda, AC97, sb16.
	Model string
}

// Enabled returns true if an audio driver is configured.
func (a Audio) Enabled() bool {
	return a.Driver != "" && a.Driver != "none"
}

// USB configures the USB controller and an optional input device.
type USB struct {
	Enabled bool
	// Device is one of "tablet", "mouse", "keyboard" or "host:VID:PID".
	Device string
}

// Toggles are boolean QEMU options without value.
type Toggles struct {
	NoDefaults   bool
	NoUserConfig bool
	NoACPI       bool
	NoHPET       bool
	NoReboot     bool
	NoShutdown   bool
	Snapshot     bool
	StartPaused  bool
}

// Debug configures QEMU's own debugging facilities.
type Debug struct {
	// Items are the comma separated log items for "-d".
	Items string
	// LogFile receives the debug log instead of stderr.
	LogFile string
	// Trace is a trace event pattern.
	Trace string
	// GDB is the gdbstub device, like "tcp::1234".
	GDB string
}

// Expert holds raw QEMU option values that are passed through.
type Expert struct {
	Objects []string
	Globals []string
	AddFDs  []string
	Devices []string
}

// Config is the complete user settable configuration of a virtual machine.
type Config struct {
	Name    string
	Arch    sys.Arch
	Machine string
	CPU     string
	Accel   Accel

	MemoryMB uint64
	Cores    uint64

	UUID    string
	PIDFile string
	NUMA    []string

	Toggles Toggles

	Disks []Disk
	Boot  BootDevice

	Network Network
	Display Display
	USB     USB

	Kernel string
	Initrd string
	Append string
	DTB    string
	BIOS   string

	Audio  Audio
	Debug  Debug
	Expert Expert

	// ExtraArgs is a shell quoted string of additional QEMU arguments.
	ExtraArgs string

	// LauncherPath is the QEMU executable. If empty, it is derived from the
	// architecture.
	LauncherPath string
}

// DefaultCPU returns the CPU model used if none is configured. Windows hosts
// lack a reliable host passthrough.
func DefaultCPU() string {
	if runtime.GOOS == "windows" {
		return "max"
	}

	return CPUHost
}

// Default returns a new [Config] with default values.
func Default() *Config {
	return &Config{
		Name:     DefaultName,
		Arch:     sys.X86_64,
		Machine:  sys.X86_64.DefaultMachine(),
		CPU:      DefaultCPU(),
		Accel:    AccelAuto,
		MemoryMB: DefaultMemoryMB,
		Cores:    DefaultCores,
		Boot:     BootDisk,
		Network: Network{
			Backend: NetUser,
			Model:   "virtio-net-pci",
		},
	}
}

// StorageName returns the name used as storage key. Blank names fall back to
// [DefaultName].
func (c *Config) StorageName() string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return DefaultName
	}

	return name
}

// Launcher returns the QEMU executable path or name.
func (c *Config) Launcher() string {
	if c.LauncherPath != "" {
		return c.LauncherPath
	}

	return c.Arch.Executable()
}

// WantsHostCPU returns true if the CPU model requests host passthrough,
// optionally with feature flags.
func (c *Config) WantsHostCPU() bool {
	return c.CPU == CPUHost || strings.HasPrefix(c.CPU, CPUHost+",")
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.NUMA = slices.Clone(c.NUMA)
	clone.Disks = slices.Clone(c.Disks)
	clone.Expert = Expert{
		Objects: slices.Clone(c.Expert.Objects),
		Globals: slices.Clone(c.Expert.Globals),
		AddFDs:  slices.Clone(c.Expert.AddFDs),
		Devices: slices.Clone(c.Expert.Devices),
	}

	return &clone
}

// PrimaryDisk returns the index of the first disk with [RoleDisk], or -1.
func (c *Config) PrimaryDisk() int {
	return slices.IndexFunc(c.Disks, func(d Disk) bool {
		return d.Role == RoleDisk
	})
}

var (
	bootDevices = []BootDevice{BootDisk, BootCDROM, BootFloppy, BootNetwork}
	accels      = []Accel{AccelAuto, AccelHardware, AccelSoftware}
	diskRoles   = []DiskRole{
		RoleDisk, RoleSecondary, RoleCDROM, RoleFloppy, RoleFlash,
	}
	diskInterfaces = []DiskInterface{
		InterfaceVirtio, InterfaceIDE, InterfaceSCSI,
	}
	netBackends = []NetBackend{NetUser, NetTap, NetBridge, NetSocket, NetNone}
	displays    = []DisplayBackend{
		DisplayGTK, DisplaySDL, DisplayCocoa, DisplayVNC, DisplayNone,
	}
)
