// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aibor/vmctl/internal/sys"
	"github.com/aibor/vmctl/internal/vm"
)

// QMPHost is the address the QMP control channel listens on.
const QMPHost = "127.0.0.1"

const (
	netdevID   = "net0"
	audiodevID = "snd0"
	maxFloppy  = 2
	maxPort    = 65535
)

// Compiler translates a [vm.Config] into a QEMU argument vector.
type Compiler struct {
	// Probe reports if hardware acceleration is available for a guest
	// architecture. A nil Probe reports no acceleration.
	Probe sys.AccelProbe

	// HostOS selects the hardware accelerator name, as in [runtime.GOOS].
	HostOS string
}

// HostCompiler is the [Compiler] for the running host.
var HostCompiler = Compiler{
	Probe:  sys.HostAccelAvailable,
	HostOS: sys.HostOS,
}

// Compile compiles the config with the [HostCompiler].
func Compile(cfg *vm.Config, port int) ([]string, error) {
	return HostCompiler.Compile(cfg, port)
}

// Compile returns the argument vector for the given config with the QMP
// control channel on the given local TCP port. The first element is the QEMU
// executable.
//
// All errors match [vm.ErrInvalidConfiguration].
func (c Compiler) Compile(cfg *vm.Config, port int) ([]string, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	if port < 1 || port > maxPort {
		return nil, &vm.ConfigError{
			Field: "port",
			Msg:   strconv.Itoa(port) + " outside of range 1-65535",
		}
	}

	args, err := c.arguments(cfg, port)
	if err != nil {
		return nil, err
	}

	extra, err := extraArguments(cfg.ExtraArgs, args)
	if err != nil {
		return nil, err
	}

	argStrings, err := BuildArgumentStrings(append(args, extra...))
	if err != nil {
		return nil, &vm.ConfigError{
			Field: "arguments",
			Msg:   "duplicate option",
			Err:   err,
		}
	}

	return append([]string{cfg.Launcher()}, argStrings...), nil
}

// Accelerator returns the accelerator name the config resolves to.
func (c Compiler) Accelerator(cfg *vm.Config) (string, error) {
	hardware := sys.HardwareAccel(c.HostOS)

	switch cfg.Accel {
	case vm.AccelSoftware:
		return sys.AccelTCG, nil
	case vm.AccelHardware:
		if hardware == "" {
			return "", &vm.ConfigError{
				Field: "accel",
				Msg:   "no hardware accelerator on " + c.HostOS,
			}
		}

		return hardware, nil
	case vm.AccelAuto:
		if hardware != "" && cfg.WantsHostCPU() &&
			c.Probe != nil && c.Probe(cfg.Arch) {
			return hardware, nil
		}

		return sys.AccelTCG, nil
	default:
		return "", &vm.ConfigError{
			Field: "accel",
			Msg:   "unknown accelerator " + string(cfg.Accel),
		}
	}
}

func (c Compiler) arguments(cfg *vm.Config, port int) ([]Argument, error) {
	accel, err := c.Accelerator(cfg)
	if err != nil {
		return nil, err
	}

	args := []Argument{
		UniqueArg("accel", accel),
		UniqueArg("qmp", "tcp:"+QMPHost+":"+strconv.Itoa(port),
			"server=on", "wait=off"),
		UniqueArg("m", strconv.FormatUint(cfg.MemoryMB, 10)),
		UniqueArg("smp", strconv.FormatUint(cfg.Cores, 10)),
	}

	args = appendIfSet(args, UniqueArg, "M", cfg.Machine)
	args = appendIfSet(args, UniqueArg, "cpu", cfg.CPU)
	args = appendIfSet(args, UniqueArg, "uuid", cfg.UUID)
	args = appendIfSet(args, UniqueArg, "pidfile", cfg.PIDFile)
	args = appendEach(args, "numa", cfg.NUMA)
	args = append(args, toggleArguments(cfg.Toggles)...)

	storage, err := storageArguments(cfg.Disks)
	if err != nil {
		return nil, err
	}

	args = append(args, storage...)
	args = append(args, UniqueArg("boot", string(cfg.Boot)))
	args = append(args, networkArguments(cfg.Network)...)
	args = append(args, displayArguments(cfg.Display)...)

	usb, err := usbArguments(cfg)
	if err != nil {
		return nil, err
	}

	args = append(args, usb...)

	args = appendIfSet(args, UniqueArg, "kernel", cfg.Kernel)
	args = appendIfSet(args, UniqueArg, "initrd", cfg.Initrd)
	args = appendIfSet(args, UniqueArg, "append", cfg.Append)
	args = appendIfSet(args, UniqueArg, "dtb", cfg.DTB)
	args = appendIfSet(args, UniqueArg, "bios", cfg.BIOS)

	args = append(args, audioArguments(cfg.Audio)...)

	args = appendIfSet(args, UniqueArg, "d", cfg.Debug.Items)
	args = appendIfSet(args, UniqueArg, "D", cfg.Debug.LogFile)
	args = appendIfSet(args, RepeatableArg, "trace", cfg.Debug.Trace)
	args = appendIfSet(args, UniqueArg, "gdb", cfg.Debug.GDB)

	args = appendEach(args, "object", cfg.Expert.Objects)
	args = appendEach(args, "global", cfg.Expert.Globals)
	args = appendEach(args, "add-fd", cfg.Expert.AddFDs)
	args = appendEach(args, "device", cfg.Expert.Devices)

	return args, nil
}

func appendIfSet(
	args []Argument,
	newArg func(string, ...string) Argument,
	name, value string,
) []Argument {
	if value == "" {
		return args
	}

	return append(args, newArg(name, value))
}

func appendEach(args []Argument, name string, values []string) []Argument {
	for _, value := range values {
		args = append(args, RepeatableArg(name, value))
	}

	return args
}

func toggleArguments(toggles vm.Toggles) []Argument {
	flags := []struct {
		name string
		set  bool
	}{
		{"nodefaults", toggles.NoDefaults},
		{"no-user-config", toggles.NoUserConfig},
		{"no-acpi", toggles.NoACPI},
		{"no-hpet", toggles.NoHPET},
		{"no-reboot", toggles.NoReboot},
		{"no-shutdown", toggles.NoShutdown},
		{"snapshot", toggles.Snapshot},
		{"S", toggles.StartPaused},
	}

	var args []Argument

	for _, flag := range flags {
		if flag.set {
			args = append(args, UniqueArg(flag.name))
		}
	}

	return args
}

func storageArguments(disks []vm.Disk) ([]Argument, error) {
	var (
		args    []Argument
		cdroms  int
		floppys int
	)

	for _, disk := range disks {
		if disk.Path == "" {
			continue
		}

		file := "file=" + optionValue(disk.Path)

		switch {
		case disk.Role == vm.RoleCDROM || disk.IsISO():
			if cdroms == 0 {
				args = append(args, UniqueArg("cdrom", disk.Path))
			} else {
				args = append(args, RepeatableArg("drive", file, "media=cdrom"))
			}

			cdroms++
		case disk.Role == vm.RoleFloppy:
			if floppys == maxFloppy {
				return nil, &vm.ConfigError{
					Field: "floppy",
					Msg:   "at most two floppy drives supported",
				}
			}

			args = append(args, UniqueArg("fd"+string(rune('a'+floppys)), disk.Path))
			floppys++
		case disk.Role == vm.RoleFlash:
			args = append(args,
				RepeatableArg("drive", file, "if=pflash", "format=raw"))
		default:
			iface := disk.Interface
			if iface == "" {
				iface = vm.InterfaceVirtio
			}

			opts := []string{file, "if=" + string(iface)}
			if format := diskFormat(disk); format != "" {
				opts = append(opts, "format="+format)
			}

			args = append(args, RepeatableArg("drive", opts...))
		}
	}

	return args, nil
}

// diskFormat returns the configured image format or the one inferred from
// the file extension. It returns an empty string for unknown extensions, so
// QEMU probes the format itself.
func diskFormat(disk vm.Disk) string {
	if disk.Format != "" {
		return disk.Format
	}

	switch ext := strings.ToLower(filepath.Ext(disk.Path)); ext {
	case ".qcow2", ".vmdk", ".vdi", ".vhdx", ".raw":
		return strings.TrimPrefix(ext, ".")
	case ".img":
		return "raw"
	default:
		return ""
	}
}

func networkArguments(network vm.Network) []Argument {
	var netdev []string

	switch network.Backend {
	case vm.NetDefault:
		return nil
	case vm.NetNone:
		return []Argument{UniqueArg("nic", "none")}
	case vm.NetUser:
		netdev = []string{"user", "id=" + netdevID}
		if network.HostForward != "" {
			netdev = append(netdev, "hostfwd="+network.HostForward)
		}
	case vm.NetTap:
		netdev = []string{
			"tap", "id=" + netdevID,
			"ifname=" + network.Ifname,
			"script=no", "downscript=no",
		}
	case vm.NetBridge:
		netdev = []string{"bridge", "id=" + netdevID, "br=" + network.Ifname}
	case vm.NetSocket:
		netdev = []string{"socket", "id=" + netdevID, network.Socket}
	}

	model := network.Model
	if model == "" {
		model = "virtio-net-pci"
	}

	device := []string{model, "netdev=" + netdevID}
	if network.MAC != "" {
		device = append(device, "mac="+network.MAC)
	}

	return []Argument{
		UniqueArg("netdev", netdev...),
		RepeatableArg("device", device...),
	}
}

func displayArguments(display vm.Display) []Argument {
	var args []Argument

	switch display.Backend {
	case vm.DisplayDefault:
	case vm.DisplayVNC:
		args = append(args, UniqueArg("display", "vnc="+display.VNC))
	default:
		value := []string{string(display.Backend)}
		if display.GL {
			value = append(value, "gl=on")
		}

		args = append(args, UniqueArg("display", value...))
	}

	args = appendIfSet(args, UniqueArg, "vga", display.VGA)

	if display.Fullscreen {
		args = append(args, UniqueArg("full-screen"))
	}

	return args
}

func usbArguments(cfg *vm.Config) ([]Argument, error) {
	if !cfg.USB.Enabled {
		return nil, nil
	}

	args := []Argument{UniqueArg("usb")}

	device, err := cfg.USBDevice()
	if err != nil {
		return nil, err
	}

	return appendIfSet(args, RepeatableArg, "device", device), nil
}

func audioArguments(audio vm.Audio) []Argument {
	if !audio.Enabled() {
		return nil
	}

	args := []Argument{
		UniqueArg("audiodev", audio.Driver, "id="+audiodevID),
	}

	switch audio.Model {
	case "", "intel-hda", "ich9-intel-hda":
		controller := audio.Model
		if controller == "" {
			controller = "intel-hda"
		}

		args = append(args,
			RepeatableArg("device", controller),
			RepeatableArg("device", "hda-duplex", "audiodev="+audiodevID),
		)
	default:
		args = append(args,
			RepeatableArg("device", audio.Model, "audiodev="+audiodevID))
	}

	return args
}
