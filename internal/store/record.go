// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"slices"

	"github.com/aibor/vmctl/internal/sys"
	"github.com/aibor/vmctl/internal/vm"
)

// record is the persisted form of a [vm.Config]. The primary disk is stored
// in the flat "disk" and "disk_interface" keys, all other disks in "disks".
type record struct {
	Name          string       `json:"name"`
	Arch          string       `json:"arch"`
	Machine       string       `json:"machine"`
	CPU           string       `json:"cpu"`
	Accel         string       `json:"accel"`
	RAM           uint64       `json:"ram"`
	SMP           uint64       `json:"smp"`
	Disk          string       `json:"disk"`
	DiskInterface string       `json:"disk_interface"`
	DiskFormat    string       `json:"disk_format,omitempty"`
	Disks         []diskRecord `json:"disks"`
	Boot          string       `json:"boot"`
	QEMUPath      string       `json:"qemu_path"`
	Extra         string       `json:"extra"`

	UUID    string        `json:"uuid"`
	PIDFile string        `json:"pidfile"`
	NUMA    []string      `json:"numa"`
	Toggles togglesRecord `json:"toggles"`

	Network networkRecord `json:"network"`
	Display displayRecord `json:"display"`
	Audio   audioRecord   `json:"audio"`
	USB     usbRecord     `json:"usb"`

	Kernel string `json:"kernel"`
	Initrd string `json:"initrd"`
	Append string `json:"append"`
	DTB    string `json:"dtb"`
	BIOS   string `json:"bios"`

	Debug  debugRecord  `json:"debug"`
	Expert expertRecord `json:"expert"`
}

type diskRecord struct {
	Role      string `json:"role"`
	Path      string `json:"path"`
	Interface string `json:"interface,omitempty"`
	Format    string `json:"format,omitempty"`
}

type togglesRecord struct {
	NoDefaults   bool `json:"nodefaults"`
	NoUserConfig bool `json:"no_user_config"`
	NoACPI       bool `json:"no_acpi"`
	NoHPET       bool `json:"no_hpet"`
	NoReboot     bool `json:"no_reboot"`
	NoShutdown   bool `json:"no_shutdown"`
	Snapshot     bool `json:"snapshot"`
	StartPaused  bool `json:"start_paused"`
}

type networkRecord struct {
	Backend     string `json:"backend"`
	Model       string `json:"model"`
	HostForward string `json:"hostfwd"`
	Ifname      string `json:"ifname"`
	Socket      string `json:"socket"`
	MAC         string `json:"mac"`
}

type displayRecord struct {
	Backend    string `json:"backend"`
	VNC        string `json:"vnc"`
	VGA        string `json:"vga"`
	GL         bool   `json:"gl"`
	Fullscreen bool   `json:"fullscreen"`
}

type audioRecord struct {
	Driver string `json:"driver"`
	Model  string `json:"model"`
}

type usbRecord struct {
	Enabled bool   `json:"enabled"`
	Device  string `json:"device"`
}

type debugRecord struct {
	Items   string `json:"items"`
	LogFile string `json:"log_file"`
	Trace   string `json:"trace"`
	GDB     string `json:"gdb"`
}

type expertRecord struct {
	Objects []string `json:"objects"`
	Globals []string `json:"globals"`
	AddFDs  []string `json:"add_fds"`
	Devices []string `json:"devices"`
}

func newRecord(cfg *vm.Config) record {
	rec := record{
		Name:     cfg.StorageName(),
		Arch:     string(cfg.Arch),
		Machine:  cfg.Machine,
		CPU:      cfg.CPU,
		Accel:    string(cfg.Accel),
		RAM:      cfg.MemoryMB,
		SMP:      cfg.Cores,
		Boot:     string(cfg.Boot),
		QEMUPath: cfg.LauncherPath,
		Extra:    cfg.ExtraArgs,
		UUID:     cfg.UUID,
		PIDFile:  cfg.PIDFile,
		NUMA:     slices.Clone(cfg.NUMA),
		Toggles:  togglesRecord(cfg.Toggles),
		Network: networkRecord{
			Backend:     string(cfg.Network.Backend),
			Model:       cfg.Network.Model,
			HostForward: cfg.Network.HostForward,
			Ifname:      cfg.Network.Ifname,
			Socket:      cfg.Network.Socket,
			MAC:         cfg.Network.MAC,
		},
		Display: displayRecord{
			Backend:    string(cfg.Display.Backend),
			VNC:        cfg.Display.VNC,
			VGA:        cfg.Display.VGA,
			GL:         cfg.Display.GL,
			Fullscreen: cfg.Display.Fullscreen,
		},
		Audio:  audioRecord(cfg.Audio),
		USB:    usbRecord(cfg.USB),
		Kernel: cfg.Kernel,
		Initrd: cfg.Initrd,
		Append: cfg.Append,
		DTB:    cfg.DTB,
		BIOS:   cfg.BIOS,
		Debug:  debugRecord(cfg.Debug),
		Expert: expertRecord{
			Objects: slices.Clone(cfg.Expert.Objects),
			Globals: slices.Clone(cfg.Expert.Globals),
			AddFDs:  slices.Clone(cfg.Expert.AddFDs),
			Devices: slices.Clone(cfg.Expert.Devices),
		},
	}

	primary := cfg.PrimaryDisk()

	for idx, disk := range cfg.Disks {
		if disk.Path == "" {
			continue
		}

		if idx == primary {
			rec.Disk = disk.Path
			rec.DiskInterface = string(disk.Interface)
			rec.DiskFormat = disk.Format

			continue
		}

		rec.Disks = append(rec.Disks, diskRecord{
			Role:      string(disk.Role),
			Path:      disk.Path,
			Interface: string(disk.Interface),
			Format:    disk.Format,
		})
	}

	return rec
}

// config converts the record into a [vm.Config]. Disks without path are
// dropped. Legacy boot labels like "Disk (c)" and arch labels like
// "Arm (64-bit)" are mapped to their codes. Unknown values are kept, so
// validation reports them.
func (r *record) config() *vm.Config {
	cfg := &vm.Config{
		Name:         r.Name,
		Arch:         sys.Arch(r.Arch),
		Machine:      r.Machine,
		CPU:          r.CPU,
		Accel:        vm.Accel(r.Accel),
		MemoryMB:     r.RAM,
		Cores:        r.SMP,
		Boot:         vm.BootDevice(r.Boot),
		LauncherPath: r.QEMUPath,
		ExtraArgs:    r.Extra,
		UUID:         r.UUID,
		PIDFile:      r.PIDFile,
		NUMA:         slices.Clone(r.NUMA),
		Toggles:      vm.Toggles(r.Toggles),
		Network: vm.Network{
			Backend:     vm.NetBackend(r.Network.Backend),
			Model:       r.Network.Model,
			HostForward: r.Network.HostForward,
			Ifname:      r.Network.Ifname,
			Socket:      r.Network.Socket,
			MAC:         r.Network.MAC,
		},
		Display: vm.Display{
			Backend:    vm.DisplayBackend(r.Display.Backend),
			VNC:        r.Display.VNC,
			VGA:        r.Display.VGA,
			GL:         r.Display.GL,
			Fullscreen: r.Display.Fullscreen,
		},
		Audio:  vm.Audio(r.Audio),
		USB:    vm.USB(r.USB),
		Kernel: r.Kernel,
		Initrd: r.Initrd,
		Append: r.Append,
		DTB:    r.DTB,
		BIOS:   r.BIOS,
		Debug:  vm.Debug(r.Debug),
		Expert: vm.Expert{
			Objects: slices.Clone(r.Expert.Objects),
			Globals: slices.Clone(r.Expert.Globals),
			AddFDs:  slices.Clone(r.Expert.AddFDs),
			Devices: slices.Clone(r.Expert.Devices),
		},
	}

	if arch, ok := sys.ParseArch(r.Arch); ok {
		cfg.Arch = arch
	}

	if boot, ok := vm.ParseBootDevice(r.Boot); ok {
		cfg.Boot = boot
	}

	if r.Disk != "" {
		cfg.Disks = append(cfg.Disks, vm.Disk{
			Role:      vm.RoleDisk,
			Path:      r.Disk,
			Interface: vm.DiskInterface(r.DiskInterface),
			Format:    r.DiskFormat,
		})
	}

	for _, disk := range r.Disks {
		if disk.Path == "" {
			continue
		}

		cfg.Disks = append(cfg.Disks, vm.Disk{
			Role:      vm.DiskRole(disk.Role),
			Path:      disk.Path,
			Interface: vm.DiskInterface(disk.Interface),
			Format:    disk.Format,
		})
	}

	return cfg
}
