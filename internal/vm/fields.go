// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aibor/vmctl/internal/sys"
	"github.com/google/uuid"
)

// Kind is the static type tag of a configurable [Field].
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindChoice
	KindBoolean
	KindList
)

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindChoice:
		return "choice"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// UUIDAuto is the value that makes the uuid field generate a random UUID.
const UUIDAuto = "auto"

// Field describes a single configurable option of a [Config].
//
// Only the accessors matching the Kind are set.
type Field struct {
	Key   string
	Kind  Kind
	Usage string

	// Choices are the valid values of a [KindChoice] field. An empty value is
	// valid if Optional is set.
	Choices  []string
	Optional bool

	// Min and Max bound a [KindNumber] field.
	Min, Max uint64

	get     func(*Config) string
	put     func(*Config, string) error
	choice  func(*Config) string
	setChc  func(*Config, string) error
	number  func(*Config) *uint64
	boolean func(*Config) *bool
	list    func(*Config) []string
	add     func(*Config, string) error
	clear   func(*Config)
	check   func(*Config) error
}

// Values returns the current values of the field as strings. Scalar kinds
// return exactly one value.
func (f *Field) Values(cfg *Config) []string {
	switch f.Kind {
	case KindText:
		return []string{f.get(cfg)}
	case KindNumber:
		return []string{strconv.FormatUint(*f.number(cfg), 10)}
	case KindChoice:
		return []string{f.choice(cfg)}
	case KindBoolean:
		return []string{strconv.FormatBool(*f.boolean(cfg))}
	case KindList:
		return f.list(cfg)
	default:
		return nil
	}
}

// Set parses the value according to the field's kind and stores it in the
// given config. For [KindList] fields, the value is appended and an empty
// value clears the list. The config is left unchanged if the value is
// invalid.
func (f *Field) Set(cfg *Config, value string) error {
	staged := cfg.Clone()

	err := f.set(staged, value)
	if err != nil {
		return err
	}

	*cfg = *staged

	return nil
}

func (f *Field) set(cfg *Config, value string) error {
	switch f.Kind {
	case KindText:
		err := f.put(cfg, value)
		if err != nil {
			return err
		}
	case KindNumber:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return &ConfigError{Field: f.Key, Msg: "not a number", Err: err}
		}

		*f.number(cfg) = n
	case KindChoice:
		if !f.validChoice(value) {
			return f.choiceError(value)
		}

		return f.setChc(cfg, value)
	case KindBoolean:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &ConfigError{Field: f.Key, Msg: "not a boolean", Err: err}
		}

		*f.boolean(cfg) = b
	case KindList:
		if value == "" {
			f.clear(cfg)
			return nil
		}

		return f.add(cfg, value)
	}

	return f.Check(cfg)
}

// Check validates the field value of the given config.
func (f *Field) Check(cfg *Config) error {
	switch f.Kind {
	case KindNumber:
		n := *f.number(cfg)
		if n < f.Min || n > f.Max {
			return invalid(f.Key, "%d outside of range %d-%d", n, f.Min, f.Max)
		}
	case KindChoice:
		value := f.choice(cfg)
		if !f.validChoice(value) {
			return f.choiceError(value)
		}
	case KindText, KindBoolean, KindList:
	}

	if f.check != nil {
		return f.check(cfg)
	}

	return nil
}

func (f *Field) validChoice(value string) bool {
	if value == "" {
		return f.Optional
	}

	return slices.Contains(f.Choices, value)
}

func (f *Field) choiceError(value string) *ConfigError {
	return invalid(f.Key, "%q is not one of: %s",
		value, strings.Join(f.Choices, ", "))
}

// Fields returns the descriptors of all configurable options.
func Fields() []Field {
	return slices.Clone(fields)
}

// LookupField returns the descriptor with the given key.
func LookupField(key string) (Field, bool) {
	idx := slices.IndexFunc(fields, func(f Field) bool {
		return f.Key == key
	})
	if idx < 0 {
		return Field{}, false
	}

	return fields[idx], true
}

// Assign sets a field from a "key=value" string.
func (c *Config) Assign(assignment string) error {
	key, value, found := strings.Cut(assignment, "=")
	if !found {
		return &ConfigError{
			Field: assignment,
			Msg:   "expected key=value",
		}
	}

	field, exists := LookupField(strings.TrimSpace(key))
	if !exists {
		return &ConfigError{Field: key, Msg: "no such field", Err: ErrUnknownField}
	}

	return field.Set(c, value)
}

func textField(key, usage string, ptr func(*Config) *string) Field {
	return Field{
		Key:   key,
		Kind:  KindText,
		Usage: usage,
		get: func(cfg *Config) string {
			return *ptr(cfg)
		},
		put: func(cfg *Config, value string) error {
			*ptr(cfg) = value
			return nil
		},
	}
}

func numberField(
	key, usage string,
	lower, upper uint64,
	ptr func(*Config) *uint64,
) Field {
	return Field{
		Key:    key,
		Kind:   KindNumber,
		Usage:  usage,
		Min:    lower,
		Max:    upper,
		number: ptr,
	}
}

func boolField(key, usage string, ptr func(*Config) *bool) Field {
	return Field{Key: key, Kind: KindBoolean, Usage: usage, boolean: ptr}
}

func choiceField[T ~string](
	key, usage string,
	choices []T,
	optional bool,
	ptr func(*Config) *T,
) Field {
	strChoices := make([]string, 0, len(choices))
	for _, c := range choices {
		strChoices = append(strChoices, string(c))
	}

	return Field{
		Key:      key,
		Kind:     KindChoice,
		Usage:    usage,
		Choices:  strChoices,
		Optional: optional,
		choice: func(cfg *Config) string {
			return string(*ptr(cfg))
		},
		setChc: func(cfg *Config, value string) error {
			*ptr(cfg) = T(value)
			return nil
		},
	}
}

func listField(key, usage string, ptr func(*Config) *[]string) Field {
	return Field{
		Key:   key,
		Kind:  KindList,
		Usage: usage,
		list: func(cfg *Config) []string {
			return slices.Clone(*ptr(cfg))
		},
		add: func(cfg *Config, value string) error {
			*ptr(cfg) = append(*ptr(cfg), value)
			return nil
		},
		clear: func(cfg *Config) {
			*ptr(cfg) = nil
		},
	}
}

// diskListField manages all disks of a single non primary role.
func diskListField(key, usage string, role DiskRole) Field {
	return Field{
		Key:   key,
		Kind:  KindList,
		Usage: usage,
		list: func(cfg *Config) []string {
			var paths []string

			for _, disk := range cfg.Disks {
				if disk.Role == role {
					paths = append(paths, disk.Path)
				}
			}

			return paths
		},
		add: func(cfg *Config, value string) error {
			cfg.Disks = append(cfg.Disks, Disk{Role: role, Path: value})
			return nil
		},
		clear: func(cfg *Config) {
			cfg.Disks = slices.DeleteFunc(cfg.Disks, func(d Disk) bool {
				return d.Role == role
			})
		},
	}
}

// primaryDiskField manages the path of the primary disk. Setting an empty
// path removes the disk.
func primaryDiskField() Field {
	return Field{
		Key:   "disk",
		Kind:  KindText,
		Usage: "primary hard disk or ISO image path",
		get: func(cfg *Config) string {
			idx := cfg.PrimaryDisk()
			if idx < 0 {
				return ""
			}

			return cfg.Disks[idx].Path
		},
		put: func(cfg *Config, value string) error {
			idx := cfg.PrimaryDisk()

			switch {
			case value == "" && idx >= 0:
				cfg.Disks = slices.Delete(cfg.Disks, idx, idx+1)
			case value == "":
			case idx < 0:
				cfg.Disks = slices.Insert(cfg.Disks, 0,
					Disk{Role: RoleDisk, Path: value})
			default:
				cfg.Disks[idx].Path = value
			}

			return nil
		},
	}
}

func primaryDiskInterfaceField() Field {
	field := choiceField("disk_interface",
		"bus of the primary disk",
		diskInterfaces,
		true,
		func(cfg *Config) *DiskInterface {
			idx := cfg.PrimaryDisk()
			if idx < 0 {
				var unset DiskInterface
				return &unset
			}

			return &cfg.Disks[idx].Interface
		},
	)
	field.setChc = func(cfg *Config, value string) error {
		idx := cfg.PrimaryDisk()
		if idx < 0 {
			return invalid("disk_interface", "no primary disk configured")
		}

		cfg.Disks[idx].Interface = DiskInterface(value)

		return nil
	}

	return field
}

func uuidField() Field {
	field := textField("uuid", `machine UUID, "auto" generates one`,
		func(cfg *Config) *string { return &cfg.UUID })
	field.put = func(cfg *Config, value string) error {
		if value == UUIDAuto {
			value = uuid.NewString()
		}

		cfg.UUID = value

		return nil
	}
	field.check = func(cfg *Config) error {
		if cfg.UUID == "" {
			return nil
		}

		if _, err := uuid.Parse(cfg.UUID); err != nil {
			return &ConfigError{Field: "uuid", Msg: "malformed", Err: err}
		}

		return nil
	}

	return field
}

func archField() Field {
	field := choiceField("arch", "guest architecture", sys.Archs(), false,
		func(cfg *Config) *sys.Arch { return &cfg.Arch })
	field.setChc = func(cfg *Config, value string) error {
		previous := cfg.Arch
		cfg.Arch = sys.Arch(value)

		// Follow the architecture with the machine type unless the user
		// picked a custom one.
		if cfg.Machine == "" || cfg.Machine == previous.DefaultMachine() {
			cfg.Machine = cfg.Arch.DefaultMachine()
		}

		return nil
	}

	return field
}

var fields = []Field{
	textField("name", "configuration name",
		func(cfg *Config) *string { return &cfg.Name }),
	archField(),
	textField("machine", "machine type, e.g. q35, pc, virt, microvm",
		func(cfg *Config) *string { return &cfg.Machine }),
	textField("cpu", "CPU model, host for passthrough",
		func(cfg *Config) *string { return &cfg.CPU }),
	choiceField("accel", "accelerator", accels, false,
		func(cfg *Config) *Accel { return &cfg.Accel }),
	numberField("memory", "guest memory in MB", MinMemoryMB, MaxMemoryMB,
		func(cfg *Config) *uint64 { return &cfg.MemoryMB }),
	numberField("smp", "number of guest CPU cores", MinCores, MaxCores,
		func(cfg *Config) *uint64 { return &cfg.Cores }),
	uuidField(),
	textField("pidfile", "file QEMU writes its PID to",
		func(cfg *Config) *string { return &cfg.PIDFile }),
	listField("numa", "NUMA node options",
		func(cfg *Config) *[]string { return &cfg.NUMA }),
	boolField("nodefaults", "do not create default devices",
		func(cfg *Config) *bool { return &cfg.Toggles.NoDefaults }),
	boolField("no_user_config", "do not load user provided QEMU config",
		func(cfg *Config) *bool { return &cfg.Toggles.NoUserConfig }),
	boolField("no_acpi", "disable ACPI",
		func(cfg *Config) *bool { return &cfg.Toggles.NoACPI }),
	boolField("no_hpet", "disable HPET",
		func(cfg *Config) *bool { return &cfg.Toggles.NoHPET }),
	boolField("no_reboot", "exit instead of rebooting",
		func(cfg *Config) *bool { return &cfg.Toggles.NoReboot }),
	boolField("no_shutdown", "stop instead of exiting on guest shutdown",
		func(cfg *Config) *bool { return &cfg.Toggles.NoShutdown }),
	boolField("snapshot", "discard disk writes on exit",
		func(cfg *Config) *bool { return &cfg.Toggles.Snapshot }),
	boolField("start_paused", "do not start the CPU at startup",
		func(cfg *Config) *bool { return &cfg.Toggles.StartPaused }),
	primaryDiskField(),
	primaryDiskInterfaceField(),
	diskListField("secondary", "secondary hard disk paths", RoleSecondary),
	diskListField("cdrom", "CD-ROM image paths", RoleCDROM),
	diskListField("floppy", "floppy image paths", RoleFloppy),
	diskListField("flash", "flash image paths", RoleFlash),
	choiceField("boot", "boot device: c disk, d cdrom, a floppy, n network",
		bootDevices, false,
		func(cfg *Config) *BootDevice { return &cfg.Boot }),
	choiceField("net", "network backend", netBackends, true,
		func(cfg *Config) *NetBackend { return &cfg.Network.Backend }),
	textField("net_model", "guest NIC model",
		func(cfg *Config) *string { return &cfg.Network.Model }),
	textField("hostfwd", "user network port forward, e.g. tcp::2222-:22",
		func(cfg *Config) *string { return &cfg.Network.HostForward }),
	textField("net_ifname", "tap interface or bridge name",
		func(cfg *Config) *string { return &cfg.Network.Ifname }),
	textField("net_socket", "socket backend endpoint, e.g. listen=:1234",
		func(cfg *Config) *string { return &cfg.Network.Socket }),
	textField("mac", "guest NIC MAC address",
		func(cfg *Config) *string { return &cfg.Network.MAC }),
	choiceField("display", "display backend, empty for native window",
		displays, true,
		func(cfg *Config) *DisplayBackend { return &cfg.Display.Backend }),
	textField("vnc", "VNC endpoint, e.g. :1",
		func(cfg *Config) *string { return &cfg.Display.VNC }),
	textField("vga", "video adapter model",
		func(cfg *Config) *string { return &cfg.Display.VGA }),
	boolField("gl", "enable OpenGL",
		func(cfg *Config) *bool { return &cfg.Display.GL }),
	boolField("fullscreen", "start in full screen",
		func(cfg *Config) *bool { return &cfg.Display.Fullscreen }),
	boolField("usb", "enable USB controller",
		func(cfg *Config) *bool { return &cfg.USB.Enabled }),
	textField("usb_device", "USB input device: tablet, mouse, keyboard, host:VID:PID",
		func(cfg *Config) *string { return &cfg.USB.Device }),
	textField("kernel", "kernel image for direct boot",
		func(cfg *Config) *string { return &cfg.Kernel }),
	textField("initrd", "initial ramdisk",
		func(cfg *Config) *string { return &cfg.Initrd }),
	textField("append", "kernel command line",
		func(cfg *Config) *string { return &cfg.Append }),
	textField("dtb", "device tree blob",
		func(cfg *Config) *string { return &cfg.DTB }),
	textField("bios", "firmware image",
		func(cfg *Config) *string { return &cfg.BIOS }),
	textField("audio", "host audio driver, empty or none disables audio",
		func(cfg *Config) *string { return &cfg.Audio.Driver }),
	textField("audio_model", "guest sound card model",
		func(cfg *Config) *string { return &cfg.Audio.Model }),
	textField("debug", "QEMU debug log items",
		func(cfg *Config) *string { return &cfg.Debug.Items }),
	textField("debug_log", "QEMU debug log file",
		func(cfg *Config) *string { return &cfg.Debug.LogFile }),
	textField("trace", "trace event pattern",
		func(cfg *Config) *string { return &cfg.Debug.Trace }),
	textField("gdb", "gdbstub device, e.g. tcp::1234",
		func(cfg *Config) *string { return &cfg.Debug.GDB }),
	listField("object", "raw -object values",
		func(cfg *Config) *[]string { return &cfg.Expert.Objects }),
	listField("global", "raw -global values",
		func(cfg *Config) *[]string { return &cfg.Expert.Globals }),
	listField("add_fd", "raw -add-fd values",
		func(cfg *Config) *[]string { return &cfg.Expert.AddFDs }),
	listField("device", "raw -device values",
		func(cfg *Config) *[]string { return &cfg.Expert.Devices }),
	textField("extra", "additional shell quoted QEMU arguments",
		func(cfg *Config) *string { return &cfg.ExtraArgs }),
	textField("qemu_path", "QEMU executable, derived from arch if empty",
		func(cfg *Config) *string { return &cfg.LauncherPath }),
}

// Describe returns a human readable line for the field.
func (f *Field) Describe() string {
	desc := fmt.Sprintf("%s (%s): %s", f.Key, f.Kind, f.Usage)

	switch f.Kind {
	case KindNumber:
		desc += fmt.Sprintf(" [%d-%d]", f.Min, f.Max)
	case KindChoice:
		desc += " [" + strings.Join(f.Choices, "|") + "]"
	case KindText, KindBoolean, KindList:
	}

	return desc
}
