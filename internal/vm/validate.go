// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"fmt"
	"slices"
	"strings"
)

// Validate checks all fields against their kind constraints and known
// incompatibilities between fields.
//
// File paths are not checked for existence.
func (c *Config) Validate() error {
	for _, field := range Fields() {
		err := field.Check(c)
		if err != nil {
			return err
		}
	}

	for idx, disk := range c.Disks {
		err := validateDisk(disk)
		if err != nil {
			err.Field = fmt.Sprintf("disks[%d].%s", idx, err.Field)
			return err
		}
	}

	return c.validateDependencies()
}

func validateDisk(disk Disk) *ConfigError {
	if !slices.Contains(diskRoles, disk.Role) {
		return invalid("role", "unknown disk role %q", disk.Role)
	}

	if disk.Interface != "" && !slices.Contains(diskInterfaces, disk.Interface) {
		return invalid("interface", "unknown disk interface %q", disk.Interface)
	}

	return nil
}

func (c *Config) validateDependencies() error {
	if c.Kernel == "" {
		dependents := []struct{ field, value string }{
			{"initrd", c.Initrd},
			{"append", c.Append},
			{"dtb", c.DTB},
		}
		for _, dep := range dependents {
			if dep.value != "" {
				return invalid(dep.field, "requires kernel")
			}
		}
	}

	switch c.Network.Backend {
	case NetTap, NetBridge:
		if c.Network.Ifname == "" {
			return invalid("net_ifname", "required for %s backend",
				c.Network.Backend)
		}
	case NetSocket:
		if c.Network.Socket == "" {
			return invalid("net_socket", "required for socket backend")
		}
	case NetDefault, NetUser, NetNone:
	}

	if c.Network.HostForward != "" && c.Network.Backend != NetUser {
		return invalid("hostfwd", "only supported with user backend")
	}

	if c.Display.Backend == DisplayVNC && c.Display.VNC == "" {
		return invalid("vnc", "required for vnc display")
	}

	if c.Display.GL && !slices.Contains(glDisplays, c.Display.Backend) {
		return invalid("gl", "requires one of the displays gtk, sdl, cocoa")
	}

	if c.USB.Device != "" {
		if !c.USB.Enabled {
			return invalid("usb_device", "requires usb")
		}

		if _, err := usbDevice(c.USB.Device); err != nil {
			return err
		}
	}

	return nil
}

var glDisplays = []DisplayBackend{DisplayGTK, DisplaySDL, DisplayCocoa}

// USBDevice returns the QEMU device value for the configured USB device. It
// returns an empty string if no device is configured.
func (c *Config) USBDevice() (string, error) {
	if c.USB.Device == "" {
		return "", nil
	}

	return usbDevice(c.USB.Device)
}

func usbDevice(device string) (string, error) {
	switch device {
	case "tablet":
		return "usb-tablet", nil
	case "mouse":
		return "usb-mouse", nil
	case "keyboard", "kbd":
		return "usb-kbd", nil
	}

	const hostParts = 3

	parts := strings.Split(device, ":")
	if len(parts) == hostParts && parts[0] == "host" &&
		parts[1] != "" && parts[2] != "" {
		return fmt.Sprintf("usb-host,vendorid=0x%s,productid=0x%s",
			strings.TrimPrefix(parts[1], "0x"),
			strings.TrimPrefix(parts[2], "0x"),
		), nil
	}

	return "", invalid("usb_device", "unknown device %q", device)
}
