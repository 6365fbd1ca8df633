// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"errors"
	"fmt"

	"github.com/vishvananda/netlink"
)

// CheckHostInterface verifies that the named host network interface exists.
// If bridge is true, it must be a bridge device.
func CheckHostInterface(name string, bridge bool) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %s", ErrInterfaceNotFound, name)
		}

		return fmt.Errorf("lookup interface %s: %w", name, err)
	}

	if bridge && link.Type() != "bridge" {
		return fmt.Errorf("%w: %s is %s, not bridge",
			ErrInterfaceType, name, link.Type())
	}

	return nil
}
