// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"testing"
)

func TestLIS2MDLRegisterMap(t *testing.T) {
	seen := map[string]string{}
	for _, info := range GetLIS2MDLRegisterMap() {
		var addr byte
		if _, err := fmt.Sscanf(info.Address, "0x%X", &addr); err != nil {
			t.Errorf("register %s: unparseable address %q", info.Name, info.Address)
		}
		if prev, dup := seen[info.Address]; dup {
			t.Errorf("address %s used by both %s and %s", info.Address, prev, info.Name)
		}
		seen[info.Address] = info.Name

		switch info.Access {
		case "R", "W", "RW":
		default:
			t.Errorf("register %s: invalid access %q", info.Name, info.Access)
		}
	}

	// The registers the driver depends on must be present.
	for _, addr := range []string{"0x4F", "0x60", "0x61", "0x62", "0x67", "0x68", "0x6E"} {
		if _, ok := seen[addr]; !ok {
			t.Errorf("register map is missing %s", addr)
		}
	}
}
