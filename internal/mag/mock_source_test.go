// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mag

import "testing"

func TestMockSourceStaysInBand(t *testing.T) {
	src := NewMockSource()
	for i := 0; i < 100; i++ {
		s, err := src.ReadSample()
		if err != nil {
			t.Fatalf("ReadSample: %v", err)
		}
		for axis, v := range [3]int16{s.Mx, s.My, s.Mz} {
			if v < -1000 || v > 1000 {
				t.Fatalf("axis %d sample %d out of the synthetic field band", axis, v)
			}
		}
	}
}
