// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

// le splits a signed 16-bit value into its little-endian byte pair.
func le(v int16) (lo, hi byte) {
	u := uint16(v)
	return byte(u), byte(u >> 8)
}

// testDev wires a Dev to a playback bus with sleeps recorded instead
// of taken.
func testDev(pb *i2ctest.Playback, delays *[]time.Duration) *Dev {
	return &Dev{
		dev: i2c.Dev{Addr: DefaultAddr, Bus: pb},
		sleep: func(d time.Duration) {
			*delays = append(*delays, d)
		},
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		lo, hi byte
		want   int16
	}{
		{0x00, 0x00, 0},
		{0x01, 0x00, 1},
		{0x00, 0x01, 256},
		{0xFF, 0x7F, 32767},  // max positive
		{0x00, 0x80, -32768}, // sign boundary
		{0xFF, 0xFF, -1},
		{0x9C, 0xFF, -100},
	}
	for _, c := range cases {
		if got := decode(c.lo, c.hi); got != c.want {
			t.Errorf("decode(0x%02X, 0x%02X) = %d, want %d", c.lo, c.hi, got, c.want)
		}
	}
}

func TestResetSequence(t *testing.T) {
	const cra = 0x8C // whatever configuration the part happens to hold
	pb := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []byte{regCfgA}, R: []byte{cra}},
			{Addr: DefaultAddr, W: []byte{regCfgA, cra | 0x20}},
			{Addr: DefaultAddr, W: []byte{regCfgA, cra | 0x40}},
		},
	}
	var delays []time.Duration
	d := testDev(&pb, &delays)

	if err := d.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("unconsumed bus ops: %v", err)
	}
	want := []time.Duration{resetDelay, bootDelay}
	if len(delays) != len(want) || delays[0] != want[0] || delays[1] != want[1] {
		t.Errorf("settle delays = %v, want %v", delays, want)
	}
}

func TestInitSequenceIdempotent(t *testing.T) {
	const odr = ODR100Hz
	configWrites := []i2ctest.IO{
		{Addr: DefaultAddr, W: []byte{regCfgA, 0x80 | odr<<2}},
		{Addr: DefaultAddr, W: []byte{regCfgB, 0x01}},
		{Addr: DefaultAddr, W: []byte{regCfgC, 0x11}},
	}
	// Init twice with the same rate must issue the same three writes
	// both times.
	pb := i2ctest.Playback{Ops: append(append([]i2ctest.IO{}, configWrites...), configWrites...)}
	var delays []time.Duration
	d := testDev(&pb, &delays)

	for i := 0; i < 2; i++ {
		if err := d.Init(odr); err != nil {
			t.Fatalf("Init #%d: %v", i+1, err)
		}
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("unconsumed bus ops: %v", err)
	}
	if d.ODR() != odr {
		t.Errorf("ODR() = %d, want %d", d.ODR(), odr)
	}
}

func TestInitRejectsBadRate(t *testing.T) {
	pb := i2ctest.Playback{}
	var delays []time.Duration
	d := testDev(&pb, &delays)
	if err := d.Init(4); err == nil {
		t.Fatal("Init(4) succeeded, want error")
	}
}

func TestReadSample(t *testing.T) {
	xl, xh := le(32767)
	yl, yh := le(-32768)
	zl, zh := le(-1)
	pb := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []byte{regOutXL | burstFlag}, R: []byte{xl, xh, yl, yh, zl, zh}},
		},
	}
	var delays []time.Duration
	d := testDev(&pb, &delays)

	s, err := d.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample: %v", err)
	}
	if s.Mx != 32767 || s.My != -32768 || s.Mz != -1 {
		t.Errorf("sample = %+v, want {32767 -32768 -1}", s)
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("unconsumed bus ops: %v", err)
	}
}

func TestReadTemperature(t *testing.T) {
	lo, hi := le(-345)
	pb := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []byte{regTempL | burstFlag}, R: []byte{lo, hi}},
		},
	}
	var delays []time.Duration
	d := testDev(&pb, &delays)

	temp, err := d.ReadTemperature()
	if err != nil {
		t.Fatalf("ReadTemperature: %v", err)
	}
	if temp != -345 {
		t.Errorf("temperature = %d, want -345", temp)
	}
}

func TestChipIDAndStatus(t *testing.T) {
	pb := i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []byte{regWhoAmI}, R: []byte{ChipIDValue}},
			{Addr: DefaultAddr, W: []byte{regStatus}, R: []byte{StatusDataReady}},
		},
	}
	var delays []time.Duration
	d := testDev(&pb, &delays)

	id, err := d.ChipID()
	if err != nil {
		t.Fatalf("ChipID: %v", err)
	}
	if id != ChipIDValue {
		t.Errorf("chip ID = 0x%02X, want 0x%02X", id, ChipIDValue)
	}

	st, err := d.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st&StatusDataReady == 0 {
		t.Errorf("status = 0x%02X, data-ready bit not set", st)
	}
}

func TestTransportFailureSurfaces(t *testing.T) {
	// An exhausted playback makes every transfer fail; the error must
	// reach the caller instead of stale zeroed data.
	pb := i2ctest.Playback{DontPanic: true}
	var delays []time.Duration
	d := testDev(&pb, &delays)

	if _, err := d.ReadSample(); err == nil {
		t.Error("ReadSample returned no error on transport failure")
	}
	if _, err := d.ChipID(); err == nil {
		t.Error("ChipID returned no error on transport failure")
	}
	if err := d.Init(ODR10Hz); err == nil {
		t.Error("Init returned no error on transport failure")
	}
}

func TestNew(t *testing.T) {
	const cra = 0x00
	pb := i2ctest.Playback{
		Ops: []i2ctest.IO{
			// Reset sequence.
			{Addr: DefaultAddr, W: []byte{regCfgA}, R: []byte{cra}},
			{Addr: DefaultAddr, W: []byte{regCfgA, cra | 0x20}},
			{Addr: DefaultAddr, W: []byte{regCfgA, cra | 0x40}},
			// Configuration writes for ODR50Hz.
			{Addr: DefaultAddr, W: []byte{regCfgA, 0x80 | ODR50Hz<<2}},
			{Addr: DefaultAddr, W: []byte{regCfgB, 0x01}},
			{Addr: DefaultAddr, W: []byte{regCfgC, 0x11}},
		},
	}
	d, err := New(&pb, Opts{ODR: ODR50Hz})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("unconsumed bus ops: %v", err)
	}
	if d.ODR() != ODR50Hz {
		t.Errorf("ODR() = %d, want %d", d.ODR(), ODR50Hz)
	}
}
