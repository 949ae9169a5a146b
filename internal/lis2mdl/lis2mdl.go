// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/mag_computer/internal/mag"
)

// I2C register map for the LIS2MDL.
const (
	regWhoAmI = 0x4F
	regCfgA   = 0x60
	regCfgB   = 0x61
	regCfgC   = 0x62
	regStatus = 0x67
	regOutXL  = 0x68 // X LSB, X MSB, Y LSB, Y MSB, Z LSB, Z MSB
	regTempL  = 0x6E // temperature LSB, MSB
)

// Fixed I2C address of the LIS2MDL.
const DefaultAddr = 0x1E

// ChipIDValue is the WHO_AM_I response of a genuine LIS2MDL. Callers
// should verify it before trusting data reads; a mismatch is not fatal
// for this package.
const ChipIDValue = 0x40

// Sensitivity is the fixed output resolution in gauss per LSB. It is a
// device calibration constant, not user-configurable, and applies to
// every raw-to-physical conversion in this package.
const Sensitivity = 0.0015

// Setting bit 7 of a sub-address selects auto-increment (burst) mode.
const burstFlag = 0x80

// Output data rate codes for CFG_REG_A bits 3:2.
const (
	ODR10Hz byte = iota
	ODR20Hz
	ODR50Hz
	ODR100Hz
)

// CFG_REG_A control bits.
const (
	bitSoftReset = 0x20
	bitReboot    = 0x40
	bitTempComp  = 0x80
)

// CFG_REG_C control bits.
const (
	bitDRDYOnInt = 0x01
	bitSelfTest  = 0x02
	bitBDU       = 0x10
)

// STATUS_REG bits.
const (
	StatusDataReady = 0x08 // new x/y/z sample available
	StatusOverrun   = 0x80 // x/y/z sample overwritten before read
)

// Hardware settle times after the reset and reboot writes. These are
// dictated by the part, not tunable.
const (
	resetDelay = 1 * time.Millisecond
	bootDelay  = 100 * time.Millisecond
)

// Opts holds initialization options.
//
// Addr: I2C address, default 0x1E (the part has no address pins, so
// this only matters behind an address translator).
// ODR: output data rate code, ODR10Hz..ODR100Hz.
// DataReadyPin: optional pin wired to the LIS2MDL INT/DRDY output. New
// only configures it as a digital input; servicing the interrupt is up
// to the caller.
type Opts struct {
	Addr         uint16
	ODR          byte
	DataReadyPin gpio.PinIn
}

// Dev represents a LIS2MDL device on an I2C bus.
//
// Dev is not safe for concurrent use: the device and bus assume a
// single logical owner, so serialize access on one goroutine.
type Dev struct {
	dev   i2c.Dev
	odr   byte
	sleep func(time.Duration)
}

// New resets and configures the device. The reset/boot sequence and
// its settle times are mandatory before the first data read.
func New(bus i2c.Bus, opts Opts) (*Dev, error) {
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	if opts.ODR > ODR100Hz {
		return nil, fmt.Errorf("lis2mdl: invalid ODR code %d (valid 0-3)", opts.ODR)
	}

	d := &Dev{
		dev:   i2c.Dev{Addr: addr, Bus: bus},
		sleep: time.Sleep,
	}

	if err := d.Reset(); err != nil {
		return nil, err
	}
	if err := d.Init(opts.ODR); err != nil {
		return nil, err
	}

	if opts.DataReadyPin != nil {
		if err := opts.DataReadyPin.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
			return nil, fmt.Errorf("lis2mdl: configure DRDY pin: %w", err)
		}
	}
	return d, nil
}

// Reset performs the soft-reset then reboot sequence. The reset write
// must precede the reboot write, with the hardware settle delay after
// each one.
func (d *Dev) Reset() error {
	cra, err := d.readReg(regCfgA)
	if err != nil {
		return err
	}
	if err := d.writeReg(regCfgA, cra|bitSoftReset); err != nil {
		return err
	}
	d.sleep(resetDelay)
	if err := d.writeReg(regCfgA, cra|bitReboot); err != nil {
		return err
	}
	d.sleep(bootDelay)
	return nil
}

// Init writes the three configuration registers: temperature
// compensation + continuous conversion + the requested rate, low-pass
// filter at ODR/4, and block data update + data-ready on the INT pin.
// The registers are independent but all three writes must complete
// before sampling begins. Calling Init again with the same rate issues
// the same writes; the only state carried is the configured rate.
func (d *Dev) Init(odr byte) error {
	if odr > ODR100Hz {
		return fmt.Errorf("lis2mdl: invalid ODR code %d (valid 0-3)", odr)
	}
	if err := d.writeReg(regCfgA, bitTempComp|odr<<2); err != nil {
		return err
	}
	if err := d.writeReg(regCfgB, 0x01); err != nil {
		return err
	}
	if err := d.writeReg(regCfgC, bitDRDYOnInt|bitBDU); err != nil {
		return err
	}
	d.odr = odr
	return nil
}

// ODR returns the output data rate code configured by the last Init.
func (d *Dev) ODR() byte {
	return d.odr
}

// ChipID reads the WHO_AM_I register, expected ChipIDValue.
func (d *Dev) ChipID() (byte, error) {
	return d.readReg(regWhoAmI)
}

// Status reads the status register. Callers poll StatusDataReady here
// (or watch the DRDY pin) before each sample read; ReadSample itself
// does not check readiness.
func (d *Dev) Status() (byte, error) {
	return d.readReg(regStatus)
}

// ReadSample burst-reads the six output registers and decodes them
// little-endian into signed x, y, z counts.
func (d *Dev) ReadSample() (mag.Sample, error) {
	var buf [6]byte
	if err := d.readBurst(regOutXL, buf[:]); err != nil {
		return mag.Sample{}, err
	}
	return mag.Sample{
		Mx: decode(buf[0], buf[1]),
		My: decode(buf[2], buf[3]),
		Mz: decode(buf[4], buf[5]),
	}, nil
}

// ReadTemperature burst-reads the temperature register pair and
// decodes it little-endian.
func (d *Dev) ReadTemperature() (int16, error) {
	var buf [2]byte
	if err := d.readBurst(regTempL, buf[:]); err != nil {
		return 0, err
	}
	return decode(buf[0], buf[1]), nil
}

// ReadRegister reads a single register by address. Diagnostics only;
// normal operation goes through the typed accessors above.
func (d *Dev) ReadRegister(reg byte) (byte, error) {
	return d.readReg(reg)
}

// WriteRegister writes a single register by address. Diagnostics only.
// Writing configuration registers directly can leave the device in a
// state the driver does not expect; call Init to recover.
func (d *Dev) WriteRegister(reg, val byte) error {
	return d.writeReg(reg, val)
}

// decode assembles two little-endian bytes into a signed 16-bit value.
func decode(lo, hi byte) int16 {
	return int16(hi)<<8 | int16(lo)
}

// Register access layer. Every call is one bus transaction; no caching,
// no retry. Transport failures surface as errors instead of the stale
// or zeroed data the part would otherwise appear to return.

func (d *Dev) writeReg(reg, val byte) error {
	if err := d.dev.Tx([]byte{reg, val}, nil); err != nil {
		return fmt.Errorf("lis2mdl: write reg 0x%02X: %w", reg, err)
	}
	return nil
}

func (d *Dev) readReg(reg byte) (byte, error) {
	var buf [1]byte
	if err := d.dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, fmt.Errorf("lis2mdl: read reg 0x%02X: %w", reg, err)
	}
	return buf[0], nil
}

func (d *Dev) readBurst(reg byte, out []byte) error {
	if err := d.dev.Tx([]byte{reg | burstFlag}, out); err != nil {
		return fmt.Errorf("lis2mdl: burst read reg 0x%02X (%d bytes): %w", reg, len(out), err)
	}
	return nil
}
