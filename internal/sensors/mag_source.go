// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/mag_computer/internal/config"
	"github.com/relabs-tech/mag_computer/internal/lis2mdl"
	"github.com/relabs-tech/mag_computer/internal/mag"
)

// MagSource owns the LIS2MDL device and the I2C bus handle it lives
// on. It is single-owner: all access must stay on one goroutine.
type MagSource struct {
	Dev *lis2mdl.Dev
	bus i2c.BusCloser
}

// NewMagSource initializes the periph host, opens the configured I2C
// bus and brings up the LIS2MDL (reset + configuration + optional DRDY
// pin setup).
func NewMagSource() (*MagSource, error) {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("mag: periph host init: %w", err)
	}

	busName := cfg.MagI2CBus
	if busName == "" {
		busName = "1"
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("mag: i2c open %q: %w", busName, err)
	}

	var drdy gpio.PinIn
	if cfg.MagDRDYPin != "" {
		drdy = gpioreg.ByName(cfg.MagDRDYPin)
		if drdy == nil {
			bus.Close()
			return nil, fmt.Errorf("mag: DRDY pin %q not found", cfg.MagDRDYPin)
		}
	}

	dev, err := lis2mdl.New(bus, lis2mdl.Opts{
		Addr:         cfg.MagI2CAddr,
		ODR:          cfg.MagODR,
		DataReadyPin: drdy,
	})
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("mag: device init: %w", err)
	}

	// Presence check. A foreign WHO_AM_I is not fatal for the driver;
	// we log it and let the operator decide whether to trust the data.
	id, err := dev.ChipID()
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("mag: read chip ID: %w", err)
	}
	if id != lis2mdl.ChipIDValue {
		log.Printf("mag: WARNING: unexpected WHO_AM_I 0x%02X (want 0x%02X), continuing", id, lis2mdl.ChipIDValue)
	} else {
		log.Printf("mag: LIS2MDL present, WHO_AM_I=0x%02X, ODR code %d", id, dev.ODR())
	}

	return &MagSource{Dev: dev, bus: bus}, nil
}

// ReadSample reads one raw sample. Checking data-ready stays the
// caller's job, via Dev.Status or the DRDY pin.
func (s *MagSource) ReadSample() (mag.Sample, error) {
	return s.Dev.ReadSample()
}

// ReadRegister reads a single device register for the debug tooling.
func (s *MagSource) ReadRegister(addr byte) (byte, error) {
	return s.Dev.ReadRegister(addr)
}

// WriteRegister writes a single device register for the debug tooling.
func (s *MagSource) WriteRegister(addr, value byte) error {
	return s.Dev.WriteRegister(addr, value)
}

// ReadAllRegisters reads every register in the LIS2MDL map and returns
// address -> value.
func (s *MagSource) ReadAllRegisters() (map[byte]byte, error) {
	out := make(map[byte]byte)
	for _, info := range GetLIS2MDLRegisterMap() {
		var addr byte
		if _, err := fmt.Sscanf(info.Address, "0x%X", &addr); err != nil {
			return nil, fmt.Errorf("mag: bad register map address %q: %w", info.Address, err)
		}
		val, err := s.Dev.ReadRegister(addr)
		if err != nil {
			return nil, err
		}
		out[addr] = val
	}
	return out, nil
}

// Reinitialize resets the device and reapplies the driver
// configuration, recovering from ad-hoc register writes.
func (s *MagSource) Reinitialize() error {
	if err := s.Dev.Reset(); err != nil {
		return err
	}
	return s.Dev.Init(s.Dev.ODR())
}

// Close releases the bus handle.
func (s *MagSource) Close() error {
	return s.bus.Close()
}
