// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// BitField describes one named field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo carries register metadata for the debug tooling.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// GetLIS2MDLRegisterMap returns metadata for all LIS2MDL registers.
// This provides register names, descriptions, access types, and bit field definitions.
func GetLIS2MDLRegisterMap() []RegisterInfo {
	return []RegisterInfo{
		// Hard-iron offset registers
		{Address: "0x45", Name: "OFFSET_X_REG_L", Description: "Hard-iron offset X Low Byte", Access: "RW", Default: "0x00"},
		{Address: "0x46", Name: "OFFSET_X_REG_H", Description: "Hard-iron offset X High Byte", Access: "RW", Default: "0x00"},
		{Address: "0x47", Name: "OFFSET_Y_REG_L", Description: "Hard-iron offset Y Low Byte", Access: "RW", Default: "0x00"},
		{Address: "0x48", Name: "OFFSET_Y_REG_H", Description: "Hard-iron offset Y High Byte", Access: "RW", Default: "0x00"},
		{Address: "0x49", Name: "OFFSET_Z_REG_L", Description: "Hard-iron offset Z Low Byte", Access: "RW", Default: "0x00"},
		{Address: "0x4A", Name: "OFFSET_Z_REG_H", Description: "Hard-iron offset Z High Byte", Access: "RW", Default: "0x00"},

		// Identification
		{Address: "0x4F", Name: "WHO_AM_I", Description: "Device Identification", Access: "R", Default: "0x40"},

		// Configuration Registers
		{Address: "0x60", Name: "CFG_REG_A", Description: "Configuration Register A", Access: "RW", Default: "0x03",
			BitFields: []BitField{
				{Bits: "7", Name: "COMP_TEMP_EN", Description: "Temperature compensation", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "REBOOT", Description: "Reboot memory content", Values: "0=Normal, 1=Reboot"},
				{Bits: "5", Name: "SOFT_RST", Description: "Soft reset of configuration and user registers", Values: "0=Normal, 1=Reset"},
				{Bits: "4", Name: "LP", Description: "Low-power mode", Values: "0=High resolution, 1=Low power"},
				{Bits: "3:2", Name: "ODR", Description: "Output Data Rate", Values: "0=10Hz, 1=20Hz, 2=50Hz, 3=100Hz"},
				{Bits: "1:0", Name: "MD", Description: "Operating mode", Values: "0=Continuous, 1=Single, 2/3=Idle"},
			}},
		{Address: "0x61", Name: "CFG_REG_B", Description: "Configuration Register B", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "4", Name: "OFF_CANC_ONE_SHOT", Description: "Offset cancellation in single mode", Values: "0=Disabled, 1=Enabled"},
				{Bits: "3", Name: "INT_on_DataOFF", Description: "Interrupt check after offset correction", Values: ""},
				{Bits: "2", Name: "Set_FREQ", Description: "Set pulse frequency", Values: "0=Every 63 ODR, 1=Power-on only"},
				{Bits: "1", Name: "OFF_CANC", Description: "Offset cancellation", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "LPF", Description: "Low-pass filter", Values: "0=ODR/2 bandwidth, 1=ODR/4 bandwidth"},
			}},
		{Address: "0x62", Name: "CFG_REG_C", Description: "Configuration Register C", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "6", Name: "INT_on_PIN", Description: "Route interrupt signal to INT pin", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "I2C_DIS", Description: "Disable I2C interface", Values: "0=Enabled, 1=SPI only"},
				{Bits: "4", Name: "BDU", Description: "Block data update", Values: "0=Continuous, 1=Output not updated until MSB and LSB read"},
				{Bits: "3", Name: "BLE", Description: "Big/little endian data selection", Values: "0=LSB at lower address"},
				{Bits: "1", Name: "Self_test", Description: "Self-test stimulus", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "DRDY_on_PIN", Description: "Route data-ready to DRDY pin", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x63", Name: "INT_CRTL_REG", Description: "Interrupt Control Register", Access: "RW", Default: "0xE0",
			BitFields: []BitField{
				{Bits: "7", Name: "XIEN", Description: "X axis interrupt", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "YIEN", Description: "Y axis interrupt", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "ZIEN", Description: "Z axis interrupt", Values: "0=Disabled, 1=Enabled"},
				{Bits: "2", Name: "IEA", Description: "Interrupt polarity", Values: "0=Active low, 1=Active high"},
				{Bits: "1", Name: "IEL", Description: "Interrupt latching", Values: "0=Pulsed, 1=Latched"},
				{Bits: "0", Name: "IEN", Description: "Interrupt enable", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: "0x64", Name: "INT_SOURCE_REG", Description: "Interrupt Source Register", Access: "R"},
		{Address: "0x65", Name: "INT_THS_L_REG", Description: "Interrupt Threshold Low Byte", Access: "RW", Default: "0x00"},
		{Address: "0x66", Name: "INT_THS_H_REG", Description: "Interrupt Threshold High Byte", Access: "RW", Default: "0x00"},

		// Status
		{Address: "0x67", Name: "STATUS_REG", Description: "Status Register", Access: "R",
			BitFields: []BitField{
				{Bits: "7", Name: "Zyxor", Description: "XYZ overrun, new data overwrote the previous set", Values: ""},
				{Bits: "6", Name: "zor", Description: "Z axis overrun", Values: ""},
				{Bits: "5", Name: "yor", Description: "Y axis overrun", Values: ""},
				{Bits: "4", Name: "xor", Description: "X axis overrun", Values: ""},
				{Bits: "3", Name: "Zyxda", Description: "XYZ new data available", Values: ""},
				{Bits: "2", Name: "zda", Description: "Z axis new data available", Values: ""},
				{Bits: "1", Name: "yda", Description: "Y axis new data available", Values: ""},
				{Bits: "0", Name: "xda", Description: "X axis new data available", Values: ""},
			}},

		// Output Registers (Read-Only)
		{Address: "0x68", Name: "OUTX_L_REG", Description: "Magnetometer X-Axis Low Byte", Access: "R"},
		{Address: "0x69", Name: "OUTX_H_REG", Description: "Magnetometer X-Axis High Byte", Access: "R"},
		{Address: "0x6A", Name: "OUTY_L_REG", Description: "Magnetometer Y-Axis Low Byte", Access: "R"},
		{Address: "0x6B", Name: "OUTY_H_REG", Description: "Magnetometer Y-Axis High Byte", Access: "R"},
		{Address: "0x6C", Name: "OUTZ_L_REG", Description: "Magnetometer Z-Axis Low Byte", Access: "R"},
		{Address: "0x6D", Name: "OUTZ_H_REG", Description: "Magnetometer Z-Axis High Byte", Access: "R"},
		{Address: "0x6E", Name: "TEMP_OUT_L_REG", Description: "Temperature Low Byte", Access: "R"},
		{Address: "0x6F", Name: "TEMP_OUT_H_REG", Description: "Temperature High Byte", Access: "R"},
	}
}
