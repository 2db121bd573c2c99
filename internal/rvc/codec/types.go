// Package codec implements the Command Codec: encoding a normalized
// command into a device-family-specific sequence of RV-C CAN frames.
package codec

import "github.com/nerrad567/rvcbridge/internal/rvc/frame"

// DGN constants for the device families this codec supports.
const (
	DGNDCDimmer   uint32 = 0x1FEDB
	DGNThermostat uint32 = 0x1FEF9
)

// DefaultSourceAddress and DefaultPriority are used unless a target
// overrides them (vent/ceiling-fan loads use source address 96).
const (
	DefaultSourceAddress   uint8 = 99
	VentClassSourceAddress uint8 = 96
	DefaultPriority        uint8 = 6
)

// DC Dimmer command codes (payload byte 3), per spec.md §4.5.
const (
	CmdSetLevel       = 0
	CmdOnDelay        = 2
	CmdOffDelay       = 3
	CmdStop           = 4
	CmdToggle         = 5
	CmdRampBrightness = 17
	CmdRampUp         = 19
	CmdRampDown       = 20
	CmdRampDownUp     = 21
)

// Thermostat command bytes (payload bytes 1..7), per spec.md §4.5.
var (
	thermostatModeOff  = [7]byte{0xC0, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	thermostatModeCool = [7]byte{0xC1, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	thermostatModeHeat = [7]byte{0xC2, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	thermostatModeAuto = [7]byte{0xCF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

	thermostatFanLowHVAC  = [7]byte{0xDF, 0x64, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	thermostatFanHighHVAC = [7]byte{0xDF, 0xC8, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	thermostatFanLowOnly  = [7]byte{0xD4, 0x64, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	thermostatFanHighOnly = [7]byte{0xD4, 0xC8, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// Frame is one element of a FrameSequence: an arbitration id, an 8-byte
// payload, and the minimum delay to wait before sending it.
type Frame struct {
	ArbID      uint32
	Payload    [8]byte
	PreDelayMS uint32
}

// Sequence is an ordered, finite frame sequence. PreDelayMS of the first
// element is always 0.
type Sequence []Frame

// Target carries the RV-C-specific addressing a Command Codec needs for
// one entity: the load or zone instance, the device class (affecting
// source address selection), and, for ceiling fans, the load-pair id.
type Target struct {
	Instance         uint8
	DeviceClass      DeviceClass
	CeilingFanPairID uint8
}

// DeviceClass selects source-address and encoding variants within the DC
// Dimmer family.
type DeviceClass int

const (
	ClassGeneric DeviceClass = iota
	ClassVent
	ClassCeilingFan
)

func (c DeviceClass) sourceAddress() uint8 {
	if c == ClassVent || c == ClassCeilingFan {
		return VentClassSourceAddress
	}
	return DefaultSourceAddress
}

func arbID(dgn uint32, source uint8) uint32 {
	return frame.BuildArbID(DefaultPriority, dgn, source)
}
