package codec

import "math"

// thermostatTempResolution is the RV-C setpoint resolution: 0.03125
// Kelvin per raw unit.
const thermostatTempResolution = 0.03125

// kelvinZeroOffsetC is the Celsius-to-Kelvin additive offset used by the
// setpoint formula, per spec.md §4.5.
const kelvinZeroOffsetC = 273.0

func thermostatArbID() uint32 {
	return arbID(DGNThermostat, DefaultSourceAddress)
}

// EncodeClimateMode encodes a thermostat mode command: a single frame,
// byte 0 the zone instance, bytes 1..7 the fixed pattern for the mode.
// Supports {off, cool, heat, auto}, resolving spec.md §9's open question
// in favor of the wider set.
func EncodeClimateMode(instance uint8, mode string) (Sequence, error) {
	bytes, ok := modeBytes(mode)
	if !ok {
		return nil, newError("unsupported climate mode %q", mode)
	}
	return Sequence{{ArbID: thermostatArbID(), Payload: payloadWithTail(instance, bytes)}}, nil
}

func modeBytes(mode string) ([7]byte, bool) {
	switch mode {
	case "off":
		return thermostatModeOff, true
	case "cool":
		return thermostatModeCool, true
	case "heat":
		return thermostatModeHeat, true
	case "auto":
		return thermostatModeAuto, true
	default:
		return [7]byte{}, false
	}
}

// EncodeClimateFanMode encodes a thermostat fan mode command. currentMode
// selects between the fan-only variant (mode is "off" or "fan") and the
// HVAC-tied fan variant (every other mode, including an empty one),
// matching the reference encoder's default.
func EncodeClimateFanMode(instance uint8, fanMode, currentMode string) (Sequence, error) {
	fanOnly := currentMode == "off" || currentMode == "fan"
	var bytes [7]byte
	switch {
	case fanMode == "auto" && fanOnly:
		bytes = thermostatModeOff
	case fanMode == "auto":
		bytes = thermostatModeAuto
	case fanMode == "low" && fanOnly:
		bytes = thermostatFanLowOnly
	case fanMode == "low":
		bytes = thermostatFanLowHVAC
	case fanMode == "high" && fanOnly:
		bytes = thermostatFanHighOnly
	case fanMode == "high":
		bytes = thermostatFanHighHVAC
	default:
		return nil, newError("unsupported fan mode %q", fanMode)
	}
	return Sequence{{ArbID: thermostatArbID(), Payload: payloadWithTail(instance, bytes)}}, nil
}

// EncodeClimateTemperature encodes a thermostat setpoint in Fahrenheit.
// The codec does not round its Fahrenheit input (half-degree offsets are
// the caller's concern); it converts to Kelvin, scales by the 0.03125 K
// resolution, and truncates after adding 0.999 to guard against floating
// point rounding short-falls. If the zone instance is even, a second
// frame syncs the paired furnace setpoint at instance+3.
func EncodeClimateTemperature(instance uint8, fahrenheit float64) Sequence {
	raw := temperatureRaw(fahrenheit)
	low := byte(raw & 0xFF)
	high := byte((raw >> 8) & 0xFF)

	mk := func(inst uint8) Frame {
		return Frame{ArbID: thermostatArbID(), Payload: [8]byte{
			inst, 0xFF, 0xFF, low, high, low, high, 0xFF,
		}}
	}

	seq := Sequence{mk(instance)}
	if instance%2 == 0 {
		seq = append(seq, mk(instance+3))
	}
	return seq
}

// temperatureRaw implements the formula of spec.md §4.5: K = (F-32)*5/9 +
// 273; raw = floor(K/0.03125 + 0.999), clamped to uint16.
func temperatureRaw(fahrenheit float64) uint16 {
	kelvin := (fahrenheit-32)*5.0/9.0 + kelvinZeroOffsetC
	raw := math.Floor(kelvin/thermostatTempResolution + 0.999)
	if raw < 0 {
		return 0
	}
	if raw > 65535 {
		return 65535
	}
	return uint16(raw)
}

func payloadWithTail(instance uint8, tail [7]byte) [8]byte {
	return [8]byte{instance, tail[0], tail[1], tail[2], tail[3], tail[4], tail[5], tail[6]}
}
