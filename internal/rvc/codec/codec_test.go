package codec

import (
	"testing"
)

// TestEncodeLightOn reproduces spec scenario S2: light ON on DC-dimmer
// instance 1 yields a 3-frame cleanup sequence at arbitration id
// 0x19FEDB63.
func TestEncodeLightOn(t *testing.T) {
	seq := EncodeLightState(Target{Instance: 1, DeviceClass: ClassGeneric}, true)
	if len(seq) != 3 {
		t.Fatalf("got %d frames, want 3", len(seq))
	}
	for _, f := range seq {
		if f.ArbID != 0x19FEDB63 {
			t.Errorf("ArbID = 0x%X, want 0x19FEDB63", f.ArbID)
		}
	}
	want := [3][8]byte{
		{0x01, 0xFF, 0xC8, 0x00, 0xFF, 0x00, 0xFF, 0xFF},
		{0x01, 0xFF, 0x00, 0x15, 0x00, 0x00, 0xFF, 0xFF},
		{0x01, 0xFF, 0x00, 0x04, 0x00, 0x00, 0xFF, 0xFF},
	}
	wantDelay := [3]uint32{0, 5, 0}
	for i, f := range seq {
		if f.Payload != want[i] {
			t.Errorf("frame %d payload = % X, want % X", i, f.Payload, want[i])
		}
		if f.PreDelayMS != wantDelay[i] {
			t.Errorf("frame %d delay = %d, want %d", i, f.PreDelayMS, wantDelay[i])
		}
	}
}

// TestEncodeLightBrightness50 reproduces scenario S3: brightness 50 yields
// the same three-frame shape with byte 2 = 0x64.
func TestEncodeLightBrightness50(t *testing.T) {
	seq := EncodeLightBrightness(Target{Instance: 1, DeviceClass: ClassGeneric}, 50)
	if len(seq) != 3 {
		t.Fatalf("got %d frames, want 3", len(seq))
	}
	if seq[0].Payload[2] != 0x64 {
		t.Errorf("byte 2 = 0x%X, want 0x64", seq[0].Payload[2])
	}
}

func TestEncodeLightOff(t *testing.T) {
	seq := EncodeLightState(Target{Instance: 1, DeviceClass: ClassGeneric}, false)
	if len(seq) != 1 {
		t.Fatalf("got %d frames, want 1", len(seq))
	}
	want := [8]byte{0x01, 0xFF, 0x00, 0x03, 0x00, 0x00, 0xFF, 0xFF}
	if seq[0].Payload != want {
		t.Errorf("payload = % X, want % X", seq[0].Payload, want)
	}
}

func TestEncodeSwitchSourceAddress(t *testing.T) {
	generic := EncodeSwitchState(Target{Instance: 2, DeviceClass: ClassGeneric}, true)
	if ParseArbIDSource(generic[0].ArbID) != DefaultSourceAddress {
		t.Errorf("generic switch source = 0x%X, want 0x%X", ParseArbIDSource(generic[0].ArbID), DefaultSourceAddress)
	}
	vent := EncodeSwitchState(Target{Instance: 2, DeviceClass: ClassVent}, true)
	if ParseArbIDSource(vent[0].ArbID) != VentClassSourceAddress {
		t.Errorf("vent switch source = 0x%X, want 0x%X", ParseArbIDSource(vent[0].ArbID), VentClassSourceAddress)
	}
}

// TestEncodeClimateTemperature72F reproduces scenario S4's shape (zone 0,
// furnace sync) using the self-consistent Kelvin formula from spec.md
// §4.5 and §8's testable property, rather than S4's literal byte text,
// which does not satisfy that same formula. See DESIGN.md.
func TestEncodeClimateTemperature72F(t *testing.T) {
	seq := EncodeClimateTemperature(0, 72.0)
	if len(seq) != 2 {
		t.Fatalf("got %d frames, want 2 (zone 0 is even, furnace sync)", len(seq))
	}
	if seq[0].Payload[0] != 0 || seq[1].Payload[0] != 3 {
		t.Errorf("instances = %d, %d, want 0, 3", seq[0].Payload[0], seq[1].Payload[0])
	}
	raw := temperatureRaw(72.0)
	low, high := byte(raw&0xFF), byte((raw>>8)&0xFF)
	for _, f := range seq {
		if f.Payload[3] != low || f.Payload[4] != high || f.Payload[5] != low || f.Payload[6] != high {
			t.Errorf("temperature bytes = % X, want low=%X high=%X at [3..5) and [5..7)", f.Payload, low, high)
		}
	}

	// §8 invariant: |((raw*0.03125)-273)*9/5+32 - F| < 0.1
	roundTrip := (float64(raw)*0.03125-273)*9/5 + 32
	if diff := roundTrip - 72.0; diff < -0.1 || diff > 0.1 {
		t.Errorf("round trip %v too far from 72.0 (diff %v)", roundTrip, diff)
	}
}

func TestEncodeClimateTemperatureOddZoneNoSync(t *testing.T) {
	seq := EncodeClimateTemperature(1, 70.0)
	if len(seq) != 1 {
		t.Fatalf("got %d frames, want 1 (odd zone has no furnace sync)", len(seq))
	}
}

func TestEncodeClimateModeAuto(t *testing.T) {
	seq, err := EncodeClimateMode(0, "auto")
	if err != nil {
		t.Fatalf("EncodeClimateMode: %v", err)
	}
	want := [8]byte{0x00, 0xCF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	if seq[0].Payload != want {
		t.Errorf("payload = % X, want % X", seq[0].Payload, want)
	}
}

func TestEncodeCeilingFanSpeeds(t *testing.T) {
	target := Target{CeilingFanPairID: 0}
	off, err := EncodeCeilingFanSpeed(target, 0)
	if err != nil || len(off) != 2 {
		t.Fatalf("speed 0: seq=%v err=%v", off, err)
	}
	low, err := EncodeCeilingFanSpeed(target, 1)
	if err != nil || len(low) != 2 {
		t.Fatalf("speed 1: seq=%v err=%v", low, err)
	}
	if _, err := EncodeCeilingFanSpeed(Target{CeilingFanPairID: 99}, 1); err == nil {
		t.Error("expected error for unregistered pair id")
	}
}

// ParseArbIDSource is a small test helper extracting the source address
// byte from an arbitration id.
func ParseArbIDSource(id uint32) uint8 {
	return uint8(id & 0xFF)
}
