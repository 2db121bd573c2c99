package frame

import (
	"strings"
	"testing"

	"github.com/nerrad567/rvcbridge/internal/rvc/registry"
)

const tankSpec = `
dgns:
  - dgn: 0x1FFB7
    name: TANK_STATUS
    signals:
      - name: instance
        byte_offset: 0
        bit_offset: 0
        bit_length: 8
        kind: uint
      - name: relative_level
        byte_offset: 1
        bit_offset: 0
        bit_length: 2
        kind: uint
        resolution: 4
`

func mustLoad(t *testing.T, spec string) *registry.Registry {
	t.Helper()
	reg, err := registry.Load(strings.NewReader(spec))
	if err != nil {
		t.Fatalf("registry.Load: %v", err)
	}
	return reg
}

// TestDecodeTankStatus reproduces spec scenario S1: arbitration id
// 0x19FFB700, payload 00 03 04 FF FF FF FF FF, DGN TANK_STATUS, expecting
// relative_level to decode to 75 (round(3/4*100)).
func TestDecodeTankStatus(t *testing.T) {
	reg := mustLoad(t, tankSpec)

	raw := Raw{
		ArbID:    0x19FFB700,
		Extended: true,
		Data:     []byte{0x00, 0x03, 0x04, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		Length:   8,
	}

	dec, err := Decode(reg, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Name != "TANK_STATUS" {
		t.Errorf("Name = %q, want TANK_STATUS", dec.Name)
	}
	if dec.Instance != 0 {
		t.Errorf("Instance = %d, want 0", dec.Instance)
	}

	level, ok := dec.Signals["relative_level"]
	if !ok {
		t.Fatal("missing relative_level signal")
	}
	if level.Kind != ValueFloat {
		t.Fatalf("relative_level.Kind = %v, want ValueFloat", level.Kind)
	}
	if level.Float != 75 {
		t.Errorf("relative_level.Float = %v, want 75", level.Float)
	}
}

func TestDecodeUnknownDGN(t *testing.T) {
	reg := mustLoad(t, tankSpec)
	raw := Raw{ArbID: BuildArbID(6, 0x1ABCD, 99), Extended: true, Data: make([]byte, 8), Length: 8}

	_, err := Decode(reg, raw)
	if err == nil {
		t.Fatal("expected ErrUnknownDGN")
	}
	if e, ok := err.(*ErrUnknownDGN); !ok || e.DGN != 0x1ABCD {
		t.Errorf("got %v, want ErrUnknownDGN{0x1ABCD}", err)
	}
}

func TestDecodeTruncatedFrame(t *testing.T) {
	reg := mustLoad(t, tankSpec)
	raw := Raw{ArbID: BuildArbID(6, 0x1FFB7, 99), Extended: true, Data: []byte{0x00}, Length: 1}

	_, err := Decode(reg, raw)
	if _, ok := err.(*ErrInvalidFrame); !ok {
		t.Errorf("got %v, want *ErrInvalidFrame", err)
	}
}

func TestDecodeUnavailableSentinel(t *testing.T) {
	spec := `
dgns:
  - dgn: 0x1FEDB
    name: DC_DIMMER_STATUS
    signals:
      - name: level
        byte_offset: 2
        bit_offset: 0
        bit_length: 8
        kind: uint
`
	reg := mustLoad(t, spec)
	raw := Raw{
		ArbID:    BuildArbID(6, 0x1FEDB, 99),
		Extended: true,
		Data:     []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0xFF, 0xFF},
		Length:   8,
	}
	dec, err := Decode(reg, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Signals["level"].Kind != ValueUnavailable {
		t.Errorf("level.Kind = %v, want ValueUnavailable", dec.Signals["level"].Kind)
	}
}

func TestParseAndBuildArbIDRoundTrip(t *testing.T) {
	id := BuildArbID(6, 0x1FEDB, 0x63)
	if id != 0x19FEDB63 {
		t.Fatalf("BuildArbID = 0x%X, want 0x19FEDB63", id)
	}
	parsed := ParseArbID(id)
	if parsed.Priority != 6 || parsed.DGN != 0x1FEDB || parsed.Source != 0x63 {
		t.Errorf("ParseArbID = %+v", parsed)
	}
}
