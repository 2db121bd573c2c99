package frame

import (
	"fmt"

	"github.com/nerrad567/rvcbridge/internal/rvc/registry"
)

// Decode resolves a raw frame's arbitration id against reg and extracts
// each declared signal into a typed Value. Decode is stateless and
// reentrant; its cost is O(number of signals).
//
// A returned *ErrUnknownDGN or *ErrInvalidFrame is a per-frame warning: the
// caller should log it and continue with the next frame rather than treat
// it as fatal.
func Decode(reg *registry.Registry, raw Raw) (Decoded, error) {
	arb := ParseArbID(raw.ArbID)

	def, ok := reg.LookupByDGN(arb.DGN)
	if !ok {
		return Decoded{}, &ErrUnknownDGN{DGN: arb.DGN}
	}

	if needed := requiredBytes(def); raw.Length < needed {
		return Decoded{}, &ErrInvalidFrame{
			Reason: fmt.Sprintf("DGN 0x%X needs %d payload bytes, got %d", arb.DGN, needed, raw.Length),
		}
	}

	signals := make(map[string]Value, len(def.Signals))
	for _, s := range def.Signals {
		signals[s.Name] = extractValue(reg, raw.Data, s)
	}

	return Decoded{
		DGN:        arb.DGN,
		Name:       def.Name,
		Instance:   resolveInstance(def, raw.Data, signals),
		SourceAddr: arb.Source,
		Priority:   arb.Priority,
		Signals:    signals,
		RxTS:       raw.RxTS,
	}, nil
}

// requiredBytes returns the minimum payload length needed to extract every
// signal def declares.
func requiredBytes(def registry.DgnDef) int {
	max := 0
	for _, s := range def.Signals {
		end := s.ByteOffset*8 + s.BitOffset + s.BitLength
		if n := (end + 7) / 8; n > max {
			max = n
		}
	}
	return max
}

// resolveInstance returns the instance value: the signal def.InstanceSignal
// names, or the first payload byte by default.
func resolveInstance(def registry.DgnDef, data []byte, signals map[string]Value) uint8 {
	if def.InstanceSignal != "" {
		if v, ok := signals[def.InstanceSignal]; ok {
			return uint8(v.Int)
		}
	}
	if len(data) > 0 {
		return data[0]
	}
	return 0
}

func extractValue(reg *registry.Registry, data []byte, s registry.SignalDef) Value {
	raw := extractBits(data, s.ByteOffset, s.BitOffset, s.BitLength)

	// "not available" sentinels apply only to byte-aligned widths.
	if s.Kind != registry.KindBool && s.BitLength%8 == 0 && isAllOnes(raw, s.BitLength) {
		return Value{Kind: ValueUnavailable}
	}

	switch s.Kind {
	case registry.KindBool:
		return Value{Kind: ValueBoolean, Bool: raw != 0}

	case registry.KindEnum:
		enumDef, _ := reg.LookupEnum(s.Lookup)
		label, found := enumDef.Values[int64(raw)]
		return Value{Kind: ValueEnum, RawInt: int64(raw), Label: label, Unknown: !found}

	case registry.KindRaw:
		n := (s.BitLength + 7) / 8
		b := make([]byte, n)
		copy(b, data[s.ByteOffset:s.ByteOffset+n])
		return Value{Kind: ValueRaw, Raw: b}

	case registry.KindInt:
		signed := signExtend(raw, s.BitLength)
		return scaledValue(s, float64(signed), signed)

	default: // KindUint
		return scaledValue(s, float64(raw), int64(raw))
	}
}

// scaledValue applies the decode rules of §4.1: resolution is a
// denominator yielding a percentage, scale/offset otherwise combine as
// value = raw*scale + offset, and an unscaled signal is a plain integer.
func scaledValue(s registry.SignalDef, rawFloat float64, rawInt int64) Value {
	if s.Resolution != nil && *s.Resolution != 0 {
		return Value{Kind: ValueFloat, Float: (rawFloat / *s.Resolution) * 100}
	}
	if s.Scale != nil {
		offset := 0.0
		if s.Offset != nil {
			offset = *s.Offset
		}
		return Value{Kind: ValueFloat, Float: rawFloat**s.Scale + offset}
	}
	return Value{Kind: ValueInteger, Int: rawInt}
}

// extractBits reads bitLength bits starting at byteOffset*8+bitOffset.
// Payload is little-endian byte order; within a byte, bit 0 is the
// least-significant bit. Multi-byte fields pack low bits from the lower
// byte first.
func extractBits(data []byte, byteOffset, bitOffset, bitLength int) uint64 {
	var result uint64
	read := 0
	curByte := byteOffset
	curBit := bitOffset
	for read < bitLength {
		if curByte >= len(data) {
			break
		}
		avail := 8 - curBit
		take := bitLength - read
		if take > avail {
			take = avail
		}
		mask := byte((1 << uint(take)) - 1)
		chunk := (data[curByte] >> uint(curBit)) & mask
		result |= uint64(chunk) << uint(read)
		read += take
		curByte++
		curBit = 0
	}
	return result
}

func signExtend(raw uint64, bitLength int) int64 {
	if bitLength >= 64 {
		return int64(raw)
	}
	signBit := uint64(1) << uint(bitLength-1)
	if raw&signBit != 0 {
		return int64(raw - (uint64(1) << uint(bitLength)))
	}
	return int64(raw)
}

func isAllOnes(raw uint64, bitLength int) bool {
	if bitLength >= 64 {
		return raw == ^uint64(0)
	}
	return raw == (uint64(1)<<uint(bitLength))-1
}
