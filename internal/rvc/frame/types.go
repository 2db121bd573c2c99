// Package frame implements the RV-C frame decoder: parsing a 29-bit CAN
// arbitration identifier, resolving it against the Spec Registry, and
// extracting each declared signal into a typed Value.
//
// The decoder is stateless and reentrant; a single bad frame never stalls
// decoding of subsequent frames.
package frame

import "time"

// Raw is a CAN frame as delivered by the transport, after arbitration-id
// and payload parsing but before DGN resolution.
type Raw struct {
	ArbID    uint32 // 29-bit arbitration identifier
	Extended bool   // non-extended frames are discarded by the caller
	Data     []byte
	Length   int
	RxTS     time.Time
}

// ValueKind discriminates the tagged union returned by signal extraction.
type ValueKind int

const (
	ValueInteger ValueKind = iota
	ValueFloat
	ValueBoolean
	ValueEnum
	ValueRaw
	ValueUnavailable
)

// Value is a decoded signal. Exactly one field group is meaningful,
// selected by Kind.
type Value struct {
	Kind ValueKind

	Int   int64   // ValueInteger
	Float float64 // ValueFloat (after scale/offset/resolution)
	Bool  bool    // ValueBoolean

	Label   string // ValueEnum: the looked-up label
	RawInt  int64  // ValueEnum: the raw integer, always populated
	Unknown bool   // ValueEnum: true if RawInt had no entry in the enum

	Raw []byte // ValueRaw
}

// Decoded is a fully extracted RV-C message: one CAN frame's signals,
// keyed by signal name.
type Decoded struct {
	DGN        uint32
	Name       string
	Instance   uint8
	SourceAddr uint8
	Priority   uint8
	Signals    map[string]Value
	RxTS       time.Time
}
