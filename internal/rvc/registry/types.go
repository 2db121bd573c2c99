// Package registry loads and indexes the RV-C data dictionary: the
// declarative mapping of Data Group Numbers (DGNs) to signal layouts and
// named enumerations that the frame decoder and command codec are built
// against.
//
// A Registry is built once at startup from a declarative document and is
// immutable for the remainder of the process lifetime; the read path
// (LookupByDGN, LookupEnum, LookupByName) requires no locking.
package registry

// SignalKind identifies how a signal's raw integer is interpreted.
type SignalKind string

const (
	KindUint SignalKind = "uint"
	KindInt  SignalKind = "int"
	KindBool SignalKind = "bool"
	KindEnum SignalKind = "enum"
	KindRaw  SignalKind = "raw"
)

// SignalDef describes a single bitfield within a DGN's 8-byte payload.
type SignalDef struct {
	Name       string     `yaml:"name"`
	ByteOffset int        `yaml:"byte_offset"`
	BitOffset  int        `yaml:"bit_offset"`
	BitLength  int        `yaml:"bit_length"`
	Kind       SignalKind `yaml:"kind"`
	Unit       string     `yaml:"unit,omitempty"`
	Scale      *float64   `yaml:"scale,omitempty"`
	Offset     *float64   `yaml:"offset,omitempty"`
	Resolution *float64   `yaml:"resolution,omitempty"`
	Lookup     string     `yaml:"lookup,omitempty"`
}

// bitEnd returns the exclusive end bit of the signal within the payload,
// counting from bit 0 of byte 0.
func (s SignalDef) bitEnd() int {
	return s.ByteOffset*8 + s.BitOffset + s.BitLength
}

// DgnDef is a single Data Group Number definition: a message name and its
// ordered list of signals.
type DgnDef struct {
	DGN uint32 `yaml:"dgn"`
	// Name is the message name used as the reverse-index key for the
	// Entity Projector's (message-name, instance) lookup.
	Name string `yaml:"name"`
	// InstanceSignal names the signal carrying the instance value, when it
	// is not the default (first payload byte).
	InstanceSignal string      `yaml:"instance_signal,omitempty"`
	Signals        []SignalDef `yaml:"signals"`
}

// EnumDef is a named mapping from raw integer to label, referenced by
// SignalDef.Lookup.
type EnumDef struct {
	Name   string           `yaml:"name"`
	Values map[int64]string `yaml:"values"`
}

// document is the on-disk shape of the declarative spec file.
type document struct {
	DGNs  []DgnDef  `yaml:"dgns"`
	Enums []EnumDef `yaml:"enums"`
}

// Registry is the loaded, read-only index of DGN definitions and enums.
type Registry struct {
	byDGN  map[uint32]DgnDef
	byName map[string]DgnDef
	enums  map[string]EnumDef
}

// LookupByDGN resolves a numeric DGN to its definition.
func (r *Registry) LookupByDGN(dgn uint32) (DgnDef, bool) {
	d, ok := r.byDGN[dgn]
	return d, ok
}

// LookupByName resolves a message name to its DGN definition. This is the
// reverse index described by the design note that the mapping
// "message-name -> DGN" is derived by scanning the registry at load time,
// so the entity mapping file never embeds DGN numerics.
func (r *Registry) LookupByName(name string) (DgnDef, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// LookupEnum resolves an enum name to its definition.
func (r *Registry) LookupEnum(name string) (EnumDef, bool) {
	e, ok := r.enums[name]
	return e, ok
}

// Len returns the number of loaded DGN definitions.
func (r *Registry) Len() int {
	return len(r.byDGN)
}
