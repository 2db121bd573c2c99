package registry

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// maxPayloadBits is the width of the 8-byte RV-C payload; no signal may
// extend past it.
const maxPayloadBits = 64

// LoadFile parses the declarative RV-C spec document at path and builds an
// immutable Registry. It fails with an *ErrSpecLoad on syntactic errors,
// duplicate DGNs, or references to undefined enums.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newLoadError("parse", "opening %s: %v", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses the declarative RV-C spec document from r and builds an
// immutable Registry.
func Load(r io.Reader) (*Registry, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, newLoadError("parse", "%v", err)
	}

	enums := make(map[string]EnumDef, len(doc.Enums))
	for _, e := range doc.Enums {
		if e.Name == "" {
			return nil, newLoadError("parse", "enum with empty name")
		}
		if _, dup := enums[e.Name]; dup {
			return nil, newLoadError("duplicate_dgn", "duplicate enum name %q", e.Name)
		}
		enums[e.Name] = e
	}

	byDGN := make(map[uint32]DgnDef, len(doc.DGNs))
	byName := make(map[string]DgnDef, len(doc.DGNs))
	for _, d := range doc.DGNs {
		if _, dup := byDGN[d.DGN]; dup {
			return nil, newLoadError("duplicate_dgn", "duplicate DGN 0x%X", d.DGN)
		}
		if err := validateSignals(d, enums); err != nil {
			return nil, err
		}
		byDGN[d.DGN] = d
		if d.Name != "" {
			byName[d.Name] = d
		}
	}

	return &Registry{byDGN: byDGN, byName: byName, enums: enums}, nil
}

func validateSignals(d DgnDef, enums map[string]EnumDef) error {
	for _, s := range d.Signals {
		if s.bitEnd() > maxPayloadBits {
			return newLoadError("straddle",
				"DGN 0x%X signal %q extends to bit %d, exceeding the 8-byte payload",
				d.DGN, s.Name, s.bitEnd())
		}
		if s.Kind == KindEnum {
			if s.Lookup == "" {
				return newLoadError("undefined_enum",
					"DGN 0x%X signal %q is kind enum but names no lookup", d.DGN, s.Name)
			}
			if _, ok := enums[s.Lookup]; !ok {
				return newLoadError("undefined_enum",
					"DGN 0x%X signal %q references undefined enum %q", d.DGN, s.Name, s.Lookup)
			}
		}
	}
	return nil
}
