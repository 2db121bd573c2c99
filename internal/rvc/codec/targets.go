package codec

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// targetsDocument is the on-disk shape of the outbound addressing file:
// the per-entity RV-C addressing a Command Codec needs that the entity
// mapping file has no reason to carry (it is outbound-only, never
// observed on an incoming frame).
type targetsDocument struct {
	Targets []targetEntry `yaml:"targets"`
}

type targetEntry struct {
	EntityID         string `yaml:"entity_id"`
	Instance         uint8  `yaml:"instance"`
	DeviceClass      string `yaml:"device_class"`
	CeilingFanPairID uint8  `yaml:"ceiling_fan_pair_id"`
}

// LoadTargetsFile parses the outbound addressing file at path into a map
// keyed by entity ID, ready for Bridge.Options.Targets.
func LoadTargetsFile(path string) (map[string]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("codec: opening targets file: %w", err)
	}
	defer f.Close()
	return LoadTargets(f)
}

// LoadTargets parses the outbound addressing document from r.
func LoadTargets(r io.Reader) (map[string]Target, error) {
	var doc targetsDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("codec: parsing targets file: %w", err)
	}

	targets := make(map[string]Target, len(doc.Targets))
	for _, t := range doc.Targets {
		if t.EntityID == "" {
			return nil, fmt.Errorf("codec: target entry with empty entity_id")
		}
		if _, exists := targets[t.EntityID]; exists {
			return nil, fmt.Errorf("codec: duplicate target entity_id %q", t.EntityID)
		}

		class, err := parseDeviceClass(t.DeviceClass)
		if err != nil {
			return nil, fmt.Errorf("codec: entity %q: %w", t.EntityID, err)
		}

		targets[t.EntityID] = Target{
			Instance:         t.Instance,
			DeviceClass:      class,
			CeilingFanPairID: t.CeilingFanPairID,
		}
	}
	return targets, nil
}

func parseDeviceClass(s string) (DeviceClass, error) {
	switch s {
	case "", "generic":
		return ClassGeneric, nil
	case "vent":
		return ClassVent, nil
	case "ceiling_fan":
		return ClassCeilingFan, nil
	default:
		return 0, fmt.Errorf("unknown device_class %q", s)
	}
}
