package entity

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// mappingDocument is the on-disk shape of the entity mapping file:
// spec.md §6's "declarative document enumerating entity descriptors".
type mappingDocument struct {
	Entities []mappingEntity `yaml:"entities"`
}

type mappingEntity struct {
	EntityID       string   `yaml:"entity_id"`
	Kind           string   `yaml:"kind"`
	SourceMessage  string   `yaml:"source_message"`
	SourceInstance *uint8   `yaml:"source_instance"`
	SignalField    string   `yaml:"signal_field"`
	Transform      string   `yaml:"transform"`
	DeviceID       string   `yaml:"device_id"`
	OnLabel        string   `yaml:"on_label"`
	OffLabel       string   `yaml:"off_label"`
	AllowedRange   *Range   `yaml:"allowed_range"`
	AllowedValues  []string `yaml:"allowed_values"`

	SupportsBrightness bool             `yaml:"supports_brightness"`
	Climate            *ClimateChannels `yaml:"climate"`
}

// LoadMappingFile parses the entity mapping file at path into descriptors
// ready for NewProjector.
func LoadMappingFile(path string) ([]Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("entity: opening mapping file: %w", err)
	}
	defer f.Close()
	return LoadMapping(f)
}

// LoadMapping parses the entity mapping document from r.
func LoadMapping(r io.Reader) ([]Descriptor, error) {
	var doc mappingDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("entity: parsing mapping file: %w", err)
	}

	descriptors := make([]Descriptor, 0, len(doc.Entities))
	seen := make(map[string]bool, len(doc.Entities))
	for _, e := range doc.Entities {
		if e.EntityID == "" {
			return nil, fmt.Errorf("entity: mapping entry with empty entity_id")
		}
		if seen[e.EntityID] {
			return nil, fmt.Errorf("entity: duplicate entity_id %q", e.EntityID)
		}
		seen[e.EntityID] = true

		descriptors = append(descriptors, Descriptor{
			EntityID:           e.EntityID,
			Kind:               Kind(e.Kind),
			SourceMessage:      e.SourceMessage,
			SourceInstance:     e.SourceInstance,
			SignalField:        e.SignalField,
			Transform:          e.Transform,
			DeviceID:           e.DeviceID,
			OnLabel:            e.OnLabel,
			OffLabel:           e.OffLabel,
			AllowedRange:       e.AllowedRange,
			AllowedValues:      e.AllowedValues,
			SupportsBrightness: e.SupportsBrightness,
			Climate:            e.Climate,
		})
	}
	return descriptors, nil
}
