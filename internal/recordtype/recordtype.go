// Package recordtype describes a tenant-defined record type: the human labels
// and the content schema the application layer configures per type. The
// descriptor is configuration, loaded from a TOML file; the core never
// mutates it.
package recordtype

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/contentops/content-core/internal/fieldtype"
	"github.com/contentops/content-core/internal/model"
)

// FieldDescriptor is one configured field: its definition plus presentation
// metadata.
type FieldDescriptor struct {
	Name        string   `toml:"name"`
	Type        string   `toml:"type"`
	Label       string   `toml:"label"`
	Required    bool     `toml:"required"`
	Initial     string   `toml:"initial,omitempty"`
	Placeholder string   `toml:"placeholder,omitempty"`
	MinLength   *int     `toml:"min_length,omitempty"`
	MaxLength   *int     `toml:"max_length,omitempty"`
	Min         *int64   `toml:"min,omitempty"`
	Max         *int64   `toml:"max,omitempty"`
	Pattern     string   `toml:"pattern,omitempty"`
	Choices     []Choice `toml:"choices,omitempty"`
}

// Choice mirrors model.Choice for TOML decoding.
type Choice struct {
	Value string `toml:"value"`
	Label string `toml:"label"`
}

// Descriptor is the full record-type configuration.
type Descriptor struct {
	Name   string            `toml:"name"`
	Label  string            `toml:"label"`
	Fields []FieldDescriptor `toml:"fields"`
}

// Load reads a descriptor from a TOML file and validates its schema against
// the field type registry.
func Load(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record type descriptor: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a descriptor from TOML bytes.
func Parse(raw []byte) (*Descriptor, error) {
	var d Descriptor
	if err := toml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode record type descriptor: %w", err)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("record type descriptor: name is required")
	}
	if err := fieldtype.ValidateSchema(d.Schema()); err != nil {
		return nil, err
	}
	return &d, nil
}

// Schema converts the configured fields into the model schema documents are
// validated against.
func (d *Descriptor) Schema() model.Schema {
	schema := make(model.Schema, 0, len(d.Fields))
	for _, f := range d.Fields {
		def := model.FieldDefinition{
			Name:        f.Name,
			Type:        model.FieldType(f.Type),
			Label:       f.Label,
			Required:    f.Required,
			Placeholder: f.Placeholder,
			MinLength:   f.MinLength,
			MaxLength:   f.MaxLength,
			Min:         f.Min,
			Max:         f.Max,
			Pattern:     f.Pattern,
		}
		if f.Initial != "" {
			def.Initial = f.Initial
		}
		for _, c := range f.Choices {
			def.Choices = append(def.Choices, model.Choice{Value: c.Value, Label: c.Label})
		}
		schema = append(schema, def)
	}
	return schema
}

// FieldLabel resolves the human label for a field name; falls back to the
// raw name when the field is not (or no longer) configured.
func (d *Descriptor) FieldLabel(name string) string {
	for _, f := range d.Fields {
		if f.Name == name && f.Label != "" {
			return f.Label
		}
	}
	return name
}

// Field returns the configured descriptor for a field name.
func (d *Descriptor) Field(name string) (FieldDescriptor, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// ChoiceLabel maps a stored choice value to its configured label; the raw
// value is returned when no choice matches.
func (d *Descriptor) ChoiceLabel(field, value string) string {
	f, ok := d.Field(field)
	if !ok {
		return value
	}
	for _, c := range f.Choices {
		if c.Value == value {
			if c.Label != "" {
				return c.Label
			}
			return c.Value
		}
	}
	return value
}
