package model

import (
	"fmt"
	"time"
)

// FieldType identifies one of the closed set of content field types.
type FieldType string

const (
	FieldText             FieldType = "text"
	FieldMultilineText    FieldType = "multiline_text"
	FieldRichText         FieldType = "rich_text"
	FieldRichTextLimited  FieldType = "rich_text_limited"
	FieldRichTextExtended FieldType = "rich_text_extended"
	FieldAssetReference   FieldType = "asset_reference"
	FieldEmail            FieldType = "email"
	FieldInteger          FieldType = "integer"
	FieldSingleChoice     FieldType = "single_choice"
	FieldRadioChoice      FieldType = "radio_choice"
	FieldMultiChoice      FieldType = "multi_choice"
	FieldAutocomplete     FieldType = "autocomplete"
	FieldHelpText         FieldType = "help_text"
	FieldLegacyFile       FieldType = "legacy_file"
)

// Choice is one enumerated option of a choice-capable field.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDefinition describes a single field of a schema. Definitions are
// immutable once embedded in a snapshot; the live schema of a record type
// evolves by replacing the whole list.
type FieldDefinition struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Initial     any       `json:"initial,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	MinLength   *int      `json:"minLength,omitempty"`
	MaxLength   *int      `json:"maxLength,omitempty"`
	Min         *int64    `json:"min,omitempty"`
	Max         *int64    `json:"max,omitempty"`
	Choices     []Choice  `json:"choices,omitempty"`
	Pattern     string    `json:"pattern,omitempty"`
}

// Schema is the ordered list of field definitions a content document is
// validated against. Order is canonical: diff output and initialization
// follow it.
type Schema []FieldDefinition

// FieldByName returns the definition with the given name, if present.
func (s Schema) FieldByName(name string) (FieldDefinition, bool) {
	for _, def := range s {
		if def.Name == name {
			return def, true
		}
	}
	return FieldDefinition{}, false
}

// ContentDocument maps field names to values. A document is always paired
// with exactly one schema; historical documents may carry values for fields
// the live schema no longer declares.
type ContentDocument map[string]any

// Clone returns a shallow-per-field deep-enough copy: nested rich-text trees
// and lists are copied recursively so a captured document cannot alias the
// live one.
func (d ContentDocument) Clone() ContentDocument {
	if d == nil {
		return nil
	}
	out := make(ContentDocument, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = cloneValue(e)
		}
		return l
	case []string:
		l := make([]string, len(t))
		copy(l, t)
		return l
	default:
		return v
	}
}

// Version is a snapshot's (major, minor) position in a record's history.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// Less orders versions by (major, minor).
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// Record is the live, mutable entity whose content evolves over time.
type Record struct {
	RecordID        string            `json:"recordId"`
	RecordType      string            `json:"recordType"`
	Content         ContentDocument   `json:"content"`
	Annotations     map[string]string `json:"annotations,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	FieldEditCounts map[string]int    `json:"fieldEditCounts,omitempty"`
	CreationTime    time.Time         `json:"creationTime"`
	UpdateTime      time.Time         `json:"updateTime"`
}

// Snapshot is an immutable, versioned capture of a record's content, schema
// and metadata. Snapshots embed the schema as it was at capture time; two
// snapshots of the same record may legally carry different schemas.
type Snapshot struct {
	SnapshotID   string            `json:"snapshotId"`
	RecordID     string            `json:"recordId"`
	Version      Version           `json:"version"`
	Content      ContentDocument   `json:"content"`
	Schema       Schema            `json:"schema"`
	Annotations  map[string]string `json:"annotations,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Actor        string            `json:"actor"`
	Comment      string            `json:"comment,omitempty"`
	RestoredFrom *string           `json:"restoredFrom,omitempty"`
	CreationTime time.Time         `json:"creationTime"`
}

// RelationRef is a materialized reference to a related entity: its id and a
// human-facing display representation. Callers resolve relations fully before
// diffing; the diff engine performs no I/O.
type RelationRef struct {
	ID   *int64 `json:"id"`
	Repr string `json:"repr"`
}
