// Package fieldtype is the closed registry of content field types. Each type
// declares its schema-time capabilities and knows how to coerce and validate
// a raw value. New types are added here and nowhere else.
package fieldtype

import (
	"github.com/contentops/content-core/internal/core/record"
	"github.com/contentops/content-core/internal/model"
)

// Descriptor declares the capabilities of a field type. Capability flags gate
// which schema-time attributes a FieldDefinition of this type may carry.
type Descriptor struct {
	Type model.FieldType

	// RequiredCapable types may be marked required in a schema.
	RequiredCapable bool
	// Searchable types contribute plain text to the search feed.
	Searchable bool
	// SupportsInitial types accept a declared initial value.
	SupportsInitial bool
	// SupportsPlaceholder types accept a UI placeholder string.
	SupportsPlaceholder bool
	// SupportsLength types accept MinLength/MaxLength constraints.
	SupportsLength bool
	// SupportsBounds types accept numeric Min/Max constraints.
	SupportsBounds bool
	// SupportsChoices types accept an enumerated choice list.
	SupportsChoices bool
	// SupportsPattern types accept a validation regex.
	SupportsPattern bool
	// CreateDisallowed types exist only to read old data; new schemas may
	// not declare them.
	CreateDisallowed bool
}

var descriptors = map[model.FieldType]Descriptor{
	model.FieldText: {
		Type:                model.FieldText,
		RequiredCapable:     true,
		Searchable:          true,
		SupportsInitial:     true,
		SupportsPlaceholder: true,
		SupportsLength:      true,
		SupportsPattern:     true,
	},
	model.FieldMultilineText: {
		Type:                model.FieldMultilineText,
		RequiredCapable:     true,
		Searchable:          true,
		SupportsInitial:     true,
		SupportsPlaceholder: true,
		SupportsLength:      true,
		SupportsPattern:     true,
	},
	model.FieldRichText: {
		Type:            model.FieldRichText,
		RequiredCapable: true,
		Searchable:      true,
		SupportsInitial: true,
	},
	model.FieldRichTextLimited: {
		Type:            model.FieldRichTextLimited,
		RequiredCapable: true,
		Searchable:      true,
		SupportsInitial: true,
	},
	model.FieldRichTextExtended: {
		Type:            model.FieldRichTextExtended,
		RequiredCapable: true,
		Searchable:      true,
		SupportsInitial: true,
	},
	model.FieldAssetReference: {
		Type:            model.FieldAssetReference,
		RequiredCapable: true,
	},
	model.FieldEmail: {
		Type:                model.FieldEmail,
		RequiredCapable:     true,
		Searchable:          true,
		SupportsInitial:     true,
		SupportsPlaceholder: true,
		SupportsLength:      true,
	},
	model.FieldInteger: {
		Type:                model.FieldInteger,
		RequiredCapable:     true,
		SupportsInitial:     true,
		SupportsPlaceholder: true,
		SupportsBounds:      true,
	},
	model.FieldSingleChoice: {
		Type:            model.FieldSingleChoice,
		RequiredCapable: true,
		Searchable:      true,
		SupportsInitial: true,
		SupportsChoices: true,
	},
	model.FieldRadioChoice: {
		Type:            model.FieldRadioChoice,
		RequiredCapable: true,
		Searchable:      true,
		SupportsInitial: true,
		SupportsChoices: true,
	},
	model.FieldMultiChoice: {
		Type:            model.FieldMultiChoice,
		RequiredCapable: true,
		Searchable:      true,
		SupportsInitial: true,
		SupportsChoices: true,
	},
	model.FieldAutocomplete: {
		Type:                model.FieldAutocomplete,
		RequiredCapable:     true,
		Searchable:          true,
		SupportsInitial:     true,
		SupportsPlaceholder: true,
		SupportsLength:      true,
		SupportsPattern:     true,
	},
	// help_text carries no data; it only renders its label in the editor.
	model.FieldHelpText: {
		Type: model.FieldHelpText,
	},
	// legacy_file survives in old snapshots only.
	model.FieldLegacyFile: {
		Type:             model.FieldLegacyFile,
		CreateDisallowed: true,
	},
}

// Describe returns the descriptor for a field type.
func Describe(t model.FieldType) (Descriptor, error) {
	d, ok := descriptors[t]
	if !ok {
		return Descriptor{}, record.UnknownFieldTypeError{Type: string(t)}
	}
	return d, nil
}

// Known reports whether t is a registered field type.
func Known(t model.FieldType) bool {
	_, ok := descriptors[t]
	return ok
}

// Initial returns the value a fresh document carries for def: the declared
// initial when the type supports one, otherwise the type's empty value.
// help_text fields carry no value at all; callers skip them.
func Initial(def model.FieldDefinition) any {
	if d, ok := descriptors[def.Type]; ok && d.SupportsInitial && def.Initial != nil {
		return def.Initial
	}
	return emptyValue(def.Type)
}

func emptyValue(t model.FieldType) any {
	switch t {
	case model.FieldText, model.FieldMultilineText, model.FieldEmail,
		model.FieldAutocomplete, model.FieldSingleChoice, model.FieldRadioChoice:
		return ""
	case model.FieldMultiChoice:
		return []string{}
	case model.FieldRichText, model.FieldRichTextLimited, model.FieldRichTextExtended:
		return EmptyDocument()
	default:
		// integer, asset_reference, help_text, legacy_file
		return nil
	}
}

// IsEmpty reports whether v counts as "no value" for a field of type t.
func IsEmpty(t model.FieldType, v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case model.FieldMultiChoice:
		switch l := v.(type) {
		case []string:
			return len(l) == 0
		case []any:
			return len(l) == 0
		}
		return false
	case model.FieldRichText, model.FieldRichTextLimited, model.FieldRichTextExtended:
		doc, ok := v.(map[string]any)
		if !ok {
			return false
		}
		return IsEmptyDocument(doc)
	default:
		if s, ok := v.(string); ok {
			return s == ""
		}
		return false
	}
}
