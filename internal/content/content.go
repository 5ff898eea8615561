// Package content validates and initializes content documents against a
// schema. It is pure; persistence and versioning live elsewhere.
package content

import (
	"errors"
	"fmt"

	"github.com/contentops/content-core/internal/core/record"
	"github.com/contentops/content-core/internal/fieldtype"
	"github.com/contentops/content-core/internal/model"
)

// ValidateOptions control document validation.
type ValidateOptions struct {
	// Creation marks first-time validation: required fields the caller did
	// not supply are pre-filled from the schema's declared initial values,
	// so a fresh document never fails on "missing required" when the schema
	// provides defaults. Updates that clear a required field still fail.
	Creation bool
}

// Initialize returns a document with every data-carrying field of the schema
// set to its declared initial value.
func Initialize(schema model.Schema) model.ContentDocument {
	doc := make(model.ContentDocument, len(schema))
	for _, def := range schema {
		if def.Type == model.FieldHelpText {
			continue
		}
		doc[def.Name] = fieldtype.Initial(def)
	}
	return doc
}

// Validate applies each field's validator to doc and normalizes coerced
// values in place. Unknown keys, constraint violations and cleared required
// fields are collected into a single FieldValidationError.
func Validate(doc model.ContentDocument, schema model.Schema, opts ValidateOptions) error {
	failures := make(map[string]string)

	for key := range doc {
		if _, ok := schema.FieldByName(key); !ok {
			failures[key] = "no such field in schema"
		}
	}

	for _, def := range schema {
		if def.Type == model.FieldHelpText {
			continue
		}
		value, present := doc[def.Name]

		if opts.Creation && (!present || fieldtype.IsEmpty(def.Type, value)) {
			value = fieldtype.Initial(def)
			doc[def.Name] = value
			present = true
		}

		if def.Required && (!present || fieldtype.IsEmpty(def.Type, value)) {
			failures[def.Name] = "required field has no value"
			continue
		}
		if !present {
			continue
		}

		validator, err := fieldtype.BuildValidator(def)
		if err != nil {
			failures[def.Name] = err.Error()
			continue
		}
		coerced, err := validator(value)
		if err != nil {
			var ve record.ValidationError
			if errors.As(err, &ve) {
				failures[def.Name] = ve.Message
			} else {
				failures[def.Name] = err.Error()
			}
			continue
		}
		doc[def.Name] = coerced
	}

	if len(failures) > 0 {
		return record.FieldValidationError{Fields: failures}
	}
	return nil
}

// SearchFeed concatenates the search-text contribution of every searchable
// field, in schema order. The search index itself is an external collaborator;
// this only assembles its input.
func SearchFeed(doc model.ContentDocument, schema model.Schema) string {
	var out string
	for _, def := range schema {
		v, ok := doc[def.Name]
		if !ok {
			continue
		}
		txt, ok := fieldtype.SearchText(def.Type, v)
		if !ok {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += txt
	}
	return out
}

// RequireValidSchema is a convenience for callers that accept schemas from
// configuration: it wraps fieldtype.ValidateSchema with context.
func RequireValidSchema(schema model.Schema) error {
	if err := fieldtype.ValidateSchema(schema); err != nil {
		return fmt.Errorf("schema rejected: %w", err)
	}
	return nil
}
