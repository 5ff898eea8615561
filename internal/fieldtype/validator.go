package fieldtype

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/contentops/content-core/internal/core/record"
	"github.com/contentops/content-core/internal/model"
)

// Validator coerces a raw value into the field's canonical form and rejects
// values that violate the definition's constraints. Validators never enforce
// required-ness; emptiness policy belongs to document validation.
type Validator func(value any) (any, error)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// BuildValidator compiles a validation closure for one field definition.
// Fails with UnknownFieldTypeError when the definition references a type
// outside the registry.
func BuildValidator(def model.FieldDefinition) (Validator, error) {
	if !Known(def.Type) {
		return nil, record.UnknownFieldTypeError{Type: string(def.Type)}
	}

	var patternRx *regexp.Regexp
	if def.Pattern != "" {
		rx, err := regexp.Compile(def.Pattern)
		if err != nil {
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("invalid pattern %q: %v", def.Pattern, err))
		}
		patternRx = rx
	}

	switch def.Type {
	case model.FieldText, model.FieldMultilineText, model.FieldAutocomplete:
		return stringValidator(def, patternRx, false), nil
	case model.FieldEmail:
		return stringValidator(def, emailRx, true), nil
	case model.FieldInteger:
		return integerValidator(def), nil
	case model.FieldSingleChoice, model.FieldRadioChoice:
		return choiceValidator(def), nil
	case model.FieldMultiChoice:
		return multiChoiceValidator(def), nil
	case model.FieldAssetReference:
		return assetValidator(def), nil
	case model.FieldRichText, model.FieldRichTextLimited, model.FieldRichTextExtended:
		return richTextValidator(def), nil
	case model.FieldHelpText:
		return helpTextValidator(def), nil
	case model.FieldLegacyFile:
		// Opaque legacy payload; readable, never constrained.
		return func(v any) (any, error) { return v, nil }, nil
	}
	return nil, record.UnknownFieldTypeError{Type: string(def.Type)}
}

func stringValidator(def model.FieldDefinition, rx *regexp.Regexp, rxIsFormat bool) Validator {
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("expected string, got %T", v))
		}
		if s == "" {
			return s, nil
		}
		// length constraints count characters, not bytes
		length := utf8.RuneCountInString(s)
		if def.MinLength != nil && length < *def.MinLength {
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("shorter than %d characters", *def.MinLength))
		}
		if def.MaxLength != nil && length > *def.MaxLength {
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("exceeds %d characters", *def.MaxLength))
		}
		if rx != nil && !rx.MatchString(s) {
			if rxIsFormat {
				return nil, record.NewValidationError(def.Name, "not a valid email address")
			}
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("does not match pattern %q", def.Pattern))
		}
		return s, nil
	}
}

func integerValidator(def model.FieldDefinition) Validator {
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		n, err := coerceInt(v)
		if err != nil {
			return nil, record.NewValidationError(def.Name, err.Error())
		}
		if def.Min != nil && n < *def.Min {
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("below minimum %d", *def.Min))
		}
		if def.Max != nil && n > *def.Max {
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("above maximum %d", *def.Max))
		}
		return n, nil
	}
}

func coerceInt(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("expected whole number, got %v", t)
		}
		return int64(t), nil
	case string:
		if t == "" {
			return 0, fmt.Errorf("expected number, got empty string")
		}
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func choiceValidator(def model.FieldDefinition) Validator {
	allowed := choiceSet(def.Choices)
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("expected choice value, got %T", v))
		}
		if s == "" {
			return s, nil
		}
		if len(allowed) > 0 {
			if _, ok := allowed[s]; !ok {
				return nil, record.NewValidationError(def.Name, fmt.Sprintf("%q is not one of the declared choices", s))
			}
		}
		return s, nil
	}
}

func multiChoiceValidator(def model.FieldDefinition) Validator {
	allowed := choiceSet(def.Choices)
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		var values []string
		switch t := v.(type) {
		case []string:
			values = t
		case []any:
			values = make([]string, 0, len(t))
			for _, e := range t {
				s, ok := e.(string)
				if !ok {
					return nil, record.NewValidationError(def.Name, fmt.Sprintf("expected list of choice values, got element %T", e))
				}
				values = append(values, s)
			}
		default:
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("expected list of choice values, got %T", v))
		}
		if len(allowed) > 0 {
			for _, s := range values {
				if _, ok := allowed[s]; !ok {
					return nil, record.NewValidationError(def.Name, fmt.Sprintf("%q is not one of the declared choices", s))
				}
			}
		}
		return values, nil
	}
}

func choiceSet(choices []model.Choice) map[string]struct{} {
	set := make(map[string]struct{}, len(choices))
	for _, c := range choices {
		set[c.Value] = struct{}{}
	}
	return set
}

func assetValidator(def model.FieldDefinition) Validator {
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("expected asset id, got %T", v))
		}
		return s, nil
	}
}

func richTextValidator(def model.FieldDefinition) Validator {
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		doc, ok := v.(map[string]any)
		if !ok || !IsDocument(doc) {
			return nil, record.NewValidationError(def.Name, fmt.Sprintf("expected rich text document, got %T", v))
		}
		if msg := validateDocumentShape(def.Type, doc); msg != "" {
			return nil, record.NewValidationError(def.Name, msg)
		}
		return doc, nil
	}
}

func helpTextValidator(def model.FieldDefinition) Validator {
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		if s, ok := v.(string); ok && s == "" {
			return nil, nil
		}
		return nil, record.NewValidationError(def.Name, "help text fields carry no value")
	}
}
