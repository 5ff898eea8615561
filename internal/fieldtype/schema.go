package fieldtype

import (
	"fmt"

	"github.com/contentops/content-core/internal/core/record"
	"github.com/contentops/content-core/internal/model"
)

// ValidateSchema checks a live schema for internal consistency: unique field
// names, known types, and capability gating of schema-time attributes. Every
// problem is collected before failing so the caller sees the full set.
func ValidateSchema(schema model.Schema) error {
	var problems []string
	seen := make(map[string]struct{}, len(schema))

	for _, def := range schema {
		if def.Name == "" {
			problems = append(problems, "field with empty name")
			continue
		}
		if _, dup := seen[def.Name]; dup {
			problems = append(problems, fmt.Sprintf("field %q declared more than once", def.Name))
		}
		seen[def.Name] = struct{}{}

		d, ok := descriptors[def.Type]
		if !ok {
			problems = append(problems, fmt.Sprintf("field %q has unknown type %q", def.Name, def.Type))
			continue
		}
		if d.CreateDisallowed {
			problems = append(problems, fmt.Sprintf("field %q uses read-only type %q", def.Name, def.Type))
		}
		if def.Required && !d.RequiredCapable {
			problems = append(problems, fmt.Sprintf("field %q: type %q cannot be required", def.Name, def.Type))
		}
		if def.Initial != nil && !d.SupportsInitial {
			problems = append(problems, fmt.Sprintf("field %q: type %q does not support an initial value", def.Name, def.Type))
		}
		if def.Placeholder != "" && !d.SupportsPlaceholder {
			problems = append(problems, fmt.Sprintf("field %q: type %q does not support a placeholder", def.Name, def.Type))
		}
		if (def.MinLength != nil || def.MaxLength != nil) && !d.SupportsLength {
			problems = append(problems, fmt.Sprintf("field %q: type %q does not support length constraints", def.Name, def.Type))
		}
		if (def.Min != nil || def.Max != nil) && !d.SupportsBounds {
			problems = append(problems, fmt.Sprintf("field %q: type %q does not support numeric bounds", def.Name, def.Type))
		}
		if len(def.Choices) > 0 && !d.SupportsChoices {
			problems = append(problems, fmt.Sprintf("field %q: type %q does not support choices", def.Name, def.Type))
		}
		if def.Pattern != "" && !d.SupportsPattern {
			problems = append(problems, fmt.Sprintf("field %q: type %q does not support a validation pattern", def.Name, def.Type))
		}
	}

	if len(problems) > 0 {
		return record.NewSchemaError(problems)
	}
	return nil
}
