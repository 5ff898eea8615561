package fieldtype

import "github.com/contentops/content-core/internal/model"

// SearchText extracts the plain-text contribution of a field value for the
// search feed. The second return is false when the type does not participate
// in search indexing or the value carries no text.
func SearchText(t model.FieldType, v any) (string, bool) {
	d, ok := descriptors[t]
	if !ok || !d.Searchable || v == nil {
		return "", false
	}
	switch t {
	case model.FieldRichText, model.FieldRichTextLimited, model.FieldRichTextExtended:
		doc, ok := v.(map[string]any)
		if !ok {
			return "", false
		}
		txt := PlainText(doc)
		return txt, txt != ""
	case model.FieldMultiChoice:
		var parts string
		values, _ := v.([]string)
		if values == nil {
			if raw, ok := v.([]any); ok {
				for _, e := range raw {
					if s, ok := e.(string); ok {
						values = append(values, s)
					}
				}
			}
		}
		for i, s := range values {
			if i > 0 {
				parts += " "
			}
			parts += s
		}
		return parts, parts != ""
	default:
		s, ok := v.(string)
		if !ok || s == "" {
			return "", false
		}
		return s, true
	}
}
