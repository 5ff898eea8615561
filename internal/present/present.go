// Package present renders raw diffs for external consumption: a structured
// form for API consumers and a line-oriented text form for audit trails and
// notification digests. Both renderers are pure functions over the diff.
package present

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/contentops/content-core/internal/diff"
	"github.com/contentops/content-core/internal/fieldtype"
	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/recordtype"
)

// Missing values render as the empty-set glyph.
const emptyGlyph = "∅"

// StructuredDelta is the machine-readable rendering of one field delta.
// Before/After carry the raw machine values unchanged; only labels and type
// names are added.
type StructuredDelta struct {
	FieldName  string `json:"fieldName"`
	FieldLabel string `json:"fieldLabel,omitempty"`
	FieldType  string `json:"fieldType,omitempty"`
	Before     any    `json:"before,omitempty"`
	After      any    `json:"after,omitempty"`
	Note       string `json:"note,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Structured renders a whole-record raw diff. The descriptor supplies human
// labels when available; a nil descriptor falls back to raw field names.
func Structured(raw diff.RawDiff, desc *recordtype.Descriptor) []StructuredDelta {
	out := make([]StructuredDelta, 0, len(raw))
	for _, d := range raw {
		out = append(out, StructuredDelta{
			FieldName:  d.FieldName,
			FieldLabel: label(desc, d.FieldName),
			FieldType:  fieldTypeName(desc, d.FieldName, d.Kind),
			Before:     d.Before,
			After:      d.After,
			Note:       d.Note,
		})
	}
	return out
}

// ContentStructured renders a content diff in union-schema order. A field
// whose definition cannot be resolved (removed by later schema evolution,
// unknown type) degrades to an error entry instead of raising.
func ContentStructured(cd diff.ContentDiff, desc *recordtype.Descriptor) []StructuredDelta {
	out := make([]StructuredDelta, 0, len(cd.Deltas))
	for _, def := range cd.UnionSchema {
		delta, ok := cd.Deltas[def.Name]
		if !ok {
			continue
		}
		if def.Type == "" || !fieldtype.Known(def.Type) {
			out = append(out, StructuredDelta{FieldName: def.Name, Error: "internal error"})
			continue
		}
		out = append(out, StructuredDelta{
			FieldName:  def.Name,
			FieldLabel: fieldLabel(def, desc),
			FieldType:  string(def.Type),
			Before:     delta.Old,
			After:      delta.New,
			Note:       delta.Note,
		})
	}
	return out
}

// Text renders a whole-record raw diff as one line per field:
// "<label> : <before> -> <after>". Many-relation fields are reduced to a
// +/- bullet list by set difference of the two full lists.
func Text(raw diff.RawDiff, desc *recordtype.Descriptor) string {
	var lines []string
	for _, d := range raw {
		switch d.Kind {
		case diff.KindRelationMany:
			lines = append(lines, manyRelationBullets(d)...)
		case diff.KindContent:
			lines = append(lines, label(desc, d.FieldName)+" : content changed")
		default:
			lines = append(lines, scalarLine(d, desc)...)
		}
	}
	return strings.Join(lines, "\n")
}

// ContentText renders a content diff as one line per changed field, in
// union-schema order, with type-aware value formatting.
func ContentText(cd diff.ContentDiff, desc *recordtype.Descriptor) string {
	var lines []string
	for _, def := range cd.UnionSchema {
		delta, ok := cd.Deltas[def.Name]
		if !ok {
			continue
		}
		lbl := fieldLabel(def, desc)
		if delta.Note == diff.NoteTypeChanged || delta.Note == diff.NoteInternalError {
			lines = append(lines, fmt.Sprintf("%s : (%s)", lbl, delta.Note))
			continue
		}
		before := formatContentValue(def, delta.Old, desc)
		after := formatContentValue(def, delta.New, desc)
		line := fmt.Sprintf("%s : %s -> %s", lbl, before, after)
		if delta.Note != "" {
			line += " (" + delta.Note + ")"
		}
		lines = append(lines, line)
		if def.Type == model.FieldMultilineText {
			if body := unifiedBody(delta.Old, delta.New); body != "" {
				lines = append(lines, body)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func scalarLine(d diff.FieldDelta, desc *recordtype.Descriptor) []string {
	lbl := label(desc, d.FieldName)
	line := fmt.Sprintf("%s : %s -> %s", lbl, formatScalar(d.Before, desc, d.FieldName), formatScalar(d.After, desc, d.FieldName))
	if d.Note != "" {
		line += " (" + d.Note + ")"
	}
	lines := []string{line}
	if sb, ok := d.Before.(string); ok {
		if sa, ok2 := d.After.(string); ok2 && (strings.Contains(sb, "\n") || strings.Contains(sa, "\n")) {
			if body := unifiedBody(sb, sa); body != "" {
				lines = append(lines, body)
			}
		}
	}
	return lines
}

// manyRelationBullets reduces the full before/after lists to added and
// removed items.
func manyRelationBullets(d diff.FieldDelta) []string {
	before, _ := d.Before.([]model.RelationRef)
	after, _ := d.After.([]model.RelationRef)

	beforeIDs := make(map[int64]struct{}, len(before))
	for _, r := range before {
		if r.ID != nil {
			beforeIDs[*r.ID] = struct{}{}
		}
	}
	afterIDs := make(map[int64]struct{}, len(after))
	for _, r := range after {
		if r.ID != nil {
			afterIDs[*r.ID] = struct{}{}
		}
	}

	var added, removed []string
	for _, r := range after {
		if r.ID == nil {
			continue
		}
		if _, ok := beforeIDs[*r.ID]; !ok {
			added = append(added, "+ "+r.Repr)
		}
	}
	for _, r := range before {
		if r.ID == nil {
			continue
		}
		if _, ok := afterIDs[*r.ID]; !ok {
			removed = append(removed, "- "+r.Repr)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return append(added, removed...)
}

// fieldTypeName resolves the field's configured type; the diff kind is the
// fallback for fields the descriptor does not declare.
func fieldTypeName(desc *recordtype.Descriptor, name string, kind diff.FieldKind) string {
	if desc != nil {
		if f, ok := desc.Field(name); ok && f.Type != "" {
			return f.Type
		}
	}
	return string(kind)
}

func label(desc *recordtype.Descriptor, name string) string {
	if desc == nil {
		return name
	}
	return desc.FieldLabel(name)
}

func fieldLabel(def model.FieldDefinition, desc *recordtype.Descriptor) string {
	if desc != nil {
		if lbl := desc.FieldLabel(def.Name); lbl != def.Name {
			return lbl
		}
	}
	if def.Label != "" {
		return def.Label
	}
	return def.Name
}

// formatScalar renders a raw machine value for the text view: booleans as
// yes/no, dates without time of day, relations by display repr.
func formatScalar(v any, desc *recordtype.Descriptor, field string) string {
	switch t := v.(type) {
	case nil:
		return emptyGlyph
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case time.Time:
		return t.Format("2006-01-02")
	case model.RelationRef:
		if t.ID == nil || t.Repr == "" {
			return emptyGlyph
		}
		return t.Repr
	case string:
		if t == "" {
			return emptyGlyph
		}
		if desc != nil {
			return desc.ChoiceLabel(field, t)
		}
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// formatContentValue renders one content field value using its definition.
func formatContentValue(def model.FieldDefinition, v any, desc *recordtype.Descriptor) string {
	if v == nil {
		return emptyGlyph
	}
	switch def.Type {
	case model.FieldRichText, model.FieldRichTextLimited, model.FieldRichTextExtended:
		doc, ok := v.(map[string]any)
		if !ok {
			return emptyGlyph
		}
		txt := fieldtype.PlainText(doc)
		if txt == "" {
			return emptyGlyph
		}
		return txt
	case model.FieldSingleChoice, model.FieldRadioChoice:
		s, _ := v.(string)
		if s == "" {
			return emptyGlyph
		}
		return choiceLabel(def, s, desc)
	case model.FieldMultiChoice:
		values := toStringList(v)
		if len(values) == 0 {
			return emptyGlyph
		}
		labels := make([]string, len(values))
		for i, s := range values {
			labels[i] = choiceLabel(def, s, desc)
		}
		return strings.Join(labels, ", ")
	default:
		s := fmt.Sprintf("%v", v)
		if s == "" {
			return emptyGlyph
		}
		return s
	}
}

func choiceLabel(def model.FieldDefinition, value string, desc *recordtype.Descriptor) string {
	for _, c := range def.Choices {
		if c.Value == value && c.Label != "" {
			return c.Label
		}
	}
	if desc != nil {
		return desc.ChoiceLabel(def.Name, value)
	}
	return value
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// unifiedBody renders a classic unified diff of two multiline values,
// indented under the summary line. Empty when the values are not both
// strings or the diff is empty.
func unifiedBody(before, after any) string {
	sb, ok := before.(string)
	if !ok {
		return ""
	}
	sa, ok := after.(string)
	if !ok {
		return ""
	}
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(sb),
		B:        difflib.SplitLines(sa),
		FromFile: "before",
		ToFile:   "after",
		Context:  2,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil || s == "" {
		return ""
	}
	var indented []string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		indented = append(indented, "    "+line)
	}
	return strings.Join(indented, "\n")
}
