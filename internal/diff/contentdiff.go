package diff

import (
	"reflect"
	"sort"

	"github.com/contentops/content-core/internal/fieldtype"
	"github.com/contentops/content-core/internal/model"
)

// Notes attached to content field deltas.
const (
	NoteFieldCreated  = "field created"
	NoteFieldRemoved  = "field removed"
	NoteTypeChanged   = "type changed, cannot compare"
	NoteInternalError = "internal error"
)

// DocumentState pairs a content document with the schema it was captured
// under. Snapshots embed their schema, so two states of the same record may
// carry different schemas.
type DocumentState struct {
	Document model.ContentDocument
	Schema   model.Schema
}

// ContentFieldDelta is the before/after of one content field. A missing side
// is the empty string, matching how audit consumers render absence.
type ContentFieldDelta struct {
	Old  any    `json:"old"`
	New  any    `json:"new"`
	Note string `json:"note,omitempty"`
}

// ContentDiff is the result of a schema-aware content comparison.
type ContentDiff struct {
	Deltas      map[string]ContentFieldDelta `json:"deltas"`
	UnionSchema model.Schema                 `json:"unionSchema"`
}

// DiffContent compares two content documents under their respective schemas.
// The union of field names is walked in a stable merge of the two schema
// orders. A failure resolving one field degrades to an "internal error"
// delta for that field only; the rest of the diff proceeds.
func (e *Engine) DiffContent(old, new DocumentState, onlyChanged bool) ContentDiff {
	union := mergeSchemas(old.Schema, new.Schema, old.Document, new.Document)

	deltas := make(map[string]ContentFieldDelta)
	for _, def := range union {
		delta, ok := e.contentFieldDelta(def.Name, old, new)
		if !ok {
			continue
		}
		if onlyChanged && delta.Note == "" && reflect.DeepEqual(delta.Old, delta.New) {
			continue
		}
		deltas[def.Name] = delta
	}
	return ContentDiff{Deltas: deltas, UnionSchema: union}
}

// contentFieldDelta resolves one field. The second return is false when the
// field has no value on either side. Panics are isolated per field.
func (e *Engine) contentFieldDelta(name string, old, new DocumentState) (delta ContentFieldDelta, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("field", name).Interface("panic", r).
				Msg("content diff failed for field")
			delta = ContentFieldDelta{Note: NoteInternalError}
			ok = true
		}
	}()

	oldVal, oldPresent := old.Document[name]
	newVal, newPresent := new.Document[name]

	switch {
	case !oldPresent && !newPresent:
		return ContentFieldDelta{}, false

	case !oldPresent:
		return ContentFieldDelta{Old: "", New: newVal, Note: NoteFieldCreated}, true

	case !newPresent:
		return ContentFieldDelta{Old: oldVal, New: "", Note: NoteFieldRemoved}, true
	}

	oldType := fieldTypeOf(old.Schema, name)
	newType := fieldTypeOf(new.Schema, name)
	if oldType != newType {
		return ContentFieldDelta{Note: NoteTypeChanged}, true
	}
	if oldType != "" && !fieldtype.Known(oldType) {
		e.log.Warn().Str("field", name).Str("type", string(oldType)).
			Msg("content diff: unknown field type")
		return ContentFieldDelta{Note: NoteInternalError}, true
	}

	// Same type on both sides: compare values directly. Rich text is
	// compared in its structured document form, not by plain-text render.
	return ContentFieldDelta{Old: oldVal, New: newVal}, true
}

func fieldTypeOf(schema model.Schema, name string) model.FieldType {
	if def, ok := schema.FieldByName(name); ok {
		return def.Type
	}
	return ""
}

// mergeSchemas builds the union field list: the old schema's order is
// preserved and each new-schema-only field is inserted immediately before
// the first field that follows it in the new schema, not appended at the
// end. Orphaned document keys (no definition on either side) come last in
// lexical order. Definitions from the new schema win for shared names.
func mergeSchemas(oldSchema, newSchema model.Schema, oldDoc, newDoc model.ContentDocument) model.Schema {
	defs := make(map[string]model.FieldDefinition, len(oldSchema)+len(newSchema))
	for _, def := range oldSchema {
		defs[def.Name] = def
	}
	for _, def := range newSchema {
		defs[def.Name] = def
	}

	names := make([]string, 0, len(defs))
	inMerged := make(map[string]int, len(defs))
	for _, def := range oldSchema {
		if _, ok := inMerged[def.Name]; ok {
			continue
		}
		inMerged[def.Name] = len(names)
		names = append(names, def.Name)
	}

	reindex := func() {
		for i, n := range names {
			inMerged[n] = i
		}
	}

	for i, def := range newSchema {
		if _, ok := inMerged[def.Name]; ok {
			continue
		}
		pos := len(names)
		for _, follower := range newSchema[i+1:] {
			if at, ok := inMerged[follower.Name]; ok {
				pos = at
				break
			}
		}
		names = append(names, "")
		copy(names[pos+1:], names[pos:])
		names[pos] = def.Name
		reindex()
	}

	// Orphaned values kept for diff purposes only.
	var orphans []string
	for _, doc := range []model.ContentDocument{oldDoc, newDoc} {
		for key := range doc {
			if _, ok := defs[key]; ok {
				continue
			}
			if _, ok := inMerged[key]; ok {
				continue
			}
			inMerged[key] = -1
			orphans = append(orphans, key)
		}
	}
	sort.Strings(orphans)

	union := make(model.Schema, 0, len(names)+len(orphans))
	for _, name := range names {
		union = append(union, defs[name])
	}
	for _, name := range orphans {
		union = append(union, model.FieldDefinition{Name: name})
	}
	return union
}
