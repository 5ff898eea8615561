package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentops/content-core/internal/model"
)

func schemaNames(s model.Schema) []string {
	names := make([]string, len(s))
	for i, def := range s {
		names[i] = def.Name
	}
	return names
}

func TestDiffContent_ChangedValue(t *testing.T) {
	e := newTestEngine()
	schema := model.Schema{
		{Name: "title", Type: model.FieldText},
		{Name: "count", Type: model.FieldInteger},
	}

	cd := e.DiffContent(
		DocumentState{Document: model.ContentDocument{"title": "Old", "count": int64(1)}, Schema: schema},
		DocumentState{Document: model.ContentDocument{"title": "New", "count": int64(1)}, Schema: schema},
		true,
	)

	require.Len(t, cd.Deltas, 1)
	d := cd.Deltas["title"]
	assert.Equal(t, "Old", d.Old)
	assert.Equal(t, "New", d.New)
	assert.Empty(t, d.Note)
}

func TestDiffContent_OnlyChangedFalse(t *testing.T) {
	e := newTestEngine()
	schema := model.Schema{
		{Name: "title", Type: model.FieldText},
		{Name: "count", Type: model.FieldInteger},
	}

	cd := e.DiffContent(
		DocumentState{Document: model.ContentDocument{"title": "Same", "count": int64(1)}, Schema: schema},
		DocumentState{Document: model.ContentDocument{"title": "Same", "count": int64(2)}, Schema: schema},
		false,
	)
	assert.Len(t, cd.Deltas, 2)
}

func TestDiffContent_FieldCreated(t *testing.T) {
	e := newTestEngine()
	schema := model.Schema{
		{Name: "title", Type: model.FieldText},
		{Name: "body", Type: model.FieldMultilineText},
	}

	// old content predates the body field even though the schema declares it
	cd := e.DiffContent(
		DocumentState{Document: model.ContentDocument{"title": "A"}, Schema: schema},
		DocumentState{Document: model.ContentDocument{"title": "A", "body": "text"}, Schema: schema},
		true,
	)

	require.Contains(t, cd.Deltas, "body")
	d := cd.Deltas["body"]
	assert.Equal(t, NoteFieldCreated, d.Note)
	assert.Equal(t, "", d.Old)
	assert.Equal(t, "text", d.New)
}

func TestDiffContent_FieldRemoved(t *testing.T) {
	e := newTestEngine()
	schema := model.Schema{
		{Name: "title", Type: model.FieldText},
		{Name: "body", Type: model.FieldMultilineText},
	}

	cd := e.DiffContent(
		DocumentState{Document: model.ContentDocument{"title": "A", "body": "text"}, Schema: schema},
		DocumentState{Document: model.ContentDocument{"title": "A"}, Schema: schema},
		true,
	)

	require.Contains(t, cd.Deltas, "body")
	d := cd.Deltas["body"]
	assert.Equal(t, NoteFieldRemoved, d.Note)
	assert.Equal(t, "text", d.Old)
	assert.Equal(t, "", d.New)
}

// Swapping old and new turns every created note into a removed note and
// vice versa, with Old and New mirrored.
func TestDiffContent_AntiSymmetry(t *testing.T) {
	e := newTestEngine()
	oldState := DocumentState{
		Document: model.ContentDocument{"title": "A", "gone": "x"},
		Schema:   model.Schema{{Name: "title", Type: model.FieldText}, {Name: "gone", Type: model.FieldText}},
	}
	newState := DocumentState{
		Document: model.ContentDocument{"title": "B", "fresh": "y"},
		Schema:   model.Schema{{Name: "title", Type: model.FieldText}, {Name: "fresh", Type: model.FieldText}},
	}

	forward := e.DiffContent(oldState, newState, true)
	reverse := e.DiffContent(newState, oldState, true)

	require.Equal(t, len(forward.Deltas), len(reverse.Deltas))
	for name, fd := range forward.Deltas {
		rd, ok := reverse.Deltas[name]
		require.True(t, ok, "field %s missing from reverse diff", name)
		assert.Equal(t, fd.Old, rd.New, "field %s", name)
		assert.Equal(t, fd.New, rd.Old, "field %s", name)
		switch fd.Note {
		case NoteFieldCreated:
			assert.Equal(t, NoteFieldRemoved, rd.Note)
		case NoteFieldRemoved:
			assert.Equal(t, NoteFieldCreated, rd.Note)
		default:
			assert.Equal(t, fd.Note, rd.Note)
		}
	}
}

func TestDiffContent_TypeChanged(t *testing.T) {
	e := newTestEngine()

	cd := e.DiffContent(
		DocumentState{
			Document: model.ContentDocument{"count": "5"},
			Schema:   model.Schema{{Name: "count", Type: model.FieldText}},
		},
		DocumentState{
			Document: model.ContentDocument{"count": int64(5)},
			Schema:   model.Schema{{Name: "count", Type: model.FieldInteger}},
		},
		true,
	)

	require.Contains(t, cd.Deltas, "count")
	d := cd.Deltas["count"]
	assert.Equal(t, NoteTypeChanged, d.Note)
	assert.Nil(t, d.Old)
	assert.Nil(t, d.New)
}

func TestDiffContent_UnknownTypeIsolated(t *testing.T) {
	e := newTestEngine()
	schema := model.Schema{
		{Name: "title", Type: model.FieldText},
		{Name: "weird", Type: "geo_point"},
	}

	cd := e.DiffContent(
		DocumentState{Document: model.ContentDocument{"title": "Old", "weird": "a"}, Schema: schema},
		DocumentState{Document: model.ContentDocument{"title": "New", "weird": "b"}, Schema: schema},
		true,
	)

	// the bad field degrades; the good field still diffs
	require.Contains(t, cd.Deltas, "weird")
	assert.Equal(t, NoteInternalError, cd.Deltas["weird"].Note)
	require.Contains(t, cd.Deltas, "title")
	assert.Equal(t, "New", cd.Deltas["title"].New)
}

func TestDiffContent_RichTextComparedStructurally(t *testing.T) {
	e := newTestEngine()
	schema := model.Schema{{Name: "body", Type: model.FieldRichText}}

	doc := func(text string) map[string]any {
		return map[string]any{"type": "doc", "content": []any{
			map[string]any{"type": "paragraph", "content": []any{
				map[string]any{"type": "text", "text": text},
			}},
		}}
	}

	same := e.DiffContent(
		DocumentState{Document: model.ContentDocument{"body": doc("hi")}, Schema: schema},
		DocumentState{Document: model.ContentDocument{"body": doc("hi")}, Schema: schema},
		true,
	)
	assert.Empty(t, same.Deltas)

	changed := e.DiffContent(
		DocumentState{Document: model.ContentDocument{"body": doc("hi")}, Schema: schema},
		DocumentState{Document: model.ContentDocument{"body": doc("bye")}, Schema: schema},
		true,
	)
	assert.Contains(t, changed.Deltas, "body")
}

func TestMergeSchemas_InsertBeforeSuccessor(t *testing.T) {
	oldSchema := model.Schema{
		{Name: "title", Type: model.FieldText},
		{Name: "body", Type: model.FieldRichText},
		{Name: "footer", Type: model.FieldText},
	}
	// new schema adds "teaser" between title and body, and "extra" at the end
	newSchema := model.Schema{
		{Name: "title", Type: model.FieldText},
		{Name: "teaser", Type: model.FieldText},
		{Name: "body", Type: model.FieldRichText},
		{Name: "footer", Type: model.FieldText},
		{Name: "extra", Type: model.FieldText},
	}

	union := mergeSchemas(oldSchema, newSchema, nil, nil)
	assert.Equal(t, []string{"title", "teaser", "body", "footer", "extra"}, schemaNames(union))
}

func TestMergeSchemas_NewDefinitionWins(t *testing.T) {
	oldSchema := model.Schema{{Name: "title", Type: model.FieldText}}
	newSchema := model.Schema{{Name: "title", Type: model.FieldMultilineText}}

	union := mergeSchemas(oldSchema, newSchema, nil, nil)
	require.Len(t, union, 1)
	assert.Equal(t, model.FieldMultilineText, union[0].Type)
}

func TestMergeSchemas_OrphansLastSorted(t *testing.T) {
	schema := model.Schema{{Name: "title", Type: model.FieldText}}
	oldDoc := model.ContentDocument{"title": "x", "zeta": 1}
	newDoc := model.ContentDocument{"title": "y", "alpha": 2}

	union := mergeSchemas(schema, schema, oldDoc, newDoc)
	assert.Equal(t, []string{"title", "alpha", "zeta"}, schemaNames(union))
	// orphans carry a bare name with no type
	assert.Empty(t, union[1].Type)
}
