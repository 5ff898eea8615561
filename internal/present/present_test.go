package present

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentops/content-core/internal/diff"
	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/recordtype"
)

func ref(id int64, repr string) model.RelationRef {
	return model.RelationRef{ID: &id, Repr: repr}
}

func TestStructured_RoundTripsRawValues(t *testing.T) {
	raw := diff.RawDiff{
		{FieldName: "title", Kind: diff.KindScalar, Before: "Old", After: "New"},
		{FieldName: "owner", Kind: diff.KindRelationSingle, Before: ref(1, "Alice"), After: ref(2, "Bob")},
	}

	out := Structured(raw, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "Old", out[0].Before)
	assert.Equal(t, "New", out[0].After)
	assert.Equal(t, ref(1, "Alice"), out[1].Before)
	assert.Equal(t, "scalar", out[0].FieldType)
}

func TestStructured_DescriptorResolvesFieldType(t *testing.T) {
	desc, err := recordtype.Parse([]byte("name = \"article\"\n\n[[fields]]\nname = \"title\"\ntype = \"text\"\nlabel = \"Title\"\n"))
	require.NoError(t, err)

	raw := diff.RawDiff{
		{FieldName: "title", Kind: diff.KindScalar, Before: "Old", After: "New"},
		{FieldName: "unconfigured", Kind: diff.KindScalar, Before: 1, After: 2},
	}

	out := Structured(raw, desc)
	require.Len(t, out, 2)
	assert.Equal(t, "text", out[0].FieldType)
	assert.Equal(t, "Title", out[0].FieldLabel)
	// fields the descriptor does not declare keep the diff kind
	assert.Equal(t, "scalar", out[1].FieldType)
}

func TestText_Scalar(t *testing.T) {
	raw := diff.RawDiff{{FieldName: "title", Kind: diff.KindScalar, Before: "Old", After: "New"}}
	assert.Equal(t, "title : Old -> New", Text(raw, nil))
}

func TestText_BooleanYesNo(t *testing.T) {
	raw := diff.RawDiff{{FieldName: "published", Kind: diff.KindScalar, Before: false, After: true}}
	assert.Equal(t, "published : no -> yes", Text(raw, nil))
}

func TestText_DateWithoutTime(t *testing.T) {
	raw := diff.RawDiff{{
		FieldName: "deadline", Kind: diff.KindScalar,
		Before: time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC),
		After:  time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}}
	assert.Equal(t, "deadline : 2026-03-01 -> 2026-04-01", Text(raw, nil))
}

func TestText_EmptyGlyph(t *testing.T) {
	raw := diff.RawDiff{{FieldName: "subtitle", Kind: diff.KindScalar, Before: nil, After: "added"}}
	assert.Equal(t, "subtitle : ∅ -> added", Text(raw, nil))
}

func TestText_RelationSingle(t *testing.T) {
	raw := diff.RawDiff{{
		FieldName: "owner", Kind: diff.KindRelationSingle,
		Before: model.RelationRef{}, After: ref(2, "Bob"),
	}}
	assert.Equal(t, "owner : ∅ -> Bob", Text(raw, nil))
}

func TestText_ManyRelationBullets(t *testing.T) {
	t.Run("AddAndRemove", func(t *testing.T) {
		raw := diff.RawDiff{{
			FieldName: "tags", Kind: diff.KindRelationMany,
			Before: []model.RelationRef{ref(1, "red"), ref(2, "blue")},
			After:  []model.RelationRef{ref(2, "blue"), ref(3, "green")},
		}}
		assert.Equal(t, "+ green\n- red", Text(raw, nil))
	})

	t.Run("SingleAddIsOneLine", func(t *testing.T) {
		raw := diff.RawDiff{{
			FieldName: "tags", Kind: diff.KindRelationMany,
			Before: []model.RelationRef{},
			After:  []model.RelationRef{ref(9, "bar")},
		}}
		assert.Equal(t, "+ bar", Text(raw, nil))
	})
}

func TestText_ContentSentinel(t *testing.T) {
	raw := diff.RawDiff{{FieldName: "content", Kind: diff.KindContent}}
	assert.Equal(t, "content : content changed", Text(raw, nil))
}

func TestText_MultilineBody(t *testing.T) {
	raw := diff.RawDiff{{
		FieldName: "notes", Kind: diff.KindScalar,
		Before: "line one\nline two\n",
		After:  "line one\nline 2\n",
	}}
	out := Text(raw, nil)
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 1)
	assert.Contains(t, out, "    --- before")
	assert.Contains(t, out, "    +++ after")
	assert.Contains(t, out, "-line two")
	assert.Contains(t, out, "+line 2")
}

func TestContentText(t *testing.T) {
	schema := model.Schema{
		{Name: "title", Type: model.FieldText, Label: "Title"},
		{Name: "status", Type: model.FieldSingleChoice, Label: "Status", Choices: []model.Choice{
			{Value: "draft", Label: "Draft"}, {Value: "live", Label: "Published"},
		}},
	}
	cd := diff.ContentDiff{
		UnionSchema: schema,
		Deltas: map[string]diff.ContentFieldDelta{
			"title":  {Old: "A", New: "B"},
			"status": {Old: "draft", New: "live"},
		},
	}

	out := ContentText(cd, nil)
	assert.Equal(t, "Title : A -> B\nStatus : Draft -> Published", out)
}

func TestContentText_Notes(t *testing.T) {
	schema := model.Schema{
		{Name: "body", Type: model.FieldMultilineText, Label: "Body"},
		{Name: "count", Type: model.FieldInteger, Label: "Count"},
	}
	cd := diff.ContentDiff{
		UnionSchema: schema,
		Deltas: map[string]diff.ContentFieldDelta{
			"body":  {Old: "", New: "text", Note: diff.NoteFieldCreated},
			"count": {Note: diff.NoteTypeChanged},
		},
	}

	out := ContentText(cd, nil)
	assert.Contains(t, out, "Body : ∅ -> text (field created)")
	assert.Contains(t, out, "Count : (type changed, cannot compare)")
}

func TestContentText_RichTextRendersPlainText(t *testing.T) {
	schema := model.Schema{{Name: "body", Type: model.FieldRichText, Label: "Body"}}
	doc := func(text string) map[string]any {
		return map[string]any{"type": "doc", "content": []any{
			map[string]any{"type": "paragraph", "content": []any{
				map[string]any{"type": "text", "text": text},
			}},
		}}
	}
	cd := diff.ContentDiff{
		UnionSchema: schema,
		Deltas: map[string]diff.ContentFieldDelta{
			"body": {Old: doc("hello"), New: doc("goodbye")},
		},
	}
	assert.Equal(t, "Body : hello -> goodbye", ContentText(cd, nil))
}

func TestContentStructured_UnresolvableField(t *testing.T) {
	cd := diff.ContentDiff{
		UnionSchema: model.Schema{
			{Name: "title", Type: model.FieldText},
			{Name: "orphan"},
		},
		Deltas: map[string]diff.ContentFieldDelta{
			"title":  {Old: "A", New: "B"},
			"orphan": {Old: "x", New: "y"},
		},
	}

	out := ContentStructured(cd, nil)
	require.Len(t, out, 2)
	assert.Empty(t, out[0].Error)
	assert.Equal(t, "orphan", out[1].FieldName)
	assert.Equal(t, "internal error", out[1].Error)
}

func TestContentStructured_UnionOrder(t *testing.T) {
	cd := diff.ContentDiff{
		UnionSchema: model.Schema{
			{Name: "b", Type: model.FieldText},
			{Name: "a", Type: model.FieldText},
		},
		Deltas: map[string]diff.ContentFieldDelta{
			"a": {Old: "1", New: "2"},
			"b": {Old: "1", New: "2"},
		},
	}
	out := ContentStructured(cd, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].FieldName)
	assert.Equal(t, "a", out[1].FieldName)
}
