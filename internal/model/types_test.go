package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.True(t, Version{Major: 1, Minor: 2}.Less(Version{Major: 2, Minor: 0}))
	assert.True(t, Version{Major: 2, Minor: 0}.Less(Version{Major: 2, Minor: 1}))
	assert.False(t, Version{Major: 2, Minor: 1}.Less(Version{Major: 2, Minor: 1}))
	assert.False(t, Version{Major: 3, Minor: 0}.Less(Version{Major: 2, Minor: 9}))

	assert.Equal(t, "2.0", Version{Major: 2, Minor: 0}.String())
}

func TestContentDocumentClone(t *testing.T) {
	doc := ContentDocument{
		"title": "A",
		"tags":  []string{"x"},
		"body": map[string]any{"type": "doc", "content": []any{
			map[string]any{"type": "paragraph"},
		}},
	}

	clone := doc.Clone()
	require.Equal(t, doc, clone)

	// mutating the clone leaves the original untouched
	clone["title"] = "B"
	clone["tags"].([]string)[0] = "y"
	clone["body"].(map[string]any)["type"] = "other"

	assert.Equal(t, "A", doc["title"])
	assert.Equal(t, "x", doc["tags"].([]string)[0])
	assert.Equal(t, "doc", doc["body"].(map[string]any)["type"])
}

func TestContentDocumentClone_Nil(t *testing.T) {
	var doc ContentDocument
	assert.Nil(t, doc.Clone())
}

func TestSchemaFieldByName(t *testing.T) {
	schema := Schema{{Name: "title", Type: FieldText}}

	def, ok := schema.FieldByName("title")
	assert.True(t, ok)
	assert.Equal(t, FieldText, def.Type)

	_, ok = schema.FieldByName("missing")
	assert.False(t, ok)
}
