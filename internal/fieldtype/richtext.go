package fieldtype

import (
	"strings"

	"github.com/contentops/content-core/internal/model"
)

// Rich text values are opaque editor document trees: a map with a node
// "type" and a "content" list of child nodes. The registry never interprets
// node semantics beyond recognizing the shape and collecting text leaves.

// EmptyDocument returns a rich-text document with no content.
func EmptyDocument() map[string]any {
	return map[string]any{"type": "doc", "content": []any{}}
}

// IsDocument reports whether v has the shape of an editor document tree.
func IsDocument(v any) bool {
	doc, ok := v.(map[string]any)
	if !ok {
		return false
	}
	t, ok := doc["type"].(string)
	return ok && t != ""
}

// IsEmptyDocument reports whether doc contains no text leaves.
func IsEmptyDocument(doc map[string]any) bool {
	return strings.TrimSpace(PlainText(doc)) == ""
}

// PlainText extracts the concatenated text leaves of a document tree, with
// block nodes separated by newlines. Used for the search feed and for
// human-facing rendering.
func PlainText(doc map[string]any) string {
	var b strings.Builder
	writePlainText(&b, doc, true)
	return strings.TrimSpace(b.String())
}

func writePlainText(b *strings.Builder, node map[string]any, root bool) {
	if txt, ok := node["text"].(string); ok {
		b.WriteString(txt)
		return
	}
	content, _ := node["content"].([]any)
	for _, child := range content {
		cn, ok := child.(map[string]any)
		if !ok {
			continue
		}
		writePlainText(b, cn, false)
		if isBlockNode(cn) {
			b.WriteString("\n")
		}
	}
	_ = root
}

func isBlockNode(node map[string]any) bool {
	t, _ := node["type"].(string)
	switch t {
	case "paragraph", "heading", "blockquote", "list_item", "code_block":
		return true
	}
	return false
}

// validateDocumentShape applies the per-variant provider constraints.
func validateDocumentShape(t model.FieldType, doc map[string]any) string {
	switch t {
	case model.FieldRichTextLimited:
		// The limited editor only produces paragraph blocks.
		if bad := firstDisallowedBlock(doc); bad != "" {
			return "block node " + bad + " not allowed in limited rich text"
		}
	case model.FieldRichTextExtended:
		if kind, _ := doc["type"].(string); kind != "doc" {
			return "extended rich text requires a top-level doc node"
		}
		if _, ok := doc["content"].([]any); !ok {
			return "extended rich text requires a content list"
		}
	}
	return ""
}

func firstDisallowedBlock(node map[string]any) string {
	content, _ := node["content"].([]any)
	for _, child := range content {
		cn, ok := child.(map[string]any)
		if !ok {
			continue
		}
		if isBlockNode(cn) {
			if t, _ := cn["type"].(string); t != "paragraph" {
				return t
			}
		}
		if bad := firstDisallowedBlock(cn); bad != "" {
			return bad
		}
	}
	return ""
}
