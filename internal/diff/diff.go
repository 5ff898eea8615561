// Package diff computes field-level deltas between two states of a record.
// It is pure and synchronous: both states must be fully materialized before
// diffing (relations resolved to {id, repr} pairs, content loaded). The
// engine never performs I/O.
package diff

import (
	"reflect"

	"github.com/rs/zerolog"

	"github.com/contentops/content-core/internal/model"
)

// FieldKind classifies how a record field is diffed and rendered.
type FieldKind string

const (
	KindScalar         FieldKind = "scalar"
	KindRelationSingle FieldKind = "relation_single"
	KindRelationMany   FieldKind = "relation_many"
	KindContent        FieldKind = "content"
)

// FieldValue is one materialized field of a record state. Exactly one of the
// value slots is meaningful, selected by Kind.
type FieldValue struct {
	Name      string
	Kind      FieldKind
	Scalar    any
	Relation  *model.RelationRef
	Relations []model.RelationRef
	Content   *DocumentState
}

// RecordState is a record's fields in canonical declaration order. The
// before-state must be captured before the caller mutates the live record.
type RecordState struct {
	Fields []FieldValue
}

// FieldDelta is one changed field of a raw diff. Before/After always carry
// machine values; human labels are substituted at presentation time.
type FieldDelta struct {
	FieldName string    `json:"fieldName"`
	Kind      FieldKind `json:"kind"`
	Before    any       `json:"before"`
	After     any       `json:"after"`
	Note      string    `json:"note,omitempty"`
}

// RawDiff is an ordered sequence of field deltas, emitted in the record's
// canonical field declaration order.
type RawDiff []FieldDelta

// Options control a whole-record diff.
type Options struct {
	// Excluded names fields that are never diffed: timestamps, search
	// artifacts, internal bookkeeping, the raw content container.
	Excluded map[string]struct{}
	// IncludeUnchanged emits a delta for every field, changed or not.
	IncludeUnchanged bool
}

// Engine computes structural diffs. The logger is used only on the degraded
// per-field error path of content diffs.
type Engine struct {
	log zerolog.Logger
}

// New returns an Engine logging degraded fields to log.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Diff compares two record states field by field. Deltas appear in the
// before-state's declaration order, with after-only fields appended.
func (e *Engine) Diff(before, after RecordState, opts Options) RawDiff {
	afterByName := make(map[string]FieldValue, len(after.Fields))
	for _, f := range after.Fields {
		afterByName[f.Name] = f
	}
	beforeNames := make(map[string]struct{}, len(before.Fields))

	var out RawDiff
	emit := func(b, a FieldValue) {
		if _, skip := opts.Excluded[b.Name]; skip {
			return
		}
		delta, changed := e.fieldDelta(b, a)
		if changed || opts.IncludeUnchanged {
			out = append(out, delta)
		}
	}

	for _, b := range before.Fields {
		beforeNames[b.Name] = struct{}{}
		a, ok := afterByName[b.Name]
		if !ok {
			a = FieldValue{Name: b.Name, Kind: b.Kind}
		}
		emit(b, a)
	}
	for _, a := range after.Fields {
		if _, seen := beforeNames[a.Name]; seen {
			continue
		}
		emit(FieldValue{Name: a.Name, Kind: a.Kind}, a)
	}
	return out
}

func (e *Engine) fieldDelta(b, a FieldValue) (FieldDelta, bool) {
	delta := FieldDelta{FieldName: b.Name, Kind: b.Kind}
	switch b.Kind {
	case KindScalar:
		delta.Before, delta.After = b.Scalar, a.Scalar
		return delta, !reflect.DeepEqual(b.Scalar, a.Scalar)

	case KindRelationSingle:
		br := normalizeRef(b.Relation)
		ar := normalizeRef(a.Relation)
		delta.Before, delta.After = br, ar
		return delta, !refEqual(br, ar)

	case KindRelationMany:
		// Full before/after lists; the add/remove reduction happens at
		// presentation time by set difference.
		delta.Before = normalizeRefs(b.Relations)
		delta.After = normalizeRefs(a.Relations)
		return delta, !refSetEqual(b.Relations, a.Relations)

	case KindContent:
		// A single sentinel delta with no payload; detailed per-field
		// deltas come from DiffContent, which needs schema-aware rendering.
		cd := e.DiffContent(docState(b.Content), docState(a.Content), true)
		return delta, len(cd.Deltas) > 0

	default:
		delta.Before, delta.After = b.Scalar, a.Scalar
		return delta, !reflect.DeepEqual(b.Scalar, a.Scalar)
	}
}

func docState(s *DocumentState) DocumentState {
	if s == nil {
		return DocumentState{}
	}
	return *s
}

func normalizeRef(r *model.RelationRef) model.RelationRef {
	if r == nil {
		return model.RelationRef{ID: nil, Repr: ""}
	}
	return *r
}

func normalizeRefs(refs []model.RelationRef) []model.RelationRef {
	if refs == nil {
		return []model.RelationRef{}
	}
	return refs
}

func refEqual(a, b model.RelationRef) bool {
	if (a.ID == nil) != (b.ID == nil) {
		return false
	}
	return a.ID == nil || *a.ID == *b.ID
}

// refSetEqual compares two many-relation collections as unordered id sets.
func refSetEqual(a, b []model.RelationRef) bool {
	as := refIDSet(a)
	bs := refIDSet(b)
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if _, ok := bs[id]; !ok {
			return false
		}
	}
	return true
}

func refIDSet(refs []model.RelationRef) map[int64]struct{} {
	set := make(map[int64]struct{}, len(refs))
	for _, r := range refs {
		if r.ID != nil {
			set[*r.ID] = struct{}{}
		}
	}
	return set
}
