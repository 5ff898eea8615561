// Package services orchestrates record use cases over the store: record
// creation, tracked mutation, major-version promotion and snapshot restore.
// Every content-affecting change appends an immutable snapshot; the log is
// never rewritten.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contentops/content-core/internal/content"
	"github.com/contentops/content-core/internal/core/record"
	"github.com/contentops/content-core/internal/diff"
	"github.com/contentops/content-core/internal/fieldtype"
	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/store"
)

// RecordService contains the core business logic for record versioning.
type RecordService struct {
	store  store.Store
	differ *diff.Engine
	log    zerolog.Logger
}

// NewRecordService creates a new record service.
func NewRecordService(s store.Store, log zerolog.Logger) *RecordService {
	return &RecordService{store: s, differ: diff.New(log), log: log}
}

// CreateRecordRequest carries everything needed to create a record. The
// schema comes from the record type's live configuration; capability checks
// (plan limits, permissions) happen in the caller before this point.
type CreateRecordRequest struct {
	RecordType    string
	Schema        model.Schema
	InitialValues model.ContentDocument
	Annotations   map[string]string
	Metadata      map[string]string
	Actor         string
}

// MutateRecordRequest proposes a new tracked state for a record. Schema is
// the record type's current schema; proposed content is validated against it.
type MutateRecordRequest struct {
	RecordID    string
	Schema      model.Schema
	Content     model.ContentDocument
	Annotations map[string]string
	Metadata    map[string]string
	Actor       string
}

// CreateRecord validates the schema and initial values, persists the record
// and captures its first snapshot, always version 1.0.
func (s *RecordService) CreateRecord(ctx context.Context, req CreateRecordRequest) (*model.Record, *model.Snapshot, error) {
	if req.RecordType == "" {
		return nil, nil, record.NewValidationError("recordType", "record type is required")
	}
	if req.Actor == "" {
		return nil, nil, record.NewValidationError("actor", "actor is required")
	}
	if err := fieldtype.ValidateSchema(req.Schema); err != nil {
		return nil, nil, err
	}

	doc := content.Initialize(req.Schema)
	for k, v := range req.InitialValues {
		doc[k] = v
	}
	if err := content.Validate(doc, req.Schema, content.ValidateOptions{Creation: true}); err != nil {
		return nil, nil, err
	}
	doc = normalizeDocument(doc)

	rec := &model.Record{
		RecordID:    uuid.New().String(),
		RecordType:  req.RecordType,
		Content:     doc,
		Annotations: req.Annotations,
		Metadata:    req.Metadata,
	}
	s.log.Info().Str("recordID", rec.RecordID).Str("recordType", req.RecordType).Msg("Creating record")

	created, err := s.store.Records().Create(ctx, rec)
	if err != nil {
		s.log.Error().Err(err).Str("recordID", rec.RecordID).Msg("Failed to create record")
		return nil, nil, err
	}

	snap, err := s.appendSnapshot(ctx, created, req.Schema, model.Version{Major: 1, Minor: 0}, req.Actor, "", nil)
	if err != nil {
		return nil, nil, err
	}
	return created, snap, nil
}

// MutateRecord applies a proposed content/annotation/metadata change. When
// nothing tracked differs from the latest snapshot, the save is a no-op and
// the returned snapshot is nil. Otherwise the record is updated and a new
// snapshot with the next minor version is appended.
func (s *RecordService) MutateRecord(ctx context.Context, req MutateRecordRequest) (*model.Record, *model.Snapshot, error) {
	if req.RecordID == "" {
		return nil, nil, record.NewValidationError("recordID", "record ID is required")
	}
	if req.Actor == "" {
		return nil, nil, record.NewValidationError("actor", "actor is required")
	}

	rec, err := s.store.Records().Get(ctx, req.RecordID)
	if err != nil {
		return nil, nil, err
	}
	latest, err := s.mustLatest(ctx, rec.RecordID)
	if err != nil {
		return nil, nil, err
	}

	proposed := req.Content.Clone()
	if err := content.Validate(proposed, req.Schema, content.ValidateOptions{}); err != nil {
		return nil, nil, err
	}
	proposed = normalizeDocument(proposed)

	if !s.trackedChange(latest, proposed, req) {
		s.log.Debug().Str("recordID", rec.RecordID).Msg("Mutation changed nothing tracked; skipping snapshot")
		return rec, nil, nil
	}

	rec.Content = proposed
	rec.Annotations = req.Annotations
	rec.Metadata = req.Metadata
	updated, err := s.store.Records().Update(ctx, rec)
	if err != nil {
		return nil, nil, err
	}

	next := model.Version{Major: latest.Version.Major, Minor: latest.Version.Minor + 1}
	snap, err := s.appendSnapshot(ctx, updated, req.Schema, next, req.Actor, "", nil)
	if err != nil {
		return nil, nil, err
	}
	return updated, snap, nil
}

// trackedChange reports whether the proposed state differs from the latest
// snapshot in content, annotations or metadata.
func (s *RecordService) trackedChange(latest *model.Snapshot, proposed model.ContentDocument, req MutateRecordRequest) bool {
	cd := s.differ.DiffContent(
		diff.DocumentState{Document: latest.Content, Schema: latest.Schema},
		diff.DocumentState{Document: proposed, Schema: req.Schema},
		true,
	)
	if len(cd.Deltas) > 0 {
		return true
	}
	if !maps.Equal(latest.Annotations, req.Annotations) {
		return true
	}
	return !maps.Equal(latest.Metadata, req.Metadata)
}

// PromoteMajorVersion promotes the record's current snapshot to the next
// major version: content unchanged, minor reset to zero. Promoting a
// snapshot whose minor is already zero fails with AlreadyMajorVersionError;
// two consecutive promotions with no intervening edit are disallowed.
func (s *RecordService) PromoteMajorVersion(ctx context.Context, recordID, actor string) (*model.Snapshot, error) {
	if actor == "" {
		return nil, record.NewValidationError("actor", "actor is required")
	}
	rec, err := s.store.Records().Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	latest, err := s.mustLatest(ctx, rec.RecordID)
	if err != nil {
		return nil, err
	}

	if latest.Version.Minor == 0 {
		return nil, record.AlreadyMajorVersionError{Major: latest.Version.Major, Minor: latest.Version.Minor}
	}

	s.log.Info().Str("recordID", recordID).
		Str("from", latest.Version.String()).
		Msg("Promoting record to new major version")

	next := model.Version{Major: latest.Version.Major + 1, Minor: 0}
	promoted := &model.Snapshot{
		SnapshotID:  uuid.New().String(),
		RecordID:    rec.RecordID,
		Version:     next,
		Content:     latest.Content.Clone(),
		Schema:      latest.Schema,
		Annotations: maps.Clone(latest.Annotations),
		Metadata:    maps.Clone(latest.Metadata),
		Actor:       actor,
	}
	return s.store.Snapshots().Create(ctx, promoted)
}

// RestoreSnapshot rewinds a record's content to a historical snapshot. Only
// differing fields are applied; each gets its edit counter bumped. History
// is never rewritten: restore appends a new snapshot that back-references
// the restore target.
func (s *RecordService) RestoreSnapshot(ctx context.Context, recordID, targetSnapshotID, actor, comment string) (*model.Snapshot, error) {
	if actor == "" {
		return nil, record.NewValidationError("actor", "actor is required")
	}
	rec, err := s.store.Records().Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	target, err := s.store.Snapshots().GetByID(ctx, recordID, targetSnapshotID)
	if err != nil {
		return nil, err
	}
	latest, err := s.mustLatest(ctx, rec.RecordID)
	if err != nil {
		return nil, err
	}

	changed := changedFieldNames(rec.Content, target.Content)
	if rec.FieldEditCounts == nil {
		rec.FieldEditCounts = make(map[string]int, len(changed))
	}
	for _, name := range changed {
		rec.FieldEditCounts[name]++
	}

	s.log.Info().Str("recordID", recordID).
		Str("targetSnapshotID", targetSnapshotID).
		Int("changedFields", len(changed)).
		Msg("Restoring record from snapshot")

	rec.Content = target.Content.Clone()
	updated, err := s.store.Records().Update(ctx, rec)
	if err != nil {
		return nil, err
	}

	next := model.Version{Major: latest.Version.Major, Minor: latest.Version.Minor + 1}
	return s.appendSnapshot(ctx, updated, target.Schema, next, actor, comment, &target.SnapshotID)
}

// DeleteRecord discards the record and its whole snapshot history.
func (s *RecordService) DeleteRecord(ctx context.Context, recordID string) error {
	s.log.Info().Str("recordID", recordID).Msg("Deleting record and snapshot history")
	return s.store.Records().Delete(ctx, recordID)
}

// GetRecord retrieves the live record.
func (s *RecordService) GetRecord(ctx context.Context, recordID string) (*model.Record, error) {
	return s.store.Records().Get(ctx, recordID)
}

// LatestSnapshot returns the record's most recent snapshot.
func (s *RecordService) LatestSnapshot(ctx context.Context, recordID string) (*model.Snapshot, error) {
	return s.store.Snapshots().Latest(ctx, recordID)
}

// GetSnapshot returns one historical snapshot of a record.
func (s *RecordService) GetSnapshot(ctx context.Context, recordID, snapshotID string) (*model.Snapshot, error) {
	return s.store.Snapshots().GetByID(ctx, recordID, snapshotID)
}

// ListSnapshots returns the record's history, newest first.
func (s *RecordService) ListSnapshots(ctx context.Context, recordID string) ([]*model.Snapshot, error) {
	return s.store.Snapshots().ListByRecord(ctx, recordID)
}

// Differ exposes the service's diff engine for callers that render
// snapshot-to-snapshot comparisons.
func (s *RecordService) Differ() *diff.Engine {
	return s.differ
}

// mustLatest loads the record's latest snapshot. A record with zero
// snapshots cannot exist after creation; encountering one is a fatal
// invariant violation, not a recoverable error. Store failures other than
// a missing row are returned normally.
func (s *RecordService) mustLatest(ctx context.Context, recordID string) (*model.Snapshot, error) {
	latest, err := s.store.Snapshots().Latest(ctx, recordID)
	if errors.Is(err, model.ErrNotFound) {
		panic(fmt.Sprintf("invariant violation: record %s has no snapshots", recordID))
	}
	return latest, err
}

func (s *RecordService) appendSnapshot(ctx context.Context, rec *model.Record, schema model.Schema, v model.Version, actor, comment string, restoredFrom *string) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		SnapshotID:   uuid.New().String(),
		RecordID:     rec.RecordID,
		Version:      v,
		Content:      rec.Content.Clone(),
		Schema:       schema,
		Annotations:  maps.Clone(rec.Annotations),
		Metadata:     maps.Clone(rec.Metadata),
		Actor:        actor,
		Comment:      comment,
		RestoredFrom: restoredFrom,
	}
	created, err := s.store.Snapshots().Create(ctx, snap)
	if err != nil {
		s.log.Error().Err(err).Str("recordID", rec.RecordID).
			Str("version", v.String()).Msg("Failed to append snapshot")
		return nil, err
	}
	return created, nil
}

// changedFieldNames lists the union keys whose values differ between live
// and target content.
func changedFieldNames(live, target model.ContentDocument) []string {
	var out []string
	seen := make(map[string]struct{}, len(live))
	for name, liveVal := range live {
		seen[name] = struct{}{}
		targetVal, ok := target[name]
		if !ok || !jsonEqual(liveVal, targetVal) {
			out = append(out, name)
		}
	}
	for name := range target {
		if _, ok := seen[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// normalizeDocument round-trips a document through JSON so in-memory values
// match what the store hands back (ints become float64, typed slices become
// []any). Keeps no-op detection honest.
func normalizeDocument(doc model.ContentDocument) model.ContentDocument {
	b, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("normalize document: %v", err))
	}
	var out model.ContentDocument
	if err := json.Unmarshal(b, &out); err != nil {
		panic(fmt.Sprintf("normalize document: %v", err))
	}
	return out
}

func jsonEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}
