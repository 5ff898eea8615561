package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	recordID := uuid.New().String()
	schema := model.Schema{
		{Name: "title", Type: model.FieldText, Required: true},
		{Name: "body", Type: model.FieldRichText},
	}

	// Records
	rec := &model.Record{
		RecordID:   recordID,
		RecordType: "article",
		Content:    model.ContentDocument{"title": "hello"},
	}
	if _, err := s.Records().Create(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	got, err := s.Records().Get(ctx, recordID)
	if err != nil || got == nil || got.RecordType != "article" {
		t.Fatalf("GetRecord: got=%v err=%v", got, err)
	}
	if got.Content["title"] != "hello" {
		t.Fatalf("GetRecord content: got=%v", got.Content)
	}
	if _, err := s.Records().Get(ctx, uuid.New().String()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetRecord missing: want ErrNotFound, got %v", err)
	}

	got.Content["title"] = "hello again"
	got.FieldEditCounts = map[string]int{"title": 1}
	if _, err := s.Records().Update(ctx, got); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	got, err = s.Records().Get(ctx, recordID)
	if err != nil || got.Content["title"] != "hello again" || got.FieldEditCounts["title"] != 1 {
		t.Fatalf("GetRecord after update: got=%v err=%v", got, err)
	}

	// Snapshots
	snap1 := &model.Snapshot{
		SnapshotID: uuid.New().String(),
		RecordID:   recordID,
		Version:    model.Version{Major: 1, Minor: 0},
		Content:    model.ContentDocument{"title": "hello"},
		Schema:     schema,
		Actor:      "tester",
	}
	if _, err := s.Snapshots().Create(ctx, snap1); err != nil {
		t.Fatalf("CreateSnapshot 1.0: %v", err)
	}

	// version uniqueness per record
	dup := *snap1
	dup.SnapshotID = uuid.New().String()
	if _, err := s.Snapshots().Create(ctx, &dup); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("CreateSnapshot duplicate version: want ErrConflict, got %v", err)
	}

	snap2 := &model.Snapshot{
		SnapshotID: uuid.New().String(),
		RecordID:   recordID,
		Version:    model.Version{Major: 1, Minor: 1},
		Content:    model.ContentDocument{"title": "hello again"},
		Schema:     schema,
		Actor:      "tester",
	}
	if _, err := s.Snapshots().Create(ctx, snap2); err != nil {
		t.Fatalf("CreateSnapshot 1.1: %v", err)
	}

	latest, err := s.Snapshots().Latest(ctx, recordID)
	if err != nil || latest.Version != (model.Version{Major: 1, Minor: 1}) {
		t.Fatalf("LatestSnapshot: got=%v err=%v", latest, err)
	}
	if latest.Content["title"] != "hello again" {
		t.Fatalf("LatestSnapshot content: got=%v", latest.Content)
	}
	if len(latest.Schema) != 2 || latest.Schema[0].Name != "title" {
		t.Fatalf("LatestSnapshot embedded schema: got=%v", latest.Schema)
	}

	byID, err := s.Snapshots().GetByID(ctx, recordID, snap1.SnapshotID)
	if err != nil || byID.Version != (model.Version{Major: 1, Minor: 0}) {
		t.Fatalf("GetSnapshotByID: got=%v err=%v", byID, err)
	}

	list, err := s.Snapshots().ListByRecord(ctx, recordID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListSnapshots: n=%d err=%v", len(list), err)
	}
	if !list[1].Version.Less(list[0].Version) {
		t.Fatalf("ListSnapshots order: %v before %v", list[0].Version, list[1].Version)
	}

	if n, err := s.Snapshots().Count(ctx, recordID); err != nil || n != 2 {
		t.Fatalf("CountSnapshots: n=%d err=%v", n, err)
	}

	// restored_from round-trips
	snap3 := &model.Snapshot{
		SnapshotID:   uuid.New().String(),
		RecordID:     recordID,
		Version:      model.Version{Major: 1, Minor: 2},
		Content:      model.ContentDocument{"title": "hello"},
		Schema:       schema,
		Actor:        "tester",
		Comment:      "rolled back",
		RestoredFrom: &snap1.SnapshotID,
	}
	if _, err := s.Snapshots().Create(ctx, snap3); err != nil {
		t.Fatalf("CreateSnapshot restored: %v", err)
	}
	gotSnap3, err := s.Snapshots().GetByID(ctx, recordID, snap3.SnapshotID)
	if err != nil || gotSnap3.RestoredFrom == nil || *gotSnap3.RestoredFrom != snap1.SnapshotID {
		t.Fatalf("GetSnapshot restored_from: got=%v err=%v", gotSnap3, err)
	}

	// Delete cascades snapshots
	if err := s.Records().Delete(ctx, recordID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if n, err := s.Snapshots().Count(ctx, recordID); err != nil || n != 0 {
		t.Fatalf("CountSnapshots after delete: n=%d err=%v", n, err)
	}
	if err := s.Records().Delete(ctx, recordID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteRecord missing: want ErrNotFound, got %v", err)
	}
}
