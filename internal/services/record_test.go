package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentops/content-core/internal/core/record"
	"github.com/contentops/content-core/internal/diff"
	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/store/sqlite"
)

func newTestService(t *testing.T) *RecordService {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRecordService(sqlite.NewWithDB(db), zerolog.Nop())
}

func articleSchema() model.Schema {
	return model.Schema{
		{Name: "title", Type: model.FieldText, Required: true, Initial: "Untitled"},
		{Name: "body", Type: model.FieldMultilineText},
		{Name: "status", Type: model.FieldSingleChoice, Choices: []model.Choice{
			{Value: "draft", Label: "Draft"}, {Value: "live", Label: "Published"},
		}, Initial: "draft"},
	}
}

func mustCreate(t *testing.T, svc *RecordService) (*model.Record, *model.Snapshot) {
	t.Helper()
	rec, snap, err := svc.CreateRecord(context.Background(), CreateRecordRequest{
		RecordType: "article",
		Schema:     articleSchema(),
		Actor:      "tester",
	})
	require.NoError(t, err)
	return rec, snap
}

func TestCreateRecord(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, snap, err := svc.CreateRecord(ctx, CreateRecordRequest{
		RecordType:    "article",
		Schema:        articleSchema(),
		InitialValues: model.ContentDocument{"title": "First"},
		Annotations:   map[string]string{"channel": "web"},
		Actor:         "tester",
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NotNil(t, snap)

	// first snapshot is always 1.0
	assert.Equal(t, model.Version{Major: 1, Minor: 0}, snap.Version)
	assert.Equal(t, "First", snap.Content["title"])
	assert.Equal(t, "draft", snap.Content["status"])
	assert.Equal(t, "tester", snap.Actor)

	count, err := svc.store.Snapshots().Count(ctx, rec.RecordID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateRecord_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("MissingActor", func(t *testing.T) {
		_, _, err := svc.CreateRecord(ctx, CreateRecordRequest{RecordType: "article", Schema: articleSchema()})
		assert.True(t, record.IsValidationError(err))
	})

	t.Run("BadSchema", func(t *testing.T) {
		_, _, err := svc.CreateRecord(ctx, CreateRecordRequest{
			RecordType: "article",
			Schema:     model.Schema{{Name: "x", Type: "geo_point"}},
			Actor:      "tester",
		})
		assert.True(t, record.IsSchemaError(err))
	})

	t.Run("BadInitialValue", func(t *testing.T) {
		_, _, err := svc.CreateRecord(ctx, CreateRecordRequest{
			RecordType:    "article",
			Schema:        articleSchema(),
			InitialValues: model.ContentDocument{"status": "archived"},
			Actor:         "tester",
		})
		assert.True(t, record.IsFieldValidationError(err))
	})
}

func TestMutateRecord_MinorVersions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rec, _ := mustCreate(t, svc)

	titles := []string{"Second", "Third", "Fourth"}
	for i, title := range titles {
		_, snap, err := svc.MutateRecord(ctx, MutateRecordRequest{
			RecordID: rec.RecordID,
			Schema:   articleSchema(),
			Content:  model.ContentDocument{"title": title, "status": "draft"},
			Actor:    "tester",
		})
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, model.Version{Major: 1, Minor: i + 1}, snap.Version)
	}

	count, err := svc.store.Snapshots().Count(ctx, rec.RecordID)
	require.NoError(t, err)
	assert.Equal(t, 1+len(titles), count)
}

func TestMutateRecord_NoOp(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rec, first := mustCreate(t, svc)

	// identical content, annotations and metadata: nothing is appended
	updated, snap, err := svc.MutateRecord(ctx, MutateRecordRequest{
		RecordID: rec.RecordID,
		Schema:   articleSchema(),
		Content:  first.Content.Clone(),
		Actor:    "tester",
	})
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.NotNil(t, updated)

	count, err := svc.store.Snapshots().Count(ctx, rec.RecordID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMutateRecord_AnnotationChangeIsTracked(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rec, first := mustCreate(t, svc)

	_, snap, err := svc.MutateRecord(ctx, MutateRecordRequest{
		RecordID:    rec.RecordID,
		Schema:      articleSchema(),
		Content:     first.Content.Clone(),
		Annotations: map[string]string{"channel": "print"},
		Actor:       "tester",
	})
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, model.Version{Major: 1, Minor: 1}, snap.Version)
}

func TestPromoteMajorVersion(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rec, _ := mustCreate(t, svc)

	t.Run("RejectedAtMinorZero", func(t *testing.T) {
		_, err := svc.PromoteMajorVersion(ctx, rec.RecordID, "tester")
		require.Error(t, err)
		assert.True(t, record.IsAlreadyMajorVersionError(err))
		assert.EqualError(t, err, "version 1.0 is already a major version")
	})

	t.Run("PromotesAfterEdit", func(t *testing.T) {
		_, _, err := svc.MutateRecord(ctx, MutateRecordRequest{
			RecordID: rec.RecordID,
			Schema:   articleSchema(),
			Content:  model.ContentDocument{"title": "Edited", "status": "draft"},
			Actor:    "tester",
		})
		require.NoError(t, err)

		snap, err := svc.PromoteMajorVersion(ctx, rec.RecordID, "tester")
		require.NoError(t, err)
		assert.Equal(t, model.Version{Major: 2, Minor: 0}, snap.Version)
		assert.Equal(t, "Edited", snap.Content["title"])
	})

	t.Run("SecondPromotionRejected", func(t *testing.T) {
		_, err := svc.PromoteMajorVersion(ctx, rec.RecordID, "tester")
		assert.True(t, record.IsAlreadyMajorVersionError(err))
	})
}

func TestRestoreSnapshot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rec, first := mustCreate(t, svc)

	_, _, err := svc.MutateRecord(ctx, MutateRecordRequest{
		RecordID: rec.RecordID,
		Schema:   articleSchema(),
		Content:  model.ContentDocument{"title": "Changed", "body": "new text", "status": "live"},
		Actor:    "tester",
	})
	require.NoError(t, err)

	snap, err := svc.RestoreSnapshot(ctx, rec.RecordID, first.SnapshotID, "tester", "roll back")
	require.NoError(t, err)

	// restore appends, it never rewrites history
	assert.Equal(t, model.Version{Major: 1, Minor: 2}, snap.Version)
	require.NotNil(t, snap.RestoredFrom)
	assert.Equal(t, first.SnapshotID, *snap.RestoredFrom)
	assert.Equal(t, "roll back", snap.Comment)
	assert.Equal(t, first.Content, snap.Content)

	count, err := svc.store.Snapshots().Count(ctx, rec.RecordID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// every reverted field gets its edit counter bumped
	restored, err := svc.GetRecord(ctx, rec.RecordID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.FieldEditCounts["title"])
	assert.Equal(t, 1, restored.FieldEditCounts["body"])
	assert.Equal(t, 1, restored.FieldEditCounts["status"])

	// after restore, the live content diffs clean against the target
	cd := svc.Differ().DiffContent(
		diff.DocumentState{Document: first.Content, Schema: first.Schema},
		diff.DocumentState{Document: restored.Content, Schema: first.Schema},
		true,
	)
	assert.Empty(t, cd.Deltas)
}

func TestDeleteRecord_CascadesHistory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rec, _ := mustCreate(t, svc)

	require.NoError(t, svc.DeleteRecord(ctx, rec.RecordID))

	_, err := svc.GetRecord(ctx, rec.RecordID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = svc.LatestSnapshot(ctx, rec.RecordID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListSnapshots_NewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rec, _ := mustCreate(t, svc)

	for _, title := range []string{"A", "B"} {
		_, _, err := svc.MutateRecord(ctx, MutateRecordRequest{
			RecordID: rec.RecordID,
			Schema:   articleSchema(),
			Content:  model.ContentDocument{"title": title, "status": "draft"},
			Actor:    "tester",
		})
		require.NoError(t, err)
	}

	snaps, err := svc.ListSnapshots(ctx, rec.RecordID)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, model.Version{Major: 1, Minor: 2}, snaps[0].Version)
	assert.Equal(t, model.Version{Major: 1, Minor: 0}, snaps[2].Version)
}
