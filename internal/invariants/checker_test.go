package invariants

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/services"
	"github.com/contentops/content-core/internal/store"
	"github.com/contentops/content-core/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewWithDB(db)
}

func seedRecord(t *testing.T, st store.Store) string {
	t.Helper()
	svc := services.NewRecordService(st, zerolog.Nop())
	schema := model.Schema{{Name: "title", Type: model.FieldText}}

	rec, _, err := svc.CreateRecord(context.Background(), services.CreateRecordRequest{
		RecordType: "article",
		Schema:     schema,
		Actor:      "tester",
	})
	require.NoError(t, err)

	for _, title := range []string{"A", "B"} {
		_, _, err := svc.MutateRecord(context.Background(), services.MutateRecordRequest{
			RecordID: rec.RecordID,
			Schema:   schema,
			Content:  model.ContentDocument{"title": title},
			Actor:    "tester",
		})
		require.NoError(t, err)
	}
	_, err = svc.PromoteMajorVersion(context.Background(), rec.RecordID, "tester")
	require.NoError(t, err)
	return rec.RecordID
}

func TestCheckRecord_CleanHistory(t *testing.T) {
	st := newTestStore(t)
	recordID := seedRecord(t, st)

	violations, err := New(st).CheckRecord(context.Background(), recordID)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestCheckRecord_UnknownRecord(t *testing.T) {
	st := newTestStore(t)
	_, err := New(st).CheckRecord(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCheckRecord_DetectsViolations(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.Records().Create(ctx, &model.Record{
		RecordID:   uuid.New().String(),
		RecordType: "article",
		Content:    model.ContentDocument{"title": "x"},
	})
	require.NoError(t, err)

	add := func(major, minor int, restoredFrom *string) *model.Snapshot {
		snap, err := st.Snapshots().Create(ctx, &model.Snapshot{
			SnapshotID:   uuid.New().String(),
			RecordID:     rec.RecordID,
			Version:      model.Version{Major: major, Minor: minor},
			Content:      model.ContentDocument{"title": "x"},
			Actor:        "tester",
			RestoredFrom: restoredFrom,
		})
		require.NoError(t, err)
		return snap
	}

	t.Run("NoSnapshots", func(t *testing.T) {
		violations, err := New(st).CheckRecord(ctx, rec.RecordID)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, RuleHistoryNonEmpty, violations[0].Rule)
	})

	// history starts at 2.0 instead of 1.0
	add(2, 0, nil)
	// version jumps straight to 2.5
	add(2, 5, nil)
	// restore target that never existed
	ghost := uuid.New().String()
	add(2, 6, &ghost)

	violations, err := New(st).CheckRecord(ctx, rec.RecordID)
	require.NoError(t, err)

	rules := make(map[string]int)
	for _, v := range violations {
		rules[v.Rule]++
	}
	assert.Equal(t, 1, rules[RuleFirstVersion])
	assert.Equal(t, 1, rules[RuleVersionStep])
	assert.Equal(t, 1, rules[RuleRestoreTargets])
}
