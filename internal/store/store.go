package store

import (
	"context"

	"github.com/contentops/content-core/internal/model"
)

// Store exposes persistence operations required by the record service.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
//
// Snapshot rows are append-only, keyed (record_id, major, minor) with a
// uniqueness constraint on that triple; Latest orders by
// (major desc, minor desc, created_at desc). Version-number assignment is a
// read-then-write on the latest row, so concurrent mutations of one record
// are serialized by that constraint: the loser fails instead of writing a
// duplicate version.
type Store interface {
	Records() Records
	Snapshots() Snapshots
}

type Records interface {
	Create(ctx context.Context, r *model.Record) (*model.Record, error)
	Get(ctx context.Context, recordID string) (*model.Record, error)
	Update(ctx context.Context, r *model.Record) (*model.Record, error)
	// Delete removes the record and cascades to all its snapshots. The only
	// destructive operation on a record's history.
	Delete(ctx context.Context, recordID string) error
}

type Snapshots interface {
	Create(ctx context.Context, s *model.Snapshot) (*model.Snapshot, error)
	GetByID(ctx context.Context, recordID, snapshotID string) (*model.Snapshot, error)
	Latest(ctx context.Context, recordID string) (*model.Snapshot, error)
	ListByRecord(ctx context.Context, recordID string) ([]*model.Snapshot, error)
	Count(ctx context.Context, recordID string) (int, error)
}
