// Package postgres implements store.Store on PostgreSQL via the pgx stdlib
// driver. Schema migrations are applied out of band (see schema.sql).
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Records() store.Records     { return &records{db: s.db} }
func (s *pgStore) Snapshots() store.Snapshots { return &snapshots{db: s.db} }

// HealthPing verifies database connectivity.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Records ---

type records struct{ db *sql.DB }

func (r *records) Create(ctx context.Context, m *model.Record) (*model.Record, error) {
	var created time.Time
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO records (record_id, record_type, content, annotations, metadata, field_edit_counts)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING creation_time
    `, m.RecordID, m.RecordType, jsonArg(m.Content), jsonArg(m.Annotations), jsonArg(m.Metadata), jsonArg(m.FieldEditCounts))
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.CreationTime = created
	out.UpdateTime = created
	return &out, nil
}

func (r *records) Get(ctx context.Context, recordID string) (*model.Record, error) {
	var m model.Record
	var content, annotations, metadata, counts []byte
	row := r.db.QueryRowContext(ctx, `
        SELECT record_id, record_type, content, annotations, metadata, field_edit_counts, creation_time, update_time
        FROM records WHERE record_id=$1
    `, recordID)
	err := row.Scan(&m.RecordID, &m.RecordType, &content, &annotations, &metadata, &counts, &m.CreationTime, &m.UpdateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalColumns(map[*[]byte]any{
		&content: &m.Content, &annotations: &m.Annotations,
		&metadata: &m.Metadata, &counts: &m.FieldEditCounts,
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *records) Update(ctx context.Context, m *model.Record) (*model.Record, error) {
	var updated time.Time
	row := r.db.QueryRowContext(ctx, `
        UPDATE records SET content=$2, annotations=$3, metadata=$4, field_edit_counts=$5, update_time=now()
        WHERE record_id=$1
        RETURNING update_time
    `, m.RecordID, jsonArg(m.Content), jsonArg(m.Annotations), jsonArg(m.Metadata), jsonArg(m.FieldEditCounts))
	if err := row.Scan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	out := *m
	out.UpdateTime = updated
	return &out, nil
}

func (r *records) Delete(ctx context.Context, recordID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE record_id=$1`, recordID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Snapshots ---

type snapshots struct{ db *sql.DB }

func (s *snapshots) Create(ctx context.Context, m *model.Snapshot) (*model.Snapshot, error) {
	var created time.Time
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO snapshots (snapshot_id, record_id, major, minor, content, schema, annotations, metadata, actor, comment, restored_from)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING creation_time
    `, m.SnapshotID, m.RecordID, m.Version.Major, m.Version.Minor,
		jsonArg(m.Content), jsonArg(m.Schema), jsonArg(m.Annotations), jsonArg(m.Metadata),
		m.Actor, m.Comment, m.RestoredFrom)
	if err := row.Scan(&created); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, model.ErrConflict
		}
		return nil, err
	}
	out := *m
	out.CreationTime = created
	return &out, nil
}

func (s *snapshots) GetByID(ctx context.Context, recordID, snapshotID string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, snapshotColumns+` WHERE record_id=$1 AND snapshot_id=$2`, recordID, snapshotID)
	return scanSnapshot(row)
}

func (s *snapshots) Latest(ctx context.Context, recordID string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, snapshotColumns+`
        WHERE record_id=$1
        ORDER BY major DESC, minor DESC, creation_time DESC
        LIMIT 1`, recordID)
	return scanSnapshot(row)
}

func (s *snapshots) ListByRecord(ctx context.Context, recordID string) ([]*model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, snapshotColumns+`
        WHERE record_id=$1
        ORDER BY major DESC, minor DESC, creation_time DESC`, recordID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *snapshots) Count(ctx context.Context, recordID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE record_id=$1`, recordID).Scan(&n)
	return n, err
}

const snapshotColumns = `
    SELECT snapshot_id, record_id, major, minor, content, schema, annotations, metadata, actor, comment, restored_from, creation_time
    FROM snapshots`

type rowScanner interface{ Scan(dest ...any) error }

func scanSnapshot(row rowScanner) (*model.Snapshot, error) {
	var m model.Snapshot
	var content, schema, annotations, metadata []byte
	var restoredFrom sql.NullString
	err := row.Scan(&m.SnapshotID, &m.RecordID, &m.Version.Major, &m.Version.Minor,
		&content, &schema, &annotations, &metadata, &m.Actor, &m.Comment, &restoredFrom, &m.CreationTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalColumns(map[*[]byte]any{
		&content: &m.Content, &schema: &m.Schema,
		&annotations: &m.Annotations, &metadata: &m.Metadata,
	}); err != nil {
		return nil, err
	}
	if restoredFrom.Valid {
		m.RestoredFrom = &restoredFrom.String
	}
	return &m, nil
}

func jsonArg(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal store column: %v", err))
	}
	return b
}

func unmarshalColumns(cols map[*[]byte]any) error {
	for col, dst := range cols {
		if len(*col) == 0 || string(*col) == "null" {
			continue
		}
		if err := json.Unmarshal(*col, dst); err != nil {
			return err
		}
	}
	return nil
}
