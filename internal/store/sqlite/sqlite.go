// Package sqlite implements store.Store on SQLite via the modernc driver.
// Intended for local use and tests; the schema is applied through embedded
// migrations on open.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/store"
	"github.com/contentops/content-core/internal/store/sqlite/migrations"
)

// Open opens (or creates) a SQLite database at the given path, enables WAL
// journal mode and foreign keys, and applies migrations. Use ":memory:" for
// an in-memory database.
func Open(path string) (*sql.DB, error) {
	dsn := "file::memory:?_pragma=foreign_keys(ON)"
	if path != ":memory:" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// each pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a SQLite-backed store from an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Records() store.Records     { return &records{db: s.db} }
func (s *sqliteStore) Snapshots() store.Snapshots { return &snapshots{db: s.db} }

// HealthPing verifies database connectivity.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Records ---

type records struct{ db *sql.DB }

func (r *records) Create(ctx context.Context, m *model.Record) (*model.Record, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO records (record_id, record_type, content, annotations, metadata, field_edit_counts, creation_time, update_time)
        VALUES (?,?,?,?,?,?,?,?)`,
		m.RecordID, m.RecordType, mustJSON(m.Content), mustJSON(m.Annotations),
		mustJSON(m.Metadata), mustJSON(m.FieldEditCounts), now, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.CreationTime = now
	out.UpdateTime = now
	return &out, nil
}

func (r *records) Get(ctx context.Context, recordID string) (*model.Record, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT record_id, record_type, content, annotations, metadata, field_edit_counts, creation_time, update_time
        FROM records WHERE record_id = ?`, recordID)
	return scanRecord(row)
}

func (r *records) Update(ctx context.Context, m *model.Record) (*model.Record, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
        UPDATE records SET content = ?, annotations = ?, metadata = ?, field_edit_counts = ?, update_time = ?
        WHERE record_id = ?`,
		mustJSON(m.Content), mustJSON(m.Annotations), mustJSON(m.Metadata),
		mustJSON(m.FieldEditCounts), now, m.RecordID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	out := *m
	out.UpdateTime = now
	return &out, nil
}

func (r *records) Delete(ctx context.Context, recordID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE record_id = ?`, recordID)
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
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO snapshots (snapshot_id, record_id, major, minor, content, schema, annotations, metadata, actor, comment, restored_from, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.SnapshotID, m.RecordID, m.Version.Major, m.Version.Minor,
		mustJSON(m.Content), mustJSON(m.Schema), mustJSON(m.Annotations),
		mustJSON(m.Metadata), m.Actor, m.Comment, m.RestoredFrom, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrConflict
		}
		return nil, err
	}
	out := *m
	out.CreationTime = now
	return &out, nil
}

func (s *snapshots) GetByID(ctx context.Context, recordID, snapshotID string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, snapshotColumns+` WHERE record_id = ? AND snapshot_id = ?`, recordID, snapshotID)
	return scanSnapshot(row)
}

func (s *snapshots) Latest(ctx context.Context, recordID string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, snapshotColumns+`
        WHERE record_id = ?
        ORDER BY major DESC, minor DESC, creation_time DESC
        LIMIT 1`, recordID)
	return scanSnapshot(row)
}

func (s *snapshots) ListByRecord(ctx context.Context, recordID string) ([]*model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, snapshotColumns+`
        WHERE record_id = ?
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
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE record_id = ?`, recordID).Scan(&n)
	return n, err
}

const snapshotColumns = `
    SELECT snapshot_id, record_id, major, minor, content, schema, annotations, metadata, actor, comment, restored_from, creation_time
    FROM snapshots`

type rowScanner interface{ Scan(dest ...any) error }

func scanRecord(row rowScanner) (*model.Record, error) {
	var m model.Record
	var content, annotations, metadata, counts sql.NullString
	err := row.Scan(&m.RecordID, &m.RecordType, &content, &annotations, &metadata, &counts, &m.CreationTime, &m.UpdateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := fromJSON(content, &m.Content); err != nil {
		return nil, err
	}
	if err := fromJSON(annotations, &m.Annotations); err != nil {
		return nil, err
	}
	if err := fromJSON(metadata, &m.Metadata); err != nil {
		return nil, err
	}
	if err := fromJSON(counts, &m.FieldEditCounts); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanSnapshot(row rowScanner) (*model.Snapshot, error) {
	var m model.Snapshot
	var content, schema, annotations, metadata sql.NullString
	var restoredFrom sql.NullString
	err := row.Scan(&m.SnapshotID, &m.RecordID, &m.Version.Major, &m.Version.Minor,
		&content, &schema, &annotations, &metadata, &m.Actor, &m.Comment, &restoredFrom, &m.CreationTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := fromJSON(content, &m.Content); err != nil {
		return nil, err
	}
	if err := fromJSON(schema, &m.Schema); err != nil {
		return nil, err
	}
	if err := fromJSON(annotations, &m.Annotations); err != nil {
		return nil, err
	}
	if err := fromJSON(metadata, &m.Metadata); err != nil {
		return nil, err
	}
	if restoredFrom.Valid {
		m.RestoredFrom = &restoredFrom.String
	}
	return &m, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Only maps/slices of JSON-safe values reach here.
		panic(fmt.Sprintf("marshal store column: %v", err))
	}
	return string(b)
}

func fromJSON[T any](col sql.NullString, dst *T) error {
	if !col.Valid || col.String == "" || col.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
