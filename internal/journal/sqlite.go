package journal

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the journal at dbPath, creating the schema when needed.
// Use ":memory:" for an in-memory journal.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "open journal database").
			WithContext("path", dbPath).
			Build()
	}
	// Concurrent writers would otherwise hit SQLITE_BUSY, and each connection
	// to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "initialize journal schema").Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		page TEXT NOT NULL,
		module_path TEXT,
		exit_code INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		timestamp INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_build_id ON builds(build_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON builds(timestamp);
	CREATE INDEX IF NOT EXISTS idx_page ON builds(page);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records e. A zero Time is replaced by the current time.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, kind, page, module_path, exit_code, error, timestamp, duration_ns) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.BuildID, e.Kind, e.Page, e.ModulePath, e.ExitCode, e.Error, e.Time.UnixMilli(), int64(e.Duration),
	)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "insert journal entry").
			WithContext("build_id", e.BuildID).
			Build()
	}
	return nil
}

// GetByBuildID retrieves all entries of one build in insertion order.
func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, kind, page, module_path, exit_code, error, timestamp, duration_ns FROM builds WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "query journal").Build()
	}
	defer func() { _ = rows.Close() }()
	return scanEntries(rows)
}

// GetRange retrieves entries recorded between start and end inclusive.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, kind, page, module_path, exit_code, error, timestamp, duration_ns FROM builds WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "query journal").Build()
	}
	defer func() { _ = rows.Close() }()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			modulePath sql.NullString
			errText    sql.NullString
			millis     int64
			durationNS int64
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Kind, &e.Page, &modulePath, &e.ExitCode, &errText, &millis, &durationNS); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "scan journal entry").Build()
		}
		e.ModulePath = modulePath.String
		e.Error = errText.String
		e.Time = time.UnixMilli(millis)
		e.Duration = time.Duration(durationNS)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "iterate journal").Build()
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
