// Package sqlite implements the dedup store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"example.com/stravahook/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS processed_activities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    activity_id INTEGER NOT NULL UNIQUE,
    processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// Store provides SQLite-backed persistence for processed activities.
type Store struct {
	db *sql.DB
}

// Open opens the database at dsn, for example "processed_activities.db" or
// "file:test?mode=memory&cache=shared".
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// One writer at a time; concurrent inserts still race on the unique index, not on file locks.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// EnsureSchema creates the dedup table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// HasProcessed reports whether a row exists for the activity.
func (s *Store) HasProcessed(ctx context.Context, activityID int64) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM processed_activities WHERE activity_id = ?`,
		activityID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkProcessed records the activity. A concurrent insert of the same id yields domain.ErrAlreadyProcessed.
func (s *Store) MarkProcessed(ctx context.Context, activityID int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO processed_activities (activity_id) VALUES (?)`, activityID)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return domain.ErrAlreadyProcessed
	}
	return err
}

// GetProcessed returns the row for an activity, or nil when absent.
func (s *Store) GetProcessed(ctx context.Context, activityID int64) (*domain.ProcessedActivity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, activity_id, processed_at FROM processed_activities WHERE activity_id = ?`,
		activityID,
	)
	var rec domain.ProcessedActivity
	if err := row.Scan(&rec.ID, &rec.ActivityID, &rec.ProcessedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListProcessed returns rows newest first, starting after cursor.
func (s *Store) ListProcessed(ctx context.Context, cursor *domain.Cursor, limit int) ([]domain.ProcessedActivity, *domain.Cursor, error) {
	query := `SELECT id, activity_id, processed_at FROM processed_activities`
	args := []interface{}{}
	if cursor != nil {
		query += ` WHERE id < ?`
		args = append(args, cursor.ID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.ProcessedActivity, 0, limit)
	for rows.Next() {
		var rec domain.ProcessedActivity
		if err := rows.Scan(&rec.ID, &rec.ActivityID, &rec.ProcessedAt); err != nil {
			return nil, nil, err
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(results) == limit {
		next = &domain.Cursor{ID: results[len(results)-1].ID}
	}
	return results, next, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
