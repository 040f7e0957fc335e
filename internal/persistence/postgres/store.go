// Package postgres implements the dedup store on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/stravahook/internal/domain"
)

const uniqueViolation = "23505"

const schema = `CREATE TABLE IF NOT EXISTS processed_activities (
    id BIGSERIAL PRIMARY KEY,
    activity_id BIGINT NOT NULL UNIQUE,
    processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store provides Postgres-backed persistence for processed activities.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return NewStore(pool), nil
}

// EnsureSchema creates the dedup table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// HasProcessed reports whether a row exists for the activity.
func (s *Store) HasProcessed(ctx context.Context, activityID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_activities WHERE activity_id = $1)`,
		activityID,
	).Scan(&exists)
	return exists, err
}

// MarkProcessed records the activity. A concurrent insert of the same id yields domain.ErrAlreadyProcessed.
func (s *Store) MarkProcessed(ctx context.Context, activityID int64) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO processed_activities (activity_id) VALUES ($1)`, activityID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyProcessed
	}
	return err
}

// GetProcessed returns the row for an activity, or nil when absent.
func (s *Store) GetProcessed(ctx context.Context, activityID int64) (*domain.ProcessedActivity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, activity_id, processed_at FROM processed_activities WHERE activity_id = $1`,
		activityID,
	)
	var rec domain.ProcessedActivity
	if err := row.Scan(&rec.ID, &rec.ActivityID, &rec.ProcessedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListProcessed returns rows newest first, starting after cursor.
func (s *Store) ListProcessed(ctx context.Context, cursor *domain.Cursor, limit int) ([]domain.ProcessedActivity, *domain.Cursor, error) {
	args := []interface{}{limit}
	query := `SELECT id, activity_id, processed_at FROM processed_activities`
	if cursor != nil {
		query += ` WHERE id < $2`
		args = append(args, cursor.ID)
	}
	query += ` ORDER BY id DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, args...)
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
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
