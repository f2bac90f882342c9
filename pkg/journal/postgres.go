package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRecord is returned when an entry cannot be written.
var ErrRecord = errors.New("journal: failed to record entry")

// DB is the subset of pgxpool.Pool and pgx.Tx used by Postgres.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres appends entries to the relay_dispatches table.
// A repeated dispatch ID overwrites the previous row so River retries of the
// same job keep only their last outcome.
type Postgres struct {
	db DB
}

// NewPostgres creates a recorder over db. Apply Migrations first.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

const insertEntry = `
INSERT INTO relay_dispatches (dispatch_id, path, status, outcome, error, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (dispatch_id) DO UPDATE SET
    status = EXCLUDED.status,
    outcome = EXCLUDED.outcome,
    error = EXCLUDED.error,
    duration_ms = EXCLUDED.duration_ms,
    created_at = EXCLUDED.created_at`

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := p.db.Exec(ctx, insertEntry,
		e.DispatchID, e.Path, e.Status, string(e.Outcome), e.Error,
		e.Duration.Milliseconds(), e.CreatedAt.UTC(),
	)
	if err != nil {
		return errors.Join(ErrRecord, err)
	}
	return nil
}

const selectRecent = `
SELECT dispatch_id, path, status, outcome, error, duration_ms, created_at
FROM relay_dispatches
WHERE ($1 = '' OR path = $1)
ORDER BY created_at DESC
LIMIT $2`

// Recent returns up to limit entries, newest first. An empty path matches
// every path.
func (p *Postgres) Recent(ctx context.Context, path string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.Query(ctx, selectRecent, path, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query recent: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e       Entry
			outcome string
			ms      int64
		)
		if err := row.Scan(&e.DispatchID, &e.Path, &e.Status, &outcome, &e.Error, &ms, &e.CreatedAt); err != nil {
			return Entry{}, err
		}
		e.Outcome = Outcome(outcome)
		e.Duration = time.Duration(ms) * time.Millisecond
		return e, nil
	})
}

// Prune deletes entries older than the given age and returns how many were removed.
func (p *Postgres) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM relay_dispatches WHERE created_at < $1`, time.Now().Add(-olderThan).UTC())
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
