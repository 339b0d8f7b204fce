package sessionlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRow is one row for GET /attendance/:eventId/sessions.
type SessionRow struct {
	ID          uuid.UUID  `json:"id"`
	OperatorID  string     `json:"operator_id"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	OpenSeconds int64      `json:"open_seconds"`
	Captures    int        `json:"captures"`
}

// Repository handles capture_sessions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a capture session log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LogOpen inserts a row when an operator's capture session starts.
func (r *Repository) LogOpen(ctx context.Context, id uuid.UUID, eventID, operatorID string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO capture_sessions (id, event_id, operator_id, opened_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		id, eventID, operatorID, at)
	return err
}

// LogClose marks the session closed. Closing twice keeps the first close.
func (r *Repository) LogClose(ctx context.Context, id uuid.UUID, at time.Time, captures int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE capture_sessions SET closed_at = $2, captures = $3,
		 open_seconds = GREATEST(0, EXTRACT(EPOCH FROM ($2 - opened_at))::BIGINT)
		 WHERE id = $1 AND closed_at IS NULL`,
		id, at, captures)
	return err
}

// ListByEvent returns the capture sessions of an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID string) ([]SessionRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, operator_id, opened_at, closed_at, open_seconds, captures
		 FROM capture_sessions WHERE event_id = $1 ORDER BY opened_at DESC LIMIT 200`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []SessionRow{}
	for rows.Next() {
		var row SessionRow
		if err := rows.Scan(&row.ID, &row.OperatorID, &row.OpenedAt, &row.ClosedAt, &row.OpenSeconds, &row.Captures); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
