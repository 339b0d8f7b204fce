package attendance

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/treeplant/web/internal/models"
)

// Repository handles capture_audits.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a capture audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores one capture attempt.
func (r *Repository) Insert(ctx context.Context, a *models.CaptureAudit) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO capture_audits (id, event_id, operator_id, username, spoken_name, outcome, message, frame_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.EventID, a.OperatorID, a.Username, a.SpokenName, string(a.Outcome), a.Message, a.FrameKey, a.CreatedAt)
	return err
}

// SetFrameKey records where the archived frame of an audit was stored.
func (r *Repository) SetFrameKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := r.pool.Exec(ctx, `UPDATE capture_audits SET frame_key = $2 WHERE id = $1`, id, key)
	return err
}

// ListByEvent returns the most recent capture attempts for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID string, limit int) ([]models.CaptureAudit, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, event_id, operator_id, username, spoken_name, outcome, message, frame_key, created_at
		 FROM capture_audits WHERE event_id = $1 ORDER BY created_at DESC LIMIT $2`,
		eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.CaptureAudit{}
	for rows.Next() {
		var a models.CaptureAudit
		var outcome string
		if err := rows.Scan(&a.ID, &a.EventID, &a.OperatorID, &a.Username, &a.SpokenName, &outcome, &a.Message, &a.FrameKey, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Outcome = models.CaptureOutcome(outcome)
		list = append(list, a)
	}
	return list, rows.Err()
}
