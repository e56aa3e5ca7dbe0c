package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-portal/atlas-portal/internal/authz"
)

// PGRepository provides PostgreSQL backed persistence for audit events.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// InsertEvent appends an event to audit_events.
func (r *PGRepository) InsertEvent(ctx context.Context, event authz.Event) error {
	metaJSON, err := json.Marshal(event.Meta)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_events (id, actor, action, entity, entity_id, allowed, reason, meta, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))`,
		event.ID, event.Actor, event.Action, event.Entity, event.EntityID,
		event.Allowed, string(event.Reason), metaJSON,
		pgtype.Timestamptz{Time: event.At, Valid: !event.At.IsZero()})
	return err
}

// DeleteEventsBefore removes events older than the cutoff.
func (r *PGRepository) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_events WHERE occurred_at < $1`,
		pgtype.Timestamptz{Time: cutoff.UTC(), Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListEvents returns the newest events matching the filters.
func (r *PGRepository) ListEvents(ctx context.Context, filters Filters) ([]authz.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor, action, entity, entity_id, allowed, reason, meta, occurred_at
		FROM audit_events
		WHERE ($1 = '' OR actor = $1)
		  AND ($2 = '' OR entity = $2)
		  AND ($3 = '' OR action = $3)
		ORDER BY occurred_at DESC
		LIMIT $4`,
		filters.Actor, filters.Entity, filters.Action, filters.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []authz.Event
	for rows.Next() {
		var event authz.Event
		var reason string
		var metaJSON []byte
		var occurredAt pgtype.Timestamptz
		if err := rows.Scan(&event.ID, &event.Actor, &event.Action, &event.Entity, &event.EntityID, &event.Allowed, &reason, &metaJSON, &occurredAt); err != nil {
			return nil, err
		}
		event.Reason = authz.DenyReason(reason)
		event.At = occurredAt.Time
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &event.Meta); err != nil {
				return nil, err
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
