package database

import (
	"context"

	"serwer-dokumentow/internal/models"
)

func (q *Queries) AppendEvent(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO event_journal (scope, actor_id, event_type, event_time, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return q.db.QueryRow(ctx, query,
		event.Scope,
		event.ActorID,
		event.EventType,
		event.EventTime,
		event.Payload,
	).Scan(&event.ID)
}

func (q *Queries) ListEvents(ctx context.Context, scope string, since int64, limit int) ([]models.Event, error) {
	query := `
		SELECT id, scope, actor_id, event_type, event_time, payload
		FROM event_journal
		WHERE scope = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`
	rows, err := q.db.Query(ctx, query, scope, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Scope,
			&event.ActorID,
			&event.EventType,
			&event.EventTime,
			&event.Payload,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if events == nil {
		return []models.Event{}, nil
	}
	return events, nil
}
