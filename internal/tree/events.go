package tree

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"serwer-dokumentow/internal/models"
)

// recorder appends journal entries inside the running transaction and keeps
// them for publishing after commit.
type recorder struct {
	repo   Repository
	now    func() time.Time
	events []models.Event
}

func (r *recorder) record(ctx context.Context, caller models.AuthContext, scope, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	event := models.Event{
		Scope:     scope,
		ActorID:   caller.UserID,
		EventType: eventType,
		EventTime: r.now().UTC(),
		Payload:   data,
	}
	if err := r.repo.AppendEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to append %s event: %w", eventType, err)
	}
	r.events = append(r.events, event)
	return nil
}

type removedPayload struct {
	ID string `json:"id"`
}

type cascadePayload struct {
	ID          string   `json:"id"`
	FolderIDs   []string `json:"folder_ids"`
	DocumentIDs []string `json:"document_ids"`
}

const maxEventBatch = 500

// ListEvents returns journal entries of the caller's scope recorded after
// the since id, oldest first.
func (s *Service) ListEvents(ctx context.Context, caller models.AuthContext, since int64, limit int) ([]models.Event, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if since < 0 {
		return nil, fmt.Errorf("%w: negative event id", ErrInvalidArgument)
	}
	if limit <= 0 || limit > maxEventBatch {
		limit = maxEventBatch
	}

	var events []models.Event
	err := s.backend.ReadTx(ctx, func(repo Repository) error {
		var err error
		events, err = repo.ListEvents(ctx, caller.Scope(), since, limit)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}
