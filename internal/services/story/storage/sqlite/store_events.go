package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
)

// PutEvent inserts or replaces an event. A stored canon event is never
// replaced.
func (s *Store) PutEvent(ctx context.Context, evt event.Event) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("event", evt.ID)
	if err != nil {
		return err
	}
	body, err := encodeBody(evt)
	if err != nil {
		return err
	}

	var status string
	err = s.q.QueryRowContext(ctx, `SELECT canon_status FROM events WHERE id = ?`, id).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("check event %s: %w", id, err)
	case event.CanonStatus(status) == event.StatusCanon:
		return apperrors.WithMetadata(
			apperrors.CodeImmutabilityViolation,
			fmt.Sprintf("event %s is canon and cannot be overwritten", id),
			map[string]string{"event_id": id},
		)
	}

	_, err = s.q.ExecContext(
		ctx,
		`INSERT INTO events (id, timestamp, canon_status, body, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   timestamp = excluded.timestamp,
		   canon_status = excluded.canon_status,
		   body = excluded.body,
		   updated_at = excluded.updated_at`,
		id,
		toMillis(evt.Timestamp),
		string(evt.CanonStatus),
		body,
		toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("put event %s: %w", id, err)
	}
	return nil
}

// GetEvent returns one event by id.
func (s *Store) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return event.Event{}, err
	}
	id, err := requireID("event", id)
	if err != nil {
		return event.Event{}, err
	}

	var body string
	err = s.q.QueryRowContext(ctx, `SELECT body FROM events WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, notFound("event", id)
		}
		return event.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	var evt event.Event
	if err := decodeBody(body, &evt); err != nil {
		return event.Event{}, err
	}
	return evt, nil
}

// ListEvents returns every event ordered by timestamp, then id.
func (s *Store) ListEvents(ctx context.Context) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, `SELECT body FROM events ORDER BY timestamp, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var evt event.Event
		if err := decodeBody(body, &evt); err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
