package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
)

// PutPromise inserts or replaces a promise record.
func (s *Store) PutPromise(ctx context.Context, record promise.Record) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("promise", record.ID)
	if err != nil {
		return err
	}
	body, err := encodeBody(record)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(
		ctx,
		`INSERT INTO promises (id, status, established_in, body, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   established_in = excluded.established_in,
		   body = excluded.body,
		   updated_at = excluded.updated_at`,
		id,
		string(record.Status),
		record.EstablishedIn,
		body,
		toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("put promise %s: %w", id, err)
	}
	return nil
}

// GetPromise returns one promise by id.
func (s *Store) GetPromise(ctx context.Context, id string) (promise.Record, error) {
	if err := s.ready(ctx); err != nil {
		return promise.Record{}, err
	}
	id, err := requireID("promise", id)
	if err != nil {
		return promise.Record{}, err
	}
	var body string
	err = s.q.QueryRowContext(ctx, `SELECT body FROM promises WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return promise.Record{}, notFound("promise", id)
		}
		return promise.Record{}, fmt.Errorf("get promise %s: %w", id, err)
	}
	var record promise.Record
	if err := decodeBody(body, &record); err != nil {
		return promise.Record{}, err
	}
	return record, nil
}

// ListPromises returns every promise ordered by id.
func (s *Store) ListPromises(ctx context.Context) ([]promise.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, `SELECT body FROM promises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list promises: %w", err)
	}
	defer rows.Close()

	records := []promise.Record{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan promise: %w", err)
		}
		var record promise.Record
		if err := decodeBody(body, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list promises: %w", err)
	}
	return records, nil
}
