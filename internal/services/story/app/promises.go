package app

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/core/schema"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/storage"
)

// PutPromise validates and stores a new promise record. Stored promises
// change only through TransitionPromise.
func (s *Service) PutPromise(ctx context.Context, record promise.Record) error {
	issues := promise.Validate([]promise.Record{record})
	if len(issues) > 0 {
		violations := make([]string, 0, len(issues))
		for _, issue := range issues {
			violations = append(violations, fmt.Sprintf("%s: %s", issue.Kind, issue.Message))
		}
		return schema.FromViolations("promise", violations)
	}
	return s.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetPromise(ctx, record.ID); err == nil {
			return apperrors.WithMetadata(
				apperrors.CodeAlreadyExists,
				fmt.Sprintf("promise %s already exists", record.ID),
				map[string]string{"promise_id": record.ID},
			)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return tx.PutPromise(ctx, record)
	})
}

// TransitionPromise moves a stored promise to next.
func (s *Service) TransitionPromise(ctx context.Context, id string, next promise.Status, fulfilledIn string) (promise.Record, error) {
	var updated promise.Record
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		current, err := tx.GetPromise(ctx, id)
		if err != nil {
			return err
		}
		updated, err = promise.Transition(current, next, fulfilledIn)
		if err != nil {
			return err
		}
		return tx.PutPromise(ctx, updated)
	})
	if err != nil {
		return promise.Record{}, err
	}
	return updated, nil
}
