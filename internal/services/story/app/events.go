package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/canon"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/storage"
)

// ProposeEvent creates an event from input and stores it as proposed.
func (s *Service) ProposeEvent(ctx context.Context, input event.Input) (event.Event, error) {
	created, err := event.Create(input, s.now, s.idGenerator)
	if err != nil {
		return event.Event{}, err
	}
	return s.storeProposal(ctx, created)
}

// SupersedeEvent proposes a correction to the canon event originalID.
func (s *Service) SupersedeEvent(ctx context.Context, originalID string, input event.Input) (event.Event, error) {
	original, err := s.store.GetEvent(ctx, originalID)
	if err != nil {
		return event.Event{}, err
	}
	created, err := event.Supersede(original, input, s.now, s.idGenerator)
	if err != nil {
		return event.Event{}, err
	}
	return s.storeProposal(ctx, created)
}

func (s *Service) storeProposal(ctx context.Context, draft event.Event) (event.Event, error) {
	proposed, err := event.TransitionCanonStatus(draft, event.StatusProposed)
	if err != nil {
		return event.Event{}, err
	}
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetEvent(ctx, proposed.ID); err == nil {
			return apperrors.WithMetadata(
				apperrors.CodeAlreadyExists,
				fmt.Sprintf("event %s already exists", proposed.ID),
				map[string]string{"event_id": proposed.ID},
			)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return tx.PutEvent(ctx, proposed)
	})
	if err != nil {
		return event.Event{}, err
	}
	return proposed, nil
}

// UpdateEvent patches a stored non-canon event.
func (s *Service) UpdateEvent(ctx context.Context, id string, patch event.Patch) (event.Event, error) {
	var updated event.Event
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		current, err := tx.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		updated, err = event.Update(current, patch)
		if err != nil {
			return err
		}
		return tx.PutEvent(ctx, updated)
	})
	if err != nil {
		return event.Event{}, err
	}
	return updated, nil
}

// PromoteEvent moves a stored event to next after gating it against every
// stored proposed and canon event and every stored promise. The gate runs in
// the transaction that writes the promotion.
func (s *Service) PromoteEvent(ctx context.Context, id string, next event.CanonStatus) (promoted event.Event, report canon.GateReport, err error) {
	ctx, span := s.startSpan(ctx, "story.promote_event",
		attribute.String("story.event_id", id),
		attribute.String("story.canon_status", string(next)),
	)
	defer func() {
		span.SetAttributes(attribute.Bool("story.gate_passed", report.Passed))
		endSpan(span, err)
	}()

	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		events, err := tx.ListEvents(ctx)
		if err != nil {
			return err
		}
		candidate, ok := event.Index(events)[id]
		if !ok {
			return missing("event", id)
		}
		promises, err := tx.ListPromises(ctx)
		if err != nil {
			return err
		}

		promoted, report, err = canon.Promote(events, candidate, next, promises)
		if err != nil {
			return err
		}
		if promoted.CanonStatus == candidate.CanonStatus {
			return nil
		}
		return tx.PutEvent(ctx, promoted)
	})
	if err != nil {
		return event.Event{}, report, err
	}
	return promoted, report, nil
}

// ListEvents returns every stored event.
func (s *Service) ListEvents(ctx context.Context) ([]event.Event, error) {
	return s.store.ListEvents(ctx)
}

// CanonReport runs the canon gate over every stored proposed and canon
// event and every stored promise.
func (s *Service) CanonReport(ctx context.Context) (canon.GateReport, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return canon.GateReport{}, err
	}
	promises, err := s.store.ListPromises(ctx)
	if err != nil {
		return canon.GateReport{}, err
	}
	gated := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if evt.CanonStatus != event.StatusDraft {
			gated = append(gated, evt)
		}
	}
	return canon.Validate(gated, promises), nil
}
