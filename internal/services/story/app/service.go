// Package app orchestrates story workflows over a persistent store.
//
// Domain packages stay pure; this layer loads snapshots, runs them through
// the domain, and writes the results back. Canon promotion re-runs the canon
// gate inside the same transaction that commits the promotion.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/id"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/otel"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/storage"
)

// Service runs story workflows against a store.
type Service struct {
	store       storage.Store
	now         func() time.Time
	idGenerator func() (string, error)
	tracer      trace.Tracer
	minGapMs    *int64
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how new record ids are minted.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.idGenerator = gen
		}
	}
}

// WithMinGapMs sets the minimum gap used when authoring beat markers.
func WithMinGapMs(ms int64) Option {
	return func(s *Service) {
		s.minGapMs = &ms
	}
}

// NewService builds a Service over store.
func NewService(store storage.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("story store is required")
	}
	s := &Service{
		store:       store,
		now:         time.Now,
		idGenerator: id.NewID,
		tracer:      otel.Tracer("story"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.GetCode(err)))
	}
	span.End()
}

func missing(kind, id string) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		fmt.Sprintf("%s %s not found", kind, id),
		map[string]string{"record": kind, "id": id},
	)
}
