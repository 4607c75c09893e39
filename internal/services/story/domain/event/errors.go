package event

import apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"

var (
	// ErrInvalidTransition indicates a canon status move outside the allow-list.
	ErrInvalidTransition = apperrors.New(apperrors.CodeInvalidTransition, "canon status transition is not allowed")
	// ErrImmutable indicates an attempted edit of a canon event.
	ErrImmutable = apperrors.New(apperrors.CodeImmutabilityViolation, "canon events are immutable")
)
