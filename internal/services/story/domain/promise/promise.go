// Package promise tracks narrative commitments through their lifecycle.
package promise

import (
	"fmt"
	"strings"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/core/schema"
)

// Type classifies a promise.
type Type string

const (
	TypePlotThread   Type = "plot_thread"
	TypeMystery      Type = "mystery"
	TypeCharacterArc Type = "character_arc"
	TypeProphecy     Type = "prophecy"
)

// Status is the lifecycle position of a promise.
type Status string

const (
	StatusPending     Status = "pending"
	StatusFulfilled   Status = "fulfilled"
	StatusBroken      Status = "broken"
	StatusTransformed Status = "transformed"
)

// Record is a narrative promise. FulfilledIn is set exactly when the status is
// fulfilled.
type Record struct {
	ID            string `json:"id" validate:"required"`
	Type          Type   `json:"type" validate:"oneof=plot_thread mystery character_arc prophecy"`
	EstablishedIn string `json:"establishedIn" validate:"required"`
	Description   string `json:"description" validate:"required"`
	Status        Status `json:"status" validate:"oneof=pending fulfilled broken transformed"`
	FulfilledIn   string `json:"fulfilledIn,omitempty"`
}

// ErrInvalidTransition indicates a promise status move outside the allow-list.
var ErrInvalidTransition = apperrors.New(apperrors.CodeInvalidTransition, "promise status transition is not allowed")

var allowedTransitions = map[Status][]Status{
	StatusPending:     {StatusFulfilled, StatusBroken, StatusTransformed},
	StatusFulfilled:   {StatusTransformed},
	StatusBroken:      {StatusTransformed},
	StatusTransformed: {},
}

// IsTransitionAllowed reports whether a promise may move between statuses.
func IsTransitionAllowed(from, to Status) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition returns a copy of record in the next status. Entering fulfilled
// requires fulfilledIn; leaving fulfilled clears it.
func Transition(record Record, next Status, fulfilledIn string) (Record, error) {
	if !IsTransitionAllowed(record.Status, next) {
		return Record{}, apperrors.WithMetadata(
			apperrors.CodeInvalidTransition,
			fmt.Sprintf("promise status transition %s -> %s is not allowed for promise %s", record.Status, next, record.ID),
			map[string]string{"promise_id": record.ID, "from": string(record.Status), "to": string(next)},
		)
	}

	out := record
	out.Status = next
	if next == StatusFulfilled {
		fulfilledIn = strings.TrimSpace(fulfilledIn)
		if fulfilledIn == "" {
			return Record{}, schema.Invalid("promise", "fulfilledIn", "is required when status is fulfilled")
		}
		out.FulfilledIn = fulfilledIn
	} else {
		out.FulfilledIn = ""
	}
	return out, nil
}
