package event

import (
	"fmt"
	"time"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
)

// allowedTransitions lists, per current status, the statuses an event may
// move to. Canon only transitions to itself.
var allowedTransitions = map[CanonStatus][]CanonStatus{
	StatusDraft:    {StatusDraft, StatusProposed, StatusCanon},
	StatusProposed: {StatusProposed, StatusCanon},
	StatusCanon:    {StatusCanon},
}

// IsTransitionAllowed reports whether an event may move from one canon status
// to another.
func IsTransitionAllowed(from, to CanonStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionCanonStatus returns a copy of evt in the next canon status.
func TransitionCanonStatus(evt Event, next CanonStatus) (Event, error) {
	if !IsTransitionAllowed(evt.CanonStatus, next) {
		return Event{}, apperrors.WithMetadata(
			apperrors.CodeInvalidTransition,
			fmt.Sprintf("canon status transition %s -> %s is not allowed for event %s", evt.CanonStatus, next, evt.ID),
			map[string]string{"event_id": evt.ID, "from": string(evt.CanonStatus), "to": string(next)},
		)
	}
	out := evt.Clone()
	out.CanonStatus = next
	return out, nil
}

// Patch lists the event fields an update may change. Nil fields are left as
// they are; id and canon status are never patchable. When Timestamp moves and
// KnowledgeEffects is nil, effects learned at the old timestamp move with it.
type Patch struct {
	Timestamp        *time.Time         `json:"timestamp,omitempty"`
	Type             *Type              `json:"type,omitempty"`
	Participants     *[]string          `json:"participants,omitempty"`
	Location         *string            `json:"location,omitempty"`
	Description      *string            `json:"description,omitempty"`
	Dependencies     *[]string          `json:"dependencies,omitempty"`
	Impacts          *[]Impact          `json:"impacts,omitempty"`
	KnowledgeEffects *[]KnowledgeEffect `json:"knowledgeEffects,omitempty"`
}

// Update merges patch into a non-canon event and re-validates the result.
// Canon events reject every patch, including an empty one.
func Update(evt Event, patch Patch) (Event, error) {
	if evt.IsCanon() {
		return Event{}, apperrors.WithMetadata(
			apperrors.CodeImmutabilityViolation,
			fmt.Sprintf("event %s is canon and cannot be edited; create a superseding event instead", evt.ID),
			map[string]string{"event_id": evt.ID},
		)
	}

	out := evt.Clone()
	if patch.Timestamp != nil {
		previous := out.Timestamp
		out.Timestamp = patch.Timestamp.UTC()
		if patch.KnowledgeEffects == nil {
			for i, effect := range out.KnowledgeEffects {
				if effect.LearnedAt != nil && effect.LearnedAt.Equal(previous) {
					learnedAt := out.Timestamp
					out.KnowledgeEffects[i].LearnedAt = &learnedAt
				}
			}
		}
	}
	if patch.Type != nil {
		out.Type = *patch.Type
	}
	if patch.Participants != nil {
		out.Participants = cloneStrings(*patch.Participants)
	}
	if patch.Location != nil {
		out.Location = *patch.Location
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	if patch.Dependencies != nil {
		out.Dependencies = cloneStrings(*patch.Dependencies)
	}
	if patch.Impacts != nil {
		out.Impacts = append([]Impact{}, (*patch.Impacts)...)
	}
	if patch.KnowledgeEffects != nil {
		out.KnowledgeEffects = cloneEffects(*patch.KnowledgeEffects)
		if out.KnowledgeEffects == nil {
			out.KnowledgeEffects = []KnowledgeEffect{}
		}
	}

	out = normalize(out)
	if err := Validate(out); err != nil {
		return Event{}, err
	}
	return out, nil
}

// Supersede creates the draft event that corrects a canon event. The new
// event depends on the original and carries a supersedes impact targeting it.
func Supersede(original Event, input Input, now func() time.Time, idGenerator func() (string, error)) (Event, error) {
	if !original.IsCanon() {
		return Event{}, apperrors.WithMetadata(
			apperrors.CodeInvalidTransition,
			fmt.Sprintf("event %s is %s; only canon events are superseded, update it instead", original.ID, original.CanonStatus),
			map[string]string{"event_id": original.ID, "from": string(original.CanonStatus)},
		)
	}
	if input.Timestamp == nil {
		if now == nil {
			now = time.Now
		}
		ts := now().UTC()
		if ts.Before(original.Timestamp) {
			ts = original.Timestamp
		}
		input.Timestamp = &ts
	}
	input.Dependencies = append([]string{original.ID}, input.Dependencies...)
	input.Impacts = append(append([]Impact(nil), input.Impacts...), Impact{
		Type:        ImpactSupersedes,
		TargetID:    original.ID,
		Description: fmt.Sprintf("supersedes canon event %s", original.ID),
	})
	return Create(input, now, idGenerator)
}
