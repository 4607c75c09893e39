package event

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/id"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/core/schema"
)

const recordName = "event"

// Input describes the fields needed to create an event.
type Input struct {
	ID               string            `json:"id,omitempty"`
	Timestamp        *time.Time        `json:"timestamp,omitempty"`
	Type             Type              `json:"type"`
	Participants     []string          `json:"participants"`
	Location         string            `json:"location,omitempty"`
	Description      string            `json:"description"`
	Dependencies     []string          `json:"dependencies"`
	Impacts          []Impact          `json:"impacts"`
	KnowledgeEffects []KnowledgeEffect `json:"knowledgeEffects"`
	CanonStatus      CanonStatus       `json:"canonStatus,omitempty"`
}

// Create validates input and returns a new draft event.
//
// Missing ids are generated, a missing timestamp defaults to now, and
// knowledge effects without learnedAt inherit the event timestamp. Creation
// always yields a draft: promotion happens through TransitionCanonStatus.
func Create(input Input, now func() time.Time, idGenerator func() (string, error)) (Event, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if input.CanonStatus != "" && input.CanonStatus != StatusDraft {
		return Event{}, schema.Invalid(recordName, "canonStatus", fmt.Sprintf("must be %s on creation, got %s", StatusDraft, input.CanonStatus))
	}

	eventID := strings.TrimSpace(input.ID)
	if eventID == "" {
		generated, err := idGenerator()
		if err != nil {
			return Event{}, fmt.Errorf("generate event id: %w", err)
		}
		eventID = generated
	}

	timestamp := now().UTC()
	if input.Timestamp != nil {
		timestamp = input.Timestamp.UTC()
	}

	evt := Event{
		ID:               eventID,
		Timestamp:        timestamp,
		Type:             input.Type,
		Participants:     input.Participants,
		Location:         input.Location,
		Description:      input.Description,
		Dependencies:     input.Dependencies,
		Impacts:          input.Impacts,
		KnowledgeEffects: input.KnowledgeEffects,
		CanonStatus:      StatusDraft,
	}
	evt = normalize(evt)
	if err := Validate(evt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// normalize trims free text, de-duplicates id lists, and pins knowledge
// effect timestamps. It never mutates the caller's slices.
func normalize(evt Event) Event {
	evt = evt.Clone()
	evt.ID = strings.TrimSpace(evt.ID)
	evt.Timestamp = evt.Timestamp.UTC()
	evt.Type = Type(strings.ToLower(strings.TrimSpace(string(evt.Type))))
	evt.Location = normalizeText(evt.Location)
	evt.Description = normalizeText(evt.Description)
	evt.Participants = dedupe(evt.Participants)
	evt.Dependencies = dedupe(evt.Dependencies)
	for i := range evt.Impacts {
		evt.Impacts[i].Type = strings.TrimSpace(evt.Impacts[i].Type)
		evt.Impacts[i].TargetID = strings.TrimSpace(evt.Impacts[i].TargetID)
		evt.Impacts[i].Description = normalizeText(evt.Impacts[i].Description)
	}
	for i := range evt.KnowledgeEffects {
		effect := &evt.KnowledgeEffects[i]
		effect.CharacterID = strings.TrimSpace(effect.CharacterID)
		if effect.LearnedAt == nil {
			learnedAt := evt.Timestamp
			effect.LearnedAt = &learnedAt
		} else {
			learnedAt := effect.LearnedAt.UTC()
			effect.LearnedAt = &learnedAt
		}
	}
	return evt
}

func normalizeText(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// dedupe trims entries and drops repeats, keeping first occurrences in order.
// Blank entries are kept so validation can report them.
func dedupe(values []string) []string {
	if values == nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
		}
		out = append(out, value)
	}
	return out
}

// Validate checks the event shape and its intra-record invariants.
func Validate(evt Event) error {
	violations := schema.Violations(evt)
	for _, dep := range evt.Dependencies {
		if dep != "" && dep == evt.ID {
			violations = append(violations, "dependencies must not reference the event itself")
			break
		}
	}
	for i, effect := range evt.KnowledgeEffects {
		if effect.LearnedAt != nil && effect.LearnedAt.Before(evt.Timestamp) {
			violations = append(violations, fmt.Sprintf("knowledgeEffects[%d].learnedAt must not precede the event timestamp", i))
		}
	}
	return schema.FromViolations(recordName, violations)
}
