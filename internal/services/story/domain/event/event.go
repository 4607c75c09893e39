package event

import "time"

// Type identifies the narrative role of an event.
type Type string

const (
	TypeScene      Type = "scene"
	TypeReveal     Type = "reveal"
	TypeConflict   Type = "conflict"
	TypeResolution Type = "resolution"
	TypeTransition Type = "transition"
	TypeCustom     Type = "custom"
)

// CanonStatus describes where an event sits in the publication workflow.
type CanonStatus string

const (
	StatusDraft    CanonStatus = "draft"
	StatusProposed CanonStatus = "proposed"
	StatusCanon    CanonStatus = "canon"
)

// Certainty describes how confidently a character holds a fact.
type Certainty string

const (
	CertaintyKnown     Certainty = "known"
	CertaintySuspected Certainty = "suspected"
	CertaintyRumored   Certainty = "rumored"
	CertaintyFalse     Certainty = "false"
)

// Rank orders certainties from false (0) to known (3). Unknown values rank
// below false.
func (c Certainty) Rank() int {
	switch c {
	case CertaintyKnown:
		return 3
	case CertaintySuspected:
		return 2
	case CertaintyRumored:
		return 1
	case CertaintyFalse:
		return 0
	default:
		return -1
	}
}

// Source describes how a character came to know a fact.
type Source string

const (
	SourceWitnessed Source = "witnessed"
	SourceTold      Source = "told"
	SourceInferred  Source = "inferred"
)

// ImpactSupersedes marks an impact that replaces an earlier canon event.
const ImpactSupersedes = "supersedes"

// Impact records a change the event makes to another story entity.
type Impact struct {
	Type        string `json:"type" validate:"required"`
	TargetID    string `json:"targetId" validate:"required"`
	Description string `json:"description"`
}

// KnowledgeEffect records that a character learned something from an event.
// LearnedAt defaults to the event timestamp and may not precede it.
type KnowledgeEffect struct {
	CharacterID string     `json:"characterId" validate:"required"`
	LearnedAt   *time.Time `json:"learnedAt,omitempty"`
	Certainty   Certainty  `json:"certainty" validate:"oneof=known suspected rumored false"`
	Source      Source     `json:"source" validate:"oneof=witnessed told inferred"`
}

// Event is an immutable snapshot of one narrative event.
type Event struct {
	ID               string            `json:"id" validate:"required"`
	Timestamp        time.Time         `json:"timestamp" validate:"required"`
	Type             Type              `json:"type" validate:"oneof=scene reveal conflict resolution transition custom"`
	Participants     []string          `json:"participants" validate:"dive,required"`
	Location         string            `json:"location,omitempty"`
	Description      string            `json:"description" validate:"required"`
	Dependencies     []string          `json:"dependencies" validate:"dive,required"`
	Impacts          []Impact          `json:"impacts" validate:"dive"`
	KnowledgeEffects []KnowledgeEffect `json:"knowledgeEffects" validate:"dive"`
	CanonStatus      CanonStatus       `json:"canonStatus" validate:"oneof=draft proposed canon"`
}

// IsCanon reports whether the event has been published to canon.
func (e Event) IsCanon() bool {
	return e.CanonStatus == StatusCanon
}

// EffectLearnedAt resolves the effective learnedAt of an effect, defaulting
// to the event timestamp.
func (e Event) EffectLearnedAt(effect KnowledgeEffect) time.Time {
	if effect.LearnedAt != nil {
		return effect.LearnedAt.UTC()
	}
	return e.Timestamp
}

// Clone returns a deep copy so callers never share slices with a snapshot.
func (e Event) Clone() Event {
	out := e
	out.Participants = cloneStrings(e.Participants)
	out.Dependencies = cloneStrings(e.Dependencies)
	if e.Impacts != nil {
		out.Impacts = append([]Impact(nil), e.Impacts...)
	}
	out.KnowledgeEffects = cloneEffects(e.KnowledgeEffects)
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

func cloneEffects(effects []KnowledgeEffect) []KnowledgeEffect {
	if effects == nil {
		return nil
	}
	out := make([]KnowledgeEffect, len(effects))
	for i, effect := range effects {
		out[i] = effect
		if effect.LearnedAt != nil {
			learnedAt := *effect.LearnedAt
			out[i].LearnedAt = &learnedAt
		}
	}
	return out
}

// Index maps event ids to events. Later duplicates replace earlier ones.
func Index(events []Event) map[string]Event {
	index := make(map[string]Event, len(events))
	for _, evt := range events {
		index[evt.ID] = evt
	}
	return index
}
