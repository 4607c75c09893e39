// Package knowledge derives what each character knows from event history.
package knowledge

import (
	"sort"
	"time"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
)

// IssueLearnedBeforeEvent flags an effect learned before its event happened.
const IssueLearnedBeforeEvent = "learned_before_event"

// State is the resolved knowledge one character holds from one event.
type State struct {
	CharacterID string          `json:"characterId"`
	EventID     string          `json:"eventId"`
	LearnedAt   time.Time       `json:"learnedAt"`
	Certainty   event.Certainty `json:"certainty"`
	Source      event.Source    `json:"source"`
}

// Issue describes a knowledge effect that breaks timing rules.
type Issue struct {
	Kind           string    `json:"kind"`
	CharacterID    string    `json:"characterId"`
	EventID        string    `json:"eventId"`
	LearnedAt      time.Time `json:"learnedAt"`
	EventTimestamp time.Time `json:"eventTimestamp"`
}

// Result holds derived knowledge and the timing issues found along the way.
type Result struct {
	Knowledge []State `json:"knowledge"`
	Issues    []Issue `json:"issues"`
}

type stateKey struct {
	characterID string
	eventID     string
}

// Derive folds every knowledge effect into one state per (character, event).
//
// Events are processed in (timestamp, id) order. For effects sharing a key
// the earliest learnedAt wins; on an exact tie the higher certainty wins, and
// otherwise the first effect seen is kept. The output is sorted by learnedAt,
// then character id, then event id.
func Derive(events []event.Event) Result {
	ordered := append([]event.Event(nil), events...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].Timestamp.Before(ordered[j].Timestamp)
		}
		return ordered[i].ID < ordered[j].ID
	})

	states := map[stateKey]State{}
	issues := []Issue{}
	for _, evt := range ordered {
		for _, effect := range evt.KnowledgeEffects {
			learnedAt := evt.EffectLearnedAt(effect)
			if learnedAt.Before(evt.Timestamp) {
				issues = append(issues, Issue{
					Kind:           IssueLearnedBeforeEvent,
					CharacterID:    effect.CharacterID,
					EventID:        evt.ID,
					LearnedAt:      learnedAt,
					EventTimestamp: evt.Timestamp,
				})
			}

			candidate := State{
				CharacterID: effect.CharacterID,
				EventID:     evt.ID,
				LearnedAt:   learnedAt,
				Certainty:   effect.Certainty,
				Source:      effect.Source,
			}
			key := stateKey{characterID: effect.CharacterID, eventID: evt.ID}
			current, ok := states[key]
			if !ok || supersedes(candidate, current) {
				states[key] = candidate
			}
		}
	}

	knowledge := make([]State, 0, len(states))
	for _, state := range states {
		knowledge = append(knowledge, state)
	}
	sort.Slice(knowledge, func(i, j int) bool {
		a, b := knowledge[i], knowledge[j]
		if !a.LearnedAt.Equal(b.LearnedAt) {
			return a.LearnedAt.Before(b.LearnedAt)
		}
		if a.CharacterID != b.CharacterID {
			return a.CharacterID < b.CharacterID
		}
		return a.EventID < b.EventID
	})
	return Result{Knowledge: knowledge, Issues: issues}
}

func supersedes(candidate, current State) bool {
	if !candidate.LearnedAt.Equal(current.LearnedAt) {
		return candidate.LearnedAt.Before(current.LearnedAt)
	}
	return candidate.Certainty.Rank() > current.Certainty.Rank()
}

// KnownBy returns the knowledge a character holds at the given instant.
func KnownBy(result Result, characterID string, at time.Time) []State {
	var out []State
	for _, state := range result.Knowledge {
		if state.CharacterID != characterID {
			continue
		}
		if state.LearnedAt.After(at) {
			continue
		}
		out = append(out, state)
	}
	return out
}
