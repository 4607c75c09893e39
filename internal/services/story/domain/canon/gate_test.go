package canon

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
)

var t0 = time.Date(2026, time.June, 12, 20, 0, 0, 0, time.UTC)

func storyEvent(id string, status event.CanonStatus, ts time.Time, deps ...string) event.Event {
	return event.Event{
		ID:           id,
		Timestamp:    ts,
		Type:         event.TypeScene,
		Participants: []string{"mara"},
		Description:  "scene " + id,
		Dependencies: deps,
		CanonStatus:  status,
	}
}

func TestValidatePassesCleanSet(t *testing.T) {
	events := []event.Event{
		storyEvent("evt-1", event.StatusCanon, t0),
		storyEvent("evt-2", event.StatusProposed, t0.Add(time.Hour), "evt-1"),
	}
	promises := []promise.Record{{
		ID:            "p-1",
		Type:          promise.TypeMystery,
		EstablishedIn: "evt-1",
		Description:   "the missing pilot",
		Status:        promise.StatusPending,
	}}

	report := Validate(events, promises)
	if !report.Passed {
		t.Fatalf("report = %+v, want passed", report)
	}
}

func TestValidateFailsOnEachSubReport(t *testing.T) {
	early := t0.Add(-time.Hour)
	tests := []struct {
		name     string
		events   []event.Event
		promises []promise.Record
	}{
		{
			name: "continuity",
			events: []event.Event{
				storyEvent("evt-1", event.StatusCanon, t0, "evt-ghost"),
			},
		},
		{
			name:   "promise",
			events: []event.Event{storyEvent("evt-1", event.StatusCanon, t0)},
			promises: []promise.Record{{
				ID: "p-1", Type: promise.TypeMystery, EstablishedIn: "evt-1",
				Description: "the missing pilot", Status: promise.StatusFulfilled,
			}},
		},
		{
			name: "cognition",
			events: []event.Event{{
				ID: "evt-1", Timestamp: t0, Type: event.TypeReveal, Description: "reveal",
				CanonStatus: event.StatusProposed,
				KnowledgeEffects: []event.KnowledgeEffect{{
					CharacterID: "mara", LearnedAt: &early,
					Certainty: event.CertaintyKnown, Source: event.SourceWitnessed,
				}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Validate(tt.events, tt.promises)
			if report.Passed {
				t.Fatalf("report passed, want failure")
			}
		})
	}
}

func TestCandidateSetKeepsProposedAndCanon(t *testing.T) {
	existing := []event.Event{
		storyEvent("evt-1", event.StatusCanon, t0),
		storyEvent("evt-2", event.StatusDraft, t0),
		storyEvent("evt-3", event.StatusProposed, t0),
		storyEvent("evt-4", event.StatusProposed, t0),
	}
	candidate := storyEvent("evt-4", event.StatusCanon, t0)

	set := CandidateSet(existing, candidate)
	ids := make([]string, 0, len(set))
	for _, evt := range set {
		ids = append(ids, evt.ID)
	}
	want := []string{"evt-1", "evt-3", "evt-4"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if set[2].CanonStatus != event.StatusCanon {
		t.Fatalf("candidate status = %s, want canon", set[2].CanonStatus)
	}
}

func TestPromoteRejectsInvalidTransition(t *testing.T) {
	candidate := storyEvent("evt-1", event.StatusCanon, t0)
	_, _, err := Promote(nil, candidate, event.StatusDraft, nil)
	if !errors.Is(err, event.ErrInvalidTransition) {
		t.Fatalf("error = %v, want invalid transition", err)
	}
}

func TestPromoteRejectsFailingGate(t *testing.T) {
	existing := []event.Event{storyEvent("evt-1", event.StatusCanon, t0.Add(time.Hour))}
	candidate := storyEvent("evt-2", event.StatusProposed, t0, "evt-1")

	_, report, err := Promote(existing, candidate, event.StatusCanon, nil)
	if !errors.Is(err, ErrGateRejected) {
		t.Fatalf("error = %v, want gate rejection", err)
	}
	if got := apperrors.GetCode(err); got != apperrors.CodeCanonGateRejected {
		t.Fatalf("code = %s, want %s", got, apperrors.CodeCanonGateRejected)
	}
	if len(report.Continuity.TimestampIssues) != 1 {
		t.Fatalf("timestamp issues = %d, want 1", len(report.Continuity.TimestampIssues))
	}
}

func TestPromoteResolvesPromisesAgainstDrafts(t *testing.T) {
	existing := []event.Event{
		storyEvent("evt-1", event.StatusDraft, t0),
	}
	candidate := storyEvent("evt-2", event.StatusProposed, t0.Add(time.Hour))
	promises := []promise.Record{{
		ID: "p-1", Type: promise.TypePlotThread, EstablishedIn: "evt-1",
		Description: "the relay", Status: promise.StatusPending,
	}}

	promoted, report, err := Promote(existing, candidate, event.StatusCanon, promises)
	if err != nil {
		t.Fatalf("promote: %v (report %+v)", err, report)
	}
	if !promoted.IsCanon() {
		t.Fatalf("status = %s, want canon", promoted.CanonStatus)
	}
	if candidate.CanonStatus != event.StatusProposed {
		t.Fatalf("candidate mutated to %s", candidate.CanonStatus)
	}
}
