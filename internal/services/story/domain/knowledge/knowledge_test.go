package knowledge

import (
	"testing"
	"time"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
)

var t0 = time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)

func at(offset time.Duration) *time.Time {
	ts := t0.Add(offset)
	return &ts
}

func TestDeriveTieBreaksOnCertaintyRank(t *testing.T) {
	events := []event.Event{{
		ID:        "evt-1",
		Timestamp: t0,
		KnowledgeEffects: []event.KnowledgeEffect{
			{CharacterID: "mara", LearnedAt: at(time.Hour), Certainty: event.CertaintyRumored, Source: event.SourceTold},
			{CharacterID: "mara", LearnedAt: at(time.Hour), Certainty: event.CertaintyKnown, Source: event.SourceWitnessed},
		},
	}}

	result := Derive(events)
	if len(result.Knowledge) != 1 {
		t.Fatalf("knowledge = %d entries, want 1", len(result.Knowledge))
	}
	if got := result.Knowledge[0].Certainty; got != event.CertaintyKnown {
		t.Fatalf("certainty = %s, want %s", got, event.CertaintyKnown)
	}
	if got := result.Knowledge[0].Source; got != event.SourceWitnessed {
		t.Fatalf("source = %s, want %s", got, event.SourceWitnessed)
	}
}

func TestDeriveEarliestLearnedAtWins(t *testing.T) {
	events := []event.Event{{
		ID:        "evt-1",
		Timestamp: t0,
		KnowledgeEffects: []event.KnowledgeEffect{
			{CharacterID: "mara", LearnedAt: at(2 * time.Hour), Certainty: event.CertaintyKnown, Source: event.SourceWitnessed},
			{CharacterID: "mara", LearnedAt: at(time.Hour), Certainty: event.CertaintyRumored, Source: event.SourceTold},
		},
	}}

	result := Derive(events)
	if len(result.Knowledge) != 1 {
		t.Fatalf("knowledge = %d entries, want 1", len(result.Knowledge))
	}
	state := result.Knowledge[0]
	if state.Certainty != event.CertaintyRumored || !state.LearnedAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("state = %+v, want earliest rumored effect", state)
	}
}

func TestDeriveDefaultsLearnedAtAndSorts(t *testing.T) {
	events := []event.Event{
		{
			ID:        "evt-2",
			Timestamp: t0.Add(time.Hour),
			KnowledgeEffects: []event.KnowledgeEffect{
				{CharacterID: "ilya", Certainty: event.CertaintySuspected, Source: event.SourceInferred},
			},
		},
		{
			ID:        "evt-1",
			Timestamp: t0,
			KnowledgeEffects: []event.KnowledgeEffect{
				{CharacterID: "zed", Certainty: event.CertaintyKnown, Source: event.SourceWitnessed},
				{CharacterID: "ada", Certainty: event.CertaintyKnown, Source: event.SourceWitnessed},
			},
		},
	}

	result := Derive(events)
	if len(result.Issues) != 0 {
		t.Fatalf("issues = %v, want none", result.Issues)
	}
	want := []struct {
		character string
		event     string
	}{
		{"ada", "evt-1"},
		{"zed", "evt-1"},
		{"ilya", "evt-2"},
	}
	if len(result.Knowledge) != len(want) {
		t.Fatalf("knowledge = %d entries, want %d", len(result.Knowledge), len(want))
	}
	for i, w := range want {
		got := result.Knowledge[i]
		if got.CharacterID != w.character || got.EventID != w.event {
			t.Fatalf("knowledge[%d] = %s/%s, want %s/%s", i, got.CharacterID, got.EventID, w.character, w.event)
		}
	}
	if !result.Knowledge[2].LearnedAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("learnedAt = %v, want event timestamp", result.Knowledge[2].LearnedAt)
	}
}

func TestDeriveReportsLearnedBeforeEvent(t *testing.T) {
	events := []event.Event{{
		ID:        "evt-1",
		Timestamp: t0,
		KnowledgeEffects: []event.KnowledgeEffect{
			{CharacterID: "mara", LearnedAt: at(-time.Minute), Certainty: event.CertaintyKnown, Source: event.SourceTold},
		},
	}}

	result := Derive(events)
	if len(result.Issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(result.Issues))
	}
	issue := result.Issues[0]
	if issue.Kind != IssueLearnedBeforeEvent || issue.CharacterID != "mara" || issue.EventID != "evt-1" {
		t.Fatalf("issue = %+v", issue)
	}
}

func TestKnownBy(t *testing.T) {
	result := Derive([]event.Event{
		{ID: "evt-1", Timestamp: t0, KnowledgeEffects: []event.KnowledgeEffect{{CharacterID: "mara", Certainty: event.CertaintyKnown, Source: event.SourceWitnessed}}},
		{ID: "evt-2", Timestamp: t0.Add(time.Hour), KnowledgeEffects: []event.KnowledgeEffect{{CharacterID: "mara", Certainty: event.CertaintySuspected, Source: event.SourceInferred}}},
		{ID: "evt-3", Timestamp: t0, KnowledgeEffects: []event.KnowledgeEffect{{CharacterID: "ilya", Certainty: event.CertaintyKnown, Source: event.SourceWitnessed}}},
	})

	known := KnownBy(result, "mara", t0.Add(30*time.Minute))
	if len(known) != 1 || known[0].EventID != "evt-1" {
		t.Fatalf("known = %+v, want only evt-1", known)
	}
}
