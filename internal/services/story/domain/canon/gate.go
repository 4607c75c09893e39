// Package canon gates promotion of narrative events to permanent canon.
//
// The gate aggregates continuity, promise and knowledge-timing checks over a
// candidate event set. An event only becomes canon when every sub-report is
// empty.
package canon

import (
	"fmt"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/continuity"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/knowledge"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
)

// ErrGateRejected indicates a promotion blocked by a failing gate report.
var ErrGateRejected = apperrors.New(apperrors.CodeCanonGateRejected, "canon gate rejected the event set")

// GateReport is the outcome of one gate run.
type GateReport struct {
	Passed            bool              `json:"passed"`
	Continuity        continuity.Report `json:"continuity"`
	PromiseIssues     []promise.Issue   `json:"promiseIssues"`
	ListenerCognition []knowledge.Issue `json:"listenerCognition"`
}

// Validate runs the gate over events and promises. Promise references are
// resolved against the same events.
func Validate(events []event.Event, promises []promise.Record) GateReport {
	return validate(events, events, promises)
}

// validate checks continuity and knowledge over events while resolving
// promise references against refs.
func validate(events, refs []event.Event, promises []promise.Record) GateReport {
	report := GateReport{
		Continuity:        continuity.CheckContinuity(events),
		PromiseIssues:     promise.Validate(promises),
		ListenerCognition: knowledge.Derive(events).Issues,
	}
	if len(promises) > 0 {
		report.PromiseIssues = append(report.PromiseIssues, promise.ValidateReferences(promises, refs)...)
	}
	report.Passed = report.Continuity.Empty() && len(report.PromiseIssues) == 0 && len(report.ListenerCognition) == 0
	return report
}

// CandidateSet returns the events a promotion is judged against: every
// existing proposed or canon event plus the candidate. A stored copy of the
// candidate is replaced by the candidate itself.
func CandidateSet(existing []event.Event, candidate event.Event) []event.Event {
	out := make([]event.Event, 0, len(existing)+1)
	for _, evt := range existing {
		if evt.ID == candidate.ID {
			continue
		}
		if evt.CanonStatus == event.StatusCanon || evt.CanonStatus == event.StatusProposed {
			out = append(out, evt)
		}
	}
	return append(out, candidate)
}

// Promote moves candidate to next and gates the result. Transition errors are
// returned before the gate runs. A failing gate returns ErrGateRejected with
// the report so callers can surface every issue.
func Promote(existing []event.Event, candidate event.Event, next event.CanonStatus, promises []promise.Record) (event.Event, GateReport, error) {
	promoted, err := event.TransitionCanonStatus(candidate, next)
	if err != nil {
		return event.Event{}, GateReport{}, err
	}

	refs := make([]event.Event, 0, len(existing)+1)
	for _, evt := range existing {
		if evt.ID != promoted.ID {
			refs = append(refs, evt)
		}
	}
	refs = append(refs, promoted)

	report := validate(CandidateSet(existing, promoted), refs, promises)
	if !report.Passed {
		return event.Event{}, report, apperrors.WithMetadata(
			apperrors.CodeCanonGateRejected,
			fmt.Sprintf("event %s failed the canon gate", promoted.ID),
			map[string]string{
				"event_id":          promoted.ID,
				"continuity_issues": fmt.Sprint(report.Continuity.Count()),
				"promise_issues":    fmt.Sprint(len(report.PromiseIssues)),
				"cognition_issues":  fmt.Sprint(len(report.ListenerCognition)),
			},
		)
	}
	return promoted, report, nil
}
