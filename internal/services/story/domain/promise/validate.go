package promise

import (
	"fmt"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
)

// Issue kinds reported by Validate and ValidateReferences.
const (
	IssueFulfilledMissingEvent    = "fulfilled_missing_event"
	IssueFulfillmentWithoutStatus = "fulfillment_without_status"
	IssueInvalidStatus            = "invalid_status"
	IssueInvalidType              = "invalid_type"
	IssueMissingEstablishedIn     = "missing_established_in"
	IssueDuplicateID              = "duplicate_id"
	IssueUnknownEvent             = "unknown_event"
)

// Issue describes one inconsistency in a promise record.
type Issue struct {
	PromiseID string `json:"promiseId"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// Validate checks every record for shape problems and the fulfilledIn/status
// invariant. Each direction of the invariant is its own issue kind.
func Validate(records []Record) []Issue {
	issues := []Issue{}
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if _, ok := seen[record.ID]; ok {
			issues = append(issues, Issue{
				PromiseID: record.ID,
				Kind:      IssueDuplicateID,
				Message:   fmt.Sprintf("promise id %q appears more than once", record.ID),
			})
		}
		seen[record.ID] = struct{}{}

		if !validType(record.Type) {
			issues = append(issues, Issue{
				PromiseID: record.ID,
				Kind:      IssueInvalidType,
				Message:   fmt.Sprintf("type %q is not a promise type", record.Type),
			})
		}
		if record.EstablishedIn == "" {
			issues = append(issues, Issue{
				PromiseID: record.ID,
				Kind:      IssueMissingEstablishedIn,
				Message:   "establishedIn must reference the event that opened the promise",
			})
		}

		if _, ok := allowedTransitions[record.Status]; !ok {
			issues = append(issues, Issue{
				PromiseID: record.ID,
				Kind:      IssueInvalidStatus,
				Message:   fmt.Sprintf("status %q is not a promise status", record.Status),
			})
			continue
		}
		switch {
		case record.Status == StatusFulfilled && record.FulfilledIn == "":
			issues = append(issues, Issue{
				PromiseID: record.ID,
				Kind:      IssueFulfilledMissingEvent,
				Message:   "fulfilled promise must name the event that fulfilled it",
			})
		case record.Status != StatusFulfilled && record.FulfilledIn != "":
			issues = append(issues, Issue{
				PromiseID: record.ID,
				Kind:      IssueFulfillmentWithoutStatus,
				Message:   fmt.Sprintf("fulfilledIn is set but status is %s", record.Status),
			})
		}
	}
	return issues
}

func validType(t Type) bool {
	switch t {
	case TypePlotThread, TypeMystery, TypeCharacterArc, TypeProphecy:
		return true
	default:
		return false
	}
}

// ValidateReferences reports promises whose establishedIn or fulfilledIn
// name an event that is not in events.
func ValidateReferences(records []Record, events []event.Event) []Issue {
	index := event.Index(events)
	issues := []Issue{}
	for _, record := range records {
		if record.EstablishedIn != "" {
			if _, ok := index[record.EstablishedIn]; !ok {
				issues = append(issues, Issue{
					PromiseID: record.ID,
					Kind:      IssueUnknownEvent,
					Message:   fmt.Sprintf("establishedIn references unknown event %s", record.EstablishedIn),
				})
			}
		}
		if record.FulfilledIn != "" {
			if _, ok := index[record.FulfilledIn]; !ok {
				issues = append(issues, Issue{
					PromiseID: record.ID,
					Kind:      IssueUnknownEvent,
					Message:   fmt.Sprintf("fulfilledIn references unknown event %s", record.FulfilledIn),
				})
			}
		}
	}
	return issues
}
