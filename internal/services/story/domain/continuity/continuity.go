package continuity

import "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"

// Report combines graph validation with timestamp ordering checks.
type Report struct {
	DependencyIssues []DependencyIssue `json:"dependencyIssues"`
	CycleIssues      []CycleIssue      `json:"cycleIssues"`
	TimestampIssues  []TimestampIssue  `json:"timestampIssues"`
}

// Empty reports whether no continuity issue was found.
func (r Report) Empty() bool {
	return len(r.DependencyIssues) == 0 && len(r.CycleIssues) == 0 && len(r.TimestampIssues) == 0
}

// Count returns the total number of issues.
func (r Report) Count() int {
	return len(r.DependencyIssues) + len(r.CycleIssues) + len(r.TimestampIssues)
}

// CheckContinuity validates the dependency graph and requires that no
// dependency is timestamped strictly after the event that depends on it.
// Timestamps are reported, never corrected.
func CheckContinuity(events []event.Event) Report {
	graph := ValidateDependencyGraph(events)
	return Report{
		DependencyIssues: graph.DependencyIssues,
		CycleIssues:      graph.CycleIssues,
		TimestampIssues:  timestampIssues(events, event.Index(events)),
	}
}

func timestampIssues(events []event.Event, index map[string]event.Event) []TimestampIssue {
	issues := []TimestampIssue{}
	for _, evt := range events {
		for _, depID := range evt.Dependencies {
			dep, ok := index[depID]
			if !ok {
				continue
			}
			if dep.Timestamp.After(evt.Timestamp) {
				issues = append(issues, TimestampIssue{
					EventID:             evt.ID,
					DependencyID:        dep.ID,
					EventTimestamp:      evt.Timestamp,
					DependencyTimestamp: dep.Timestamp,
				})
			}
		}
	}
	return issues
}
