// Package continuity validates the structure of a story's event graph.
//
// Checks never fail: they return issue lists so callers can show every
// problem in one pass.
package continuity

import (
	"time"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
)

// DependencyIssue lists dependency ids that do not resolve to a known event.
type DependencyIssue struct {
	EventID             string   `json:"eventId"`
	MissingDependencies []string `json:"missingDependencies"`
}

// CycleIssue is a closed dependency path: the first and last ids are equal.
type CycleIssue struct {
	Path []string `json:"path"`
}

// TimestampIssue reports a dependency that happens after its dependent.
type TimestampIssue struct {
	EventID             string    `json:"eventId"`
	DependencyID        string    `json:"dependencyId"`
	EventTimestamp      time.Time `json:"eventTimestamp"`
	DependencyTimestamp time.Time `json:"dependencyTimestamp"`
}

// GraphReport is the result of dependency graph validation.
type GraphReport struct {
	DependencyIssues []DependencyIssue `json:"dependencyIssues"`
	CycleIssues      []CycleIssue      `json:"cycleIssues"`
}

// Empty reports whether the graph has no issues.
func (r GraphReport) Empty() bool {
	return len(r.DependencyIssues) == 0 && len(r.CycleIssues) == 0
}

// ValidateDependencyGraph reports missing dependencies and dependency cycles.
func ValidateDependencyGraph(events []event.Event) GraphReport {
	index := event.Index(events)
	return GraphReport{
		DependencyIssues: missingDependencies(events, index),
		CycleIssues:      findCycles(events, index),
	}
}

func missingDependencies(events []event.Event, index map[string]event.Event) []DependencyIssue {
	issues := []DependencyIssue{}
	for _, evt := range events {
		var missing []string
		for _, dep := range evt.Dependencies {
			if _, ok := index[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			issues = append(issues, DependencyIssue{EventID: evt.ID, MissingDependencies: missing})
		}
	}
	return issues
}

type visitState int

const (
	unvisited visitState = iota
	onPath
	finished
)

// findCycles walks the graph depth first from each event in input order. A
// dependency found on the current path closes a cycle; the reported path runs
// from that dependency's position on the path through the revisit.
func findCycles(events []event.Event, index map[string]event.Event) []CycleIssue {
	issues := []CycleIssue{}
	state := make(map[string]visitState, len(index))
	position := make(map[string]int, len(index))
	var path []string

	var visit func(id string)
	visit = func(id string) {
		state[id] = onPath
		position[id] = len(path)
		path = append(path, id)

		for _, dep := range index[id].Dependencies {
			if _, ok := index[dep]; !ok {
				continue
			}
			switch state[dep] {
			case onPath:
				cycle := append([]string(nil), path[position[dep]:]...)
				cycle = append(cycle, dep)
				issues = append(issues, CycleIssue{Path: cycle})
			case unvisited:
				visit(dep)
			}
		}

		path = path[:len(path)-1]
		delete(position, id)
		state[id] = finished
	}

	for _, evt := range events {
		if state[evt.ID] == unvisited {
			visit(evt.ID)
		}
	}
	return issues
}
