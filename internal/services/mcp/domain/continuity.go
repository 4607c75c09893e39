package domain

import (
	"context"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/canon"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/continuity"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/knowledge"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// EventSetInput represents a tool input carrying a full event set.
type EventSetInput struct {
	Events []EventEntry `json:"events" jsonschema:"events to check"`
}

// DependencyIssueEntry lists dependency ids that do not resolve.
type DependencyIssueEntry struct {
	EventID             string   `json:"event_id" jsonschema:"event with unresolved dependencies"`
	MissingDependencies []string `json:"missing_dependencies" jsonschema:"dependency ids with no matching event"`
}

// CycleIssueEntry is a closed dependency path.
type CycleIssueEntry struct {
	Path []string `json:"path" jsonschema:"event ids along the cycle; the first and last are equal"`
}

// TimestampIssueEntry reports a dependency timestamped after its dependent.
type TimestampIssueEntry struct {
	EventID             string `json:"event_id" jsonschema:"dependent event"`
	DependencyID        string `json:"dependency_id" jsonschema:"dependency that happens later"`
	EventTimestamp      string `json:"event_timestamp" jsonschema:"RFC3339 timestamp of the dependent"`
	DependencyTimestamp string `json:"dependency_timestamp" jsonschema:"RFC3339 timestamp of the dependency"`
}

// DependencyGraphResult represents the MCP tool output for graph validation.
type DependencyGraphResult struct {
	Passed           bool                   `json:"passed" jsonschema:"true when no issue was found"`
	DependencyIssues []DependencyIssueEntry `json:"dependency_issues,omitempty" jsonschema:"missing dependencies"`
	CycleIssues      []CycleIssueEntry      `json:"cycle_issues,omitempty" jsonschema:"dependency cycles"`
}

// ContinuityResult represents the MCP tool output for a continuity check.
type ContinuityResult struct {
	Passed           bool                   `json:"passed" jsonschema:"true when no issue was found"`
	DependencyIssues []DependencyIssueEntry `json:"dependency_issues,omitempty" jsonschema:"missing dependencies"`
	CycleIssues      []CycleIssueEntry      `json:"cycle_issues,omitempty" jsonschema:"dependency cycles"`
	TimestampIssues  []TimestampIssueEntry  `json:"timestamp_issues,omitempty" jsonschema:"dependencies that happen after their dependents"`
}

func dependencyIssueEntries(issues []continuity.DependencyIssue) []DependencyIssueEntry {
	var entries []DependencyIssueEntry
	for _, issue := range issues {
		entries = append(entries, DependencyIssueEntry{EventID: issue.EventID, MissingDependencies: issue.MissingDependencies})
	}
	return entries
}

func cycleIssueEntries(issues []continuity.CycleIssue) []CycleIssueEntry {
	var entries []CycleIssueEntry
	for _, issue := range issues {
		entries = append(entries, CycleIssueEntry{Path: issue.Path})
	}
	return entries
}

func continuityResultFrom(report continuity.Report) ContinuityResult {
	result := ContinuityResult{
		Passed:           report.Empty(),
		DependencyIssues: dependencyIssueEntries(report.DependencyIssues),
		CycleIssues:      cycleIssueEntries(report.CycleIssues),
	}
	for _, issue := range report.TimestampIssues {
		result.TimestampIssues = append(result.TimestampIssues, TimestampIssueEntry{
			EventID:             issue.EventID,
			DependencyID:        issue.DependencyID,
			EventTimestamp:      formatTimestamp(issue.EventTimestamp),
			DependencyTimestamp: formatTimestamp(issue.DependencyTimestamp),
		})
	}
	return result
}

// DependencyGraphValidateTool defines the MCP tool schema for graph validation.
func DependencyGraphValidateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "dependency_graph_validate",
		Description: "Reports missing dependencies and dependency cycles in an event set.",
	}
}

// DependencyGraphValidateHandler executes a graph validation request.
func DependencyGraphValidateHandler() mcp.ToolHandlerFor[EventSetInput, DependencyGraphResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input EventSetInput) (*mcp.CallToolResult, DependencyGraphResult, error) {
		events, err := eventsFromEntries(input.Events)
		if err != nil {
			return nil, DependencyGraphResult{}, toolError("dependency graph validate", err)
		}
		report := continuity.ValidateDependencyGraph(events)
		return nil, DependencyGraphResult{
			Passed:           report.Empty(),
			DependencyIssues: dependencyIssueEntries(report.DependencyIssues),
			CycleIssues:      cycleIssueEntries(report.CycleIssues),
		}, nil
	}
}

// ContinuityCheckTool defines the MCP tool schema for a continuity check.
func ContinuityCheckTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "continuity_check",
		Description: "Validates the dependency graph and reports dependencies timestamped after the events that need them.",
	}
}

// ContinuityCheckHandler executes a continuity check request.
func ContinuityCheckHandler() mcp.ToolHandlerFor[EventSetInput, ContinuityResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input EventSetInput) (*mcp.CallToolResult, ContinuityResult, error) {
		events, err := eventsFromEntries(input.Events)
		if err != nil {
			return nil, ContinuityResult{}, toolError("continuity check", err)
		}
		return nil, continuityResultFrom(continuity.CheckContinuity(events)), nil
	}
}

// KnowledgeDeriveInput represents the MCP tool input for knowledge derivation.
type KnowledgeDeriveInput struct {
	Events      []EventEntry `json:"events" jsonschema:"events carrying knowledge effects"`
	CharacterID string       `json:"character_id,omitempty" jsonschema:"optional character to filter by"`
	At          string       `json:"at,omitempty" jsonschema:"optional RFC3339 instant; with character_id, only knowledge learned by then"`
}

// KnowledgeStateEntry is one character's knowledge of one event.
type KnowledgeStateEntry struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	EventID     string `json:"event_id" jsonschema:"event identifier"`
	LearnedAt   string `json:"learned_at" jsonschema:"RFC3339 timestamp the knowledge was gained"`
	Certainty   string `json:"certainty" jsonschema:"certainty"`
	Source      string `json:"source" jsonschema:"source"`
}

// KnowledgeIssueEntry reports a knowledge effect that breaks timing rules.
type KnowledgeIssueEntry struct {
	Kind           string `json:"kind" jsonschema:"issue kind"`
	CharacterID    string `json:"character_id" jsonschema:"character identifier"`
	EventID        string `json:"event_id" jsonschema:"event identifier"`
	LearnedAt      string `json:"learned_at" jsonschema:"RFC3339 learnedAt of the effect"`
	EventTimestamp string `json:"event_timestamp" jsonschema:"RFC3339 timestamp of the event"`
}

// KnowledgeDeriveResult represents the MCP tool output for knowledge derivation.
type KnowledgeDeriveResult struct {
	Knowledge []KnowledgeStateEntry `json:"knowledge,omitempty" jsonschema:"derived knowledge states"`
	Issues    []KnowledgeIssueEntry `json:"issues,omitempty" jsonschema:"timing issues"`
}

func knowledgeStateEntries(states []knowledge.State) []KnowledgeStateEntry {
	var entries []KnowledgeStateEntry
	for _, state := range states {
		entries = append(entries, KnowledgeStateEntry{
			CharacterID: state.CharacterID,
			EventID:     state.EventID,
			LearnedAt:   formatTimestamp(state.LearnedAt),
			Certainty:   string(state.Certainty),
			Source:      string(state.Source),
		})
	}
	return entries
}

func knowledgeIssueEntries(issues []knowledge.Issue) []KnowledgeIssueEntry {
	var entries []KnowledgeIssueEntry
	for _, issue := range issues {
		entries = append(entries, KnowledgeIssueEntry{
			Kind:           issue.Kind,
			CharacterID:    issue.CharacterID,
			EventID:        issue.EventID,
			LearnedAt:      formatTimestamp(issue.LearnedAt),
			EventTimestamp: formatTimestamp(issue.EventTimestamp),
		})
	}
	return entries
}

// KnowledgeDeriveTool defines the MCP tool schema for knowledge derivation.
func KnowledgeDeriveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "knowledge_derive",
		Description: "Derives what each character knows from event knowledge effects and flags effects learned before their event.",
	}
}

// KnowledgeDeriveHandler executes a knowledge derivation request.
func KnowledgeDeriveHandler() mcp.ToolHandlerFor[KnowledgeDeriveInput, KnowledgeDeriveResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input KnowledgeDeriveInput) (*mcp.CallToolResult, KnowledgeDeriveResult, error) {
		events, err := eventsFromEntries(input.Events)
		if err != nil {
			return nil, KnowledgeDeriveResult{}, toolError("knowledge derive", err)
		}
		at, err := parseTimestamp("at", input.At)
		if err != nil {
			return nil, KnowledgeDeriveResult{}, toolError("knowledge derive", err)
		}

		derived := knowledge.Derive(events)
		states := derived.Knowledge
		switch {
		case input.CharacterID != "" && at != nil:
			states = knowledge.KnownBy(derived, input.CharacterID, *at)
		case input.CharacterID != "":
			states = nil
			for _, state := range derived.Knowledge {
				if state.CharacterID == input.CharacterID {
					states = append(states, state)
				}
			}
		}
		return nil, KnowledgeDeriveResult{
			Knowledge: knowledgeStateEntries(states),
			Issues:    knowledgeIssueEntries(derived.Issues),
		}, nil
	}
}

// PromiseIssueEntry describes one inconsistency in a promise record.
type PromiseIssueEntry struct {
	PromiseID string `json:"promise_id" jsonschema:"promise identifier"`
	Kind      string `json:"kind" jsonschema:"issue kind"`
	Message   string `json:"message" jsonschema:"human readable message"`
}

func promiseIssueEntries(issues []promise.Issue) []PromiseIssueEntry {
	var entries []PromiseIssueEntry
	for _, issue := range issues {
		entries = append(entries, PromiseIssueEntry{PromiseID: issue.PromiseID, Kind: issue.Kind, Message: issue.Message})
	}
	return entries
}

// GateResult represents the canon gate report.
type GateResult struct {
	Passed            bool                  `json:"passed" jsonschema:"true when the event set may be canon"`
	Continuity        ContinuityResult      `json:"continuity" jsonschema:"continuity report"`
	PromiseIssues     []PromiseIssueEntry   `json:"promise_issues,omitempty" jsonschema:"promise issues"`
	ListenerCognition []KnowledgeIssueEntry `json:"listener_cognition,omitempty" jsonschema:"knowledge timing issues a listener would notice"`
}

func gateResultFrom(report canon.GateReport) GateResult {
	return GateResult{
		Passed:            report.Passed,
		Continuity:        continuityResultFrom(report.Continuity),
		PromiseIssues:     promiseIssueEntries(report.PromiseIssues),
		ListenerCognition: knowledgeIssueEntries(report.ListenerCognition),
	}
}

// CanonGateInput represents the MCP tool input for the canon gate.
type CanonGateInput struct {
	Events   []EventEntry   `json:"events" jsonschema:"events that would be canon"`
	Promises []PromiseEntry `json:"promises,omitempty" jsonschema:"promises to check against the events"`
}

// CanonGateValidateTool defines the MCP tool schema for the canon gate.
func CanonGateValidateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "canon_gate_validate",
		Description: "Runs continuity, promise and knowledge timing checks over an event set; passes only when every check is clean.",
	}
}

// CanonGateValidateHandler executes a canon gate request.
func CanonGateValidateHandler() mcp.ToolHandlerFor[CanonGateInput, GateResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input CanonGateInput) (*mcp.CallToolResult, GateResult, error) {
		events, err := eventsFromEntries(input.Events)
		if err != nil {
			return nil, GateResult{}, toolError("canon gate validate", err)
		}
		return nil, gateResultFrom(canon.Validate(events, promisesFromEntries(input.Promises))), nil
	}
}

// StoryCanonReportInput is empty: the report covers the whole store.
type StoryCanonReportInput struct{}

// StoryCanonReportTool defines the MCP tool schema for the stored canon report.
func StoryCanonReportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_canon_report",
		Description: "Runs the canon gate over every stored proposed and canon event and every stored promise.",
	}
}

// StoryCanonReportHandler executes a stored canon report request.
func StoryCanonReportHandler(service StoryService) mcp.ToolHandlerFor[StoryCanonReportInput, GateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ StoryCanonReportInput) (*mcp.CallToolResult, GateResult, error) {
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		report, err := service.CanonReport(runCtx)
		if err != nil {
			logToolFailure("story_canon_report", err)
			return nil, GateResult{}, toolError("canon report", err)
		}
		return nil, gateResultFrom(report), nil
	}
}
