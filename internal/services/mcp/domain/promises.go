package domain

import (
	"context"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PromiseValidateInput represents the MCP tool input for promise validation.
type PromiseValidateInput struct {
	Promises []PromiseEntry `json:"promises" jsonschema:"promises to validate"`
	Events   []EventEntry   `json:"events,omitempty" jsonschema:"optional events; when given, referenced event ids must exist"`
}

// PromiseValidateResult represents the MCP tool output for promise validation.
type PromiseValidateResult struct {
	Passed bool                `json:"passed" jsonschema:"true when no issue was found"`
	Issues []PromiseIssueEntry `json:"issues,omitempty" jsonschema:"promise issues"`
}

// PromiseValidateTool defines the MCP tool schema for promise validation.
func PromiseValidateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "promise_validate",
		Description: "Checks promise shape and that fulfilled_in is set exactly when a promise is fulfilled.",
	}
}

// PromiseValidateHandler executes a promise validation request.
func PromiseValidateHandler() mcp.ToolHandlerFor[PromiseValidateInput, PromiseValidateResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input PromiseValidateInput) (*mcp.CallToolResult, PromiseValidateResult, error) {
		records := promisesFromEntries(input.Promises)
		issues := promise.Validate(records)
		if len(input.Events) > 0 {
			events, err := eventsFromEntries(input.Events)
			if err != nil {
				return nil, PromiseValidateResult{}, toolError("promise validate", err)
			}
			issues = append(issues, promise.ValidateReferences(records, events)...)
		}
		return nil, PromiseValidateResult{Passed: len(issues) == 0, Issues: promiseIssueEntries(issues)}, nil
	}
}

// PromiseTransitionInput represents the MCP tool input for a promise status change.
type PromiseTransitionInput struct {
	Promise     PromiseEntry `json:"promise" jsonschema:"promise to transition"`
	NextStatus  string       `json:"next_status" jsonschema:"target status (fulfilled, broken, transformed)"`
	FulfilledIn string       `json:"fulfilled_in,omitempty" jsonschema:"fulfilling event id, required when the target is fulfilled"`
}

// PromiseTransitionTool defines the MCP tool schema for a promise status change.
func PromiseTransitionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "promise_transition",
		Description: "Moves a promise from pending to fulfilled, broken or transformed. Transformed is terminal.",
	}
}

// PromiseTransitionHandler executes a promise transition request.
func PromiseTransitionHandler() mcp.ToolHandlerFor[PromiseTransitionInput, PromiseEntry] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input PromiseTransitionInput) (*mcp.CallToolResult, PromiseEntry, error) {
		next, err := promise.Transition(promiseFromEntry(input.Promise), promise.Status(input.NextStatus), input.FulfilledIn)
		if err != nil {
			return nil, PromiseEntry{}, toolError("promise transition", err)
		}
		return nil, promiseEntryFrom(next), nil
	}
}

// StoryPromisePutTool defines the MCP tool schema for storing a promise.
func StoryPromisePutTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_promise_put",
		Description: "Validates and stores a new promise so the canon gate checks it on every promotion. Stored promises change only through story_promise_transition.",
	}
}

// StoryPromisePutHandler executes a promise store request.
func StoryPromisePutHandler(service StoryService, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[PromiseEntry, PromiseEntry] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PromiseEntry) (*mcp.CallToolResult, PromiseEntry, error) {
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		record := promiseFromEntry(input)
		if err := service.PutPromise(runCtx, record); err != nil {
			logToolFailure("story_promise_put", err)
			return nil, PromiseEntry{}, toolError("promise put", err)
		}
		NotifyResourceUpdates(ctx, notify, CanonResourceURI)
		return nil, promiseEntryFrom(record), nil
	}
}

// StoryPromiseTransitionInput represents the MCP tool input for moving a stored promise.
type StoryPromiseTransitionInput struct {
	PromiseID   string `json:"promise_id" jsonschema:"stored promise id"`
	NextStatus  string `json:"next_status" jsonschema:"target status (fulfilled, broken, transformed)"`
	FulfilledIn string `json:"fulfilled_in,omitempty" jsonschema:"fulfilling event id, required when the target is fulfilled"`
}

// StoryPromiseTransitionTool defines the MCP tool schema for moving a stored promise.
func StoryPromiseTransitionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_promise_transition",
		Description: "Moves a stored promise along its lifecycle and stores the result. Transformed is terminal.",
	}
}

// StoryPromiseTransitionHandler executes a stored promise transition.
func StoryPromiseTransitionHandler(service StoryService, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[StoryPromiseTransitionInput, PromiseEntry] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StoryPromiseTransitionInput) (*mcp.CallToolResult, PromiseEntry, error) {
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		updated, err := service.TransitionPromise(runCtx, input.PromiseID, promise.Status(input.NextStatus), input.FulfilledIn)
		if err != nil {
			logToolFailure("story_promise_transition", err)
			return nil, PromiseEntry{}, toolError("promise transition", err)
		}
		NotifyResourceUpdates(ctx, notify, CanonResourceURI)
		return nil, promiseEntryFrom(updated), nil
	}
}
