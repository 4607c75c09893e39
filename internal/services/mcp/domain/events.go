package domain

import (
	"context"
	"errors"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/canon"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// EventCreateInput represents the MCP tool input for creating an event.
type EventCreateInput struct {
	ID               string                 `json:"id,omitempty" jsonschema:"optional event identifier (generated when empty)"`
	Timestamp        string                 `json:"timestamp,omitempty" jsonschema:"optional RFC3339 timestamp in story time (defaults to now)"`
	Type             string                 `json:"type" jsonschema:"event type (scene, reveal, conflict, resolution, transition, custom)"`
	Participants     []string               `json:"participants,omitempty" jsonschema:"participating character identifiers"`
	Location         string                 `json:"location,omitempty" jsonschema:"optional location"`
	Description      string                 `json:"description" jsonschema:"what happens"`
	Dependencies     []string               `json:"dependencies,omitempty" jsonschema:"identifiers of events this event depends on"`
	Impacts          []ImpactEntry          `json:"impacts,omitempty" jsonschema:"impacts on other entities"`
	KnowledgeEffects []KnowledgeEffectEntry `json:"knowledge_effects,omitempty" jsonschema:"knowledge gained by characters"`
}

func (input EventCreateInput) toInput() (event.Input, error) {
	timestamp, err := parseTimestamp("timestamp", input.Timestamp)
	if err != nil {
		return event.Input{}, err
	}
	effects, err := effectsFromEntries(input.KnowledgeEffects)
	if err != nil {
		return event.Input{}, err
	}
	return event.Input{
		ID:               input.ID,
		Timestamp:        timestamp,
		Type:             event.Type(input.Type),
		Participants:     input.Participants,
		Location:         input.Location,
		Description:      input.Description,
		Dependencies:     input.Dependencies,
		Impacts:          impactsFromEntries(input.Impacts),
		KnowledgeEffects: effects,
	}, nil
}

// EventCreateTool defines the MCP tool schema for creating an event.
func EventCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_create",
		Description: "Validates and normalizes a new narrative event. The result is always a draft and is not persisted.",
	}
}

// EventCreateHandler executes an event create request.
func EventCreateHandler(now Clock, idGenerator IDGenerator) mcp.ToolHandlerFor[EventCreateInput, EventEntry] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input EventCreateInput) (*mcp.CallToolResult, EventEntry, error) {
		eventInput, err := input.toInput()
		if err != nil {
			return nil, EventEntry{}, toolError("event create", err)
		}
		created, err := event.Create(eventInput, now, idGenerator)
		if err != nil {
			return nil, EventEntry{}, toolError("event create", err)
		}
		return nil, eventEntryFrom(created), nil
	}
}

// EventTransitionInput represents the MCP tool input for a canon status change.
type EventTransitionInput struct {
	Event      EventEntry `json:"event" jsonschema:"event to transition"`
	NextStatus string     `json:"next_status" jsonschema:"target canon status (draft, proposed, canon)"`
}

// EventTransitionTool defines the MCP tool schema for a canon status change.
func EventTransitionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_transition",
		Description: "Moves an event along draft -> proposed -> canon. Drafts may go straight to canon; proposed never returns to draft and canon is terminal.",
	}
}

// EventTransitionHandler executes an event transition request.
func EventTransitionHandler() mcp.ToolHandlerFor[EventTransitionInput, EventEntry] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input EventTransitionInput) (*mcp.CallToolResult, EventEntry, error) {
		evt, err := eventFromEntry(input.Event)
		if err != nil {
			return nil, EventEntry{}, toolError("event transition", err)
		}
		next, err := event.TransitionCanonStatus(evt, event.CanonStatus(input.NextStatus))
		if err != nil {
			return nil, EventEntry{}, toolError("event transition", err)
		}
		return nil, eventEntryFrom(next), nil
	}
}

// EventUpdateInput represents the MCP tool input for patching an event.
type EventUpdateInput struct {
	Event            EventEntry              `json:"event" jsonschema:"event to update"`
	Timestamp        string                  `json:"timestamp,omitempty" jsonschema:"new RFC3339 timestamp"`
	Type             string                  `json:"type,omitempty" jsonschema:"new event type"`
	Participants     *[]string               `json:"participants,omitempty" jsonschema:"replacement participant list"`
	Location         *string                 `json:"location,omitempty" jsonschema:"new location"`
	Description      *string                 `json:"description,omitempty" jsonschema:"new description"`
	Dependencies     *[]string               `json:"dependencies,omitempty" jsonschema:"replacement dependency list"`
	Impacts          *[]ImpactEntry          `json:"impacts,omitempty" jsonschema:"replacement impact list"`
	KnowledgeEffects *[]KnowledgeEffectEntry `json:"knowledge_effects,omitempty" jsonschema:"replacement knowledge effect list"`
}

func (input EventUpdateInput) toPatch() (event.Patch, error) {
	var patch event.Patch
	timestamp, err := parseTimestamp("timestamp", input.Timestamp)
	if err != nil {
		return event.Patch{}, err
	}
	patch.Timestamp = timestamp
	if input.Type != "" {
		eventType := event.Type(input.Type)
		patch.Type = &eventType
	}
	patch.Participants = input.Participants
	patch.Location = input.Location
	patch.Description = input.Description
	patch.Dependencies = input.Dependencies
	if input.Impacts != nil {
		impacts := impactsFromEntries(*input.Impacts)
		if impacts == nil {
			impacts = []event.Impact{}
		}
		patch.Impacts = &impacts
	}
	if input.KnowledgeEffects != nil {
		effects, err := effectsFromEntries(*input.KnowledgeEffects)
		if err != nil {
			return event.Patch{}, err
		}
		if effects == nil {
			effects = []event.KnowledgeEffect{}
		}
		patch.KnowledgeEffects = &effects
	}
	return patch, nil
}

// EventUpdateTool defines the MCP tool schema for patching an event.
func EventUpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_update",
		Description: "Applies a partial update to a draft or proposed event. Canon events reject every update.",
	}
}

// EventUpdateHandler executes an event update request.
func EventUpdateHandler() mcp.ToolHandlerFor[EventUpdateInput, EventEntry] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input EventUpdateInput) (*mcp.CallToolResult, EventEntry, error) {
		evt, err := eventFromEntry(input.Event)
		if err != nil {
			return nil, EventEntry{}, toolError("event update", err)
		}
		patch, err := input.toPatch()
		if err != nil {
			return nil, EventEntry{}, toolError("event update", err)
		}
		updated, err := event.Update(evt, patch)
		if err != nil {
			return nil, EventEntry{}, toolError("event update", err)
		}
		return nil, eventEntryFrom(updated), nil
	}
}

// StoryEventProposeTool defines the MCP tool schema for proposing a stored event.
func StoryEventProposeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_event_propose",
		Description: "Creates an event and stores it as proposed, ready for the canon gate.",
	}
}

// StoryEventProposeHandler executes a stored event proposal.
func StoryEventProposeHandler(service StoryService, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[EventCreateInput, EventEntry] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventCreateInput) (*mcp.CallToolResult, EventEntry, error) {
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		eventInput, err := input.toInput()
		if err != nil {
			return nil, EventEntry{}, toolError("event propose", err)
		}
		proposed, err := service.ProposeEvent(runCtx, eventInput)
		if err != nil {
			logToolFailure("story_event_propose", err)
			return nil, EventEntry{}, toolError("event propose", err)
		}
		NotifyResourceUpdates(ctx, notify, EventsResourceURI)
		return nil, eventEntryFrom(proposed), nil
	}
}

// EventPromoteInput represents the MCP tool input for promoting a stored event.
type EventPromoteInput struct {
	EventID    string `json:"event_id" jsonschema:"stored event identifier"`
	NextStatus string `json:"next_status,omitempty" jsonschema:"target canon status (defaults to canon)"`
}

// EventPromoteResult represents the MCP tool output for a promotion attempt.
type EventPromoteResult struct {
	Promoted  bool        `json:"promoted" jsonschema:"whether the event was stored with the new status"`
	Event     *EventEntry `json:"event,omitempty" jsonschema:"the promoted event"`
	Report    GateResult  `json:"report" jsonschema:"canon gate report for the candidate set"`
	Rejection string      `json:"rejection,omitempty" jsonschema:"why the gate rejected the promotion"`
}

// StoryEventPromoteTool defines the MCP tool schema for promoting a stored event.
func StoryEventPromoteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "story_event_promote",
		Description: "Runs the canon gate over stored canon and proposed events plus the candidate, and stores the promotion when it passes.",
	}
}

// StoryEventPromoteHandler executes a stored event promotion.
func StoryEventPromoteHandler(service StoryService, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[EventPromoteInput, EventPromoteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventPromoteInput) (*mcp.CallToolResult, EventPromoteResult, error) {
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		next := event.CanonStatus(input.NextStatus)
		if next == "" {
			next = event.StatusCanon
		}
		promoted, report, err := service.PromoteEvent(runCtx, input.EventID, next)
		if err != nil {
			if errors.Is(err, canon.ErrGateRejected) {
				return nil, EventPromoteResult{Report: gateResultFrom(report), Rejection: err.Error()}, nil
			}
			logToolFailure("story_event_promote", err)
			return nil, EventPromoteResult{}, toolError("event promote", err)
		}
		entry := eventEntryFrom(promoted)
		NotifyResourceUpdates(ctx, notify, EventsResourceURI, CanonResourceURI)
		return nil, EventPromoteResult{Promoted: true, Event: &entry, Report: gateResultFrom(report)}, nil
	}
}
