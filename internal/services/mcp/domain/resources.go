package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// EventsResourceURI addresses the stored event list.
	EventsResourceURI = "story://events"
	// CanonResourceURI addresses the canon gate report over stored events.
	CanonResourceURI = "story://canon"
)

// EventListPayload represents the MCP resource payload for stored events.
type EventListPayload struct {
	Events []EventEntry `json:"events"`
}

// EventsResource defines the MCP resource for stored events.
func EventsResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "story_events",
		Title:       "Story Events",
		Description: "Stored narrative events ordered by timestamp, then id",
		MIMEType:    "application/json",
		URI:         EventsResourceURI,
	}
}

// EventsResourceHandler returns a readable stored event list.
func EventsResourceHandler(service StoryService) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if service == nil {
			return nil, fmt.Errorf("story service is not configured")
		}
		if err := requireResourceURI(req, EventsResourceURI); err != nil {
			return nil, err
		}
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		events, err := service.ListEvents(runCtx)
		if err != nil {
			return nil, fmt.Errorf("event list failed: %w", err)
		}
		payload := EventListPayload{Events: make([]EventEntry, 0, len(events))}
		for _, evt := range events {
			payload.Events = append(payload.Events, eventEntryFrom(evt))
		}
		return jsonResource(EventsResourceURI, payload)
	}
}

// CanonResource defines the MCP resource for the stored canon report.
func CanonResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "story_canon",
		Title:       "Canon Report",
		Description: "Canon gate report over stored proposed and canon events and stored promises",
		MIMEType:    "application/json",
		URI:         CanonResourceURI,
	}
}

// CanonResourceHandler returns a readable canon gate report.
func CanonResourceHandler(service StoryService) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if service == nil {
			return nil, fmt.Errorf("story service is not configured")
		}
		if err := requireResourceURI(req, CanonResourceURI); err != nil {
			return nil, err
		}
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		report, err := service.CanonReport(runCtx)
		if err != nil {
			return nil, fmt.Errorf("canon report failed: %w", err)
		}
		return jsonResource(CanonResourceURI, gateResultFrom(report))
	}
}

func requireResourceURI(req *mcp.ReadResourceRequest, want string) error {
	if req == nil || req.Params == nil || req.Params.URI == "" {
		return nil
	}
	if req.Params.URI != want {
		return fmt.Errorf("invalid URI: expected %s, got %q", want, req.Params.URI)
	}
	return nil
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
