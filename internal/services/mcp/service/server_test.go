package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/mcp/domain"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/app"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/storage/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testNow = time.Date(2026, time.May, 2, 18, 0, 0, 0, time.UTC)

func newTestStoryService(t *testing.T) *app.Service {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "story.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	seq := 0
	svc, err := app.NewService(store,
		app.WithClock(func() time.Time { return testNow }),
		app.WithIDGenerator(func() (string, error) {
			seq++
			return fmt.Sprintf("stored-%d", seq), nil
		}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func connectTestClient(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "story-test", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	n := 0
	server, err := New(newTestStoryService(t), Config{
		Now: func() time.Time { return testNow },
		NewID: func() (string, error) {
			n++
			return fmt.Sprintf("draft-%d", n), nil
		},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return server
}

func decodeStructured(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %+v", result.Content)
	}
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
}

func TestNewRequiresService(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Transport != TransportStdio {
		t.Fatalf("transport = %q, want %q", cfg.Transport, TransportStdio)
	}
	if cfg.HTTPAddr != defaultHTTPAddr {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, defaultHTTPAddr)
	}
	if cfg.MinGapMs != defaultMinGapMs {
		t.Fatalf("min gap = %d, want %d", cfg.MinGapMs, defaultMinGapMs)
	}
	if cfg.Now == nil || cfg.NewID == nil {
		t.Fatal("expected clock and id generator defaults")
	}
}

func TestServerListsEveryTool(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	got := make(map[string]bool, len(result.Tools))
	for _, tool := range result.Tools {
		got[tool.Name] = true
	}
	want := []string{
		"event_create", "event_transition", "event_update",
		"story_event_propose", "story_event_promote",
		"dependency_graph_validate", "continuity_check", "knowledge_derive",
		"promise_validate", "promise_transition", "story_promise_put", "story_promise_transition",
		"canon_gate_validate", "story_canon_report",
		"beat_markers_author", "beat_markers_suggest", "voice_profiles_validate",
		"audio_scene_validate", "recording_packet_generate",
		"voice_profile_put", "audio_scene_put", "scene_package",
	}
	for _, name := range want {
		if !got[name] {
			t.Fatalf("tool %q not registered", name)
		}
	}
	if len(result.Tools) != len(want) {
		t.Fatalf("tool count = %d, want %d", len(result.Tools), len(want))
	}
}

func TestEventCreateOverClient(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "event_create",
		Arguments: map[string]any{
			"type":         "reveal",
			"participants": []string{"mara"},
			"description":  "Mara finds the beacon",
		},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	var entry domain.EventEntry
	decodeStructured(t, result, &entry)
	if entry.ID != "draft-1" {
		t.Fatalf("id = %q, want %q", entry.ID, "draft-1")
	}
	if entry.CanonStatus != "draft" {
		t.Fatalf("canon status = %q, want draft", entry.CanonStatus)
	}
	if entry.Timestamp != testNow.Format(time.RFC3339Nano) {
		t.Fatalf("timestamp = %q, want %q", entry.Timestamp, testNow.Format(time.RFC3339Nano))
	}
}

func TestEventCreateRejectsInvalidInput(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "event_create",
		Arguments: map[string]any{
			"type":        "banquet",
			"description": "an unknown kind of event",
		},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for unknown event type")
	}
}

func TestProposeThenPromoteOverClient(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))
	ctx := context.Background()

	proposed, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "story_event_propose",
		Arguments: map[string]any{
			"timestamp":    "2026-05-01T10:00:00Z",
			"type":         "scene",
			"participants": []string{"mara"},
			"description":  "Mara boards the freighter",
		},
	})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	var entry domain.EventEntry
	decodeStructured(t, proposed, &entry)
	if entry.CanonStatus != "proposed" {
		t.Fatalf("canon status = %q, want proposed", entry.CanonStatus)
	}

	promoted, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "story_event_promote",
		Arguments: map[string]any{"event_id": entry.ID},
	})
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	var promoteResult domain.EventPromoteResult
	decodeStructured(t, promoted, &promoteResult)
	if !promoteResult.Promoted {
		t.Fatalf("expected promotion, rejection = %q", promoteResult.Rejection)
	}
	if promoteResult.Event == nil || promoteResult.Event.CanonStatus != "canon" {
		t.Fatalf("promoted event = %+v, want canon", promoteResult.Event)
	}

	read, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: domain.EventsResourceURI})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(read.Contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(read.Contents))
	}
	var payload domain.EventListPayload
	if err := json.Unmarshal([]byte(read.Contents[0].Text), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Events) != 1 || payload.Events[0].ID != entry.ID {
		t.Fatalf("events = %+v, want one event %q", payload.Events, entry.ID)
	}
}

func TestPromoteUnknownEventIsToolError(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "story_event_promote",
		Arguments: map[string]any{"event_id": "missing"},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for unknown event")
	}
	text := toolErrorText(result)
	if !strings.Contains(text, "NOT_FOUND grpc=NotFound") {
		t.Fatalf("error text = %q, want NOT_FOUND", text)
	}
}

func toolErrorText(result *mcp.CallToolResult) string {
	text := ""
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}

func TestStoredPromiseChangesOnlyThroughTransition(t *testing.T) {
	session := connectTestClient(t, newTestServer(t))
	ctx := context.Background()
	pending := map[string]any{
		"id": "p-1", "type": "mystery", "established_in": "evt-1",
		"description": "Who cut the relay?", "status": "pending",
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "story_promise_put", Arguments: pending})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if result.IsError {
		t.Fatalf("put returned error: %s", toolErrorText(result))
	}

	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "story_promise_transition",
		Arguments: map[string]any{"promise_id": "p-1", "next_status": "transformed"},
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	var entry domain.PromiseEntry
	decodeStructured(t, result, &entry)
	if entry.Status != "transformed" {
		t.Fatalf("status = %q, want transformed", entry.Status)
	}

	result, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "story_promise_put", Arguments: pending})
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when overwriting a stored promise")
	}
	if text := toolErrorText(result); !strings.Contains(text, "ALREADY_EXISTS grpc=AlreadyExists promise_id=p-1") {
		t.Fatalf("error text = %q, want ALREADY_EXISTS detail", text)
	}
}

func TestAddMCPToolRejectsUnknownHandler(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	err := addMCPTool(server, &mcp.Tool{Name: "odd"}, func() {})
	if err == nil {
		t.Fatal("expected error for unsupported handler type")
	}
	if !strings.Contains(err.Error(), `"odd"`) {
		t.Fatalf("error = %v, want tool name", err)
	}
}

func TestRegisterToolsRejectsNilTool(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	err := registerTools(mcpServerRegistrationAdapter{server: server}, []toolRegistration{{tool: nil, handler: domain.EventTransitionHandler()}})
	if err == nil {
		t.Fatal("expected error for nil tool")
	}
}

func TestResourceSubscribeRequiresURI(t *testing.T) {
	if err := resourceSubscribeHandler(context.Background(), &mcp.SubscribeRequest{Params: &mcp.SubscribeParams{URI: " "}}); err == nil {
		t.Fatal("expected error for blank uri")
	}
	if err := resourceSubscribeHandler(context.Background(), &mcp.SubscribeRequest{Params: &mcp.SubscribeParams{URI: domain.CanonResourceURI}}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := resourceUnsubscribeHandler(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil unsubscribe request")
	}
}

func TestServeWithTransportTreatsCancelAsCleanExit(t *testing.T) {
	server := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, _ := mcp.NewInMemoryTransports()

	done := make(chan error, 1)
	go func() { done <- server.serveWithTransport(ctx, serverTransport) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestRunRejectsUnknownTransport(t *testing.T) {
	err := Run(context.Background(), newTestStoryService(t), Config{Transport: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
}
