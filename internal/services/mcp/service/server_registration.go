package service

import (
	"fmt"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationKind int

const (
	mcpRegistrationKindTools mcpRegistrationKind = iota
	mcpRegistrationKindResources
)

type mcpRegistrationModule struct {
	name     string
	kind     mcpRegistrationKind
	register func(mcpRegistrationTarget) error
}

const (
	mcpEventToolsModuleName      = "event-tools"
	mcpContinuityToolsModuleName = "continuity-tools"
	mcpPromiseToolsModuleName    = "promise-tools"
	mcpCanonToolsModuleName      = "canon-tools"
	mcpAudioToolsModuleName      = "audio-tools"
	mcpStoryResourceModuleName   = "story-resources"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResource(*mcp.Resource, mcp.ResourceHandler)
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

func (r mcpServerRegistrationAdapter) AddResource(resource *mcp.Resource, handler mcp.ResourceHandler) {
	r.server.AddResource(resource, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.EventCreateInput, domain.EventEntry](),
	newMCPToolRegistrar[domain.EventTransitionInput, domain.EventEntry](),
	newMCPToolRegistrar[domain.EventUpdateInput, domain.EventEntry](),
	newMCPToolRegistrar[domain.EventPromoteInput, domain.EventPromoteResult](),
	newMCPToolRegistrar[domain.EventSetInput, domain.DependencyGraphResult](),
	newMCPToolRegistrar[domain.EventSetInput, domain.ContinuityResult](),
	newMCPToolRegistrar[domain.KnowledgeDeriveInput, domain.KnowledgeDeriveResult](),
	newMCPToolRegistrar[domain.CanonGateInput, domain.GateResult](),
	newMCPToolRegistrar[domain.StoryCanonReportInput, domain.GateResult](),
	newMCPToolRegistrar[domain.PromiseValidateInput, domain.PromiseValidateResult](),
	newMCPToolRegistrar[domain.PromiseTransitionInput, domain.PromiseEntry](),
	newMCPToolRegistrar[domain.PromiseEntry, domain.PromiseEntry](),
	newMCPToolRegistrar[domain.StoryPromiseTransitionInput, domain.PromiseEntry](),
	newMCPToolRegistrar[domain.BeatMarkersAuthorInput, domain.BeatMarkersAuthorResult](),
	newMCPToolRegistrar[domain.BeatMarkersSuggestInput, domain.BeatMarkersSuggestResult](),
	newMCPToolRegistrar[domain.VoiceProfilesValidateInput, domain.VoiceProfilesValidateResult](),
	newMCPToolRegistrar[domain.AudioSceneInput, domain.SceneReportResult](),
	newMCPToolRegistrar[domain.AudioSceneInput, domain.PacketGenerateResult](),
	newMCPToolRegistrar[domain.ProfileEntry, domain.ProfileEntry](),
	newMCPToolRegistrar[domain.SceneEntry, domain.AudioScenePutResult](),
	newMCPToolRegistrar[domain.ScenePackageInput, domain.PacketGenerateResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

type toolRegistration struct {
	tool    *mcp.Tool
	handler any
}

func registerTools(registrar mcpRegistrationTarget, registrations []toolRegistration) error {
	for _, registration := range registrations {
		if registration.tool == nil {
			return fmt.Errorf("tool is nil")
		}
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func newMCPRegistrationModules(
	service domain.StoryService,
	cfg Config,
	notify domain.ResourceUpdateNotifier,
) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpEventToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTools(registrar, []toolRegistration{
					{tool: domain.EventCreateTool(), handler: domain.EventCreateHandler(cfg.Now, cfg.NewID)},
					{tool: domain.EventTransitionTool(), handler: domain.EventTransitionHandler()},
					{tool: domain.EventUpdateTool(), handler: domain.EventUpdateHandler()},
					{tool: domain.StoryEventProposeTool(), handler: domain.StoryEventProposeHandler(service, notify)},
					{tool: domain.StoryEventPromoteTool(), handler: domain.StoryEventPromoteHandler(service, notify)},
				})
			},
		},
		{
			name: mcpContinuityToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTools(registrar, []toolRegistration{
					{tool: domain.DependencyGraphValidateTool(), handler: domain.DependencyGraphValidateHandler()},
					{tool: domain.ContinuityCheckTool(), handler: domain.ContinuityCheckHandler()},
					{tool: domain.KnowledgeDeriveTool(), handler: domain.KnowledgeDeriveHandler()},
				})
			},
		},
		{
			name: mcpPromiseToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTools(registrar, []toolRegistration{
					{tool: domain.PromiseValidateTool(), handler: domain.PromiseValidateHandler()},
					{tool: domain.PromiseTransitionTool(), handler: domain.PromiseTransitionHandler()},
					{tool: domain.StoryPromisePutTool(), handler: domain.StoryPromisePutHandler(service, notify)},
					{tool: domain.StoryPromiseTransitionTool(), handler: domain.StoryPromiseTransitionHandler(service, notify)},
				})
			},
		},
		{
			name: mcpCanonToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTools(registrar, []toolRegistration{
					{tool: domain.CanonGateValidateTool(), handler: domain.CanonGateValidateHandler()},
					{tool: domain.StoryCanonReportTool(), handler: domain.StoryCanonReportHandler(service)},
				})
			},
		},
		{
			name: mcpAudioToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTools(registrar, []toolRegistration{
					{tool: domain.BeatMarkersAuthorTool(), handler: domain.BeatMarkersAuthorHandler(cfg.MinGapMs)},
					{tool: domain.BeatMarkersSuggestTool(), handler: domain.BeatMarkersSuggestHandler()},
					{tool: domain.VoiceProfilesValidateTool(), handler: domain.VoiceProfilesValidateHandler()},
					{tool: domain.AudioSceneValidateTool(), handler: domain.AudioSceneValidateHandler(cfg.MinGapMs)},
					{tool: domain.RecordingPacketGenerateTool(), handler: domain.RecordingPacketGenerateHandler(cfg.Now, cfg.MinGapMs)},
					{tool: domain.VoiceProfilePutTool(), handler: domain.VoiceProfilePutHandler(service)},
					{tool: domain.AudioScenePutTool(), handler: domain.AudioScenePutHandler(service)},
					{tool: domain.ScenePackageTool(), handler: domain.ScenePackageHandler(service)},
				})
			},
		},
		{
			name: mcpStoryResourceModuleName,
			kind: mcpRegistrationKindResources,
			register: func(registrar mcpRegistrationTarget) error {
				registrar.AddResource(domain.EventsResource(), domain.EventsResourceHandler(service))
				registrar.AddResource(domain.CanonResource(), domain.CanonResourceHandler(service))
				return nil
			},
		},
	}
}
