package domain

import (
	"context"
	"errors"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/cognition"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/marker"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/packet"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// BeatMarkersAuthorInput represents the MCP tool input for marker authoring.
type BeatMarkersAuthorInput struct {
	Markers            []MarkerSpecEntry `json:"markers" jsonschema:"marker specs to author"`
	Timing             *TimingEntry      `json:"timing,omitempty" jsonschema:"optional scene timing"`
	EnforceWithinScene bool              `json:"enforce_within_scene,omitempty" jsonschema:"keep markers inside timing"`
	MinGapMs           *int64            `json:"min_gap_ms,omitempty" jsonschema:"gap between markers on one channel (defaults to 200)"`
}

// BeatMarkersAuthorResult represents the MCP tool output for marker authoring.
type BeatMarkersAuthorResult struct {
	Markers   []MarkerEntry   `json:"markers,omitempty" jsonschema:"authored markers in performance order"`
	Conflicts []ConflictEntry `json:"conflicts,omitempty" jsonschema:"adjustments made while resolving overlaps"`
}

// BeatMarkersAuthorTool defines the MCP tool schema for marker authoring.
func BeatMarkersAuthorTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "beat_markers_author",
		Description: "Normalizes beat markers and resolves overlaps per channel by priority, logging every trim, shift and drop.",
	}
}

// BeatMarkersAuthorHandler executes a marker authoring request.
func BeatMarkersAuthorHandler(defaultMinGapMs int64) mcp.ToolHandlerFor[BeatMarkersAuthorInput, BeatMarkersAuthorResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input BeatMarkersAuthorInput) (*mcp.CallToolResult, BeatMarkersAuthorResult, error) {
		opts := marker.Options{EnforceWithinScene: input.EnforceWithinScene, MinGapMs: input.MinGapMs}
		if opts.MinGapMs == nil {
			opts.MinGapMs = &defaultMinGapMs
		}
		if input.Timing != nil {
			opts.Timing = &marker.Window{StartMs: input.Timing.StartMs, EndMs: input.Timing.EndMs}
		}
		result := marker.Author(markerSpecsFromEntries(input.Markers), opts)
		return nil, BeatMarkersAuthorResult{
			Markers:   markerEntriesFrom(result.Ordered),
			Conflicts: conflictEntriesFrom(result.Conflicts),
		}, nil
	}
}

// BeatMarkersSuggestInput represents the MCP tool input for marker suggestions.
type BeatMarkersSuggestInput struct {
	Script     string `json:"script" jsonschema:"narration script"`
	CadenceWpm int    `json:"cadence_wpm,omitempty" jsonschema:"reading cadence in words per minute (defaults to 150)"`
	StartMs    int64  `json:"start_ms,omitempty" jsonschema:"offset of the first word"`
}

// BeatMarkersSuggestResult represents the MCP tool output for marker suggestions.
type BeatMarkersSuggestResult struct {
	Markers []MarkerSpecEntry `json:"markers,omitempty" jsonschema:"suggested marker specs"`
}

// BeatMarkersSuggestTool defines the MCP tool schema for marker suggestions.
func BeatMarkersSuggestTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "beat_markers_suggest",
		Description: "Suggests pause, breath and emphasis markers from script punctuation at a given reading cadence.",
	}
}

// BeatMarkersSuggestHandler executes a marker suggestion request.
func BeatMarkersSuggestHandler() mcp.ToolHandlerFor[BeatMarkersSuggestInput, BeatMarkersSuggestResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input BeatMarkersSuggestInput) (*mcp.CallToolResult, BeatMarkersSuggestResult, error) {
		var result BeatMarkersSuggestResult
		for _, spec := range marker.Suggest(input.Script, input.CadenceWpm, input.StartMs) {
			result.Markers = append(result.Markers, MarkerSpecEntry{
				ID:         spec.ID,
				Type:       string(spec.Type),
				OffsetMs:   spec.OffsetMs,
				DurationMs: spec.DurationMs,
				Channel:    string(spec.Channel),
				Priority:   spec.Priority,
				Intensity:  spec.Intensity,
				Note:       spec.Note,
			})
		}
		return nil, result, nil
	}
}

// VoiceIssueEntry ties a voice profile problem to a track.
type VoiceIssueEntry struct {
	TrackID   string `json:"track_id" jsonschema:"track identifier"`
	SpeakerID string `json:"speaker_id" jsonschema:"speaker identifier"`
	Kind      string `json:"kind" jsonschema:"issue kind"`
	Message   string `json:"message" jsonschema:"human readable message"`
}

func voiceIssueEntries(issues []voice.Issue) []VoiceIssueEntry {
	var entries []VoiceIssueEntry
	for _, issue := range issues {
		entries = append(entries, VoiceIssueEntry{TrackID: issue.TrackID, SpeakerID: issue.SpeakerID, Kind: issue.Kind, Message: issue.Message})
	}
	return entries
}

// VoiceProfilesValidateInput represents the MCP tool input for profile validation.
type VoiceProfilesValidateInput struct {
	Profiles []ProfileEntry `json:"profiles" jsonschema:"voice profiles to validate"`
	Scene    *SceneEntry    `json:"scene,omitempty" jsonschema:"optional scene whose tracks must resolve to the profiles"`
}

// VoiceProfilesValidateResult represents the MCP tool output for profile validation.
type VoiceProfilesValidateResult struct {
	Passed      bool              `json:"passed" jsonschema:"true when no issue was found"`
	Issues      []string          `json:"issues,omitempty" jsonschema:"profile shape issues"`
	SceneIssues []VoiceIssueEntry `json:"scene_issues,omitempty" jsonschema:"track to profile mismatches"`
}

// VoiceProfilesValidateTool defines the MCP tool schema for profile validation.
func VoiceProfilesValidateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "voice_profiles_validate",
		Description: "Validates voice profile shape and, with a scene, that every track resolves to a profile with a matching speaker and role.",
	}
}

// VoiceProfilesValidateHandler executes a profile validation request.
func VoiceProfilesValidateHandler() mcp.ToolHandlerFor[VoiceProfilesValidateInput, VoiceProfilesValidateResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input VoiceProfilesValidateInput) (*mcp.CallToolResult, VoiceProfilesValidateResult, error) {
		profiles := profilesFromEntries(input.Profiles)
		result := VoiceProfilesValidateResult{Issues: voice.ValidateProfiles(profiles)}
		if input.Scene != nil {
			s, err := sceneFromEntry(*input.Scene)
			if err != nil {
				return nil, VoiceProfilesValidateResult{}, toolError("voice profiles validate", err)
			}
			result.SceneIssues = voiceIssueEntries(voice.ValidateForScene(s, profiles))
		}
		if len(result.Issues) == 0 {
			result.Issues = nil
		}
		result.Passed = len(result.Issues) == 0 && len(result.SceneIssues) == 0
		return nil, result, nil
	}
}

// AudioSceneInput represents a tool input carrying a scene and its profiles.
type AudioSceneInput struct {
	Scene    SceneEntry     `json:"scene" jsonschema:"audio scene"`
	Profiles []ProfileEntry `json:"profiles" jsonschema:"voice profiles referenced by the scene"`
	MinGapMs *int64         `json:"min_gap_ms,omitempty" jsonschema:"gap between markers on one channel (defaults to 200)"`
}

func (input AudioSceneInput) options(defaultMinGapMs int64) packet.Options {
	opts := packet.Options{MinGapMs: input.MinGapMs}
	if opts.MinGapMs == nil {
		opts.MinGapMs = &defaultMinGapMs
	}
	return opts
}

// CognitionEntry represents a listener cognition audit.
type CognitionEntry struct {
	Score           float64  `json:"score" jsonschema:"score between 0 and 1"`
	Passed          bool     `json:"passed" jsonschema:"true when no issue was found"`
	Issues          []string `json:"issues,omitempty" jsonschema:"issues found"`
	Recommendations []string `json:"recommendations,omitempty" jsonschema:"recommendations paired with issues"`
}

func cognitionEntryFrom(report cognition.Report) CognitionEntry {
	entry := CognitionEntry{Score: report.Score, Passed: report.Passed}
	if len(report.Issues) > 0 {
		entry.Issues = report.Issues
		entry.Recommendations = report.Recommendations
	}
	return entry
}

// SceneReportResult represents the full audio scene validation report.
type SceneReportResult struct {
	Passed              bool              `json:"passed" jsonschema:"true when the scene can be packaged"`
	Issues              []string          `json:"issues,omitempty" jsonschema:"scene and profile shape issues"`
	VoiceProfileIssues  []VoiceIssueEntry `json:"voice_profile_issues,omitempty" jsonschema:"track to profile mismatches"`
	Cognition           CognitionEntry    `json:"cognition" jsonschema:"listener cognition audit"`
	BeatMarkerConflicts []ConflictEntry   `json:"beat_marker_conflicts,omitempty" jsonschema:"adjustments made while authoring markers"`
	AuthoredMarkers     []MarkerEntry     `json:"authored_markers,omitempty" jsonschema:"markers after authoring"`
}

func sceneReportResultFrom(report packet.SceneReport) SceneReportResult {
	result := SceneReportResult{
		Passed:              report.Passed,
		VoiceProfileIssues:  voiceIssueEntries(report.VoiceProfileIssues),
		Cognition:           cognitionEntryFrom(report.CognitionReport),
		BeatMarkerConflicts: conflictEntriesFrom(report.BeatMarkerConflicts),
		AuthoredMarkers:     markerEntriesFrom(report.AuthoredMarkers),
	}
	if len(report.Issues) > 0 {
		result.Issues = report.Issues
	}
	return result
}

// AudioSceneValidateTool defines the MCP tool schema for scene validation.
func AudioSceneValidateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "audio_scene_validate",
		Description: "Runs scene shape, voice profile, beat marker and listener cognition checks over an audio scene.",
	}
}

// AudioSceneValidateHandler executes a scene validation request.
func AudioSceneValidateHandler(defaultMinGapMs int64) mcp.ToolHandlerFor[AudioSceneInput, SceneReportResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input AudioSceneInput) (*mcp.CallToolResult, SceneReportResult, error) {
		s, err := sceneFromEntry(input.Scene)
		if err != nil {
			return nil, SceneReportResult{}, toolError("audio scene validate", err)
		}
		report := packet.ValidateAudioScene(s, profilesFromEntries(input.Profiles), input.options(defaultMinGapMs))
		return nil, sceneReportResultFrom(report), nil
	}
}

// PacketTrackEntry is one recording assignment.
type PacketTrackEntry struct {
	TrackID        string       `json:"track_id" jsonschema:"track identifier"`
	SpeakerID      string       `json:"speaker_id" jsonschema:"speaker identifier"`
	SpeakerLabel   string       `json:"speaker_label" jsonschema:"label shown to the voice actor"`
	Type           string       `json:"type" jsonschema:"track type"`
	VoiceProfileID string       `json:"voice_profile_id" jsonschema:"voice profile identifier"`
	Script         string       `json:"script" jsonschema:"script text"`
	Timing         *TimingEntry `json:"timing,omitempty" jsonschema:"timing inside the scene"`
	Attribution    string       `json:"attribution,omitempty" jsonschema:"dialogue attribution"`
	Notes          string       `json:"notes,omitempty" jsonschema:"direction notes"`
	Tone           string       `json:"tone" jsonschema:"vocal tone"`
	Pace           string       `json:"pace" jsonschema:"delivery pace"`
	CadenceWpm     int          `json:"cadence_wpm" jsonschema:"cadence in words per minute"`
}

// PacketResult represents a recording packet.
type PacketResult struct {
	PacketID     string             `json:"packet_id" jsonschema:"content-derived packet identifier"`
	SceneID      string             `json:"scene_id" jsonschema:"scene identifier"`
	Fingerprint  string             `json:"fingerprint" jsonschema:"sha256 of the canonical scene and profiles"`
	GeneratedAt  string             `json:"generated_at" jsonschema:"RFC3339 generation time"`
	Tracks       []PacketTrackEntry `json:"tracks,omitempty" jsonschema:"recording assignments"`
	SpeakerNotes []string           `json:"speaker_notes,omitempty" jsonschema:"notes per voice profile"`
	BeatMarkers  []MarkerEntry      `json:"beat_markers,omitempty" jsonschema:"authored beat markers"`
}

func packetResultFrom(p packet.Packet) PacketResult {
	result := PacketResult{
		PacketID:    p.PacketID,
		SceneID:     p.SceneID,
		Fingerprint: p.Fingerprint,
		GeneratedAt: formatTimestamp(p.GeneratedAt),
		BeatMarkers: markerEntriesFrom(p.Context.BeatMarkers),
	}
	if len(p.Context.SpeakerNotes) > 0 {
		result.SpeakerNotes = p.Context.SpeakerNotes
	}
	for _, track := range p.Tracks {
		entry := PacketTrackEntry{
			TrackID:        track.TrackID,
			SpeakerID:      track.SpeakerID,
			SpeakerLabel:   track.SpeakerLabel,
			Type:           string(track.Type),
			VoiceProfileID: track.VoiceProfileID,
			Script:         track.Script,
			Attribution:    track.Attribution,
			Notes:          track.Notes,
			Tone:           track.Tone,
			Pace:           track.Pace,
			CadenceWpm:     track.CadenceWpm,
		}
		if track.Timing != nil {
			entry.Timing = &TimingEntry{StartMs: track.Timing.StartMs, EndMs: track.Timing.EndMs}
		}
		result.Tracks = append(result.Tracks, entry)
	}
	return result
}

// PacketGenerateResult represents the outcome of packet generation. Report is
// set when validation blocked the packet.
type PacketGenerateResult struct {
	Generated bool               `json:"generated" jsonschema:"whether a packet was produced"`
	Packet    *PacketResult      `json:"packet,omitempty" jsonschema:"the recording packet"`
	Report    *SceneReportResult `json:"report,omitempty" jsonschema:"validation report when the scene failed"`
}

func packetGenerateResult(p packet.Packet, err error) (PacketGenerateResult, error) {
	if err != nil {
		var validationErr *packet.ValidationError
		if errors.As(err, &validationErr) {
			report := sceneReportResultFrom(validationErr.Report)
			return PacketGenerateResult{Report: &report}, nil
		}
		return PacketGenerateResult{}, err
	}
	result := packetResultFrom(p)
	return PacketGenerateResult{Generated: true, Packet: &result}, nil
}

// RecordingPacketGenerateTool defines the MCP tool schema for packet generation.
func RecordingPacketGenerateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recording_packet_generate",
		Description: "Validates an audio scene and assembles a deterministic recording packet for voice actors.",
	}
}

// RecordingPacketGenerateHandler executes a packet generation request.
func RecordingPacketGenerateHandler(now Clock, defaultMinGapMs int64) mcp.ToolHandlerFor[AudioSceneInput, PacketGenerateResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input AudioSceneInput) (*mcp.CallToolResult, PacketGenerateResult, error) {
		s, err := sceneFromEntry(input.Scene)
		if err != nil {
			return nil, PacketGenerateResult{}, toolError("recording packet generate", err)
		}
		opts := input.options(defaultMinGapMs)
		opts.Now = now
		result, err := packetGenerateResult(packet.Generate(s, profilesFromEntries(input.Profiles), opts))
		if err != nil {
			return nil, PacketGenerateResult{}, toolError("recording packet generate", err)
		}
		return nil, result, nil
	}
}

// VoiceProfilePutTool defines the MCP tool schema for storing a voice profile.
func VoiceProfilePutTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "voice_profile_put",
		Description: "Validates and stores a voice profile. Stored profiles are never overwritten.",
	}
}

// VoiceProfilePutHandler executes a profile store request.
func VoiceProfilePutHandler(service StoryService) mcp.ToolHandlerFor[ProfileEntry, ProfileEntry] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ProfileEntry) (*mcp.CallToolResult, ProfileEntry, error) {
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		profile := profileFromEntry(input)
		if err := service.PutProfile(runCtx, profile); err != nil {
			logToolFailure("voice_profile_put", err)
			return nil, ProfileEntry{}, toolError("voice profile put", err)
		}
		return nil, profileEntryFrom(profile), nil
	}
}

// AudioScenePutResult represents the MCP tool output for storing a scene.
type AudioScenePutResult struct {
	SceneID string `json:"scene_id" jsonschema:"stored scene identifier"`
}

// AudioScenePutTool defines the MCP tool schema for storing a scene.
func AudioScenePutTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "audio_scene_put",
		Description: "Checks scene shape and stores the scene for packaging.",
	}
}

// AudioScenePutHandler executes a scene store request.
func AudioScenePutHandler(service StoryService) mcp.ToolHandlerFor[SceneEntry, AudioScenePutResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SceneEntry) (*mcp.CallToolResult, AudioScenePutResult, error) {
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		s, err := sceneFromEntry(input)
		if err != nil {
			return nil, AudioScenePutResult{}, toolError("audio scene put", err)
		}
		if err := service.PutScene(runCtx, s); err != nil {
			logToolFailure("audio_scene_put", err)
			return nil, AudioScenePutResult{}, toolError("audio scene put", err)
		}
		return nil, AudioScenePutResult{SceneID: s.ID}, nil
	}
}

// ScenePackageInput represents the MCP tool input for packaging a stored scene.
type ScenePackageInput struct {
	SceneID string `json:"scene_id" jsonschema:"stored scene identifier"`
}

// ScenePackageTool defines the MCP tool schema for packaging a stored scene.
func ScenePackageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "scene_package",
		Description: "Packages a stored scene whose events are all canon. Packets are stored once per content fingerprint.",
	}
}

// ScenePackageHandler executes a stored scene packaging request.
func ScenePackageHandler(service StoryService) mcp.ToolHandlerFor[ScenePackageInput, PacketGenerateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ScenePackageInput) (*mcp.CallToolResult, PacketGenerateResult, error) {
		runCtx, cancel := withToolTimeout(ctx)
		defer cancel()

		result, err := packetGenerateResult(service.PackageScene(runCtx, input.SceneID))
		if err != nil {
			logToolFailure("scene_package", err)
			return nil, PacketGenerateResult{}, toolError("scene package", err)
		}
		return nil, result, nil
	}
}
