package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/marker"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
)

// ImpactEntry represents an event impact on another story entity.
type ImpactEntry struct {
	Type        string `json:"type" jsonschema:"impact type, e.g. supersedes"`
	TargetID    string `json:"target_id" jsonschema:"identifier of the affected entity"`
	Description string `json:"description,omitempty" jsonschema:"optional free-form description"`
}

// KnowledgeEffectEntry represents a character learning something from an event.
type KnowledgeEffectEntry struct {
	CharacterID string `json:"character_id" jsonschema:"character identifier"`
	LearnedAt   string `json:"learned_at,omitempty" jsonschema:"RFC3339 timestamp the character learned it (defaults to the event timestamp)"`
	Certainty   string `json:"certainty" jsonschema:"certainty (known, suspected, rumored, false)"`
	Source      string `json:"source" jsonschema:"source (witnessed, told, inferred)"`
}

// EventEntry represents a narrative event on the wire.
type EventEntry struct {
	ID               string                 `json:"id" jsonschema:"event identifier"`
	Timestamp        string                 `json:"timestamp" jsonschema:"RFC3339 timestamp in story time"`
	Type             string                 `json:"type" jsonschema:"event type (scene, reveal, conflict, resolution, transition, custom)"`
	Participants     []string               `json:"participants,omitempty" jsonschema:"participating character identifiers"`
	Location         string                 `json:"location,omitempty" jsonschema:"optional location"`
	Description      string                 `json:"description" jsonschema:"what happens"`
	Dependencies     []string               `json:"dependencies,omitempty" jsonschema:"identifiers of events this event depends on"`
	Impacts          []ImpactEntry          `json:"impacts,omitempty" jsonschema:"impacts on other entities"`
	KnowledgeEffects []KnowledgeEffectEntry `json:"knowledge_effects,omitempty" jsonschema:"knowledge gained by characters"`
	CanonStatus      string                 `json:"canon_status" jsonschema:"canon status (draft, proposed, canon)"`
}

// PromiseEntry represents a narrative promise on the wire.
type PromiseEntry struct {
	ID            string `json:"id" jsonschema:"promise identifier"`
	Type          string `json:"type" jsonschema:"promise type (plot_thread, mystery, character_arc, prophecy)"`
	EstablishedIn string `json:"established_in" jsonschema:"identifier of the event that sets the promise up"`
	Description   string `json:"description" jsonschema:"what was promised"`
	Status        string `json:"status" jsonschema:"status (pending, fulfilled, broken, transformed)"`
	FulfilledIn   string `json:"fulfilled_in,omitempty" jsonschema:"identifier of the fulfilling event, set only when fulfilled"`
}

// MarkerSpecEntry represents beat marker input before defaults are applied.
type MarkerSpecEntry struct {
	ID         string   `json:"id,omitempty" jsonschema:"optional marker identifier (derived from content when empty)"`
	Type       string   `json:"type,omitempty" jsonschema:"marker type (pause, emphasis, sfx, music, breath, tempo, transition, custom)"`
	OffsetMs   int64    `json:"offset_ms" jsonschema:"start offset in milliseconds"`
	DurationMs *int64   `json:"duration_ms,omitempty" jsonschema:"optional duration in milliseconds (defaults by type)"`
	Channel    string   `json:"channel,omitempty" jsonschema:"optional channel (delivery, music, sfx, tone)"`
	Priority   *int     `json:"priority,omitempty" jsonschema:"optional priority between -5 and 5"`
	Intensity  *float64 `json:"intensity,omitempty" jsonschema:"optional intensity between 0 and 1"`
	Note       string   `json:"note,omitempty" jsonschema:"optional performance note"`
}

// MarkerEntry represents an authored beat marker.
type MarkerEntry struct {
	ID         string  `json:"id" jsonschema:"marker identifier"`
	Type       string  `json:"type" jsonschema:"marker type"`
	OffsetMs   int64   `json:"offset_ms" jsonschema:"start offset in milliseconds"`
	DurationMs int64   `json:"duration_ms" jsonschema:"duration in milliseconds"`
	Channel    string  `json:"channel" jsonschema:"channel"`
	Priority   int     `json:"priority" jsonschema:"priority"`
	Intensity  float64 `json:"intensity" jsonschema:"intensity"`
	Note       string  `json:"note,omitempty" jsonschema:"performance note"`
}

// ConflictEntry represents one adjustment made while authoring markers.
type ConflictEntry struct {
	Kind           string `json:"kind" jsonschema:"adjustment kind"`
	MarkerID       string `json:"marker_id" jsonschema:"marker that was adjusted"`
	OtherID        string `json:"other_id,omitempty" jsonschema:"marker it yielded to"`
	Channel        string `json:"channel" jsonschema:"channel"`
	FromOffsetMs   int64  `json:"from_offset_ms" jsonschema:"offset before the adjustment"`
	ToOffsetMs     int64  `json:"to_offset_ms" jsonschema:"offset after the adjustment"`
	FromDurationMs int64  `json:"from_duration_ms" jsonschema:"duration before the adjustment"`
	ToDurationMs   int64  `json:"to_duration_ms" jsonschema:"duration after the adjustment"`
	Reason         string `json:"reason" jsonschema:"human readable reason"`
}

// TimingEntry represents a [start_ms, end_ms) range.
type TimingEntry struct {
	StartMs int64 `json:"start_ms" jsonschema:"start in milliseconds"`
	EndMs   int64 `json:"end_ms" jsonschema:"end in milliseconds"`
}

// SceneTrackEntry represents one narration track in a scene.
type SceneTrackEntry struct {
	ID             string       `json:"id" jsonschema:"track identifier"`
	SpeakerID      string       `json:"speaker_id" jsonschema:"speaker identifier"`
	SpeakerLabel   string       `json:"speaker_label,omitempty" jsonschema:"optional display label"`
	Type           string       `json:"type" jsonschema:"track type (narrator, character)"`
	VoiceProfileID string       `json:"voice_profile_id" jsonschema:"voice profile identifier"`
	Script         string       `json:"script" jsonschema:"script text"`
	Timing         *TimingEntry `json:"timing,omitempty" jsonschema:"optional timing inside the scene"`
	Attribution    string       `json:"attribution,omitempty" jsonschema:"dialogue attribution, e.g. 'said Mara'"`
	Notes          string       `json:"notes,omitempty" jsonschema:"optional direction notes"`
}

// SceneEntry represents an audio scene on the wire.
type SceneEntry struct {
	ID          string            `json:"id" jsonschema:"scene identifier"`
	Title       string            `json:"title" jsonschema:"scene title"`
	Summary     string            `json:"summary" jsonschema:"scene summary"`
	Location    string            `json:"location,omitempty" jsonschema:"optional location"`
	Timing      TimingEntry       `json:"timing" jsonschema:"scene timing"`
	Metadata    map[string]string `json:"metadata,omitempty" jsonschema:"optional metadata"`
	EventIDs    []string          `json:"event_ids,omitempty" jsonschema:"narrative events voiced by the scene"`
	BeatMarkers []MarkerSpecEntry `json:"beat_markers,omitempty" jsonschema:"beat markers performed over the scene"`
	Tracks      []SceneTrackEntry `json:"tracks" jsonschema:"narration tracks"`
}

// ProfileEntry represents a voice profile on the wire.
type ProfileEntry struct {
	ID          string   `json:"id" jsonschema:"profile identifier"`
	SpeakerID   string   `json:"speaker_id" jsonschema:"speaker identifier"`
	DisplayName string   `json:"display_name" jsonschema:"display name"`
	Role        string   `json:"role" jsonschema:"role (narrator, character)"`
	Tone        string   `json:"tone" jsonschema:"vocal tone"`
	Pace        string   `json:"pace" jsonschema:"delivery pace"`
	CadenceWpm  int      `json:"cadence_wpm" jsonschema:"cadence in words per minute (80-220)"`
	StyleTags   []string `json:"style_tags,omitempty" jsonschema:"style tags"`
	Notes       string   `json:"notes,omitempty" jsonschema:"speaker notes for the voice actor"`
	Version     int      `json:"version,omitempty" jsonschema:"profile version"`
	PreviousID  string   `json:"previous_id,omitempty" jsonschema:"profile this one revises"`
}

func parseTimestamp(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC3339 timestamp: %w", field, err)
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func impactsFromEntries(entries []ImpactEntry) []event.Impact {
	if entries == nil {
		return nil
	}
	impacts := make([]event.Impact, 0, len(entries))
	for _, entry := range entries {
		impacts = append(impacts, event.Impact{Type: entry.Type, TargetID: entry.TargetID, Description: entry.Description})
	}
	return impacts
}

func effectsFromEntries(entries []KnowledgeEffectEntry) ([]event.KnowledgeEffect, error) {
	if entries == nil {
		return nil, nil
	}
	effects := make([]event.KnowledgeEffect, 0, len(entries))
	for i, entry := range entries {
		learnedAt, err := parseTimestamp(fmt.Sprintf("knowledge_effects[%d].learned_at", i), entry.LearnedAt)
		if err != nil {
			return nil, err
		}
		effects = append(effects, event.KnowledgeEffect{
			CharacterID: entry.CharacterID,
			LearnedAt:   learnedAt,
			Certainty:   event.Certainty(entry.Certainty),
			Source:      event.Source(entry.Source),
		})
	}
	return effects, nil
}

func eventFromEntry(entry EventEntry) (event.Event, error) {
	timestamp, err := parseTimestamp("timestamp", entry.Timestamp)
	if err != nil {
		return event.Event{}, fmt.Errorf("event %s: %w", entry.ID, err)
	}
	if timestamp == nil {
		return event.Event{}, fmt.Errorf("event %s: timestamp is required", entry.ID)
	}
	effects, err := effectsFromEntries(entry.KnowledgeEffects)
	if err != nil {
		return event.Event{}, fmt.Errorf("event %s: %w", entry.ID, err)
	}
	return event.Event{
		ID:               entry.ID,
		Timestamp:        *timestamp,
		Type:             event.Type(entry.Type),
		Participants:     entry.Participants,
		Location:         entry.Location,
		Description:      entry.Description,
		Dependencies:     entry.Dependencies,
		Impacts:          impactsFromEntries(entry.Impacts),
		KnowledgeEffects: effects,
		CanonStatus:      event.CanonStatus(entry.CanonStatus),
	}, nil
}

func eventsFromEntries(entries []EventEntry) ([]event.Event, error) {
	events := make([]event.Event, 0, len(entries))
	for _, entry := range entries {
		evt, err := eventFromEntry(entry)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

func eventEntryFrom(evt event.Event) EventEntry {
	entry := EventEntry{
		ID:           evt.ID,
		Timestamp:    formatTimestamp(evt.Timestamp),
		Type:         string(evt.Type),
		Participants: evt.Participants,
		Location:     evt.Location,
		Description:  evt.Description,
		Dependencies: evt.Dependencies,
		CanonStatus:  string(evt.CanonStatus),
	}
	for _, impact := range evt.Impacts {
		entry.Impacts = append(entry.Impacts, ImpactEntry{Type: impact.Type, TargetID: impact.TargetID, Description: impact.Description})
	}
	for _, effect := range evt.KnowledgeEffects {
		entry.KnowledgeEffects = append(entry.KnowledgeEffects, KnowledgeEffectEntry{
			CharacterID: effect.CharacterID,
			LearnedAt:   formatTimestamp(evt.EffectLearnedAt(effect)),
			Certainty:   string(effect.Certainty),
			Source:      string(effect.Source),
		})
	}
	return entry
}

func promiseFromEntry(entry PromiseEntry) promise.Record {
	return promise.Record{
		ID:            entry.ID,
		Type:          promise.Type(entry.Type),
		EstablishedIn: entry.EstablishedIn,
		Description:   entry.Description,
		Status:        promise.Status(entry.Status),
		FulfilledIn:   entry.FulfilledIn,
	}
}

func promisesFromEntries(entries []PromiseEntry) []promise.Record {
	records := make([]promise.Record, 0, len(entries))
	for _, entry := range entries {
		records = append(records, promiseFromEntry(entry))
	}
	return records
}

func promiseEntryFrom(record promise.Record) PromiseEntry {
	return PromiseEntry{
		ID:            record.ID,
		Type:          string(record.Type),
		EstablishedIn: record.EstablishedIn,
		Description:   record.Description,
		Status:        string(record.Status),
		FulfilledIn:   record.FulfilledIn,
	}
}

func markerSpecFromEntry(entry MarkerSpecEntry) marker.Spec {
	return marker.Spec{
		ID:         entry.ID,
		Type:       marker.Type(entry.Type),
		OffsetMs:   entry.OffsetMs,
		DurationMs: entry.DurationMs,
		Channel:    marker.Channel(entry.Channel),
		Priority:   entry.Priority,
		Intensity:  entry.Intensity,
		Note:       entry.Note,
	}
}

func markerSpecsFromEntries(entries []MarkerSpecEntry) []marker.Spec {
	specs := make([]marker.Spec, 0, len(entries))
	for _, entry := range entries {
		specs = append(specs, markerSpecFromEntry(entry))
	}
	return specs
}

func markerEntriesFrom(markers []marker.Marker) []MarkerEntry {
	if len(markers) == 0 {
		return nil
	}
	entries := make([]MarkerEntry, 0, len(markers))
	for _, m := range markers {
		entries = append(entries, MarkerEntry{
			ID:         m.ID,
			Type:       string(m.Type),
			OffsetMs:   m.OffsetMs,
			DurationMs: m.DurationMs,
			Channel:    string(m.Channel),
			Priority:   m.Priority,
			Intensity:  m.Intensity,
			Note:       m.Note,
		})
	}
	return entries
}

func conflictEntriesFrom(conflicts []marker.Conflict) []ConflictEntry {
	if len(conflicts) == 0 {
		return nil
	}
	entries := make([]ConflictEntry, 0, len(conflicts))
	for _, c := range conflicts {
		entries = append(entries, ConflictEntry{
			Kind:           string(c.Kind),
			MarkerID:       c.MarkerID,
			OtherID:        c.OtherID,
			Channel:        string(c.Channel),
			FromOffsetMs:   c.FromOffsetMs,
			ToOffsetMs:     c.ToOffsetMs,
			FromDurationMs: c.FromDurationMs,
			ToDurationMs:   c.ToDurationMs,
			Reason:         c.Reason,
		})
	}
	return entries
}

// sceneFromEntry normalizes the scene's marker specs into markers. Marker
// overlap is left alone; validation re-authors markers itself.
func sceneFromEntry(entry SceneEntry) (scene.Scene, error) {
	s := scene.Scene{
		ID:          entry.ID,
		Title:       entry.Title,
		Summary:     entry.Summary,
		Location:    entry.Location,
		Timing:      scene.Timing{StartMs: entry.Timing.StartMs, EndMs: entry.Timing.EndMs},
		Metadata:    entry.Metadata,
		EventIDs:    entry.EventIDs,
		BeatMarkers: []marker.Marker{},
		Tracks:      make([]scene.Track, 0, len(entry.Tracks)),
	}
	for i, spec := range entry.BeatMarkers {
		m, err := marker.Normalize(markerSpecFromEntry(spec))
		if err != nil {
			return scene.Scene{}, fmt.Errorf("beat_markers[%d]: %w", i, err)
		}
		s.BeatMarkers = append(s.BeatMarkers, m)
	}
	for _, track := range entry.Tracks {
		t := scene.Track{
			ID:             track.ID,
			SpeakerID:      track.SpeakerID,
			SpeakerLabel:   track.SpeakerLabel,
			Type:           scene.TrackType(track.Type),
			VoiceProfileID: track.VoiceProfileID,
			Script:         track.Script,
			Attribution:    track.Attribution,
			Notes:          track.Notes,
		}
		if track.Timing != nil {
			t.Timing = &scene.Timing{StartMs: track.Timing.StartMs, EndMs: track.Timing.EndMs}
		}
		s.Tracks = append(s.Tracks, t)
	}
	return s, nil
}

func profileFromEntry(entry ProfileEntry) voice.Profile {
	styleTags := entry.StyleTags
	if styleTags == nil {
		styleTags = []string{}
	}
	return voice.Profile{
		ID:          entry.ID,
		SpeakerID:   entry.SpeakerID,
		DisplayName: entry.DisplayName,
		Role:        scene.TrackType(entry.Role),
		Tone:        entry.Tone,
		Pace:        entry.Pace,
		CadenceWpm:  entry.CadenceWpm,
		StyleTags:   styleTags,
		Notes:       entry.Notes,
		Version:     entry.Version,
		PreviousID:  entry.PreviousID,
	}
}

func profilesFromEntries(entries []ProfileEntry) []voice.Profile {
	profiles := make([]voice.Profile, 0, len(entries))
	for _, entry := range entries {
		profiles = append(profiles, profileFromEntry(entry))
	}
	return profiles
}

func profileEntryFrom(profile voice.Profile) ProfileEntry {
	return ProfileEntry{
		ID:          profile.ID,
		SpeakerID:   profile.SpeakerID,
		DisplayName: profile.DisplayName,
		Role:        string(profile.Role),
		Tone:        profile.Tone,
		Pace:        profile.Pace,
		CadenceWpm:  profile.CadenceWpm,
		StyleTags:   profile.StyleTags,
		Notes:       profile.Notes,
		Version:     profile.Version,
		PreviousID:  profile.PreviousID,
	}
}
