// Package scene models audio scenes: timed narration tracks plus the beat
// markers performed over them.
package scene

import (
	"fmt"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/marker"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/core/schema"
)

// TrackType is the role a track's speaker plays.
type TrackType string

const (
	TrackNarrator  TrackType = "narrator"
	TrackCharacter TrackType = "character"
)

// Timing is a [StartMs, EndMs) range on the scene clock.
type Timing struct {
	StartMs int64 `json:"startMs" yaml:"startMs" validate:"gte=0"`
	EndMs   int64 `json:"endMs" yaml:"endMs" validate:"gte=0"`
}

// Window converts the timing into authoring bounds.
func (t Timing) Window() marker.Window {
	return marker.Window{StartMs: t.StartMs, EndMs: t.EndMs}
}

// Track is one speaker's script within a scene.
type Track struct {
	ID             string    `json:"id" yaml:"id" validate:"required"`
	SpeakerID      string    `json:"speakerId" yaml:"speakerId" validate:"required"`
	SpeakerLabel   string    `json:"speakerLabel,omitempty" yaml:"speakerLabel,omitempty"`
	Type           TrackType `json:"type" yaml:"type" validate:"oneof=narrator character"`
	VoiceProfileID string    `json:"voiceProfileId" yaml:"voiceProfileId" validate:"required"`
	Script         string    `json:"script" yaml:"script" validate:"required"`
	Timing         *Timing   `json:"timing,omitempty" yaml:"timing,omitempty"`
	Attribution    string    `json:"attribution,omitempty" yaml:"attribution,omitempty"`
	Notes          string    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Scene is an audio scene ready for validation and packaging. EventIDs name
// the narrative events the scene voices.
type Scene struct {
	ID          string            `json:"id" yaml:"id" validate:"required"`
	Title       string            `json:"title" yaml:"title" validate:"required"`
	Summary     string            `json:"summary" yaml:"summary" validate:"required"`
	Location    string            `json:"location,omitempty" yaml:"location,omitempty"`
	Timing      Timing            `json:"timing" yaml:"timing"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	EventIDs    []string          `json:"eventIds,omitempty" yaml:"eventIds,omitempty" validate:"dive,required"`
	BeatMarkers []marker.Marker   `json:"beatMarkers" yaml:"beatMarkers" validate:"dive"`
	Tracks      []Track           `json:"tracks" yaml:"tracks" validate:"min=1,dive"`
}

// MarkerSpecs returns the scene's markers as authoring input.
func (s Scene) MarkerSpecs() []marker.Spec {
	specs := make([]marker.Spec, 0, len(s.BeatMarkers))
	for _, m := range s.BeatMarkers {
		specs = append(specs, marker.SpecOf(m))
	}
	return specs
}

// ValidateShape returns every shape problem in the scene. Beyond field rules
// it requires a positive timing range, markers and timed tracks inside that
// range, and unique track ids.
func ValidateShape(s Scene) []string {
	issues := schema.Violations(s)
	if issues == nil {
		issues = []string{}
	}

	if s.Timing.EndMs <= s.Timing.StartMs {
		issues = append(issues, fmt.Sprintf("timing.endMs (%d) must be after timing.startMs (%d)", s.Timing.EndMs, s.Timing.StartMs))
		return append(issues, duplicateTracks(s.Tracks)...)
	}

	for _, m := range s.BeatMarkers {
		if m.OffsetMs < s.Timing.StartMs || m.EndMs() > s.Timing.EndMs {
			issues = append(issues, fmt.Sprintf("beat marker %s [%d,%d) falls outside scene timing [%d,%d)",
				m.ID, m.OffsetMs, m.EndMs(), s.Timing.StartMs, s.Timing.EndMs))
		}
	}
	for _, track := range s.Tracks {
		if track.Timing == nil {
			continue
		}
		if track.Timing.EndMs <= track.Timing.StartMs {
			issues = append(issues, fmt.Sprintf("track %s timing.endMs must be after timing.startMs", track.ID))
			continue
		}
		if track.Timing.StartMs < s.Timing.StartMs || track.Timing.EndMs > s.Timing.EndMs {
			issues = append(issues, fmt.Sprintf("track %s [%d,%d) falls outside scene timing [%d,%d)",
				track.ID, track.Timing.StartMs, track.Timing.EndMs, s.Timing.StartMs, s.Timing.EndMs))
		}
	}
	return append(issues, duplicateTracks(s.Tracks)...)
}

func duplicateTracks(tracks []Track) []string {
	var issues []string
	seen := make(map[string]struct{}, len(tracks))
	for _, track := range tracks {
		if track.ID == "" {
			continue
		}
		if _, ok := seen[track.ID]; ok {
			issues = append(issues, fmt.Sprintf("track id %s appears more than once", track.ID))
		}
		seen[track.ID] = struct{}{}
	}
	return issues
}

// CharacterTracks counts tracks voiced by characters.
func (s Scene) CharacterTracks() int {
	n := 0
	for _, track := range s.Tracks {
		if track.Type == TrackCharacter {
			n++
		}
	}
	return n
}
