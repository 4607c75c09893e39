// Package voice validates voice profiles and their use by scene tracks.
package voice

import (
	"fmt"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/core/schema"
)

// Cadence limits in words per minute.
const (
	MinCadenceWpm = 80
	MaxCadenceWpm = 220
)

// Profile declares how one speaker sounds. Profiles are never edited in
// place; a revision is a new profile whose PreviousID names the one it
// replaces.
type Profile struct {
	ID          string          `json:"id" yaml:"id" validate:"required"`
	SpeakerID   string          `json:"speakerId" yaml:"speakerId" validate:"required"`
	DisplayName string          `json:"displayName" yaml:"displayName" validate:"required"`
	Role        scene.TrackType `json:"role" yaml:"role" validate:"oneof=narrator character"`
	Tone        string          `json:"tone" yaml:"tone" validate:"required"`
	Pace        string          `json:"pace" yaml:"pace" validate:"required"`
	CadenceWpm  int             `json:"cadenceWpm" yaml:"cadenceWpm" validate:"min=80,max=220"`
	StyleTags   []string        `json:"styleTags" yaml:"styleTags" validate:"dive,required"`
	Notes       string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	Version     int             `json:"version" yaml:"version" validate:"gte=0"`
	PreviousID  string          `json:"previousId,omitempty" yaml:"previousId,omitempty"`
}

// ValidateProfiles returns shape problems and duplicate ids across profiles.
func ValidateProfiles(profiles []Profile) []string {
	issues := []string{}
	seen := make(map[string]struct{}, len(profiles))
	for i, profile := range profiles {
		for _, violation := range schema.Violations(profile) {
			issues = append(issues, fmt.Sprintf("profiles[%d].%s", i, violation))
		}
		if profile.ID == "" {
			continue
		}
		if _, ok := seen[profile.ID]; ok {
			issues = append(issues, fmt.Sprintf("profile id %s appears more than once", profile.ID))
		}
		seen[profile.ID] = struct{}{}
	}
	return issues
}

// Issue kinds reported by ValidateForScene.
const (
	IssueMissingProfile  = "missing_profile"
	IssueSpeakerMismatch = "speaker_mismatch"
	IssueRoleMismatch    = "role_mismatch"
)

// Issue ties a profile problem to the track and speaker it affects.
type Issue struct {
	TrackID   string `json:"trackId"`
	SpeakerID string `json:"speakerId"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// ValidateForScene resolves every track's voice profile and checks that its
// speaker and role match the track.
func ValidateForScene(s scene.Scene, profiles []Profile) []Issue {
	byID := make(map[string]Profile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	issues := []Issue{}
	for _, track := range s.Tracks {
		profile, ok := byID[track.VoiceProfileID]
		if !ok {
			issues = append(issues, Issue{
				TrackID:   track.ID,
				SpeakerID: track.SpeakerID,
				Kind:      IssueMissingProfile,
				Message:   fmt.Sprintf("voice profile %s not found for track %s", track.VoiceProfileID, track.ID),
			})
			continue
		}
		if profile.SpeakerID != track.SpeakerID {
			issues = append(issues, Issue{
				TrackID:   track.ID,
				SpeakerID: track.SpeakerID,
				Kind:      IssueSpeakerMismatch,
				Message:   fmt.Sprintf("voice profile %s belongs to speaker %s, not %s", profile.ID, profile.SpeakerID, track.SpeakerID),
			})
		}
		if profile.Role != track.Type {
			issues = append(issues, Issue{
				TrackID:   track.ID,
				SpeakerID: track.SpeakerID,
				Kind:      IssueRoleMismatch,
				Message:   fmt.Sprintf("voice profile %s has role %s but track %s is %s", profile.ID, profile.Role, track.ID, track.Type),
			})
		}
	}
	return issues
}
