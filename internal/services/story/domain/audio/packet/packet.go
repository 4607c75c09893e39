package packet

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/marker"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/core/encoding"
)

const idPrefix = "pkt_"

// ErrValidationFailure matches every packet generation refused by validation.
var ErrValidationFailure = apperrors.New(apperrors.CodeValidationFailure, "scene failed validation")

// ValidationError carries the failing report of a refused packet generation.
type ValidationError struct {
	Report SceneReport
	err    *apperrors.Error
}

func (e *ValidationError) Error() string { return e.err.Error() }

func (e *ValidationError) Unwrap() error { return e.err }

func newValidationError(sceneID string, report SceneReport) *ValidationError {
	return &ValidationError{
		Report: report,
		err: apperrors.WithMetadata(
			apperrors.CodeValidationFailure,
			fmt.Sprintf("scene %s failed validation: %d issues, %d voice profile issues, cognition passed=%t",
				sceneID, len(report.Issues), len(report.VoiceProfileIssues), report.CognitionReport.Passed),
			map[string]string{
				"scene_id":             sceneID,
				"issues":               strings.Join(report.Issues, "; "),
				"voice_profile_issues": fmt.Sprint(len(report.VoiceProfileIssues)),
				"cognition_issues":     strings.Join(report.CognitionReport.Issues, "; "),
			},
		),
	}
}

// Options tune packet generation. A nil Now uses time.Now and a nil MinGapMs
// uses the marker default.
type Options struct {
	Now      func() time.Time
	MinGapMs *int64
}

// TrackEntry is one recording assignment in a packet.
type TrackEntry struct {
	TrackID        string          `json:"trackId"`
	SpeakerID      string          `json:"speakerId"`
	SpeakerLabel   string          `json:"speakerLabel"`
	Type           scene.TrackType `json:"type"`
	VoiceProfileID string          `json:"voiceProfileId"`
	Script         string          `json:"script"`
	Timing         *scene.Timing   `json:"timing,omitempty"`
	Attribution    string          `json:"attribution,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Tone           string          `json:"tone"`
	Pace           string          `json:"pace"`
	CadenceWpm     int             `json:"cadenceWpm"`
}

// Context is the production context handed to voice actors.
type Context struct {
	SpeakerNotes []string        `json:"speakerNotes"`
	BeatMarkers  []marker.Marker `json:"beatMarkers"`
}

// Packet is the recording handoff for one validated scene. GeneratedAt is
// the only field that varies between generations of the same input.
type Packet struct {
	PacketID    string       `json:"packetId"`
	SceneID     string       `json:"sceneId"`
	Fingerprint string       `json:"fingerprint"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Tracks      []TrackEntry `json:"tracks"`
	Context     Context      `json:"context"`
}

// Fingerprint returns the content address of a scene with its profiles.
// Profile order does not matter.
func Fingerprint(s scene.Scene, profiles []voice.Profile) (string, error) {
	sorted := append([]voice.Profile(nil), profiles...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	fingerprint, err := encoding.Fingerprint(map[string]any{
		"scene":    s,
		"profiles": sorted,
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint scene %s: %w", s.ID, err)
	}
	return fingerprint, nil
}

// ID derives a packet id from a fingerprint.
func ID(fingerprint string) string {
	return idPrefix + fingerprint[:16]
}

// Generate validates a scene and assembles its recording packet. A failing
// validation returns a *ValidationError holding the report.
func Generate(s scene.Scene, profiles []voice.Profile, opts Options) (Packet, error) {
	report := ValidateAudioScene(s, profiles, opts)
	if !report.Passed {
		return Packet{}, newValidationError(s.ID, report)
	}

	fingerprint, err := Fingerprint(s, profiles)
	if err != nil {
		return Packet{}, err
	}

	byID := make(map[string]voice.Profile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	tracks := make([]TrackEntry, 0, len(s.Tracks))
	for _, track := range s.Tracks {
		profile := byID[track.VoiceProfileID]
		label := track.SpeakerLabel
		if label == "" {
			label = profile.DisplayName
		}
		entry := TrackEntry{
			TrackID:        track.ID,
			SpeakerID:      track.SpeakerID,
			SpeakerLabel:   label,
			Type:           track.Type,
			VoiceProfileID: track.VoiceProfileID,
			Script:         track.Script,
			Attribution:    track.Attribution,
			Notes:          track.Notes,
			Tone:           profile.Tone,
			Pace:           profile.Pace,
			CadenceWpm:     profile.CadenceWpm,
		}
		if track.Timing != nil {
			timing := *track.Timing
			entry.Timing = &timing
		}
		tracks = append(tracks, entry)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return Packet{
		PacketID:    ID(fingerprint),
		SceneID:     s.ID,
		Fingerprint: fingerprint,
		GeneratedAt: now().UTC(),
		Tracks:      tracks,
		Context: Context{
			SpeakerNotes: speakerNotes(profiles),
			BeatMarkers:  report.AuthoredMarkers,
		},
	}, nil
}

func speakerNotes(profiles []voice.Profile) []string {
	sorted := append([]voice.Profile(nil), profiles...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	notes := []string{}
	for _, profile := range sorted {
		if strings.TrimSpace(profile.Notes) == "" {
			continue
		}
		notes = append(notes, fmt.Sprintf("%s: %s", profile.DisplayName, profile.Notes))
	}
	return notes
}
