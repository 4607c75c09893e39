// Package packet validates audio scenes and produces recording packets.
//
// A packet is content addressed: the same scene and profiles always yield
// the same fingerprint and packet id, so packets are safe to cache and
// dedupe.
package packet

import (
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/cognition"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/marker"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
)

// SceneReport aggregates every audio-side check for one scene. Marker
// conflicts are resolved during authoring and do not fail the report.
type SceneReport struct {
	Passed              bool              `json:"passed"`
	Issues              []string          `json:"issues"`
	VoiceProfileIssues  []voice.Issue     `json:"voiceProfileIssues"`
	CognitionReport     cognition.Report  `json:"cognitionReport"`
	BeatMarkerConflicts []marker.Conflict `json:"beatMarkerConflicts"`
	AuthoredMarkers     []marker.Marker   `json:"authoredMarkers"`
}

// ValidateAudioScene runs shape, voice profile, marker authoring and
// cognition checks over a scene. Markers are re-authored inside the scene
// timing before the cognition audit sees them.
func ValidateAudioScene(s scene.Scene, profiles []voice.Profile, opts Options) SceneReport {
	issues := scene.ValidateShape(s)
	issues = append(issues, voice.ValidateProfiles(profiles)...)

	timing := s.Timing.Window()
	authored := marker.Author(s.MarkerSpecs(), marker.Options{
		Timing:             &timing,
		EnforceWithinScene: timing.EndMs > timing.StartMs,
		MinGapMs:           opts.MinGapMs,
	})

	audited := s
	audited.BeatMarkers = authored.Ordered
	cognitionReport := cognition.Audit(audited)

	voiceIssues := voice.ValidateForScene(s, profiles)
	return SceneReport{
		Passed:              len(issues) == 0 && len(voiceIssues) == 0 && cognitionReport.Passed,
		Issues:              issues,
		VoiceProfileIssues:  voiceIssues,
		CognitionReport:     cognitionReport,
		BeatMarkerConflicts: authored.Conflicts,
		AuthoredMarkers:     authored.Ordered,
	}
}
