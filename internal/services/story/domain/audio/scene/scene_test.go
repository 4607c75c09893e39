package scene

import (
	"strings"
	"testing"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/marker"
)

func validScene() Scene {
	return Scene{
		ID:      "scene-1",
		Title:   "Dock Nine",
		Summary: "Mara finds the relay sabotaged.",
		Timing:  Timing{StartMs: 0, EndMs: 60000},
		BeatMarkers: []marker.Marker{{
			ID: "bm-1", Type: marker.TypePause, OffsetMs: 1000, DurationMs: 400,
			Channel: marker.ChannelDelivery, Intensity: 0.5,
		}},
		Tracks: []Track{
			{ID: "t-1", SpeakerID: "narrator", Type: TrackNarrator, VoiceProfileID: "vp-narrator", Script: "The dock was silent."},
			{ID: "t-2", SpeakerID: "mara", Type: TrackCharacter, VoiceProfileID: "vp-mara", Script: "Someone cut it.",
				Timing: &Timing{StartMs: 2000, EndMs: 4000}},
		},
	}
}

func TestValidateShapeAcceptsValidScene(t *testing.T) {
	if issues := ValidateShape(validScene()); len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
}

func TestValidateShape(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scene)
		want   string
	}{
		{"no tracks", func(s *Scene) { s.Tracks = nil }, "tracks must be at least 1"},
		{"missing title", func(s *Scene) { s.Title = "" }, "title is required"},
		{"bad track type", func(s *Scene) { s.Tracks[0].Type = "chorus" }, "tracks[0].type must be one of"},
		{"inverted timing", func(s *Scene) { s.Timing = Timing{StartMs: 500, EndMs: 500} }, "must be after timing.startMs"},
		{"marker outside", func(s *Scene) { s.BeatMarkers[0].OffsetMs = 59900 }, "beat marker bm-1"},
		{"track outside", func(s *Scene) { s.Tracks[1].Timing.EndMs = 70000 }, "track t-2"},
		{"duplicate track", func(s *Scene) { s.Tracks[1].ID = "t-1" }, "track id t-1 appears more than once"},
		{"bad marker type", func(s *Scene) { s.BeatMarkers[0].Type = "whistle" }, "beatMarkers[0].type must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScene()
			tt.mutate(&s)
			issues := ValidateShape(s)
			for _, issue := range issues {
				if strings.Contains(issue, tt.want) {
					return
				}
			}
			t.Fatalf("issues = %v, want one containing %q", issues, tt.want)
		})
	}
}

func TestMarkerSpecsRoundTrip(t *testing.T) {
	s := validScene()
	specs := s.MarkerSpecs()
	if len(specs) != 1 {
		t.Fatalf("specs = %d, want 1", len(specs))
	}
	m, err := marker.Normalize(specs[0])
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if m != s.BeatMarkers[0] {
		t.Fatalf("normalized = %+v, want %+v", m, s.BeatMarkers[0])
	}
}
