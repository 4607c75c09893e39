// Package cognition scores how hard a scene is to follow by ear.
package cognition

import (
	"fmt"
	"math"
	"sort"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
)

const (
	// Penalty is subtracted from the score for each issue category found.
	Penalty = 0.15

	DensityWindowMs     int64 = 10000
	MaxMarkersPerWindow       = 8
	MaxSpeakerSwitches        = 6
)

// Report is the outcome of an audit. Issues and Recommendations are paired
// by index.
type Report struct {
	Score           float64  `json:"score"`
	Passed          bool     `json:"passed"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

func (r *Report) flag(issue, recommendation string) {
	r.Issues = append(r.Issues, issue)
	r.Recommendations = append(r.Recommendations, recommendation)
}

// Audit scores a scene starting at 1.0 and losing Penalty for each issue
// category: no narrator anchor, unattributed character tracks, dense beat
// markers, and excessive speaker switching.
func Audit(s scene.Scene) Report {
	report := Report{Issues: []string{}, Recommendations: []string{}}

	narrators := 0
	for _, track := range s.Tracks {
		if track.Type == scene.TrackNarrator {
			narrators++
		}
	}
	if narrators == 0 {
		report.flag(
			"scene has no narrator track to anchor the listener",
			"add a narrator track that establishes place and speakers",
		)
	}

	if s.CharacterTracks() > 1 {
		var unattributed []string
		for _, track := range s.Tracks {
			if track.Type == scene.TrackCharacter && track.Attribution == "" && track.SpeakerLabel == "" {
				unattributed = append(unattributed, track.ID)
			}
		}
		if len(unattributed) > 0 {
			report.flag(
				fmt.Sprintf("character tracks without attribution or speaker label: %v", unattributed),
				"attribute each character line or give the track a speaker label",
			)
		}
	}

	if count, startMs := densestWindow(s); count > MaxMarkersPerWindow {
		report.flag(
			fmt.Sprintf("%d beat markers within %dms starting at %dms", count, DensityWindowMs, startMs),
			fmt.Sprintf("keep at most %d beat markers in any %d second stretch", MaxMarkersPerWindow, DensityWindowMs/1000),
		)
	}

	if switches := len(s.Tracks) - 1; switches > MaxSpeakerSwitches {
		report.flag(
			fmt.Sprintf("%d speaker switches in one scene", switches),
			fmt.Sprintf("split the scene or merge lines to stay within %d switches", MaxSpeakerSwitches),
		)
	}

	report.Score = math.Max(0, 1-Penalty*float64(len(report.Issues)))
	report.Score = math.Round(report.Score*100) / 100
	report.Passed = len(report.Issues) == 0
	return report
}

// densestWindow returns the largest number of markers starting within any
// DensityWindowMs span, and where that span starts.
func densestWindow(s scene.Scene) (int, int64) {
	offsets := make([]int64, 0, len(s.BeatMarkers))
	for _, m := range s.BeatMarkers {
		offsets = append(offsets, m.OffsetMs)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	best, bestStart := 0, int64(0)
	lo := 0
	for hi, offset := range offsets {
		for offset-offsets[lo] >= DensityWindowMs {
			lo++
		}
		if n := hi - lo + 1; n > best {
			best, bestStart = n, offsets[lo]
		}
	}
	return best, bestStart
}
