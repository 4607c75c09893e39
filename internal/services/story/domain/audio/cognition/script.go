package cognition

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
)

// Flag is an advisory note about a track's script. Flags never affect the
// audit score.
type Flag struct {
	TrackID string `json:"trackId"`
	Kind    string `json:"kind"`
	Detail  string `json:"detail"`
}

// Flag kinds reported by AuditScript.
const (
	FlagLongSentence       = "long_sentence"
	FlagVisualCue          = "visual_cue"
	FlagAmbiguousReference = "ambiguous_reference"
)

const maxSentenceWords = 35

var (
	sentenceSplit  = regexp.MustCompile(`[.!?]+\s+`)
	visualCue      = regexp.MustCompile(`(?i)\b(as you can see|shown here|pictured|see (?:above|below)|on screen)\b`)
	leadingPronoun = regexp.MustCompile(`(?i)^(he|she|they) said\b`)
)

// AuditScript flags script patterns that tend to lose audio listeners: very
// long sentences, references to visuals, and an opening line attributed only
// by pronoun.
func AuditScript(track scene.Track) []Flag {
	flags := []Flag{}
	script := strings.TrimSpace(track.Script)
	if script == "" {
		return flags
	}

	for i, sentence := range sentenceSplit.Split(script, -1) {
		if words := len(strings.Fields(sentence)); words > maxSentenceWords {
			flags = append(flags, Flag{
				TrackID: track.ID,
				Kind:    FlagLongSentence,
				Detail:  fmt.Sprintf("sentence %d has %d words", i+1, words),
			})
		}
	}
	if match := visualCue.FindString(script); match != "" {
		flags = append(flags, Flag{
			TrackID: track.ID,
			Kind:    FlagVisualCue,
			Detail:  fmt.Sprintf("%q assumes the listener can see something", match),
		})
	}
	if leadingPronoun.MatchString(script) {
		flags = append(flags, Flag{
			TrackID: track.ID,
			Kind:    FlagAmbiguousReference,
			Detail:  "opening line names its speaker only by pronoun",
		})
	}
	return flags
}
