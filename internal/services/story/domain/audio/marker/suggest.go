package marker

import (
	"strings"
)

// DefaultCadenceWpm is the narration pace assumed when none is given.
const DefaultCadenceWpm = 150

// Suggest proposes marker specs for a script read at cadenceWpm starting at
// startMs. It places a breath at each paragraph break, an emphasis on words
// ending in an exclamation or ellipsis, and a pause after each sentence.
// Suggestions are plain specs; Author decides what survives.
func Suggest(script string, cadenceWpm int, startMs int64) []Spec {
	if cadenceWpm <= 0 {
		cadenceWpm = DefaultCadenceWpm
	}
	msPerWord := int64(60000 / cadenceWpm)
	script = strings.ReplaceAll(script, "\r\n", "\n")

	specs := []Spec{}
	cursor := max(startMs, 0)
	paragraphs := 0
	for _, paragraph := range strings.Split(script, "\n\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}
		if paragraphs > 0 {
			specs = append(specs, Spec{Type: TypeBreath, OffsetMs: cursor, Note: "paragraph break"})
		}
		paragraphs++

		for _, word := range words {
			wordEnd := cursor + msPerWord
			switch {
			case strings.HasSuffix(word, "!"):
				specs = append(specs, Spec{Type: TypeEmphasis, OffsetMs: cursor, Note: "exclamation: " + word})
				specs = append(specs, Spec{Type: TypePause, OffsetMs: wordEnd, Note: "sentence end"})
			case strings.HasSuffix(word, "...") || strings.HasSuffix(word, "…"):
				specs = append(specs, Spec{Type: TypeEmphasis, OffsetMs: cursor, Note: "trailing off: " + word})
				specs = append(specs, Spec{Type: TypePause, OffsetMs: wordEnd, Note: "ellipsis"})
			case endsSentence(word):
				specs = append(specs, Spec{Type: TypePause, OffsetMs: wordEnd, Note: "sentence end"})
			}
			cursor = wordEnd
		}
	}
	return specs
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, `"')]”’`)
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "?") || strings.HasSuffix(word, "!")
}
