package marker

import (
	"fmt"
	"sort"
)

// ConflictKind names the adjustment made while resolving markers.
type ConflictKind string

const (
	ConflictTrimPrevious      ConflictKind = "trim_previous"
	ConflictShiftCurrent      ConflictKind = "shift_current"
	ConflictDropPrevious      ConflictKind = "drop_previous"
	ConflictDropCurrent       ConflictKind = "drop_current"
	ConflictTrimToScene       ConflictKind = "trim_to_scene"
	ConflictShiftToSceneStart ConflictKind = "shift_to_scene_start"
)

// Window is a [StartMs, EndMs) time range.
type Window struct {
	StartMs int64 `json:"startMs" yaml:"startMs"`
	EndMs   int64 `json:"endMs" yaml:"endMs"`
}

// Options control authoring. A nil MinGapMs means DefaultMinGapMs.
type Options struct {
	Timing             *Window
	EnforceWithinScene bool
	MinGapMs           *int64
}

func (o Options) minGap() int64 {
	if o.MinGapMs == nil {
		return DefaultMinGapMs
	}
	return max(*o.MinGapMs, 0)
}

func (o Options) bounds() (Window, bool) {
	if !o.EnforceWithinScene || o.Timing == nil {
		return Window{}, false
	}
	return *o.Timing, true
}

// Conflict records one adjustment. MarkerID is the marker that changed and
// OtherID the marker it yielded to, if any.
type Conflict struct {
	Kind           ConflictKind `json:"kind"`
	MarkerID       string       `json:"markerId"`
	OtherID        string       `json:"otherId,omitempty"`
	Channel        Channel      `json:"channel"`
	FromOffsetMs   int64        `json:"fromOffsetMs"`
	ToOffsetMs     int64        `json:"toOffsetMs"`
	FromDurationMs int64        `json:"fromDurationMs"`
	ToDurationMs   int64        `json:"toDurationMs"`
	Reason         string       `json:"reason"`
}

// Result is the authored marker set and its conflict log.
type Result struct {
	Ordered   []Marker   `json:"ordered"`
	Conflicts []Conflict `json:"conflicts"`
}

// Author normalizes specs and resolves every overlap per channel.
//
// Within a channel, markers are walked in order. When an incoming marker
// starts closer than the minimum gap to the end of the last accepted marker,
// a higher-priority incoming marker trims the previous one, or drops it when
// no room remains. Otherwise the incoming marker is shifted to start one gap
// after the previous marker ends. With scene bounds enforced, markers are
// moved inside the scene window, truncated at its end, and dropped when
// nothing remains.
func Author(specs []Spec, opts Options) Result {
	log := &conflictLog{entries: []Conflict{}}
	bounds, enforce := opts.bounds()
	gap := opts.minGap()

	channels := map[Channel][]Marker{}
	for _, spec := range specs {
		m, err := Normalize(spec)
		if err != nil {
			log.add(Conflict{
				Kind:     ConflictDropCurrent,
				MarkerID: spec.ID,
				Channel:  spec.Channel,
				Reason:   err.Error(),
			})
			continue
		}
		if enforce {
			var ok bool
			if m, ok = clampToScene(m, bounds, log); !ok {
				continue
			}
		}
		channels[m.Channel] = append(channels[m.Channel], m)
	}

	names := make([]Channel, 0, len(channels))
	for channel := range channels {
		names = append(names, channel)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	ordered := []Marker{}
	for _, channel := range names {
		markers := channels[channel]
		sort.SliceStable(markers, func(i, j int) bool { return less(markers[i], markers[j]) })
		ordered = append(ordered, sweep(markers, gap, bounds, enforce, log)...)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return less(ordered[i], ordered[j]) })

	return Result{Ordered: ordered, Conflicts: log.entries}
}

func sweep(markers []Marker, gap int64, bounds Window, enforce bool, log *conflictLog) []Marker {
	accepted := make([]Marker, 0, len(markers))
	for _, incoming := range markers {
		for {
			if len(accepted) == 0 {
				break
			}
			prev := &accepted[len(accepted)-1]
			if incoming.OffsetMs >= prev.EndMs()+gap {
				break
			}
			if incoming.Priority > prev.Priority {
				room := incoming.OffsetMs - gap - prev.OffsetMs
				if room > 0 {
					log.add(Conflict{
						Kind:           ConflictTrimPrevious,
						MarkerID:       prev.ID,
						OtherID:        incoming.ID,
						Channel:        prev.Channel,
						FromOffsetMs:   prev.OffsetMs,
						ToOffsetMs:     prev.OffsetMs,
						FromDurationMs: prev.DurationMs,
						ToDurationMs:   room,
						Reason:         fmt.Sprintf("trimmed to keep %dms before higher-priority marker", gap),
					})
					prev.DurationMs = room
					break
				}
				log.add(Conflict{
					Kind:           ConflictDropPrevious,
					MarkerID:       prev.ID,
					OtherID:        incoming.ID,
					Channel:        prev.Channel,
					FromOffsetMs:   prev.OffsetMs,
					ToOffsetMs:     prev.OffsetMs,
					FromDurationMs: prev.DurationMs,
					ToDurationMs:   0,
					Reason:         "no room left before higher-priority marker",
				})
				accepted = accepted[:len(accepted)-1]
				continue
			}

			shifted := prev.EndMs() + gap
			log.add(Conflict{
				Kind:           ConflictShiftCurrent,
				MarkerID:       incoming.ID,
				OtherID:        prev.ID,
				Channel:        incoming.Channel,
				FromOffsetMs:   incoming.OffsetMs,
				ToOffsetMs:     shifted,
				FromDurationMs: incoming.DurationMs,
				ToDurationMs:   incoming.DurationMs,
				Reason:         fmt.Sprintf("shifted to keep %dms after marker of equal or higher priority", gap),
			})
			incoming.OffsetMs = shifted
			break
		}

		if enforce {
			var ok bool
			if incoming, ok = truncateToScene(incoming, bounds, log); !ok {
				continue
			}
		}
		accepted = append(accepted, incoming)
	}
	return accepted
}

// clampToScene moves a marker inside the scene window. It reports false when
// the marker was dropped.
func clampToScene(m Marker, bounds Window, log *conflictLog) (Marker, bool) {
	if m.OffsetMs < bounds.StartMs {
		log.add(Conflict{
			Kind:           ConflictShiftToSceneStart,
			MarkerID:       m.ID,
			Channel:        m.Channel,
			FromOffsetMs:   m.OffsetMs,
			ToOffsetMs:     bounds.StartMs,
			FromDurationMs: m.DurationMs,
			ToDurationMs:   m.DurationMs,
			Reason:         "marker started before the scene",
		})
		m.OffsetMs = bounds.StartMs
	}
	return truncateToScene(m, bounds, log)
}

func truncateToScene(m Marker, bounds Window, log *conflictLog) (Marker, bool) {
	if m.OffsetMs >= bounds.EndMs {
		log.add(Conflict{
			Kind:           ConflictDropCurrent,
			MarkerID:       m.ID,
			Channel:        m.Channel,
			FromOffsetMs:   m.OffsetMs,
			ToOffsetMs:     m.OffsetMs,
			FromDurationMs: m.DurationMs,
			ToDurationMs:   0,
			Reason:         "marker starts after the scene ends",
		})
		return Marker{}, false
	}
	if m.EndMs() > bounds.EndMs {
		trimmed := bounds.EndMs - m.OffsetMs
		log.add(Conflict{
			Kind:           ConflictTrimToScene,
			MarkerID:       m.ID,
			Channel:        m.Channel,
			FromOffsetMs:   m.OffsetMs,
			ToOffsetMs:     m.OffsetMs,
			FromDurationMs: m.DurationMs,
			ToDurationMs:   trimmed,
			Reason:         "marker ran past the end of the scene",
		})
		m.DurationMs = trimmed
	}
	return m, true
}

type conflictLog struct {
	entries []Conflict
}

func (l *conflictLog) add(c Conflict) {
	l.entries = append(l.entries, c)
}
