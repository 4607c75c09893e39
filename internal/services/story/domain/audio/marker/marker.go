// Package marker authors timed beat markers for scene narration.
//
// Authoring normalizes marker specs, resolves overlaps per channel and keeps
// a typed log of every adjustment it made.
package marker

import (
	"fmt"
	"math"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/core/encoding"
)

// Type is the kind of cue a marker carries.
type Type string

const (
	TypePause      Type = "pause"
	TypeEmphasis   Type = "emphasis"
	TypeSFX        Type = "sfx"
	TypeMusic      Type = "music"
	TypeBreath     Type = "breath"
	TypeTempo      Type = "tempo"
	TypeTransition Type = "transition"
	TypeCustom     Type = "custom"
)

// Channel groups markers that compete for the same performance lane.
type Channel string

const (
	ChannelDelivery Channel = "delivery"
	ChannelMusic    Channel = "music"
	ChannelSFX      Channel = "sfx"
	ChannelTone     Channel = "tone"
)

const (
	MinPriority = -5
	MaxPriority = 5

	// DefaultMinGapMs is the gap kept between markers on one channel.
	DefaultMinGapMs int64 = 200

	defaultIntensity = 0.5
	idPrefix         = "bm_"
)

var defaultDurations = map[Type]int64{
	TypePause:      400,
	TypeBreath:     250,
	TypeEmphasis:   300,
	TypeSFX:        500,
	TypeMusic:      2000,
	TypeTempo:      1000,
	TypeTransition: 800,
	TypeCustom:     300,
}

// DefaultDuration returns the duration used when a spec omits one.
func DefaultDuration(t Type) int64 {
	if d, ok := defaultDurations[t]; ok {
		return d
	}
	return defaultDurations[TypeCustom]
}

// DefaultChannel returns the channel used when a spec omits one.
func DefaultChannel(t Type) Channel {
	switch t {
	case TypeMusic:
		return ChannelMusic
	case TypeSFX:
		return ChannelSFX
	case TypeTempo:
		return ChannelTone
	default:
		return ChannelDelivery
	}
}

// Marker is an authored beat marker.
type Marker struct {
	ID         string  `json:"id" validate:"required"`
	Type       Type    `json:"type" validate:"oneof=pause emphasis sfx music breath tempo transition custom"`
	OffsetMs   int64   `json:"offsetMs" validate:"gte=0"`
	DurationMs int64   `json:"durationMs" validate:"gte=0"`
	Channel    Channel `json:"channel" validate:"oneof=delivery music sfx tone"`
	Priority   int     `json:"priority" validate:"gte=-5,lte=5"`
	Intensity  float64 `json:"intensity" validate:"gte=0,lte=1"`
	Note       string  `json:"note,omitempty"`
}

// EndMs is the offset at which the marker stops.
func (m Marker) EndMs() int64 {
	return m.OffsetMs + m.DurationMs
}

// Spec is marker input before defaults are applied.
type Spec struct {
	ID         string   `json:"id,omitempty" yaml:"id,omitempty"`
	Type       Type     `json:"type" yaml:"type"`
	OffsetMs   int64    `json:"offsetMs" yaml:"offsetMs"`
	DurationMs *int64   `json:"durationMs,omitempty" yaml:"durationMs,omitempty"`
	Channel    Channel  `json:"channel,omitempty" yaml:"channel,omitempty"`
	Priority   *int     `json:"priority,omitempty" yaml:"priority,omitempty"`
	Intensity  *float64 `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	Note       string   `json:"note,omitempty" yaml:"note,omitempty"`
}

// SpecOf converts an authored marker back into input form.
func SpecOf(m Marker) Spec {
	duration := m.DurationMs
	priority := m.Priority
	intensity := m.Intensity
	return Spec{
		ID:         m.ID,
		Type:       m.Type,
		OffsetMs:   m.OffsetMs,
		DurationMs: &duration,
		Channel:    m.Channel,
		Priority:   &priority,
		Intensity:  &intensity,
		Note:       m.Note,
	}
}

// Normalize applies defaults and clamps to a spec. A missing id is derived
// from the content hash of the normalized fields.
func Normalize(spec Spec) (Marker, error) {
	m := Marker{
		ID:         spec.ID,
		Type:       spec.Type,
		OffsetMs:   max(spec.OffsetMs, 0),
		DurationMs: DefaultDuration(spec.Type),
		Channel:    spec.Channel,
		Priority:   0,
		Intensity:  defaultIntensity,
		Note:       spec.Note,
	}
	if m.Type == "" {
		m.Type = TypeCustom
	}
	if m.Channel == "" {
		m.Channel = DefaultChannel(m.Type)
	}
	if spec.DurationMs != nil {
		m.DurationMs = max(*spec.DurationMs, 0)
	}
	if spec.Priority != nil {
		m.Priority = min(max(*spec.Priority, MinPriority), MaxPriority)
	}
	if spec.Intensity != nil && !math.IsNaN(*spec.Intensity) {
		m.Intensity = min(max(*spec.Intensity, 0), 1)
	}
	if m.ID == "" {
		id, err := deriveID(m)
		if err != nil {
			return Marker{}, err
		}
		m.ID = id
	}
	return m, nil
}

func deriveID(m Marker) (string, error) {
	hash, err := encoding.ContentHash(map[string]any{
		"type":       m.Type,
		"offsetMs":   m.OffsetMs,
		"durationMs": m.DurationMs,
		"channel":    m.Channel,
		"priority":   m.Priority,
		"intensity":  m.Intensity,
		"note":       m.Note,
	})
	if err != nil {
		return "", fmt.Errorf("derive marker id: %w", err)
	}
	return idPrefix + hash[:16], nil
}

// less orders markers by offset, then priority descending, then channel,
// type and id.
func less(a, b Marker) bool {
	if a.OffsetMs != b.OffsetMs {
		return a.OffsetMs < b.OffsetMs
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Channel != b.Channel {
		return a.Channel < b.Channel
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.ID < b.ID
}
