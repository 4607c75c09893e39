package voice

import (
	"fmt"
	"sort"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/core/schema"
)

// ErrProfileNotFound indicates a registry lookup for an unknown profile.
var ErrProfileNotFound = apperrors.New(apperrors.CodeNotFound, "voice profile not found")

// Registry is an immutable set of profiles keyed by id. Every change returns
// a new registry and leaves the receiver untouched, so a registry value can
// be shared between goroutines.
type Registry struct {
	byID map[string]Profile
}

// NewRegistry indexes profiles by id. Later duplicates win.
func NewRegistry(profiles ...Profile) Registry {
	byID := make(map[string]Profile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = cloneProfile(profile)
	}
	return Registry{byID: byID}
}

// Get returns the profile with id.
func (r Registry) Get(id string) (Profile, bool) {
	profile, ok := r.byID[id]
	if !ok {
		return Profile{}, false
	}
	return cloneProfile(profile), true
}

// Len returns the number of profiles.
func (r Registry) Len() int {
	return len(r.byID)
}

// Profiles returns every profile sorted by id.
func (r Registry) Profiles() []Profile {
	out := make([]Profile, 0, len(r.byID))
	for _, profile := range r.byID {
		out = append(out, cloneProfile(profile))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// With returns a registry that also holds profile.
func (r Registry) With(profile Profile) Registry {
	byID := make(map[string]Profile, len(r.byID)+1)
	for id, existing := range r.byID {
		byID[id] = existing
	}
	byID[profile.ID] = cloneProfile(profile)
	return Registry{byID: byID}
}

// Patch lists the profile fields a revision may change.
type Patch struct {
	DisplayName *string   `json:"displayName,omitempty"`
	Tone        *string   `json:"tone,omitempty"`
	Pace        *string   `json:"pace,omitempty"`
	CadenceWpm  *int      `json:"cadenceWpm,omitempty"`
	StyleTags   *[]string `json:"styleTags,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

// Revise creates the next version of profile id. The revision gets a fresh
// id, Version one above its predecessor and PreviousID set to it. The
// predecessor stays in the returned registry.
func (r Registry) Revise(id string, patch Patch, idGenerator func() (string, error)) (Profile, Registry, error) {
	prev, ok := r.byID[id]
	if !ok {
		return Profile{}, r, apperrors.WithMetadata(
			apperrors.CodeNotFound,
			fmt.Sprintf("voice profile %s not found", id),
			map[string]string{"profile_id": id},
		)
	}

	next := cloneProfile(prev)
	newID, err := idGenerator()
	if err != nil {
		return Profile{}, r, fmt.Errorf("generate profile id: %w", err)
	}
	next.ID = newID
	next.Version = prev.Version + 1
	next.PreviousID = prev.ID
	if patch.DisplayName != nil {
		next.DisplayName = *patch.DisplayName
	}
	if patch.Tone != nil {
		next.Tone = *patch.Tone
	}
	if patch.Pace != nil {
		next.Pace = *patch.Pace
	}
	if patch.CadenceWpm != nil {
		next.CadenceWpm = *patch.CadenceWpm
	}
	if patch.StyleTags != nil {
		next.StyleTags = append([]string(nil), (*patch.StyleTags)...)
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}

	if err := schema.Check("voice profile", next); err != nil {
		return Profile{}, r, err
	}
	return next, r.With(next), nil
}

func cloneProfile(p Profile) Profile {
	if p.StyleTags != nil {
		p.StyleTags = append([]string(nil), p.StyleTags...)
	}
	return p
}
