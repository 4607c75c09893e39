package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/packet"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/core/schema"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/storage"
)

// PutProfile validates and stores a new voice profile.
func (s *Service) PutProfile(ctx context.Context, profile voice.Profile) error {
	if err := schema.FromViolations("voice profile", voice.ValidateProfiles([]voice.Profile{profile})); err != nil {
		return err
	}
	return s.store.PutProfile(ctx, profile)
}

// ReviseProfile stores the next version of profile id and returns it. The
// previous version stays stored.
func (s *Service) ReviseProfile(ctx context.Context, id string, patch voice.Patch) (voice.Profile, error) {
	var revised voice.Profile
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		profiles, err := tx.ListProfiles(ctx)
		if err != nil {
			return err
		}
		revised, _, err = voice.NewRegistry(profiles...).Revise(id, patch, s.idGenerator)
		if err != nil {
			return err
		}
		return tx.PutProfile(ctx, revised)
	})
	if err != nil {
		return voice.Profile{}, err
	}
	return revised, nil
}

// PutScene validates the shape of a scene and stores it.
func (s *Service) PutScene(ctx context.Context, sc scene.Scene) error {
	if err := schema.FromViolations("scene", scene.ValidateShape(sc)); err != nil {
		return err
	}
	return s.store.PutScene(ctx, sc)
}

// ValidateScene runs the audio checks over a stored scene and the profiles
// its tracks reference.
func (s *Service) ValidateScene(ctx context.Context, sceneID string) (packet.SceneReport, error) {
	sc, profiles, err := s.loadScene(ctx, sceneID)
	if err != nil {
		return packet.SceneReport{}, err
	}
	return packet.ValidateAudioScene(sc, profiles, packet.Options{MinGapMs: s.minGapMs}), nil
}

// PackageScene generates and stores the recording packet for a stored
// scene. Every event the scene voices must already be canon. Packaging the
// same content twice returns the packet stored the first time.
func (s *Service) PackageScene(ctx context.Context, sceneID string) (stored packet.Packet, err error) {
	ctx, span := s.startSpan(ctx, "story.package_scene", attribute.String("story.scene_id", sceneID))
	defer func() {
		span.SetAttributes(attribute.String("story.packet_id", stored.PacketID))
		endSpan(span, err)
	}()

	sc, profiles, err := s.loadScene(ctx, sceneID)
	if err != nil {
		return packet.Packet{}, err
	}
	if err := s.requireCanon(ctx, sc); err != nil {
		return packet.Packet{}, err
	}

	generated, err := packet.Generate(sc, profiles, packet.Options{Now: s.now, MinGapMs: s.minGapMs})
	if err != nil {
		return packet.Packet{}, err
	}
	return s.store.PutPacket(ctx, generated)
}

// GetPacket returns a stored recording packet.
func (s *Service) GetPacket(ctx context.Context, packetID string) (packet.Packet, error) {
	return s.store.GetPacket(ctx, packetID)
}

// loadScene returns a stored scene with the stored profiles its tracks
// reference, sorted by id. Unknown profile ids are left for validation to
// report.
func (s *Service) loadScene(ctx context.Context, sceneID string) (scene.Scene, []voice.Profile, error) {
	sc, err := s.store.GetScene(ctx, sceneID)
	if err != nil {
		return scene.Scene{}, nil, err
	}
	referenced := make(map[string]struct{}, len(sc.Tracks))
	for _, track := range sc.Tracks {
		referenced[track.VoiceProfileID] = struct{}{}
	}
	all, err := s.store.ListProfiles(ctx)
	if err != nil {
		return scene.Scene{}, nil, err
	}
	profiles := make([]voice.Profile, 0, len(referenced))
	for _, profile := range all {
		if _, ok := referenced[profile.ID]; ok {
			profiles = append(profiles, profile)
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return sc, profiles, nil
}

func (s *Service) requireCanon(ctx context.Context, sc scene.Scene) error {
	if len(sc.EventIDs) == 0 {
		return nil
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return err
	}
	index := event.Index(events)
	var pending []string
	for _, id := range sc.EventIDs {
		if evt, ok := index[id]; !ok || !evt.IsCanon() {
			pending = append(pending, id)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeValidationFailure,
		fmt.Sprintf("scene %s voices events not canon: %s", sc.ID, strings.Join(pending, ", ")),
		map[string]string{"scene_id": sc.ID, "events": strings.Join(pending, ",")},
	)
}
