package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/packet"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/storage"
)

// PutProfile inserts a voice profile. Existing ids are never replaced.
func (s *Store) PutProfile(ctx context.Context, profile voice.Profile) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("voice profile", profile.ID)
	if err != nil {
		return err
	}
	body, err := encodeBody(profile)
	if err != nil {
		return err
	}
	var previousID sql.NullString
	if profile.PreviousID != "" {
		previousID = sql.NullString{String: profile.PreviousID, Valid: true}
	}
	_, err = s.q.ExecContext(
		ctx,
		`INSERT INTO voice_profiles (id, speaker_id, version, previous_id, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		profile.SpeakerID,
		profile.Version,
		previousID,
		body,
		toMillis(s.now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put voice profile %s: %w", id, err)
	}
	return nil
}

// GetProfile returns one voice profile by id.
func (s *Store) GetProfile(ctx context.Context, id string) (voice.Profile, error) {
	if err := s.ready(ctx); err != nil {
		return voice.Profile{}, err
	}
	id, err := requireID("voice profile", id)
	if err != nil {
		return voice.Profile{}, err
	}
	var body string
	err = s.q.QueryRowContext(ctx, `SELECT body FROM voice_profiles WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return voice.Profile{}, notFound("voice profile", id)
		}
		return voice.Profile{}, fmt.Errorf("get voice profile %s: %w", id, err)
	}
	var profile voice.Profile
	if err := decodeBody(body, &profile); err != nil {
		return voice.Profile{}, err
	}
	return profile, nil
}

// ListProfiles returns every voice profile ordered by id.
func (s *Store) ListProfiles(ctx context.Context) ([]voice.Profile, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, `SELECT body FROM voice_profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list voice profiles: %w", err)
	}
	defer rows.Close()

	profiles := []voice.Profile{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan voice profile: %w", err)
		}
		var profile voice.Profile
		if err := decodeBody(body, &profile); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list voice profiles: %w", err)
	}
	return profiles, nil
}

// PutScene inserts or replaces an audio scene.
func (s *Store) PutScene(ctx context.Context, sc scene.Scene) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("scene", sc.ID)
	if err != nil {
		return err
	}
	body, err := encodeBody(sc)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(
		ctx,
		`INSERT INTO scenes (id, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		id,
		body,
		toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("put scene %s: %w", id, err)
	}
	return nil
}

// GetScene returns one audio scene by id.
func (s *Store) GetScene(ctx context.Context, id string) (scene.Scene, error) {
	if err := s.ready(ctx); err != nil {
		return scene.Scene{}, err
	}
	id, err := requireID("scene", id)
	if err != nil {
		return scene.Scene{}, err
	}
	var body string
	err = s.q.QueryRowContext(ctx, `SELECT body FROM scenes WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return scene.Scene{}, notFound("scene", id)
		}
		return scene.Scene{}, fmt.Errorf("get scene %s: %w", id, err)
	}
	var sc scene.Scene
	if err := decodeBody(body, &sc); err != nil {
		return scene.Scene{}, err
	}
	return sc, nil
}

// PutPacket stores p unless its packet id is already present, then returns
// the stored packet.
func (s *Store) PutPacket(ctx context.Context, p packet.Packet) (packet.Packet, error) {
	if err := s.ready(ctx); err != nil {
		return packet.Packet{}, err
	}
	id, err := requireID("packet", p.PacketID)
	if err != nil {
		return packet.Packet{}, err
	}
	body, err := encodeBody(p)
	if err != nil {
		return packet.Packet{}, err
	}
	_, err = s.q.ExecContext(
		ctx,
		`INSERT INTO packets (packet_id, scene_id, fingerprint, generated_at, body)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(packet_id) DO NOTHING`,
		id,
		p.SceneID,
		p.Fingerprint,
		toMillis(p.GeneratedAt),
		body,
	)
	if err != nil {
		return packet.Packet{}, fmt.Errorf("put packet %s: %w", id, err)
	}
	return s.GetPacket(ctx, id)
}

// GetPacket returns one recording packet by id.
func (s *Store) GetPacket(ctx context.Context, packetID string) (packet.Packet, error) {
	if err := s.ready(ctx); err != nil {
		return packet.Packet{}, err
	}
	id, err := requireID("packet", packetID)
	if err != nil {
		return packet.Packet{}, err
	}
	var body string
	err = s.q.QueryRowContext(ctx, `SELECT body FROM packets WHERE packet_id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return packet.Packet{}, notFound("packet", id)
		}
		return packet.Packet{}, fmt.Errorf("get packet %s: %w", id, err)
	}
	var p packet.Packet
	if err := decodeBody(body, &p); err != nil {
		return packet.Packet{}, err
	}
	return p, nil
}
