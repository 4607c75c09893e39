package storage

import (
	"context"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/packet"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
)

var (
	// ErrNotFound indicates a requested story record is missing.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrAlreadyExists indicates a write-once record already exists.
	ErrAlreadyExists = apperrors.New(apperrors.CodeAlreadyExists, "record already exists")
)

// EventStore persists narrative events.
type EventStore interface {
	// PutEvent inserts or replaces an event. Replacing a stored canon event
	// fails with an immutability violation.
	PutEvent(ctx context.Context, evt event.Event) error
	GetEvent(ctx context.Context, id string) (event.Event, error)
	// ListEvents returns every event ordered by timestamp, then id.
	ListEvents(ctx context.Context) ([]event.Event, error)
}

// PromiseStore persists promise records.
type PromiseStore interface {
	PutPromise(ctx context.Context, record promise.Record) error
	GetPromise(ctx context.Context, id string) (promise.Record, error)
	ListPromises(ctx context.Context) ([]promise.Record, error)
}

// ProfileStore persists voice profiles. Profiles are write-once; revisions
// are stored under new ids.
type ProfileStore interface {
	PutProfile(ctx context.Context, profile voice.Profile) error
	GetProfile(ctx context.Context, id string) (voice.Profile, error)
	ListProfiles(ctx context.Context) ([]voice.Profile, error)
}

// SceneStore persists audio scenes.
type SceneStore interface {
	PutScene(ctx context.Context, s scene.Scene) error
	GetScene(ctx context.Context, id string) (scene.Scene, error)
}

// PacketStore persists recording packets keyed by packet id.
type PacketStore interface {
	// PutPacket stores p unless a packet with the same id exists, and
	// returns the stored packet either way.
	PutPacket(ctx context.Context, p packet.Packet) (packet.Packet, error)
	GetPacket(ctx context.Context, packetID string) (packet.Packet, error)
}

// Store combines every story store with transactional execution.
type Store interface {
	EventStore
	PromiseStore
	ProfileStore
	SceneStore
	PacketStore

	// WithTx runs fn against a store bound to one serialized transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Store) error) error
}
