package domain

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/packet"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/scene"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/audio/voice"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/canon"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/event"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/domain/promise"
)

// StoryService is the persisted story workflow used by store-backed tools.
type StoryService interface {
	ProposeEvent(ctx context.Context, input event.Input) (event.Event, error)
	PromoteEvent(ctx context.Context, id string, next event.CanonStatus) (event.Event, canon.GateReport, error)
	ListEvents(ctx context.Context) ([]event.Event, error)
	CanonReport(ctx context.Context) (canon.GateReport, error)
	PutPromise(ctx context.Context, record promise.Record) error
	TransitionPromise(ctx context.Context, id string, next promise.Status, fulfilledIn string) (promise.Record, error)
	PutProfile(ctx context.Context, profile voice.Profile) error
	PutScene(ctx context.Context, s scene.Scene) error
	PackageScene(ctx context.Context, sceneID string) (packet.Packet, error)
}

// Clock supplies the current time to stateless tools that stamp records.
type Clock func() time.Time

// IDGenerator supplies identifiers for records created without one.
type IDGenerator func() (string, error)

// ResourceUpdateNotifier publishes resource update notifications to subscribers.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// NotifyResourceUpdates sends update notifications for each non-empty URI.
func NotifyResourceUpdates(ctx context.Context, notify ResourceUpdateNotifier, uris ...string) {
	if notify == nil {
		return
	}
	for _, uri := range uris {
		if strings.TrimSpace(uri) == "" {
			continue
		}
		notify(ctx, uri)
	}
}

func withToolTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, toolCallTimeout)
}

func logToolFailure(tool string, err error) {
	log.Printf("tool=%s err=%v", tool, err)
}
