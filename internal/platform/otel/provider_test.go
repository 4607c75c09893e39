package otel_test

import (
	"context"
	"testing"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("USS_OTEL_ENDPOINT", "")
	t.Setenv("USS_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("USS_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("USS_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no export happens.
	t.Setenv("USS_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("USS_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestTracerStartsSpanWithoutProvider(t *testing.T) {
	ctx, span := otel.Tracer("story").Start(context.Background(), "probe")
	defer span.End()
	if ctx == nil {
		t.Fatal("expected span context")
	}
}
