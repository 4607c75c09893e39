package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewIDFormat(t *testing.T) {
	value, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(value) != 36 {
		t.Fatalf("expected 36-character id, got %d", len(value))
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected version 4, got %d", parsed.Version())
	}
	if parsed.Variant() != uuid.RFC4122 {
		t.Fatalf("expected RFC4122 variant, got %v", parsed.Variant())
	}
}

func TestNewIDIsUnique(t *testing.T) {
	first, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct ids")
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("6f1c3a52-93f4-4c3e-9d0e-2b5c1d7c9a10") {
		t.Fatal("expected canonical uuid to be valid")
	}
	if IsValid("evt-1") {
		t.Fatal("expected non-uuid to be invalid")
	}
}
