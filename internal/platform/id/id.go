// Package id generates record identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a random (version 4) UUID in its canonical string form.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return value.String(), nil
}

// IsValid reports whether value parses as a UUID.
func IsValid(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
