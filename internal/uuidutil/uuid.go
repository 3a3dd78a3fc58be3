// Package uuidutil has parsing helpers for ids arriving as strings from
// HTTP payloads and CLI flags.
package uuidutil

import (
	"fmt"

	"github.com/google/uuid"
)

// Parse parses a string into a UUID.
func Parse(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	return id, nil
}

// ParseOptional parses a string into a UUID pointer. An empty string
// means absent and parses to nil.
func ParseOptional(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseAll parses a list of strings into UUIDs, failing on the first
// invalid entry.
func ParseAll(ss []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		id, err := Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsValid checks if a string is a valid UUID.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
