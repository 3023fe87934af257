// Package uuid generates time-ordered record keys. Every stored record is
// keyed by a UUIDv7 so that lexicographic key order agrees with insertion
// order, which the budget and expense listings rely on for tie-breaking.
package uuid

import googleuuid "github.com/google/uuid"

// New generates a new UUIDv7 based on the current timestamp.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Entropy exhaustion only; fall back to an unordered v4 key.
		return googleuuid.New().String()
	}
	return id.String()
}
