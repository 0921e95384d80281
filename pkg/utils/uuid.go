package utils

import "github.com/google/uuid"

// GenerateID returns a fresh UUID string, the canonical id format for every
// entity this service creates. User ids are the exception: those arrive
// preassigned from the platform's auth service.
func GenerateID() string {
	return uuid.New().String()
}
