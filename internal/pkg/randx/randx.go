/*
Package randx provides generators for random identifiers.

Session ids are UUID v4 strings; they are stored server-side per user so a
logout can invalidate one session without touching the others.
*/
package randx

import (
	"github.com/google/uuid"
)

// SessionID generates a new UUID v4 string identifying one login session.
func SessionID() string {
	return uuid.New().String()
}

// IsValidSessionID reports whether id is a well-formed session id.
func IsValidSessionID(id string) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.Version() == 4
}
