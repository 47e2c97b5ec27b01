package ids

import (
	"github.com/google/uuid"
)

// New returns a fresh UUIDv4 string for conversation/message/story ids.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s parses as a UUID. Client-supplied ids are accepted
// at creation only when they pass this.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
