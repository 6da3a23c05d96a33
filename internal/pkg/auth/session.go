package auth

import "github.com/google/uuid"

// NewSessionID issues an anonymous cart session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id looks like an identifier issued by NewSessionID.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
