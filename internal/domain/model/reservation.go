package model

import "time"

// Reservation is a time-bounded claim on a unique item.
type Reservation struct {
	ItemID    int64
	HolderID  string
	SessionID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Active reports whether the hold is still in force at the given instant.
func (r Reservation) Active(now time.Time) bool {
	return r.ExpiresAt.After(now)
}

// OwnedBy reports whether the hold belongs to the caller. Empty identifiers never match.
func (r Reservation) OwnedBy(holderID, sessionID string) bool {
	if holderID != "" && r.HolderID == holderID {
		return true
	}
	return sessionID != "" && r.SessionID == sessionID
}

// Availability describes an item from the point of view of one caller.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityHeldByYou   Availability = "held_by_you"
	AvailabilitySold        Availability = "sold"
	AvailabilityHeldByOther Availability = "held_by_other"
)

// AvailableToCaller reports whether the caller may proceed to checkout with the item.
func (a Availability) AvailableToCaller() bool {
	return a == AvailabilityAvailable || a == AvailabilityHeldByYou
}
