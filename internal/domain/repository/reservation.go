package repository

import (
	"context"
	"time"

	"github.com/polkiloo/atelier/internal/domain/model"
)

// ReservationRepository persists cart holds. Storage enforces one row per item.
type ReservationRepository interface {
	// Hold extends the caller's hold or inserts a new one. A competing active hold yields ErrConflict.
	Hold(ctx context.Context, r model.Reservation, now time.Time) (*model.Reservation, bool, error)
	Get(ctx context.Context, itemID int64, now time.Time) (*model.Reservation, error)
	ListByItems(ctx context.Context, itemIDs []int64, now time.Time) ([]model.Reservation, error)
	ListByOwner(ctx context.Context, holderID, sessionID string, now time.Time) ([]model.Reservation, error)
	// ExtendOwned moves expiry of every listed hold owned by the caller, all or nothing.
	// Missing ids are returned with ErrConflict.
	ExtendOwned(ctx context.Context, itemIDs []int64, holderID, sessionID string, expiresAt, now time.Time) ([]int64, error)
	Delete(ctx context.Context, itemID int64, holderID, sessionID string) error
	DeleteByOwner(ctx context.Context, holderID, sessionID string) (int64, error)
	// DeleteOwnedItems drops the caller's holds on the listed items and leaves other holders alone.
	DeleteOwnedItems(ctx context.Context, itemIDs []int64, holderID, sessionID string) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
