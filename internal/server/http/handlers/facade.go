package handlers

import (
	"context"
	"time"

	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/usecase"
)

// ReservationFacade describes cart hold capabilities required by handlers.
type ReservationFacade interface {
	HoldItem(ctx context.Context, itemID int64, who model.Identity, ttl time.Duration) (*model.Reservation, error)
	ReleaseHold(ctx context.Context, itemID int64, who model.Identity) error
	CheckAvailability(ctx context.Context, itemID int64, who model.Identity) (model.Availability, error)
	ValidateCart(ctx context.Context, itemIDs []int64, who model.Identity) (*usecase.CartValidation, error)
	MyHolds(ctx context.Context, who model.Identity) ([]model.Reservation, error)
	ReleaseAll(ctx context.Context, who model.Identity) (int64, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, payment usecase.PaymentConfirmed, actor string) (*model.Order, error)
	Order(ctx context.Context, id int64, viewer model.Viewer) (*model.Order, error)
	OrderHistory(ctx context.Context, id int64, viewer model.Viewer) ([]model.StatusHistoryEntry, error)
	UpdateOrderStatus(ctx context.Context, id int64, upd usecase.StatusUpdate) (*model.Order, error)
	CancelOrder(ctx context.Context, id int64, reason, actor string) (*model.Order, error)
	MarkOrderPaid(ctx context.Context, id int64, reference, actor string) (*model.Order, error)
}

// ItemFacade handles sale-state changes reported by the catalog.
type ItemFacade interface {
	ItemSaleStateChanged(ctx context.Context, itemID int64, state model.SaleState, actor string) ([]model.Order, error)
}

// AtelierFacade aggregates the full set of operations used across handlers.
type AtelierFacade interface {
	ReservationFacade
	OrderFacade
	ItemFacade
}
