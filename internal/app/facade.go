package app

import (
	"context"
	"time"

	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/usecase"
)

// AtelierFacade exposes reservation and order use cases to transport and workers.
type AtelierFacade struct {
	reservations *usecase.ReservationUseCase
	orders       *usecase.OrderUseCase
}

func NewAtelierFacade(reservations *usecase.ReservationUseCase, orders *usecase.OrderUseCase) *AtelierFacade {
	return &AtelierFacade{reservations: reservations, orders: orders}
}

func (f *AtelierFacade) HoldItem(ctx context.Context, itemID int64, who model.Identity, ttl time.Duration) (*model.Reservation, error) {
	return f.reservations.Hold(ctx, itemID, who, ttl)
}

func (f *AtelierFacade) ReleaseHold(ctx context.Context, itemID int64, who model.Identity) error {
	return f.reservations.Release(ctx, itemID, who)
}

func (f *AtelierFacade) CheckAvailability(ctx context.Context, itemID int64, who model.Identity) (model.Availability, error) {
	return f.reservations.CheckAvailability(ctx, itemID, who)
}

func (f *AtelierFacade) ValidateCart(ctx context.Context, itemIDs []int64, who model.Identity) (*usecase.CartValidation, error) {
	return f.reservations.ValidateCart(ctx, itemIDs, who)
}

func (f *AtelierFacade) MyHolds(ctx context.Context, who model.Identity) ([]model.Reservation, error) {
	return f.reservations.ListHolds(ctx, who)
}

func (f *AtelierFacade) ReleaseAll(ctx context.Context, who model.Identity) (int64, error) {
	return f.reservations.ReleaseAll(ctx, who)
}

func (f *AtelierFacade) SweepExpired(ctx context.Context) (int64, error) {
	return f.reservations.Sweep(ctx)
}

func (f *AtelierFacade) CreateOrder(ctx context.Context, payment usecase.PaymentConfirmed, actor string) (*model.Order, error) {
	return f.orders.CreateOrder(ctx, payment, actor)
}

func (f *AtelierFacade) Order(ctx context.Context, id int64, viewer model.Viewer) (*model.Order, error) {
	return f.orders.GetOrder(ctx, id, viewer)
}

func (f *AtelierFacade) OrderHistory(ctx context.Context, id int64, viewer model.Viewer) ([]model.StatusHistoryEntry, error) {
	return f.orders.History(ctx, id, viewer)
}

func (f *AtelierFacade) UpdateOrderStatus(ctx context.Context, id int64, upd usecase.StatusUpdate) (*model.Order, error) {
	return f.orders.UpdateStatus(ctx, id, upd)
}

func (f *AtelierFacade) CancelOrder(ctx context.Context, id int64, reason, actor string) (*model.Order, error) {
	return f.orders.Cancel(ctx, id, reason, actor)
}

func (f *AtelierFacade) MarkOrderPaid(ctx context.Context, id int64, reference, actor string) (*model.Order, error) {
	return f.orders.MarkPaid(ctx, id, reference, actor)
}

func (f *AtelierFacade) ItemSaleStateChanged(ctx context.Context, itemID int64, state model.SaleState, actor string) ([]model.Order, error) {
	return f.orders.ItemStateChanged(ctx, itemID, state, actor)
}
