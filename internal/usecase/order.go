package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/polkiloo/atelier/internal/adapter/idempotency"
	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/domain/repository"
)

// PaymentConfirmed is the event the payment collaborator delivers once a charge succeeds.
type PaymentConfirmed struct {
	Reference       string
	HolderID        string
	SessionID       string
	Contact         model.Contact
	ShippingAddress model.Address
	Items           []model.LineItem
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
}

// OrderUseCase contains business logic for order creation and fulfillment.
type OrderUseCase struct {
	orders       repository.OrderRepository
	machine      *StateMachine
	sync         *SyncCoordinator
	reservations *ReservationUseCase
	guard        idempotency.Guard
	logger       *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(
	orders repository.OrderRepository,
	machine *StateMachine,
	sync *SyncCoordinator,
	reservations *ReservationUseCase,
	guard idempotency.Guard,
	logger *slog.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orders:       orders,
		machine:      machine,
		sync:         sync,
		reservations: reservations,
		guard:        guard,
		logger:       logger,
	}
}

func validatePayment(p PaymentConfirmed) error {
	if len(p.Items) == 0 {
		return &domainErrors.ValidationError{Field: "items", Reason: "must not be empty"}
	}
	seen := make(map[int64]struct{}, len(p.Items))
	for _, it := range p.Items {
		if it.ItemID <= 0 {
			return &domainErrors.ValidationError{Field: "items.item_id", Reason: "must be positive"}
		}
		if it.Quantity < 1 {
			return &domainErrors.ValidationError{Field: "items.quantity", Reason: "must be at least 1"}
		}
		if it.UnitPrice.IsNegative() {
			return &domainErrors.ValidationError{Field: "items.unit_price", Reason: "must not be negative"}
		}
		if _, dup := seen[it.ItemID]; dup {
			return &domainErrors.ValidationError{Field: "items.item_id", Reason: fmt.Sprintf("item %d listed twice", it.ItemID)}
		}
		seen[it.ItemID] = struct{}{}
	}
	if strings.TrimSpace(p.Contact.Name) == "" {
		return &domainErrors.ValidationError{Field: "contact.name", Reason: "required"}
	}
	if !strings.Contains(p.Contact.Email, "@") {
		return &domainErrors.ValidationError{Field: "contact.email", Reason: "must be an email address"}
	}

	if !model.WithinTolerance(model.Subtotal(p.Items), p.Subtotal) {
		return fmt.Errorf("subtotal %s does not match line items: %w", p.Subtotal.StringFixed(2), domainErrors.ErrInconsistent)
	}
	if !model.WithinTolerance(p.Subtotal.Add(p.ShippingCost).Add(p.Tax), p.Total) {
		return fmt.Errorf("total %s does not match subtotal, shipping and tax: %w", p.Total.StringFixed(2), domainErrors.ErrInconsistent)
	}
	return nil
}

// CreateOrder records a confirmed purchase. A replay of the same payment reference
// returns the order created the first time.
func (u *OrderUseCase) CreateOrder(ctx context.Context, p PaymentConfirmed, actor string) (_ *model.Order, err error) {
	ctx, span := startSpan(ctx, "order.create", attribute.Int("order.items", len(p.Items)))
	defer func() { finishSpan(span, err) }()

	p.Reference = strings.TrimSpace(p.Reference)
	if err := validatePayment(p); err != nil {
		return nil, err
	}

	if p.Reference != "" {
		seen, err := u.guard.Seen(ctx, idempotency.PaymentKey(p.Reference))
		if err != nil {
			u.logger.Warn("idempotency guard unavailable", slog.Any("error", err))
		}
		if seen {
			existing, err := u.orders.GetByPaymentReference(ctx, p.Reference)
			switch {
			case err == nil:
				return u.finishPayment(ctx, existing, p.Reference, actor)
			case !errors.Is(err, domainErrors.ErrNotFound):
				return nil, err
			}
			// claimed but never stored: a previous attempt failed after the claim.
		}
	}

	order := &model.Order{
		HolderID:         p.HolderID,
		SessionID:        p.SessionID,
		PaymentReference: optional(p.Reference),
		Contact:          p.Contact,
		ShippingAddress:  p.ShippingAddress,
		Items:            p.Items,
		Subtotal:         p.Subtotal,
		ShippingCost:     p.ShippingCost,
		Tax:              p.Tax,
		Total:            p.Total,
		Status:           model.OrderStatusPending,
		CreatedAt:        u.machine.now(),
	}

	buyer := model.Identity{HolderID: p.HolderID, SessionID: p.SessionID}
	if err := u.reservations.VerifyPurchase(ctx, order.ItemIDs(), buyer); err != nil {
		return u.settleFailure(ctx, p.Reference, actor, err)
	}

	created, err := u.orders.Create(ctx, order, actor)
	if err != nil {
		return u.settleFailure(ctx, p.Reference, actor, err)
	}

	u.logger.Info("order created",
		slog.Int64("order_id", created.ID),
		slog.String("number", created.Number),
		slog.String("total", created.Total.StringFixed(2)))

	if _, err := u.reservations.ReleaseOwned(ctx, created.ItemIDs(), buyer); err != nil {
		u.logger.Error("failed to release purchased holds",
			slog.Int64("order_id", created.ID),
			slog.Any("error", err))
	}

	return u.finishPayment(ctx, created, p.Reference, actor)
}

// settleFailure resolves a purchase that could not be stored. When the reference already
// has an order the payment is a replay and that order is returned; otherwise the
// idempotency claim is dropped so the payment can be retried.
func (u *OrderUseCase) settleFailure(ctx context.Context, reference, actor string, cause error) (*model.Order, error) {
	if reference == "" {
		return nil, cause
	}
	existing, err := u.orders.GetByPaymentReference(ctx, reference)
	if err == nil {
		return u.finishPayment(ctx, existing, reference, actor)
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		u.logger.Warn("payment reference lookup failed", slog.Any("error", err))
	}
	if forgetErr := u.guard.Forget(ctx, idempotency.PaymentKey(reference)); forgetErr != nil {
		u.logger.Warn("failed to drop idempotency claim", slog.Any("error", forgetErr))
	}
	return nil, cause
}

// finishPayment marks a freshly created or replayed order paid when a payment reference is known.
func (u *OrderUseCase) finishPayment(ctx context.Context, order *model.Order, reference, actor string) (*model.Order, error) {
	if reference == "" || order.Status != model.OrderStatusPending {
		return order, nil
	}
	return u.markPaid(ctx, order, reference, actor)
}

func (u *OrderUseCase) markPaid(ctx context.Context, order *model.Order, reference, actor string) (*model.Order, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, &domainErrors.ValidationError{Field: "payment_reference", Reason: "required"}
	}
	return u.transition(ctx, order, StatusUpdate{
		To:               model.OrderStatusPaid,
		ChangedBy:        actor,
		Note:             "payment confirmed",
		PaymentReference: reference,
		RequireFrom:      model.OrderStatusPending,
	})
}

func (u *OrderUseCase) transition(ctx context.Context, order *model.Order, upd StatusUpdate) (*model.Order, error) {
	updated, changed, err := u.machine.Apply(ctx, order, upd)
	if err != nil {
		return nil, err
	}
	if changed {
		u.sync.OrderChanged(ctx, updated)
	}
	return updated, nil
}

// GetOrder returns the order if the viewer may read it.
func (u *OrderUseCase) GetOrder(ctx context.Context, id int64, viewer model.Viewer) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.CanView(*order) {
		return nil, domainErrors.ErrForbidden
	}
	return order, nil
}

// History returns the order's transitions in chronological order.
func (u *OrderUseCase) History(ctx context.Context, id int64, viewer model.Viewer) ([]model.StatusHistoryEntry, error) {
	if _, err := u.GetOrder(ctx, id, viewer); err != nil {
		return nil, err
	}
	return u.orders.History(ctx, id)
}

// UpdateStatus applies an operator requested transition.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, id int64, upd StatusUpdate) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.transition(ctx, order, upd)
}

// Cancel moves the order to cancelled with the reason recorded in history.
func (u *OrderUseCase) Cancel(ctx context.Context, id int64, reason, actor string) (*model.Order, error) {
	return u.UpdateStatus(ctx, id, StatusUpdate{
		To:        model.OrderStatusCancelled,
		ChangedBy: actor,
		Note:      reason,
	})
}

// MarkPaid records payment for a pending order.
func (u *OrderUseCase) MarkPaid(ctx context.Context, id int64, reference, actor string) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.markPaid(ctx, order, reference, actor)
}

// ItemStateChanged handles a sale-state change reported by the catalog.
func (u *OrderUseCase) ItemStateChanged(ctx context.Context, itemID int64, state model.SaleState, actor string) ([]model.Order, error) {
	return u.sync.ItemStateChanged(ctx, itemID, state, actor)
}
