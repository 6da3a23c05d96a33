package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/polkiloo/atelier/internal/adapter/catalog"
	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/domain/repository"
)

// CatalogSyncActor is recorded as changed_by for transitions driven by item changes.
const CatalogSyncActor = "catalog-sync"

// SyncCoordinator keeps order status and item sale-state consistent in both directions.
// Collaborator failures are logged and never abort the triggering change.
type SyncCoordinator struct {
	machine *StateMachine
	orders  repository.OrderRepository
	catalog catalog.Client
	logger  *slog.Logger
}

// NewSyncCoordinator constructs SyncCoordinator.
func NewSyncCoordinator(machine *StateMachine, orders repository.OrderRepository, catalog catalog.Client, logger *slog.Logger) *SyncCoordinator {
	return &SyncCoordinator{
		machine: machine,
		orders:  orders,
		catalog: catalog,
		logger:  logger,
	}
}

// OrderChanged pushes the sale-state implied by the order's status to each of its items.
func (s *SyncCoordinator) OrderChanged(ctx context.Context, order *model.Order) {
	s.propagate(ctx, order, 0)
}

func (s *SyncCoordinator) propagate(ctx context.Context, order *model.Order, skipItem int64) {
	state, ok := model.SaleStateForOrder(order.Status)
	if !ok {
		return
	}

	var buyer *model.Buyer
	if order.Status != model.OrderStatusCancelled {
		buyer = &model.Buyer{
			OrderNumber: order.Number,
			Name:        order.Contact.Name,
			Email:       order.Contact.Email,
		}
	}

	for _, itemID := range order.ItemIDs() {
		if itemID == skipItem {
			continue
		}
		if err := s.catalog.SetSaleState(ctx, itemID, state, buyer); err != nil {
			s.logger.Error("failed to sync item sale state",
				slog.Int64("order_id", order.ID),
				slog.Int64("item_id", itemID),
				slog.String("sale_state", string(state)),
				slog.Any("error", err))
		}
	}
}

// ItemStateChanged moves the open orders containing the item to the status implied by its
// new sale-state, then aligns their other items. It returns the orders that changed.
func (s *SyncCoordinator) ItemStateChanged(ctx context.Context, itemID int64, state model.SaleState, changedBy string) (_ []model.Order, err error) {
	ctx, span := startSpan(ctx, "sync.item_state_changed",
		attribute.Int64("item.id", itemID),
		attribute.String("item.sale_state", string(state)))
	defer func() { finishSpan(span, err) }()

	if itemID <= 0 {
		return nil, &domainErrors.ValidationError{Field: "item_id", Reason: "must be positive"}
	}
	if !state.Valid() {
		return nil, &domainErrors.ValidationError{Field: "sale_state", Reason: fmt.Sprintf("unknown sale state %q", state)}
	}
	target, ok := model.OrderStatusForSaleState(state)
	if !ok {
		return nil, nil
	}
	if changedBy == "" {
		changedBy = CatalogSyncActor
	}

	orders, err := s.orders.ListOpenByItem(ctx, itemID, target == model.OrderStatusPendingReturn)
	if err != nil {
		s.logger.Error("failed to load orders for item",
			slog.Int64("item_id", itemID),
			slog.Any("error", err))
		return nil, nil
	}

	note := fmt.Sprintf("item %d marked %s", itemID, state)
	var updated []model.Order
	for i := range orders {
		order := &orders[i]
		if order.Status == target {
			continue
		}
		if current, ok := model.SaleStateForOrder(order.Status); ok && current == state {
			// echo of a state this order already pushed to the catalog
			continue
		}
		upd := StatusUpdate{
			To:        target,
			ChangedBy: changedBy,
			Note:      note,
		}
		if order.Carrier != nil {
			upd.Carrier = *order.Carrier
		}
		if order.TrackingNumber != nil {
			upd.TrackingNumber = *order.TrackingNumber
		}

		next, changed, err := s.machine.Apply(ctx, order, upd)
		if err != nil {
			s.logger.Error("failed to apply item driven transition",
				slog.Int64("order_id", order.ID),
				slog.Int64("item_id", itemID),
				slog.String("to", string(target)),
				slog.Any("error", err))
			continue
		}
		if !changed {
			continue
		}
		s.propagate(ctx, next, itemID)
		updated = append(updated, *next)
	}
	return updated, nil
}
