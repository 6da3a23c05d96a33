package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/polkiloo/atelier/internal/adapter/events"
	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/domain/repository"
)

// StatusUpdate is a requested order transition.
type StatusUpdate struct {
	To               model.OrderStatus
	ChangedBy        string
	Note             string
	Carrier          string
	TrackingNumber   string
	PaymentReference string
	// RequireFrom, when set, rejects the update unless the order is currently in that status.
	RequireFrom model.OrderStatus
}

// StateMachine validates and persists order transitions.
type StateMachine struct {
	orders    repository.OrderRepository
	publisher events.Publisher
	strict    bool
	logger    *slog.Logger
	now       func() time.Time
}

// NewStateMachine constructs StateMachine. Strict mode rejects transitions outside the table.
func NewStateMachine(orders repository.OrderRepository, publisher events.Publisher, strict bool, logger *slog.Logger) *StateMachine {
	return &StateMachine{
		orders:    orders,
		publisher: publisher,
		strict:    strict,
		logger:    logger,
		now:       time.Now,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (m *StateMachine) validate(order *model.Order, upd StatusUpdate) error {
	if !upd.To.Valid() {
		return &domainErrors.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", upd.To)}
	}
	if upd.RequireFrom != "" && order.Status != upd.RequireFrom {
		return fmt.Errorf("order %d is %s, expected %s: %w", order.ID, order.Status, upd.RequireFrom, domainErrors.ErrInvalidTransition)
	}
	if order.Status == upd.To {
		return nil
	}

	switch upd.To {
	case model.OrderStatusShipped:
		if strings.TrimSpace(upd.Carrier) == "" {
			return &domainErrors.ValidationError{Field: "carrier", Reason: "required for shipped orders"}
		}
		if strings.TrimSpace(upd.TrackingNumber) == "" {
			return &domainErrors.ValidationError{Field: "tracking_number", Reason: "required for shipped orders"}
		}
	case model.OrderStatusPendingReturn:
		if strings.TrimSpace(upd.Note) == "" {
			return &domainErrors.ValidationError{Field: "note", Reason: "return reason required"}
		}
	}

	if !model.CanTransition(order.Status, upd.To) {
		if m.strict {
			return fmt.Errorf("%s -> %s: %w", order.Status, upd.To, domainErrors.ErrInvalidTransition)
		}
		m.logger.Warn("transition outside the usual flow",
			slog.Int64("order_id", order.ID),
			slog.String("from", string(order.Status)),
			slog.String("to", string(upd.To)),
			slog.String("changed_by", upd.ChangedBy))
	}
	return nil
}

// Apply moves the order to the requested status. The second result is false when the order
// already had that status and nothing was written.
func (m *StateMachine) Apply(ctx context.Context, order *model.Order, upd StatusUpdate) (_ *model.Order, _ bool, err error) {
	ctx, span := startSpan(ctx, "order.apply_status",
		attribute.Int64("order.id", order.ID),
		attribute.String("order.status.from", string(order.Status)),
		attribute.String("order.status.to", string(upd.To)))
	defer func() { finishSpan(span, err) }()

	if err := m.validate(order, upd); err != nil {
		return nil, false, err
	}
	if order.Status == upd.To {
		return order, false, nil
	}

	now := m.now()
	change := model.StatusChange{
		OrderID:          order.ID,
		From:             order.Status,
		To:               upd.To,
		ChangedBy:        upd.ChangedBy,
		Note:             upd.Note,
		At:               now,
		PaymentReference: optional(upd.PaymentReference),
	}
	switch upd.To {
	case model.OrderStatusPaid:
		change.PaidAt = &now
	case model.OrderStatusShipped:
		change.ShippedAt = &now
		change.Carrier = optional(upd.Carrier)
		change.TrackingNumber = optional(upd.TrackingNumber)
	case model.OrderStatusDelivered:
		change.DeliveredAt = &now
	}

	updated, err := m.orders.ApplyStatusChange(ctx, change)
	if err != nil {
		return nil, false, err
	}

	m.logger.Info("order status changed",
		slog.Int64("order_id", updated.ID),
		slog.String("number", updated.Number),
		slog.String("from", string(change.From)),
		slog.String("to", string(change.To)),
		slog.String("changed_by", change.ChangedBy))

	event := events.OrderStatusChanged{
		OrderID:   updated.ID,
		Number:    updated.Number,
		From:      change.From,
		To:        change.To,
		ChangedBy: change.ChangedBy,
		Note:      change.Note,
		At:        now,
	}
	if err := m.publisher.PublishStatusChanged(ctx, event); err != nil {
		m.logger.Error("failed to publish order event",
			slog.Int64("order_id", updated.ID),
			slog.Any("error", err))
	}
	return updated, true, nil
}
