package repository

import (
	"context"

	"github.com/polkiloo/atelier/internal/domain/model"
)

// OrderRepository describes persistence operations with orders and their status history.
type OrderRepository interface {
	// Create allocates an order number and stores the order with its initial history row.
	Create(ctx context.Context, order *model.Order, changedBy string) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByPaymentReference(ctx context.Context, reference string) (*model.Order, error)
	ListOpenByItem(ctx context.Context, itemID int64, includeDelivered bool) ([]model.Order, error)
	// ApplyStatusChange performs a compare-and-set on status and appends history atomically.
	ApplyStatusChange(ctx context.Context, change model.StatusChange) (*model.Order, error)
	History(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error)
}
