package model

var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:            {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:               {OrderStatusProcessingShipment, OrderStatusCancelled},
	OrderStatusProcessingShipment: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:            {OrderStatusDelivered, OrderStatusNeverDelivered, OrderStatusPendingReturn},
	OrderStatusDelivered:          {OrderStatusPendingReturn},
	OrderStatusPendingReturn:      {OrderStatusCancelled},
	OrderStatusNeverDelivered:     {OrderStatusProcessingShipment, OrderStatusCancelled},
	OrderStatusCancelled:          nil,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether no further transition is expected in normal flow.
// Delivered orders can still move to pending_return.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition reports whether from -> to is part of the intended flow.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SaleStateForOrder maps an order status to the sale-state its items should carry.
// The second result is false when the status implies no item mutation.
func SaleStateForOrder(status OrderStatus) (SaleState, bool) {
	switch status {
	case OrderStatusPaid, OrderStatusProcessingShipment:
		return SaleStateProcessingShipment, true
	case OrderStatusShipped:
		return SaleStateShipped, true
	case OrderStatusDelivered:
		return SaleStateDelivered, true
	case OrderStatusNeverDelivered:
		return SaleStateNeverDelivered, true
	case OrderStatusPendingReturn:
		return SaleStatePendingReturn, true
	case OrderStatusCancelled:
		return SaleStateAvailable, true
	}
	return "", false
}

// OrderStatusForSaleState is the inverse mapping used when the catalog changes an item directly.
func OrderStatusForSaleState(state SaleState) (OrderStatus, bool) {
	switch state {
	case SaleStateAvailable:
		return OrderStatusCancelled, true
	case SaleStateProcessingShipment:
		return OrderStatusProcessingShipment, true
	case SaleStateShipped:
		return OrderStatusShipped, true
	case SaleStateDelivered:
		return OrderStatusDelivered, true
	case SaleStateNeverDelivered:
		return OrderStatusNeverDelivered, true
	case SaleStatePendingReturn:
		return OrderStatusPendingReturn, true
	}
	return "", false
}
