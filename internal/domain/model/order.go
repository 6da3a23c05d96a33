package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusPaid               OrderStatus = "paid"
	OrderStatusProcessingShipment OrderStatus = "processing_shipment"
	OrderStatusShipped            OrderStatus = "shipped"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusNeverDelivered     OrderStatus = "never_delivered"
	OrderStatusPendingReturn      OrderStatus = "pending_return"
	OrderStatusCancelled          OrderStatus = "cancelled"
)

// Contact is a snapshot of buyer contact details taken at checkout.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Address is an immutable shipping-address snapshot.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// LineItem is one purchased artwork.
type LineItem struct {
	ItemID    int64           `json:"item_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Amount returns unit price multiplied by quantity.
func (l LineItem) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a purchase of one or more unique items.
type Order struct {
	ID               int64
	Number           string
	HolderID         string
	SessionID        string
	PaymentReference *string
	Contact          Contact
	ShippingAddress  Address
	Items            []LineItem
	Subtotal         decimal.Decimal
	ShippingCost     decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
	Status           OrderStatus
	Carrier          *string
	TrackingNumber   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PaidAt           *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
}

// ItemIDs returns identifiers of all line items.
func (o Order) ItemIDs() []int64 {
	ids := make([]int64, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ItemID)
	}
	return ids
}

// Contains reports whether the order includes the item.
func (o Order) Contains(itemID int64) bool {
	for _, it := range o.Items {
		if it.ItemID == itemID {
			return true
		}
	}
	return false
}

// StatusHistoryEntry records one accepted transition.
type StatusHistoryEntry struct {
	ID         int64
	OrderID    int64
	StatusFrom *OrderStatus
	StatusTo   OrderStatus
	ChangedBy  string
	Note       string
	CreatedAt  time.Time
}

// StatusChange carries a compare-and-set transition with the optional fields it writes.
// Nil fields are left untouched in storage.
type StatusChange struct {
	OrderID          int64
	From             OrderStatus
	To               OrderStatus
	ChangedBy        string
	Note             string
	At               time.Time
	PaidAt           *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	Carrier          *string
	TrackingNumber   *string
	PaymentReference *string
}
