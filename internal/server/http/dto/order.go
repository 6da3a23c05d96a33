package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContactPayload is the buyer contact snapshot.
type ContactPayload struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// AddressPayload is the shipping address snapshot.
type AddressPayload struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// LineItemPayload is one purchased item.
type LineItemPayload struct {
	ItemID    int64           `json:"item_id" binding:"required,gt=0"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest is the payment-confirmed event delivered by the payment collaborator.
type CreateOrderRequest struct {
	PaymentReference string            `json:"payment_reference"`
	HolderID         string            `json:"holder_id"`
	SessionID        string            `json:"session_id"`
	Contact          ContactPayload    `json:"contact"`
	ShippingAddress  AddressPayload    `json:"shipping_address"`
	Items            []LineItemPayload `json:"items" binding:"required,min=1,dive"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	ShippingCost     decimal.Decimal   `json:"shipping_cost"`
	Tax              decimal.Decimal   `json:"tax"`
	Total            decimal.Decimal   `json:"total"`
}

// OrderResponse is the public representation of an order.
type OrderResponse struct {
	ID               int64             `json:"id"`
	Number           string            `json:"number"`
	Status           string            `json:"status"`
	PaymentReference *string           `json:"payment_reference,omitempty"`
	Contact          ContactPayload    `json:"contact"`
	ShippingAddress  AddressPayload    `json:"shipping_address"`
	Items            []LineItemPayload `json:"items"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	ShippingCost     decimal.Decimal   `json:"shipping_cost"`
	Tax              decimal.Decimal   `json:"tax"`
	Total            decimal.Decimal   `json:"total"`
	Carrier          *string           `json:"carrier,omitempty"`
	TrackingNumber   *string           `json:"tracking_number,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	ShippedAt        *time.Time        `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time        `json:"delivered_at,omitempty"`
}

// StatusRequest asks for an order transition.
type StatusRequest struct {
	Status         string `json:"status"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Note           string `json:"note,omitempty"`
}

// CancelRequest carries the cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// MarkPaidRequest carries the payment reference.
type MarkPaidRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
}

// HistoryEntryResponse is one recorded transition.
type HistoryEntryResponse struct {
	From      *string   `json:"from"`
	To        string    `json:"to"`
	ChangedBy string    `json:"changed_by"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SaleStateRequest reports an item sale-state change made in the catalog.
type SaleStateRequest struct {
	SaleState string `json:"sale_state"`
}

// SyncResponse lists orders moved by an item change.
type SyncResponse struct {
	Orders []OrderResponse `json:"orders"`
}
