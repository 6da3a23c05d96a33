package model

// SaleState is the catalog's authoritative status of a unique item.
type SaleState string

const (
	SaleStateAvailable          SaleState = "available"
	SaleStateInCart             SaleState = "in_cart"
	SaleStateProcessingShipment SaleState = "processing_shipment"
	SaleStateShipped            SaleState = "shipped"
	SaleStateDelivered          SaleState = "delivered"
	SaleStatePendingReturn      SaleState = "pending_return"
	SaleStateNeverDelivered     SaleState = "never_delivered"
)

// Valid reports whether s is a known sale-state.
func (s SaleState) Valid() bool {
	switch s {
	case SaleStateAvailable, SaleStateInCart, SaleStateProcessingShipment, SaleStateShipped,
		SaleStateDelivered, SaleStatePendingReturn, SaleStateNeverDelivered:
		return true
	}
	return false
}

// Buyer is attached to sale-state updates so the catalog can show who bought an item.
type Buyer struct {
	OrderNumber string
	Name        string
	Email       string
}
