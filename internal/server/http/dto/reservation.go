package dto

import "time"

// ItemRequest identifies a single item.
type ItemRequest struct {
	ItemID int64 `json:"item_id" binding:"required,gt=0"`
}

// HoldRequest asks to place or extend a hold. TTLSeconds is optional.
type HoldRequest struct {
	ItemID     int64 `json:"item_id" binding:"required,gt=0"`
	TTLSeconds int   `json:"ttl_seconds,omitempty" binding:"gte=0"`
}

// HoldResponse describes an active hold.
type HoldResponse struct {
	ItemID    int64     `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AvailabilityResponse describes an item from the caller's point of view.
type AvailabilityResponse struct {
	ItemID       int64  `json:"item_id"`
	Availability string `json:"availability"`
	Available    bool   `json:"available"`
}

// CartRequest lists the items a caller wants to check out.
type CartRequest struct {
	ItemIDs []int64 `json:"item_ids" binding:"required,min=1,dive,gt=0"`
}

// CartResponse confirms the cart and the new hold deadline.
type CartResponse struct {
	ItemIDs   []int64   `json:"item_ids"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UnavailableItem names one item that blocked checkout.
type UnavailableItem struct {
	ItemID int64  `json:"item_id"`
	Reason string `json:"reason"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Count int64 `json:"count"`
}
