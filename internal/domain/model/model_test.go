package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusValues(t *testing.T) {
	cases := []struct {
		got   OrderStatus
		value string
	}{
		{OrderStatusPending, "pending"},
		{OrderStatusPaid, "paid"},
		{OrderStatusProcessingShipment, "processing_shipment"},
		{OrderStatusShipped, "shipped"},
		{OrderStatusDelivered, "delivered"},
		{OrderStatusNeverDelivered, "never_delivered"},
		{OrderStatusPendingReturn, "pending_return"},
		{OrderStatusCancelled, "cancelled"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.value, string(tc.got))
		assert.True(t, tc.got.Valid(), "status %s should be valid", tc.got)
	}
	assert.False(t, OrderStatus("refunded").Valid())
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]OrderStatus{
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusPaid, OrderStatusProcessingShipment},
		{OrderStatusProcessingShipment, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusNeverDelivered},
		{OrderStatusShipped, OrderStatusPendingReturn},
		{OrderStatusPendingReturn, OrderStatusCancelled},
		{OrderStatusNeverDelivered, OrderStatusProcessingShipment},
		{OrderStatusNeverDelivered, OrderStatusCancelled},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusCancelled},
		{OrderStatusProcessingShipment, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusPendingReturn},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	rejected := [][2]OrderStatus{
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusCancelled, OrderStatusPending},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusCancelled},
	}
	for _, tr := range rejected {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusShipped.Terminal())
}

func TestSaleStateMappings(t *testing.T) {
	expected := map[OrderStatus]SaleState{
		OrderStatusPaid:               SaleStateProcessingShipment,
		OrderStatusProcessingShipment: SaleStateProcessingShipment,
		OrderStatusShipped:            SaleStateShipped,
		OrderStatusDelivered:          SaleStateDelivered,
		OrderStatusNeverDelivered:     SaleStateNeverDelivered,
		OrderStatusPendingReturn:      SaleStatePendingReturn,
		OrderStatusCancelled:          SaleStateAvailable,
	}
	for status, state := range expected {
		got, ok := SaleStateForOrder(status)
		require.True(t, ok, status)
		assert.Equal(t, state, got)
	}
	_, ok := SaleStateForOrder(OrderStatusPending)
	assert.False(t, ok)

	status, ok := OrderStatusForSaleState(SaleStateAvailable)
	require.True(t, ok)
	assert.Equal(t, OrderStatusCancelled, status)
	_, ok = OrderStatusForSaleState(SaleStateInCart)
	assert.False(t, ok)

	for _, s := range []SaleState{SaleStateShipped, SaleStateDelivered, SaleStateNeverDelivered, SaleStatePendingReturn, SaleStateProcessingShipment} {
		status, ok := OrderStatusForSaleState(s)
		require.True(t, ok)
		back, ok := SaleStateForOrder(status)
		require.True(t, ok)
		assert.Equal(t, s, back)
	}
	assert.False(t, SaleState("lost").Valid())
}

func TestOrderNumbers(t *testing.T) {
	assert.Equal(t, "ORD-2025-0001", FormatOrderNumber(2025, 1))
	assert.Equal(t, "ORD-2025-0001", NextOrderNumber("", 2025))
	assert.Equal(t, "ORD-2025-0043", NextOrderNumber("ORD-2025-0042", 2025))
	assert.Equal(t, "ORD-2026-0001", NextOrderNumber("ORD-2025-0042", 2026))
	assert.Equal(t, "ORD-2025-10000", NextOrderNumber("ORD-2025-9999", 2025))

	_, ok := OrderSequence("ORD-2025-abc", 2025)
	assert.False(t, ok)
}

func TestReservationOwnership(t *testing.T) {
	now := time.Now()
	r := Reservation{ItemID: 1, HolderID: "u1", SessionID: "s1", ExpiresAt: now.Add(time.Minute)}
	assert.True(t, r.Active(now))
	assert.False(t, r.Active(now.Add(2*time.Minute)))
	assert.True(t, r.OwnedBy("u1", ""))
	assert.True(t, r.OwnedBy("", "s1"))
	assert.False(t, r.OwnedBy("", ""))

	anon := Reservation{ItemID: 2, SessionID: "s2"}
	assert.False(t, anon.OwnedBy("", ""), "empty ids must never match")
}

func TestSubtotalAndTolerance(t *testing.T) {
	items := []LineItem{
		{ItemID: 1, UnitPrice: decimal.RequireFromString("120.50"), Quantity: 1},
		{ItemID: 2, UnitPrice: decimal.RequireFromString("10.25"), Quantity: 2},
	}
	assert.True(t, Subtotal(items).Equal(decimal.RequireFromString("141.00")))
	assert.True(t, WithinTolerance(decimal.RequireFromString("10.00"), decimal.RequireFromString("10.01")))
	assert.False(t, WithinTolerance(decimal.RequireFromString("10.00"), decimal.RequireFromString("10.02")))
}

func TestIdentityAndViewer(t *testing.T) {
	assert.True(t, Identity{}.Empty())
	assert.False(t, Identity{SessionID: "s"}.Empty())

	order := Order{HolderID: "alice", SessionID: "cart-1"}
	assert.True(t, Viewer{Admin: true}.CanView(order))
	assert.True(t, Viewer{Identity: Identity{HolderID: "alice"}}.CanView(order))
	assert.True(t, Viewer{Identity: Identity{SessionID: "cart-1"}}.CanView(order))
	assert.False(t, Viewer{Identity: Identity{HolderID: "bob"}}.CanView(order))
	assert.False(t, Viewer{}.CanView(Order{}))
}
