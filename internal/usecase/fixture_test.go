package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/test"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fixture struct {
	clock        *fakeClock
	reservations *test.ReservationRepositoryMemory
	orders       *test.OrderRepositoryMemory
	catalog      *test.CatalogStub
	publisher    *test.PublisherStub
	guard        *test.GuardStub

	holds   *ReservationUseCase
	machine *StateMachine
	sync    *SyncCoordinator
	order   *OrderUseCase
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	strict      bool
	sweepOnRead bool
}

func strictTransitions() fixtureOption {
	return func(c *fixtureConfig) { c.strict = true }
}

func sweepOnRead() fixtureOption {
	return func(c *fixtureConfig) { c.sweepOnRead = true }
}

var fixtureStart = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

func newFixture(states map[int64]model.SaleState, opts ...fixtureOption) *fixture {
	var cfg fixtureConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &fixture{
		clock:        newFakeClock(fixtureStart),
		reservations: test.NewReservationRepositoryMemory(),
		orders:       test.NewOrderRepositoryMemory(),
		catalog:      test.NewCatalogStub(states),
		publisher:    &test.PublisherStub{},
		guard:        &test.GuardStub{},
	}
	logger := discardLogger()

	f.holds = NewReservationUseCase(f.reservations, f.catalog, ReservationConfig{
		HoldTTL:       15 * time.Minute,
		CheckoutGrace: 10 * time.Minute,
		SweepOnRead:   cfg.sweepOnRead,
	}, logger)
	f.holds.now = f.clock.Now

	f.machine = NewStateMachine(f.orders, f.publisher, cfg.strict, logger)
	f.machine.now = f.clock.Now

	f.sync = NewSyncCoordinator(f.machine, f.orders, f.catalog, logger)
	f.order = NewOrderUseCase(f.orders, f.machine, f.sync, f.holds, f.guard, logger)
	return f
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func payment(reference string, items ...model.LineItem) PaymentConfirmed {
	subtotal := model.Subtotal(items)
	shipping := money("15.00")
	tax := money("8.00")
	return PaymentConfirmed{
		Reference: reference,
		HolderID:  "alice",
		Contact:   model.Contact{Name: "Alice", Email: "alice@example.com"},
		ShippingAddress: model.Address{
			Name: "Alice", Line1: "1 Gallery Row", City: "Lyon", PostalCode: "69001", Country: "FR",
		},
		Items:        items,
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Add(shipping).Add(tax),
	}
}

func line(itemID int64, price string) model.LineItem {
	return model.LineItem{ItemID: itemID, Title: "Study", UnitPrice: money(price), Quantity: 1}
}

func (f *fixture) placeOrder(status model.OrderStatus, items ...int64) *model.Order {
	lines := make([]model.LineItem, 0, len(items))
	for _, id := range items {
		lines = append(lines, line(id, "100.00"))
	}
	id := f.orders.Put(model.Order{
		HolderID:  "alice",
		Contact:   model.Contact{Name: "Alice", Email: "alice@example.com"},
		Items:     lines,
		Status:    status,
		CreatedAt: f.clock.Now(),
	})
	order, _ := f.orders.GetByID(context.Background(), id)
	return order
}
