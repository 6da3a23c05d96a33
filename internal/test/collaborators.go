package test

import (
	"context"
	"sync"

	"github.com/polkiloo/atelier/internal/adapter/catalog"
	"github.com/polkiloo/atelier/internal/adapter/events"
	"github.com/polkiloo/atelier/internal/adapter/idempotency"
	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
)

// SaleStateCall records one SetSaleState invocation.
type SaleStateCall struct {
	ItemID int64
	State  model.SaleState
	Buyer  *model.Buyer
}

// CatalogStub keeps item sale-states in memory and records every mutation.
type CatalogStub struct {
	mu     sync.Mutex
	States map[int64]model.SaleState
	Calls  []SaleStateCall
	GetErr error
	SetErr error
}

// NewCatalogStub constructs a catalog with the given items.
func NewCatalogStub(states map[int64]model.SaleState) *CatalogStub {
	if states == nil {
		states = make(map[int64]model.SaleState)
	}
	return &CatalogStub{States: states}
}

// GetSaleState returns the stored state or not found.
func (s *CatalogStub) GetSaleState(ctx context.Context, itemID int64) (model.SaleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return "", s.GetErr
	}
	state, ok := s.States[itemID]
	if !ok {
		return "", domainErrors.ErrNotFound
	}
	return state, nil
}

// SetSaleState records the call and stores the state unless SetErr is configured.
func (s *CatalogStub) SetSaleState(ctx context.Context, itemID int64, state model.SaleState, buyer *model.Buyer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, SaleStateCall{ItemID: itemID, State: state, Buyer: buyer})
	if s.SetErr != nil {
		return s.SetErr
	}
	s.States[itemID] = state
	return nil
}

// State returns the current state of an item.
func (s *CatalogStub) State(itemID int64) model.SaleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.States[itemID]
}

// Recorded returns a copy of recorded mutations.
func (s *CatalogStub) Recorded() []SaleStateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SaleStateCall(nil), s.Calls...)
}

// PublisherStub collects published events.
type PublisherStub struct {
	mu     sync.Mutex
	Events []events.OrderStatusChanged
	Err    error
	Closed bool
}

// PublishStatusChanged stores the event and returns the configured error.
func (p *PublisherStub) PublishStatusChanged(ctx context.Context, event events.OrderStatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return p.Err
}

// Published returns a copy of collected events.
func (p *PublisherStub) Published() []events.OrderStatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.OrderStatusChanged(nil), p.Events...)
}

// Close marks the publisher closed.
func (p *PublisherStub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// GuardStub is an in-memory idempotency guard.
type GuardStub struct {
	mu      sync.Mutex
	Claimed map[string]bool
	Err     error
}

// Seen claims key and reports whether it was claimed before.
func (g *GuardStub) Seen(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return false, g.Err
	}
	if g.Claimed == nil {
		g.Claimed = make(map[string]bool)
	}
	if g.Claimed[key] {
		return true, nil
	}
	g.Claimed[key] = true
	return false, nil
}

// Forget drops a claim.
func (g *GuardStub) Forget(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.Claimed, key)
	return nil
}

// Close is a no-op.
func (g *GuardStub) Close() error { return nil }

var (
	_ catalog.Client    = (*CatalogStub)(nil)
	_ events.Publisher  = (*PublisherStub)(nil)
	_ idempotency.Guard = (*GuardStub)(nil)
)
