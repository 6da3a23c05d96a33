package test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/domain/repository"
)

// ReservationRepositoryMemory keeps holds in a map keyed by item id, mirroring the
// primary key of the reservations table. All methods are safe for concurrent use.
type ReservationRepositoryMemory struct {
	mu    sync.Mutex
	Items map[int64]model.Reservation
	Err   error
}

// NewReservationRepositoryMemory constructs an empty store.
func NewReservationRepositoryMemory() *ReservationRepositoryMemory {
	return &ReservationRepositoryMemory{Items: make(map[int64]model.Reservation)}
}

// Put stores a hold as is, for arranging test fixtures.
func (s *ReservationRepositoryMemory) Put(r model.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Items[r.ItemID] = r
}

// Len returns the number of stored rows, lapsed or not.
func (s *ReservationRepositoryMemory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Items)
}

// Hold extends the caller's row or inserts a new one, purging a lapsed row first.
func (s *ReservationRepositoryMemory) Hold(ctx context.Context, r model.Reservation, now time.Time) (*model.Reservation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, false, s.Err
	}

	if existing, ok := s.Items[r.ItemID]; ok {
		if !existing.Active(now) {
			delete(s.Items, r.ItemID)
		} else if existing.OwnedBy(r.HolderID, r.SessionID) {
			existing.ExpiresAt = r.ExpiresAt
			s.Items[r.ItemID] = existing
			return &existing, false, nil
		} else {
			return nil, false, domainErrors.ErrConflict
		}
	}

	r.CreatedAt = now
	s.Items[r.ItemID] = r
	return &r, true, nil
}

// Get returns the active hold on the item.
func (s *ReservationRepositoryMemory) Get(ctx context.Context, itemID int64, now time.Time) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	r, ok := s.Items[itemID]
	if !ok || !r.Active(now) {
		return nil, domainErrors.ErrNotFound
	}
	return &r, nil
}

// ListByItems returns active holds on the listed items.
func (s *ReservationRepositoryMemory) ListByItems(ctx context.Context, itemIDs []int64, now time.Time) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Reservation
	for _, id := range itemIDs {
		if r, ok := s.Items[id]; ok && r.Active(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListByOwner returns the caller's active holds ordered by item id.
func (s *ReservationRepositoryMemory) ListByOwner(ctx context.Context, holderID, sessionID string, now time.Time) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Reservation
	for _, r := range s.Items {
		if r.Active(now) && r.OwnedBy(holderID, sessionID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// ExtendOwned moves expiry of all listed holds or none of them.
func (s *ReservationRepositoryMemory) ExtendOwned(ctx context.Context, itemIDs []int64, holderID, sessionID string, expiresAt, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var missing []int64
	for _, id := range itemIDs {
		r, ok := s.Items[id]
		if !ok || !r.Active(now) || !r.OwnedBy(holderID, sessionID) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return missing, domainErrors.ErrConflict
	}
	for _, id := range itemIDs {
		r := s.Items[id]
		r.ExpiresAt = expiresAt
		s.Items[id] = r
	}
	return nil, nil
}

// Delete removes the caller's hold on the item.
func (s *ReservationRepositoryMemory) Delete(ctx context.Context, itemID int64, holderID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	r, ok := s.Items[itemID]
	if !ok || !r.OwnedBy(holderID, sessionID) {
		return domainErrors.ErrNotFound
	}
	delete(s.Items, itemID)
	return nil
}

// DeleteByOwner removes every hold owned by the caller.
func (s *ReservationRepositoryMemory) DeleteByOwner(ctx context.Context, holderID, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, r := range s.Items {
		if r.OwnedBy(holderID, sessionID) {
			delete(s.Items, id)
			n++
		}
	}
	return n, nil
}

// DeleteOwnedItems removes the caller's holds on the listed items.
func (s *ReservationRepositoryMemory) DeleteOwnedItems(ctx context.Context, itemIDs []int64, holderID, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, id := range itemIDs {
		if r, ok := s.Items[id]; ok && r.OwnedBy(holderID, sessionID) {
			delete(s.Items, id)
			n++
		}
	}
	return n, nil
}

// DeleteExpired removes holds that lapsed strictly before the instant.
func (s *ReservationRepositoryMemory) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, r := range s.Items {
		if r.ExpiresAt.Before(before) {
			delete(s.Items, id)
			n++
		}
	}
	return n, nil
}

// OrderRepositoryMemory stores orders and history in memory with the same
// compare-and-set and uniqueness rules as the database.
type OrderRepositoryMemory struct {
	mu      sync.Mutex
	orders  map[int64]model.Order
	history map[int64][]model.StatusHistoryEntry
	nextID  int64
	histID  int64

	CreateErr error
	ApplyErr  error
}

// NewOrderRepositoryMemory constructs an empty store.
func NewOrderRepositoryMemory() *OrderRepositoryMemory {
	return &OrderRepositoryMemory{
		orders:  make(map[int64]model.Order),
		history: make(map[int64][]model.StatusHistoryEntry),
	}
}

func (s *OrderRepositoryMemory) appendHistory(orderID int64, from *model.OrderStatus, to model.OrderStatus, changedBy, note string, at time.Time) {
	s.histID++
	s.history[orderID] = append(s.history[orderID], model.StatusHistoryEntry{
		ID:         s.histID,
		OrderID:    orderID,
		StatusFrom: from,
		StatusTo:   to,
		ChangedBy:  changedBy,
		Note:       note,
		CreatedAt:  at,
	})
}

// Put stores an order fixture with its initial history row and returns its id.
func (s *OrderRepositoryMemory) Put(o model.Order) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	if o.Number == "" {
		o.Number = model.FormatOrderNumber(o.CreatedAt.Year(), int(o.ID))
	}
	s.orders[o.ID] = o
	s.appendHistory(o.ID, nil, o.Status, "fixture", "", o.CreatedAt)
	return o.ID
}

// Len returns the number of stored orders.
func (s *OrderRepositoryMemory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Create allocates the next number for the order's year and stores it.
func (s *OrderRepositoryMemory) Create(ctx context.Context, order *model.Order, changedBy string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	sold := make(map[int64]string)
	for _, o := range s.orders {
		if o.Status == model.OrderStatusCancelled {
			continue
		}
		for _, id := range order.ItemIDs() {
			if o.Contains(id) {
				sold[id] = string(model.AvailabilitySold)
			}
		}
	}
	if len(sold) > 0 {
		return nil, &domainErrors.UnavailableItemsError{Reasons: sold}
	}
	if order.PaymentReference != nil {
		for _, o := range s.orders {
			if o.PaymentReference != nil && *o.PaymentReference == *order.PaymentReference {
				return nil, domainErrors.ErrAlreadyExists
			}
		}
	}

	year := order.CreatedAt.Year()
	prefix := model.OrderNumberPrefix(year)
	highest, best := "", 0
	for _, o := range s.orders {
		if !strings.HasPrefix(o.Number, prefix) {
			continue
		}
		if seq, ok := model.OrderSequence(o.Number, year); ok && seq > best {
			highest, best = o.Number, seq
		}
	}

	created := *order
	s.nextID++
	created.ID = s.nextID
	created.Number = model.NextOrderNumber(highest, year)
	created.UpdatedAt = created.CreatedAt
	s.orders[created.ID] = created
	s.appendHistory(created.ID, nil, created.Status, changedBy, "order created", created.CreatedAt)
	return &created, nil
}

// GetByID returns a copy of the stored order.
func (s *OrderRepositoryMemory) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &o, nil
}

// GetByPaymentReference finds the order created for a payment.
func (s *OrderRepositoryMemory) GetByPaymentReference(ctx context.Context, reference string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentReference != nil && *o.PaymentReference == reference {
			return &o, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListOpenByItem returns non-cancelled orders containing the item ordered by id.
func (s *OrderRepositoryMemory) ListOpenByItem(ctx context.Context, itemID int64, includeDelivered bool) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, o := range s.orders {
		if !o.Contains(itemID) || o.Status == model.OrderStatusCancelled {
			continue
		}
		if o.Status == model.OrderStatusDelivered && !includeDelivered {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ApplyStatusChange updates status only when the stored status still matches change.From.
func (s *OrderRepositoryMemory) ApplyStatusChange(ctx context.Context, change model.StatusChange) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ApplyErr != nil {
		return nil, s.ApplyErr
	}
	o, ok := s.orders[change.OrderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if o.Status != change.From {
		return nil, domainErrors.ErrInvalidTransition
	}

	o.Status = change.To
	o.UpdatedAt = change.At
	if change.PaidAt != nil {
		o.PaidAt = change.PaidAt
	}
	if change.ShippedAt != nil {
		o.ShippedAt = change.ShippedAt
	}
	if change.DeliveredAt != nil {
		o.DeliveredAt = change.DeliveredAt
	}
	if change.Carrier != nil {
		o.Carrier = change.Carrier
	}
	if change.TrackingNumber != nil {
		o.TrackingNumber = change.TrackingNumber
	}
	if change.PaymentReference != nil {
		o.PaymentReference = change.PaymentReference
	}
	s.orders[o.ID] = o

	from := change.From
	s.appendHistory(o.ID, &from, change.To, change.ChangedBy, change.Note, change.At)
	return &o, nil
}

// History returns the order's transitions in insertion order.
func (s *OrderRepositoryMemory) History(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return nil, domainErrors.ErrNotFound
	}
	return append([]model.StatusHistoryEntry(nil), s.history[orderID]...), nil
}

var (
	_ repository.ReservationRepository = (*ReservationRepositoryMemory)(nil)
	_ repository.OrderRepository       = (*OrderRepositoryMemory)(nil)
)
