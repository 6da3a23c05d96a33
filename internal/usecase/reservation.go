package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/polkiloo/atelier/internal/adapter/catalog"
	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/domain/repository"
)

const (
	reasonNotFound    = "not_found"
	reasonHoldExpired = "hold_expired"
)

// ReservationConfig tunes hold lifetimes.
type ReservationConfig struct {
	HoldTTL       time.Duration
	CheckoutGrace time.Duration
	// SweepOnRead purges lapsed holds before an availability answer is shown to a shopper.
	SweepOnRead bool
}

// CartValidation is the outcome of a successful checkout gate.
type CartValidation struct {
	ItemIDs   []int64
	Extended  []int64
	ExpiresAt time.Time
}

// ReservationUseCase manages cart holds on unique items.
type ReservationUseCase struct {
	reservations repository.ReservationRepository
	catalog      catalog.Client
	cfg          ReservationConfig
	logger       *slog.Logger
	now          func() time.Time
}

// NewReservationUseCase constructs ReservationUseCase.
func NewReservationUseCase(reservations repository.ReservationRepository, catalog catalog.Client, cfg ReservationConfig, logger *slog.Logger) *ReservationUseCase {
	return &ReservationUseCase{
		reservations: reservations,
		catalog:      catalog,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func requireIdentity(who model.Identity) error {
	if who.Empty() {
		return &domainErrors.ValidationError{Field: "holder_id", Reason: "holder or session id required"}
	}
	return nil
}

func requireItemID(itemID int64) error {
	if itemID <= 0 {
		return &domainErrors.ValidationError{Field: "item_id", Reason: "must be positive"}
	}
	return nil
}

// Hold claims the item for the caller or extends the caller's existing hold.
// A non-positive ttl falls back to the configured default.
func (u *ReservationUseCase) Hold(ctx context.Context, itemID int64, who model.Identity, ttl time.Duration) (_ *model.Reservation, err error) {
	ctx, span := startSpan(ctx, "reservation.hold", attribute.Int64("item.id", itemID))
	defer func() { finishSpan(span, err) }()

	if err := requireItemID(itemID); err != nil {
		return nil, err
	}
	if err := requireIdentity(who); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = u.cfg.HoldTTL
	}

	state, err := u.catalog.GetSaleState(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if state != model.SaleStateAvailable {
		return nil, fmt.Errorf("item %d is %s: %w", itemID, state, domainErrors.ErrItemUnavailable)
	}

	now := u.now()
	res, created, err := u.reservations.Hold(ctx, model.Reservation{
		ItemID:    itemID,
		HolderID:  who.HolderID,
		SessionID: who.SessionID,
		ExpiresAt: now.Add(ttl),
	}, now)
	if err != nil {
		if errors.Is(err, domainErrors.ErrConflict) {
			return nil, fmt.Errorf("item %d is held by another buyer: %w", itemID, domainErrors.ErrConflict)
		}
		return nil, err
	}

	u.logger.Debug("hold placed",
		slog.Int64("item_id", itemID),
		slog.Bool("created", created),
		slog.Time("expires_at", res.ExpiresAt))
	return res, nil
}

// Release drops the caller's hold on the item.
func (u *ReservationUseCase) Release(ctx context.Context, itemID int64, who model.Identity) (err error) {
	ctx, span := startSpan(ctx, "reservation.release", attribute.Int64("item.id", itemID))
	defer func() { finishSpan(span, err) }()

	if err := requireItemID(itemID); err != nil {
		return err
	}
	if err := requireIdentity(who); err != nil {
		return err
	}
	return u.reservations.Delete(ctx, itemID, who.HolderID, who.SessionID)
}

// CheckAvailability classifies the item for the caller.
func (u *ReservationUseCase) CheckAvailability(ctx context.Context, itemID int64, who model.Identity) (_ model.Availability, err error) {
	ctx, span := startSpan(ctx, "reservation.check_availability", attribute.Int64("item.id", itemID))
	defer func() { finishSpan(span, err) }()

	if err := requireItemID(itemID); err != nil {
		return "", err
	}
	if u.cfg.SweepOnRead {
		if _, err := u.Sweep(ctx); err != nil {
			u.logger.Warn("opportunistic sweep failed", slog.Any("error", err))
		}
	}

	state, err := u.catalog.GetSaleState(ctx, itemID)
	if err != nil {
		return "", err
	}

	var hold *model.Reservation
	res, err := u.reservations.Get(ctx, itemID, u.now())
	switch {
	case err == nil:
		hold = res
	case !errors.Is(err, domainErrors.ErrNotFound):
		return "", err
	}

	return classify(state, hold, who), nil
}

// classify combines catalog sale-state and the active hold, if any, into the caller's view.
func classify(state model.SaleState, hold *model.Reservation, who model.Identity) model.Availability {
	switch state {
	case model.SaleStateAvailable, model.SaleStateInCart:
	default:
		return model.AvailabilitySold
	}
	if hold != nil {
		if hold.OwnedBy(who.HolderID, who.SessionID) {
			return model.AvailabilityHeldByYou
		}
		return model.AvailabilityHeldByOther
	}
	if state == model.SaleStateInCart {
		return model.AvailabilityHeldByOther
	}
	return model.AvailabilityAvailable
}

func uniqueItemIDs(itemIDs []int64) []int64 {
	seen := make(map[int64]struct{}, len(itemIDs))
	out := make([]int64, 0, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ValidateCart gates checkout: every item must be available to the caller or nothing happens.
// On success the caller's holds are extended by the checkout grace period in one step.
func (u *ReservationUseCase) ValidateCart(ctx context.Context, itemIDs []int64, who model.Identity) (_ *CartValidation, err error) {
	ctx, span := startSpan(ctx, "reservation.validate_cart", attribute.Int("cart.size", len(itemIDs)))
	defer func() { finishSpan(span, err) }()

	if err := requireIdentity(who); err != nil {
		return nil, err
	}
	ids := uniqueItemIDs(itemIDs)
	if len(ids) == 0 {
		return nil, &domainErrors.ValidationError{Field: "item_ids", Reason: "must not be empty"}
	}
	for _, id := range ids {
		if err := requireItemID(id); err != nil {
			return nil, err
		}
	}

	now := u.now()
	owned, err := u.assess(ctx, ids, who, now)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(u.cfg.CheckoutGrace)
	if len(owned) > 0 {
		missing, err := u.reservations.ExtendOwned(ctx, owned, who.HolderID, who.SessionID, expiresAt, now)
		if err != nil {
			if len(missing) > 0 {
				lapsed := make(map[int64]string, len(missing))
				for _, id := range missing {
					lapsed[id] = reasonHoldExpired
				}
				return nil, &domainErrors.UnavailableItemsError{Reasons: lapsed}
			}
			return nil, err
		}
	}

	return &CartValidation{ItemIDs: ids, Extended: owned, ExpiresAt: expiresAt}, nil
}

// assess classifies every item for the caller and returns the ones the caller holds.
// Any item not available to the caller fails the whole set with UnavailableItemsError.
func (u *ReservationUseCase) assess(ctx context.Context, ids []int64, who model.Identity, now time.Time) ([]int64, error) {
	holds, err := u.reservations.ListByItems(ctx, ids, now)
	if err != nil {
		return nil, err
	}
	byItem := make(map[int64]*model.Reservation, len(holds))
	for i := range holds {
		byItem[holds[i].ItemID] = &holds[i]
	}

	reasons := make(map[int64]string)
	var owned []int64
	for _, id := range ids {
		state, err := u.catalog.GetSaleState(ctx, id)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				reasons[id] = reasonNotFound
				continue
			}
			return nil, err
		}
		availability := classify(state, byItem[id], who)
		if !availability.AvailableToCaller() {
			reasons[id] = string(availability)
			continue
		}
		if availability == model.AvailabilityHeldByYou {
			owned = append(owned, id)
		}
	}
	if len(reasons) > 0 {
		return nil, &domainErrors.UnavailableItemsError{Reasons: reasons}
	}
	return owned, nil
}

// VerifyPurchase checks that every item can still be sold to the buyer: the catalog
// lists it as available and nobody else holds it.
func (u *ReservationUseCase) VerifyPurchase(ctx context.Context, itemIDs []int64, who model.Identity) (err error) {
	ctx, span := startSpan(ctx, "reservation.verify_purchase", attribute.Int("order.items", len(itemIDs)))
	defer func() { finishSpan(span, err) }()

	ids := uniqueItemIDs(itemIDs)
	if len(ids) == 0 {
		return &domainErrors.ValidationError{Field: "items", Reason: "must not be empty"}
	}
	_, err = u.assess(ctx, ids, who, u.now())
	return err
}

// ReleaseAll drops every hold owned by the caller.
func (u *ReservationUseCase) ReleaseAll(ctx context.Context, who model.Identity) (_ int64, err error) {
	ctx, span := startSpan(ctx, "reservation.release_all")
	defer func() { finishSpan(span, err) }()

	if err := requireIdentity(who); err != nil {
		return 0, err
	}
	return u.reservations.DeleteByOwner(ctx, who.HolderID, who.SessionID)
}

// ListHolds returns the caller's active holds.
func (u *ReservationUseCase) ListHolds(ctx context.Context, who model.Identity) (_ []model.Reservation, err error) {
	ctx, span := startSpan(ctx, "reservation.list_holds")
	defer func() { finishSpan(span, err) }()

	if err := requireIdentity(who); err != nil {
		return nil, err
	}
	return u.reservations.ListByOwner(ctx, who.HolderID, who.SessionID, u.now())
}

// ReleaseOwned drops the buyer's holds on purchased items. Holds placed by anyone else stay.
func (u *ReservationUseCase) ReleaseOwned(ctx context.Context, itemIDs []int64, who model.Identity) (int64, error) {
	ids := uniqueItemIDs(itemIDs)
	if len(ids) == 0 || who.Empty() {
		return 0, nil
	}
	return u.reservations.DeleteOwnedItems(ctx, ids, who.HolderID, who.SessionID)
}

// Sweep deletes holds that lapsed before a single snapshot instant.
func (u *ReservationUseCase) Sweep(ctx context.Context) (_ int64, err error) {
	ctx, span := startSpan(ctx, "reservation.sweep")
	defer func() { finishSpan(span, err) }()

	snapshot := u.now()
	removed, err := u.reservations.DeleteExpired(ctx, snapshot)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int64("reservations.removed", removed))
	if removed > 0 {
		u.logger.Info("expired holds swept", slog.Int64("removed", removed))
	}
	return removed, nil
}
