package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
	"github.com/polkiloo/atelier/internal/server/http/dto"
	"github.com/polkiloo/atelier/internal/server/http/middleware"
	"github.com/polkiloo/atelier/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type facadeStub struct {
	HoldFn         func(ctx context.Context, itemID int64, who model.Identity, ttl time.Duration) (*model.Reservation, error)
	ReleaseFn      func(ctx context.Context, itemID int64, who model.Identity) error
	AvailabilityFn func(ctx context.Context, itemID int64, who model.Identity) (model.Availability, error)
	CartFn         func(ctx context.Context, itemIDs []int64, who model.Identity) (*usecase.CartValidation, error)
	HoldsFn        func(ctx context.Context, who model.Identity) ([]model.Reservation, error)
	ReleaseAllFn   func(ctx context.Context, who model.Identity) (int64, error)
	SweepFn        func(ctx context.Context) (int64, error)

	CreateFn   func(ctx context.Context, payment usecase.PaymentConfirmed, actor string) (*model.Order, error)
	OrderFn    func(ctx context.Context, id int64, viewer model.Viewer) (*model.Order, error)
	HistoryFn  func(ctx context.Context, id int64, viewer model.Viewer) ([]model.StatusHistoryEntry, error)
	StatusFn   func(ctx context.Context, id int64, upd usecase.StatusUpdate) (*model.Order, error)
	CancelFn   func(ctx context.Context, id int64, reason, actor string) (*model.Order, error)
	MarkPaidFn func(ctx context.Context, id int64, reference, actor string) (*model.Order, error)

	SaleStateFn func(ctx context.Context, itemID int64, state model.SaleState, actor string) ([]model.Order, error)
}

var errNotStubbed = errors.New("not stubbed")

func (s facadeStub) HoldItem(ctx context.Context, itemID int64, who model.Identity, ttl time.Duration) (*model.Reservation, error) {
	if s.HoldFn == nil {
		return nil, errNotStubbed
	}
	return s.HoldFn(ctx, itemID, who, ttl)
}

func (s facadeStub) ReleaseHold(ctx context.Context, itemID int64, who model.Identity) error {
	if s.ReleaseFn == nil {
		return errNotStubbed
	}
	return s.ReleaseFn(ctx, itemID, who)
}

func (s facadeStub) CheckAvailability(ctx context.Context, itemID int64, who model.Identity) (model.Availability, error) {
	if s.AvailabilityFn == nil {
		return "", errNotStubbed
	}
	return s.AvailabilityFn(ctx, itemID, who)
}

func (s facadeStub) ValidateCart(ctx context.Context, itemIDs []int64, who model.Identity) (*usecase.CartValidation, error) {
	if s.CartFn == nil {
		return nil, errNotStubbed
	}
	return s.CartFn(ctx, itemIDs, who)
}

func (s facadeStub) MyHolds(ctx context.Context, who model.Identity) ([]model.Reservation, error) {
	if s.HoldsFn == nil {
		return nil, errNotStubbed
	}
	return s.HoldsFn(ctx, who)
}

func (s facadeStub) ReleaseAll(ctx context.Context, who model.Identity) (int64, error) {
	if s.ReleaseAllFn == nil {
		return 0, errNotStubbed
	}
	return s.ReleaseAllFn(ctx, who)
}

func (s facadeStub) SweepExpired(ctx context.Context) (int64, error) {
	if s.SweepFn == nil {
		return 0, errNotStubbed
	}
	return s.SweepFn(ctx)
}

func (s facadeStub) CreateOrder(ctx context.Context, payment usecase.PaymentConfirmed, actor string) (*model.Order, error) {
	if s.CreateFn == nil {
		return nil, errNotStubbed
	}
	return s.CreateFn(ctx, payment, actor)
}

func (s facadeStub) Order(ctx context.Context, id int64, viewer model.Viewer) (*model.Order, error) {
	if s.OrderFn == nil {
		return nil, errNotStubbed
	}
	return s.OrderFn(ctx, id, viewer)
}

func (s facadeStub) OrderHistory(ctx context.Context, id int64, viewer model.Viewer) ([]model.StatusHistoryEntry, error) {
	if s.HistoryFn == nil {
		return nil, errNotStubbed
	}
	return s.HistoryFn(ctx, id, viewer)
}

func (s facadeStub) UpdateOrderStatus(ctx context.Context, id int64, upd usecase.StatusUpdate) (*model.Order, error) {
	if s.StatusFn == nil {
		return nil, errNotStubbed
	}
	return s.StatusFn(ctx, id, upd)
}

func (s facadeStub) CancelOrder(ctx context.Context, id int64, reason, actor string) (*model.Order, error) {
	if s.CancelFn == nil {
		return nil, errNotStubbed
	}
	return s.CancelFn(ctx, id, reason, actor)
}

func (s facadeStub) MarkOrderPaid(ctx context.Context, id int64, reference, actor string) (*model.Order, error) {
	if s.MarkPaidFn == nil {
		return nil, errNotStubbed
	}
	return s.MarkPaidFn(ctx, id, reference, actor)
}

func (s facadeStub) ItemSaleStateChanged(ctx context.Context, itemID int64, state model.SaleState, actor string) ([]model.Order, error) {
	if s.SaleStateFn == nil {
		return nil, errNotStubbed
	}
	return s.SaleStateFn(ctx, itemID, state, actor)
}

type healthStub struct{ err error }

func (h healthStub) HealthCheck(context.Context) error { return h.err }

func performRequest(t *testing.T, method, route, target string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func asCaller(who model.Identity) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.IdentityContextKey, who)
	}
}

func asAdmin(actor string) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.AdminContextKey, true)
		c.Set(middleware.ActorContextKey, actor)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

var alice = model.Identity{HolderID: "alice", SessionID: "3f1c1b7e-8d7a-4b8e-9a53-1d2a6c7e9f10"}

func TestCurrentHelpers(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentIdentity(c); !got.Empty() {
		t.Fatalf("expected empty identity, got %+v", got)
	}
	if got := CurrentActor(c); got != "admin" {
		t.Fatalf("expected default actor, got %q", got)
	}

	asCaller(alice)(c)
	asAdmin("curator")(c)
	viewer := CurrentViewer(c)
	if viewer.HolderID != "alice" || !viewer.Admin {
		t.Fatalf("unexpected viewer %+v", viewer)
	}
	if got := CurrentActor(c); got != "curator" {
		t.Fatalf("expected curator, got %q", got)
	}
}

func TestHoldReturnsDeadline(t *testing.T) {
	expires := time.Date(2025, time.March, 14, 10, 15, 0, 0, time.UTC)
	handler := NewReservationHandler(facadeStub{HoldFn: func(_ context.Context, itemID int64, who model.Identity, ttl time.Duration) (*model.Reservation, error) {
		if who != alice {
			t.Fatalf("unexpected identity %+v", who)
		}
		if ttl != 5*time.Minute {
			t.Fatalf("unexpected ttl %v", ttl)
		}
		return &model.Reservation{ItemID: itemID, HolderID: who.HolderID, ExpiresAt: expires}, nil
	}})

	body := mustJSON(t, dto.HoldRequest{ItemID: 7, TTLSeconds: 300})
	w := performRequest(t, http.MethodPost, "/hold", "/hold", handler.Hold, asCaller(alice), body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.HoldResponse](t, w)
	if resp.ItemID != 7 || !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHoldErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"conflict", domainErrors.ErrConflict, http.StatusConflict},
		{"sold", domainErrors.ErrItemUnavailable, http.StatusConflict},
		{"missing item", domainErrors.ErrNotFound, http.StatusNotFound},
		{"bad ttl", &domainErrors.ValidationError{Field: "ttl", Reason: "must be positive"}, http.StatusUnprocessableEntity},
		{"no identity", domainErrors.ErrUnauthorized, http.StatusUnauthorized},
		{"storage", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewReservationHandler(facadeStub{HoldFn: func(context.Context, int64, model.Identity, time.Duration) (*model.Reservation, error) {
				return nil, tc.err
			}})
			w := performRequest(t, http.MethodPost, "/hold", "/hold", handler.Hold, asCaller(alice), mustJSON(t, dto.HoldRequest{ItemID: 1}))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestHoldRejectsMalformedBody(t *testing.T) {
	handler := NewReservationHandler(facadeStub{})
	w := performRequest(t, http.MethodPost, "/hold", "/hold", handler.Hold, asCaller(alice), []byte("{"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReservationBindingRules(t *testing.T) {
	handler := NewReservationHandler(facadeStub{})

	cases := []struct {
		name  string
		call  gin.HandlerFunc
		body  any
		field string
	}{
		{"hold without item", handler.Hold, dto.HoldRequest{}, "item_id"},
		{"hold negative ttl", handler.Hold, dto.HoldRequest{ItemID: 1, TTLSeconds: -5}, "ttl_seconds"},
		{"validate zero item", handler.ValidateItem, dto.ItemRequest{}, "item_id"},
		{"empty cart", handler.ValidateCart, dto.CartRequest{ItemIDs: []int64{}}, "item_ids"},
		{"cart with bad id", handler.ValidateCart, dto.CartRequest{ItemIDs: []int64{3, 0}}, "item_ids[1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(t, http.MethodPost, "/r", "/r", tc.call, asCaller(alice), mustJSON(t, tc.body))
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
			}
			if resp := decode[dto.ErrorResponse](t, w); resp.Field != tc.field {
				t.Fatalf("expected field %q, got %+v", tc.field, resp)
			}
		})
	}
}

func TestReleaseAcceptsQueryOrBody(t *testing.T) {
	var released []int64
	handler := NewReservationHandler(facadeStub{ReleaseFn: func(_ context.Context, itemID int64, _ model.Identity) error {
		released = append(released, itemID)
		return nil
	}})

	w := performRequest(t, http.MethodDelete, "/hold", "/hold?item_id=4", handler.Release, asCaller(alice), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = performRequest(t, http.MethodDelete, "/hold", "/hold", handler.Release, asCaller(alice), mustJSON(t, dto.ItemRequest{ItemID: 5}))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(released) != 2 || released[0] != 4 || released[1] != 5 {
		t.Fatalf("unexpected releases %v", released)
	}

	w = performRequest(t, http.MethodDelete, "/hold", "/hold?item_id=abc", handler.Release, asCaller(alice), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestValidateItem(t *testing.T) {
	handler := NewReservationHandler(facadeStub{AvailabilityFn: func(context.Context, int64, model.Identity) (model.Availability, error) {
		return model.AvailabilityHeldByOther, nil
	}})
	w := performRequest(t, http.MethodPost, "/validate", "/validate", handler.ValidateItem, asCaller(alice), mustJSON(t, dto.ItemRequest{ItemID: 3}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.AvailabilityResponse](t, w)
	if resp.Available || resp.Availability != "held_by_other" || resp.ItemID != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestValidateCartListsUnavailableItems(t *testing.T) {
	handler := NewReservationHandler(facadeStub{CartFn: func(context.Context, []int64, model.Identity) (*usecase.CartValidation, error) {
		return nil, &domainErrors.UnavailableItemsError{Reasons: map[int64]string{9: "sold", 2: "held_by_other"}}
	}})
	w := performRequest(t, http.MethodPost, "/cart", "/cart", handler.ValidateCart, asCaller(alice), mustJSON(t, dto.CartRequest{ItemIDs: []int64{2, 9}}))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := decode[dto.ErrorResponse](t, w)
	if len(resp.Items) != 2 || resp.Items[0].ItemID != 2 || resp.Items[1].Reason != "sold" {
		t.Fatalf("unexpected items %+v", resp.Items)
	}
}

func TestValidateCartSuccess(t *testing.T) {
	expires := time.Date(2025, time.March, 14, 10, 25, 0, 0, time.UTC)
	handler := NewReservationHandler(facadeStub{CartFn: func(_ context.Context, ids []int64, _ model.Identity) (*usecase.CartValidation, error) {
		return &usecase.CartValidation{ItemIDs: ids, ExpiresAt: expires}, nil
	}})
	w := performRequest(t, http.MethodPost, "/cart", "/cart", handler.ValidateCart, asCaller(alice), mustJSON(t, dto.CartRequest{ItemIDs: []int64{1, 2}}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.CartResponse](t, w)
	if len(resp.ItemIDs) != 2 || !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestMyHoldsAndReleaseAll(t *testing.T) {
	handler := NewReservationHandler(facadeStub{
		HoldsFn: func(context.Context, model.Identity) ([]model.Reservation, error) {
			return []model.Reservation{{ItemID: 1}, {ItemID: 2}}, nil
		},
		ReleaseAllFn: func(context.Context, model.Identity) (int64, error) { return 2, nil },
		SweepFn:      func(context.Context) (int64, error) { return 5, nil },
	})

	w := performRequest(t, http.MethodGet, "/mine", "/mine", handler.MyHolds, asCaller(alice), nil)
	if holds := decode[[]dto.HoldResponse](t, w); len(holds) != 2 {
		t.Fatalf("expected two holds, got %+v", holds)
	}
	w = performRequest(t, http.MethodDelete, "/all", "/all", handler.ReleaseAll, asCaller(alice), nil)
	if resp := decode[dto.CountResponse](t, w); resp.Count != 2 {
		t.Fatalf("expected count 2, got %+v", resp)
	}
	w = performRequest(t, http.MethodPost, "/sweep", "/sweep", handler.CleanupExpired, nil, nil)
	if resp := decode[dto.CountResponse](t, w); resp.Count != 5 {
		t.Fatalf("expected count 5, got %+v", resp)
	}
}

func sampleOrder() *model.Order {
	ref := "pi_1"
	paidAt := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)
	return &model.Order{
		ID:               1,
		Number:           "ORD-2025-0001",
		HolderID:         "alice",
		PaymentReference: &ref,
		Contact:          model.Contact{Name: "Alice", Email: "alice@example.com"},
		Items:            []model.LineItem{{ItemID: 7, Title: "Study", UnitPrice: decimal.RequireFromString("100.00"), Quantity: 1}},
		Subtotal:         decimal.RequireFromString("100.00"),
		Total:            decimal.RequireFromString("100.00"),
		Status:           model.OrderStatusPaid,
		CreatedAt:        paidAt,
		UpdatedAt:        paidAt,
		PaidAt:           &paidAt,
	}
}

func validOrderRequest() dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		PaymentReference: "pi_1",
		HolderID:         "alice",
		Contact:          dto.ContactPayload{Name: "Alice", Email: "alice@example.com"},
		Items:            []dto.LineItemPayload{{ItemID: 7, Title: "Study", UnitPrice: decimal.RequireFromString("100.00"), Quantity: 1}},
		Subtotal:         decimal.RequireFromString("100.00"),
		Total:            decimal.RequireFromString("100.00"),
	}
}

func TestCreateOrder(t *testing.T) {
	handler := NewOrderHandler(facadeStub{CreateFn: func(_ context.Context, p usecase.PaymentConfirmed, actor string) (*model.Order, error) {
		if actor != "payments" {
			t.Fatalf("unexpected actor %q", actor)
		}
		if p.Reference != "pi_1" || len(p.Items) != 1 || !p.Total.Equal(decimal.RequireFromString("100.00")) {
			t.Fatalf("unexpected payment %+v", p)
		}
		return sampleOrder(), nil
	}})

	w := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Create, asAdmin("payments"), mustJSON(t, validOrderRequest()))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[dto.OrderResponse](t, w)
	if resp.Number != "ORD-2025-0001" || resp.Status != "paid" || resp.PaidAt == nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCreateOrderInconsistentTotals(t *testing.T) {
	handler := NewOrderHandler(facadeStub{CreateFn: func(context.Context, usecase.PaymentConfirmed, string) (*model.Order, error) {
		return nil, domainErrors.ErrInconsistent
	}})
	w := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Create, asAdmin("payments"), mustJSON(t, validOrderRequest()))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestCreateOrderBindingRules(t *testing.T) {
	handler := NewOrderHandler(facadeStub{CreateFn: func(context.Context, usecase.PaymentConfirmed, string) (*model.Order, error) {
		t.Fatal("facade must not be called for an invalid body")
		return nil, nil
	}})

	cases := []struct {
		name   string
		mutate func(*dto.CreateOrderRequest)
		field  string
	}{
		{"missing name", func(r *dto.CreateOrderRequest) { r.Contact.Name = "" }, "contact.name"},
		{"bad email", func(r *dto.CreateOrderRequest) { r.Contact.Email = "alice" }, "contact.email"},
		{"no items", func(r *dto.CreateOrderRequest) { r.Items = nil }, "items"},
		{"zero item id", func(r *dto.CreateOrderRequest) { r.Items[0].ItemID = 0 }, "items[0].item_id"},
		{"negative item id", func(r *dto.CreateOrderRequest) { r.Items[0].ItemID = -3 }, "items[0].item_id"},
		{"zero quantity", func(r *dto.CreateOrderRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validOrderRequest()
			tc.mutate(&req)
			w := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Create, asAdmin("payments"), mustJSON(t, req))
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
			}
			if resp := decode[dto.ErrorResponse](t, w); resp.Field != tc.field {
				t.Fatalf("expected field %q, got %+v", tc.field, resp)
			}
		})
	}

	w := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Create, asAdmin("payments"), []byte(`{"items":"x"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for undecodable body, got %d", w.Code)
	}
}

func TestGetOrderPassesViewer(t *testing.T) {
	handler := NewOrderHandler(facadeStub{OrderFn: func(_ context.Context, id int64, viewer model.Viewer) (*model.Order, error) {
		if id != 1 || viewer.HolderID != "alice" || viewer.Admin {
			t.Fatalf("unexpected lookup %d %+v", id, viewer)
		}
		return sampleOrder(), nil
	}})
	w := performRequest(t, http.MethodGet, "/orders/:id", "/orders/1", handler.Get, asCaller(alice), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = performRequest(t, http.MethodGet, "/orders/:id", "/orders/zero", handler.Get, asCaller(alice), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetOrderForbidden(t *testing.T) {
	handler := NewOrderHandler(facadeStub{OrderFn: func(context.Context, int64, model.Viewer) (*model.Order, error) {
		return nil, domainErrors.ErrForbidden
	}})
	w := performRequest(t, http.MethodGet, "/orders/:id", "/orders/1", handler.Get, asCaller(model.Identity{HolderID: "bob"}), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestOrderHistory(t *testing.T) {
	pending := model.OrderStatusPending
	handler := NewOrderHandler(facadeStub{HistoryFn: func(context.Context, int64, model.Viewer) ([]model.StatusHistoryEntry, error) {
		return []model.StatusHistoryEntry{
			{StatusTo: model.OrderStatusPending, ChangedBy: "payments"},
			{StatusFrom: &pending, StatusTo: model.OrderStatusPaid, ChangedBy: "payments", Note: "payment pi_1"},
		}, nil
	}})
	w := performRequest(t, http.MethodGet, "/orders/:id/history", "/orders/1/history", handler.History, asCaller(alice), nil)
	entries := decode[[]dto.HistoryEntryResponse](t, w)
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %+v", entries)
	}
	if entries[0].From != nil || entries[1].From == nil || *entries[1].From != "pending" {
		t.Fatalf("unexpected from values %+v", entries)
	}
}

func TestUpdateStatusCarriesActor(t *testing.T) {
	handler := NewOrderHandler(facadeStub{StatusFn: func(_ context.Context, id int64, upd usecase.StatusUpdate) (*model.Order, error) {
		if upd.To != model.OrderStatusShipped || upd.ChangedBy != "curator" || upd.TrackingNumber != "1Z" {
			t.Fatalf("unexpected update %+v", upd)
		}
		order := sampleOrder()
		order.Status = upd.To
		return order, nil
	}})
	body := mustJSON(t, dto.StatusRequest{Status: "shipped", Carrier: "UPS", TrackingNumber: "1Z"})
	w := performRequest(t, http.MethodPut, "/orders/:id/status", "/orders/1/status", handler.UpdateStatus, asAdmin("curator"), body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := decode[dto.OrderResponse](t, w); resp.Status != "shipped" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
}

func TestUpdateStatusMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"transition", domainErrors.ErrInvalidTransition, http.StatusConflict},
		{"tracking", &domainErrors.ValidationError{Field: "tracking_number", Reason: "required"}, http.StatusUnprocessableEntity},
		{"missing", domainErrors.ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewOrderHandler(facadeStub{StatusFn: func(context.Context, int64, usecase.StatusUpdate) (*model.Order, error) {
				return nil, tc.err
			}})
			body := mustJSON(t, dto.StatusRequest{Status: "shipped"})
			w := performRequest(t, http.MethodPut, "/orders/:id/status", "/orders/1/status", handler.UpdateStatus, asAdmin("curator"), body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestCancelWithoutBody(t *testing.T) {
	handler := NewOrderHandler(facadeStub{CancelFn: func(_ context.Context, id int64, reason, actor string) (*model.Order, error) {
		if reason != "" || actor != "admin" {
			t.Fatalf("unexpected cancel %q %q", reason, actor)
		}
		order := sampleOrder()
		order.Status = model.OrderStatusCancelled
		return order, nil
	}})
	w := performRequest(t, http.MethodPost, "/orders/:id/cancel", "/orders/1/cancel", handler.Cancel, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestMarkPaid(t *testing.T) {
	handler := NewOrderHandler(facadeStub{MarkPaidFn: func(_ context.Context, _ int64, reference, _ string) (*model.Order, error) {
		if reference != "pi_9" {
			t.Fatalf("unexpected reference %q", reference)
		}
		return sampleOrder(), nil
	}})
	w := performRequest(t, http.MethodPost, "/orders/:id/mark-paid", "/orders/1/mark-paid", handler.MarkPaid, asAdmin("payments"), mustJSON(t, dto.MarkPaidRequest{PaymentReference: "pi_9"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestItemSaleStateChanged(t *testing.T) {
	handler := NewItemHandler(facadeStub{SaleStateFn: func(_ context.Context, itemID int64, state model.SaleState, actor string) ([]model.Order, error) {
		if itemID != 7 || state != model.SaleStateAvailable || actor != "catalog" {
			t.Fatalf("unexpected call %d %q %q", itemID, state, actor)
		}
		order := sampleOrder()
		order.Status = model.OrderStatusCancelled
		return []model.Order{*order}, nil
	}})
	body := mustJSON(t, dto.SaleStateRequest{SaleState: "available"})
	w := performRequest(t, http.MethodPost, "/items/:id/sale-state", "/items/7/sale-state", handler.SaleStateChanged, asAdmin("catalog"), body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.SyncResponse](t, w)
	if len(resp.Orders) != 1 || resp.Orders[0].Status != "cancelled" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHealthCheck(t *testing.T) {
	w := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(healthStub{}).Check, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(healthStub{err: errors.New("down")}).Check, nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
